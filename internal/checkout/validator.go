package checkout

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

// Line is one requested product and quantity.
type Line struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// MaxQuantity bounds a single line and the merged quantity of one product.
const MaxQuantity = 100_000

// mergeLines sums the quantities of repeated products, keeping the order in
// which each product first appears. Each line and each merged sum must lie in
// 1..MaxQuantity, so the addition can never wrap.
func mergeLines(lines []Line) ([]Line, error) {
	index := make(map[primitive.ObjectID]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, invalid("quantity", "quantity must be greater than zero")
		}
		if line.Quantity > MaxQuantity {
			return nil, invalid("quantity", "quantity must not exceed %d", MaxQuantity)
		}
		if i, ok := index[line.ProductID]; ok {
			if merged[i].Quantity > MaxQuantity-line.Quantity {
				return nil, invalid("quantity", "total quantity for product %s exceeds %d", line.ProductID.Hex(), MaxQuantity)
			}
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// Validator checks a batch against current inventory without changing it.
type Validator struct {
	products store.Products
}

func NewValidator(products store.Products) *Validator {
	return &Validator{products: products}
}

// Validate reads every product of lines in one query and reports the first
// failing line in request order. lines must already be merged.
func (v *Validator) Validate(ctx context.Context, lines []Line) (map[primitive.ObjectID]models.Product, error) {
	if len(lines) == 0 {
		return nil, invalid("products", "At least one product is required")
	}

	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, line := range lines {
		if line.ProductID.IsZero() {
			return nil, invalid("productId", "invalid productId")
		}
		if line.Quantity <= 0 {
			return nil, invalid("quantity", "quantity must be greater than zero")
		}
		ids = append(ids, line.ProductID)
	}

	found, err := v.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, InternalError{Op: "load products", Err: err}
	}

	for _, line := range lines {
		product, ok := found[line.ProductID]
		if !ok {
			return nil, NotFoundError{Resource: "product", ID: line.ProductID}
		}
		if product.StockQuantity < line.Quantity {
			return nil, InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.StockQuantity,
				Requested: line.Quantity,
			}
		}
	}
	return found, nil
}
