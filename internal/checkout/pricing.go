package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const (
	MinSalePercentage = 1
	MaxSalePercentage = 90
)

// totalTolerance is how far a client-computed total may drift from ours.
var totalTolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

func isProductOnSale(product models.Product) bool {
	return product.IsOnSale && product.SalePercentage > 0 && product.SalePercentage < 100
}

// UnitPrice is what one unit of product costs right now. Sale prices are
// rounded to whole units, the way the storefront cart shows them.
func UnitPrice(product models.Product) decimal.Decimal {
	price := decimal.NewFromFloat(product.Price)
	if !isProductOnSale(product) {
		return price
	}
	discount := price.Mul(decimal.NewFromFloat(product.SalePercentage)).Div(hundred)
	return price.Sub(discount).Round(0)
}

// OrderTotal prices lines against products.
func OrderTotal(lines []Line, products map[primitive.ObjectID]models.Product) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		product := products[line.ProductID]
		total = total.Add(UnitPrice(product).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func totalsMatch(claimed float64, computed decimal.Decimal) bool {
	return decimal.NewFromFloat(claimed).Sub(computed).Abs().LessThanOrEqual(totalTolerance)
}

// ValidateSale checks the catalog pricing fields an administrator submits.
func ValidateSale(price float64, onSale bool, percentage float64) error {
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if !onSale {
		return nil
	}
	if percentage < MinSalePercentage || percentage > MaxSalePercentage {
		return fmt.Errorf("salePercentage must be between %d and %d", MinSalePercentage, MaxSalePercentage)
	}
	return nil
}
