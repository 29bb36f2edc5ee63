package handlers

import "storefront/internal/checkout"

type saleUpdateInput struct {
	Price          *float64
	IsOnSale       *bool
	SalePercentage *float64
}

type saleUpdateResult struct {
	Price             float64
	IsOnSale          bool
	SalePercentage    float64
	SetIsOnSale       bool
	SetSalePercentage bool
}

// resolveSaleUpdate merges an update into the product's current pricing and
// validates the outcome. Turning a sale off clears its percentage.
func resolveSaleUpdate(existingPrice float64, existingOnSale bool, existingPercentage float64, input saleUpdateInput) (saleUpdateResult, error) {
	result := saleUpdateResult{
		Price:          existingPrice,
		IsOnSale:       existingOnSale,
		SalePercentage: existingPercentage,
	}

	if input.Price != nil {
		result.Price = *input.Price
	}

	if input.IsOnSale != nil {
		result.IsOnSale = *input.IsOnSale
		result.SetIsOnSale = true
		if !*input.IsOnSale {
			result.SalePercentage = 0
			result.SetSalePercentage = true
		}
	}

	if input.SalePercentage != nil && result.IsOnSale {
		result.SalePercentage = *input.SalePercentage
		result.SetSalePercentage = true
	}

	if err := checkout.ValidateSale(result.Price, result.IsOnSale, result.SalePercentage); err != nil {
		return saleUpdateResult{}, err
	}

	return result, nil
}
