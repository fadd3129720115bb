package domain

import "github.com/shopspring/decimal"

// Package is a bookable travel package from the catalog.
type Package struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	B2BPrice decimal.Decimal `json:"b2b_price"`
	Quota    int             `json:"quota"`
	Active   bool            `json:"active"`
}

// B2BSavings is the per-traveler discount a verified partner gets. Never negative.
func (p Package) B2BSavings() decimal.Decimal {
	if p.B2BPrice.IsZero() || p.B2BPrice.GreaterThanOrEqual(p.Price) {
		return decimal.Zero
	}
	return p.Price.Sub(p.B2BPrice)
}
