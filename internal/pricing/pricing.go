// Package pricing is the single source of truth for order pricing.
// Every call site (draft quote preview, payment intent creation, order
// persistence) must go through Compute so the numbers can never drift.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MinimumOrderValue is the floor the platform fee tops orders up to.
	MinimumOrderValue = 50.0
	// FlatFee is charged once the subtotal clears the minimum order value.
	FlatFee = 5.0
)

// Rates holds a shop's per-sheet prices.
type Rates struct {
	BlackAndWhite float64
	Color         float64
}

// Item is one file with resolved print settings. Files without a settings
// entry are excluded before pricing and contribute nothing to the subtotal.
type Item struct {
	PageCount     int
	BlackAndWhite bool
	DoubleSided   bool
}

// Quote is the priced breakdown of a draft order.
type Quote struct {
	Subtotal    float64 `json:"subtotal"`
	PlatformFee float64 `json:"platform_fee"`
	Total       float64 `json:"total_price"`
}

// SheetsNeeded returns the number of physical sheets for a file.
// Duplex puts two pages on a sheet. A file with an unknown page count is
// billed as one page, never zero.
func SheetsNeeded(pageCount int, doubleSided bool) int {
	if pageCount <= 0 {
		pageCount = 1
	}
	if doubleSided {
		return (pageCount + 1) / 2
	}
	return pageCount
}

// PlatformFee tops the order up to MinimumOrderValue below the threshold and
// charges FlatFee above it. subtotal + PlatformFee(subtotal) >= 50 always.
func PlatformFee(subtotal float64) float64 {
	if subtotal < MinimumOrderValue {
		return MinimumOrderValue - subtotal
	}
	return FlatFee
}

// Compute prices a set of items against a shop's rates.
func Compute(items []Item, rates Rates) (Quote, error) {
	if err := validRate("price_bw", rates.BlackAndWhite); err != nil {
		return Quote{}, err
	}
	if err := validRate("price_color", rates.Color); err != nil {
		return Quote{}, err
	}

	subtotal := 0.0
	for _, item := range items {
		rate := rates.Color
		if item.BlackAndWhite {
			rate = rates.BlackAndWhite
		}
		subtotal += float64(SheetsNeeded(item.PageCount, item.DoubleSided)) * rate
	}

	fee := PlatformFee(subtotal)
	return Quote{
		Subtotal:    subtotal,
		PlatformFee: fee,
		Total:       subtotal + fee,
	}, nil
}

// MinorUnits converts a major-unit amount to the processor's smallest
// currency unit. Decimal arithmetic so 19.99 never becomes 1998.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func validRate(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not a finite number", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}
