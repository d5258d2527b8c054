package lirashield

import (
	"fmt"
	"strings"
)

// Direction tells whether a transaction adds to or removes from a position.
type Direction int

const (
	Buy Direction = iota + 1
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseDirection parses a string into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrValidation, s)
	}
}

// AssetClass is the kind of instrument a ticker refers to. It determines the
// currency the instrument is priced in and where its prices come from.
type AssetClass int

const (
	// Fund is a TEFAS mutual fund priced in TRY.
	Fund AssetClass = iota + 1
	// Stock is a USD denominated stock.
	Stock
	// Cash is a currency balance, its ticker is the currency code.
	Cash
)

func (a AssetClass) String() string {
	switch a {
	case Fund:
		return "fund"
	case Stock:
		return "stock"
	case Cash:
		return "cash"
	default:
		return "unknown"
	}
}

// ParseAssetClass parses a string into an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fund", "tefas":
		return Fund, nil
	case "stock", "usd_stock":
		return Stock, nil
	case "cash":
		return Cash, nil
	default:
		return 0, fmt.Errorf("%w: unknown asset class %q", ErrValidation, s)
	}
}

// LookupMode selects how a series resolves a date that has no value.
type LookupMode int

const (
	// AsOf falls back to the most recent value at or before the date.
	AsOf LookupMode = iota
	// Exact only accepts a value recorded at that very date.
	Exact
)

func (m LookupMode) String() string {
	switch m {
	case AsOf:
		return "as-of"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// Weighting selects the weight of each lot in the aggregated averages.
type Weighting int

const (
	// ByQuantity weights lots by their matched or open quantity.
	ByQuantity Weighting = iota
	// ByCost weights lots by their cost in TRY.
	ByCost
)

func (w Weighting) String() string {
	switch w {
	case ByQuantity:
		return "quantity"
	case ByCost:
		return "cost"
	default:
		return "unknown"
	}
}

// ParseWeighting parses a string into a Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quantity", "":
		return ByQuantity, nil
	case "cost":
		return ByCost, nil
	default:
		return 0, fmt.Errorf("%w: unknown weighting %q", ErrValidation, s)
	}
}
