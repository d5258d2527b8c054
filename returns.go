package lirashield

import (
	"errors"
	"fmt"

	"github.com/yaman-yucel/lirashield/date"
)

// Evaluation is the input of a single lot return decomposition.
type Evaluation struct {
	BuyPrice     float64
	CurrentPrice float64
	Quantity     Quantity
	TaxRate      Percent
	BuyDate      date.Date
	EvalDate     date.Date
	// FXChange and CPIChange are the benchmark changes over the holding
	// period, nil when unresolved.
	FXChange  *Percent
	CPIChange *Percent
}

// RealReturn is the nominal and real return breakdown of one lot.
//
// Benchmark fields are nil when the benchmark could not be resolved. When
// none could, Err is set (wrapping ErrDataNotFound) and only Nominal is
// meaningful.
type RealReturn struct {
	Nominal      Percent
	USDInflation *Percent
	RealUSD      *Percent
	CPIInflation *Percent
	RealCPI      *Percent
	Err          error
}

// Resolved reports whether at least one benchmark was resolved.
func (r RealReturn) Resolved() bool { return r.Err == nil }

// Decompose computes the after tax nominal return of a lot and its real
// return against each available benchmark.
//
// Tax only applies to a positive gain, and is applied before deflating.
func Decompose(e Evaluation) (RealReturn, error) {
	switch {
	case e.BuyPrice <= 0:
		return RealReturn{}, fmt.Errorf("%w: buy price must be positive, got %v", ErrValidation, e.BuyPrice)
	case e.CurrentPrice < 0:
		return RealReturn{}, fmt.Errorf("%w: current price must not be negative, got %v", ErrValidation, e.CurrentPrice)
	case e.TaxRate < 0 || e.TaxRate > 100:
		return RealReturn{}, fmt.Errorf("%w: tax rate must be within [0, 100], got %v", ErrValidation, float64(e.TaxRate))
	case e.Quantity.IsNegative():
		return RealReturn{}, fmt.Errorf("%w: quantity must not be negative, got %s", ErrValidation, e.Quantity)
	case !e.BuyDate.IsZero() && !e.EvalDate.IsZero() && e.EvalDate.Before(e.BuyDate):
		return RealReturn{}, fmt.Errorf("%w: evaluated on %s before buy on %s", ErrValidation, e.EvalDate, e.BuyDate)
	}

	gain := e.CurrentPrice - e.BuyPrice
	if gain > 0 {
		gain *= 1 - float64(e.TaxRate)/100
	}
	nominal := PercentOf((e.BuyPrice + gain) / e.BuyPrice)

	r := RealReturn{Nominal: nominal}
	if e.FXChange != nil {
		r.USDInflation = e.FXChange
		r.RealUSD = deflate(nominal, *e.FXChange).Ptr()
	}
	if e.CPIChange != nil {
		r.CPIInflation = e.CPIChange
		r.RealCPI = deflate(nominal, *e.CPIChange).Ptr()
	}
	if e.FXChange == nil && e.CPIChange == nil {
		r.Err = fmt.Errorf("%w: no inflation benchmark between %s and %s", ErrDataNotFound, e.BuyDate, e.EvalDate)
	}
	return r, nil
}

// deflate returns the real return of a nominal return given an inflation.
func deflate(nominal, inflation Percent) Percent {
	return PercentOf(nominal.Factor() / inflation.Factor())
}

func isMissing(err error) bool { return errors.Is(err, ErrDataNotFound) }
