package lirashield

import (
	"fmt"

	"github.com/yaman-yucel/lirashield/date"
)

// InflationCalculator computes the cumulative change of each inflation
// benchmark between two dates.
type InflationCalculator struct {
	Series TimeSeriesStore
	// Mode is the lookup mode used for USD/TRY endpoints.
	Mode LookupMode
}

// FXChange returns the change of the USD/TRY rate from 'from' to 'to'.
func (c InflationCalculator) FXChange(from, to date.Date) (Percent, error) {
	start, err := c.Series.RateAt(from, c.Mode)
	if err != nil {
		return 0, err
	}
	end, err := c.Series.RateAt(to, c.Mode)
	if err != nil {
		return 0, err
	}
	if start <= 0 {
		return 0, fmt.Errorf("%w: USD/TRY rate on %s is %v", ErrValidation, from, start)
	}
	return PercentOf(end / start), nil
}

// CPIChange returns the cumulative CPI change from 'from' to 'to'. It is
// exactly zero when both dates are the same.
func (c InflationCalculator) CPIChange(from, to date.Date) (Percent, error) {
	if from == to {
		return 0, nil
	}
	if to.Before(from) {
		return 0, fmt.Errorf("%w: cpi change from %s to %s: end before start", ErrValidation, from, to)
	}
	return c.Series.CPIBetween(from, to)
}

// Benchmarks returns both changes as optional values. Unresolved benchmarks
// are nil and their error is returned joined in missing. Any other error is
// returned as err.
func (c InflationCalculator) Benchmarks(from, to date.Date) (fx, cpi *Percent, missing []error, err error) {
	if v, e := c.FXChange(from, to); e == nil {
		fx = v.Ptr()
	} else if isMissing(e) {
		missing = append(missing, e)
	} else {
		return nil, nil, nil, e
	}
	if v, e := c.CPIChange(from, to); e == nil {
		cpi = v.Ptr()
	} else if isMissing(e) {
		missing = append(missing, e)
	} else {
		return nil, nil, nil, e
	}
	return fx, cpi, missing, nil
}
