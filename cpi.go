package lirashield

import (
	"cmp"
	"fmt"
	"math"

	"github.com/yaman-yucel/lirashield/date"
)

// CPIEntry is an official monthly CPI print.
//
// MoM is the month over month change, it is optional because some sources
// only publish the yearly figure.
type CPIEntry struct {
	Month date.YearMonth
	YoY   Percent
	MoM   *Percent
}

// Validate checks that the print is usable.
func (e CPIEntry) Validate() error {
	if e.Month.IsZero() {
		return fmt.Errorf("%w: cpi entry without month", ErrValidation)
	}
	if e.YoY <= -100 {
		return fmt.Errorf("%w: cpi %s: yearly change %v must be above -100%%", ErrValidation, e.Month, float64(e.YoY))
	}
	if e.MoM != nil && *e.MoM <= -100 {
		return fmt.Errorf("%w: cpi %s: monthly change %v must be above -100%%", ErrValidation, e.Month, float64(*e.MoM))
	}
	return nil
}

func compareMonths(a, b date.YearMonth) int {
	if c := cmp.Compare(a.Year(), b.Year()); c != 0 {
		return c
	}
	return cmp.Compare(a.Month(), b.Month())
}

// LatestCPI returns the most recent print that has a monthly change.
func (m *Market) LatestCPI() (CPIEntry, bool) {
	var latest CPIEntry
	found := false
	for ym, e := range m.cpi {
		if e.MoM == nil {
			continue
		}
		if !found || ym.After(latest.Month) {
			latest, found = e, true
		}
	}
	return latest, found
}

// monthly returns the month over month change of ym.
func (m *Market) monthly(ym date.YearMonth) (Percent, error) {
	if e, ok := m.cpi[ym]; ok && e.MoM != nil {
		return *e.MoM, nil
	}
	if m.ExtrapolateCPI {
		if latest, ok := m.LatestCPI(); ok && ym.After(latest.Month) {
			return *latest.MoM, nil
		}
	}
	return 0, fmt.Errorf("%w: no monthly CPI for %s", ErrDataNotFound, ym)
}

// CPIBetween implements TimeSeriesStore.
//
// Monthly changes are compounded, the first and last months are pro-rated by
// the fraction of days elapsed in them: from the start day included to the
// end day excluded. A month contributing no day is not required.
func (m *Market) CPIBetween(from, to date.Date) (Percent, error) {
	if to.Before(from) {
		return 0, fmt.Errorf("%w: cpi between %s and %s: end before start", ErrValidation, from, to)
	}
	if from == to {
		return 0, nil
	}

	factor := 1.0
	accrue := func(ym date.YearMonth, days int) error {
		if days <= 0 {
			return nil
		}
		mom, err := m.monthly(ym)
		if err != nil {
			return err
		}
		factor *= math.Pow(mom.Factor(), float64(days)/float64(ym.Days()))
		return nil
	}

	first, last := date.MonthOf(from), date.MonthOf(to)
	if first == last {
		if err := accrue(first, to.Day()-from.Day()); err != nil {
			return 0, err
		}
		return PercentOf(factor), nil
	}

	if err := accrue(first, first.Days()-from.Day()+1); err != nil {
		return 0, err
	}
	for ym := first.Next(); ym.Before(last); ym = ym.Next() {
		if err := accrue(ym, ym.Days()); err != nil {
			return 0, err
		}
	}
	if err := accrue(last, to.Day()-1); err != nil {
		return 0, err
	}
	return PercentOf(factor), nil
}
