package lirashield

import (
	"github.com/yaman-yucel/lirashield/date"
)

// d is a short hand for date.MustParse in tests.
func d(s string) date.Date { return date.MustParse(s) }

// pct returns a pointer to a Percent.
func pct(v float64) *Percent { return Percent(v).Ptr() }

// newTestMarket returns a market with monthly CPI prints for 2023 and 2024 at
// 2% per month, and USD/TRY rates at the start of each year.
func newTestMarket() *Market {
	m := NewMarket()
	for ym := date.MustParseYearMonth("2023-01"); ym.Before(date.MustParseYearMonth("2025-01")); ym = ym.Next() {
		m.SetCPI(CPIEntry{Month: ym, YoY: 50, MoM: pct(2)})
	}
	m.SetRate(d("2023-01-01"), 20)
	m.SetRate(d("2024-01-01"), 26)
	m.SetRate(d("2024-06-01"), 32)
	return m
}
