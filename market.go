package lirashield

import (
	"fmt"
	"maps"
	"slices"

	"github.com/yaman-yucel/lirashield/date"
)

// TimeSeriesStore is the read contract the computation core needs over the
// price, USD/TRY rate and CPI series.
//
// Lookups that cannot be resolved return an error wrapping ErrDataNotFound.
type TimeSeriesStore interface {
	// PriceAt returns the price of ticker on a given day.
	PriceAt(ticker string, on date.Date, mode LookupMode) (float64, error)
	// RateAt returns the USD/TRY rate on a given day.
	RateAt(on date.Date, mode LookupMode) (float64, error)
	// CPIBetween returns the cumulative CPI change between two days.
	CPIBetween(from, to date.Date) (Percent, error)
}

// PriceEntry is a single price of a ticker.
type PriceEntry struct {
	Ticker string
	Date   date.Date
	Price  float64
	Source string
}

// RateEntry is a single USD/TRY rate.
type RateEntry struct {
	Date   date.Date
	Rate   float64
	Source string
}

// Market is an in-memory snapshot of the price, rate and CPI series.
//
// A Market is built once, then only read. It is not safe for concurrent
// writes.
type Market struct {
	prices map[string]*date.History[float64]
	usd    date.History[float64]
	cpi    map[date.YearMonth]CPIEntry

	// ExtrapolateCPI lets CPIBetween reuse the latest known monthly print for
	// months after it, instead of failing with ErrDataNotFound.
	ExtrapolateCPI bool
}

// NewMarket returns a new empty market.
func NewMarket() *Market {
	return &Market{
		prices: make(map[string]*date.History[float64]),
		cpi:    make(map[date.YearMonth]CPIEntry),
	}
}

// SetPrice records the price of ticker on a day, replacing any previous value.
func (m *Market) SetPrice(ticker string, day date.Date, price float64) {
	ticker = NormalizeTicker(ticker)
	h, ok := m.prices[ticker]
	if !ok {
		h = new(date.History[float64])
		m.prices[ticker] = h
	}
	h.Append(day, price)
}

// SetRate records the USD/TRY rate on a day, replacing any previous value.
func (m *Market) SetRate(day date.Date, rate float64) { m.usd.Append(day, rate) }

// SetCPI records a monthly CPI print, replacing any previous one for that month.
func (m *Market) SetCPI(e CPIEntry) { m.cpi[e.Month] = e }

// Has reports whether there is at least one price for ticker.
func (m *Market) Has(ticker string) bool {
	_, ok := m.prices[NormalizeTicker(ticker)]
	return ok
}

// Tickers returns the sorted list of tickers with prices.
func (m *Market) Tickers() []string { return slices.Sorted(maps.Keys(m.prices)) }

// Prices returns the price history of ticker, or nil.
func (m *Market) Prices(ticker string) *date.History[float64] {
	return m.prices[NormalizeTicker(ticker)]
}

// Rates returns the USD/TRY history.
func (m *Market) Rates() *date.History[float64] { return &m.usd }

// CPI returns every monthly print in chronological order.
func (m *Market) CPI() []CPIEntry {
	entries := slices.Collect(maps.Values(m.cpi))
	slices.SortFunc(entries, func(a, b CPIEntry) int { return compareMonths(a.Month, b.Month) })
	return entries
}

// PriceAt implements TimeSeriesStore.
func (m *Market) PriceAt(ticker string, on date.Date, mode LookupMode) (float64, error) {
	ticker = NormalizeTicker(ticker)
	h, ok := m.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: no price for %s", ErrDataNotFound, ticker)
	}
	v, ok := lookup(h, on, mode)
	if !ok {
		return 0, fmt.Errorf("%w: no %s price for %s on %s", ErrDataNotFound, mode, ticker, on)
	}
	return v, nil
}

// RateAt implements TimeSeriesStore.
func (m *Market) RateAt(on date.Date, mode LookupMode) (float64, error) {
	v, ok := lookup(&m.usd, on, mode)
	if !ok {
		return 0, fmt.Errorf("%w: no %s USD/TRY rate on %s", ErrDataNotFound, mode, on)
	}
	return v, nil
}

func lookup(h *date.History[float64], on date.Date, mode LookupMode) (float64, bool) {
	if mode == Exact {
		return h.Get(on)
	}
	return h.ValueAsOf(on)
}
