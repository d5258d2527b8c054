// Package provider defines how remote price sources are queried and how
// their quotes end up in the store.
package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
)

// PriceWindow is the number of days PriceAt searches, starting at the
// requested day, to step over weekends and holidays.
const PriceWindow = 7

// UpToDate is the age in days under which a series is considered current.
const UpToDate = 3

// Quote is a single closing price.
type Quote struct {
	Date  date.Date
	Price float64
}

// Source is a remote provider of daily closing prices.
//
// Fetch returns the quotes within r, sorted by date. Transient failures wrap
// lirashield.ErrProviderUnavailable.
type Source interface {
	Name() string
	Fetch(ctx context.Context, ticker string, r date.Range) ([]Quote, error)
}

// PriceSink stores prices.
type PriceSink interface {
	PutPrices(ctx context.Context, entries []lirashield.PriceEntry) (int, error)
}

// RateStore stores USD/TRY rates and tells which days are already known.
type RateStore interface {
	HasRate(ctx context.Context, day date.Date) (bool, error)
	PutRates(ctx context.Context, entries []lirashield.RateEntry) (int, error)
}

// Normalize sorts quotes by date, keeping the last quote of a day and
// dropping non positive prices and days outside r.
func Normalize(quotes []Quote, r date.Range) []Quote {
	quotes = slices.DeleteFunc(quotes, func(q Quote) bool { return q.Price <= 0 || !r.Contains(q.Date) })
	slices.SortStableFunc(quotes, func(a, b Quote) int { return a.Date.Compare(b.Date) })
	out := quotes[:0]
	for _, q := range quotes {
		if n := len(out); n > 0 && out[n-1].Date == q.Date {
			out[n-1] = q
			continue
		}
		out = append(out, q)
	}
	return out
}

// PriceAt returns the first quote of ticker at or after day, within
// PriceWindow days. It fails with ErrDataNotFound when there is none.
func PriceAt(ctx context.Context, src Source, ticker string, day date.Date) (Quote, error) {
	r := date.NewRange(day, day.Add(PriceWindow-1))
	quotes, err := src.Fetch(ctx, ticker, r)
	if err != nil {
		return Quote{}, err
	}
	quotes = Normalize(quotes, r)
	if len(quotes) == 0 {
		return Quote{}, fmt.Errorf("%w: no %s quote for %s in %s", lirashield.ErrDataNotFound, src.Name(), ticker, r)
	}
	return quotes[0], nil
}

// Backfill fetches the prices of ticker over r and stores them. It returns the
// number of prices stored.
func Backfill(ctx context.Context, src Source, sink PriceSink, ticker string, r date.Range) (int, error) {
	ticker = lirashield.NormalizeTicker(ticker)
	quotes, err := src.Fetch(ctx, ticker, r)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s prices from %s: %w", ticker, src.Name(), err)
	}
	quotes = Normalize(quotes, r)
	if len(quotes) == 0 {
		logger.L.Info("no new prices", "ticker", ticker, "source", src.Name(), "range", r.String())
		return 0, nil
	}
	entries := make([]lirashield.PriceEntry, len(quotes))
	for i, q := range quotes {
		entries[i] = lirashield.PriceEntry{Ticker: ticker, Date: q.Date, Price: q.Price, Source: src.Name()}
	}
	n, err := sink.PutPrices(ctx, entries)
	if err != nil {
		return 0, err
	}
	logger.L.Info("prices fetched", "ticker", ticker, "source", src.Name(), "count", n, "range", r.String())
	return n, nil
}

// BackfillRates fetches the USD/TRY rates, quoted by src under symbol, over r
// and stores them.
func BackfillRates(ctx context.Context, src Source, symbol string, sink RateStore, r date.Range) (int, error) {
	quotes, err := src.Fetch(ctx, symbol, r)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch USD/TRY rates from %s: %w", src.Name(), err)
	}
	quotes = Normalize(quotes, r)
	if len(quotes) == 0 {
		logger.L.Info("no new USD/TRY rates", "source", src.Name(), "range", r.String())
		return 0, nil
	}
	entries := make([]lirashield.RateEntry, len(quotes))
	for i, q := range quotes {
		entries[i] = lirashield.RateEntry{Date: q.Date, Rate: q.Price, Source: src.Name()}
	}
	n, err := sink.PutRates(ctx, entries)
	if err != nil {
		return 0, err
	}
	logger.L.Info("USD/TRY rates fetched", "source", src.Name(), "count", n, "range", r.String())
	return n, nil
}

// Incremental returns the range still to fetch for a series whose most recent
// value is on latest, or zero when the series is empty.
//
// An empty series is fetched from yearsBack years before earliest, the first
// day the series is needed. A series less than UpToDate days old needs nothing
// and ok is false.
func Incremental(latest, earliest date.Date, yearsBack int, today date.Date) (r date.Range, ok bool) {
	if !latest.IsZero() {
		if today.Sub(latest) <= UpToDate {
			return date.Range{}, false
		}
		return date.NewRange(latest.Add(1), today), true
	}
	if earliest.IsZero() || earliest.After(today) {
		earliest = today
	}
	return date.NewRange(earliest.AddYears(-yearsBack), today), true
}

// EnsureRates makes sure a USD/TRY rate is stored at exactly each of days,
// fetching the missing ones from src. A fetched rate is the first quote within
// PriceWindow days and is stored under the requested day.
//
// Days the source has no quote for are skipped, they are reported by the
// analysis as missing data. It returns the number of rates stored.
func EnsureRates(ctx context.Context, src Source, symbol string, st RateStore, days []date.Date) (int, error) {
	days = slices.Clone(days)
	slices.SortFunc(days, func(a, b date.Date) int { return a.Compare(b) })
	days = slices.Compact(days)

	var entries []lirashield.RateEntry
	var errs error
	for _, day := range days {
		if day.IsZero() {
			continue
		}
		known, err := st.HasRate(ctx, day)
		if err != nil {
			return 0, err
		}
		if known {
			continue
		}
		q, err := PriceAt(ctx, src, symbol, day)
		switch {
		case errors.Is(err, lirashield.ErrDataNotFound):
			logger.L.Warn("no USD/TRY rate available", "date", day.String(), "source", src.Name())
			continue
		case err != nil:
			errs = errors.Join(errs, fmt.Errorf("USD/TRY rate on %s: %w", day, err))
			continue
		}
		entries = append(entries, lirashield.RateEntry{Date: day, Rate: q.Price, Source: src.Name() + "_auto"})
	}
	if len(entries) == 0 {
		return 0, errs
	}
	n, err := st.PutRates(ctx, entries)
	if err != nil {
		return 0, errors.Join(errs, err)
	}
	logger.L.Info("missing USD/TRY rates fetched", "count", n)
	return n, errs
}
