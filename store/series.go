package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
)

// PutPrices upserts prices, the most recent write wins. It returns the number
// of rows written.
func (s *Store) PutPrices(ctx context.Context, entries []lirashield.PriceEntry) (int, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO prices (ticker, date, price, source) VALUES (?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET price = excluded.price, source = excluded.source`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if e.Price <= 0 {
				return fmt.Errorf("%w: price of %s on %s must be positive, got %v", lirashield.ErrValidation, e.Ticker, e.Date, e.Price)
			}
			if _, err := stmt.ExecContext(ctx, lirashield.NormalizeTicker(e.Ticker), e.Date.String(), e.Price, e.Source); err != nil {
				return fmt.Errorf("failed to write price of %s on %s: %w", e.Ticker, e.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.L.Debug("prices stored", "count", len(entries))
	return len(entries), nil
}

// PutRates upserts USD/TRY rates, the most recent write wins.
func (s *Store) PutRates(ctx context.Context, entries []lirashield.RateEntry) (int, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO usd_rates (date, rate, source) VALUES (?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET rate = excluded.rate, source = excluded.source`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if e.Rate <= 0 {
				return fmt.Errorf("%w: USD/TRY rate on %s must be positive, got %v", lirashield.ErrValidation, e.Date, e.Rate)
			}
			if _, err := stmt.ExecContext(ctx, e.Date.String(), e.Rate, e.Source); err != nil {
				return fmt.Errorf("failed to write USD/TRY rate on %s: %w", e.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.L.Debug("rates stored", "count", len(entries))
	return len(entries), nil
}

// PutCPI upserts monthly CPI prints.
func (s *Store) PutCPI(ctx context.Context, entries []lirashield.CPIEntry) (int, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO cpi (month, yoy, mom) VALUES (?, ?, ?)
			ON CONFLICT(month) DO UPDATE SET yoy = excluded.yoy, mom = excluded.mom`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if err := e.Validate(); err != nil {
				return err
			}
			var mom sql.NullFloat64
			if e.MoM != nil {
				mom = sql.NullFloat64{Float64: float64(*e.MoM), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, e.Month.String(), float64(e.YoY), mom); err != nil {
				return fmt.Errorf("failed to write cpi %s: %w", e.Month, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.L.Debug("cpi stored", "count", len(entries))
	return len(entries), nil
}

// DeleteRate removes the USD/TRY rate of a day.
func (s *Store) DeleteRate(ctx context.Context, day date.Date) error {
	return s.delete(ctx, `DELETE FROM usd_rates WHERE date = ?`, day.String(), "USD/TRY rate on "+day.String())
}

// DeleteCPI removes the CPI print of a month.
func (s *Store) DeleteCPI(ctx context.Context, ym date.YearMonth) error {
	return s.delete(ctx, `DELETE FROM cpi WHERE month = ?`, ym.String(), "cpi "+ym.String())
}

func (s *Store) delete(ctx context.Context, query, key, what string) error {
	res, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", lirashield.ErrDataNotFound, what)
	}
	return nil
}

// LatestPriceDate returns the date of the most recent price of ticker.
// It fails with ErrDataNotFound when there is none.
func (s *Store) LatestPriceDate(ctx context.Context, ticker string) (date.Date, error) {
	return s.latest(ctx, `SELECT MAX(date) FROM prices WHERE ticker = ?`, "price of "+ticker, lirashield.NormalizeTicker(ticker))
}

// LatestRateDate returns the date of the most recent USD/TRY rate.
func (s *Store) LatestRateDate(ctx context.Context) (date.Date, error) {
	return s.latest(ctx, `SELECT MAX(date) FROM usd_rates`, "USD/TRY rate")
}

// FirstTransactionDate returns the date of the earliest transaction of
// ticker, or of any ticker when it is empty.
func (s *Store) FirstTransactionDate(ctx context.Context, ticker string) (date.Date, error) {
	if ticker == "" {
		return s.latest(ctx, `SELECT MIN(date) FROM transactions`, "transaction")
	}
	return s.latest(ctx, `SELECT MIN(date) FROM transactions WHERE ticker = ?`, "transaction of "+ticker, lirashield.NormalizeTicker(ticker))
}

func (s *Store) latest(ctx context.Context, query, what string, args ...any) (date.Date, error) {
	var day sql.NullString
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&day); err != nil {
		return date.Date{}, errNoRows(err, what)
	}
	if !day.Valid {
		return date.Date{}, fmt.Errorf("%w: no %s", lirashield.ErrDataNotFound, what)
	}
	return date.Parse(day.String)
}

// HasRate reports whether a USD/TRY rate is recorded at exactly that day.
func (s *Store) HasRate(ctx context.Context, day date.Date) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usd_rates WHERE date = ?`, day.String()).Scan(&n)
	return n > 0, err
}

func loadPrices(ctx context.Context, q querier, m *lirashield.Market) error {
	rows, err := q.QueryContext(ctx, `SELECT ticker, date, price FROM prices`)
	if err != nil {
		return fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ticker, day string
		var price float64
		if err := rows.Scan(&ticker, &day, &price); err != nil {
			return err
		}
		on, err := date.Parse(day)
		if err != nil {
			return fmt.Errorf("price of %s: %w", ticker, err)
		}
		m.SetPrice(ticker, on, price)
	}
	return rows.Err()
}

func loadRates(ctx context.Context, q querier, m *lirashield.Market) error {
	rows, err := q.QueryContext(ctx, `SELECT date, rate FROM usd_rates`)
	if err != nil {
		return fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var rate float64
		if err := rows.Scan(&day, &rate); err != nil {
			return err
		}
		on, err := date.Parse(day)
		if err != nil {
			return fmt.Errorf("USD/TRY rate: %w", err)
		}
		m.SetRate(on, rate)
	}
	return rows.Err()
}

func loadCPI(ctx context.Context, q querier, m *lirashield.Market) error {
	rows, err := q.QueryContext(ctx, `SELECT month, yoy, mom FROM cpi`)
	if err != nil {
		return fmt.Errorf("failed to query cpi: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var month string
		var yoy float64
		var mom sql.NullFloat64
		if err := rows.Scan(&month, &yoy, &mom); err != nil {
			return err
		}
		ym, err := date.ParseYearMonth(month)
		if err != nil {
			return fmt.Errorf("cpi: %w", err)
		}
		e := lirashield.CPIEntry{Month: ym, YoY: lirashield.Percent(yoy)}
		if mom.Valid {
			e.MoM = lirashield.Percent(mom.Float64).Ptr()
		}
		m.SetCPI(e)
	}
	return rows.Err()
}
