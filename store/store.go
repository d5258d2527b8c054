// Package store persists transactions and the price, USD/TRY rate and CPI
// series in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	ticker TEXT NOT NULL,
	quantity TEXT NOT NULL,
	direction TEXT NOT NULL,
	asset_class TEXT NOT NULL,
	tax_rate REAL NOT NULL DEFAULT 0,
	price TEXT,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS prices (
	ticker TEXT NOT NULL,
	date TEXT NOT NULL,
	price REAL NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	UNIQUE(ticker, date)
);

CREATE TABLE IF NOT EXISTS usd_rates (
	date TEXT NOT NULL UNIQUE,
	rate REAL NOT NULL,
	source TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cpi (
	month TEXT NOT NULL UNIQUE,
	yoy REAL NOT NULL,
	mom REAL
);

CREATE INDEX IF NOT EXISTS idx_transactions_ticker ON transactions(ticker, date);
`

// Store is a SQLite backed persistence of a portfolio.
type Store struct {
	db *sql.DB
}

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the database at path and migrates its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// a single connection serializes writers, sqlite locks the whole file anyway.
	db.SetMaxOpenConns(1)

	logger.L.Debug("checking database migrations", "databasePath", path)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// inTx runs f in a transaction, committed only if f succeeds.
func (s *Store) inTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			logger.L.Error("rollback failed", "error", rerr)
		}
		return err
	}
	return tx.Commit()
}

// Transactions returns every transaction in processing order.
func (s *Store) Transactions(ctx context.Context) ([]lirashield.Transaction, error) {
	return transactions(ctx, s.db)
}

func transactions(ctx context.Context, q querier) ([]lirashield.Transaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, date, ticker, quantity, direction, asset_class, tax_rate, price, notes FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []lirashield.Transaction
	for rows.Next() {
		var (
			tx                         lirashield.Transaction
			day, qty, direction, class string
			tax                        float64
			price                      decimal.NullDecimal
		)
		if err := rows.Scan(&tx.ID, &day, &tx.Ticker, &qty, &direction, &class, &tax, &price, &tx.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Date, err = date.Parse(day); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		if tx.Quantity, err = lirashield.ParseQuantity(qty); err != nil {
			return nil, fmt.Errorf("transaction %d: invalid quantity %q: %w", tx.ID, qty, err)
		}
		if tx.Direction, err = lirashield.ParseDirection(direction); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		if tx.AssetClass, err = lirashield.ParseAssetClass(class); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		tx.TaxRate = lirashield.Percent(tax)
		tx.Price = price
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	lirashield.SortTransactions(txs)
	return txs, nil
}

// AddTransaction stores tx after checking it against the whole history.
// It returns the stored transaction with its id.
func (s *Store) AddTransaction(ctx context.Context, tx lirashield.Transaction) (lirashield.Transaction, error) {
	tx.Ticker = lirashield.NormalizeTicker(tx.Ticker)
	tx.ID = 0
	if err := tx.Validate(); err != nil {
		return tx, err
	}
	err := s.inTx(ctx, func(sqlTx *sql.Tx) error {
		existing, err := transactions(ctx, sqlTx)
		if err != nil {
			return err
		}
		p, err := lirashield.NewPortfolio(existing)
		if err != nil {
			return fmt.Errorf("stored history is inconsistent: %w", err)
		}
		res, err := sqlTx.ExecContext(ctx,
			`INSERT INTO transactions (date, ticker, quantity, direction, asset_class, tax_rate, price, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.Date.String(), tx.Ticker, tx.Quantity.String(), tx.Direction.String(), tx.AssetClass.String(), float64(tx.TaxRate), tx.Price, tx.Notes)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		if tx.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		tx, err = p.Add(tx)
		return err
	})
	if err != nil {
		return tx, err
	}
	logger.L.Info("transaction added", "id", tx.ID, "ticker", tx.Ticker, "direction", tx.Direction.String(), "quantity", tx.Quantity.String())
	return tx, nil
}

// DeleteTransaction removes the transaction with the given id, unless a later
// sell depends on it.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) (lirashield.Transaction, error) {
	var removed lirashield.Transaction
	err := s.inTx(ctx, func(sqlTx *sql.Tx) error {
		existing, err := transactions(ctx, sqlTx)
		if err != nil {
			return err
		}
		p, err := lirashield.NewPortfolio(existing)
		if err != nil {
			return fmt.Errorf("stored history is inconsistent: %w", err)
		}
		if removed, err = p.Remove(id); err != nil {
			return err
		}
		_, err = sqlTx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return removed, err
	}
	logger.L.Info("transaction deleted", "id", id, "ticker", removed.Ticker)
	return removed, nil
}

// Snapshot loads a consistent copy of every series and the transactions,
// read within a single transaction.
func (s *Store) Snapshot(ctx context.Context) (*lirashield.Market, []lirashield.Transaction, error) {
	market := lirashield.NewMarket()
	var txs []lirashield.Transaction
	err := s.inTx(ctx, func(sqlTx *sql.Tx) (err error) {
		if txs, err = transactions(ctx, sqlTx); err != nil {
			return err
		}
		if err := loadPrices(ctx, sqlTx, market); err != nil {
			return err
		}
		if err := loadRates(ctx, sqlTx, market); err != nil {
			return err
		}
		return loadCPI(ctx, sqlTx, market)
	})
	if err != nil {
		return nil, nil, err
	}
	return market, txs, nil
}

// errNoRows maps sql.ErrNoRows into lirashield.ErrDataNotFound.
func errNoRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", lirashield.ErrDataNotFound, what)
	}
	return err
}
