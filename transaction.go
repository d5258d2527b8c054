package lirashield

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yaman-yucel/lirashield/date"
)

// Transaction is a single buy or sell of a ticker.
//
// Quantity is always a positive magnitude, the Direction carries the sign.
// Price is an optional per unit override: when it is not set the price is
// resolved from the price series as of the transaction date.
type Transaction struct {
	ID         int64
	Date       date.Date
	Ticker     string
	Quantity   Quantity
	Direction  Direction
	AssetClass AssetClass
	TaxRate    Percent
	Price      decimal.NullDecimal
	Notes      string
}

// NewBuy returns a buy transaction. A zero price means the price is resolved later from the series.
func NewBuy(day date.Date, ticker string, class AssetClass, quantity Quantity, price float64, tax Percent) Transaction {
	return newTx(day, ticker, class, Buy, quantity, price, tax)
}

// NewSell returns a sell transaction. A zero price means the price is resolved later from the series.
func NewSell(day date.Date, ticker string, class AssetClass, quantity Quantity, price float64) Transaction {
	return newTx(day, ticker, class, Sell, quantity, price, 0)
}

func newTx(day date.Date, ticker string, class AssetClass, dir Direction, quantity Quantity, price float64, tax Percent) Transaction {
	tx := Transaction{
		Date:       day,
		Ticker:     NormalizeTicker(ticker),
		Quantity:   quantity,
		Direction:  dir,
		AssetClass: class,
		TaxRate:    tax,
	}
	if price != 0 {
		tx.Price = decimal.NewNullDecimal(decimal.NewFromFloat(price))
	}
	return tx
}

// NormalizeTicker returns the canonical form of a ticker.
func NormalizeTicker(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// Currency returns the currency the ticker is priced in.
func (t Transaction) Currency() string {
	switch t.AssetClass {
	case Stock:
		return USD
	case Cash:
		return t.Ticker
	default:
		return TRY
	}
}

// HasPrice reports whether the transaction carries a price, either an
// override or the implicit unit price of cash.
func (t Transaction) HasPrice() bool { return t.Price.Valid || t.AssetClass == Cash }

// UnitPrice returns the per unit price of the transaction. It is only
// meaningful when HasPrice is true.
func (t Transaction) UnitPrice() decimal.Decimal {
	if t.AssetClass == Cash {
		return decimal.NewFromInt(1)
	}
	return t.Price.Decimal
}

func (t Transaction) String() string {
	return fmt.Sprintf("#%d %s %s %s %s", t.ID, t.Date, t.Direction, t.Quantity, t.Ticker)
}

// Validate checks the transaction on its own, without any history.
// All failures are wrapped into ErrValidation.
func (t Transaction) Validate() error {
	var errs []error
	if t.Date.IsZero() {
		errs = append(errs, errors.New("missing date"))
	}
	if t.Ticker == "" {
		errs = append(errs, errors.New("missing ticker"))
	}
	if !t.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %s", t.Quantity))
	}
	if t.Direction != Buy && t.Direction != Sell {
		errs = append(errs, fmt.Errorf("unknown direction %d", t.Direction))
	}
	switch t.AssetClass {
	case Fund, Stock:
	case Cash:
		if t.Ticker != TRY && t.Ticker != USD {
			errs = append(errs, fmt.Errorf("cash ticker must be %s or %s, got %q", TRY, USD, t.Ticker))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown asset class %d", t.AssetClass))
	}
	if t.TaxRate < 0 || t.TaxRate > 100 {
		errs = append(errs, fmt.Errorf("tax rate must be within [0, 100], got %v", float64(t.TaxRate)))
	}
	if t.Price.Valid && !t.Price.Decimal.IsPositive() {
		errs = append(errs, fmt.Errorf("price must be positive, got %s", t.Price.Decimal))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: transaction %s: %w", ErrValidation, t, errors.Join(errs...))
	}
	return nil
}

// compareTransactions orders transactions by date, buys before sells on the
// same date, then by id.
func compareTransactions(a, b Transaction) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Direction, b.Direction); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortTransactions sorts txs in processing order: by date, buys before sells
// on the same date, then by id. The sort is stable so that transactions
// without id keep their insertion order.
func SortTransactions(txs []Transaction) {
	slices.SortStableFunc(txs, compareTransactions)
}
