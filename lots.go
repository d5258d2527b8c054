package lirashield

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/yaman-yucel/lirashield/date"
)

// Lot is an open quantity of a ticker bought at a given price, awaiting a sell.
type Lot struct {
	Ticker     string
	AssetClass AssetClass
	BuyID      int64
	OpenDate   date.Date
	Quantity   Quantity
	CostPrice  decimal.Decimal
	TaxRate    Percent
}

// Currency returns the currency of the lot prices.
func (l Lot) Currency() string { return currencyOf(l.AssetClass, l.Ticker) }

// Cost returns the total cost of the lot.
func (l Lot) Cost() Money { return M(l.CostPrice, l.Currency()).Mul(l.Quantity) }

// RealizedLot is the part of a lot consumed by a sell.
type RealizedLot struct {
	Ticker     string
	AssetClass AssetClass
	BuyID      int64
	SellID     int64
	Quantity   Quantity
	CostPrice  decimal.Decimal
	SellPrice  decimal.Decimal
	BuyDate    date.Date
	SellDate   date.Date
	TaxRate    Percent
}

// Currency returns the currency of the lot prices.
func (r RealizedLot) Currency() string { return currencyOf(r.AssetClass, r.Ticker) }

// Cost returns the total cost of the realized quantity.
func (r RealizedLot) Cost() Money { return M(r.CostPrice, r.Currency()).Mul(r.Quantity) }

// Proceeds returns the total sale amount of the realized quantity.
func (r RealizedLot) Proceeds() Money { return M(r.SellPrice, r.Currency()).Mul(r.Quantity) }

// Gain returns the gain before tax.
func (r RealizedLot) Gain() Money { return r.Proceeds().Sub(r.Cost()) }

// HoldingDays returns the number of days the quantity was held.
func (r RealizedLot) HoldingDays() int { return r.SellDate.Sub(r.BuyDate) }

func currencyOf(class AssetClass, ticker string) string {
	return Transaction{AssetClass: class, Ticker: ticker}.Currency()
}

// lots is a FIFO queue of open lots, oldest first.
type lots []Lot

// quantity returns the total open quantity.
func (l lots) quantity() Quantity {
	var total Quantity
	for _, lot := range l {
		total = total.Add(lot.Quantity)
	}
	return total
}

// sell consumes 'tx.Quantity' from the oldest lots. It returns the remaining
// lots and the realized records. The receiver is never modified.
func (l lots) sell(tx Transaction) (lots, []RealizedLot) {
	var remaining lots
	var realized []RealizedLot
	toSell := tx.Quantity

	for _, current := range l {
		if toSell.IsZero() {
			remaining = append(remaining, current)
			continue
		}
		matched := current.Quantity.Min(toSell)
		realized = append(realized, RealizedLot{
			Ticker:     current.Ticker,
			AssetClass: current.AssetClass,
			BuyID:      current.BuyID,
			SellID:     tx.ID,
			Quantity:   matched,
			CostPrice:  current.CostPrice,
			SellPrice:  tx.UnitPrice(),
			BuyDate:    current.OpenDate,
			SellDate:   tx.Date,
			TaxRate:    current.TaxRate,
		})
		toSell = toSell.Sub(matched)
		if left := current.Quantity.Sub(matched); left.IsPositive() {
			// Partial sale from this lot
			current.Quantity = left
			remaining = append(remaining, current)
		}
	}
	return remaining, realized
}

// FIFOLedger matches sells against buys, first in first out, per ticker.
type FIFOLedger struct {
	open     map[string]lots
	last     map[string]date.Date
	classes  map[string]AssetClass
	realized []RealizedLot
}

// NewFIFOLedger returns an empty ledger.
func NewFIFOLedger() *FIFOLedger {
	return &FIFOLedger{
		open:    make(map[string]lots),
		last:    make(map[string]date.Date),
		classes: make(map[string]AssetClass),
	}
}

// Apply processes a single transaction.
//
// Transactions of a ticker must come in chronological order. A sell that
// exceeds the open quantity fails with ErrValidation and leaves the ledger
// untouched.
func (l *FIFOLedger) Apply(tx Transaction) error {
	tx.Ticker = NormalizeTicker(tx.Ticker)
	if err := tx.Validate(); err != nil {
		return err
	}
	ticker := tx.Ticker
	if last, ok := l.last[ticker]; ok && tx.Date.Before(last) {
		return fmt.Errorf("%w: %s is dated before the last %s transaction on %s", ErrValidation, tx, ticker, last)
	}
	if class, ok := l.classes[ticker]; ok && class != tx.AssetClass {
		return fmt.Errorf("%w: %s is a %s but %s was recorded as a %s", ErrValidation, tx, tx.AssetClass, ticker, class)
	}

	switch tx.Direction {
	case Buy:
		l.open[ticker] = append(l.open[ticker], Lot{
			Ticker:     ticker,
			AssetClass: tx.AssetClass,
			BuyID:      tx.ID,
			OpenDate:   tx.Date,
			Quantity:   tx.Quantity,
			CostPrice:  tx.UnitPrice(),
			TaxRate:    tx.TaxRate,
		})
	case Sell:
		queue := l.open[ticker]
		if held := queue.quantity(); held.LessThan(tx.Quantity) {
			return fmt.Errorf("%w: oversell: %s but only %s held on %s", ErrValidation, tx, held, tx.Date)
		}
		remaining, realized := queue.sell(tx)
		l.open[ticker] = remaining
		l.realized = append(l.realized, realized...)
	}
	l.last[ticker] = tx.Date
	l.classes[ticker] = tx.AssetClass
	return nil
}

// ApplyAll processes transactions in processing order (see SortTransactions).
// It stops at the first failure.
func (l *FIFOLedger) ApplyAll(txs []Transaction) error {
	sorted := slices.Clone(txs)
	SortTransactions(sorted)
	for _, tx := range sorted {
		if err := l.Apply(tx); err != nil {
			return err
		}
	}
	return nil
}

// OpenLots returns a copy of the open lots of ticker, oldest first.
func (l *FIFOLedger) OpenLots(ticker string) []Lot {
	return slices.Clone(l.open[NormalizeTicker(ticker)])
}

// Realized returns a copy of every realized lot, in the order they were realized.
func (l *FIFOLedger) Realized() []RealizedLot { return slices.Clone(l.realized) }

// Position returns the open quantity of ticker.
func (l *FIFOLedger) Position(ticker string) Quantity {
	return l.open[NormalizeTicker(ticker)].quantity()
}

// Tickers returns the sorted list of tickers seen by the ledger.
func (l *FIFOLedger) Tickers() []string { return slices.Sorted(maps.Keys(l.classes)) }

// AssetClass returns the asset class of ticker as recorded by its transactions.
func (l *FIFOLedger) AssetClass(ticker string) AssetClass { return l.classes[NormalizeTicker(ticker)] }
