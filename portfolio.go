package lirashield

import (
	"fmt"
	"slices"

	"github.com/yaman-yucel/lirashield/date"
)

// Portfolio is a validated list of transactions.
//
// Every change is checked by replaying the whole history through a
// FIFOLedger, so that a transaction can never make a past or future sell
// exceed its open quantity.
type Portfolio struct {
	txs    []Transaction
	nextID int64
}

// NewPortfolio returns a portfolio of txs, failing if their history is not consistent.
func NewPortfolio(txs []Transaction) (*Portfolio, error) {
	p := &Portfolio{txs: slices.Clone(txs)}
	SortTransactions(p.txs)
	if err := replay(p.txs); err != nil {
		return nil, err
	}
	for _, tx := range p.txs {
		p.nextID = max(p.nextID, tx.ID)
	}
	return p, nil
}

func replay(txs []Transaction) error {
	return NewFIFOLedger().ApplyAll(txs)
}

// Add validates tx against the whole history and appends it.
// A transaction without id gets the next available one. It returns the
// stored transaction.
func (p *Portfolio) Add(tx Transaction) (Transaction, error) {
	tx.Ticker = NormalizeTicker(tx.Ticker)
	if tx.ID == 0 {
		tx.ID = p.nextID + 1
	} else if slices.ContainsFunc(p.txs, func(t Transaction) bool { return t.ID == tx.ID }) {
		return tx, fmt.Errorf("%w: duplicate transaction id %d", ErrValidation, tx.ID)
	}
	if err := tx.Validate(); err != nil {
		return tx, err
	}
	txs := append(slices.Clone(p.txs), tx)
	SortTransactions(txs)
	if err := replay(txs); err != nil {
		return tx, fmt.Errorf("cannot add %s: %w", tx, err)
	}
	p.txs = txs
	p.nextID = max(p.nextID, tx.ID)
	return tx, nil
}

// Remove deletes the transaction with the given id. Removing a buy that a
// later sell depends on fails with ErrValidation.
func (p *Portfolio) Remove(id int64) (Transaction, error) {
	i := slices.IndexFunc(p.txs, func(t Transaction) bool { return t.ID == id })
	if i < 0 {
		return Transaction{}, fmt.Errorf("%w: no transaction with id %d", ErrDataNotFound, id)
	}
	removed := p.txs[i]
	txs := slices.Delete(slices.Clone(p.txs), i, i+1)
	if err := replay(txs); err != nil {
		return removed, fmt.Errorf("cannot remove %s: %w", removed, err)
	}
	p.txs = txs
	return removed, nil
}

// Transactions returns a copy of the transactions in processing order.
func (p *Portfolio) Transactions() []Transaction { return slices.Clone(p.txs) }

// Tickers returns the sorted list of tickers with at least one transaction.
func (p *Portfolio) Tickers() []string {
	var tickers []string
	for _, tx := range p.txs {
		if !slices.Contains(tickers, tx.Ticker) {
			tickers = append(tickers, tx.Ticker)
		}
	}
	slices.Sort(tickers)
	return tickers
}

// AssetClass returns the asset class of ticker, or zero if unknown.
func (p *Portfolio) AssetClass(ticker string) AssetClass {
	ticker = NormalizeTicker(ticker)
	for _, tx := range p.txs {
		if tx.Ticker == ticker {
			return tx.AssetClass
		}
	}
	return 0
}

// Position returns the quantity of ticker held at the end of day 'on'.
func (p *Portfolio) Position(ticker string, on date.Date) Quantity {
	ticker = NormalizeTicker(ticker)
	var held Quantity
	for _, tx := range p.txs {
		if tx.Ticker != ticker || tx.Date.After(on) {
			continue
		}
		if tx.Direction == Buy {
			held = held.Add(tx.Quantity)
		} else {
			held = held.Sub(tx.Quantity)
		}
	}
	return held
}

// FirstDate returns the date of the earliest transaction, or the zero date.
func (p *Portfolio) FirstDate() date.Date {
	if len(p.txs) == 0 {
		return date.Date{}
	}
	return p.txs[0].Date
}
