package renderer

import (
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
)

// Series is a daily series with the change from one point to the next.
type Series struct {
	Title  string
	Points []Point
}

// Point is a value of a series.
type Point struct {
	Date   date.Date
	Value  float64
	Change *lirashield.Percent
}

// NewSeries builds the view of the points of h within r. The change of the
// first point is relative to the last point before r, if any.
func NewSeries(title string, h *date.History[float64], r date.Range) *Series {
	s := &Series{Title: title}
	prev, ok := h.ValueAsOf(r.From.Add(-1))
	for day, v := range h.Between(r) {
		p := Point{Date: day, Value: v}
		if ok && prev != 0 {
			p.Change = lirashield.PercentOf(v / prev).Ptr()
		}
		s.Points = append(s.Points, p)
		prev, ok = v, true
	}
	return s
}

// Transactions is the transaction log.
type Transactions struct {
	Rows []TransactionRow
}

// TransactionRow is a transaction ready to render.
type TransactionRow struct {
	lirashield.Transaction
	PriceText string
}

// NewTransactions builds the transaction log.
func NewTransactions(txs []lirashield.Transaction) *Transactions {
	v := &Transactions{}
	for _, tx := range txs {
		row := TransactionRow{Transaction: tx, PriceText: "market"}
		switch {
		case tx.AssetClass == lirashield.Cash:
			row.PriceText = "-"
		case tx.Price.Valid:
			row.PriceText = price(tx.Price.Decimal.InexactFloat64()) + " " + tx.Currency()
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
