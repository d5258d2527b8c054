package renderer

import (
	"fmt"

	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
)

// Analysis is the rendered view of a lirashield.Analysis.
type Analysis struct {
	On             date.Date
	Weighting      string
	Total          Summary
	CostBasis      lirashield.Money
	MarketValue    lirashield.Money
	UnrealizedGain lirashield.Money
	RealizedGain   lirashield.Money
	Tickers        []Ticker
	Open           []Lot
	Realized       []Lot
	// Notes explain missing data, one per affected lot.
	Notes []string
}

// Summary holds weighted average returns.
type Summary struct {
	Lots         int
	Unresolved   int
	Nominal      lirashield.Percent
	USDInflation *lirashield.Percent
	RealUSD      *lirashield.Percent
	CPIInflation *lirashield.Percent
	RealCPI      *lirashield.Percent
}

// Ticker is the roll up of one ticker.
type Ticker struct {
	Ticker       string
	Class        string
	Open         lirashield.Quantity
	Realized     lirashield.Quantity
	CostBasis    lirashield.Money
	MarketValue  lirashield.Money
	RealizedGain lirashield.Money
	Summary
}

// Lot is a single open or realized lot.
type Lot struct {
	Ticker    string
	BuyID     int64
	SellID    int64
	Quantity  lirashield.Quantity
	BuyDate   date.Date
	EvalDate  date.Date
	Days      int
	Currency  string
	BuyPrice  float64
	EvalPrice float64
	Gain      lirashield.Money
	Return    lirashield.RealReturn
	// Marker flags lots with notes.
	Marker string
}

func newSummary(s lirashield.Summary) Summary {
	return Summary{
		Lots:         s.Lots,
		Unresolved:   s.Unresolved,
		Nominal:      s.Nominal,
		USDInflation: s.USDInflation,
		RealUSD:      s.RealUSD,
		CPIInflation: s.CPIInflation,
		RealCPI:      s.RealCPI,
	}
}

// NewAnalysis builds the view of an analysis.
func NewAnalysis(a *lirashield.Analysis) *Analysis {
	weighting := "quantity"
	if a.Weighting == lirashield.ByCost {
		weighting = "cost"
	}
	v := &Analysis{
		On:             a.On,
		Weighting:      weighting,
		Total:          newSummary(a.Total),
		CostBasis:      a.CostBasis,
		MarketValue:    a.MarketValue,
		UnrealizedGain: a.MarketValue.Sub(a.CostBasis),
		RealizedGain:   a.RealizedGain,
	}
	if a.Total.Err != nil {
		v.Notes = append(v.Notes, fmt.Sprintf("No benchmark could be resolved: %v", a.Total.Err))
	}
	for _, ts := range a.Tickers {
		v.Tickers = append(v.Tickers, Ticker{
			Ticker:       ts.Ticker,
			Class:        ts.AssetClass.String(),
			Open:         ts.OpenQuantity,
			Realized:     ts.RealizedQuantity,
			CostBasis:    ts.CostBasis,
			MarketValue:  ts.MarketValue,
			RealizedGain: ts.RealizedGain,
			Summary:      newSummary(ts.Summary),
		})
	}
	for _, lr := range a.Open {
		v.Open = append(v.Open, v.lot(lr))
	}
	for _, lr := range a.Realized {
		v.Realized = append(v.Realized, v.lot(lr))
	}
	return v
}

// lot builds the view of a lot, recording its notes.
func (v *Analysis) lot(lr lirashield.LotReturn) Lot {
	cur := lirashield.TRY
	if !lr.Converted {
		cur = lirashield.USD
	}
	l := Lot{
		Ticker:    lr.Ticker,
		BuyID:     lr.BuyID,
		SellID:    lr.SellID,
		Quantity:  lr.Quantity,
		BuyDate:   lr.BuyDate,
		EvalDate:  lr.EvalDate,
		Days:      lr.EvalDate.Sub(lr.BuyDate),
		Currency:  cur,
		BuyPrice:  lr.BuyPrice,
		EvalPrice: lr.EvalPrice,
		Gain:      lr.Gain(),
		Return:    lr.Return,
	}
	var notes []string
	if lr.PriceMissing {
		notes = append(notes, "no current price, valued at cost")
	}
	if !lr.Converted {
		notes = append(notes, "amounts in USD")
	}
	if lr.Return.Err != nil {
		notes = append(notes, lr.Return.Err.Error())
	}
	for _, n := range notes {
		v.Notes = append(v.Notes, fmt.Sprintf("%s lot #%d bought on %s: %s", lr.Ticker, lr.BuyID, lr.BuyDate, n))
	}
	if len(notes) > 0 {
		l.Marker = "*"
	}
	return l
}
