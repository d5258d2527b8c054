package lirashield

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/yaman-yucel/lirashield/date"
)

// Options parameterize an analysis.
type Options struct {
	// On is the evaluation date of open lots. Transactions after it are ignored.
	On date.Date
	// Prices are current price overrides per ticker, in the ticker currency.
	Prices map[string]float64
	// Weighting selects the weight of lots in averages.
	Weighting Weighting
	// Mode is the lookup mode of USD/TRY rates at lot boundaries.
	Mode LookupMode
}

// LotReturn is the evaluation of one open or realized lot.
//
// Prices, Cost and Value are in TRY, except for USD lots that could not be
// converted, which stay in USD with Converted false.
type LotReturn struct {
	Ticker     string
	AssetClass AssetClass
	Realized   bool
	BuyID      int64
	SellID     int64
	Quantity   Quantity
	BuyDate    date.Date
	EvalDate   date.Date
	BuyPrice   float64
	EvalPrice  float64
	Cost       Money
	Value      Money
	Converted  bool
	// PriceMissing is set when no current price was found and the lot was
	// valued at its cost.
	PriceMissing bool
	Return       RealReturn

	nativeCost Money // in the currency of the ticker
}

// Gain returns the value minus the cost, before tax.
func (l LotReturn) Gain() Money { return l.Value.Sub(l.Cost) }

// Summary is a weighted average of lot returns.
//
// A benchmark average only includes lots where that benchmark resolved.
// Unresolved counts lots where no benchmark resolved; Err is set only when
// that is the case for every lot.
type Summary struct {
	Lots         int
	Unresolved   int
	Nominal      Percent
	USDInflation *Percent
	RealUSD      *Percent
	CPIInflation *Percent
	RealCPI      *Percent
	Err          error
}

// TickerSummary rolls up every lot of a ticker.
type TickerSummary struct {
	Ticker           string
	AssetClass       AssetClass
	OpenQuantity     Quantity
	RealizedQuantity Quantity
	// CostBasis and MarketValue are those of open lots, RealizedGain the
	// pre-tax gain of realized lots, all in TRY.
	CostBasis    Money
	MarketValue  Money
	RealizedGain Money
	Summary
}

// Analysis is the full result of a portfolio analysis.
type Analysis struct {
	On        date.Date
	Weighting Weighting
	Open      []LotReturn
	Realized  []LotReturn
	Tickers   []TickerSummary
	Total     Summary
	// CostBasis, MarketValue and RealizedGain sum the TRY amounts of all tickers.
	CostBasis    Money
	MarketValue  Money
	RealizedGain Money
}

// Analyze computes the real return of every open and realized lot of txs,
// and rolls them up per ticker and for the whole portfolio.
//
// Missing benchmarks never fail the analysis, they are reported per lot. It
// fails on invalid transactions, oversells, or a transaction price that
// cannot be resolved.
func Analyze(txs []Transaction, series TimeSeriesStore, opts Options) (*Analysis, error) {
	if opts.On.IsZero() {
		opts.On = date.Today()
	}
	a := analyzer{
		series:    series,
		opts:      opts,
		inflation: InflationCalculator{Series: series, Mode: opts.Mode},
		overrides: make(map[string]float64, len(opts.Prices)),
	}
	for ticker, price := range opts.Prices {
		a.overrides[NormalizeTicker(ticker)] = price
	}

	var inScope []Transaction
	for _, tx := range txs {
		if tx.Date.After(opts.On) {
			continue
		}
		tx, err := a.resolvePrice(tx)
		if err != nil {
			return nil, err
		}
		inScope = append(inScope, tx)
	}

	ledger := NewFIFOLedger()
	if err := ledger.ApplyAll(inScope); err != nil {
		return nil, err
	}

	res := &Analysis{
		On:           opts.On,
		Weighting:    opts.Weighting,
		CostBasis:    M(0, TRY),
		MarketValue:  M(0, TRY),
		RealizedGain: M(0, TRY),
	}
	for _, r := range ledger.Realized() {
		lr, err := a.realized(r)
		if err != nil {
			return nil, err
		}
		res.Realized = append(res.Realized, lr)
	}
	for _, ticker := range ledger.Tickers() {
		for _, lot := range ledger.OpenLots(ticker) {
			lr, err := a.open(lot)
			if err != nil {
				return nil, err
			}
			res.Open = append(res.Open, lr)
		}
	}

	byTicker := make(map[string]*TickerSummary)
	rollups := make(map[string]*rollup)
	var total rollup
	for _, lr := range slices.Concat(res.Open, res.Realized) {
		ts, ok := byTicker[lr.Ticker]
		if !ok {
			ts = &TickerSummary{
				Ticker:       lr.Ticker,
				AssetClass:   lr.AssetClass,
				CostBasis:    M(0, TRY),
				MarketValue:  M(0, TRY),
				RealizedGain: M(0, TRY),
			}
			byTicker[lr.Ticker] = ts
			rollups[lr.Ticker] = new(rollup)
		}
		w, wTotal := a.weight(lr)
		rollups[lr.Ticker].add(lr.Return, w)
		total.add(lr.Return, wTotal)

		if lr.Realized {
			ts.RealizedQuantity = ts.RealizedQuantity.Add(lr.Quantity)
			if lr.Converted {
				ts.RealizedGain = ts.RealizedGain.Add(lr.Gain())
			}
		} else {
			ts.OpenQuantity = ts.OpenQuantity.Add(lr.Quantity)
			if lr.Converted {
				ts.CostBasis = ts.CostBasis.Add(lr.Cost)
				ts.MarketValue = ts.MarketValue.Add(lr.Value)
			}
		}
	}
	for _, ticker := range slices.Sorted(maps.Keys(byTicker)) {
		ts := byTicker[ticker]
		ts.Summary = rollups[ticker].summary()
		res.Tickers = append(res.Tickers, *ts)
		res.CostBasis = res.CostBasis.Add(ts.CostBasis)
		res.MarketValue = res.MarketValue.Add(ts.MarketValue)
		res.RealizedGain = res.RealizedGain.Add(ts.RealizedGain)
	}
	res.Total = total.summary()
	return res, nil
}

type analyzer struct {
	series    TimeSeriesStore
	opts      Options
	inflation InflationCalculator
	overrides map[string]float64
}

// resolvePrice fills the price of a transaction without override from the
// price series, as of the transaction date.
func (a *analyzer) resolvePrice(tx Transaction) (Transaction, error) {
	if tx.HasPrice() {
		return tx, nil
	}
	price, err := a.series.PriceAt(tx.Ticker, tx.Date, AsOf)
	if err != nil {
		return tx, fmt.Errorf("resolving price of %s: %w", tx, err)
	}
	tx.Price = decimal.NewNullDecimal(decimal.NewFromFloat(price))
	return tx, nil
}

func (a *analyzer) realized(r RealizedLot) (LotReturn, error) {
	lr := LotReturn{
		Ticker:     r.Ticker,
		AssetClass: r.AssetClass,
		Realized:   true,
		BuyID:      r.BuyID,
		SellID:     r.SellID,
		Quantity:   r.Quantity,
		BuyDate:    r.BuyDate,
		EvalDate:   r.SellDate,
	}
	err := a.evaluate(&lr, r.Currency(), r.CostPrice.InexactFloat64(), r.SellPrice.InexactFloat64(), r.TaxRate)
	return lr, err
}

func (a *analyzer) open(lot Lot) (LotReturn, error) {
	lr := LotReturn{
		Ticker:     lot.Ticker,
		AssetClass: lot.AssetClass,
		BuyID:      lot.BuyID,
		Quantity:   lot.Quantity,
		BuyDate:    lot.OpenDate,
		EvalDate:   a.opts.On,
	}
	cost := lot.CostPrice.InexactFloat64()
	current, ok := a.currentPrice(lot)
	if !ok {
		current, lr.PriceMissing = cost, true
	}
	err := a.evaluate(&lr, lot.Currency(), cost, current, lot.TaxRate)
	return lr, err
}

// currentPrice returns the override, else the last known price of the lot
// ticker on the evaluation date.
func (a *analyzer) currentPrice(lot Lot) (float64, bool) {
	if lot.AssetClass == Cash {
		return 1, true
	}
	if p, ok := a.overrides[lot.Ticker]; ok {
		return p, true
	}
	p, err := a.series.PriceAt(lot.Ticker, a.opts.On, AsOf)
	return p, err == nil
}

// evaluate converts USD prices into TRY when possible, then decomposes the lot return.
func (a *analyzer) evaluate(lr *LotReturn, currency string, buy, eval float64, tax Percent) error {
	var convErr error
	lr.Converted = true
	lr.Cost = M(buy, currency).Mul(lr.Quantity)
	lr.nativeCost = lr.Cost
	lr.Value = M(eval, currency).Mul(lr.Quantity)
	if currency == USD {
		buyRate, err1 := a.series.RateAt(lr.BuyDate, a.opts.Mode)
		evalRate, err2 := a.series.RateAt(lr.EvalDate, a.opts.Mode)
		if err := errors.Join(err1, err2); err != nil {
			lr.Converted = false
			convErr = fmt.Errorf("cannot convert %s lot to TRY: %w", lr.Ticker, err)
		} else {
			buy, eval = buy*buyRate, eval*evalRate
			lr.Cost = lr.Cost.Convert(buyRate, TRY)
			lr.Value = lr.Value.Convert(evalRate, TRY)
		}
	}
	lr.BuyPrice, lr.EvalPrice = buy, eval

	e := Evaluation{
		BuyPrice:     buy,
		CurrentPrice: eval,
		Quantity:     lr.Quantity,
		TaxRate:      tax,
		BuyDate:      lr.BuyDate,
		EvalDate:     lr.EvalDate,
	}
	var missing []error
	if convErr == nil {
		fx, cpi, miss, err := a.inflation.Benchmarks(lr.BuyDate, lr.EvalDate)
		if err != nil {
			return fmt.Errorf("lot %s bought on %s: %w", lr.Ticker, lr.BuyDate, err)
		}
		e.FXChange, e.CPIChange, missing = fx, cpi, miss
	}

	r, err := Decompose(e)
	if err != nil {
		return fmt.Errorf("lot %s bought on %s: %w", lr.Ticker, lr.BuyDate, err)
	}
	if r.Err != nil {
		switch {
		case convErr != nil:
			r.Err = convErr
		case len(missing) > 0:
			r.Err = errors.Join(missing...)
		}
	}
	lr.Return = r
	return nil
}

// weight returns the weight of lr in the averages of its ticker and in the
// portfolio total. Under ByCost a ticker weighs its lots by their cost in the
// ticker currency, while the total uses TRY costs and leaves out lots that
// could not be converted.
func (a *analyzer) weight(lr LotReturn) (ticker, total float64) {
	if a.opts.Weighting != ByCost {
		q := lr.Quantity.Float64()
		return q, q
	}
	if lr.Converted {
		total = lr.Cost.Float64()
	}
	return lr.nativeCost.Float64(), total
}

// wavg is a weighted average.
type wavg struct{ sum, weight float64 }

func (w *wavg) add(v *Percent, weight float64) {
	if v == nil {
		return
	}
	w.sum += float64(*v) * weight
	w.weight += weight
}

func (w wavg) value() *Percent {
	if w.weight == 0 {
		return nil
	}
	return Percent(w.sum / w.weight).Ptr()
}

type rollup struct {
	lots, unresolved int
	errs             []error
	nominal          wavg
	usdInflation     wavg
	realUSD          wavg
	cpiInflation     wavg
	realCPI          wavg
}

func (r *rollup) add(ret RealReturn, weight float64) {
	r.lots++
	r.nominal.add(&ret.Nominal, weight)
	if ret.Err != nil {
		r.unresolved++
		r.errs = append(r.errs, ret.Err)
		return
	}
	r.usdInflation.add(ret.USDInflation, weight)
	r.realUSD.add(ret.RealUSD, weight)
	r.cpiInflation.add(ret.CPIInflation, weight)
	r.realCPI.add(ret.RealCPI, weight)
}

func (r *rollup) summary() Summary {
	s := Summary{
		Lots:         r.lots,
		Unresolved:   r.unresolved,
		USDInflation: r.usdInflation.value(),
		RealUSD:      r.realUSD.value(),
		CPIInflation: r.cpiInflation.value(),
		RealCPI:      r.realCPI.value(),
	}
	if n := r.nominal.value(); n != nil {
		s.Nominal = *n
	}
	if r.lots > 0 && r.unresolved == r.lots {
		s.Err = fmt.Errorf("%w: no benchmark resolved for any of %d lots: %w", ErrDataNotFound, r.lots, r.errs[0])
	}
	return s
}
