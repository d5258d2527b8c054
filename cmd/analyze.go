package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/provider"
	"github.com/yaman-yucel/lirashield/renderer"
	"github.com/yaman-yucel/lirashield/yahoo"
)

// priceFlag collects current price overrides given as TICKER=price.
type priceFlag map[string]float64

func (p priceFlag) String() string {
	var parts []string
	for _, t := range slices.Sorted(maps.Keys(p)) {
		parts = append(parts, t+"="+strconv.FormatFloat(p[t], 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (p priceFlag) Set(v string) error {
	ticker, value, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("%q is not <ticker>=<price>", v)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || price <= 0 {
		return fmt.Errorf("price must be a positive number, got %q", value)
	}
	p[lirashield.NormalizeTicker(ticker)] = price
	return nil
}

// rateDays returns the days a USD/TRY rate is needed at to evaluate txs on a day.
func rateDays(txs []lirashield.Transaction, on date.Date) []date.Date {
	days := []date.Date{on}
	for _, tx := range txs {
		if !tx.Date.After(on) {
			days = append(days, tx.Date)
		}
	}
	return days
}

// --- Analyze Command ---

type analyzeCmd struct {
	date        string
	prices      priceFlag
	weighting   string
	exact       bool
	fetch       bool
	extrapolate bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "real return of every lot against USD/TRY and CPI" }
func (*analyzeCmd) Usage() string {
	return `analyze [-d <date>] [-p <ticker>=<price>]... [-weight quantity|cost] [-exact] [-fetch] [-extrapolate]

  Evaluates every open lot on a day and every realized lot on its sell date.
  Each lot return is shown nominal, after tax, and in real terms against the
  USD/TRY rate and against consumer prices over the holding period. Lots are
  then averaged per ticker and for the whole portfolio.

  Open lots are valued at the -p price if given, else at the latest stored price.
  With -fetch, missing prices and the USD/TRY rates of every needed day are
  fetched first.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	c.prices = make(priceFlag)
	f.StringVar(&c.date, "d", date.Today().String(), "Evaluation date (YYYY-MM-DD)")
	f.Var(c.prices, "p", "Current price of a ticker as <ticker>=<price>, repeatable")
	f.StringVar(&c.weighting, "weight", "", "Weight of lots in averages: quantity or cost (default $LIRASHIELD_WEIGHTING)")
	f.BoolVar(&c.exact, "exact", false, "Only use USD/TRY rates recorded at the exact lot dates")
	f.BoolVar(&c.fetch, "fetch", false, "Fetch missing prices and rates first")
	f.BoolVar(&c.extrapolate, "extrapolate", false, "Reuse the latest CPI print for months not published yet (default $LIRASHIELD_CPI_EXTRAPOLATE)")
}

func (c *analyzeCmd) options() (lirashield.Options, error) {
	on, err := date.Parse(c.date)
	if err != nil {
		return lirashield.Options{}, err
	}
	w := c.weighting
	if w == "" {
		w = cfg.Weighting
	}
	weighting, err := lirashield.ParseWeighting(w)
	if err != nil {
		return lirashield.Options{}, err
	}
	opts := lirashield.Options{On: on, Prices: c.prices, Weighting: weighting}
	if c.exact {
		opts.Mode = lirashield.Exact
	}
	return opts, nil
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts, err := c.options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	st, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	if c.fetch {
		txs, err := st.Transactions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading transactions: %v\n", err)
			return subcommands.ExitFailure
		}
		// A failed fetch still leaves the stored data to analyze.
		if err := fetchAll(ctx, st, heldTickers(txs), false); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		srcs := newSources()
		n, err := provider.EnsureRates(ctx, srcs.stocks, yahoo.USDTRY, st, rateDays(txs, opts.On))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: fetching USD/TRY rates: %v\n", err)
		}
		if n > 0 {
			fmt.Printf("USD/TRY: %d new rates\n", n)
		}
	}

	market, txs, err := st.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	market.ExtrapolateCPI = c.extrapolate || cfg.CPIExtrapolate

	a, err := lirashield.Analyze(txs, market, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAnalysis(renderer.NewAnalysis(a)))
	return subcommands.ExitSuccess
}
