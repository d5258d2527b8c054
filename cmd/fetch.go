package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/google/subcommands"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
	"github.com/yaman-yucel/lirashield/provider"
	"github.com/yaman-yucel/lirashield/store"
	"github.com/yaman-yucel/lirashield/yahoo"
)

// updatePrices fetches the prices of ticker missing since the latest stored
// one, or the whole history when there is none yet.
func updatePrices(ctx context.Context, st *store.Store, srcs *sources, ticker string, class lirashield.AssetClass, today date.Date) (int, error) {
	src := srcs.For(class)
	if src == nil {
		return 0, nil
	}
	latest, err := st.LatestPriceDate(ctx, ticker)
	if err != nil && !errors.Is(err, lirashield.ErrDataNotFound) {
		return 0, err
	}
	earliest, err := st.FirstTransactionDate(ctx, ticker)
	if err != nil && !errors.Is(err, lirashield.ErrDataNotFound) {
		return 0, err
	}
	r, ok := provider.Incremental(latest, earliest, cfg.YearsBack, today)
	if !ok {
		logger.L.Debug("prices up to date", "ticker", ticker, "latest", latest)
		return 0, nil
	}
	return provider.Backfill(ctx, src, st, ticker, r)
}

// updateRates fetches the USD/TRY rates missing since the latest stored one.
func updateRates(ctx context.Context, st *store.Store, srcs *sources, today date.Date) (int, error) {
	latest, err := st.LatestRateDate(ctx)
	if err != nil && !errors.Is(err, lirashield.ErrDataNotFound) {
		return 0, err
	}
	earliest, err := st.FirstTransactionDate(ctx, "")
	if err != nil && !errors.Is(err, lirashield.ErrDataNotFound) {
		return 0, err
	}
	r, ok := provider.Incremental(latest, earliest, cfg.YearsBack, today)
	if !ok {
		logger.L.Debug("USD/TRY rates up to date", "latest", latest)
		return 0, nil
	}
	return provider.BackfillRates(ctx, srcs.stocks, yahoo.USDTRY, st, r)
}

// heldTickers returns the non cash tickers of txs, with their asset class.
func heldTickers(txs []lirashield.Transaction) map[string]lirashield.AssetClass {
	tickers := make(map[string]lirashield.AssetClass)
	for _, tx := range txs {
		if tx.AssetClass != lirashield.Cash {
			tickers[tx.Ticker] = tx.AssetClass
		}
	}
	return tickers
}

// fetchAll updates the prices of the tickers and, if rates is set, the
// USD/TRY rates. Failures do not stop the other updates.
func fetchAll(ctx context.Context, st *store.Store, tickers map[string]lirashield.AssetClass, rates bool) error {
	srcs := newSources()
	today := date.Today()
	var errs []error
	for _, ticker := range slices.Sorted(maps.Keys(tickers)) {
		n, err := updatePrices(ctx, st, srcs, ticker, tickers[ticker], today)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		if n > 0 {
			fmt.Printf("%s: %d new prices\n", ticker, n)
		}
	}
	if rates {
		n, err := updateRates(ctx, st, srcs, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("USD/TRY: %w", err))
		} else if n > 0 {
			fmt.Printf("USD/TRY: %d new rates\n", n)
		}
	}
	return errors.Join(errs...)
}

// --- Fetch Command ---

type fetchCmd struct {
	class string
	usd   bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch missing prices and USD/TRY rates" }
func (*fetchCmd) Usage() string {
	return `fetch [-usd=false] [-class fund|stock] [<ticker>...]

  Fetches the prices missing since the latest stored one, for the given tickers
  or every ticker of the portfolio. Funds come from TEFAS, stocks and the
  USD/TRY rate from Yahoo Finance. A series updated in the last few days is left
  as is. A ticker without any price yet is fetched from a few years before its
  first transaction.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.usd, "usd", true, "Also fetch the USD/TRY rates")
	f.StringVar(&c.class, "class", "fund", "Asset class of tickers not yet in the portfolio")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	class, err := lirashield.ParseAssetClass(c.class)
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

	txs, err := st.Transactions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	held := heldTickers(txs)
	tickers := held
	if f.NArg() > 0 {
		tickers = make(map[string]lirashield.AssetClass)
		for _, t := range f.Args() {
			t = lirashield.NormalizeTicker(t)
			if known, ok := held[t]; ok {
				tickers[t] = known
			} else {
				tickers[t] = class
			}
		}
	}

	if err := fetchAll(ctx, st, tickers, c.usd); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
