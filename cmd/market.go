package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/renderer"
	"github.com/yaman-yucel/lirashield/store"
)

// Source of the rates and prices typed in by the user.
const manualSource = "manual"

// parseRateArg parses "YYYY-MM-DD=rate".
func parseRateArg(s string) (lirashield.RateEntry, error) {
	day, value, ok := strings.Cut(s, "=")
	if !ok {
		return lirashield.RateEntry{}, fmt.Errorf("%w: %q is not <date>=<rate>", lirashield.ErrValidation, s)
	}
	d, err := date.Parse(strings.TrimSpace(day))
	if err != nil {
		return lirashield.RateEntry{}, fmt.Errorf("%w: %w", lirashield.ErrValidation, err)
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || rate <= 0 {
		return lirashield.RateEntry{}, fmt.Errorf("%w: rate must be a positive number, got %q", lirashield.ErrValidation, value)
	}
	return lirashield.RateEntry{Date: d, Rate: rate, Source: manualSource}, nil
}

// parseCPIArg parses "YYYY-MM:yoy[:mom]".
func parseCPIArg(s string) (lirashield.CPIEntry, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return lirashield.CPIEntry{}, fmt.Errorf("%w: %q is not <YYYY-MM>:<yoy>[:<mom>]", lirashield.ErrValidation, s)
	}
	ym, err := date.ParseYearMonth(parts[0])
	if err != nil {
		return lirashield.CPIEntry{}, fmt.Errorf("%w: %w", lirashield.ErrValidation, err)
	}
	yoy, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return lirashield.CPIEntry{}, fmt.Errorf("%w: invalid yearly change %q", lirashield.ErrValidation, parts[1])
	}
	e := lirashield.CPIEntry{Month: ym, YoY: lirashield.Percent(yoy)}
	if len(parts) == 3 && parts[2] != "" {
		mom, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return lirashield.CPIEntry{}, fmt.Errorf("%w: invalid monthly change %q", lirashield.ErrValidation, parts[2])
		}
		e.MoM = lirashield.Percent(mom).Ptr()
	}
	return e, e.Validate()
}

// parseRange parses the bounds of a report, the start defaults to days before the end.
func parseRange(start, end string, days int) (date.Range, error) {
	to := date.Today()
	if end != "" {
		d, err := date.Parse(end)
		if err != nil {
			return date.Range{}, err
		}
		to = d
	}
	from := to.Add(1 - days)
	if start != "" {
		d, err := date.Parse(start)
		if err != nil {
			return date.Range{}, err
		}
		from = d
	}
	if from.After(to) {
		return date.Range{}, fmt.Errorf("start %s is after end %s", from, to)
	}
	return date.NewRange(from, to), nil
}

// writeFile writes to path with write, or to stdout when path is "-".
func writeFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// --- Log Command ---

type logCmd struct {
	ticker string
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list transactions" }
func (*logCmd) Usage() string {
	return `log [-t <ticker>]

  Lists the transactions in processing order, with their ids.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Only list the transactions of this ticker")
}

func (c *logCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if c.ticker != "" {
		ticker := lirashield.NormalizeTicker(c.ticker)
		var filtered []lirashield.Transaction
		for _, tx := range txs {
			if tx.Ticker == ticker {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	printMarkdown(renderer.RenderTransactions(txs))
	return subcommands.ExitSuccess
}

// --- Series Command ---

type seriesCmd struct {
	start string
	end   string
	days  int
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "show the stored prices of a ticker" }
func (*seriesCmd) Usage() string {
	return `series [-s <start>] [-e <end>] [-n <days>] <ticker>

  Shows the stored daily prices of a ticker, with the change from one price to the next.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First day (YYYY-MM-DD), default -n days before the end")
	f.StringVar(&c.end, "e", "", "Last day (YYYY-MM-DD), default today")
	f.IntVar(&c.days, "n", 30, "Number of days shown when -s is not set")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.days < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	r, err := parseRange(c.start, c.end, c.days)
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

	market, _, err := st.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}
	ticker := lirashield.NormalizeTicker(f.Arg(0))
	if !market.Has(ticker) {
		fmt.Fprintf(os.Stderr, "Error: %v: no price of %s, run fetch first\n", lirashield.ErrDataNotFound, ticker)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSeries(renderer.NewSeries(ticker, market.Prices(ticker), r)))
	return subcommands.ExitSuccess
}

// --- USD Command ---

type usdCmd struct {
	add    listFlag
	rm     listFlag
	imp    string
	export string
	fetch  bool
	start  string
	end    string
	days   int
}

func (*usdCmd) Name() string     { return "usd" }
func (*usdCmd) Synopsis() string { return "manage the USD/TRY rates" }
func (*usdCmd) Usage() string {
	return `usd [-add <date>=<rate>]... [-rm <date>]... [-import <file.csv>] [-export <file.csv>] [-fetch] [-s <start>] [-e <end>]

  Adds, removes, imports or fetches USD/TRY rates. A rate already stored for a
  day is replaced. Without any action, shows the rates of the last days.

  The CSV format is one "YYYY-MM-DD,rate" per line, a header line is allowed.
`
}

func (c *usdCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.add, "add", "Add a rate as <YYYY-MM-DD>=<rate>, repeatable")
	f.Var(&c.rm, "rm", "Remove the rate of a day, repeatable")
	f.StringVar(&c.imp, "import", "", "Import rates from a CSV file")
	f.StringVar(&c.export, "export", "", "Export every rate to a CSV file, - for stdout")
	f.BoolVar(&c.fetch, "fetch", false, "Fetch the missing rates from Yahoo Finance")
	f.StringVar(&c.start, "s", "", "First day shown (YYYY-MM-DD)")
	f.StringVar(&c.end, "e", "", "Last day shown (YYYY-MM-DD), default today")
	f.IntVar(&c.days, "n", 30, "Number of days shown when -s is not set")
}

func (c *usdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var entries []lirashield.RateEntry
	for _, arg := range c.add {
		e, err := parseRateArg(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		entries = append(entries, e)
	}
	var removed []date.Date
	for _, arg := range c.rm {
		d, err := date.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		removed = append(removed, d)
	}
	if c.imp != "" {
		imported, err := importFile(c.imp, func(r io.Reader) ([]lirashield.RateEntry, error) { return lirashield.ParseRates(r, "csv") })
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", c.imp, err)
			return subcommands.ExitFailure
		}
		entries = append(entries, imported...)
	}

	st, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	if err := c.apply(ctx, st, entries, removed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	market, _, err := st.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rates: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.export != "" {
		if err := writeFile(c.export, func(w io.Writer) error { return lirashield.WriteRates(w, market.Rates()) }); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting rates: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if len(entries) > 0 || len(removed) > 0 || c.fetch {
		return subcommands.ExitSuccess
	}

	r, err := parseRange(c.start, c.end, c.days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	printMarkdown(renderer.RenderSeries(renderer.NewSeries("USD/TRY", market.Rates(), r)))
	return subcommands.ExitSuccess
}

func (c *usdCmd) apply(ctx context.Context, st *store.Store, entries []lirashield.RateEntry, removed []date.Date) error {
	if len(entries) > 0 {
		n, err := st.PutRates(ctx, entries)
		if err != nil {
			return err
		}
		fmt.Printf("Stored %d rates\n", n)
	}
	for _, d := range removed {
		if err := st.DeleteRate(ctx, d); err != nil {
			return err
		}
		fmt.Printf("Removed the rate of %s\n", d)
	}
	if c.fetch {
		n, err := updateRates(ctx, st, newSources(), date.Today())
		if err != nil {
			return fmt.Errorf("fetching rates: %w", err)
		}
		fmt.Printf("Fetched %d rates\n", n)
	}
	return nil
}

// importFile parses the file at path.
func importFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

// --- CPI Command ---

type cpiCmd struct {
	add    listFlag
	rm     listFlag
	imp    string
	export string
}

func (*cpiCmd) Name() string     { return "cpi" }
func (*cpiCmd) Synopsis() string { return "manage the monthly CPI prints" }
func (*cpiCmd) Usage() string {
	return `cpi [-add <YYYY-MM>:<yoy>[:<mom>]]... [-rm <YYYY-MM>]... [-import <file.csv>] [-export <file.csv>]

  Adds, removes or imports monthly CPI prints, as published by TUIK, in percent.
  A print already stored for a month is replaced. Without any action, lists
  the prints.

  The CSV format is one "YYYY-MM,yoy,mom" per line, the monthly change may be
  empty and a header line is allowed.
`
}

func (c *cpiCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.add, "add", "Add a print as <YYYY-MM>:<yoy>[:<mom>], repeatable")
	f.Var(&c.rm, "rm", "Remove the print of a month, repeatable")
	f.StringVar(&c.imp, "import", "", "Import prints from a CSV file")
	f.StringVar(&c.export, "export", "", "Export every print to a CSV file, - for stdout")
}

func (c *cpiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var entries []lirashield.CPIEntry
	for _, arg := range c.add {
		e, err := parseCPIArg(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		entries = append(entries, e)
	}
	var removed []date.YearMonth
	for _, arg := range c.rm {
		ym, err := date.ParseYearMonth(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		removed = append(removed, ym)
	}
	if c.imp != "" {
		imported, err := importFile(c.imp, lirashield.ParseCPI)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", c.imp, err)
			return subcommands.ExitFailure
		}
		entries = append(entries, imported...)
	}

	st, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	if len(entries) > 0 {
		n, err := st.PutCPI(ctx, entries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error storing prints: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Stored %d prints\n", n)
	}
	var errs []error
	for _, ym := range removed {
		if err := st.DeleteCPI(ctx, ym); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Printf("Removed the print of %s\n", ym)
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	market, _, err := st.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prints: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.export != "" {
		if err := writeFile(c.export, func(w io.Writer) error { return lirashield.WriteCPI(w, market.CPI()) }); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting prints: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if len(entries) == 0 && len(removed) == 0 {
		printMarkdown(renderer.RenderCPI(market.CPI()))
	}
	return subcommands.ExitSuccess
}
