// Package cmd implements the CLI application to track the real return of a
// TRY portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/config"
	"github.com/yaman-yucel/lirashield/logger"
	"github.com/yaman-yucel/lirashield/provider"
	"github.com/yaman-yucel/lirashield/store"
	"github.com/yaman-yucel/lirashield/tefas"
	"github.com/yaman-yucel/lirashield/yahoo"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&cashCmd{}, "transactions")
	c.Register(&rmCmd{}, "transactions")
	c.Register(&logCmd{}, "transactions")

	c.Register(&fetchCmd{}, "market data")
	c.Register(&usdCmd{}, "market data")
	c.Register(&cpiCmd{}, "market data")
	c.Register(&seriesCmd{}, "market data")

	c.Register(&analyzeCmd{}, "reports")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbPath = flag.String("db", "", "Path to the SQLite database (default $LIRASHIELD_DB or portfolio.db)")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", false, "Log debug messages")

var cfg *config.Config

// Setup loads the configuration, applies the global flags on top of it and
// initializes the logger. It must be called after flag.Parse.
func Setup() error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if *dbPath != "" {
		c.DBPath = *dbPath
	}
	level := c.LogLevel
	if *Verbose {
		level = "debug"
	}
	logger.Init(os.Stderr, level, c.LogFormat)
	cfg = c
	return nil
}

// openStore opens the application database.
func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", cfg.DBPath, err)
	}
	return st, nil
}

// sources resolves the price source of each asset class.
type sources struct {
	funds  provider.Source
	stocks provider.Source
}

// memoTTL bounds how long a fetched range is reused within a run.
const memoTTL = 10 * time.Minute

func newSources() *sources {
	client := provider.NewClient(cfg.HTTPTimeout, cfg.CacheDir)
	return &sources{
		funds:  wrap(tefas.New(client, cfg.TefasChunkDays, cfg.TefasRate)),
		stocks: wrap(yahoo.New(client)),
	}
}

func wrap(src provider.Source) provider.Source {
	return provider.NewMemo(provider.WithRetry(src, cfg.FetchRetries, cfg.FetchBackoff), memoTTL)
}

// For returns the source of prices of the asset class, or nil for cash.
func (s *sources) For(class lirashield.AssetClass) provider.Source {
	switch class {
	case lirashield.Fund:
		return s.funds
	case lirashield.Stock:
		return s.stocks
	default:
		return nil
	}
}

// printMarkdown prints md, styled when stdout is a terminal.
func printMarkdown(md string) {
	if !isTerminal(os.Stdout) {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// listFlag collects every occurrence of a repeatable flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}
