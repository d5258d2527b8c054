package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/renderer"
)

// recordTransaction stores tx and prints it.
func recordTransaction(ctx context.Context, tx lirashield.Transaction, fetch bool) subcommands.ExitStatus {
	st, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	tx, err = st.AddTransaction(ctx, tx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(renderer.Transaction(tx))

	if fetch && tx.AssetClass != lirashield.Cash {
		n, err := updatePrices(ctx, st, newSources(), tx.Ticker, tx.AssetClass, date.Today())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching prices of %s: %v\n", tx.Ticker, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Fetched %d prices of %s\n", n, tx.Ticker)
	}
	return subcommands.ExitSuccess
}

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	date     string
	ticker   string
	quantity string
	price    float64
	class    string
	memo     string
	fetch    bool
}

func (c *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Fund code or stock ticker")
	f.StringVar(&c.quantity, "q", "", "Number of units")
	f.Float64Var(&c.price, "p", 0, "Price per unit in the ticker currency, 0 to use the market price of the day")
	f.StringVar(&c.class, "class", "fund", "Asset class: fund (TRY, from TEFAS) or stock (USD, from Yahoo)")
	f.StringVar(&c.memo, "m", "", "An optional note for the transaction")
	f.BoolVar(&c.fetch, "fetch", false, "Fetch missing prices of the ticker afterwards")
}

// parse validates the flags and returns the date, asset class and quantity.
func (c *tradeFlags) parse() (date.Date, lirashield.AssetClass, lirashield.Quantity, error) {
	if c.ticker == "" || c.quantity == "" || c.price < 0 {
		return date.Date{}, 0, lirashield.Quantity{}, fmt.Errorf("-t and -q are required, -p cannot be negative")
	}
	day, err := date.Parse(c.date)
	if err != nil {
		return date.Date{}, 0, lirashield.Quantity{}, err
	}
	class, err := lirashield.ParseAssetClass(c.class)
	if err != nil {
		return date.Date{}, 0, lirashield.Quantity{}, err
	}
	if class == lirashield.Cash {
		return date.Date{}, 0, lirashield.Quantity{}, fmt.Errorf("use the cash command to deposit or withdraw cash")
	}
	q, err := lirashield.ParseQuantity(c.quantity)
	if err != nil {
		return date.Date{}, 0, lirashield.Quantity{}, err
	}
	return day, class, q, nil
}

// --- Buy Command ---

type buyCmd struct {
	tradeFlags
	tax float64
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy units of a fund or a stock" }
func (*buyCmd) Usage() string {
	return `buy -t <ticker> -q <quantity> [-d <date>] [-p <price>] [-tax <percent>] [-class fund|stock] [-m <memo>]

  Records a purchase. Each buy opens a new lot, later sells consume lots first in first out.
  The withholding tax rate applies to the gain of the lot when it is evaluated.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	c.tradeFlags.set(f)
	f.Float64Var(&c.tax, "tax", 0, "Withholding tax rate on gains, in percent")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, class, q, err := c.parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx := lirashield.NewBuy(day, c.ticker, class, q, c.price, lirashield.Percent(c.tax))
	tx.Notes = c.memo
	return recordTransaction(ctx, tx, c.fetch)
}

// --- Sell Command ---

type sellCmd struct {
	tradeFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell units of a fund or a stock" }
func (*sellCmd) Usage() string {
	return `sell -t <ticker> -q <quantity> [-d <date>] [-p <price>] [-class fund|stock] [-m <memo>]

  Records a sale. It cannot exceed the quantity held at that date.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.tradeFlags.set(f) }

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, class, q, err := c.parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx := lirashield.NewSell(day, c.ticker, class, q, c.price)
	tx.Notes = c.memo
	return recordTransaction(ctx, tx, c.fetch)
}

// --- Cash Command ---

type cashCmd struct {
	date     string
	currency string
	amount   string
	withdraw bool
	memo     string
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "deposit or withdraw TRY or USD cash" }
func (*cashCmd) Usage() string {
	return `cash -a <amount> [-c TRY|USD] [-d <date>] [-withdraw] [-m <memo>]

  Records a cash deposit, or a withdrawal with -withdraw. USD cash is measured
  against the same benchmarks as any other holding.
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.currency, "c", lirashield.TRY, "Currency: TRY or USD")
	f.StringVar(&c.amount, "a", "", "Amount of cash")
	f.BoolVar(&c.withdraw, "withdraw", false, "Withdraw instead of deposit")
	f.StringVar(&c.memo, "m", "", "An optional note for the transaction")
}

func (c *cashCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	q, err := lirashield.ParseQuantity(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	tx := lirashield.NewBuy(day, c.currency, lirashield.Cash, q, 0, 0)
	if c.withdraw {
		tx = lirashield.NewSell(day, c.currency, lirashield.Cash, q, 0)
	}
	tx.Notes = c.memo
	return recordTransaction(ctx, tx, false)
}

// --- Rm Command ---

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove a transaction" }
func (*rmCmd) Usage() string {
	return `rm <id>

  Removes a transaction by id, as shown by the log command. A buy cannot be
  removed while a later sell depends on it.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing id %q: %v\n", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	st, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	tx, err := st.DeleteTransaction(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("Removed", renderer.Transaction(tx))
	return subcommands.ExitSuccess
}
