package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
)

func TestParseRateArg(t *testing.T) {
	e, err := parseRateArg("2024-01-02=29.95")
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-01-02"), e.Date)
	assert.Equal(t, 29.95, e.Rate)
	assert.Equal(t, manualSource, e.Source)

	for _, arg := range []string{"2024-01-02", "2024-13-02=1", "2024-01-02=0", "2024-01-02=abc"} {
		_, err := parseRateArg(arg)
		assert.ErrorIs(t, err, lirashield.ErrValidation, arg)
	}
}

func TestParseCPIArg(t *testing.T) {
	e, err := parseCPIArg("2024-01:64.86:6.7")
	require.NoError(t, err)
	assert.Equal(t, date.MustParseYearMonth("2024-01"), e.Month)
	assert.Equal(t, lirashield.Percent(64.86), e.YoY)
	require.NotNil(t, e.MoM)
	assert.Equal(t, lirashield.Percent(6.7), *e.MoM)

	e, err = parseCPIArg("2024-02:67.07")
	require.NoError(t, err)
	assert.Nil(t, e.MoM)

	for _, arg := range []string{"2024-01", "2024-01:x", "2024-01:1:y", "2024-01:-100", "2024-01:1:2:3"} {
		_, err := parseCPIArg(arg)
		assert.ErrorIs(t, err, lirashield.ErrValidation, arg)
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("2024-01-01", "2024-01-31", 10)
	require.NoError(t, err)
	assert.Equal(t, date.NewRange(date.MustParse("2024-01-01"), date.MustParse("2024-01-31")), r)

	r, err = parseRange("", "2024-01-31", 10)
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-01-22"), r.From)

	_, err = parseRange("2024-02-01", "2024-01-31", 10)
	assert.Error(t, err)
}

func TestPriceFlag(t *testing.T) {
	p := make(priceFlag)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(p, "p", "")
	require.NoError(t, fs.Parse([]string{"-p", "mac=1.25", "-p", "AAPL=190"}))
	assert.Equal(t, priceFlag{"MAC": 1.25, "AAPL": 190}, p)
	assert.Equal(t, "AAPL=190,MAC=1.25", p.String())

	assert.Error(t, p.Set("MAC"))
	assert.Error(t, p.Set("MAC=-1"))
	assert.Error(t, p.Set("=1"))
}

func TestTradeFlags(t *testing.T) {
	c := &tradeFlags{date: "2024-01-02", ticker: "mac", quantity: "10.5", class: "fund"}
	day, class, q, err := c.parse()
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-01-02"), day)
	assert.Equal(t, lirashield.Fund, class)
	assert.True(t, q.Equal(lirashield.Q(10.5)))

	c.class = "cash"
	_, _, _, err = c.parse()
	assert.Error(t, err)

	c.class, c.quantity = "stock", ""
	_, _, _, err = c.parse()
	assert.Error(t, err)
}

func TestRateDays(t *testing.T) {
	on := date.MustParse("2024-03-01")
	txs := []lirashield.Transaction{
		lirashield.NewBuy(date.MustParse("2024-01-02"), "MAC", lirashield.Fund, lirashield.Q(1), 1, 0),
		lirashield.NewSell(date.MustParse("2024-02-02"), "MAC", lirashield.Fund, lirashield.Q(1), 1),
		lirashield.NewBuy(date.MustParse("2024-04-02"), "MAC", lirashield.Fund, lirashield.Q(1), 1, 0),
	}
	assert.Equal(t, []date.Date{on, date.MustParse("2024-01-02"), date.MustParse("2024-02-02")}, rateDays(txs, on))
}

func TestHeldTickers(t *testing.T) {
	txs := []lirashield.Transaction{
		lirashield.NewBuy(date.MustParse("2024-01-02"), "MAC", lirashield.Fund, lirashield.Q(1), 1, 0),
		lirashield.NewBuy(date.MustParse("2024-01-02"), "AAPL", lirashield.Stock, lirashield.Q(1), 1, 0),
		lirashield.NewBuy(date.MustParse("2024-01-02"), "USD", lirashield.Cash, lirashield.Q(1), 0, 0),
	}
	assert.Equal(t, map[string]lirashield.AssetClass{"MAC": lirashield.Fund, "AAPL": lirashield.Stock}, heldTickers(txs))
}

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("lirashield", flag.ContinueOnError)
	global.String("db", "", "")
	c := subcommands.NewCommander(global, "lirashield")
	Register(c)

	root := completion(c, global)
	assert.Contains(t, root.Flags, "db")
	for _, name := range []string{"buy", "sell", "cash", "rm", "log", "fetch", "usd", "cpi", "series", "analyze", "topic"} {
		assert.Contains(t, root.Sub, name)
	}
	assert.Contains(t, root.Sub["buy"].Flags, "tax")
	assert.Contains(t, root.Sub["analyze"].Flags, "p")
	assert.Equal(t, flagPredictors["class"], root.Sub["sell"].Flags["class"])
}

func TestIsTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.md"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f), "a regular file gets plain markdown")
}
