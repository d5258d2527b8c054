package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func pct(v float64) *lirashield.Percent { return lirashield.Percent(v).Ptr() }

func TestStore_Transactions(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	buy, err := s.AddTransaction(ctx, lirashield.NewBuy(date.MustParse("2024-01-01"), "mac", lirashield.Fund, lirashield.Q(10), 100.5, 10))
	require.NoError(t, err)
	assert.NotZero(t, buy.ID)
	assert.Equal(t, "MAC", buy.Ticker)

	cash := lirashield.NewBuy(date.MustParse("2024-01-01"), "TRY", lirashield.Cash, lirashield.Q(2500.25), 0, 0)
	cash.Notes = "salary"
	_, err = s.AddTransaction(ctx, cash)
	require.NoError(t, err)

	sell, err := s.AddTransaction(ctx, lirashield.NewSell(date.MustParse("2024-02-01"), "MAC", lirashield.Fund, lirashield.Q(4), 0))
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, lirashield.NewSell(date.MustParse("2024-03-01"), "MAC", lirashield.Fund, lirashield.Q(7), 0))
	assert.ErrorIs(t, err, lirashield.ErrValidation, "oversell")

	txs, err := s.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	got := txs[0]
	if got.Ticker != "MAC" {
		got = txs[1]
	}
	assert.Equal(t, buy.ID, got.ID)
	assert.True(t, got.Quantity.Equal(lirashield.Q(10)))
	assert.True(t, got.Price.Valid)
	assert.Equal(t, "100.5", got.Price.Decimal.String())
	assert.Equal(t, lirashield.Percent(10), got.TaxRate)
	assert.Equal(t, lirashield.Fund, got.AssetClass)
	assert.Equal(t, lirashield.Sell, txs[2].Direction)
	assert.False(t, txs[2].Price.Valid)

	_, err = s.DeleteTransaction(ctx, buy.ID)
	assert.ErrorIs(t, err, lirashield.ErrValidation, "the sell depends on the buy")

	removed, err := s.DeleteTransaction(ctx, sell.ID)
	require.NoError(t, err)
	assert.Equal(t, sell.ID, removed.ID)
	_, err = s.DeleteTransaction(ctx, sell.ID)
	assert.ErrorIs(t, err, lirashield.ErrDataNotFound)

	txs, err = s.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	first, err := s.FirstTransactionDate(ctx, "mac")
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-01-01"), first)
	_, err = s.FirstTransactionDate(ctx, "TI2")
	assert.ErrorIs(t, err, lirashield.ErrDataNotFound)
}

func TestStore_Series(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.LatestRateDate(ctx)
	assert.ErrorIs(t, err, lirashield.ErrDataNotFound)

	n, err := s.PutPrices(ctx, []lirashield.PriceEntry{
		{Ticker: "MAC", Date: date.MustParse("2024-01-02"), Price: 10, Source: "tefas"},
		{Ticker: "MAC", Date: date.MustParse("2024-01-03"), Price: 11, Source: "tefas"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	// most recent write wins.
	_, err = s.PutPrices(ctx, []lirashield.PriceEntry{{Ticker: "mac", Date: date.MustParse("2024-01-03"), Price: 12, Source: "manual"}})
	require.NoError(t, err)
	_, err = s.PutPrices(ctx, []lirashield.PriceEntry{{Ticker: "MAC", Date: date.MustParse("2024-01-04"), Price: 0}})
	assert.ErrorIs(t, err, lirashield.ErrValidation)

	_, err = s.PutRates(ctx, []lirashield.RateEntry{
		{Date: date.MustParse("2024-01-02"), Rate: 29.9, Source: "yahoo"},
		{Date: date.MustParse("2024-01-05"), Rate: 30.1, Source: "yahoo"},
	})
	require.NoError(t, err)
	_, err = s.PutRates(ctx, []lirashield.RateEntry{{Date: date.MustParse("2024-01-05"), Rate: 30.2, Source: "manual"}})
	require.NoError(t, err)

	_, err = s.PutCPI(ctx, []lirashield.CPIEntry{
		{Month: date.MustParseYearMonth("2024-01"), YoY: 64.86, MoM: pct(6.7)},
		{Month: date.MustParseYearMonth("2024-02"), YoY: 67.07},
	})
	require.NoError(t, err)
	_, err = s.PutCPI(ctx, []lirashield.CPIEntry{{Month: date.MustParseYearMonth("2024-02"), YoY: 67.07, MoM: pct(4.53)}})
	require.NoError(t, err)

	latest, err := s.LatestPriceDate(ctx, "mac")
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-01-03"), latest)
	_, err = s.LatestPriceDate(ctx, "TI2")
	assert.ErrorIs(t, err, lirashield.ErrDataNotFound)

	latest, err = s.LatestRateDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-01-05"), latest)

	ok, err := s.HasRate(ctx, date.MustParse("2024-01-02"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.HasRate(ctx, date.MustParse("2024-01-03"))
	require.NoError(t, err)
	assert.False(t, ok)

	market, txs, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
	p, err := market.PriceAt("MAC", date.MustParse("2024-01-03"), lirashield.Exact)
	require.NoError(t, err)
	assert.Equal(t, 12.0, p)
	r, err := market.RateAt(date.MustParse("2024-01-05"), lirashield.Exact)
	require.NoError(t, err)
	assert.Equal(t, 30.2, r)
	cpi := market.CPI()
	require.Len(t, cpi, 2)
	require.NotNil(t, cpi[1].MoM)
	assert.Equal(t, lirashield.Percent(4.53), *cpi[1].MoM)

	require.NoError(t, s.DeleteRate(ctx, date.MustParse("2024-01-02")))
	assert.ErrorIs(t, s.DeleteRate(ctx, date.MustParse("2024-01-02")), lirashield.ErrDataNotFound)
	require.NoError(t, s.DeleteCPI(ctx, date.MustParseYearMonth("2024-01")))
	assert.ErrorIs(t, s.DeleteCPI(ctx, date.MustParseYearMonth("2024-01")), lirashield.ErrDataNotFound)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, lirashield.NewBuy(date.MustParse("2024-01-01"), "MAC", lirashield.Fund, lirashield.Q(1), 1, 0))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	txs, err := s.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
