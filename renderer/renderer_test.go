package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// document is the structure of a rendered markdown output.
type document struct {
	headings []string
	tables   [][][]string // rows of cells, header first
	items    []string
	paras    []string
}

// parseMarkdown parses src back with goldmark, to check that the output is
// well formed markdown and to inspect it.
func parseMarkdown(t *testing.T, src string) document {
	t.Helper()
	source := []byte(src)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	var doc document
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			doc.headings = append(doc.headings, nodeText(n, source))
			return ast.WalkSkipChildren, nil
		case *east.Table:
			doc.tables = append(doc.tables, nil)
		case *east.TableHeader, *east.TableRow:
			var row []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				row = append(row, nodeText(c, source))
			}
			last := len(doc.tables) - 1
			doc.tables[last] = append(doc.tables[last], row)
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			doc.items = append(doc.items, nodeText(n, source))
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			doc.paras = append(doc.paras, nodeText(n, source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return doc
}

// nodeText concatenates the text of every descendant of n.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func d(s string) date.Date { return date.MustParse(s) }

// testMarket has a 2% monthly CPI over 2023 and 2024, a few USD/TRY rates
// and prices of MAC.
func testMarket() *lirashield.Market {
	m := lirashield.NewMarket()
	for ym := date.NewYearMonth(2023, 1); ym.Before(date.NewYearMonth(2025, 1)); ym = ym.Next() {
		m.SetCPI(lirashield.CPIEntry{Month: ym, YoY: 60, MoM: lirashield.Percent(2).Ptr()})
	}
	m.SetRate(d("2024-01-01"), 30)
	m.SetRate(d("2024-03-01"), 31)
	m.SetRate(d("2024-06-01"), 32)
	m.SetPrice("MAC", d("2024-01-01"), 10)
	m.SetPrice("MAC", d("2024-06-01"), 15)
	return m
}

func TestRenderAnalysis(t *testing.T) {
	txs := []lirashield.Transaction{
		lirashield.NewBuy(d("2024-01-01"), "MAC", lirashield.Fund, lirashield.Q(100), 0, 0),
		lirashield.NewSell(d("2024-03-01"), "MAC", lirashield.Fund, lirashield.Q(40), 12),
		lirashield.NewBuy(d("2024-02-01"), "TI2", lirashield.Fund, lirashield.Q(5), 2, 0),
	}
	for i := range txs {
		txs[i].ID = int64(i + 1)
	}
	a, err := lirashield.Analyze(txs, testMarket(), lirashield.Options{On: d("2024-06-01")})
	require.NoError(t, err)

	out := RenderAnalysis(NewAnalysis(a))
	doc := parseMarkdown(t, out)

	assert.Equal(t, []string{"Real Return Analysis", "Tickers", "Open Lots", "Realized Lots", "Notes"}, doc.headings)
	require.Len(t, doc.tables, 4)

	summary := doc.tables[0]
	assert.Equal(t, []string{"Nominal Return", a.Total.Nominal.SignedString()}, summary[5])
	assert.Equal(t, []string{"Real Return (CPI)", a.Total.RealCPI.SignedString()}, summary[9])

	tickers := doc.tables[1]
	require.Len(t, tickers, 3, "header and two tickers")
	assert.Equal(t, []string{"MAC", "fund", "60", "40"}, tickers[1][:4])
	assert.Equal(t, "TI2", tickers[2][0])

	open := doc.tables[2]
	require.Len(t, open, 3)
	assert.Equal(t, []string{"MAC", "1", "2024-01-01", "152 days", "60", "10 TRY", "15 TRY"}, open[1][:7])
	assert.Equal(t, "TI2*", open[2][0], "TI2 has no current price")

	realized := doc.tables[3]
	require.Len(t, realized, 2)
	assert.Equal(t, []string{"MAC", "1", "2024-01-01", "2024-03-01", "60 days", "40", "10 TRY", "12 TRY"}, realized[1][:8])
	assert.Equal(t, "+20.00%", realized[1][9])

	require.Len(t, doc.items, 1)
	assert.Contains(t, doc.items[0], "TI2 lot #3 bought on 2024-02-01: no current price, valued at cost")
}

func TestRenderAnalysis_Unresolved(t *testing.T) {
	txs := []lirashield.Transaction{
		lirashield.NewBuy(d("2020-01-01"), "MAC", lirashield.Fund, lirashield.Q(1), 5, 0),
	}
	a, err := lirashield.Analyze(txs, lirashield.NewMarket(), lirashield.Options{On: d("2020-06-01")})
	require.NoError(t, err)

	doc := parseMarkdown(t, RenderAnalysis(NewAnalysis(a)))
	assert.Equal(t, "n/a", doc.tables[0][6][1], "USD/TRY change")
	assert.Equal(t, "n/a", doc.tables[0][9][1], "real CPI return")
	require.NotEmpty(t, doc.items)
	assert.True(t, strings.HasPrefix(doc.items[0], "No benchmark could be resolved"))
}

func TestRenderTransactions(t *testing.T) {
	buy := lirashield.NewBuy(d("2024-01-01"), "MAC", lirashield.Fund, lirashield.Q(1500), 1.25, 10)
	buy.ID, buy.Notes = 1, "first buy"
	sell := lirashield.NewSell(d("2024-02-01"), "MAC", lirashield.Fund, lirashield.Q(500), 0)
	sell.ID = 2
	cash := lirashield.NewBuy(d("2024-01-01"), "TRY", lirashield.Cash, lirashield.Q(1000), 0, 0)
	cash.ID = 3

	doc := parseMarkdown(t, RenderTransactions([]lirashield.Transaction{buy, cash, sell}))
	assert.Equal(t, []string{"Transactions"}, doc.headings)
	require.Len(t, doc.tables, 1)
	rows := doc.tables[0]
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"1", "2024-01-01", "buy", "MAC", "fund", "1,500", "1.25 TRY", "10.00%", "first buy"}, rows[1])
	assert.Equal(t, "-", rows[2][6])
	assert.Equal(t, "market", rows[3][6])

	doc = parseMarkdown(t, RenderTransactions(nil))
	assert.Empty(t, doc.tables)
	assert.Equal(t, []string{"No transactions."}, doc.paras)
}

func TestNewSeries(t *testing.T) {
	var h date.History[float64]
	h.Append(d("2024-01-01"), 20)
	h.Append(d("2024-01-02"), 25)
	h.Append(d("2024-01-03"), 20)

	s := NewSeries("USD/TRY", &h, date.NewRange(d("2024-01-02"), d("2024-01-31")))
	require.Len(t, s.Points, 2)
	require.NotNil(t, s.Points[0].Change)
	assert.InDelta(t, 25.0, float64(*s.Points[0].Change), 1e-9)
	assert.InDelta(t, -20.0, float64(*s.Points[1].Change), 1e-9)

	doc := parseMarkdown(t, RenderSeries(s))
	assert.Equal(t, []string{"USD/TRY"}, doc.headings)
	assert.Equal(t, []string{"2024-01-02", "25", "+25.00%"}, doc.tables[0][1])

	s = NewSeries("MAC", &h, date.NewRange(d("2023-01-01"), d("2024-01-01")))
	require.Len(t, s.Points, 1)
	assert.Nil(t, s.Points[0].Change)
	assert.Equal(t, "n/a", parseMarkdown(t, RenderSeries(s)).tables[0][1][2])

	doc = parseMarkdown(t, RenderSeries(&Series{Title: "Empty"}))
	assert.Equal(t, []string{"No data."}, doc.paras)
}

func TestRenderCPI(t *testing.T) {
	entries := []lirashield.CPIEntry{
		{Month: date.NewYearMonth(2024, 1), YoY: 64.86, MoM: lirashield.Percent(6.7).Ptr()},
		{Month: date.NewYearMonth(2024, 2), YoY: 67.07},
	}
	doc := parseMarkdown(t, RenderCPI(entries))
	assert.Equal(t, []string{"Consumer Price Index"}, doc.headings)
	assert.Equal(t, [][]string{
		{"Month", "YoY", "MoM"},
		{"2024-01", "64.86%", "+6.70%"},
		{"2024-02", "67.07%", "n/a"},
	}, doc.tables[0])
}

func TestTransaction(t *testing.T) {
	buy := lirashield.NewBuy(d("2024-01-01"), "MAC", lirashield.Fund, lirashield.Q(10), 100.5, 10)
	buy.ID = 1
	sell := lirashield.NewSell(d("2024-02-01"), "AAPL", lirashield.Stock, lirashield.Q(2), 0)
	sell.ID = 2
	deposit := lirashield.NewBuy(d("2024-01-01"), "USD", lirashield.Cash, lirashield.Q(100), 0, 0)
	deposit.ID = 3

	tests := []struct {
		tx   lirashield.Transaction
		want string
	}{
		{buy, "#1 2024-01-01: Bought 10 of MAC at 100.5 TRY, 10.00% withholding tax"},
		{sell, "#2 2024-02-01: Sold 2 of AAPL at the market price"},
		{deposit, "#3 2024-01-01: Deposited " + lirashield.M(100, lirashield.USD).String()},
	}
	for _, tt := range tests {
		if got := Transaction(tt.tx); got != tt.want {
			t.Errorf("Transaction() = %q, want %q", got, tt.want)
		}
	}
}
