// Package tefas fetches daily fund prices from TEFAS, the Turkish electronic
// fund trading platform.
package tefas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
	"github.com/yaman-yucel/lirashield/provider"
	"golang.org/x/time/rate"
)

const (
	// Name identifies TEFAS as a price source.
	Name = "tefas"
	// DefaultURL is the history endpoint of TEFAS.
	DefaultURL = "https://www.tefas.gov.tr/api/DB/BindHistoryInfo"
	// MaxChunkDays is the longest range TEFAS answers in one request.
	MaxChunkDays = 90

	referer    = "https://www.tefas.gov.tr/TarihselVeriler.aspx"
	dateLayout = "02.01.2006"
)

// istanbul is the fixed UTC+3 offset TEFAS dates are expressed in.
var istanbul = time.FixedZone("TRT", 3*60*60)

// Client is a TEFAS price source.
type Client struct {
	URL       string
	HTTP      *http.Client
	ChunkDays int
	limiter   *rate.Limiter
}

// New returns a client sending requests of at most chunkDays days, spaced by
// at least every.
func New(client *http.Client, chunkDays int, every time.Duration) *Client {
	return &Client{
		URL:       DefaultURL,
		HTTP:      client,
		ChunkDays: min(max(chunkDays, 1), MaxChunkDays),
		limiter:   rate.NewLimiter(rate.Every(every), 1),
	}
}

// Name implements provider.Source.
func (c *Client) Name() string { return Name }

// Fetch returns the prices of fund ticker over r, requesting TEFAS one chunk
// at a time.
func (c *Client) Fetch(ctx context.Context, ticker string, r date.Range) ([]provider.Quote, error) {
	ticker = lirashield.NormalizeTicker(ticker)
	var quotes []provider.Quote
	for chunk := range r.Chunks(c.ChunkDays) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		got, err := c.fetchChunk(ctx, ticker, chunk)
		if err != nil {
			return nil, fmt.Errorf("tefas %s %s: %w", ticker, chunk, err)
		}
		logger.L.Debug("tefas chunk fetched", "ticker", ticker, "range", chunk.String(), "count", len(got))
		quotes = append(quotes, got...)
	}
	return provider.Normalize(quotes, r), nil
}

func (c *Client) fetchChunk(ctx context.Context, ticker string, r date.Range) ([]provider.Quote, error) {
	form := url.Values{
		"fontip":   {"YAT"},
		"fonkod":   {ticker},
		"bastarih": {r.From.Format(dateLayout)},
		"bittarih": {r.To.Format(dateLayout)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", provider.UserAgent)

	body, err := provider.Do(c.HTTP, req)
	if err != nil {
		return nil, err
	}
	return parse(body)
}

// parse reads the data rows of a history response. TARIH is a day in epoch
// milliseconds, FIYAT the price of a unit.
func parse(body []byte) ([]provider.Quote, error) {
	jobj, err := provider.DecodeJSON(body)
	if err != nil {
		return nil, err
	}
	jrows, err := provider.Lookup("$.data[*]", jobj)
	if err != nil {
		return nil, err
	}
	rows, _ := jrows.([]any)
	quotes := make([]provider.Quote, 0, len(rows))
	for i, jrow := range rows {
		row, ok := jrow.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d: not an object: %v", i, jrow)
		}
		ms, err := provider.Number(row["TARIH"])
		if err != nil {
			return nil, fmt.Errorf("row %d: TARIH: %w", i, err)
		}
		price, err := provider.Number(row["FIYAT"])
		if err != nil {
			return nil, fmt.Errorf("row %d: FIYAT: %w", i, err)
		}
		if price <= 0 {
			// funds are listed with a zero price on days they did not trade.
			continue
		}
		day := date.Of(time.UnixMilli(int64(ms)).In(istanbul))
		quotes = append(quotes, provider.Quote{Date: day, Price: price})
	}
	return quotes, nil
}
