// Package yahoo fetches daily closing prices of USD stocks and the USD/TRY
// rate from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
	"github.com/yaman-yucel/lirashield/provider"
	"golang.org/x/net/publicsuffix"
)

const (
	// Name identifies Yahoo as a price source.
	Name = "yahoo"
	// DefaultURL is the chart endpoint, the symbol is appended to it.
	DefaultURL = "https://query1.finance.yahoo.com/v8/finance/chart/"
	// USDTRY is the symbol of the USD/TRY rate.
	USDTRY = "USDTRY=X"
)

// Client is a Yahoo Finance price source.
type Client struct {
	URL  string
	HTTP *http.Client
}

// New returns a client using a copy of client with a cookie jar, Yahoo
// rejects requests that do not send back its cookies.
func New(client *http.Client) *Client {
	c := *client
	if c.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			logger.L.Error("failed to create cookie jar", "error", err)
		} else {
			c.Jar = jar
		}
	}
	return &Client{URL: DefaultURL, HTTP: &c}
}

// Name implements provider.Source.
func (c *Client) Name() string { return Name }

// Fetch returns the daily closes of symbol over r.
func (c *Client) Fetch(ctx context.Context, symbol string, r date.Range) ([]provider.Quote, error) {
	q := url.Values{
		"period1":  {fmt.Sprint(r.From.Time().Unix())},
		"period2":  {fmt.Sprint(r.To.Add(1).Time().Unix())},
		"interval": {"1d"},
	}
	addr := c.URL + url.PathEscape(symbol) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", provider.UserAgent)

	body, err := provider.Do(c.HTTP, req)
	var se *provider.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: unknown symbol %s", lirashield.ErrDataNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("yahoo %s %s: %w", symbol, r, err)
	}
	quotes, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s %s: %w", symbol, r, err)
	}
	logger.L.Debug("yahoo chart fetched", "symbol", symbol, "range", r.String(), "count", len(quotes))
	return provider.Normalize(quotes, r), nil
}

// parse reads a chart response. Timestamps are shifted by the exchange
// offset so that each close lands on its trading day, missing closes are
// skipped.
func parse(body []byte) ([]provider.Quote, error) {
	jobj, err := provider.DecodeJSON(body)
	if err != nil {
		return nil, err
	}
	if jerr, err := provider.Lookup("$.chart.error", jobj); err == nil && jerr != nil {
		desc, _ := provider.Lookup("$.chart.error.description", jobj)
		return nil, fmt.Errorf("chart error: %v", desc)
	}
	jresult, err := provider.First("$.chart.result", jobj)
	if err != nil {
		return nil, err
	}
	result, ok := jresult.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected chart result: %v", jresult)
	}
	jts, ok := result["timestamp"].([]any)
	if !ok {
		// no trading day in the range.
		return nil, nil
	}
	jclose, err := provider.First("$.indicators.quote[*].close", result)
	if err != nil {
		return nil, err
	}
	closes, ok := jclose.([]any)
	if !ok || len(closes) != len(jts) {
		return nil, fmt.Errorf("chart has %d timestamps but closes are %v", len(jts), jclose)
	}
	var offset float64
	if joff, err := provider.Lookup("$.meta.gmtoffset", result); err == nil {
		offset, _ = provider.Number(joff)
	}

	quotes := make([]provider.Quote, 0, len(jts))
	for i, jt := range jts {
		if closes[i] == nil {
			continue
		}
		ts, err := provider.Number(jt)
		if err != nil {
			return nil, fmt.Errorf("timestamp %d: %w", i, err)
		}
		price, err := provider.Number(closes[i])
		if err != nil {
			return nil, fmt.Errorf("close %d: %w", i, err)
		}
		day := date.Of(time.Unix(int64(ts+offset), 0).UTC())
		quotes = append(quotes, provider.Quote{Date: day, Price: price})
	}
	return quotes, nil
}
