package provider

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yaman-yucel/lirashield/date"
)

// Memo is a Source that remembers the quotes fetched for a ticker and range.
// It is safe for concurrent use.
type Memo struct {
	src   Source
	cache *cache.Cache
}

// NewMemo memoises src for ttl.
func NewMemo(src Source, ttl time.Duration) *Memo {
	return &Memo{src: src, cache: cache.New(ttl, 2*ttl)}
}

// Name returns the name of the memoised source.
func (m *Memo) Name() string { return m.src.Name() }

// Fetch returns the remembered quotes, or fetches them. Failures are not
// remembered.
func (m *Memo) Fetch(ctx context.Context, ticker string, r date.Range) ([]Quote, error) {
	key := m.src.Name() + " " + ticker + " " + r.String()
	if v, ok := m.cache.Get(key); ok {
		return slices.Clone(v.([]Quote)), nil
	}
	quotes, err := m.src.Fetch(ctx, ticker, r)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, slices.Clone(quotes), cache.DefaultExpiration)
	return quotes, nil
}
