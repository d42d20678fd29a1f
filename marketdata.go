package carteira

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira/date"
)

// defaultPad widens the fetch window backwards so that on-or-before lookups
// near the start of a report still resolve to a close from the prior days.
const defaultPad = 10

// defaultQuoteTTL keeps a fetched series warm across the bursts of calls one
// report render produces.
const defaultQuoteTTL = 5 * time.Minute

// MarketData builds daily closing-price series for exchange-quoted
// instruments, converting foreign-quoted ones into the reporting currency.
// Fetches for multiple instruments fan out concurrently; results are cached
// per (symbol, window) for a short TTL. Non-trading days are never stored,
// so consumers must look prices up with on-or-before semantics.
type MarketData struct {
	provider QuoteProvider
	pad      int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]seriesEntry
}

type seriesEntry struct {
	at     time.Time
	series *date.History[float64]
}

// NewMarketData builds a MarketData over a quote provider.
func NewMarketData(provider QuoteProvider) *MarketData {
	return &MarketData{
		provider: provider,
		pad:      defaultPad,
		ttl:      defaultQuoteTTL,
		now:      time.Now,
		cache:    make(map[string]seriesEntry),
	}
}

// Build fetches daily closes for every instrument with a market symbol over
// [start-pad, end], keyed by instrument. Foreign-quoted instruments are
// converted with the FX close on or before each trading day. The returned
// error joins per-symbol failures for diagnostics; the map always holds
// whatever could be fetched, and an empty series is a valid degraded answer.
func (m *MarketData) Build(ctx context.Context, instruments []InstrumentConfig, r date.Range) (map[uuid.UUID]*date.History[float64], error) {
	window := date.NewRange(r.From.Add(-m.pad), r.To)

	// FX is fetched once, up front, when any instrument needs it.
	var fx *date.History[float64]
	var errs error
	for _, cfg := range instruments {
		if cfg.HasMarketSymbol() && cfg.Currency != "" && cfg.Currency != BRL {
			var err error
			fx, err = m.fetchFX(ctx, "USD", window)
			errs = errors.Join(errs, err)
			break
		}
	}

	type result struct {
		id     uuid.UUID
		series *date.History[float64]
		err    error
	}
	results := make(chan result)
	launched := 0
	for _, cfg := range instruments {
		if !cfg.HasMarketSymbol() {
			continue
		}
		launched++
		go func(cfg InstrumentConfig) {
			series, err := m.fetchCloses(ctx, cfg.Symbol, window)
			if err == nil && cfg.Currency != "" && cfg.Currency != BRL {
				series = convertSeries(series, fx)
			}
			results <- result{id: cfg.InstrumentID, series: series, err: err}
		}(cfg)
	}

	out := make(map[uuid.UUID]*date.History[float64], launched)
	for ; launched > 0; launched-- {
		res := <-results
		if res.err != nil {
			errs = errors.Join(errs, res.err)
		}
		if res.series != nil {
			out[res.id] = res.series
		}
	}
	return out, errs
}

func (m *MarketData) fetchCloses(ctx context.Context, symbol string, window date.Range) (*date.History[float64], error) {
	key := fmt.Sprintf("close|%s|%s|%s", symbol, window.From, window.To)
	return m.cached(key, func() (*date.History[float64], error) {
		return m.provider.DailyCloses(ctx, symbol, window)
	})
}

func (m *MarketData) fetchFX(ctx context.Context, from string, window date.Range) (*date.History[float64], error) {
	key := fmt.Sprintf("fx|%s%s|%s|%s", from, BRL, window.From, window.To)
	return m.cached(key, func() (*date.History[float64], error) {
		return m.provider.FXCloses(ctx, from, BRL, window)
	})
}

// cached runs fetch at most once per key within the TTL. The inner fetch is
// not deduplicated across goroutines (the provider's own response cache
// absorbs that); the map only serializes the bookkeeping.
func (m *MarketData) cached(key string, fetch func() (*date.History[float64], error)) (*date.History[float64], error) {
	m.mu.Lock()
	entry, ok := m.cache[key]
	m.mu.Unlock()
	if ok && m.now().Sub(entry.at) < m.ttl {
		return entry.series, nil
	}
	series, err := fetch()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.cache[key] = seriesEntry{at: m.now(), series: series}
	m.mu.Unlock()
	return series, nil
}

// convertSeries applies the FX rate on or before each trading day. Days with
// no resolvable rate are dropped rather than guessed; with no FX series at
// all the closes are unusable in reais, so the whole series is dropped and
// the instrument degrades to its cost basis.
func convertSeries(series, fx *date.History[float64]) *date.History[float64] {
	if fx == nil {
		return nil
	}
	converted := new(date.History[float64])
	for day, close := range series.Values() {
		rate, ok := fx.ValueAsOf(day)
		if !ok || rate <= 0 {
			continue
		}
		converted.Append(day, close*rate)
	}
	return converted
}
