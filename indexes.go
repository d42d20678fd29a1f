package carteira

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/lfpereira/carteira/date"
)

// defaultThrottle bounds external index syncs under repeated report renders.
const defaultThrottle = 10 * time.Minute

// IndexService maintains the cached reference-rate series (CDI, SELIC, IPCA)
// and computes compounding products over arbitrary date ranges.
//
// Refreshes are serialized per series and throttled; a failed fetch leaves
// the cache untouched and the computation proceeds with whatever is there.
type IndexService struct {
	repo     IndexRepository
	provider IndexProvider
	throttle time.Duration
	now      func() time.Time

	mu       sync.Mutex
	locks    map[IndexSeries]*sync.Mutex
	lastSync map[IndexSeries]time.Time
}

// NewIndexService builds an IndexService over a rate cache and an external
// provider. The provider may be nil, in which case EnsureCoverage only checks
// the cache.
func NewIndexService(repo IndexRepository, provider IndexProvider) *IndexService {
	return &IndexService{
		repo:     repo,
		provider: provider,
		throttle: defaultThrottle,
		now:      time.Now,
		locks:    make(map[IndexSeries]*sync.Mutex),
		lastSync: make(map[IndexSeries]time.Time),
	}
}

// seriesLock returns the mutex that serializes refreshes of one series.
func (s *IndexService) seriesLock(series IndexSeries) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[series]
	if !ok {
		l = new(sync.Mutex)
		s.locks[series] = l
	}
	return l
}

// EnsureCoverage guarantees, best-effort, that the series has cached data
// through end. It skips the external call when the cache already covers the
// range or when the series was refreshed within the throttle window. Fetch
// failures are logged and swallowed: the caller proceeds on cached data.
func (s *IndexService) EnsureCoverage(ctx context.Context, series IndexSeries, start, end date.Date) error {
	lock := s.seriesLock(series)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	last := s.lastSync[series]
	s.mu.Unlock()
	if !last.IsZero() && s.now().Sub(last) < s.throttle {
		return nil
	}

	if s.covered(series, end) {
		return nil
	}

	if s.provider == nil {
		return nil
	}
	fetched, err := s.provider.Rates(ctx, series, date.NewRange(start, end))
	if err != nil {
		log.Printf("index %s: fetch failed, keeping cached data: %v", series, err)
		return nil
	}
	if fetched.Len() == 0 {
		return nil
	}
	if err := s.repo.Upsert(series, fetched); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSync[series] = s.now()
	s.mu.Unlock()
	return nil
}

// covered reports whether the cache already has data through end. Monthly
// series are considered covered once the previous competence is present,
// since the current month's rate is published with a lag.
func (s *IndexService) covered(series IndexSeries, end date.Date) bool {
	target := end
	if series.Monthly() {
		target = end.StartOfMonth().AddMonths(-1)
	} else {
		for !target.IsBusinessDay() {
			target = target.Add(-1)
		}
	}
	rates, err := s.repo.Rates(series, date.NewRange(target.AddMonths(-1), end))
	if err != nil {
		return false
	}
	latest, _ := rates.Latest()
	return !latest.IsZero() && !latest.Before(target)
}

// Compound returns the product over the days in (start, end] of
// (1 + rate/100). It returns 1 for an empty or inverted range, and works on
// whatever data is cached: missing days simply contribute no factor.
//
// For monthly series each whole competence contributes its full factor and
// partial months a pro-rated one, (1+rate/100)^(days/daysInMonth), so that
// compounding over (a, b] and (b, c] composes exactly.
func (s *IndexService) Compound(series IndexSeries, start, end date.Date) float64 {
	if !end.After(start) {
		return 1
	}
	if series.Monthly() {
		return s.compoundMonthly(series, start, end)
	}

	rates, err := s.repo.Rates(series, date.NewRange(start.Add(1), end))
	if err != nil {
		log.Printf("index %s: read failed, compounding without it: %v", series, err)
		return 1
	}
	factor := 1.0
	for _, rate := range rates.Between(start, end) {
		factor *= 1 + rate/100
	}
	return factor
}

func (s *IndexService) compoundMonthly(series IndexSeries, start, end date.Date) float64 {
	// Load a year of slack before the range so a competence published with
	// lag can fall back to the latest known rate.
	r, err := s.repo.Rates(series, date.NewRange(start.AddMonths(-12).StartOfMonth(), end))
	if err != nil {
		log.Printf("index %s: read failed, compounding without it: %v", series, err)
		return 1
	}

	factor := 1.0
	for ym := range date.NewRange(start.Add(1), end).Months() {
		rate, ok := r.ValueAsOf(ym.First())
		if !ok {
			continue
		}
		first, last := ym.First(), ym.Last()
		segFrom := start
		if first.Add(-1).After(segFrom) {
			segFrom = first.Add(-1)
		}
		segTo := end
		if last.Before(segTo) {
			segTo = last
		}
		days := float64(segTo.Sub(segFrom))
		total := float64(last.Sub(first) + 1)
		if days <= 0 {
			continue
		}
		factor *= math.Pow(1+rate/100, days/total)
	}
	return factor
}
