package carteira

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lfpereira/carteira/date"
)

func TestCompoundDaily(t *testing.T) {
	repo := NewMemIndexRepository()
	s := NewIndexService(repo, nil)

	// 2025-06-02 (Mon) through 2025-06-06 (Fri), 0.05% per business day.
	week := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	seedDailyRate(t, repo, SeriesCDI, week, 0.05)

	// (from, to] excludes the start day: 4 factors over Tue..Fri.
	got := s.Compound(SeriesCDI, date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	want := math.Pow(1.0005, 4)
	if !almostEqual(got, want) {
		t.Errorf("Compound = %v, want %v", got, want)
	}
}

func TestCompoundComposes(t *testing.T) {
	repo := NewMemIndexRepository()
	s := NewIndexService(repo, nil)
	r := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 30))
	seedDailyRate(t, repo, SeriesCDI, r, 0.045)

	a, b, c := date.New(2025, time.June, 2), date.New(2025, time.June, 13), date.New(2025, time.June, 30)
	whole := s.Compound(SeriesCDI, a, c)
	split := s.Compound(SeriesCDI, a, b) * s.Compound(SeriesCDI, b, c)
	if !almostEqual(whole, split) {
		t.Errorf("Compound(a,c) = %v but Compound(a,b)*Compound(b,c) = %v", whole, split)
	}
}

func TestCompoundEmptyRange(t *testing.T) {
	s := NewIndexService(NewMemIndexRepository(), nil)
	day := date.New(2025, time.June, 2)
	if got := s.Compound(SeriesCDI, day, day); got != 1 {
		t.Errorf("empty range Compound = %v, want 1", got)
	}
	if got := s.Compound(SeriesCDI, day.Add(5), day); got != 1 {
		t.Errorf("inverted range Compound = %v, want 1", got)
	}
}

func TestCompoundMonthlyProRates(t *testing.T) {
	repo := NewMemIndexRepository()
	s := NewIndexService(repo, nil)

	// IPCA competence rates are keyed by the first day of the month.
	rates := new(date.History[float64]).
		Append(date.New(2025, time.May, 1), 0.40).
		Append(date.New(2025, time.June, 1), 0.30)
	if err := repo.Upsert(SeriesIPCA, rates); err != nil {
		t.Fatal(err)
	}

	// Ten days out of June's thirty.
	got := s.Compound(SeriesIPCA, date.New(2025, time.June, 10), date.New(2025, time.June, 20))
	want := math.Pow(1.003, 10.0/30.0)
	if !almostEqual(got, want) {
		t.Errorf("Compound = %v, want %v", got, want)
	}

	// Pro-rating composes exactly across an arbitrary split.
	a, b, c := date.New(2025, time.May, 10), date.New(2025, time.June, 5), date.New(2025, time.June, 25)
	whole := s.Compound(SeriesIPCA, a, c)
	split := s.Compound(SeriesIPCA, a, b) * s.Compound(SeriesIPCA, b, c)
	if !almostEqual(whole, split) {
		t.Errorf("Compound(a,c) = %v but Compound(a,b)*Compound(b,c) = %v", whole, split)
	}
}

func TestEnsureCoverageThrottles(t *testing.T) {
	rates := map[IndexSeries]*date.History[float64]{
		SeriesCDI: new(date.History[float64]).Append(date.New(2025, time.June, 2), 0.05),
	}
	provider := &fakeIndexProvider{rates: rates}
	s := NewIndexService(NewMemIndexRepository(), provider)

	ctx := context.Background()
	start, end := date.New(2025, time.June, 1), date.New(2025, time.June, 30)
	if err := s.EnsureCoverage(ctx, SeriesCDI, start, end); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureCoverage(ctx, SeriesCDI, start, end); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times within the throttle window, want 1", provider.calls)
	}
}

func TestEnsureCoverageSkipsWhenCovered(t *testing.T) {
	repo := NewMemIndexRepository()
	provider := &fakeIndexProvider{}
	s := NewIndexService(repo, provider)

	// Cache already holds data through the target end (a Friday).
	end := date.New(2025, time.June, 27)
	seedDailyRate(t, repo, SeriesCDI, date.NewRange(date.New(2025, time.June, 2), end), 0.05)

	// End on the following Sunday: coverage through Friday suffices.
	if err := s.EnsureCoverage(context.Background(), SeriesCDI, date.New(2025, time.June, 2), end.Add(2)); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times on a covered range, want 0", provider.calls)
	}
}

func TestEnsureCoverageFailSoft(t *testing.T) {
	repo := NewMemIndexRepository()
	seedDailyRate(t, repo, SeriesCDI, date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6)), 0.05)
	s := NewIndexService(repo, &fakeIndexProvider{err: errors.New("boom")})

	if err := s.EnsureCoverage(context.Background(), SeriesCDI, date.New(2025, time.June, 1), date.New(2025, time.July, 31)); err != nil {
		t.Errorf("fetch failure surfaced as error: %v", err)
	}
	rates, err := repo.Rates(SeriesCDI, date.NewRange(date.New(2025, time.June, 1), date.New(2025, time.June, 30)))
	if err != nil {
		t.Fatal(err)
	}
	if rates.Len() != 5 {
		t.Errorf("cache mutated on failed fetch: %d rows", rates.Len())
	}
}
