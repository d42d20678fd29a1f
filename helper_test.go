package carteira

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira/date"
)

// BRLm is a helper for tests to create reais from a const.
func BRLm(v float64) Money { return M(v, BRL) }

var (
	instCDB      = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	instTreasury = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	instStock    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func buy(id uuid.UUID, on date.Date, qty, amount float64) CashFlowEvent {
	e := CashFlowEvent{InstrumentID: id, Date: on, Kind: Buy, QuantityDelta: Q(qty), CashAmount: BRLm(amount)}
	if qty > 0 {
		e.UnitPrice = BRLm(amount / qty)
	}
	return e
}

func sell(id uuid.UUID, on date.Date, qty, amount float64) CashFlowEvent {
	e := CashFlowEvent{InstrumentID: id, Date: on, Kind: Sell, QuantityDelta: Q(-qty), CashAmount: BRLm(-amount)}
	if qty > 0 {
		e.UnitPrice = BRLm(amount / qty)
	}
	return e
}

func dividend(id uuid.UUID, on date.Date, amount float64) CashFlowEvent {
	return CashFlowEvent{InstrumentID: id, Date: on, Kind: Dividend, CashAmount: BRLm(-amount)}
}

// seedDailyRate fills every business day of the range with the same rate.
func seedDailyRate(t *testing.T, repo IndexRepository, series IndexSeries, r date.Range, rate float64) {
	t.Helper()
	h := new(date.History[float64])
	for d := range r.Days() {
		if d.IsBusinessDay() {
			h.Append(d, rate)
		}
	}
	if err := repo.Upsert(series, h); err != nil {
		t.Fatalf("seeding %s rates: %v", series, err)
	}
}

// fakeIndexProvider serves canned rates and counts fetches.
type fakeIndexProvider struct {
	rates map[IndexSeries]*date.History[float64]
	err   error
	calls int
}

func (p *fakeIndexProvider) Rates(ctx context.Context, series IndexSeries, r date.Range) (*date.History[float64], error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	h := p.rates[series]
	if h == nil {
		h = new(date.History[float64])
	}
	return h, nil
}

// fakeTreasuryProvider serves canned marks for every label.
type fakeTreasuryProvider struct {
	marks *date.History[TreasuryMark]
	calls int
}

func (p *fakeTreasuryProvider) UnitPrices(ctx context.Context, label string, r date.Range) (*date.History[TreasuryMark], error) {
	p.calls++
	if p.marks == nil {
		return new(date.History[TreasuryMark]), nil
	}
	return p.marks, nil
}

// fakeQuoteProvider serves canned close and FX series and counts fetches.
type fakeQuoteProvider struct {
	closes map[string]*date.History[float64]
	fx     *date.History[float64]
	calls  int
}

func (p *fakeQuoteProvider) DailyCloses(ctx context.Context, symbol string, r date.Range) (*date.History[float64], error) {
	p.calls++
	h := p.closes[symbol]
	if h == nil {
		return nil, fmt.Errorf("no closes for %s", symbol)
	}
	return h, nil
}

func (p *fakeQuoteProvider) FXCloses(ctx context.Context, from, to string, r date.Range) (*date.History[float64], error) {
	p.calls++
	if p.fx == nil {
		return nil, fmt.Errorf("no fx for %s-%s", from, to)
	}
	return p.fx, nil
}

// newTestEngine wires an engine over in-memory caches with no external
// providers. Tests seed the repositories directly.
func newTestEngine(t *testing.T) (*Engine, *MemIndexRepository, *MemTreasuryRepository) {
	t.Helper()
	indexRepo := NewMemIndexRepository()
	treasuryRepo := NewMemTreasuryRepository()
	indexes := NewIndexService(indexRepo, nil)
	treasury := NewTreasuryService(treasuryRepo, nil)
	return NewEngine(indexes, treasury, nil), indexRepo, treasuryRepo
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}
