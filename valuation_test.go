package carteira

import (
	"context"
	"testing"
	"time"

	"github.com/lfpereira/carteira/date"
)

// newMarketEngine wires an engine whose market data comes from the fake
// provider, with in-memory caches behind the index and treasury services.
func newMarketEngine(t *testing.T, provider *fakeQuoteProvider) (*Engine, *MemIndexRepository) {
	t.Helper()
	indexRepo := NewMemIndexRepository()
	indexes := NewIndexService(indexRepo, nil)
	treasury := NewTreasuryService(NewMemTreasuryRepository(), nil)
	return NewEngine(indexes, treasury, NewMarketData(provider)), indexRepo
}

func flatCloses(r date.Range, price float64) *date.History[float64] {
	h := new(date.History[float64])
	for d := range r.Days() {
		if d.IsBusinessDay() {
			h.Append(d, price)
		}
	}
	return h
}

func marketStock(id string) InstrumentConfig {
	return InstrumentConfig{InstrumentID: instStock, Name: "Petrobras", Symbol: id, Currency: BRL, Subclass: "acao", Indexer: IndexerMarket}
}

func TestDailyReturnsSingleBuyFlatPrice(t *testing.T) {
	week := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": flatCloses(week, 25)}}
	e, _ := newMarketEngine(t, provider)

	flows := []CashFlowEvent{buy(instStock, week.From, 40, 1000)}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4")}, week)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Daily) != 5 {
		t.Fatalf("got %d daily points, want 5", len(report.Daily))
	}
	for _, p := range report.Daily {
		if !almostEqual(p.TotalValue, 1000) {
			t.Errorf("%s: value = %v, want 1000", p.Date, p.TotalValue)
		}
		if !p.Return.Equal(0) {
			t.Errorf("%s: return = %v, want 0 on a flat price", p.Date, p.Return)
		}
	}
	last := report.Daily[len(report.Daily)-1]
	if !last.Cumulative.Equal(0) {
		t.Errorf("cumulative = %v, want 0", last.Cumulative)
	}
}

func TestDailyReturnsCashFlowNeutrality(t *testing.T) {
	week := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": flatCloses(week, 25)}}
	e, _ := newMarketEngine(t, provider)

	// A second buy at the going price moves money in, not returns.
	flows := []CashFlowEvent{
		buy(instStock, date.New(2025, time.June, 2), 40, 1000),
		buy(instStock, date.New(2025, time.June, 4), 20, 500),
	}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4")}, week)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range report.Daily {
		if !p.Return.Equal(0) {
			t.Errorf("%s: return = %v, want 0 (flows are not performance)", p.Date, p.Return)
		}
	}
	last := report.Daily[len(report.Daily)-1]
	if !almostEqual(last.TotalValue, 1500) {
		t.Errorf("final value = %v, want 1500", last.TotalValue)
	}
}

func TestDailyReturnsPriceMove(t *testing.T) {
	closes := new(date.History[float64]).
		Append(date.New(2025, time.June, 2), 25).
		Append(date.New(2025, time.June, 3), 26).
		Append(date.New(2025, time.June, 4), 24.7)
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": closes}}
	e, _ := newMarketEngine(t, provider)

	r := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 4))
	flows := []CashFlowEvent{buy(instStock, r.From, 40, 1000)}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4")}, r)
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Daily[1].Return; !got.Equal(4) {
		t.Errorf("day 2 return = %v, want +4%%", got)
	}
	if got := report.Daily[2].Return; !got.Equal(-5) {
		t.Errorf("day 3 return = %v, want -5%%", got)
	}
	// Cumulative compounds the daily factors.
	if got := report.Daily[2].Cumulative; !got.Equal(Percent((1.04*0.95 - 1) * 100)) {
		t.Errorf("cumulative = %v, want %v", got, (1.04*0.95-1)*100)
	}
	// And the month aggregates by compounding too.
	if len(report.Monthly) != 1 || !report.Monthly[0].Return.Equal(report.Daily[2].Cumulative) {
		t.Errorf("monthly = %+v, want one competence equal to the cumulative", report.Monthly)
	}
}

func TestDailyReturnsDividendCountsAsGain(t *testing.T) {
	week := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": flatCloses(week, 25)}}
	e, _ := newMarketEngine(t, provider)

	flows := []CashFlowEvent{
		buy(instStock, date.New(2025, time.June, 2), 40, 1000),
		dividend(instStock, date.New(2025, time.June, 4), 80),
	}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4")}, week)
	if err != nil {
		t.Fatal(err)
	}
	// Value holds at 1000 while R$80 left the instrument: that is a +8% day.
	var found bool
	for _, p := range report.Daily {
		if p.Date == date.New(2025, time.June, 4) {
			found = true
			if !p.Return.Equal(8) {
				t.Errorf("dividend day return = %v, want +8%%", p.Return)
			}
		}
	}
	if !found {
		t.Fatal("dividend day missing from the calendar")
	}
}

func TestDailyReturnsZeroBaseDay(t *testing.T) {
	week := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	closes := new(date.History[float64]).
		Append(date.New(2025, time.June, 4), 25).
		Append(date.New(2025, time.June, 5), 26)
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": closes}}
	e, _ := newMarketEngine(t, provider)

	// Nothing held until the buy mid-window: the days before are worth zero
	// and the first priced day reports a zero return, not a division blowup.
	flows := []CashFlowEvent{buy(instStock, date.New(2025, time.June, 4), 40, 1000)}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4")}, week)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range report.Daily {
		if p.Date.Before(date.New(2025, time.June, 4)) && p.TotalValue != 0 {
			t.Errorf("%s: value = %v before any position", p.Date, p.TotalValue)
		}
		if p.Date == date.New(2025, time.June, 4) && !p.Return.Equal(0) {
			t.Errorf("first positioned day return = %v, want 0 over a zero base", p.Return)
		}
	}
}

func TestDailyReturnsIndexLinkedCarry(t *testing.T) {
	week := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 6))
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": flatCloses(week, 25)}}
	e, indexRepo := newMarketEngine(t, provider)
	seedDailyRate(t, indexRepo, SeriesCDI, date.NewRange(date.New(2025, time.May, 1), week.To), 0.05)

	cdb := InstrumentConfig{InstrumentID: instCDB, Name: "CDB 100% CDI", Subclass: "cdb", Indexer: IndexerCDI}
	flows := []CashFlowEvent{
		buy(instStock, week.From, 40, 1000),
		buy(instCDB, date.New(2025, time.May, 15), 1, 1000), // bought before the window
	}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4"), cdb}, week)
	if err != nil {
		t.Fatal(err)
	}

	// The CDB accrued CDI from its buy through the eve of the window, and
	// keeps accruing daily inside it.
	cdbStart := 1000 * e.Indexes.Compound(SeriesCDI, date.New(2025, time.May, 15), week.From)
	if got := report.Daily[0].TotalValue; !almostEqual(got, 1000+cdbStart) {
		t.Errorf("first day value = %v, want %v", got, 1000+cdbStart)
	}
	// Tuesday's return is the CDB's daily accrual over the whole base.
	prev := report.Daily[0].TotalValue
	wantRet := Percent(100 * cdbStart * 0.0005 / prev)
	if got := report.Daily[1].Return; !got.Equal(wantRet) {
		t.Errorf("day 2 return = %v, want %v", got, wantRet)
	}
}

func TestDailyReturnsBreakdown(t *testing.T) {
	closes := new(date.History[float64]).
		Append(date.New(2025, time.June, 2), 25).
		Append(date.New(2025, time.June, 3), 27.5)
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": closes}}
	e, _ := newMarketEngine(t, provider)

	r := date.NewRange(date.New(2025, time.June, 2), date.New(2025, time.June, 3))
	flows := []CashFlowEvent{buy(instStock, r.From, 40, 1000)}
	report, err := e.DailyReturns(context.Background(), flows, []InstrumentConfig{marketStock("PETR4")}, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Breakdown) != 1 {
		t.Fatalf("breakdown rows = %d, want 1", len(report.Breakdown))
	}
	row := report.Breakdown[0]
	if row.Instrument != "Petrobras" || row.Subclass != "acao" {
		t.Errorf("row identity = %q/%q", row.Instrument, row.Subclass)
	}
	if !row.Return.Equal(10) {
		t.Errorf("instrument return = %v, want +10%%", row.Return)
	}
	if !almostEqual(row.BaseValue, 1000) {
		t.Errorf("base value = %v, want 1000", row.BaseValue)
	}
}

func TestEngineValueAtMarket(t *testing.T) {
	closes := new(date.History[float64]).
		Append(date.New(2025, time.June, 2), 25).
		Append(date.New(2025, time.June, 13), 28)
	provider := &fakeQuoteProvider{closes: map[string]*date.History[float64]{"PETR4": closes}}
	e, _ := newMarketEngine(t, provider)

	flows := []CashFlowEvent{
		buy(instStock, date.New(2025, time.June, 2), 40, 1000),
		sell(instStock, date.New(2025, time.June, 13), 10, 280),
	}
	// Saturday the 14th: the Friday close prices the remaining 30 shares.
	got := e.ValueAt(context.Background(), marketStock("PETR4"), flows, date.New(2025, time.June, 14))
	if !almostEqual(got, 30*28) {
		t.Errorf("ValueAt = %v, want 840", got)
	}
}

func TestMonthlyCompoundsNeverAverages(t *testing.T) {
	daily := []DailyValuationPoint{
		{Date: date.New(2025, time.June, 2), Return: 0},
		{Date: date.New(2025, time.June, 3), Return: 10},
		{Date: date.New(2025, time.June, 4), Return: -10},
		{Date: date.New(2025, time.July, 1), Return: 2},
	}
	monthly := CompoundMonthly(daily)
	if len(monthly) != 2 {
		t.Fatalf("got %d competences, want 2", len(monthly))
	}
	// 1.10 * 0.90 - 1 = -1%; the arithmetic mean would say 0.
	if !monthly[0].Return.Equal(-1) {
		t.Errorf("June = %v, want -1%%", monthly[0].Return)
	}
	if !monthly[1].Return.Equal(2) {
		t.Errorf("July = %v, want +2%%", monthly[1].Return)
	}
}
