package carteira

import (
	"context"
	"log"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira/date"
)

// Engine reconstructs a portfolio's daily value series from its cash-flow
// history and derives cash-flow-neutral daily and monthly returns. It is the
// orchestrator over the index, treasury and market services; one Engine
// serves one process, each computation run keeps its own ephemeral state.
type Engine struct {
	Indexes     *IndexService
	Treasury    *TreasuryService
	Market      *MarketData
	FixedIncome *FixedIncomeModel
}

// NewEngine wires an Engine from its three data services.
func NewEngine(indexes *IndexService, treasury *TreasuryService, market *MarketData) *Engine {
	return &Engine{
		Indexes:     indexes,
		Treasury:    treasury,
		Market:      market,
		FixedIncome: &FixedIncomeModel{Indexes: indexes, Treasury: treasury},
	}
}

// positionState is the ephemeral per-instrument state of one computation
// run. It is advanced monotonically as the calendar walks forward and is
// never persisted.
type positionState struct {
	qty      Quantity
	cost     Money
	price    float64
	anchor   date.Date
	hasPrice bool
}

func (st *positionState) avgCost() float64 {
	if st.qty.IsZero() || !st.cost.IsPositive() {
		return 0
	}
	return st.cost.Div(st.qty).AsFloat()
}

// apply folds one cash-flow event into the position, with weighted-average-
// cost accounting. Sells larger than the position clamp quantity and basis
// to zero instead of letting negative amounts drift through the run.
func (e *Engine) apply(st *positionState, cfg InstrumentConfig, f CashFlowEvent) {
	if !f.IsValuable() {
		return
	}
	switch f.Kind {
	case Buy, TransferIn:
		st.qty = st.qty.Add(e.impliedQuantity(cfg, f))
		st.cost = st.cost.Add(f.CashAmount.Abs())
	case Sell, TransferOut:
		sold := e.impliedQuantity(cfg, f)
		if st.qty.LessThan(sold) {
			sold = st.qty
		}
		if !st.qty.IsZero() {
			st.cost = st.cost.Sub(st.cost.Mul(sold).Div(st.qty))
		}
		st.qty = st.qty.Sub(sold)
		if st.qty.IsNegative() {
			st.qty = Q(0)
		}
		if st.cost.IsNegative() {
			st.cost = M(0, st.cost.Currency())
		}
	case Bonus:
		st.qty = st.qty.Add(f.QuantityDelta.Abs())
	case BonusAdjustment:
		st.qty = st.qty.Sub(f.QuantityDelta.Abs())
		if st.qty.IsNegative() {
			st.qty = Q(0)
		}
	}
}

// impliedQuantity sizes a trading flow in units. For Treasury bonds the
// recorded quantity is recomputed from the cash amount over the published
// unit price, since imported rows frequently carry a quantity inconsistent
// with the day's mark. This mirrors the sizing the fixed-income model uses,
// so both paths agree on the position.
func (e *Engine) impliedQuantity(cfg InstrumentConfig, f CashFlowEvent) Quantity {
	if cfg.IsTreasury() && e.Treasury != nil {
		buying := f.Kind == Buy || f.Kind == TransferIn
		if price, ok := e.Treasury.PriceOnOrBefore(cfg.Name, f.Date, buying); ok && price > 0 {
			return f.CashAmount.Abs().DivPrice(M(price, f.CashAmount.Currency()))
		}
	}
	return f.QuantityDelta.Abs()
}

// DailyReturns runs one valuation over the report window and returns the
// daily series, the monthly compounded series and the per-instrument
// monthly breakdown. External data is refreshed best-effort first; the
// computation then proceeds on whatever is cached, degrading instrument by
// instrument rather than failing the report.
func (e *Engine) DailyReturns(ctx context.Context, flows []CashFlowEvent, configs []InstrumentConfig, r date.Range) (*ReturnReport, error) {
	cfgByID := make(map[uuid.UUID]InstrumentConfig, len(configs))
	for _, cfg := range configs {
		cfgByID[cfg.InstrumentID] = cfg
	}
	grouped := groupByInstrument(flows)

	e.ensureCoverage(ctx, grouped, cfgByID, r)
	prices := e.priceSeries(ctx, grouped, configs, cfgByID, r)
	calendar := e.calendar(grouped, prices, r)

	// Seed every instrument's state past its pre-window history.
	states := make(map[uuid.UUID]*positionState, len(grouped))
	for id, series := range grouped {
		states[id] = e.seed(cfgByID[id], series, prices[id], r.From)
	}

	report := &ReturnReport{}
	var prevTotal float64
	havePrev := false
	cumulative := 1.0

	instPrev := make(map[uuid.UUID]float64)
	type bdKey struct {
		ym date.YearMonth
		id uuid.UUID
	}
	bdBase := make(map[bdKey]float64)
	bdFactor := make(map[bdKey]float64)

	for _, day := range calendar {
		dayFlow := 0.0
		total := 0.0
		instFlow := make(map[uuid.UUID]float64)

		for id, series := range grouped {
			st := states[id]
			cfg := cfgByID[id]

			// 1. apply the day's flows as one batch before pricing.
			for _, f := range series {
				if f.Date != day {
					continue
				}
				e.apply(st, cfg, f)
				if f.IsValuable() && f.MovesCash() {
					amount := f.CashAmount.AsFloat()
					dayFlow += amount
					instFlow[id] += amount
				}
			}

			// 2-3. price the instrument and value the position.
			value := e.valueOn(st, cfg, prices[id], day)
			total += value

			// Per-instrument breakdown chaining.
			if prev, ok := instPrev[id]; ok && prev > 0 {
				ri := 100 * (value - prev - instFlow[id]) / prev
				key := bdKey{day.YearMonth(), id}
				if _, started := bdFactor[key]; !started {
					bdFactor[key] = 1
					bdBase[key] = prev
				}
				bdFactor[key] *= 1 + ri/100
			}
			instPrev[id] = value
		}

		total = snapZero(total)

		// 6. the day's cash-flow-neutral return.
		ret := 0.0
		if havePrev && prevTotal > 0 {
			ret = 100 * (total - prevTotal - dayFlow) / prevTotal
		}
		cumulative *= 1 + ret/100

		report.Daily = append(report.Daily, DailyValuationPoint{
			Date:       day,
			TotalValue: total,
			Return:     Percent(ret),
			Cumulative: Percent((cumulative - 1) * 100),
		})
		prevTotal, havePrev = total, true
	}

	report.Monthly = CompoundMonthly(report.Daily)
	for key, factor := range bdFactor {
		cfg := cfgByID[key.id]
		report.Breakdown = append(report.Breakdown, InstrumentMonthlyReturn{
			Month:      key.ym,
			Subclass:   cfg.Subclass,
			Instrument: cfg.Name,
			Return:     Percent((factor - 1) * 100),
			BaseValue:  bdBase[key],
		})
	}
	slices.SortFunc(report.Breakdown, func(a, b InstrumentMonthlyReturn) int {
		if a.Month != b.Month {
			if a.Month.Before(b.Month) {
				return -1
			}
			return +1
		}
		if c := strings.Compare(a.Subclass, b.Subclass); c != 0 {
			return c
		}
		return strings.Compare(a.Instrument, b.Instrument)
	})
	return report, nil
}

// Refresh backfills, best-effort, every external series the portfolio needs
// through the given day: reference rates per indexer in use and unit prices
// per Treasury bond. Reports call this implicitly; a standalone refresh is
// useful from cron, since the Tesouro Direto endpoint only publishes the
// current day's prices.
func (e *Engine) Refresh(ctx context.Context, flows []CashFlowEvent, configs []InstrumentConfig, through date.Date) {
	cfgByID := make(map[uuid.UUID]InstrumentConfig, len(configs))
	for _, cfg := range configs {
		cfgByID[cfg.InstrumentID] = cfg
	}
	grouped := groupByInstrument(flows)
	e.ensureCoverage(ctx, grouped, cfgByID, date.NewRange(through, through))
}

// ensureCoverage refreshes, best-effort, every external series the run will
// read: one index series per indexer in use and the unit prices of each
// Treasury bond from its first buy.
func (e *Engine) ensureCoverage(ctx context.Context, grouped map[uuid.UUID][]CashFlowEvent, cfgByID map[uuid.UUID]InstrumentConfig, r date.Range) {
	starts := make(map[IndexSeries]date.Date)
	need := func(series IndexSeries, from date.Date) {
		if cur, ok := starts[series]; !ok || from.Before(cur) {
			starts[series] = from
		}
	}
	for id, series := range grouped {
		if len(series) == 0 {
			continue
		}
		cfg := cfgByID[id]
		first := series[0].Date
		if cfg.IsTreasury() && e.Treasury != nil {
			if err := e.Treasury.EnsureUnitPrices(ctx, cfg.Name, first, r.To); err != nil {
				log.Printf("treasury %s: ensure failed: %v", cfg.Name, err)
			}
		}
		switch cfg.Indexer {
		case IndexerCDI:
			need(SeriesCDI, first)
		case IndexerSelic:
			need(SeriesSelic, first)
		case IndexerIPCA:
			need(SeriesIPCA, first)
		}
	}
	if e.Indexes == nil {
		return
	}
	for series, from := range starts {
		if err := e.Indexes.EnsureCoverage(ctx, series, from, r.To); err != nil {
			log.Printf("index %s: ensure failed: %v", series, err)
		}
	}
}

// priceSeries assembles the per-instrument daily price map: exchange closes
// from the market builder, and base unit prices for Treasury bonds, which
// behave like market-quoted instruments once their marks are cached.
func (e *Engine) priceSeries(ctx context.Context, grouped map[uuid.UUID][]CashFlowEvent, configs []InstrumentConfig, cfgByID map[uuid.UUID]InstrumentConfig, r date.Range) map[uuid.UUID]*date.History[float64] {
	prices := make(map[uuid.UUID]*date.History[float64])
	if e.Market != nil {
		built, err := e.Market.Build(ctx, configs, r)
		if err != nil {
			log.Printf("market data: partial build: %v", err)
		}
		for id, series := range built {
			prices[id] = series
		}
	}
	if e.Treasury == nil {
		return prices
	}
	for id := range grouped {
		cfg := cfgByID[id]
		if !cfg.IsTreasury() {
			continue
		}
		series := new(date.History[float64])
		for _, day := range e.Treasury.MarkDays(cfg.Name) {
			if base, ok := e.Treasury.PriceOnOrBefore(cfg.Name, day, false); ok {
				series.Append(day, base)
			}
		}
		if series.Len() > 0 {
			prices[id] = series
		}
	}
	return prices
}

// calendar is the sorted union of the report's first day, every in-window
// flow date, and every in-window day an instrument has a price. Days where
// nothing traded and nothing flowed are not fabricated.
func (e *Engine) calendar(grouped map[uuid.UUID][]CashFlowEvent, prices map[uuid.UUID]*date.History[float64], r date.Range) []date.Date {
	seen := map[date.Date]bool{r.From: true}
	for _, series := range grouped {
		for _, f := range series {
			if r.Contains(f.Date) {
				seen[f.Date] = true
			}
		}
	}
	for _, h := range prices {
		for day := range h.Days() {
			if r.Contains(day) {
				seen[day] = true
			}
		}
	}
	days := make([]date.Date, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	slices.SortFunc(days, date.Date.Compare)
	return days
}

// seed builds an instrument's initial state: the position after all flows
// strictly before the window, priced by the most recent known price before
// the first day, or by average cost when no price exists yet. For
// index-linked instruments the anchor stays on the last pre-window flow, so
// the first carry-forward covers the growth accrued before the window.
func (e *Engine) seed(cfg InstrumentConfig, series []CashFlowEvent, priceHistory *date.History[float64], first date.Date) *positionState {
	st := &positionState{cost: M(0, BRL)}
	var lastFlow date.Date
	for _, f := range series {
		if !f.Date.Before(first) {
			break
		}
		e.apply(st, cfg, f)
		lastFlow = f.Date
	}

	eve := first.Add(-1)
	if priceHistory != nil {
		if p, ok := priceHistory.ValueAsOf(eve); ok {
			st.price, st.anchor, st.hasPrice = p, eve, true
			return st
		}
	}
	if avg := st.avgCost(); avg > 0 {
		anchor := lastFlow
		if anchor.IsZero() {
			anchor = eve
		}
		st.price, st.anchor, st.hasPrice = avg, anchor, true
	}
	return st
}

// valueOn resolves the instrument's price for the day and values the
// position. Pricing order: today's close resets the anchor; an index-linked
// non-Treasury instrument carries its last price forward by the index
// factor; a positioned instrument with no price at all is worth its average
// cost; and with no information whatsoever the accumulated cost basis is the
// value.
func (e *Engine) valueOn(st *positionState, cfg InstrumentConfig, priceHistory *date.History[float64], day date.Date) float64 {
	if priceHistory != nil {
		if p, ok := priceHistory.Get(day); ok {
			st.price, st.anchor, st.hasPrice = p, day, true
			return snapZero(st.qty.AsFloat() * st.price)
		}
	}
	if st.hasPrice && cfg.IsIndexLinked() && !cfg.IsTreasury() {
		st.price *= e.FixedIncome.factor(cfg, st.anchor, day)
		st.anchor = day
		return snapZero(st.qty.AsFloat() * st.price)
	}
	if st.hasPrice {
		return snapZero(st.qty.AsFloat() * st.price)
	}
	if st.qty.IsPositive() {
		if avg := st.avgCost(); avg > 0 {
			return snapZero(st.qty.AsFloat() * avg)
		}
		return snapZero(st.cost.AsFloat())
	}
	return 0
}

// ValueAt values a single instrument at a target date outside of a series
// run: market- and Treasury-priced instruments by position times the latest
// known price, everything else through the fixed-income model.
func (e *Engine) ValueAt(ctx context.Context, cfg InstrumentConfig, flows []CashFlowEvent, target date.Date) float64 {
	flows = flowsThrough(sortFlows(flows), target)
	if cfg.HasMarketSymbol() && e.Market != nil {
		window := date.NewRange(target.AddMonths(-1), target)
		built, err := e.Market.Build(ctx, []InstrumentConfig{cfg}, window)
		if err != nil {
			log.Printf("market data: %s: %v", cfg.Symbol, err)
		}
		if h := built[cfg.InstrumentID]; h != nil {
			if p, ok := h.ValueAsOf(target); ok {
				st := &positionState{cost: M(0, BRL)}
				for _, f := range flows {
					e.apply(st, cfg, f)
				}
				return snapZero(st.qty.AsFloat() * p)
			}
		}
	}
	return e.FixedIncome.ValueAt(cfg, flows, target)
}
