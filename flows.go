package carteira

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira/date"
)

// FlowKind classifies a cash-flow event.
type FlowKind string

const (
	Buy             FlowKind = "buy"
	Sell            FlowKind = "sell"
	Dividend        FlowKind = "dividend" // dividends and JCP alike
	Bonus           FlowKind = "bonus"
	BonusAdjustment FlowKind = "bonus_adjustment"
	TransferIn      FlowKind = "transfer_in"
	TransferOut     FlowKind = "transfer_out"
)

// CashFlowEvent is one immutable row of the user's investment history,
// recorded by the entry/import subsystem and consumed read-only here.
//
// QuantityDelta and CashAmount are signed: buys and inbound transfers carry
// positive amounts (money moved into the instrument), sells, outbound
// transfers and dividend payouts carry negative amounts. Bonus events move
// quantity with no cash effect.
type CashFlowEvent struct {
	InstrumentID  uuid.UUID `json:"instrument_id"`
	Date          date.Date `json:"date"`
	Kind          FlowKind  `json:"kind"`
	QuantityDelta Quantity  `json:"quantity_delta"`
	CashAmount    Money     `json:"cash_amount"`
	UnitPrice     Money     `json:"unit_price"`
}

// IsValuable reports whether the event carries finite numbers. Malformed
// flows are skipped for valuation purposes rather than aborting a report.
func (e CashFlowEvent) IsValuable() bool {
	for _, v := range []float64{e.QuantityDelta.AsFloat(), e.CashAmount.AsFloat(), e.UnitPrice.AsFloat()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MovesCash reports whether the event's amount participates in the day's net
// external flow for the TWR computation.
func (e CashFlowEvent) MovesCash() bool {
	switch e.Kind {
	case Bonus, BonusAdjustment:
		return false
	default:
		return true
	}
}

// sortFlows orders events by ascending date, keeping same-day events in their
// recorded order so they apply as one batch before pricing that day.
func sortFlows(flows []CashFlowEvent) []CashFlowEvent {
	sorted := slices.Clone(flows)
	slices.SortStableFunc(sorted, func(a, b CashFlowEvent) int { return a.Date.Compare(b.Date) })
	return sorted
}

// groupByInstrument splits a user's flow history into per-instrument ordered
// series.
func groupByInstrument(flows []CashFlowEvent) map[uuid.UUID][]CashFlowEvent {
	grouped := make(map[uuid.UUID][]CashFlowEvent)
	for _, f := range sortFlows(flows) {
		grouped[f.InstrumentID] = append(grouped[f.InstrumentID], f)
	}
	return grouped
}

// flowsThrough returns the prefix of an ordered flow series with date <= day.
func flowsThrough(flows []CashFlowEvent, day date.Date) []CashFlowEvent {
	i := 0
	for i < len(flows) && !flows[i].Date.After(day) {
		i++
	}
	return flows[:i]
}
