package carteira

import (
	"math"

	"github.com/lfpereira/carteira/date"
)

// FixedIncomeModel values an instrument at an arbitrary date from its
// configuration and ordered cash flows. Treasury bonds are valued by unit
// count times the published base price; everything else by growing a running
// balance with the compounding factor of its indexer, with semi-annual
// come-cotas withholding when configured.
type FixedIncomeModel struct {
	Indexes  *IndexService
	Treasury *TreasuryService
}

// ValueAt computes the instrument's value at target. Flows dated after
// target must not be passed in. The result degrades, never panics: with no
// usable price or rate data the flows simply accumulate, and a zero or
// non-finite balance over non-empty flows falls back to the net invested sum.
func (m *FixedIncomeModel) ValueAt(cfg InstrumentConfig, flows []CashFlowEvent, target date.Date) float64 {
	if cfg.ManualValue != nil {
		return *cfg.ManualValue
	}

	if cfg.IsTreasury() && m.Treasury != nil && m.Treasury.HasMarks(cfg.Name) {
		if v, ok := m.treasuryValue(cfg, flows, target); ok {
			return v
		}
	}

	S := 0.0
	taxRef := 0.0
	var prev date.Date
	hasFlows := false
	for _, f := range flows {
		if !f.IsValuable() {
			continue
		}
		hasFlows = true
		if S != 0 && !prev.IsZero() {
			S, taxRef = m.grow(cfg, S, prev, f.Date, taxRef)
		}
		S += f.CashAmount.AsFloat()
		taxRef = S
		prev = f.Date
	}
	if S != 0 && !prev.IsZero() {
		S, _ = m.grow(cfg, S, prev, target, taxRef)
	}

	if hasFlows && (S == 0 || math.IsNaN(S) || math.IsInf(S, 0)) {
		return m.netInvested(flows)
	}
	return S
}

// netInvested is the degraded-but-safe valuation: the plain sum of signed
// flow amounts.
func (m *FixedIncomeModel) netInvested(flows []CashFlowEvent) float64 {
	total := 0.0
	for _, f := range flows {
		if !f.IsValuable() {
			continue
		}
		total += f.CashAmount.AsFloat()
	}
	return total
}

// treasuryValue converts each trading flow into a signed unit count and
// multiplies the accumulated units by the base price at target. Buys are
// sized by the purchase price when one is published; sells and the final
// stock always use the base mark. The unit count is derived from the cash
// amount rather than the recorded quantity, which import paths get wrong
// more often than the amount.
func (m *FixedIncomeModel) treasuryValue(cfg InstrumentConfig, flows []CashFlowEvent, target date.Date) (float64, bool) {
	units := 0.0
	priced := false
	for _, f := range flows {
		if !f.IsValuable() {
			continue
		}
		switch f.Kind {
		case Buy, TransferIn:
			price, ok := m.Treasury.PriceOnOrBefore(cfg.Name, f.Date, true)
			if !ok {
				units += f.QuantityDelta.AsFloat()
				continue
			}
			priced = true
			units += math.Abs(f.CashAmount.AsFloat()) / price
		case Sell, TransferOut:
			price, ok := m.Treasury.PriceOnOrBefore(cfg.Name, f.Date, false)
			if !ok {
				units += f.QuantityDelta.AsFloat() // delta is negative on sells
			} else {
				priced = true
				units -= math.Abs(f.CashAmount.AsFloat()) / price
			}
			if units < 0 {
				units = 0
			}
		}
	}
	if !priced {
		return 0, false
	}
	base, ok := m.Treasury.PriceOnOrBefore(cfg.Name, target, false)
	if !ok {
		return 0, false
	}
	return units * base, true
}

// grow compounds a balance from one date to the next, splitting at each
// intervening come-cotas date when the instrument has periodic withholding.
// taxRef is the balance at the later of the last tax event and the last
// flow; the tax due at an event is the withholding rate applied to the gain
// since that reference.
func (m *FixedIncomeModel) grow(cfg InstrumentConfig, S float64, from, to date.Date, taxRef float64) (float64, float64) {
	if !to.After(from) {
		return S, taxRef
	}
	if cfg.PeriodicTax && cfg.TaxRate > 0 {
		for _, event := range date.SemiannualTaxDates(from, to) {
			S *= m.factor(cfg, from, event)
			if gain := S - taxRef; gain > 0 {
				S -= cfg.TaxRate / 100 * gain
			}
			taxRef = S
			from = event
		}
	}
	S *= m.factor(cfg, from, to)
	return S, taxRef
}

// factor returns the growth factor of the instrument's indexer over
// (from, to]. An unknown or blank indexer yields 1, so flows accumulate as a
// plain cash balance.
func (m *FixedIncomeModel) factor(cfg InstrumentConfig, from, to date.Date) float64 {
	switch cfg.Indexer {
	case IndexerPre:
		return preFactor(cfg.Rate, cfg.DayCountBasis(), from, to)
	case IndexerCDI:
		product := m.Indexes.Compound(SeriesCDI, from, to)
		pct := cfg.PercentOf
		if pct == 0 {
			pct = 100
		}
		return math.Pow(product, pct/100)
	case IndexerSelic:
		return m.Indexes.Compound(SeriesSelic, from, to)
	case IndexerIPCA:
		return m.Indexes.Compound(SeriesIPCA, from, to) * preFactor(cfg.Rate, cfg.DayCountBasis(), from, to)
	default:
		return 1
	}
}

// preFactor annualizes a fixed rate into a compounding factor over the
// business days of (from, to], on the instrument's day-count basis.
func preFactor(rate float64, basis int, from, to date.Date) float64 {
	days := date.BusinessDaysBetween(from, to)
	if days <= 0 {
		return 1
	}
	return math.Pow(1+rate/100, float64(days)/float64(basis))
}
