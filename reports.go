package carteira

import (
	"github.com/lfpereira/carteira/date"
)

// DailyValuationPoint is one day of the reconstructed portfolio series: the
// total value, the cash-flow-neutral return of the day, and the compounded
// cumulative return since the start of the report.
type DailyValuationPoint struct {
	Date       date.Date `json:"date"`
	TotalValue float64   `json:"total_value"`
	Return     Percent   `json:"return_pct"`
	Cumulative Percent   `json:"cumulative_pct"`
}

// MonthlyReturnPoint is the compounded return of one competence.
type MonthlyReturnPoint struct {
	Month  date.YearMonth `json:"year_month"`
	Return Percent        `json:"return_pct"`
}

// InstrumentMonthlyReturn is one row of the per-instrument breakdown table:
// the instrument's own compounded return for the month and the value it
// started the month with.
type InstrumentMonthlyReturn struct {
	Month      date.YearMonth `json:"month"`
	Subclass   string         `json:"subclass"`
	Instrument string         `json:"instrument"`
	Return     Percent        `json:"return_pct"`
	BaseValue  float64        `json:"base_value"`
}

// ReturnReport is the full output of one valuation run.
type ReturnReport struct {
	Daily     []DailyValuationPoint
	Monthly   []MonthlyReturnPoint
	Breakdown []InstrumentMonthlyReturn
}

// CompoundMonthly aggregates daily returns into per-competence returns by
// compounding, never averaging: the month's return is the product of the
// daily growth factors minus one.
func CompoundMonthly(daily []DailyValuationPoint) []MonthlyReturnPoint {
	var monthly []MonthlyReturnPoint
	factor := 1.0
	var current date.YearMonth
	open := false

	flush := func() {
		if open {
			monthly = append(monthly, MonthlyReturnPoint{Month: current, Return: Percent((factor - 1) * 100)})
		}
	}
	for _, p := range daily {
		ym := p.Date.YearMonth()
		if !open || ym != current {
			flush()
			current, factor, open = ym, 1.0, true
		}
		factor *= 1 + float64(p.Return)/100
	}
	flush()
	return monthly
}
