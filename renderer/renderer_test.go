package renderer

import (
	"strings"
	"testing"

	"github.com/lfpereira/carteira"
	"github.com/lfpereira/carteira/date"
)

func sampleReport() *carteira.ReturnReport {
	return &carteira.ReturnReport{
		Daily: []carteira.DailyValuationPoint{
			{Date: date.New(2025, 6, 2), TotalValue: 1000, Return: 0, Cumulative: 0},
			{Date: date.New(2025, 6, 3), TotalValue: 1010, Return: 1, Cumulative: 1},
		},
		Monthly: []carteira.MonthlyReturnPoint{
			{Month: date.YearMonth{Year: 2025, Month: 6}, Return: 1},
		},
		Breakdown: []carteira.InstrumentMonthlyReturn{
			{Month: date.YearMonth{Year: 2025, Month: 6}, Subclass: "cdb", Instrument: "CDB Banco X", Return: 1, BaseValue: 1000},
		},
	}
}

func TestReturnsMarkdown(t *testing.T) {
	out := ReturnsMarkdown(sampleReport())
	for _, want := range []string{"Daily Returns", "2025-06-03", "+1.00%", "Cumulative"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMonthlyMarkdownCompoundsTotal(t *testing.T) {
	r := sampleReport()
	r.Monthly = append(r.Monthly, carteira.MonthlyReturnPoint{Month: date.YearMonth{Year: 2025, Month: 7}, Return: 2})
	out := MonthlyMarkdown(r)
	// (1.01 * 1.02 - 1) * 100 = 3.02
	if !strings.Contains(out, "+3.02%") {
		t.Errorf("period total not compounded:\n%s", out)
	}
	if !strings.Contains(out, "2025-07") {
		t.Errorf("missing competence row:\n%s", out)
	}
}

func TestBreakdownMarkdownGroupsByMonth(t *testing.T) {
	r := sampleReport()
	r.Breakdown = append(r.Breakdown, carteira.InstrumentMonthlyReturn{
		Month: date.YearMonth{Year: 2025, Month: 7}, Subclass: "acao", Instrument: "PETR4", Return: -2, BaseValue: 500,
	})
	out := BreakdownMarkdown(r)
	if strings.Index(out, "2025-06") > strings.Index(out, "2025-07") {
		t.Errorf("months out of order:\n%s", out)
	}
	for _, want := range []string{"PETR4", "CDB Banco X", "-2.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	out := ReturnsMarkdown(&carteira.ReturnReport{})
	if !strings.Contains(out, "No valuation days") {
		t.Errorf("unexpected empty rendering:\n%s", out)
	}
}
