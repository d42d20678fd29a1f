package renderer

import (
	"bytes"

	"github.com/lfpereira/carteira"
	md "github.com/nao1215/markdown"
)

// ReturnsMarkdown renders the daily valuation series: one row per day with
// the portfolio value, the day's cash-flow-neutral return, and the cumulative
// return since the start of the window.
func ReturnsMarkdown(r *carteira.ReturnReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Daily Returns")

	if len(r.Daily) == 0 {
		doc.PlainText("No valuation days in the requested window.")
		doc.Build()
		return buf.String()
	}

	last := r.Daily[len(r.Daily)-1]
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Value at Close"),
			md.Bold(brl(last.TotalValue)),
		},
		Rows: [][]string{
			{"Cumulative Return", last.Cumulative.SignedString()},
		},
	})

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Value", "Day", "Cumulative"},
	}
	for _, p := range r.Daily {
		table.Rows = append(table.Rows, []string{
			p.Date.String(),
			brl(p.TotalValue),
			p.Return.SignedString(),
			p.Cumulative.SignedString(),
		})
	}
	doc.Table(table)

	doc.Build()
	return buf.String()
}

// MonthlyMarkdown renders the per-competence compounded returns.
func MonthlyMarkdown(r *carteira.ReturnReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Monthly Returns")

	if len(r.Monthly) == 0 {
		doc.PlainText("No complete competence in the requested window.")
		doc.Build()
		return buf.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Month", "Return"},
	}
	factor := 1.0
	for _, p := range r.Monthly {
		factor *= 1 + float64(p.Return)/100
		table.Rows = append(table.Rows, []string{p.Month.String(), p.Return.SignedString()})
	}
	doc.Table(table)

	cumulative := carteira.Percent((factor - 1) * 100)
	doc.PlainText(md.Bold("Period total: " + cumulative.SignedString()))

	doc.Build()
	return buf.String()
}
