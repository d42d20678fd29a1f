package renderer

import (
	"bytes"

	"github.com/lfpereira/carteira"
	md "github.com/nao1215/markdown"
)

// BreakdownMarkdown renders the per-instrument monthly returns, one section
// per competence, rows grouped by asset subclass.
func BreakdownMarkdown(r *carteira.ReturnReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Breakdown by Instrument")

	if len(r.Breakdown) == 0 {
		doc.PlainText("No instrument held in the requested window.")
		doc.Build()
		return buf.String()
	}

	// Rows arrive sorted by (month, subclass, instrument).
	var table md.TableSet
	var open bool
	var current string
	flush := func() {
		if open {
			doc.Table(table)
		}
	}
	for _, row := range r.Breakdown {
		if m := row.Month.String(); !open || m != current {
			flush()
			doc.H2(m)
			current, open = m, true
			table = md.TableSet{
				Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
				Header:    []string{"Subclass", "Instrument", "Return", "Base Value"},
			}
		}
		table.Rows = append(table.Rows, []string{
			row.Subclass,
			row.Instrument,
			row.Return.SignedString(),
			brl(row.BaseValue),
		})
	}
	flush()

	doc.Build()
	return buf.String()
}
