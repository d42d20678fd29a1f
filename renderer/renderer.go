// Package renderer turns valuation reports into markdown, suitable for a
// terminal (through glamour) or for pasting into notes.
package renderer

import (
	"github.com/lfpereira/carteira"
)

// brl formats a portfolio value for display. Values are always reported in
// the portfolio's base currency.
func brl(v float64) string {
	return carteira.M(v, carteira.BRL).String()
}
