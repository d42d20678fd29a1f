package carteira

import "fmt"

// Percent is a return or rate expressed in percentage points (1.5 means 1.5%).
type Percent float64

// Equal compares percentages with the precision meaningful for returns.
func (p Percent) Equal(q Percent) bool {
	const precision = 0.0001
	diff := float64(p - q)
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string { return fmt.Sprintf("%.2f%%", float64(p)) }

// SignedString renders with an explicit sign, and "-" for a flat value.
func (p Percent) SignedString() string {
	s := fmt.Sprintf("%+.2f%%", float64(p))
	if s == "+0.00%" {
		return "-"
	}
	return s
}
