package carteira

import (
	"math"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL is the reporting currency of the engine. Instruments quoted in another
// currency are converted by the market data builder before valuation.
const BRL = "BRL"

// Money is an exact monetary amount in a single currency. Arithmetic is
// performed on decimals to keep cash-flow accounting free of float drift;
// conversion to float64 happens once, at the valuation boundary.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money from a float amount and a currency code.
func M(value float64, currency string) Money {
	return Money{value: decimal.NewFromFloat(value), cur: currency}
}

// MD builds a Money from an exact decimal amount.
func MD(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

func (m Money) Currency() string { return m.cur }
func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }
func (m Money) Neg() Money       { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money       { return Money{value: m.value.Abs(), cur: m.cur} }

func (m Money) Equal(n Money) bool    { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) LessThan(n Money) bool { return m.value.LessThan(n.value) }

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: mergeCur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: mergeCur(m, n)} }

// Mul returns the amount scaled by a quantity, e.g. price x position.
func (m Money) Mul(q Quantity) Money { return Money{value: m.value.Mul(q.value), cur: m.cur} }

// Div returns the amount divided by a quantity, e.g. cost basis per unit.
func (m Money) Div(q Quantity) Money { return Money{value: m.value.Div(q.value), cur: m.cur} }

// DivPrice returns the quantity implied by dividing an amount by a unit price.
func (m Money) DivPrice(price Money) Quantity { return Quantity{value: m.value.Div(price.value)} }

// AsFloat converts to float64 for factor math at the valuation boundary.
func (m Money) AsFloat() float64 { return m.value.InexactFloat64() }

// mergeCur resolves the currency of a binary operation; the empty currency is
// weak and adopts the other operand's.
func mergeCur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}

// String formats the amount with its currency conventions (e.g. R$1.234,56).
func (m Money) String() string {
	cur := m.cur
	if cur == "" {
		cur = BRL
	}
	c := gomoney.New(0, cur).Currency()
	units := m.value.Shift(int32(c.Fraction))
	return c.Formatter().Format(units.IntPart())
}

// snapZero returns 0 for values within floating noise of zero, so that an
// emptied portfolio does not produce spurious return spikes.
func snapZero(v float64) float64 {
	if math.Abs(v) < 1e-6 {
		return 0
	}
	return v
}
