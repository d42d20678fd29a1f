package carteira

import "github.com/shopspring/decimal"

// Quantity is an exact count of units or shares. Fractional quantities are
// common for Treasury bonds, where a buy is sized by cash amount over unit
// price.
type Quantity struct {
	value decimal.Decimal
}

// Q builds a Quantity from a float.
func Q(value float64) Quantity { return Quantity{value: decimal.NewFromFloat(value)} }

func (q Quantity) IsZero() bool     { return q.value.IsZero() }
func (q Quantity) IsNegative() bool { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool { return q.value.IsPositive() }

func (q Quantity) Equal(p Quantity) bool    { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool { return q.value.LessThan(p.value) }

func (q Quantity) Add(p Quantity) Quantity { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Neg() Quantity           { return Quantity{value: q.value.Neg()} }
func (q Quantity) Abs() Quantity           { return Quantity{value: q.value.Abs()} }

func (q Quantity) AsFloat() float64 { return q.value.InexactFloat64() }
func (q Quantity) String() string   { return q.value.String() }
