package pricer

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency of a ledger that does not specify one.
const DefaultCurrency = "USD"

// Money represents a monetary value: a per-share price, a cost basis, or a
// total such as a gain. Arithmetic is exact.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M creates Money in the given currency.
func M[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// ParseMoney parses a decimal amount in the given currency.
func ParseMoney(s, currency string) (Money, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{value: v, cur: currency}, nil
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	code := m.cur
	if code == "" {
		code = DefaultCurrency
	}
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, code).Currency()
}

// String returns the string representation of the money value, rounded to
// the currency's fraction (e.g. "$1,234.50").
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.Round(int32(m.currency().Fraction)).IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Currency() string               { return m.cur }
func (m Money) Equal(n Money) bool             { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                   { return m.value.IsZero() }
func (m Money) IsPositive() bool               { return m.value.IsPositive() }
func (m Money) IsNegative() bool               { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool          { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool       { return m.value.GreaterThan(n.value) }
func (m Money) Neg() Money                     { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money           { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money           { return Money{value: m.value.Div(n.value), cur: m.cur} }
func (m Money) Decimal() decimal.Decimal       { return m.value }
func (m Money) Round(places int32) Money       { return Money{value: m.value.Round(places), cur: m.cur} }
func (m Money) WithCurrency(cur string) Money  { return Money{value: m.value, cur: cur} }
func (m Money) Cmp(n Money) int                { return m.value.Cmp(n.value) }
func (m Money) Float64() float64               { return m.value.InexactFloat64() }
func (m Money) Ratio(n Money) decimal.Decimal  { return m.value.Div(n.value) }
func (m Money) Amount() string                 { return m.value.String() }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch" + A.cur + "!=" + B.cur)
	}
	return A.cur
}
