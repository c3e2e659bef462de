package models

import (
	"github.com/shopspring/decimal"
)

// Numeric is a two-place fixed point value stored as numeric(10,2) and
// encoded on the wire as a quoted decimal string ("15.00").
type Numeric struct {
	decimal.Decimal
}

func NewNumeric(d decimal.Decimal) Numeric {
	return Numeric{d.Round(2)}
}

func NumericFromInt(v int64) Numeric {
	return Numeric{decimal.NewFromInt(v)}
}

func ParseNumeric(s string) (Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Numeric{}, err
	}
	return NewNumeric(d), nil
}

func MustNumeric(s string) Numeric {
	n, err := ParseNumeric(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Numeric) Add(o Numeric) Numeric {
	return NewNumeric(n.Decimal.Add(o.Decimal))
}

func (n Numeric) Sub(o Numeric) Numeric {
	return NewNumeric(n.Decimal.Sub(o.Decimal))
}

func (n Numeric) Neg() Numeric {
	if n.Decimal.IsZero() {
		return n
	}
	return Numeric{n.Decimal.Neg()}
}

func (n Numeric) Cmp(o Numeric) int {
	return n.Decimal.Cmp(o.Decimal)
}

func (n Numeric) LessThan(o Numeric) bool {
	return n.Decimal.LessThan(o.Decimal)
}

func (n Numeric) GreaterThan(o Numeric) bool {
	return n.Decimal.GreaterThan(o.Decimal)
}

func (n Numeric) Equal(o Numeric) bool {
	return n.Decimal.Equal(o.Decimal)
}

func (n Numeric) String() string {
	return n.Decimal.StringFixed(2)
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	return []byte(`"` + n.String() + `"`), nil
}
