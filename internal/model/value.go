package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SentinelText is how the source form marks a cell as not applicable.
const SentinelText = "x"

// Value is one monetary cell. NA marks the "not applicable" sentinel, which
// is distinct from zero and never takes part in a sum.
type Value struct {
	Amount decimal.Decimal
	NA     bool
}

// NotApplicable is the sentinel value.
var NotApplicable = Value{NA: true}

// NewValue wraps a decimal amount.
func NewValue(d decimal.Decimal) Value {
	return Value{Amount: d}
}

// NewValueFromFloat wraps a float amount. Intended for tests and literals.
func NewValueFromFloat(f float64) Value {
	return Value{Amount: decimal.NewFromFloat(f)}
}

// ParseValue parses a cell as written in CSV files: "x" is the sentinel,
// an empty cell is zero.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, SentinelText) {
		return NotApplicable, nil
	}
	if s == "" {
		return Value{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return Value{}, fmt.Errorf("parsing value %q: %w", s, err)
	}
	return Value{Amount: d}, nil
}

// OrZero returns the amount, or zero for the sentinel.
func (v Value) OrZero() decimal.Decimal {
	if v.NA {
		return decimal.Zero
	}
	return v.Amount
}

// Equal reports whether two values are the same sentinel state and amount.
func (v Value) Equal(o Value) bool {
	if v.NA || o.NA {
		return v.NA == o.NA
	}
	return v.Amount.Equal(o.Amount)
}

// Neg negates the amount; the sentinel stays the sentinel.
func (v Value) Neg() Value {
	if v.NA {
		return v
	}
	return Value{Amount: v.Amount.Neg()}
}

func (v Value) String() string {
	if v.NA {
		return SentinelText
	}
	return v.Amount.String()
}

// Vector maps a column name to its value. A column missing from the map
// reads as the sentinel.
type Vector map[string]Value

// Get returns the value for column, or the sentinel if absent.
func (vec Vector) Get(column string) Value {
	v, ok := vec[column]
	if !ok {
		return NotApplicable
	}
	return v
}

// Lookup returns the value for column and whether it was present.
func (vec Vector) Lookup(column string) (Value, bool) {
	v, ok := vec[column]
	return v, ok
}

// Clone returns an independent copy.
func (vec Vector) Clone() Vector {
	if vec == nil {
		return nil
	}
	out := make(Vector, len(vec))
	for k, v := range vec {
		out[k] = v
	}
	return out
}

// Sum adds vals, skipping sentinels. The result is the sentinel only when
// every input is the sentinel (or there are no inputs).
func Sum(vals ...Value) Value {
	total := decimal.Zero
	seen := false
	for _, v := range vals {
		if v.NA {
			continue
		}
		total = total.Add(v.Amount)
		seen = true
	}
	if !seen {
		return NotApplicable
	}
	return Value{Amount: total}
}
