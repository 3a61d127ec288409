package tensor

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// decimalRaw is the arbitrary-precision storage. Every element is a distinct
// *apd.Decimal owned by the storage; views created by Slice share them.
//
// Addition, subtraction and multiplication are exact up to DecimalPrecision
// significant digits. Division rounds half-down at DecimalPrecision digits and
// fails with ErrDivisionByZero on a zero divisor, since decimals have no
// infinity or NaN to propagate.
type decimalRaw []*apd.Decimal

func (r decimalRaw) DType() DataType { return Decimal }

func (r decimalRaw) Len() int { return len(r) }

func (r decimalRaw) Clone() Raw {
	out := make(decimalRaw, len(r))
	for i, d := range r {
		out[i] = new(apd.Decimal).Set(d)
	}
	return out
}

func (r decimalRaw) Slice(lo, hi int) Raw { return r[lo:hi:hi] }

func (r decimalRaw) Zero() {
	for i := range r {
		if r[i] == nil {
			r[i] = decimalZero()
			continue
		}
		r[i].SetInt64(0)
	}
}

func (r decimalRaw) OneHot(index int) error {
	if err := checkIndex("one-hot", index, len(r)); err != nil {
		return err
	}
	r.Zero()
	r[index].SetInt64(1)
	return nil
}

func (r decimalRaw) TopIndex() int {
	if len(r) == 0 {
		return -1
	}
	top := 0
	for i := 1; i < len(r); i++ {
		if r[i].Cmp(r[top]) > 0 {
			top = i
		}
	}
	return top
}

func (r decimalRaw) At(i int) Value { return DecimalValue(r[i]) }

func (r decimalRaw) Set(i int, v Value) error {
	if err := checkIndex("set", i, len(r)); err != nil {
		return err
	}
	d, err := v.Decimal()
	if err != nil {
		return err
	}
	r[i] = d
	return nil
}

// apply runs a context operation element-wise, storing into the receiver.
func (r decimalRaw) apply(op string, other Raw, fn func(d, x, y *apd.Decimal) (apd.Condition, error)) error {
	if err := checkBinary(op, r, other); err != nil {
		return err
	}
	o := other.(decimalRaw)
	for i := range r {
		if _, err := fn(r[i], r[i], o[i]); err != nil {
			return fmt.Errorf("%s element %d: %w", op, i, err)
		}
	}
	return nil
}

func (r decimalRaw) Add(other Raw) error { return r.apply("add", other, decimalCtx.Add) }

func (r decimalRaw) Sub(other Raw) error { return r.apply("sub", other, decimalCtx.Sub) }

func (r decimalRaw) Mul(other Raw) error { return r.apply("mul", other, decimalCtx.Mul) }

func (r decimalRaw) Div(other Raw) error {
	if err := checkBinary("div", r, other); err != nil {
		return err
	}
	for i, d := range other.(decimalRaw) {
		if d.IsZero() {
			return fmt.Errorf("div element %d: %w", i, ErrDivisionByZero)
		}
	}
	return r.apply("div", other, decimalCtx.Quo)
}

func (r decimalRaw) Scale(s float64) error {
	k, err := DecimalFromFloat(s, 64)
	if err != nil {
		return err
	}
	return r.ScaleDecimal(k)
}

// ScaleDecimal multiplies every element by k without any float conversion.
func (r decimalRaw) ScaleDecimal(k *apd.Decimal) error {
	for i := range r {
		if _, err := decimalCtx.Mul(r[i], r[i], k); err != nil {
			return fmt.Errorf("scale element %d: %w", i, err)
		}
	}
	return nil
}

func (r decimalRaw) Sum() Value {
	sum := decimalZero()
	for _, d := range r {
		_, _ = decimalCtx.Add(sum, sum, d) // fails only on exponent overflow
	}
	return Value{dtype: Decimal, d: sum}
}

func (r decimalRaw) Dot(other Raw) (Value, error) {
	if err := checkBinary("dot", r, other); err != nil {
		return Value{}, err
	}
	o := other.(decimalRaw)
	sum := decimalZero()
	var term apd.Decimal
	for i := range r {
		if _, err := decimalCtx.Mul(&term, r[i], o[i]); err != nil {
			return Value{}, fmt.Errorf("dot element %d: %w", i, err)
		}
		if _, err := decimalCtx.Add(sum, sum, &term); err != nil {
			return Value{}, fmt.Errorf("dot element %d: %w", i, err)
		}
	}
	return Value{dtype: Decimal, d: sum}, nil
}
