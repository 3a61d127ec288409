package tensor

import "gonum.org/v1/gonum/floats"

// float64Raw is the double-precision storage, backed by gonum's floats
// kernels. Division by a zero element follows IEEE 754 and yields ±Inf or NaN.
type float64Raw []float64

func (r float64Raw) DType() DataType { return Float64 }

func (r float64Raw) Len() int { return len(r) }

func (r float64Raw) Clone() Raw {
	out := make(float64Raw, len(r))
	copy(out, r)
	return out
}

func (r float64Raw) Slice(lo, hi int) Raw { return r[lo:hi:hi] }

func (r float64Raw) Zero() {
	for i := range r {
		r[i] = 0
	}
}

func (r float64Raw) OneHot(index int) error {
	if err := checkIndex("one-hot", index, len(r)); err != nil {
		return err
	}
	r.Zero()
	r[index] = 1
	return nil
}

func (r float64Raw) TopIndex() int {
	if len(r) == 0 {
		return -1
	}
	return floats.MaxIdx(r)
}

func (r float64Raw) At(i int) Value { return Float64Value(r[i]) }

func (r float64Raw) Set(i int, v Value) error {
	if err := checkIndex("set", i, len(r)); err != nil {
		return err
	}
	c, err := v.Convert(Float64)
	if err != nil {
		return err
	}
	r[i] = c.f
	return nil
}

func (r float64Raw) Add(other Raw) error {
	if err := checkBinary("add", r, other); err != nil {
		return err
	}
	floats.Add(r, other.(float64Raw))
	return nil
}

func (r float64Raw) Sub(other Raw) error {
	if err := checkBinary("sub", r, other); err != nil {
		return err
	}
	floats.Sub(r, other.(float64Raw))
	return nil
}

func (r float64Raw) Mul(other Raw) error {
	if err := checkBinary("mul", r, other); err != nil {
		return err
	}
	floats.Mul(r, other.(float64Raw))
	return nil
}

func (r float64Raw) Div(other Raw) error {
	if err := checkBinary("div", r, other); err != nil {
		return err
	}
	floats.Div(r, other.(float64Raw))
	return nil
}

func (r float64Raw) Scale(s float64) error {
	floats.Scale(s, r)
	return nil
}

func (r float64Raw) Sum() Value { return Float64Value(floats.Sum(r)) }

func (r float64Raw) Dot(other Raw) (Value, error) {
	if err := checkBinary("dot", r, other); err != nil {
		return Value{}, err
	}
	return Float64Value(floats.Dot(r, other.(float64Raw))), nil
}
