package tensor

// float32Raw is the single-precision storage. Division by a zero element
// follows IEEE 754 and yields ±Inf or NaN.
type float32Raw []float32

func (r float32Raw) DType() DataType { return Float32 }

func (r float32Raw) Len() int { return len(r) }

func (r float32Raw) Clone() Raw {
	out := make(float32Raw, len(r))
	copy(out, r)
	return out
}

func (r float32Raw) Slice(lo, hi int) Raw { return r[lo:hi:hi] }

func (r float32Raw) Zero() {
	for i := range r {
		r[i] = 0
	}
}

func (r float32Raw) OneHot(index int) error {
	if err := checkIndex("one-hot", index, len(r)); err != nil {
		return err
	}
	r.Zero()
	r[index] = 1
	return nil
}

func (r float32Raw) TopIndex() int {
	if len(r) == 0 {
		return -1
	}
	top := 0
	for i := 1; i < len(r); i++ {
		if r[i] > r[top] {
			top = i
		}
	}
	return top
}

func (r float32Raw) At(i int) Value { return Float32Value(r[i]) }

func (r float32Raw) Set(i int, v Value) error {
	if err := checkIndex("set", i, len(r)); err != nil {
		return err
	}
	c, err := v.Convert(Float32)
	if err != nil {
		return err
	}
	r[i] = float32(c.f)
	return nil
}

func (r float32Raw) Add(other Raw) error {
	if err := checkBinary("add", r, other); err != nil {
		return err
	}
	o := other.(float32Raw)
	for i := range r {
		r[i] += o[i]
	}
	return nil
}

func (r float32Raw) Sub(other Raw) error {
	if err := checkBinary("sub", r, other); err != nil {
		return err
	}
	o := other.(float32Raw)
	for i := range r {
		r[i] -= o[i]
	}
	return nil
}

func (r float32Raw) Mul(other Raw) error {
	if err := checkBinary("mul", r, other); err != nil {
		return err
	}
	o := other.(float32Raw)
	for i := range r {
		r[i] *= o[i]
	}
	return nil
}

func (r float32Raw) Div(other Raw) error {
	if err := checkBinary("div", r, other); err != nil {
		return err
	}
	o := other.(float32Raw)
	for i := range r {
		r[i] /= o[i]
	}
	return nil
}

func (r float32Raw) Scale(s float64) error {
	f, err := narrowFloat32(s)
	if err != nil {
		return err
	}
	for i := range r {
		r[i] *= f
	}
	return nil
}

func (r float32Raw) Sum() Value {
	var sum float32
	for _, v := range r {
		sum += v
	}
	return Float32Value(sum)
}

func (r float32Raw) Dot(other Raw) (Value, error) {
	if err := checkBinary("dot", r, other); err != nil {
		return Value{}, err
	}
	o := other.(float32Raw)
	var sum float32
	for i := range r {
		sum += r[i] * o[i]
	}
	return Float32Value(sum), nil
}
