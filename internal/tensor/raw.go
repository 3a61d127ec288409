package tensor

import "fmt"

// Raw is the low-level storage of one numeric representation.
//
// Raw operations mutate the receiver in place; the Vector and Matrix facades
// copy before calling them so that their own API stays pure. Binary
// operations require both operands to share the representation and the
// length, and fail with a *ShapeError (or ErrDTypeMismatch) otherwise.
type Raw interface {
	// DType returns the storage representation.
	DType() DataType

	// Len returns the number of elements.
	Len() int

	// Clone returns a deep copy that shares nothing with the receiver.
	Clone() Raw

	// Slice returns a view over elements [lo, hi) sharing the receiver's memory.
	Slice(lo, hi int) Raw

	// Zero sets every element to the representation's zero.
	Zero()

	// OneHot sets element index to one and every other element to zero.
	OneHot(index int) error

	// TopIndex returns the index of the first maximum element, or -1 when empty.
	TopIndex() int

	// At returns element i.
	At(i int) Value

	// Set stores v at element i, converting it to the storage representation.
	Set(i int, v Value) error

	// Add, Sub, Mul and Div apply the element-wise operation with other.
	Add(other Raw) error
	Sub(other Raw) error
	Mul(other Raw) error
	Div(other Raw) error

	// Scale multiplies every element by s.
	Scale(s float64) error

	// Sum returns the reduction sum of all elements.
	Sum() Value

	// Dot returns the linear combination sum(a[i]*b[i]). Lengths must match.
	Dot(other Raw) (Value, error)
}

// NewRaw allocates a zero-filled storage of n elements.
func NewRaw(dt DataType, n int) (Raw, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid length %d (must be >= 0)", n)
	}
	switch dt {
	case Float32:
		return make(float32Raw, n), nil
	case Float64:
		return make(float64Raw, n), nil
	case Decimal:
		r := make(decimalRaw, n)
		r.Zero()
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, int(dt))
	}
}

// RawFromFloat64s builds a storage holding values converted to dt.
func RawFromFloat64s(dt DataType, values []float64) (Raw, error) {
	r, err := NewRaw(dt, len(values))
	if err != nil {
		return nil, err
	}
	for i, f := range values {
		if err := r.Set(i, Float64Value(f)); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return r, nil
}

// RawFromStrings parses decimal literals into a storage of representation dt.
// Float representations parse the text directly; Decimal keeps every digit.
func RawFromStrings(dt DataType, values []string) (Raw, error) {
	r, err := NewRaw(dt, len(values))
	if err != nil {
		return nil, err
	}
	for i, s := range values {
		d, err := ParseDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err := r.Set(i, DecimalValue(d)); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return r, nil
}

// Convert copies r into representation dt. Values that do not fit the
// target range fail with ErrOverflow instead of saturating.
func Convert(r Raw, dt DataType) (Raw, error) {
	if r.DType() == dt {
		return r.Clone(), nil
	}
	out, err := NewRaw(dt, r.Len())
	if err != nil {
		return nil, err
	}
	for i := 0; i < r.Len(); i++ {
		if err := out.Set(i, r.At(i)); err != nil {
			return nil, fmt.Errorf("convert element %d to %s: %w", i, dt, err)
		}
	}
	return out, nil
}

// Strings formats every element in its representation's canonical text.
func Strings(r Raw) []string {
	out := make([]string, r.Len())
	for i := range out {
		out[i] = r.At(i).String()
	}
	return out
}

func checkIndex(op string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%s: %w: %d (length %d)", op, ErrIndexOutOfRange, i, n)
	}
	return nil
}
