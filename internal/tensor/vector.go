package tensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Vector is an n-dimensional vector with value semantics.
//
// Every arithmetic method returns a new Vector and leaves both operands
// untouched, so vectors retained by back-propagation (per-layer activations
// and aggregations) are never corrupted by later arithmetic. The only
// mutating method is AddInPlace, reserved for accumulators owned by a single
// goroutine.
type Vector struct {
	raw Raw
}

// NewVector allocates a zero vector of dimension n.
func NewVector(dt DataType, n int) (Vector, error) {
	r, err := NewRaw(dt, n)
	if err != nil {
		return Vector{}, err
	}
	return Vector{raw: r}, nil
}

// VectorOf builds a vector from float64 components converted to dt.
func VectorOf(dt DataType, values ...float64) (Vector, error) {
	r, err := RawFromFloat64s(dt, values)
	if err != nil {
		return Vector{}, err
	}
	return Vector{raw: r}, nil
}

// ParseVector builds a vector from decimal literals. Decimal vectors keep
// every digit of the text.
func ParseVector(dt DataType, values ...string) (Vector, error) {
	r, err := RawFromStrings(dt, values)
	if err != nil {
		return Vector{}, err
	}
	return Vector{raw: r}, nil
}

// WrapRaw adopts r as the storage of a vector. The caller gives up ownership.
func WrapRaw(r Raw) Vector { return Vector{raw: r} }

// OneHot returns a vector of dimension n whose component index is one and
// every other component zero.
func OneHot(dt DataType, index, n int) (Vector, error) {
	v, err := NewVector(dt, n)
	if err != nil {
		return Vector{}, err
	}
	if err := v.raw.OneHot(index); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// Dim returns the vector dimension.
func (v Vector) Dim() int {
	if v.raw == nil {
		return 0
	}
	return v.raw.Len()
}

// DType returns the vector representation.
func (v Vector) DType() DataType {
	if v.raw == nil {
		return Float32
	}
	return v.raw.DType()
}

// Shape returns {Dim()}.
func (v Vector) Shape() Shape { return Shape{v.Dim()} }

// Raw returns the backing storage. Mutating it breaks value semantics.
func (v Vector) Raw() Raw { return v.raw }

// Copy returns a deep copy.
func (v Vector) Copy() Vector {
	if v.raw == nil {
		return v
	}
	return Vector{raw: v.raw.Clone()}
}

// At returns component i.
func (v Vector) At(i int) Value { return v.raw.At(i) }

// TopIndex returns the index of the largest component, -1 when empty.
func (v Vector) TopIndex() int {
	if v.raw == nil {
		return -1
	}
	return v.raw.TopIndex()
}

// Float64s returns the components as float64 (lossy for Decimal).
func (v Vector) Float64s() []float64 {
	out := make([]float64, v.Dim())
	for i := range out {
		out[i] = v.raw.At(i).Float64()
	}
	return out
}

// Add returns v + o.
func (v Vector) Add(o Vector) (Vector, error) { return v.binary(o, Raw.Add) }

// Sub returns v - o.
func (v Vector) Sub(o Vector) (Vector, error) { return v.binary(o, Raw.Sub) }

// Mul returns the element-wise (Hadamard) product v ⊙ o.
func (v Vector) Mul(o Vector) (Vector, error) { return v.binary(o, Raw.Mul) }

// Div returns the element-wise quotient v / o. See the Raw implementations
// for the per-representation handling of zero divisors.
func (v Vector) Div(o Vector) (Vector, error) { return v.binary(o, Raw.Div) }

func (v Vector) binary(o Vector, op func(Raw, Raw) error) (Vector, error) {
	if v.raw == nil || o.raw == nil {
		return Vector{}, lengthError("vector", v.Dim(), o.Dim())
	}
	out := v.raw.Clone()
	if err := op(out, o.raw); err != nil {
		return Vector{}, err
	}
	return Vector{raw: out}, nil
}

// Scale returns v × s.
func (v Vector) Scale(s float64) (Vector, error) {
	out := v.Copy()
	if out.raw == nil {
		return out, nil
	}
	if err := out.raw.Scale(s); err != nil {
		return Vector{}, err
	}
	return out, nil
}

// Sum returns the reduction sum of the components.
func (v Vector) Sum() Value {
	if v.raw == nil {
		return Float32Value(0)
	}
	return v.raw.Sum()
}

// Dot returns the linear combination of v and o. Dimensions must match.
func (v Vector) Dot(o Vector) (Value, error) {
	if v.raw == nil || o.raw == nil {
		return Value{}, lengthError("dot", v.Dim(), o.Dim())
	}
	return v.raw.Dot(o.raw)
}

// AddInPlace accumulates o into v. Only the single owner of v may call it.
func (v Vector) AddInPlace(o Vector) error {
	if v.raw == nil || o.raw == nil {
		return lengthError("add", v.Dim(), o.Dim())
	}
	return v.raw.Add(o.raw)
}

// ScaleInPlace multiplies v by s. Only the single owner of v may call it.
func (v Vector) ScaleInPlace(s float64) error {
	if v.raw == nil {
		return nil
	}
	return v.raw.Scale(s)
}

// ScaleByInPlace multiplies v by a value of the same representation, so
// decimal factors are applied without a float conversion.
func (v Vector) ScaleByInPlace(s Value) error {
	if v.raw == nil {
		return nil
	}
	if s.DType() != v.DType() {
		return dtypeError("scale", v.DType(), s.DType())
	}
	return scaleByValue(v.raw, s)
}

// Equal reports exact component-wise equality, including the representation.
func (v Vector) Equal(o Vector) bool {
	if v.DType() != o.DType() || v.Dim() != o.Dim() {
		return false
	}
	for i := 0; i < v.Dim(); i++ {
		c, err := v.raw.At(i).Cmp(o.raw.At(i))
		if err != nil || c != 0 {
			return false
		}
	}
	return true
}

// AlmostEqual reports whether every component of v is within eps of o's.
// Decimals are compared through float64.
func (v Vector) AlmostEqual(o Vector, eps float64) bool {
	if v.DType() != o.DType() || v.Dim() != o.Dim() {
		return false
	}
	for i := 0; i < v.Dim(); i++ {
		if math.Abs(v.raw.At(i).Float64()-o.raw.At(i).Float64()) > eps {
			return false
		}
	}
	return true
}

// IntAt truncates component i to an int, failing with ErrOverflow when it
// does not fit.
func (v Vector) IntAt(i int) (int, error) {
	if err := checkIndex("int", i, v.Dim()); err != nil {
		return 0, err
	}
	return v.raw.At(i).Int()
}

// MapFloat32 returns f applied to every component of a Float32 vector.
func (v Vector) MapFloat32(f func(float32) float32) (Vector, error) {
	r, ok := v.raw.(float32Raw)
	if !ok {
		return Vector{}, dtypeError("map", Float32, v.DType())
	}
	out := make(float32Raw, len(r))
	for i, x := range r {
		out[i] = f(x)
	}
	return Vector{raw: out}, nil
}

// MapFloat64 returns f applied to every component of a Float64 vector.
func (v Vector) MapFloat64(f func(float64) float64) (Vector, error) {
	r, ok := v.raw.(float64Raw)
	if !ok {
		return Vector{}, dtypeError("map", Float64, v.DType())
	}
	out := make(float64Raw, len(r))
	for i, x := range r {
		out[i] = f(x)
	}
	return Vector{raw: out}, nil
}

// MapDecimal returns f applied to every component of a Decimal vector. f
// receives a component it must not retain and returns a fresh decimal.
func (v Vector) MapDecimal(f func(*apd.Decimal) (*apd.Decimal, error)) (Vector, error) {
	r, ok := v.raw.(decimalRaw)
	if !ok {
		return Vector{}, dtypeError("map", Decimal, v.DType())
	}
	out := make(decimalRaw, len(r))
	for i, x := range r {
		y, err := f(x)
		if err != nil {
			return Vector{}, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = y
	}
	return Vector{raw: out}, nil
}

// String formats the vector as V(n)[a b c].
func (v Vector) String() string {
	return fmt.Sprintf("V(%d)[%s]", v.Dim(), strings.Join(Strings(v.rawOrEmpty()), " "))
}

func (v Vector) rawOrEmpty() Raw {
	if v.raw == nil {
		return float32Raw{}
	}
	return v.raw
}
