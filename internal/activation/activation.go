// Package activation defines the activation-function contract used by neuron
// layers and a catalogue of differentiable functions satisfying it.
//
// A Func maps a vector to a vector and knows its own derivative. Most
// activations act component-wise; they are written as a Scalar and lifted
// with Lift. Scalars may optionally evaluate float32 and decimal components
// natively (At32, AtDecimal); otherwise a component is evaluated through
// float64 and converted back to the vector's representation.
package activation

import (
	"fmt"

	"github.com/born-ml/perceptron/internal/tensor"
	"github.com/cockroachdb/apd/v3"
)

// Func is a differentiable vector function.
type Func interface {
	// Apply evaluates the function. The result has the input's representation
	// and dimension; the input is never modified.
	Apply(v tensor.Vector) (tensor.Vector, error)

	// Derive returns the derivative, itself a Func.
	Derive() Func

	// Label returns a human-readable description.
	Label() string
}

// Scalar is a differentiable function of one real variable.
type Scalar interface {
	At(x float64) float64
	Derive() Scalar
	Label() string
}

// Float32Scalar is implemented by scalars that evaluate float32 natively.
type Float32Scalar interface {
	At32(x float32) float32
}

// DecimalScalar is implemented by scalars that evaluate decimals natively.
// The argument must not be retained or modified.
type DecimalScalar interface {
	AtDecimal(x *apd.Decimal) (*apd.Decimal, error)
}

// ctx is the arithmetic context for decimal evaluation.
var ctx = tensor.DecimalContext()

// Lift turns a scalar into a component-wise Func. Scalars with a natural
// domain (see Bounded) have every component checked before evaluation.
func Lift(s Scalar) Func {
	l := &lifted{scalar: s}
	if b, ok := s.(Bounded); ok {
		d := b.Domain()
		l.domain = &d
	}
	return l
}

// Checked lifts s with every component required to lie in d. Components
// outside d fail with a *DomainError.
func Checked(s Scalar, d Interval) Func {
	return &lifted{scalar: s, domain: &d, explicit: true}
}

type lifted struct {
	scalar   Scalar
	domain   *Interval
	explicit bool
}

// ScalarOf returns the scalar behind a lifted Func.
func ScalarOf(f Func) (Scalar, bool) {
	l, ok := f.(*lifted)
	if !ok {
		return nil, false
	}
	return l.scalar, true
}

func (l *lifted) Label() string { return l.scalar.Label() }

func (l *lifted) Derive() Func {
	d := &lifted{scalar: l.scalar.Derive(), explicit: l.explicit}
	if l.explicit {
		d.domain = l.domain
	} else if b, ok := d.scalar.(Bounded); ok {
		dom := b.Domain()
		d.domain = &dom
	}
	return d
}

func (l *lifted) Apply(v tensor.Vector) (tensor.Vector, error) {
	if l.domain != nil {
		if err := l.check(v); err != nil {
			return tensor.Vector{}, err
		}
	}
	switch v.DType() {
	case tensor.Float32:
		return v.MapFloat32(func(x float32) float32 { return at32(l.scalar, x) })
	case tensor.Float64:
		return v.MapFloat64(l.scalar.At)
	case tensor.Decimal:
		out, err := v.MapDecimal(func(x *apd.Decimal) (*apd.Decimal, error) {
			return atDecimal(l.scalar, x)
		})
		if err != nil {
			return tensor.Vector{}, fmt.Errorf("%s: %w", l.scalar.Label(), err)
		}
		return out, nil
	default:
		return tensor.Vector{}, fmt.Errorf("%s: %w: %s", l.scalar.Label(), tensor.ErrUnknownDataType, v.DType())
	}
}

func (l *lifted) check(v tensor.Vector) error {
	for i := 0; i < v.Dim(); i++ {
		if !l.contains(v.At(i)) {
			return &DomainError{Func: l.scalar.Label(), Index: i, Value: v.At(i).String(), Domain: *l.domain}
		}
	}
	return nil
}

func (l *lifted) contains(x tensor.Value) bool {
	if x.DType() == tensor.Decimal {
		d, err := x.Decimal()
		return err == nil && l.domain.ContainsDecimal(d)
	}
	return l.domain.Contains(x.Float64())
}

// at32 evaluates s on a float32, natively when s supports it.
func at32(s Scalar, x float32) float32 {
	if f, ok := s.(Float32Scalar); ok {
		return f.At32(x)
	}
	return float32(s.At(float64(x)))
}

// atDecimal evaluates s on a decimal, natively when s supports it. The
// float64 fallback converts the result back through its canonical text.
func atDecimal(s Scalar, x *apd.Decimal) (*apd.Decimal, error) {
	if f, ok := s.(DecimalScalar); ok {
		return f.AtDecimal(x)
	}
	y := s.At(tensor.DecimalValue(x).Float64())
	return tensor.DecimalFromFloat(y, 64)
}
