package activation

import (
	"fmt"
	"math"

	"github.com/born-ml/perceptron/internal/tensor"
	"github.com/chewxy/math32"
	"github.com/cockroachdb/apd/v3"
)

// Softmax is the normalized exponential σ(x)ᵢ = eˣⁱ / Σⱼ eˣʲ. It is not
// component-wise, so it implements Func directly. The maximum component is
// subtracted before exponentiation; the result is unchanged.
type Softmax struct{}

// Label implements Func.
func (Softmax) Label() string { return "softmax(x)" }

// Derive returns the function x ↦ J(x)·x, where J is the softmax Jacobian.
func (Softmax) Derive() Func { return softmaxPrime{} }

// Apply implements Func.
func (Softmax) Apply(v tensor.Vector) (tensor.Vector, error) {
	if v.Dim() == 0 {
		return v.Copy(), nil
	}
	switch v.DType() {
	case tensor.Float32:
		return softmax32(v)
	case tensor.Float64:
		return softmax64(v)
	case tensor.Decimal:
		return softmaxDecimal(v)
	default:
		return tensor.Vector{}, fmt.Errorf("softmax: %w: %s", tensor.ErrUnknownDataType, v.DType())
	}
}

func softmax32(v tensor.Vector) (tensor.Vector, error) {
	xs := v.Float64s()
	top := float32(xs[v.TopIndex()])
	exps := make([]float32, len(xs))
	var sum float32
	for i, x := range xs {
		exps[i] = math32.Exp(float32(x) - top)
		sum += exps[i]
	}
	out := make([]float64, len(exps))
	for i, e := range exps {
		out[i] = float64(e / sum)
	}
	return tensor.VectorOf(tensor.Float32, out...)
}

func softmax64(v tensor.Vector) (tensor.Vector, error) {
	xs := v.Float64s()
	top := xs[v.TopIndex()]
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - top)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return tensor.VectorOf(tensor.Float64, out...)
}

func softmaxDecimal(v tensor.Vector) (tensor.Vector, error) {
	top := v.At(v.TopIndex())
	maxD, err := top.Decimal()
	if err != nil {
		return tensor.Vector{}, err
	}
	exps := make([]*apd.Decimal, v.Dim())
	sum := apd.New(0, 0)
	for i := range exps {
		x, err := v.At(i).Decimal()
		if err != nil {
			return tensor.Vector{}, err
		}
		if _, err := ctx.Sub(x, x, maxD); err != nil {
			return tensor.Vector{}, fmt.Errorf("softmax component %d: %w", i, err)
		}
		if err := expDecimal(x, x); err != nil {
			return tensor.Vector{}, fmt.Errorf("softmax component %d: %w", i, err)
		}
		if _, err := ctx.Add(sum, sum, x); err != nil {
			return tensor.Vector{}, fmt.Errorf("softmax component %d: %w", i, err)
		}
		exps[i] = x
	}
	raw, err := tensor.NewRaw(tensor.Decimal, len(exps))
	if err != nil {
		return tensor.Vector{}, err
	}
	for i, e := range exps {
		if _, err := ctx.Quo(e, e, sum); err != nil {
			return tensor.Vector{}, fmt.Errorf("softmax component %d: %w", i, err)
		}
		if err := raw.Set(i, tensor.DecimalValue(e)); err != nil {
			return tensor.Vector{}, err
		}
	}
	return tensor.WrapRaw(raw), nil
}

// softmaxPrime evaluates J(x)·x with J the softmax Jacobian at x:
// (J·x)ᵢ = σᵢ·(xᵢ - σ·x).
type softmaxPrime struct{}

func (softmaxPrime) Label() string { return "softmax'(x)" }

func (softmaxPrime) Derive() Func { return noDerivative{of: "softmax'(x)"} }

func (softmaxPrime) Apply(v tensor.Vector) (tensor.Vector, error) {
	s, err := Softmax{}.Apply(v)
	if err != nil {
		return tensor.Vector{}, err
	}
	dot, err := s.Dot(v)
	if err != nil {
		return tensor.Vector{}, err
	}
	fill, err := tensor.NewRaw(v.DType(), v.Dim())
	if err != nil {
		return tensor.Vector{}, err
	}
	for i := 0; i < v.Dim(); i++ {
		if err := fill.Set(i, dot); err != nil {
			return tensor.Vector{}, err
		}
	}
	centered, err := v.Sub(tensor.WrapRaw(fill))
	if err != nil {
		return tensor.Vector{}, err
	}
	return s.Mul(centered)
}

// noDerivative stands in for derivatives the catalogue does not provide.
type noDerivative struct{ of string }

func (n noDerivative) Label() string { return "d/dx " + n.of }

func (n noDerivative) Derive() Func { return noDerivative{of: n.Label()} }

func (n noDerivative) Apply(tensor.Vector) (tensor.Vector, error) {
	return tensor.Vector{}, fmt.Errorf("%s: %w", n.of, ErrNoDerivative)
}
