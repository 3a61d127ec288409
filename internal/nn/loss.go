package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/tensor"
)

// OutputDelta supplies the error signal of the output layer and the scalar
// loss it derives from.
//
// Delta must return ∂loss/∂z for the output layer's aggregation z, given the
// output layer result, the one-hot target and the output activation.
type OutputDelta interface {
	// Name identifies the loss in configs and snapshots.
	Name() string

	// Delta computes the output-layer error signal.
	Delta(out LayerOutput, target tensor.Vector, f activation.Func) (tensor.Vector, error)

	// Loss computes the scalar loss of one output produced by f.
	Loss(output, target tensor.Vector, f activation.Func) (float64, error)
}

// Loss names.
const (
	CrossEntropyName = "cross_entropy"
	SquaredErrorName = "squared_error"
)

// lossEpsilon clamps probabilities away from 0 and 1 before taking logs.
const lossEpsilon = 1e-12

// CrossEntropy is the default output delta.
//
// With a softmax output the loss is the categorical -Σ t·ln(a); with any
// other output it is the per-unit binary -Σ [t·ln(a) + (1-t)·ln(1-a)].
// Either way a - t is its gradient with respect to z, exactly so only for a
// sigmoid or softmax output; Delta does not consult the activation.
type CrossEntropy struct{}

// Name implements OutputDelta.
func (CrossEntropy) Name() string { return CrossEntropyName }

// Delta implements OutputDelta.
func (CrossEntropy) Delta(out LayerOutput, target tensor.Vector, _ activation.Func) (tensor.Vector, error) {
	return out.Activation.Sub(target)
}

// Loss implements OutputDelta.
func (CrossEntropy) Loss(output, target tensor.Vector, f activation.Func) (float64, error) {
	if output.Dim() != target.Dim() {
		return 0, &tensor.ShapeError{Op: "cross entropy", Expected: output.Shape(), Got: target.Shape()}
	}
	_, categorical := f.(activation.Softmax)
	a, t := output.Float64s(), target.Float64s()
	var loss float64
	for i := range a {
		p := math.Min(math.Max(a[i], lossEpsilon), 1-lossEpsilon)
		loss -= t[i] * math.Log(p)
		if !categorical {
			loss -= (1 - t[i]) * math.Log(1-p)
		}
	}
	return loss, nil
}

// SquaredError pairs with any element-wise output activation.
//
// Loss = ½ Σ (a - t)²
// Delta = (a - t) ⊙ f'(z)
type SquaredError struct{}

// Name implements OutputDelta.
func (SquaredError) Name() string { return SquaredErrorName }

// Delta implements OutputDelta.
func (SquaredError) Delta(out LayerOutput, target tensor.Vector, f activation.Func) (tensor.Vector, error) {
	diff, err := out.Activation.Sub(target)
	if err != nil {
		return tensor.Vector{}, err
	}
	prime, err := f.Derive().Apply(out.Aggregation)
	if err != nil {
		return tensor.Vector{}, fmt.Errorf("output derivative: %w", err)
	}
	return diff.Mul(prime)
}

// Loss implements OutputDelta.
func (SquaredError) Loss(output, target tensor.Vector, _ activation.Func) (float64, error) {
	if output.Dim() != target.Dim() {
		return 0, &tensor.ShapeError{Op: "squared error", Expected: output.Shape(), Got: target.Shape()}
	}
	a, t := output.Float64s(), target.Float64s()
	var loss float64
	for i := range a {
		d := a[i] - t[i]
		loss += d * d
	}
	return loss / 2, nil
}

// LossByName returns the output delta registered under name.
func LossByName(name string) (OutputDelta, error) {
	switch name {
	case CrossEntropyName, "":
		return CrossEntropy{}, nil
	case SquaredErrorName:
		return SquaredError{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLoss, name)
	}
}
