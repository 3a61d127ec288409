package nn

import (
	"fmt"

	"github.com/born-ml/perceptron/internal/tensor"
)

// Sample is one training example: an input vector and the index of its
// expected class.
type Sample struct {
	Input    tensor.Vector
	Expected int
}

// NewSample builds a sample whose input is converted to dt.
func NewSample(dt tensor.DataType, expected int, values ...float64) (Sample, error) {
	x, err := tensor.VectorOf(dt, values...)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Input: x, Expected: expected}, nil
}

// CheckSample verifies that s fits the network: input dimension,
// representation, and an expected index within the output dimension.
func (n *Network) CheckSample(s Sample) error {
	if err := n.checkInput(s.Input); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSample, err)
	}
	if out := n.OutputDim(); s.Expected < 0 || s.Expected >= out {
		return fmt.Errorf("%w: expected class %d outside [0, %d)", ErrInvalidSample, s.Expected, out)
	}
	return nil
}

// Backprop computes the loss gradient of every layer for one sample.
//
// The forward pass keeps each layer's aggregation and activation. With
// entry 0 holding the input as its activation:
//
//	δ_L = OutputDelta(a_L, onehot(expected))
//	δ_l = (W_{l+1}ᵀ · δ_{l+1}) ⊙ f_l'(z_l)
//	∇W_l = δ_l ⊗ a_{l-1}
//	∇b_l = δ_l
//
// Backprop only reads the weights.
func (n *Network) Backprop(s Sample) (Gradients, error) {
	grads, _, err := n.backprop(s)
	return grads, err
}

// backprop also returns the sample loss.
func (n *Network) backprop(s Sample) (Gradients, float64, error) {
	if len(n.layers) == 0 {
		return nil, 0, ErrNoLayers
	}
	if err := n.CheckSample(s); err != nil {
		return nil, 0, err
	}

	last := len(n.layers)
	outputs := make([]LayerOutput, last+1)
	outputs[0] = LayerOutput{Activation: s.Input}
	for i, l := range n.layers {
		out, err := l.VerboseForward(outputs[i].Activation)
		if err != nil {
			return nil, 0, fmt.Errorf("forward layer %d: %w", i, err)
		}
		outputs[i+1] = out
	}

	target, err := tensor.OneHot(n.dtype, s.Expected, n.OutputDim())
	if err != nil {
		return nil, 0, err
	}
	output := n.layers[last-1]
	delta, err := n.delta.Delta(outputs[last], target, output.activation)
	if err != nil {
		return nil, 0, fmt.Errorf("output delta: %w", err)
	}
	loss, err := n.delta.Loss(outputs[last].Activation, target, output.activation)
	if err != nil {
		return nil, 0, fmt.Errorf("loss: %w", err)
	}

	grads := make(Gradients, last)
	for i := last - 1; i >= 0; i-- {
		w, err := tensor.Outer(delta, outputs[i].Activation)
		if err != nil {
			return nil, 0, fmt.Errorf("gradient layer %d: %w", i, err)
		}
		grads[i] = &Gradient{Weights: w, Bias: delta.Copy()}
		if i == 0 {
			break
		}

		back, err := n.layers[i].weights.ApplyTransposed(delta)
		if err != nil {
			return nil, 0, fmt.Errorf("backward layer %d: %w", i, err)
		}
		prime, err := n.layers[i-1].ActivationPrime(outputs[i].Aggregation)
		if err != nil {
			return nil, 0, fmt.Errorf("backward layer %d: %w", i-1, err)
		}
		if delta, err = back.Mul(prime); err != nil {
			return nil, 0, fmt.Errorf("backward layer %d: %w", i-1, err)
		}
	}
	return grads, loss, nil
}
