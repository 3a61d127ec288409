// Package nn implements the perceptron training engine.
//
// This package provides:
//   - Layer: affine transform (weights + bias) followed by an activation
//   - Gradient, Gradients: per-layer accumulators of one batch
//   - Network: ordered layers with feed-forward, back-propagation and
//     mini-batch gradient descent
//   - OutputDelta: the loss-specific error signal of the output layer
//   - Snapshots: save and restore through the .born format
//
// Every tensor of a network shares the representation chosen at
// construction (float32, float64 or decimal).
package nn

import (
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Module is implemented by Layer and Network.
//
// Every module must implement:
//   - Forward: Compute the output vector from an input vector
//   - StateDict / LoadStateDict: Export and import trainable parameters
type Module interface {
	// Forward computes the output of the module for one input vector.
	Forward(x tensor.Vector) (tensor.Vector, error)

	// StateDict returns copies of the trainable parameters keyed by name.
	StateDict() serialization.StateDict

	// LoadStateDict replaces the trainable parameters. Shapes and
	// representation must match the module.
	LoadStateDict(stateDict serialization.StateDict) error
}

var (
	_ Module = (*Layer)(nil)
	_ Module = (*Network)(nil)
)
