package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/perceptron/internal/tensor"
)

// Initializer creates the weight matrix of a new layer.
//
// Parameters:
//   - dt: Representation of the network
//   - rows: Number of output units
//   - cols: Number of input units
//   - rng: Generator owned by the network
type Initializer func(dt tensor.DataType, rows, cols int, rng *rand.Rand) (tensor.Matrix, error)

// Gaussian draws every weight independently from N(0, 1). It is the default
// initializer.
func Gaussian(dt tensor.DataType, rows, cols int, rng *rand.Rand) (tensor.Matrix, error) {
	return tensor.RandomGaussian(dt, rows, cols, rng)
}

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This keeps the variance of activations stable across deep stacks of
// sigmoid or tanh layers.
func Xavier(dt tensor.DataType, rows, cols int, rng *rand.Rand) (tensor.Matrix, error) {
	bound := math.Sqrt(6.0 / float64(rows+cols))

	m, err := tensor.NewMatrix(dt, rows, cols)
	if err != nil {
		return tensor.Matrix{}, err
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if err := m.Set(i, j, (rng.Float64()*2.0-1.0)*bound); err != nil {
				return tensor.Matrix{}, err
			}
		}
	}
	return m, nil
}

// Zeros creates a zero matrix. Restored layers start from it before their
// weights are loaded.
func Zeros(dt tensor.DataType, rows, cols int, _ *rand.Rand) (tensor.Matrix, error) {
	return tensor.NewMatrix(dt, rows, cols)
}
