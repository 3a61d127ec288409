package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// stateDictOf returns the state dict of a single-layer network.
func stateDictOf(t *testing.T, dt tensor.DataType, weights [][]float64, bias []float64) serialization.StateDict {
	t.Helper()
	w, err := tensor.MatrixFromRows(dt, weights)
	require.NoError(t, err)
	b, err := tensor.VectorOf(dt, bias...)
	require.NoError(t, err)
	return serialization.StateDict{
		"layer.0.weight": {Shape: w.Shape(), Data: w.Raw()},
		"layer.0.bias":   {Shape: b.Shape(), Data: b.Raw()},
	}
}

// blobs returns n samples from two Gaussian clusters centred on (-1, -1)
// (class 0) and (1, 1) (class 1).
func blobs(t *testing.T, dt tensor.DataType, n int, seed int64) []nn.Sample {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	samples := make([]nn.Sample, n)
	for i := range samples {
		class := i % 2
		centre := float64(2*class - 1)
		s, err := nn.NewSample(dt, class,
			centre+0.3*rng.NormFloat64(),
			centre+0.3*rng.NormFloat64())
		require.NoError(t, err)
		samples[i] = s
	}
	return samples
}

// weightsEqual reports exact equality of every layer's parameters.
func weightsEqual(a, b *nn.Network) bool {
	if a.NumLayers() != b.NumLayers() {
		return false
	}
	for i, l := range a.Layers() {
		o := b.Layers()[i]
		if !l.Weights().Equal(o.Weights()) || !l.Bias().Equal(o.Bias()) {
			return false
		}
	}
	return true
}
