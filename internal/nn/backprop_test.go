package nn_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// lossAt returns the sample loss with every parameter replaced by params,
// laid out layer by layer as weights then bias.
func lossAt(t *testing.T, net *nn.Network, s nn.Sample, params []float64) float64 {
	t.Helper()
	sd := serialization.StateDict{}
	off := 0
	for i, l := range net.Layers() {
		rows, cols := l.Outputs(), l.Inputs()
		w, err := tensor.RawFromFloat64s(net.DType(), params[off:off+rows*cols])
		require.NoError(t, err)
		off += rows * cols
		b, err := tensor.RawFromFloat64s(net.DType(), params[off:off+rows])
		require.NoError(t, err)
		off += rows
		sd[paramName(i, "weight")] = serialization.Tensor{Shape: tensor.Shape{rows, cols}, Data: w}
		sd[paramName(i, "bias")] = serialization.Tensor{Shape: tensor.Shape{rows}, Data: b}
	}
	require.NoError(t, net.LoadStateDict(sd))

	out, err := net.FeedForward(s.Input)
	require.NoError(t, err)
	target, err := tensor.OneHot(net.DType(), s.Expected, net.OutputDim())
	require.NoError(t, err)
	layers := net.Layers()
	loss, err := net.OutputDelta().Loss(out, target, layers[len(layers)-1].Activation())
	require.NoError(t, err)
	return loss
}

func paramName(i int, name string) string {
	return fmt.Sprintf("layer.%d.%s", i, name)
}

// params lays out the current parameters the way lossAt reads them.
func params(net *nn.Network) []float64 {
	var out []float64
	for _, l := range net.Layers() {
		out = append(out, tensor.WrapRaw(l.Weights().Raw()).Float64s()...)
		out = append(out, l.Bias().Float64s()...)
	}
	return out
}

// analytic lays out Backprop's gradients the same way.
func analytic(grads nn.Gradients) []float64 {
	var out []float64
	for _, g := range grads {
		out = append(out, tensor.WrapRaw(g.Weights.Raw()).Float64s()...)
		out = append(out, g.Bias.Float64s()...)
	}
	return out
}

func TestBackpropMatchesFiniteDifferences(t *testing.T) {
	tanh := activation.Lift(activation.Tanh{})
	tests := []struct {
		name   string
		loss   nn.OutputDelta
		output activation.Func
	}{
		{"cross entropy with sigmoid output", nn.CrossEntropy{}, sigmoid},
		{"cross entropy with softmax output", nn.CrossEntropy{}, activation.Softmax{}},
		{"squared error with sigmoid output", nn.SquaredError{}, sigmoid},
		{"squared error with tanh output", nn.SquaredError{}, tanh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := nn.NewNetwork(3, tensor.Float64, nn.WithSeed(21), nn.WithOutputDelta(tt.loss)).
				AddLayer(4, tanh).
				AddLayer(3, sigmoid).
				AddLayer(2, tt.output)
			s, err := nn.NewSample(tensor.Float64, 1, 0.3, -0.8, 0.5)
			require.NoError(t, err)

			grads, err := net.Backprop(s)
			require.NoError(t, err)
			got := analytic(grads)

			x := params(net)
			want := fd.Gradient(nil, func(p []float64) float64 {
				return lossAt(t, net, s, p)
			}, x, &fd.Settings{Formula: fd.Central})

			require.Len(t, got, len(want))
			for i := range want {
				assert.InDelta(t, want[i], got[i], 1e-6, "parameter %d", i)
			}
		})
	}
}

func TestBackpropShapes(t *testing.T) {
	net := nn.NewNetwork(5, tensor.Float32, nn.WithSeed(2)).
		AddLayer(4, sigmoid).
		AddLayer(3, sigmoid)
	s, err := nn.NewSample(tensor.Float32, 2, 1, 0, 1, 0, 1)
	require.NoError(t, err)

	grads, err := net.Backprop(s)
	require.NoError(t, err)
	require.Len(t, grads, 2)
	assert.Equal(t, tensor.Shape{4, 5}, grads[0].Weights.Shape())
	assert.Equal(t, 4, grads[0].Bias.Dim())
	assert.Equal(t, tensor.Shape{3, 4}, grads[1].Weights.Shape())
	assert.Equal(t, tensor.Float32, grads[1].Bias.DType())
}

func TestBackpropDoesNotMutate(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(4)).AddLayer(3, sigmoid).AddLayer(2, sigmoid)
	before := params(net)
	s, _ := nn.NewSample(tensor.Float64, 0, 1, -1)

	_, err := net.Backprop(s)
	require.NoError(t, err)
	assert.Equal(t, before, params(net))
}

func TestBackpropErrors(t *testing.T) {
	empty := nn.NewNetwork(2, tensor.Float64)
	s, _ := nn.NewSample(tensor.Float64, 0, 1, 1)
	_, err := empty.Backprop(s)
	require.ErrorIs(t, err, nn.ErrNoLayers)

	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, sigmoid)
	bad, _ := nn.NewSample(tensor.Float64, 5, 1, 1)
	_, err = net.Backprop(bad)
	require.ErrorIs(t, err, nn.ErrInvalidSample)
}
