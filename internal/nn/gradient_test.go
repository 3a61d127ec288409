package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

func TestGradientSumAverage(t *testing.T) {
	l := nn.NewLayer(1, 2, identity, tensor.Decimal, rand.New(rand.NewSource(1)))
	total, err := nn.NewGradient(l)
	require.NoError(t, err)

	for _, v := range []float64{1, 2, 4} {
		g, err := nn.NewGradient(l)
		require.NoError(t, err)
		require.NoError(t, g.Weights.Set(0, 0, v))
		require.NoError(t, g.Weights.Set(0, 1, -v))
		g.Bias, _ = tensor.VectorOf(tensor.Decimal, v)
		require.NoError(t, total.Sum(g))
	}
	assert.Equal(t, []string{"7", "-7"}, tensor.Strings(total.Weights.Raw()))

	require.NoError(t, total.Average(3))
	assert.Equal(t, "2.333333333333333333333333333333333", total.Weights.At(0, 0).String())
	assert.Equal(t, "-2.333333333333333333333333333333333", total.Weights.At(0, 1).String())
	assert.Equal(t, "2.333333333333333333333333333333333", total.Bias.At(0).String())

	require.ErrorIs(t, total.Average(0), tensor.ErrDivisionByZero)
}

func TestGradientsSum(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).
		AddLayer(3, identity).
		AddLayer(2, identity)

	a, err := nn.NewGradients(net.Layers())
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, tensor.Shape{3, 2}, a[0].Weights.Shape())
	assert.Equal(t, tensor.Shape{2, 3}, a[1].Weights.Shape())

	b, err := nn.NewGradients(net.Layers())
	require.NoError(t, err)
	require.NoError(t, b[1].Weights.Set(1, 2, 4))
	require.NoError(t, a.Sum(b))
	require.NoError(t, a.Sum(b))
	require.NoError(t, a.Average(2))
	assert.Equal(t, 4.0, a[1].Weights.At(1, 2).Float64())
}

func TestGradientsSumLengthMismatch(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).
		AddLayer(2, identity).
		AddLayer(2, identity)

	two, err := nn.NewGradients(net.Layers())
	require.NoError(t, err)
	one, err := nn.NewGradients(net.Layers()[:1])
	require.NoError(t, err)

	err = two.Sum(one)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	var shapeErr *tensor.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, tensor.Shape{2}, shapeErr.Expected)
	assert.Equal(t, tensor.Shape{1}, shapeErr.Got)
}
