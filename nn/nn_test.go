package nn_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/activation"
	"github.com/born-ml/perceptron/nn"
	"github.com/born-ml/perceptron/tensor"
)

func TestPublicAPI(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(3), nn.WithInitializer(nn.Xavier)).
		AddLayer(3, activation.Lift(activation.Tanh{})).
		AddLayer(2, activation.Lift(activation.NewSigmoid()))
	require.NoError(t, net.Coherence())

	var samples []nn.Sample
	for i := 0; i < 20; i++ {
		c := float64(i%2*2 - 1)
		s, err := nn.NewSample(tensor.Float64, i%2, c, c)
		require.NoError(t, err)
		samples = append(samples, s)
	}

	cfg := nn.DefaultTrainConfig()
	cfg.Epochs = 30
	cfg.BatchSize = 5
	cfg.LearningRate = 0.5
	cfg.Executor = nn.NewPool(2)
	_, err := net.Train(context.Background(), samples, cfg)
	require.NoError(t, err)

	acc, err := net.Accuracy(context.Background(), samples, nn.Sequential{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	var buf bytes.Buffer
	require.NoError(t, net.Save(&buf))
	restored, err := nn.Load(&buf)
	require.NoError(t, err)

	x, _ := tensor.VectorOf(tensor.Float64, 1, 1)
	want, _ := net.FeedForward(x)
	got, _ := restored.FeedForward(x)
	assert.True(t, want.Equal(got))
}
