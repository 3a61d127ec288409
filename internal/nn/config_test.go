package nn_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

const networkYAML = `
network:
  input: 2
  dtype: decimal
  seed: 7
  loss: squared_error
  xavier: true
  layers:
    - size: 4
      activation: {name: tanh}
    - size: 2
      activation: {name: sigmoid, params: [2]}
training:
  epochs: 5
  batch_size: 16
  learning_rate: 0.05
  workers: 2
`

func TestParseConfig(t *testing.T) {
	cfg, err := nn.ParseConfig([]byte(networkYAML))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Training.Epochs)
	assert.Equal(t, 16, cfg.Training.BatchSize)
	assert.Equal(t, 0.05, cfg.Training.LearningRate)
	assert.Equal(t, 2, cfg.Training.Workers)
	assert.True(t, cfg.Training.Parallel, "unset keys keep their defaults")

	net, err := cfg.Network.Build()
	require.NoError(t, err)
	assert.Equal(t, tensor.Decimal, net.DType())
	assert.Equal(t, 2, net.NumLayers())
	assert.Equal(t, nn.SquaredErrorName, net.OutputDelta().Name())
	assert.Equal(t,
		"NeuronNetwork{(0) Dimension:2 ⇒ W+b ⇒ tanh(x) ⇒ Dimension:4 | (1) Dimension:4 ⇒ W+b ⇒ sigmoid(2*x) ⇒ Dimension:2}",
		net.String())

	again, err := cfg.Network.Build()
	require.NoError(t, err)
	assert.True(t, weightsEqual(net, again), "seeded builds are reproducible")
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "training:\n  epoch: 3\n"},
		{"negative epochs", "training:\n  epochs: -1\n"},
		{"bad dtype", "network:\n  dtype: int8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nn.ParseConfig([]byte(tt.yaml))
			require.ErrorIs(t, err, nn.ErrInvalidConfig)
		})
	}
}

func TestNetworkConfigBuildErrors(t *testing.T) {
	_, err := nn.NetworkConfig{Input: 0, DType: tensor.Float64}.Build()
	require.ErrorIs(t, err, nn.ErrInvalidConfig)

	_, err = nn.NetworkConfig{Input: 2, DType: tensor.Float64, Loss: "hinge"}.Build()
	require.ErrorIs(t, err, nn.ErrUnknownLoss)

	_, err = nn.NetworkConfig{Input: 2, DType: tensor.Float64, Layers: []nn.LayerConfig{{Size: 0}}}.Build()
	require.ErrorIs(t, err, nn.ErrInvalidConfig)
}

func TestLoadTrainConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs: 3\nparallel: false\nseed: 42\n"), 0o600))

	cfg, err := nn.LoadTrainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, nn.DefaultBatchSize, cfg.BatchSize)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, int64(42), cfg.Seed)

	_, err = nn.LoadTrainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = nn.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
