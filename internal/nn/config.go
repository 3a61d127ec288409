package nn

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/parallel"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Training defaults.
const (
	DefaultEpochs       = 1
	DefaultBatchSize    = 10
	DefaultLearningRate = 0.1
)

// TrainConfig controls Train.
//
// Zero values of Epochs, BatchSize and LearningRate select the defaults.
// Parallel with Workers == 0 uses one worker per physical core.
type TrainConfig struct {
	Epochs       int     `yaml:"epochs"`        // Passes over the sample set
	BatchSize    int     `yaml:"batch_size"`    // Samples per weight update
	LearningRate float64 `yaml:"learning_rate"` // Gradient descent step size
	Momentum     float64 `yaml:"momentum"`      // SGD momentum in [0, 1)
	Parallel     bool    `yaml:"parallel"`      // Compute per-sample gradients on a worker pool
	Workers      int     `yaml:"workers"`       // Pool size; 0 means parallel.NumCores()
	Seed         int64   `yaml:"seed"`          // Shuffle seed; 0 uses the network generator

	// Executor overrides Parallel and Workers when set.
	Executor parallel.Executor `yaml:"-"`
	// Logger receives per-epoch progress at debug level. Nil discards.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultTrainConfig returns one parallel epoch of batches of 10 at
// learning rate 0.1.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       DefaultEpochs,
		BatchSize:    DefaultBatchSize,
		LearningRate: DefaultLearningRate,
		Parallel:     true,
	}
}

// Validate rejects negative sizes and rates, and momentum outside [0, 1).
func (c TrainConfig) Validate() error {
	switch {
	case c.Epochs < 0:
		return fmt.Errorf("%w: epochs %d", ErrInvalidConfig, c.Epochs)
	case c.BatchSize < 0:
		return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, c.BatchSize)
	case c.LearningRate < 0:
		return fmt.Errorf("%w: learning rate %v", ErrInvalidConfig, c.LearningRate)
	case c.Momentum < 0 || c.Momentum >= 1:
		return fmt.Errorf("%w: momentum %v", ErrInvalidConfig, c.Momentum)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Epochs == 0 {
		c.Epochs = DefaultEpochs
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
	return c
}

// executor returns the configured execution policy.
func (c TrainConfig) executor() parallel.Executor {
	if c.Executor != nil {
		return c.Executor
	}
	return parallel.New(parallel.Config{
		Enabled:      c.Parallel,
		NumWorkers:   c.Workers,
		MinChunkSize: 1,
	})
}

func (c TrainConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LayerConfig describes one layer of a NetworkConfig.
type LayerConfig struct {
	Size       int             `yaml:"size"`
	Activation activation.Spec `yaml:"activation"`
}

// NetworkConfig describes a network to build.
//
// Example YAML:
//
//	input: 2
//	dtype: float64
//	seed: 7
//	loss: cross_entropy
//	layers:
//	  - size: 8
//	    activation: {name: tanh}
//	  - size: 2
//	    activation: {name: sigmoid, params: [1]}
type NetworkConfig struct {
	Input  int             `yaml:"input"`
	DType  tensor.DataType `yaml:"dtype"`
	Seed   int64           `yaml:"seed"`
	Loss   string          `yaml:"loss"`
	Xavier bool            `yaml:"xavier"` // Use Xavier instead of Gaussian initialization
	Layers []LayerConfig   `yaml:"layers"`
}

// Build creates the network described by c.
func (c NetworkConfig) Build() (*Network, error) {
	if c.Input <= 0 {
		return nil, fmt.Errorf("%w: input dimension %d", ErrInvalidConfig, c.Input)
	}
	if !c.DType.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, tensor.ErrUnknownDataType)
	}
	delta, err := LossByName(c.Loss)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithOutputDelta(delta)}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	if c.Xavier {
		opts = append(opts, WithInitializer(Xavier))
	}
	net := NewNetwork(c.Input, c.DType, opts...)
	for i, lc := range c.Layers {
		if lc.Size <= 0 {
			return nil, fmt.Errorf("%w: layer %d size %d", ErrInvalidConfig, i, lc.Size)
		}
		f, err := activation.Decode(lc.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		net.AddLayer(lc.Size, f)
	}
	return net, nil
}

// Config is the YAML document read by LoadConfig.
type Config struct {
	Network  NetworkConfig `yaml:"network"`
	Training TrainConfig   `yaml:"training"`
}

// ParseConfig decodes a YAML document. Training values not present keep
// DefaultTrainConfig; unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := Config{Training: DefaultTrainConfig()}
	if err := decodeStrict(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Training.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a network and training YAML document from path.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// LoadTrainConfig reads a TrainConfig YAML document from path.
func LoadTrainConfig(path string) (TrainConfig, error) {
	//nolint:gosec // G304: config path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return TrainConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultTrainConfig()
	if err := decodeStrict(data, &cfg); err != nil {
		return TrainConfig{}, err
	}
	return cfg, cfg.Validate()
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
