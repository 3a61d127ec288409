// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"io"
	"math/rand"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/parallel"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Module is implemented by layers and networks.
type Module = nn.Module

// Layer is a fully connected layer.
type Layer = nn.Layer

// LayerOutput holds a layer's aggregation and activation.
type LayerOutput = nn.LayerOutput

// NewLayer creates a layer with Gaussian weights and zero bias.
func NewLayer(outputs, inputs int, f activation.Func, dt tensor.DataType, rng *rand.Rand) *Layer {
	return nn.NewLayer(outputs, inputs, f, dt, rng)
}

// Gradient is the loss gradient of one layer.
type Gradient = nn.Gradient

// Gradients holds one Gradient per layer.
type Gradients = nn.Gradients

// Network is a multi-layer perceptron.
type Network = nn.Network

// Option configures NewNetwork.
type Option = nn.Option

// NewNetwork creates an empty network.
//
// Example:
//
//	net := nn.NewNetwork(784, tensor.Float32, nn.WithSeed(42)).
//	    AddLayer(128, activation.Lift(activation.ReLU{})).
//	    AddLayer(10, activation.Softmax{})
func NewNetwork(inputDim int, dt tensor.DataType, opts ...Option) *Network {
	return nn.NewNetwork(inputDim, dt, opts...)
}

// WithRand sets the generator used for weight initialization and shuffling.
func WithRand(rng *rand.Rand) Option { return nn.WithRand(rng) }

// WithSeed seeds a new generator.
func WithSeed(seed int64) Option { return nn.WithSeed(seed) }

// WithInitializer selects the weight initializer.
func WithInitializer(init Initializer) Option { return nn.WithInitializer(init) }

// WithOutputDelta selects the loss.
func WithOutputDelta(d OutputDelta) Option { return nn.WithOutputDelta(d) }

// Initializer creates layer weights.
type Initializer = nn.Initializer

// Initializers.
var (
	Gaussian Initializer = nn.Gaussian
	Xavier   Initializer = nn.Xavier
	Zeros    Initializer = nn.Zeros
)

// Sample is an input and its expected class.
type Sample = nn.Sample

// NewSample builds a sample whose input is converted to dt.
func NewSample(dt tensor.DataType, expected int, values ...float64) (Sample, error) {
	return nn.NewSample(dt, expected, values...)
}

// OutputDelta is the loss used by back-propagation.
type OutputDelta = nn.OutputDelta

// Losses.
type (
	CrossEntropy = nn.CrossEntropy
	SquaredError = nn.SquaredError
)

// LossByName returns "cross_entropy" or "squared_error".
func LossByName(name string) (OutputDelta, error) {
	return nn.LossByName(name)
}

// Training configuration.
type (
	TrainConfig   = nn.TrainConfig
	TrainReport   = nn.TrainReport
	Config        = nn.Config
	NetworkConfig = nn.NetworkConfig
	LayerConfig   = nn.LayerConfig
)

// DefaultTrainConfig returns one parallel epoch of batches of 10 at
// learning rate 0.1.
func DefaultTrainConfig() TrainConfig { return nn.DefaultTrainConfig() }

// LoadConfig reads a network and training YAML document.
func LoadConfig(path string) (Config, error) { return nn.LoadConfig(path) }

// LoadTrainConfig reads a training YAML document.
func LoadTrainConfig(path string) (TrainConfig, error) { return nn.LoadTrainConfig(path) }

// Executor runs per-sample tasks.
type Executor = parallel.Executor

// Sequential runs tasks on the calling goroutine.
type Sequential = parallel.Sequential

// NewPool returns an executor running on workers goroutines; zero selects
// one per physical core.
func NewPool(workers int) Executor {
	return parallel.NewPool(parallel.Config{Enabled: true, NumWorkers: workers, MinChunkSize: 1})
}

// StateDict maps parameter names to tensors.
type StateDict = serialization.StateDict

// Load reads a snapshot written by Network.Save.
func Load(r io.Reader, opts ...Option) (*Network, error) { return nn.Load(r, opts...) }

// LoadFile reads a snapshot written by Network.SaveFile.
func LoadFile(path string, opts ...Option) (*Network, error) { return nn.LoadFile(path, opts...) }

// ImportSafeTensors reads a file written by Network.ExportSafeTensors.
func ImportSafeTensors(path string, opts ...Option) (*Network, error) {
	return nn.ImportSafeTensors(path, opts...)
}

// Errors.
var (
	ErrIncoherent      = nn.ErrIncoherent
	ErrNoLayers        = nn.ErrNoLayers
	ErrInvalidSample   = nn.ErrInvalidSample
	ErrNoSamples       = nn.ErrNoSamples
	ErrInvalidConfig   = nn.ErrInvalidConfig
	ErrInvalidSnapshot = nn.ErrInvalidSnapshot
)

// Error types.
type (
	CoherenceError = nn.CoherenceError
	SampleError    = nn.SampleError
)
