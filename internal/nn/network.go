package nn

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Network is an ordered stack of layers sharing one numeric representation.
//
// The network input dimension is declared at construction; AddLayer chains
// each new layer's input size to the previous output size. A network built
// only through AddLayer is always coherent. RemoveLayer can break that, and
// Train refuses to run on an incoherent network.
//
// Predict, FeedForward and Backprop only read the weights and may run
// concurrently. TrainBatch, Train, AddLayer, RemoveLayer and LoadStateDict
// mutate the network and need exclusive access.
//
// Example:
//
//	net := nn.NewNetwork(784, tensor.Float32, nn.WithSeed(42))
//	net.AddLayer(100, activation.Lift(activation.NewSigmoid()))
//	net.AddLayer(10, activation.Softmax{})
//
//	report, err := net.Train(ctx, samples, nn.DefaultTrainConfig())
//	class, err := net.Predict(x)
type Network struct {
	inputDim int
	dtype    tensor.DataType
	layers   []*Layer
	rng      *rand.Rand
	init     Initializer
	delta    OutputDelta
	report   *TrainReport
}

// Option configures a Network.
type Option func(*Network)

// WithRand sets the generator used for weight initialization and shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(n *Network) {
		n.rng = rng
	}
}

// WithSeed seeds a dedicated generator.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed))) //nolint:gosec // weight init is not security sensitive
}

// WithInitializer replaces the Gaussian weight initializer.
func WithInitializer(init Initializer) Option {
	return func(n *Network) {
		n.init = init
	}
}

// WithOutputDelta selects the loss used by back-propagation. The default is
// CrossEntropy.
func WithOutputDelta(d OutputDelta) Option {
	return func(n *Network) {
		n.delta = d
	}
}

// NewNetwork creates an empty network.
//
// Parameters:
//   - inputDim: Dimension of every input vector
//   - dt: Representation used by every layer, gradient and intermediate vector
//   - opts: Generator, initializer and loss options
//
// Without WithRand or WithSeed the generator is seeded from the clock.
// Panics if inputDim is not positive or dt is unknown.
func NewNetwork(inputDim int, dt tensor.DataType, opts ...Option) *Network {
	if inputDim <= 0 {
		panic(fmt.Sprintf("nn.NewNetwork: input dimension must be positive, got %d", inputDim))
	}
	if !dt.Valid() {
		panic(fmt.Sprintf("nn.NewNetwork: unknown data type %d", int(dt)))
	}

	n := &Network{
		inputDim: inputDim,
		dtype:    dt,
		init:     Gaussian,
		delta:    CrossEntropy{},
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // weight init is not security sensitive
	}
	return n
}

// AddLayer appends a layer of the given size whose input is the current
// output dimension. It returns n for chaining.
func (n *Network) AddLayer(size int, f activation.Func) *Network {
	n.layers = append(n.layers, newLayer(size, n.OutputDim(), f, n.dtype, n.rng, n.init))
	return n
}

// RemoveLayer removes layer i. The remaining layers keep their weights, so
// removing anything but the last layer usually leaves the network
// incoherent.
func (n *Network) RemoveLayer(i int) error {
	if i < 0 || i >= len(n.layers) {
		return fmt.Errorf("%w: %d of %d", ErrLayerIndex, i, len(n.layers))
	}
	n.layers = append(n.layers[:i], n.layers[i+1:]...)
	return nil
}

// Layers returns the layers in forward order.
func (n *Network) Layers() []*Layer {
	out := make([]*Layer, len(n.layers))
	copy(out, n.layers)
	return out
}

// Layer returns layer i.
func (n *Network) Layer(i int) (*Layer, error) {
	if i < 0 || i >= len(n.layers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLayerIndex, i, len(n.layers))
	}
	return n.layers[i], nil
}

// NumLayers returns the number of layers.
func (n *Network) NumLayers() int {
	return len(n.layers)
}

// InputDim returns the declared input dimension.
func (n *Network) InputDim() int {
	return n.inputDim
}

// OutputDim returns the output size of the last layer, or the input
// dimension of an empty network.
func (n *Network) OutputDim() int {
	if len(n.layers) == 0 {
		return n.inputDim
	}
	return n.layers[len(n.layers)-1].outputs
}

// DType returns the representation of the network.
func (n *Network) DType() tensor.DataType {
	return n.dtype
}

// OutputDelta returns the loss used by back-propagation.
func (n *Network) OutputDelta() OutputDelta {
	return n.delta
}

// LastReport returns the report of the last completed Train call, if any.
func (n *Network) LastReport() (TrainReport, bool) {
	if n.report == nil {
		return TrainReport{}, false
	}
	return *n.report, true
}

// Coherence returns a *CoherenceError for the first layer whose input size
// differs from the output size before it.
func (n *Network) Coherence() error {
	dim := n.inputDim
	for i, l := range n.layers {
		if l.inputs != dim {
			return &CoherenceError{Layer: i, Expected: dim, Got: l.inputs}
		}
		dim = l.outputs
	}
	return nil
}

// IsCoherent reports whether adjacent layer sizes chain from the input
// dimension to the output.
func (n *Network) IsCoherent() bool {
	return n.Coherence() == nil
}

// FeedForward applies every layer in order.
func (n *Network) FeedForward(x tensor.Vector) (tensor.Vector, error) {
	if err := n.checkInput(x); err != nil {
		return tensor.Vector{}, err
	}
	out := x
	for i, l := range n.layers {
		var err error
		if out, err = l.Forward(out); err != nil {
			return tensor.Vector{}, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return out, nil
}

// Forward implements Module.
func (n *Network) Forward(x tensor.Vector) (tensor.Vector, error) {
	return n.FeedForward(x)
}

// Predict returns the index of the largest output component.
func (n *Network) Predict(x tensor.Vector) (int, error) {
	if len(n.layers) == 0 {
		return -1, ErrNoLayers
	}
	out, err := n.FeedForward(x)
	if err != nil {
		return -1, err
	}
	return out.TopIndex(), nil
}

// String lists the layers as "NeuronNetwork{(0) ... | (1) ...}".
func (n *Network) String() string {
	parts := make([]string, len(n.layers))
	for i, l := range n.layers {
		parts[i] = fmt.Sprintf("(%d) %s", i, l.ShortLabel())
	}
	return "NeuronNetwork{" + strings.Join(parts, " | ") + "}"
}

func (n *Network) checkInput(x tensor.Vector) error {
	if x.Dim() != n.inputDim {
		return &tensor.ShapeError{Op: "input", Expected: tensor.Shape{n.inputDim}, Got: x.Shape()}
	}
	if x.DType() != n.dtype {
		return fmt.Errorf("input: %w: network is %s, input is %s", tensor.ErrDTypeMismatch, n.dtype, x.DType())
	}
	return nil
}
