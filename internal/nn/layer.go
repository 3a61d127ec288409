package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Layer implements a fully connected layer followed by an activation.
//
// Performs the transformation: y = f(W·x + b)
// where:
//   - x is the input vector with dimension inputs
//   - W is the weight matrix with shape [outputs, inputs]
//   - b is the bias vector with dimension outputs
//   - f is the activation, applied element-wise (or to the whole vector for softmax)
//
// Weights are drawn from a standard normal distribution by default.
// Biases are initialized to zeros.
//
// The activation is shared, never owned: one activation value may serve
// many layers and networks. Only Update and LoadStateDict mutate a layer,
// and they must not run concurrently with any other method.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	layer := nn.NewLayer(128, 784, activation.Lift(activation.NewSigmoid()), tensor.Float32, rng)
//	y, err := layer.Forward(x) // x has dimension 784, y has dimension 128
type Layer struct {
	inputs     int
	outputs    int
	weights    tensor.Matrix // [outputs, inputs]
	bias       tensor.Vector // [outputs]
	activation activation.Func
	prime      activation.Func
}

// LayerOutput is the result of VerboseForward.
//
// Aggregation is the pre-activation value W·x + b; back-propagation
// evaluates the activation derivative at it. Activation is f(Aggregation).
type LayerOutput struct {
	Aggregation tensor.Vector
	Activation  tensor.Vector
}

// NewLayer creates a new Layer with Gaussian weights and zero bias.
//
// Parameters:
//   - outputs: Number of output units
//   - inputs: Number of input units
//   - f: Activation applied to the aggregation
//   - dt: Representation of every tensor in the layer
//   - rng: Generator used to draw the weights
//
// Panics if a size is not positive, f is nil or dt is unknown.
func NewLayer(outputs, inputs int, f activation.Func, dt tensor.DataType, rng *rand.Rand) *Layer {
	return newLayer(outputs, inputs, f, dt, rng, Gaussian)
}

func newLayer(outputs, inputs int, f activation.Func, dt tensor.DataType, rng *rand.Rand, init Initializer) *Layer {
	if outputs <= 0 || inputs <= 0 {
		panic(fmt.Sprintf("nn.NewLayer: sizes must be positive, got %d outputs and %d inputs", outputs, inputs))
	}
	if f == nil {
		panic("nn.NewLayer: nil activation")
	}
	if !dt.Valid() {
		panic(fmt.Sprintf("nn.NewLayer: unknown data type %d", int(dt)))
	}

	weights, err := init(dt, outputs, inputs, rng)
	if err != nil {
		panic(fmt.Sprintf("nn.NewLayer: %v", err))
	}
	if !weights.Shape().Equal(tensor.Shape{outputs, inputs}) || weights.DType() != dt {
		panic(fmt.Sprintf("nn.NewLayer: initializer returned %s %v, want %s %v",
			weights.DType(), weights.Shape(), dt, tensor.Shape{outputs, inputs}))
	}
	bias, err := tensor.NewVector(dt, outputs)
	if err != nil {
		panic(fmt.Sprintf("nn.NewLayer: %v", err))
	}

	return &Layer{
		inputs:     inputs,
		outputs:    outputs,
		weights:    weights,
		bias:       bias,
		activation: f,
		prime:      f.Derive(),
	}
}

// Forward computes f(W·x + b).
func (l *Layer) Forward(x tensor.Vector) (tensor.Vector, error) {
	out, err := l.VerboseForward(x)
	if err != nil {
		return tensor.Vector{}, err
	}
	return out.Activation, nil
}

// VerboseForward computes the layer output and keeps the aggregation.
func (l *Layer) VerboseForward(x tensor.Vector) (LayerOutput, error) {
	z, err := l.weights.Apply(x)
	if err != nil {
		return LayerOutput{}, fmt.Errorf("layer %s: %w", l.ShortLabel(), err)
	}
	z, err = z.Add(l.bias)
	if err != nil {
		return LayerOutput{}, fmt.Errorf("layer %s: %w", l.ShortLabel(), err)
	}
	a, err := l.activation.Apply(z)
	if err != nil {
		return LayerOutput{}, fmt.Errorf("layer %s: %w", l.ShortLabel(), err)
	}
	return LayerOutput{Aggregation: z, Activation: a}, nil
}

// ActivationPrime evaluates the activation derivative at a retained
// aggregation.
func (l *Layer) ActivationPrime(aggregation tensor.Vector) (tensor.Vector, error) {
	d, err := l.prime.Apply(aggregation)
	if err != nil {
		return tensor.Vector{}, fmt.Errorf("layer %s: derivative: %w", l.ShortLabel(), err)
	}
	return d, nil
}

// Update applies one gradient descent step:
//
//	W += ∇W × (-learningRate)
//	b += ∇b × (-learningRate)
func (l *Layer) Update(g *Gradient, learningRate float64) error {
	if err := g.check(l); err != nil {
		return err
	}
	dw, err := g.Weights.Scale(-learningRate)
	if err != nil {
		return err
	}
	db, err := g.Bias.Scale(-learningRate)
	if err != nil {
		return err
	}
	if err := l.weights.AddInPlace(dw); err != nil {
		return err
	}
	return l.bias.AddInPlace(db)
}

// Inputs returns the number of input units.
func (l *Layer) Inputs() int {
	return l.inputs
}

// Outputs returns the number of output units.
func (l *Layer) Outputs() int {
	return l.outputs
}

// DType returns the representation of the layer tensors.
func (l *Layer) DType() tensor.DataType {
	return l.weights.DType()
}

// Weights returns a copy of the weight matrix.
func (l *Layer) Weights() tensor.Matrix {
	return l.weights.Copy()
}

// Bias returns a copy of the bias vector.
func (l *Layer) Bias() tensor.Vector {
	return l.bias.Copy()
}

// Activation returns the shared activation.
func (l *Layer) Activation() activation.Func {
	return l.activation
}

// ShortLabel describes the layer as "in ⇒ W+b ⇒ f ⇒ out".
func (l *Layer) ShortLabel() string {
	return fmt.Sprintf("Dimension:%d ⇒ W+b ⇒ %s ⇒ Dimension:%d", l.inputs, l.activation.Label(), l.outputs)
}

// String implements fmt.Stringer.
func (l *Layer) String() string {
	return l.ShortLabel()
}

// StateDict returns copies of the weight and bias tensors.
func (l *Layer) StateDict() serialization.StateDict {
	return serialization.StateDict{
		"weight": {Shape: tensor.Shape{l.outputs, l.inputs}, Data: l.weights.Copy().Raw()},
		"bias":   {Shape: tensor.Shape{l.outputs}, Data: l.bias.Copy().Raw()},
	}
}

// LoadStateDict loads parameters from a state dictionary. The layer is left
// untouched when an entry is missing or does not match.
func (l *Layer) LoadStateDict(stateDict serialization.StateDict) error {
	weights, bias, err := l.decodeState(stateDict)
	if err != nil {
		return err
	}
	l.weights, l.bias = weights, bias
	return nil
}

// decodeState checks and copies the parameters without assigning them.
func (l *Layer) decodeState(stateDict serialization.StateDict) (tensor.Matrix, tensor.Vector, error) {
	weight, ok := stateDict["weight"]
	if !ok {
		return tensor.Matrix{}, tensor.Vector{}, fmt.Errorf("missing weight in state dict")
	}
	if err := l.checkParam("weight", weight, tensor.Shape{l.outputs, l.inputs}); err != nil {
		return tensor.Matrix{}, tensor.Vector{}, err
	}
	bias, ok := stateDict["bias"]
	if !ok {
		return tensor.Matrix{}, tensor.Vector{}, fmt.Errorf("missing bias in state dict")
	}
	if err := l.checkParam("bias", bias, tensor.Shape{l.outputs}); err != nil {
		return tensor.Matrix{}, tensor.Vector{}, err
	}

	weights, err := tensor.MatrixFromRaw(l.outputs, l.inputs, weight.Data.Clone())
	if err != nil {
		return tensor.Matrix{}, tensor.Vector{}, err
	}
	return weights, tensor.WrapRaw(bias.Data.Clone()), nil
}

func (l *Layer) checkParam(name string, t serialization.Tensor, want tensor.Shape) error {
	if t.Data == nil {
		return fmt.Errorf("%s: no data", name)
	}
	if !t.Shape.Equal(want) || t.Data.Len() != want.NumElements() {
		return &tensor.ShapeError{Op: "load " + name, Expected: want, Got: t.Shape}
	}
	if t.Data.DType() != l.DType() {
		return fmt.Errorf("%s dtype mismatch: expected %s, got %s: %w",
			name, l.DType(), t.Data.DType(), tensor.ErrDTypeMismatch)
	}
	return nil
}
