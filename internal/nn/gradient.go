package nn

import (
	"fmt"

	"github.com/born-ml/perceptron/internal/tensor"
)

// Gradient holds the loss gradient with respect to one layer's parameters.
// It is created per sample or per batch and discarded after the update.
type Gradient struct {
	Weights tensor.Matrix // Same shape as the layer weights
	Bias    tensor.Vector // Same dimension as the layer bias
}

// NewGradient returns a zero gradient shaped like l.
func NewGradient(l *Layer) (*Gradient, error) {
	w, err := tensor.NewMatrix(l.DType(), l.outputs, l.inputs)
	if err != nil {
		return nil, err
	}
	b, err := tensor.NewVector(l.DType(), l.outputs)
	if err != nil {
		return nil, err
	}
	return &Gradient{Weights: w, Bias: b}, nil
}

// Sum accumulates other into g.
func (g *Gradient) Sum(other *Gradient) error {
	if err := g.Weights.AddInPlace(other.Weights); err != nil {
		return fmt.Errorf("gradient weights: %w", err)
	}
	if err := g.Bias.AddInPlace(other.Bias); err != nil {
		return fmt.Errorf("gradient bias: %w", err)
	}
	return nil
}

// Average divides g by n. Decimal gradients are multiplied by the decimal
// reciprocal of n.
func (g *Gradient) Average(n int) error {
	inv, err := tensor.Reciprocal(g.Weights.DType(), n)
	if err != nil {
		return err
	}
	if err := g.Weights.ScaleByInPlace(inv); err != nil {
		return err
	}
	return g.Bias.ScaleByInPlace(inv)
}

// check verifies that g fits layer l.
func (g *Gradient) check(l *Layer) error {
	if want := (tensor.Shape{l.outputs, l.inputs}); !g.Weights.Shape().Equal(want) {
		return &tensor.ShapeError{Op: "update weights", Expected: want, Got: g.Weights.Shape()}
	}
	if g.Bias.Dim() != l.outputs {
		return &tensor.ShapeError{Op: "update bias", Expected: tensor.Shape{l.outputs}, Got: g.Bias.Shape()}
	}
	return nil
}

// Gradients is an ordered list of gradients aligned with a network's layers.
type Gradients []*Gradient

// NewGradients returns zero gradients for every layer.
func NewGradients(layers []*Layer) (Gradients, error) {
	gs := make(Gradients, len(layers))
	for i, l := range layers {
		g, err := NewGradient(l)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		gs[i] = g
	}
	return gs, nil
}

// Sum accumulates other into gs layer by layer. Lists of different lengths
// come from different networks and fail with a *tensor.ShapeError.
func (gs Gradients) Sum(other Gradients) error {
	if len(gs) != len(other) {
		return &tensor.ShapeError{Op: "sum gradients", Expected: tensor.Shape{len(gs)}, Got: tensor.Shape{len(other)}}
	}
	for i := range gs {
		if err := gs[i].Sum(other[i]); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Average divides every gradient by n.
func (gs Gradients) Average(n int) error {
	for i, g := range gs {
		if err := g.Average(n); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}
