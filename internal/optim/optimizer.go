// Package optim implements parameter update rules for gradient descent.
//
// This package provides:
//   - Optimizer interface: applies one step to a set of parameters
//   - SGD: gradient descent with optional momentum
//
// Example usage:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//
//	for _, batch := range batches {
//	    grads := computeGradients(batch)
//	    if err := opt.Step(params(grads)); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"errors"

	"github.com/born-ml/perceptron/internal/tensor"
)

// ErrGradientMismatch reports a gradient whose storage does not match its
// parameter.
var ErrGradientMismatch = errors.New("gradient does not match parameter")

// Param pairs a parameter's storage with its gradient for the current step.
//
// Value is updated in place. Name identifies the parameter across steps;
// optimizers that keep per-parameter state (velocities) key it by Name.
type Param struct {
	Name  string
	Value tensor.Raw
	Grad  tensor.Raw
}

// Optimizer is the base interface for update rules.
type Optimizer interface {
	// Step applies one update to every parameter.
	Step(params []Param) error

	// LR returns the current learning rate.
	LR() float64
}

func checkParam(p Param) error {
	if p.Value == nil || p.Grad == nil {
		return ErrGradientMismatch
	}
	if p.Value.Len() != p.Grad.Len() || p.Value.DType() != p.Grad.DType() {
		return ErrGradientMismatch
	}
	return nil
}
