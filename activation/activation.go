// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package activation provides the public activation catalogue.
//
// Component-wise functions are Scalars lifted into a Func:
//
//	f := activation.Lift(activation.NewSigmoid())
//	g := activation.Lift(activation.Product{F: activation.Tanh{}, G: activation.Identity{}})
//
// Softmax acts on the whole vector. Checked wraps a scalar with a domain.
package activation

import (
	"github.com/born-ml/perceptron/internal/activation"
)

// Func is a differentiable vector function.
type Func = activation.Func

// Scalar is a differentiable function of one real variable.
type Scalar = activation.Scalar

// Catalogue.
type (
	Constant   = activation.Constant
	Identity   = activation.Identity
	Linear     = activation.Linear
	Exp        = activation.Exp
	Ln         = activation.Ln
	Sigmoid    = activation.Sigmoid
	Tanh       = activation.Tanh
	ReLU       = activation.ReLU
	Step       = activation.Step
	Polynomial = activation.Polynomial
	Sum        = activation.Sum
	Product    = activation.Product
	Ratio      = activation.Ratio
	Compose    = activation.Compose
	Softmax    = activation.Softmax
)

// Interval is a real interval used as a function domain.
type Interval = activation.Interval

// DomainError reports an argument outside a function's domain.
type DomainError = activation.DomainError

// Spec is the serializable description of a Func.
type Spec = activation.Spec

// Factory rebuilds a custom Func from its Spec.
type Factory = activation.Factory

// Common domains.
var (
	Reals    = activation.Reals
	Positive = activation.Positive
)

// Errors.
var (
	ErrOutOfDomain     = activation.ErrOutOfDomain
	ErrUnknownFunction = activation.ErrUnknownFunction
)

// Lift turns a Scalar into a component-wise Func.
func Lift(s Scalar) Func {
	return activation.Lift(s)
}

// Checked lifts s and rejects components outside d.
func Checked(s Scalar, d Interval) Func {
	return activation.Checked(s, d)
}

// Zero returns the constant 0.
func Zero() Scalar {
	return activation.Zero()
}

// NewSigmoid returns the standard logistic function.
func NewSigmoid() Sigmoid {
	return activation.NewSigmoid()
}

// NewPolynomial returns Σ coefficients[i]·xⁱ.
func NewPolynomial(coefficients ...float64) Polynomial {
	return activation.NewPolynomial(coefficients...)
}

// ParseInterval parses "(a, b]" style intervals.
func ParseInterval(s string) (Interval, error) {
	return activation.ParseInterval(s)
}

// Register adds a factory for a custom function so snapshots can restore it.
func Register(name string, factory Factory) error {
	return activation.Register(name, factory)
}

// Encode describes f as a Spec.
func Encode(f Func) (Spec, error) {
	return activation.Encode(f)
}

// Decode rebuilds the function described by spec.
func Decode(spec Spec) (Func, error) {
	return activation.Decode(spec)
}
