// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides parameter update rules.
//
// Network.Train builds an SGD from TrainConfig.LearningRate and
// TrainConfig.Momentum. The optimizer can also be driven directly:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.05, Momentum: 0.9})
//	err := opt.Step([]optim.Param{{Name: "w", Value: w.Raw(), Grad: g.Raw()}})
package optim

import (
	"github.com/born-ml/perceptron/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Param pairs a parameter's storage with its gradient.
type Param = optim.Param

// SGD represents gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// ErrGradientMismatch reports a gradient that does not fit its parameter.
var ErrGradientMismatch = optim.ErrGradientMismatch

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}
