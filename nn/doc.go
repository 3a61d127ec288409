// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides multi-layer perceptrons trained by mini-batch
// gradient descent.
//
// # Overview
//
// This package contains:
//   - Layer: fully connected layer computing f(W·x + b)
//   - Network: ordered layers with feed-forward, back-propagation and training
//   - Gradient, Gradients: per-layer loss gradients
//   - OutputDelta: CrossEntropy (default) and SquaredError
//   - TrainConfig, Config: training parameters, YAML loading
//   - Save, Load: .born snapshots
//
// # Basic Usage
//
//	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).
//	    AddLayer(8, activation.Lift(activation.Tanh{})).
//	    AddLayer(2, activation.Lift(activation.NewSigmoid()))
//
//	report, err := net.Train(ctx, samples, nn.TrainConfig{
//	    Epochs:       10,
//	    BatchSize:    16,
//	    LearningRate: 0.5,
//	    Parallel:     true,
//	})
//
//	class, err := net.Predict(x)
//
// # Parallel Training
//
// Per-sample gradients of a batch are computed concurrently, then summed in
// sample order by the calling goroutine. Sequential and parallel runs produce
// identical weights.
//
// # Persistence
//
//	err := net.SaveFile("model.born")
//	restored, err := nn.LoadFile("model.born")
package nn
