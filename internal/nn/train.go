package nn

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/born-ml/perceptron/internal/optim"
	"github.com/born-ml/perceptron/internal/parallel"
)

// TrainReport summarizes a Train call.
type TrainReport struct {
	Epochs       int           // Completed epochs
	Batches      int           // Weight updates applied
	Samples      int           // Samples per epoch
	BatchSize    int           // Configured batch size
	LearningRate float64       // Configured learning rate
	Loss         float64       // Mean sample loss of the last epoch
	Duration     time.Duration // Wall time
}

// TrainBatch runs one gradient descent step on batch.
//
// Per-sample gradients are computed by exec, each reading the current
// weights and writing only its own slot. After every task has finished the
// calling goroutine sums the gradients in sample order, averages them and
// updates each layer once. Any sequential or parallel executor therefore
// produces the same weights for the same batch.
//
// A failing sample aborts the batch before any weight changes; the error is
// a *SampleError holding the sample's index in batch.
//
// Returns the mean sample loss measured before the update.
func (n *Network) TrainBatch(ctx context.Context, batch []Sample, learningRate float64, exec parallel.Executor) (float64, error) {
	return n.trainBatch(ctx, batch, exec, func(total Gradients) error {
		for i, l := range n.layers {
			if err := l.Update(total[i], learningRate); err != nil {
				return fmt.Errorf("update layer %d: %w", i, err)
			}
		}
		return nil
	})
}

// trainBatch computes the averaged batch gradient and hands it to apply.
func (n *Network) trainBatch(ctx context.Context, batch []Sample, exec parallel.Executor, apply func(Gradients) error) (float64, error) {
	if len(batch) == 0 {
		return 0, ErrNoSamples
	}
	if len(n.layers) == 0 {
		return 0, ErrNoLayers
	}

	perSample := make([]Gradients, len(batch))
	losses := make([]float64, len(batch))
	err := exec.Run(ctx, len(batch), func(i int) error {
		g, loss, err := n.backprop(batch[i])
		if err != nil {
			return &SampleError{Index: i, Err: err}
		}
		perSample[i] = g
		losses[i] = loss
		return nil
	})
	if err != nil {
		return 0, err
	}

	total, err := NewGradients(n.layers)
	if err != nil {
		return 0, err
	}
	var loss float64
	for i, g := range perSample {
		if err := total.Sum(g); err != nil {
			return 0, &SampleError{Index: i, Err: err}
		}
		loss += losses[i]
	}
	if err := total.Average(len(batch)); err != nil {
		return 0, err
	}
	if err := apply(total); err != nil {
		return 0, err
	}
	return loss / float64(len(batch)), nil
}

// params pairs every layer parameter with its gradient in total.
func (n *Network) params(total Gradients) ([]optim.Param, error) {
	out := make([]optim.Param, 0, 2*len(n.layers))
	for i, l := range n.layers {
		if err := total[i].check(l); err != nil {
			return nil, fmt.Errorf("update layer %d: %w", i, err)
		}
		out = append(out,
			optim.Param{Name: layerParam(i, "weight"), Value: l.weights.Raw(), Grad: total[i].Weights.Raw()},
			optim.Param{Name: layerParam(i, "bias"), Value: l.bias.Raw(), Grad: total[i].Bias.Raw()},
		)
	}
	return out, nil
}

// Train runs mini-batch gradient descent.
//
// Updates go through an optim.SGD with cfg.Momentum; with zero momentum each
// step is the same as TrainBatch.
//
// Before the first epoch Train checks that the network has layers, is
// coherent, and that every sample fits it. Each epoch shuffles a copy of
// samples and splits it into batches of cfg.BatchSize (the last batch may be
// smaller), applying TrainBatch to each.
//
// The caller's slice is never reordered.
func (n *Network) Train(ctx context.Context, samples []Sample, cfg TrainConfig) (TrainReport, error) {
	if err := cfg.Validate(); err != nil {
		return TrainReport{}, err
	}
	cfg = cfg.withDefaults()
	log := cfg.logger()

	if len(n.layers) == 0 {
		return TrainReport{}, ErrNoLayers
	}
	if err := n.Coherence(); err != nil {
		return TrainReport{}, err
	}
	if len(samples) == 0 {
		return TrainReport{}, ErrNoSamples
	}
	for i, s := range samples {
		if err := n.CheckSample(s); err != nil {
			return TrainReport{}, &SampleError{Index: i, Err: err}
		}
	}

	rng := n.rng
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // shuffling is not security sensitive
	}
	exec := cfg.executor()
	opt := optim.NewSGD(optim.SGDConfig{LR: cfg.LearningRate, Momentum: cfg.Momentum})
	step := func(total Gradients) error {
		params, err := n.params(total)
		if err != nil {
			return err
		}
		return opt.Step(params)
	}
	order := slices.Clone(samples)

	report := TrainReport{
		Samples:      len(samples),
		BatchSize:    cfg.BatchSize,
		LearningRate: cfg.LearningRate,
	}
	start := time.Now()
	log.Debug("training started",
		"network", n.String(), "samples", len(samples), "epochs", cfg.Epochs,
		"batch_size", cfg.BatchSize, "learning_rate", cfg.LearningRate, "momentum", cfg.Momentum)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		var sum float64
		for lo := 0; lo < len(order); lo += cfg.BatchSize {
			hi := min(lo+cfg.BatchSize, len(order))
			loss, err := n.trainBatch(ctx, order[lo:hi], exec, step)
			if err != nil {
				log.Error("batch failed", "epoch", epoch, "batch", report.Batches, "err", err)
				report.Duration = time.Since(start)
				return report, fmt.Errorf("epoch %d, batch starting at %d: %w", epoch, lo, err)
			}
			sum += loss * float64(hi-lo)
			report.Batches++
		}

		report.Epochs++
		report.Loss = sum / float64(len(order))
		log.Debug("epoch finished", "epoch", report.Epochs, "loss", report.Loss, "batches", report.Batches)
	}

	report.Duration = time.Since(start)
	n.report = &report
	return report, nil
}

// Accuracy returns the fraction of samples whose prediction equals the
// expected class. Predictions run on exec.
func (n *Network) Accuracy(ctx context.Context, samples []Sample, exec parallel.Executor) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	hits := make([]bool, len(samples))
	err := exec.Run(ctx, len(samples), func(i int) error {
		got, err := n.Predict(samples[i].Input)
		if err != nil {
			return &SampleError{Index: i, Err: err}
		}
		hits[i] = got == samples[i].Expected
		return nil
	})
	if err != nil {
		return 0, err
	}

	correct := 0
	for _, hit := range hits {
		if hit {
			correct++
		}
	}
	return float64(correct) / float64(len(samples)), nil
}
