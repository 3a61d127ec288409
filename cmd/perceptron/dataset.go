package main

import (
	"math/rand"

	"github.com/born-ml/perceptron/internal/mnist"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// clusters generates one Gaussian cluster per class. Centres are drawn
// uniformly from [-2, 2] in every dimension.
type clusters struct {
	centres [][]float64
	spread  float64
	rng     *rand.Rand
}

func newClusters(dim, classes int, spread float64, seed int64) *clusters {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
	centres := make([][]float64, classes)
	for c := range centres {
		centres[c] = make([]float64, dim)
		for i := range centres[c] {
			centres[c][i] = 4*rng.Float64() - 2
		}
	}
	return &clusters{centres: centres, spread: spread, rng: rng}
}

// samples draws n samples, cycling through the classes.
func (c *clusters) samples(dt tensor.DataType, n int) ([]nn.Sample, error) {
	out := make([]nn.Sample, n)
	x := make([]float64, len(c.centres[0]))
	for i := range out {
		class := i % len(c.centres)
		for j, centre := range c.centres[class] {
			x[j] = centre + c.spread*c.rng.NormFloat64()
		}
		s, err := nn.NewSample(dt, class, x...)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// mnistSamples loads up to trainN training and testN test images from dir.
func mnistSamples(dir string, dt tensor.DataType, trainN, testN int) ([]nn.Sample, []nn.Sample, error) {
	trainSet, err := mnist.Load(dir, true)
	if err != nil {
		return nil, nil, err
	}
	testSet, err := mnist.Load(dir, false)
	if err != nil {
		return nil, nil, err
	}
	train, err := trainSet.Samples(dt, trainN)
	if err != nil {
		return nil, nil, err
	}
	test, err := testSet.Samples(dt, testN)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
