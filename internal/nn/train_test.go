package nn_test

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/parallel"
	"github.com/born-ml/perceptron/internal/tensor"
)

func TestTrainBatchDescends(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(3)).AddLayer(2, sigmoid)
	s, err := nn.NewSample(tensor.Float64, 0, 1, 1)
	require.NoError(t, err)
	batch := []nn.Sample{s}

	prev, err := net.TrainBatch(context.Background(), batch, 0.1, parallel.Sequential{})
	require.NoError(t, err)
	for i := 1; i < 50; i++ {
		loss, err := net.TrainBatch(context.Background(), batch, 0.1, parallel.Sequential{})
		require.NoError(t, err)
		require.Less(t, loss, prev, "iteration %d", i)
		prev = loss
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64, tensor.Decimal} {
		t.Run(dt.String(), func(t *testing.T) {
			build := func() *nn.Network {
				return nn.NewNetwork(2, dt, nn.WithSeed(9)).
					AddLayer(4, activation.Lift(activation.Tanh{})).
					AddLayer(2, sigmoid)
			}
			n := 24
			if dt == tensor.Decimal {
				n = 8
			}
			samples := blobs(t, dt, n, 17)

			seq, par := build(), build()
			cfg := nn.TrainConfig{Epochs: 2, BatchSize: 4, LearningRate: 0.3, Seed: 5}

			cfg.Executor = parallel.Sequential{}
			_, err := seq.Train(context.Background(), samples, cfg)
			require.NoError(t, err)

			cfg.Executor = parallel.NewPool(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
			_, err = par.Train(context.Background(), samples, cfg)
			require.NoError(t, err)

			assert.True(t, weightsEqual(seq, par), "weights differ between executors")
		})
	}
}

func TestTrainLearnsSeparableClasses(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1), nn.WithInitializer(nn.Xavier)).
		AddLayer(4, activation.Lift(activation.Tanh{})).
		AddLayer(2, sigmoid)
	train := blobs(t, tensor.Float64, 200, 1)
	test := blobs(t, tensor.Float64, 100, 2)

	report, err := net.Train(context.Background(), train, nn.TrainConfig{
		Epochs:       20,
		BatchSize:    10,
		LearningRate: 0.5,
		Parallel:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, report.Epochs)
	assert.Equal(t, 400, report.Batches)
	assert.Equal(t, 200, report.Samples)

	last, ok := net.LastReport()
	require.True(t, ok)
	assert.Equal(t, report, last)

	acc, err := net.Accuracy(context.Background(), test, parallel.Sequential{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.9)
}

func TestTrainDefaults(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, sigmoid)
	report, err := net.Train(context.Background(), blobs(t, tensor.Float64, 25, 3), nn.TrainConfig{})
	require.NoError(t, err)
	assert.Equal(t, nn.DefaultEpochs, report.Epochs)
	assert.Equal(t, nn.DefaultBatchSize, report.BatchSize)
	assert.Equal(t, nn.DefaultLearningRate, report.LearningRate)
	assert.Equal(t, 3, report.Batches, "last batch is partial")
}

func TestTrainKeepsCallerOrder(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, sigmoid)
	samples := blobs(t, tensor.Float64, 20, 4)
	expected := make([]int, len(samples))
	for i, s := range samples {
		expected[i] = s.Expected
	}

	_, err := net.Train(context.Background(), samples, nn.TrainConfig{Epochs: 3, BatchSize: 3})
	require.NoError(t, err)
	for i, s := range samples {
		assert.Equal(t, expected[i], s.Expected)
	}
}

func TestTrainValidation(t *testing.T) {
	ctx := context.Background()
	samples := blobs(t, tensor.Float64, 4, 1)

	_, err := nn.NewNetwork(2, tensor.Float64).Train(ctx, samples, nn.TrainConfig{})
	require.ErrorIs(t, err, nn.ErrNoLayers)

	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(3, sigmoid).AddLayer(2, sigmoid)
	before := params(net)

	_, err = net.Train(ctx, nil, nn.TrainConfig{})
	require.ErrorIs(t, err, nn.ErrNoSamples)

	_, err = net.Train(ctx, samples, nn.TrainConfig{BatchSize: -1})
	require.ErrorIs(t, err, nn.ErrInvalidConfig)

	bad := append([]nn.Sample{}, samples...)
	bad[2].Expected = 9
	_, err = net.Train(ctx, bad, nn.TrainConfig{})
	require.ErrorIs(t, err, nn.ErrInvalidSample)
	var sampleErr *nn.SampleError
	require.ErrorAs(t, err, &sampleErr)
	assert.Equal(t, 2, sampleErr.Index)

	assert.Equal(t, before, params(net), "rejected runs leave the weights alone")
	_, ok := net.LastReport()
	assert.False(t, ok)

	require.NoError(t, net.RemoveLayer(0))
	_, err = net.Train(ctx, samples, nn.TrainConfig{})
	require.ErrorIs(t, err, nn.ErrIncoherent)
}

func TestTrainBatchFailureIsAtomic(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, sigmoid)
	before := params(net)

	batch := blobs(t, tensor.Float64, 6, 8)
	batch[4].Expected = 7

	pool := parallel.NewPool(parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1})
	_, err := net.TrainBatch(context.Background(), batch, 0.1, pool)
	var sampleErr *nn.SampleError
	require.ErrorAs(t, err, &sampleErr)
	assert.Equal(t, 4, sampleErr.Index)
	assert.Equal(t, before, params(net))

	_, err = net.TrainBatch(context.Background(), nil, 0.1, pool)
	require.ErrorIs(t, err, nn.ErrNoSamples)
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, sigmoid)
	_, err := net.Train(ctx, blobs(t, tensor.Float64, 10, 1), nn.TrainConfig{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrainLogsEpochs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, sigmoid)
	_, err := net.Train(context.Background(), blobs(t, tensor.Float64, 10, 1), nn.TrainConfig{
		Epochs: 2,
		Logger: logger,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "training started")
	assert.Contains(t, buf.String(), "epoch=2")
}

func TestAccuracy(t *testing.T) {
	net := nn.NewNetwork(2, tensor.Float64, nn.WithSeed(1)).AddLayer(2, identity)
	require.NoError(t, net.LoadStateDict(stateDictOf(t, tensor.Float64,
		[][]float64{{1, 0}, {0, 1}}, []float64{0, 0})))

	a, _ := nn.NewSample(tensor.Float64, 0, 1, 0)
	b, _ := nn.NewSample(tensor.Float64, 1, 0, 1)
	c, _ := nn.NewSample(tensor.Float64, 1, 1, 0)

	acc, err := net.Accuracy(context.Background(), []nn.Sample{a, b, c}, parallel.New(parallel.DefaultConfig()))
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, acc, 1e-12)

	_, err = net.Accuracy(context.Background(), nil, parallel.Sequential{})
	require.ErrorIs(t, err, nn.ErrNoSamples)
}

func TestTrainMatchesTrainBatch(t *testing.T) {
	build := func() *nn.Network {
		return nn.NewNetwork(2, tensor.Float64, nn.WithSeed(12)).AddLayer(3, sigmoid).AddLayer(2, sigmoid)
	}
	samples := blobs(t, tensor.Float64, 12, 6)

	viaTrain := build()
	_, err := viaTrain.Train(context.Background(), samples, nn.TrainConfig{
		BatchSize: 4, LearningRate: 0.2, Seed: 77, Executor: parallel.Sequential{},
	})
	require.NoError(t, err)

	manual := build()
	order := append([]nn.Sample{}, samples...)
	rng := rand.New(rand.NewSource(77))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for lo := 0; lo < len(order); lo += 4 {
		_, err := manual.TrainBatch(context.Background(), order[lo:lo+4], 0.2, parallel.Sequential{})
		require.NoError(t, err)
	}

	assert.True(t, weightsEqual(viaTrain, manual))
}

func TestTrainWithMomentum(t *testing.T) {
	build := func() *nn.Network {
		return nn.NewNetwork(2, tensor.Float64, nn.WithSeed(2)).AddLayer(2, sigmoid)
	}
	samples := blobs(t, tensor.Float64, 40, 4)
	cfg := nn.TrainConfig{Epochs: 3, BatchSize: 8, LearningRate: 0.1, Seed: 1}

	plain := build()
	_, err := plain.Train(context.Background(), samples, cfg)
	require.NoError(t, err)

	cfg.Momentum = 0.9
	heavy := build()
	report, err := heavy.Train(context.Background(), samples, cfg)
	require.NoError(t, err)
	assert.Equal(t, 15, report.Batches)
	assert.False(t, weightsEqual(plain, heavy), "momentum changes the trajectory")

	cfg.Momentum = 1
	_, err = heavy.Train(context.Background(), samples, cfg)
	require.ErrorIs(t, err, nn.ErrInvalidConfig)
}
