// Package parallel runs independent per-sample tasks under a selectable
// execution policy.
package parallel

import (
	"context"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum tasks per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on the number of physical cores.
// A per-sample task (forward plus backward pass) is heavy enough that a
// single task already justifies its own goroutine.
func DefaultConfig() Config {
	n := NumCores()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// NumCores returns the number of physical cores, or the logical CPU count
// when the topology cannot be detected.
func NumCores() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Executor runs tasks 0..n-1. Tasks must be independent: each may only
// write state owned by its own index.
//
// Run returns the first task error. Once a task fails no further tasks are
// started; tasks already running finish.
type Executor interface {
	Run(ctx context.Context, n int, task func(i int) error) error
}

// Sequential runs every task on the calling goroutine, in index order.
type Sequential struct{}

// Run implements Executor.
func (Sequential) Run(ctx context.Context, n int, task func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task(i); err != nil {
			return err
		}
	}
	return nil
}

// Pool runs tasks on a bounded set of goroutines.
type Pool struct {
	cfg Config
}

// NewPool returns an executor for cfg. Zero or negative NumWorkers selects
// NumCores.
func NewPool(cfg Config) *Pool {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = NumCores()
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = 1
	}
	return &Pool{cfg: cfg}
}

// Workers returns the goroutine limit.
func (p *Pool) Workers() int { return p.cfg.NumWorkers }

// Run implements Executor. Small inputs, or a disabled config, fall back to
// sequential execution.
func (p *Pool) Run(ctx context.Context, n int, task func(i int) error) error {
	if !p.cfg.Enabled || p.cfg.NumWorkers == 1 || n < p.cfg.MinChunkSize {
		return Sequential{}.Run(ctx, n, task)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.NumWorkers)
	chunkSize := max((n+p.cfg.NumWorkers-1)/p.cfg.NumWorkers, p.cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		start := start
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := task(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// New returns the executor selected by cfg: a Pool when parallelism is
// enabled, otherwise Sequential.
func New(cfg Config) Executor {
	if !cfg.Enabled {
		return Sequential{}
	}
	return NewPool(cfg)
}

// For runs f(i) for i in [0, n) under cfg and returns the first error.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int) error, cfg Config) error {
	return New(cfg).Run(context.Background(), n, f)
}
