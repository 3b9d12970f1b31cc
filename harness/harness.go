package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/qbench/backend"
	"github.com/weiihann/qbench/circuit"
	"github.com/weiihann/qbench/workload"
)

// RunConfig holds parameters for timing a single case.
type RunConfig struct {
	// Warmup controller calls are made before timing starts.
	Warmup int
	// Rounds is the minimum number of timed calls.
	Rounds int
	// MinTime keeps adding rounds until the timed total reaches it.
	MinTime time.Duration
	Timeout time.Duration
}

// Runner compiles cases and times them on one backend.
type Runner struct {
	Backend *backend.Statevector
	Compile CompileConfig
	Logger  *slog.Logger
}

// NewRunner creates a Runner for the given backend.
func NewRunner(
	sim *backend.Statevector,
	compile CompileConfig,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Backend: sim,
		Compile: compile,
		Logger:  logger.With(slog.String("backend", sim.Name())),
	}
}

// Execute runs circ through the whole pipeline once and returns the
// backend result. Nothing is timed.
func (r *Runner) Execute(ctx context.Context, circ *circuit.Circuit) (*backend.Result, error) {
	_, _, payload, err := compile(r.Backend, r.Compile, circ)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", circ.Name, err)
	}

	res, err := r.Backend.Controller(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", circ.Name, err)
	}

	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("execute %s: %w", circ.Name, err)
	}

	return res, nil
}

// Run compiles c and times the controller call on its payload.
func (r *Runner) Run(ctx context.Context, c workload.Case, cfg RunConfig) (*Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	rounds := max(cfg.Rounds, 1)

	compiled, err := r.Build(ctx, c)
	if err != nil {
		return nil, err
	}

	logger := r.Logger.With(slog.String("case", c.Name()))
	logger.Info("starting case",
		slog.Int("gates", compiled.Transpiled.Len()),
		slog.Int("warmup", cfg.Warmup),
		slog.Int("rounds", rounds),
	)

	for i := 0; i < cfg.Warmup; i++ {
		if _, err := r.call(ctx, compiled); err != nil {
			return nil, fmt.Errorf("warmup %s: %w", c.Name(), err)
		}
	}

	samples := make([]time.Duration, 0, rounds)
	var total time.Duration

	for len(samples) < rounds || total < cfg.MinTime {
		d, err := r.call(ctx, compiled)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", c.Name(), err)
		}

		samples = append(samples, d)
		total += d
	}

	st := computeStats(samples)

	logger.Info("case finished",
		slog.Int("rounds", st.Rounds),
		slog.Duration("min", st.Min),
		slog.Duration("mean", st.Mean),
	)

	return &Result{
		Group:            c.Group,
		Name:             c.Name(),
		Backend:          r.Backend.Name(),
		NQubits:          c.NQubits,
		Gates:            compiled.Transpiled.Len(),
		Depth:            compiled.Transpiled.Depth(),
		Rounds:           st.Rounds,
		MinNs:            st.Min.Nanoseconds(),
		MaxNs:            st.Max.Nanoseconds(),
		MeanNs:           st.Mean.Nanoseconds(),
		MedianNs:         st.Median.Nanoseconds(),
		StdDevNs:         st.StdDev.Nanoseconds(),
		OPS:              st.OPS,
		CompileNs:        compiled.CompileTime.Nanoseconds(),
		StatevectorBytes: backend.StatevectorBytes(c.NQubits),
	}, nil
}

// call times a single controller invocation on the compiled payload.
func (r *Runner) call(ctx context.Context, compiled *Compiled) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	res, err := r.Backend.Controller(ctx, compiled.Payload)
	elapsed := time.Since(start)

	if err != nil {
		return 0, err
	}

	if err := res.Err(); err != nil {
		return 0, err
	}

	return elapsed, nil
}

// RunAll runs every case in order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, cases []workload.Case, cfg RunConfig) ([]Result, error) {
	results := make([]Result, 0, len(cases))

	for _, c := range cases {
		res, err := r.Run(ctx, c, cfg)
		if err != nil {
			return nil, err
		}

		results = append(results, *res)
	}

	return results, nil
}
