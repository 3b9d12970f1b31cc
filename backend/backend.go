// Package backend implements the statevector simulator that executes
// assembled jobs. The harness talks to it in two calls: FormatQobj turns
// a Qobj into the wire payload, Controller runs a payload.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/qbench/circuit"
	"github.com/weiihann/qbench/compiler"
)

// Name is the registry name of the statevector simulator.
const Name = "statevector_simulator"

const (
	DefaultMaxQubits = 28
	// DefaultParallelQubits is the smallest register split across
	// threads.
	DefaultParallelQubits = 14

	method = "statevector"
)

var (
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrTooManyQubits      = errors.New("too many qubits")
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrInvalidQobj        = errors.New("invalid qobj payload")
)

// Config holds simulator settings.
type Config struct {
	MaxQubits int
	// Threads bounds the goroutines used by a single gate. 1 keeps
	// execution single-threaded.
	Threads        int
	ParallelQubits int
	Metrics        *Metrics
}

// Known returns the list of supported backend names.
func Known() []string {
	return []string{Name}
}

// Resolve maps a backend name or alias to its registry name.
func Resolve(name string) (string, error) {
	switch name {
	case Name, method:
		return Name, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownBackend, name)
	}
}

// Get returns the named backend.
func Get(name string, cfg Config, logger *slog.Logger) (*Statevector, error) {
	resolved, err := Resolve(name)
	if err != nil {
		return nil, err
	}

	return NewStatevector(resolved, cfg, logger), nil
}

// Statevector simulates jobs on a dense complex128 amplitude vector.
// It holds no per-run state and can be shared.
type Statevector struct {
	name    string
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

// NewStatevector creates a simulator. Zero config fields take the
// package defaults.
func NewStatevector(name string, cfg Config, logger *slog.Logger) *Statevector {
	if cfg.MaxQubits <= 0 {
		cfg.MaxQubits = DefaultMaxQubits
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	if cfg.ParallelQubits <= 0 {
		cfg.ParallelQubits = DefaultParallelQubits
	}

	return &Statevector{
		name:    name,
		cfg:     cfg,
		logger:  logger.With(slog.String("backend", name)),
		metrics: cfg.Metrics,
	}
}

// Name returns the registry name.
func (s *Statevector) Name() string {
	return s.name
}

// MaxQubits returns the largest register the backend accepts.
func (s *Statevector) MaxQubits() int {
	return s.cfg.MaxQubits
}

// FormatQobj serializes q into the controller payload, filling in the
// backend's run options.
func (s *Statevector) FormatQobj(q *compiler.Qobj) ([]byte, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil qobj", ErrInvalidQobj)
	}

	out := *q
	out.Config.Method = method
	if out.Config.Threads == 0 {
		out.Config.Threads = s.cfg.Threads
	}

	payload, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encode qobj %s: %w", q.QobjID, err)
	}

	return payload, nil
}

// Controller decodes payload and runs every experiment from |0...0>.
// A malformed payload is an error; a failing experiment is reported in
// the result and by Result.Err.
func (s *Statevector) Controller(ctx context.Context, payload []byte) (*Result, error) {
	start := time.Now()

	var q compiler.Qobj
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQobj, err)
	}

	threads := s.cfg.Threads
	if q.Config.Threads > 0 {
		threads = q.Config.Threads
	}

	result := &Result{
		Backend: s.name,
		QobjID:  q.QobjID,
		Success: true,
		Results: make([]ExperimentResult, 0, len(q.Experiments)),
	}

	for _, exp := range q.Experiments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		er, err := s.runExperiment(ctx, exp, threads)
		if err != nil {
			return nil, err
		}

		if !er.Success {
			result.Success = false
		}

		result.Results = append(result.Results, er)
	}

	result.Status = StatusCompleted
	if !result.Success {
		result.Status = StatusError
	}

	result.TimeTaken = time.Since(start)
	s.metrics.observeController(result.TimeTaken)

	return result, nil
}

// runExperiment simulates one experiment. The returned error is set only
// when ctx ends mid-run; other failures are recorded in the result.
func (s *Statevector) runExperiment(
	ctx context.Context,
	exp compiler.Experiment,
	threads int,
) (ExperimentResult, error) {
	start := time.Now()
	nq := exp.Header.NQubits

	er := ExperimentResult{
		Name:    exp.Header.Name,
		NQubits: nq,
	}

	fail := func(err error) ExperimentResult {
		er.Status = StatusError
		er.Error = err.Error()
		er.err = err
		er.TimeTaken = time.Since(start)

		s.logger.Warn("experiment failed",
			slog.String("experiment", er.Name),
			slog.String("error", err.Error()),
		)
		s.metrics.observeExperiment(s.name, StatusError, 0)

		return er
	}

	if nq <= 0 {
		return fail(fmt.Errorf("%w: experiment %q has no qubits", ErrInvalidQobj, er.Name)), nil
	}

	if nq > s.cfg.MaxQubits {
		return fail(fmt.Errorf("%w: %d > %d", ErrTooManyQubits, nq, s.cfg.MaxQubits)), nil
	}

	loop := &looper{threads: 1}
	if threads > 1 && nq >= s.cfg.ParallelQubits {
		loop = &looper{threads: threads, minChunk: 1 << max(s.cfg.ParallelQubits-4, 0)}
	}

	st := newState(nq, loop)

	for i, in := range exp.Instructions {
		if err := ctx.Err(); err != nil {
			s.metrics.observeExperiment(s.name, StatusError, i)
			return er, fmt.Errorf("experiment %q stopped at instruction %d: %w", er.Name, i, err)
		}

		if err := validate(in, nq); err != nil {
			return fail(fmt.Errorf("instruction %d: %w", i, err)), nil
		}

		if err := st.apply(in); err != nil {
			return fail(fmt.Errorf("instruction %d: %w", i, err)), nil
		}
	}

	er.Success = true
	er.Status = StatusDone
	er.Statevector = st.amps
	er.TimeTaken = time.Since(start)

	s.metrics.observeExperiment(s.name, StatusDone, len(exp.Instructions))

	return er, nil
}

// validate checks operand counts and ranges so the kernels can index
// without bounds surprises.
func validate(in compiler.Instruction, nq int) error {
	gs, ok := circuit.Lookup(in.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstruction, in.Name)
	}

	if len(in.Qubits) != gs.NumQubits || len(in.Params) != gs.NumParams {
		return fmt.Errorf("%w: %s with %d qubits and %d params",
			ErrInvalidQobj, in.Name, len(in.Qubits), len(in.Params))
	}

	seen := 0
	for _, q := range in.Qubits {
		if q < 0 || q >= nq {
			return fmt.Errorf("%w: %s on qubit %d of %d",
				ErrInvalidQobj, in.Name, q, nq)
		}

		if seen&(1<<q) != 0 {
			return fmt.Errorf("%w: %s repeats qubit %d",
				ErrInvalidQobj, in.Name, q)
		}

		seen |= 1 << q
	}

	return nil
}
