package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/qbench/backend"
	"github.com/weiihann/qbench/circuit"
	"github.com/weiihann/qbench/compiler"
	"github.com/weiihann/qbench/workload"
)

// CompileConfig holds the transpile and assemble settings applied to
// every case.
type CompileConfig struct {
	Transpile compiler.TranspileConfig
	Assemble  compiler.AssembleConfig
}

// DefaultCompileConfig returns transpile level 1 and default shots.
func DefaultCompileConfig() CompileConfig {
	return CompileConfig{
		Transpile: compiler.DefaultTranspileConfig(),
	}
}

// Compiled is a case ready for timing: its circuits and the payload the
// backend controller consumes.
type Compiled struct {
	Case        workload.Case
	Circuit     *circuit.Circuit
	Transpiled  *circuit.Circuit
	Qobj        *compiler.Qobj
	Payload     []byte
	CompileTime time.Duration
}

// compile runs transpile, assemble and payload formatting for circ.
func compile(
	sim *backend.Statevector,
	cfg CompileConfig,
	circ *circuit.Circuit,
) (*circuit.Circuit, *compiler.Qobj, []byte, error) {
	experiment, err := compiler.Transpile(circ, cfg.Transpile)
	if err != nil {
		return nil, nil, nil, err
	}

	qobj, err := compiler.Assemble([]*circuit.Circuit{experiment}, cfg.Assemble)
	if err != nil {
		return nil, nil, nil, err
	}

	payload, err := sim.FormatQobj(qobj)
	if err != nil {
		return nil, nil, nil, err
	}

	return experiment, qobj, payload, nil
}

// Build compiles a benchmark case for the runner's backend.
func (r *Runner) Build(ctx context.Context, c workload.Case) (*Compiled, error) {
	start := time.Now()

	circ, err := c.Circuit()
	if err != nil {
		return nil, err
	}

	if circ.NumQubits > r.Backend.MaxQubits() {
		return nil, fmt.Errorf("build %s: %w: %d > %d",
			c.Name(), backend.ErrTooManyQubits,
			circ.NumQubits, r.Backend.MaxQubits())
	}

	transpiled, qobj, payload, err := compile(r.Backend, r.Compile, circ)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", c.Name(), err)
	}

	compiled := &Compiled{
		Case:        c,
		Circuit:     circ,
		Transpiled:  transpiled,
		Qobj:        qobj,
		Payload:     payload,
		CompileTime: time.Since(start),
	}

	r.Logger.DebugContext(ctx, "case compiled",
		slog.String("case", c.Name()),
		slog.Int("gates", transpiled.Len()),
		slog.Int("payload_bytes", len(payload)),
		slog.Duration("compile_time", compiled.CompileTime),
	)

	return compiled, nil
}
