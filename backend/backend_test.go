package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/weiihann/qbench/circuit"
	"github.com/weiihann/qbench/compiler"
)

const tolerance = 1e-12

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBackend(t testing.TB, cfg Config) *Statevector {
	t.Helper()

	sv, err := Get(Name, cfg, discardLogger())
	require.NoError(t, err)

	return sv
}

// simulate executes c through the full compile path and returns the final
// statevector.
func simulate(sv *Statevector, c *circuit.Circuit, level int) ([]complex128, error) {
	tc, err := compiler.Transpile(c, compiler.TranspileConfig{OptimizationLevel: level})
	if err != nil {
		return nil, err
	}

	q, err := compiler.Assemble([]*circuit.Circuit{tc}, compiler.AssembleConfig{})
	if err != nil {
		return nil, err
	}

	payload, err := sv.FormatQobj(q)
	if err != nil {
		return nil, err
	}

	res, err := sv.Controller(context.Background(), payload)
	if err != nil {
		return nil, err
	}

	if err := res.Err(); err != nil {
		return nil, err
	}

	if len(res.Results) != 1 {
		return nil, fmt.Errorf("got %d experiment results, want 1", len(res.Results))
	}

	return res.Results[0].Statevector, nil
}

func run(t testing.TB, sv *Statevector, c *circuit.Circuit, level int) []complex128 {
	t.Helper()

	amps, err := simulate(sv, c, level)
	require.NoError(t, err)

	return amps
}

func assertBasis(t *testing.T, amps []complex128, index int) {
	t.Helper()

	for i, a := range amps {
		want := complex(0, 0)
		if i == index {
			want = 1
		}

		assert.InDelta(t, 0, cmplx.Abs(a-want), tolerance, "amplitude %d = %v", i, a)
	}
}

func TestSingleGates(t *testing.T) {
	sv := newTestBackend(t, Config{})

	t.Run("x on qubit 1", func(t *testing.T) {
		assertBasis(t, run(t, sv, circuit.New(4).X(1), 1), 0b0010)
	})

	t.Run("cx flips target when control set", func(t *testing.T) {
		assertBasis(t, run(t, sv, circuit.New(4).X(1).CX(1, 2), 1), 0b0110)
	})

	t.Run("cx idle when control clear", func(t *testing.T) {
		assertBasis(t, run(t, sv, circuit.New(4).CX(1, 2), 1), 0)
	})

	t.Run("toffoli needs both controls", func(t *testing.T) {
		assertBasis(t, run(t, sv, circuit.New(4).X(2).CCX(2, 3, 0), 1), 0b0100)
		assertBasis(t, run(t, sv, circuit.New(4).X(2).X(3).CCX(2, 3, 0), 1), 0b1101)
	})

	t.Run("swap", func(t *testing.T) {
		assertBasis(t, run(t, sv, circuit.New(3).X(0).Swap(0, 2), 1), 0b100)
	})

	t.Run("y", func(t *testing.T) {
		amps := run(t, sv, circuit.New(1).Y(0), 1)
		assert.InDelta(t, 0, cmplx.Abs(amps[1]-1i), tolerance)
	})
}

func TestHadamardSuperposition(t *testing.T) {
	sv := newTestBackend(t, Config{})

	amps := run(t, sv, circuit.New(4).H(1), 1)
	half := complex(1/math.Sqrt2, 0)

	assert.InDelta(t, 0, cmplx.Abs(amps[0]-half), tolerance)
	assert.InDelta(t, 0, cmplx.Abs(amps[2]-half), tolerance)
	assert.InDelta(t, 1.0, norm(amps), tolerance)
}

func TestPhaseGates(t *testing.T) {
	sv := newTestBackend(t, Config{})

	amps := run(t, sv, circuit.New(1).X(0).T(0), 0)
	assert.InDelta(t, 0, cmplx.Abs(amps[1]-cmplx.Exp(complex(0, math.Pi/4))), tolerance)

	// T twice is S, and S then Sdg is identity.
	amps = run(t, sv, circuit.New(1).X(0).T(0).T(0).Sdg(0), 0)
	assertBasis(t, amps, 1)

	amps = run(t, sv, circuit.New(2).X(0).X(1).CZ(0, 1), 0)
	assert.InDelta(t, 0, cmplx.Abs(amps[3]+1), tolerance)

	amps = run(t, sv, circuit.New(1).RZ(math.Pi, 0), 0)
	assert.InDelta(t, 0, cmplx.Abs(amps[0]+1i), tolerance)
}

func TestRotations(t *testing.T) {
	sv := newTestBackend(t, Config{})

	amps := run(t, sv, circuit.New(1).RX(math.Pi, 0), 0)
	assert.InDelta(t, 0, cmplx.Abs(amps[1]+1i), tolerance)

	amps = run(t, sv, circuit.New(1).RY(math.Pi, 0), 0)
	assert.InDelta(t, 0, cmplx.Abs(amps[1]-1), tolerance)
}

func randomCircuit(t *rapid.T, nq int) *circuit.Circuit {
	c := circuit.New(nq)
	names := circuit.GateNames()

	steps := rapid.IntRange(0, 40).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		name := rapid.SampledFrom(names).Draw(t, "gate")
		gs, _ := circuit.Lookup(name)
		if gs.NumQubits > nq {
			continue
		}

		perm := rapid.Permutation(rangeOf(nq)).Draw(t, "qubits")
		params := make([]float64, gs.NumParams)
		for j := range params {
			params[j] = rapid.Float64Range(-2*math.Pi, 2*math.Pi).Draw(t, "theta")
		}

		if err := c.Apply(name, perm[:gs.NumQubits], params...); err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
	}

	return c
}

func rangeOf(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

func TestNormPreserved(t *testing.T) {
	sv := newTestBackend(t, Config{})

	rapid.Check(t, func(rt *rapid.T) {
		nq := rapid.IntRange(1, 6).Draw(rt, "nqubits")
		c := randomCircuit(rt, nq)

		amps, err := simulate(sv, c, 0)
		if err != nil {
			rt.Fatalf("simulate: %v", err)
		}

		if got := norm(amps); math.Abs(got-1) > 1e-9 {
			rt.Fatalf("norm = %v after %d gates", got, c.Len())
		}
	})
}

func TestTranspilePreservesState(t *testing.T) {
	sv := newTestBackend(t, Config{})

	rapid.Check(t, func(rt *rapid.T) {
		nq := rapid.IntRange(1, 5).Draw(rt, "nqubits")
		c := randomCircuit(rt, nq)

		raw, err := simulate(sv, c, 0)
		if err != nil {
			rt.Fatalf("simulate level 0: %v", err)
		}

		opt, err := simulate(sv, c, 1)
		if err != nil {
			rt.Fatalf("simulate level 1: %v", err)
		}

		for i := range raw {
			if cmplx.Abs(raw[i]-opt[i]) > 1e-9 {
				rt.Fatalf("amplitude %d: %v != %v", i, raw[i], opt[i])
			}
		}
	})
}

func TestParallelMatchesSerial(t *testing.T) {
	serial := newTestBackend(t, Config{Threads: 1})
	parallel := newTestBackend(t, Config{Threads: 4, ParallelQubits: 6})

	c := circuit.New(8)
	for q := 0; q < 8; q++ {
		c.H(q).RZ(0.3*float64(q+1), q)
	}
	c.CX(0, 7).CCX(1, 2, 6).Swap(3, 5).RX(1.0, 4).T(2)
	require.NoError(t, c.Err())

	want := run(t, serial, c, 1)
	got := run(t, parallel, c, 1)

	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, 0, cmplx.Abs(want[i]-got[i]), tolerance, "amplitude %d", i)
	}
}

func TestLooperCoversRange(t *testing.T) {
	l := &looper{threads: 3, minChunk: 4}

	hits := make([]int, 50)
	l.run(len(hits), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			hits[i]++
		}
	})

	for i, h := range hits {
		assert.Equal(t, 1, h, "index %d", i)
	}
}

func TestGetResolvesAliases(t *testing.T) {
	for _, name := range []string{"statevector_simulator", "statevector"} {
		sv, err := Get(name, Config{}, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, Name, sv.Name())
	}

	_, err := Get("qasm_simulator", Config{}, discardLogger())
	require.ErrorIs(t, err, ErrUnknownBackend)

	assert.Equal(t, []string{Name}, Known())
}

func TestFormatQobjSetsRunOptions(t *testing.T) {
	sv := newTestBackend(t, Config{Threads: 3})

	q, err := compiler.Assemble([]*circuit.Circuit{circuit.New(2).X(0)}, compiler.AssembleConfig{})
	require.NoError(t, err)

	payload, err := sv.FormatQobj(q)
	require.NoError(t, err)

	assert.Contains(t, string(payload), `"method":"statevector"`)
	assert.Contains(t, string(payload), `"max_parallel_threads":3`)
	assert.Empty(t, q.Config.Method, "input qobj must not be modified")

	_, err = sv.FormatQobj(nil)
	require.ErrorIs(t, err, ErrInvalidQobj)
}

func TestControllerErrors(t *testing.T) {
	sv := newTestBackend(t, Config{MaxQubits: 4})
	ctx := context.Background()

	_, err := sv.Controller(ctx, []byte("{not json"))
	require.ErrorIs(t, err, ErrInvalidQobj)

	q, err := compiler.Assemble([]*circuit.Circuit{circuit.New(5).X(0)}, compiler.AssembleConfig{})
	require.NoError(t, err)

	payload, err := sv.FormatQobj(q)
	require.NoError(t, err)

	res, err := sv.Controller(ctx, payload)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, StatusError, res.Status)
	require.ErrorIs(t, res.Err(), ErrTooManyQubits)

	bad := []byte(`{"qobj_id":"x","experiments":[{"header":{"name":"e","n_qubits":2},` +
		`"instructions":[{"name":"u3","qubits":[0]}]}]}`)
	res, err = sv.Controller(ctx, bad)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), ErrUnknownInstruction)

	outOfRange := []byte(`{"qobj_id":"x","experiments":[{"header":{"name":"e","n_qubits":2},` +
		`"instructions":[{"name":"cx","qubits":[0,2]}]}]}`)
	res, err = sv.Controller(ctx, outOfRange)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), ErrInvalidQobj)
}

func TestControllerHonoursContext(t *testing.T) {
	sv := newTestBackend(t, Config{})

	q, err := compiler.Assemble([]*circuit.Circuit{circuit.New(2).X(0)}, compiler.AssembleConfig{})
	require.NoError(t, err)

	payload, err := sv.FormatQobj(q)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sv.Controller(ctx, payload)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExperimentStopsAtDeadline(t *testing.T) {
	sv := newTestBackend(t, Config{})

	c := circuit.New(3)
	for i := 0; i < 50; i++ {
		c.H(i % 3)
	}

	q, err := compiler.Assemble([]*circuit.Circuit{c}, compiler.AssembleConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err = sv.runExperiment(ctx, q.Experiments[0], 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "instruction 0")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	sv := newTestBackend(t, Config{Metrics: NewMetrics(reg)})

	run(t, sv, circuit.New(3).H(0).CX(0, 1).CX(1, 2), 0)

	m := sv.metrics
	assert.InDelta(t, 1, testutil.ToFloat64(m.experiments.WithLabelValues(Name, StatusDone)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.instructions), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestStatevectorBytes(t *testing.T) {
	assert.Equal(t, uint64(16), StatevectorBytes(0))
	assert.Equal(t, uint64(256), StatevectorBytes(4))
	assert.Equal(t, uint64(512<<20), StatevectorBytes(25))
}
