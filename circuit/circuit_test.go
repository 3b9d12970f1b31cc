package circuit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAppendsGates(t *testing.T) {
	c := New(4).X(1).H(1).T(1).CX(1, 2).CCX(2, 3, 0).RX(1.0, 0).RZ(1.0, 3)
	require.NoError(t, c.Err())

	assert.Equal(t, 7, c.Len())
	assert.Equal(t, Gate{Name: "ccx", Qubits: []int{2, 3, 0}}, c.Gates[4])
	assert.Equal(t, []float64{1.0}, c.Gates[5].Params)
}

func TestBuilderStickyError(t *testing.T) {
	c := New(2).X(0).X(5).H(0)

	require.ErrorIs(t, c.Err(), ErrQubitOutOfRange)
	assert.Equal(t, 1, c.Len(), "gates after the first error must be ignored")
}

func TestAppendValidation(t *testing.T) {
	tests := []struct {
		name string
		gate Gate
		want error
	}{
		{"unknown", Gate{Name: "u3", Qubits: []int{0}}, ErrUnknownGate},
		{"arity", Gate{Name: "cx", Qubits: []int{0}}, ErrArity},
		{"missing param", Gate{Name: "rx", Qubits: []int{0}}, ErrArity},
		{"negative qubit", Gate{Name: "x", Qubits: []int{-1}}, ErrQubitOutOfRange},
		{"out of range", Gate{Name: "h", Qubits: []int{3}}, ErrQubitOutOfRange},
		{"duplicate", Gate{Name: "ccx", Qubits: []int{0, 1, 0}}, ErrDuplicateQubit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(3)
			err := c.Append(tt.gate)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, c.Len())
		})
	}
}

func TestApplyByName(t *testing.T) {
	c := New(4)
	require.NoError(t, c.Apply("ccx", []int{2, 3, 0}))
	require.NoError(t, c.Apply("rz", []int{1}, 0.5))

	assert.Equal(t, map[string]int{"ccx": 1, "rz": 1}, c.CountOps())
}

func TestAppendCopiesOperands(t *testing.T) {
	locs := []int{0, 1}
	c := New(2)
	require.NoError(t, c.Apply("cx", locs))

	locs[0] = 1
	assert.Equal(t, []int{0, 1}, c.Gates[0].Qubits)
}

func TestDepth(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Circuit
		want  int
	}{
		{"empty", func() *Circuit { return New(3) }, 0},
		{"parallel singles", func() *Circuit { return New(3).H(0).H(1).H(2) }, 1},
		{"serial on one qubit", func() *Circuit { return New(1).H(0).T(0).X(0) }, 3},
		{"cx chain", func() *Circuit { return New(3).H(0).CX(0, 1).CX(1, 2).X(0) }, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.build().Depth())
		})
	}
}

func TestClone(t *testing.T) {
	c := New(2).RX(0.25, 0)
	cp := c.Clone()
	cp.Gates[0].Params[0] = 2

	assert.Equal(t, 0.25, c.Gates[0].Params[0])
}

func TestQASM(t *testing.T) {
	c := New(3).H(0).CX(0, 1).RZ(0.5, 2)

	want := strings.Join([]string{
		"OPENQASM 2.0;",
		`include "qelib1.inc";`,
		"qreg q[3];",
		"h q[0];",
		"cx q[0],q[1];",
		"rz(0.5) q[2];",
		"",
	}, "\n")

	assert.Equal(t, want, c.QASM())
}

func TestGateNamesSorted(t *testing.T) {
	names := GateNames()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "ccx")
}
