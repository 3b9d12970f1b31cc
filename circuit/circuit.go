// Package circuit models quantum circuits as an ordered list of gate
// applications over a fixed register of qubits.
package circuit

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownGate     = errors.New("unknown gate")
	ErrQubitOutOfRange = errors.New("qubit out of range")
	ErrDuplicateQubit  = errors.New("duplicate qubit operand")
	ErrArity           = errors.New("wrong number of operands")
)

// Gate is a single gate application.
type Gate struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
}

func (g Gate) clone() Gate {
	return Gate{
		Name:   g.Name,
		Qubits: slices.Clone(g.Qubits),
		Params: slices.Clone(g.Params),
	}
}

// Circuit is an ordered sequence of gates on NumQubits qubits.
//
// Builder methods (X, H, CX, ...) record the first validation error
// and turn into no-ops afterwards; check Err once building is done.
type Circuit struct {
	Name      string
	NumQubits int
	Gates     []Gate

	err error
}

// New returns an empty circuit over numQubits qubits.
func New(numQubits int) *Circuit {
	return &Circuit{
		Name:      fmt.Sprintf("circuit-%d", numQubits),
		NumQubits: numQubits,
	}
}

// Err returns the first error recorded by a builder method.
func (c *Circuit) Err() error {
	return c.err
}

// Len returns the number of gates.
func (c *Circuit) Len() int {
	return len(c.Gates)
}

// Clone returns a deep copy of c.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		Name:      c.Name,
		NumQubits: c.NumQubits,
		Gates:     make([]Gate, len(c.Gates)),
		err:       c.err,
	}

	for i, g := range c.Gates {
		out.Gates[i] = g.clone()
	}

	return out
}

// Append validates g against the gate catalogue and the register size
// and adds it to the end of the circuit.
func (c *Circuit) Append(g Gate) error {
	gs, ok := Lookup(g.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGate, g.Name)
	}

	if len(g.Qubits) != gs.NumQubits {
		return fmt.Errorf("%w: %s takes %d qubits, got %d",
			ErrArity, g.Name, gs.NumQubits, len(g.Qubits))
	}

	if len(g.Params) != gs.NumParams {
		return fmt.Errorf("%w: %s takes %d params, got %d",
			ErrArity, g.Name, gs.NumParams, len(g.Params))
	}

	for i, q := range g.Qubits {
		if q < 0 || q >= c.NumQubits {
			return fmt.Errorf("%w: %s on qubit %d of %d",
				ErrQubitOutOfRange, g.Name, q, c.NumQubits)
		}

		if slices.Contains(g.Qubits[:i], q) {
			return fmt.Errorf("%w: %s on qubit %d",
				ErrDuplicateQubit, g.Name, q)
		}
	}

	c.Gates = append(c.Gates, g.clone())

	return nil
}

// Apply adds the named gate on locs. Rotation gates take their angle
// from params.
func (c *Circuit) Apply(name string, locs []int, params ...float64) error {
	return c.Append(Gate{Name: name, Qubits: locs, Params: params})
}

func (c *Circuit) add(name string, qubits []int, params ...float64) *Circuit {
	if c.err != nil {
		return c
	}

	c.err = c.Apply(name, qubits, params...)

	return c
}

// Single-qubit builders.

func (c *Circuit) I(q int) *Circuit { return c.add("id", []int{q}) }
func (c *Circuit) X(q int) *Circuit { return c.add("x", []int{q}) }
func (c *Circuit) Y(q int) *Circuit { return c.add("y", []int{q}) }
func (c *Circuit) Z(q int) *Circuit { return c.add("z", []int{q}) }
func (c *Circuit) H(q int) *Circuit { return c.add("h", []int{q}) }
func (c *Circuit) S(q int) *Circuit { return c.add("s", []int{q}) }
func (c *Circuit) Sdg(q int) *Circuit { return c.add("sdg", []int{q}) }
func (c *Circuit) T(q int) *Circuit { return c.add("t", []int{q}) }
func (c *Circuit) Tdg(q int) *Circuit { return c.add("tdg", []int{q}) }

// Rotation builders take the angle in radians.

func (c *Circuit) RX(theta float64, q int) *Circuit { return c.add("rx", []int{q}, theta) }
func (c *Circuit) RY(theta float64, q int) *Circuit { return c.add("ry", []int{q}, theta) }
func (c *Circuit) RZ(theta float64, q int) *Circuit { return c.add("rz", []int{q}, theta) }

// Two-qubit builders.

func (c *Circuit) CX(ctrl, target int) *Circuit { return c.add("cx", []int{ctrl, target}) }
func (c *Circuit) CZ(ctrl, target int) *Circuit { return c.add("cz", []int{ctrl, target}) }
func (c *Circuit) Swap(a, b int) *Circuit { return c.add("swap", []int{a, b}) }

// CCX adds a Toffoli gate with controls c1, c2.
func (c *Circuit) CCX(c1, c2, target int) *Circuit {
	return c.add("ccx", []int{c1, c2, target})
}

// Depth returns the number of layers when every gate is scheduled as
// early as its operands allow.
func (c *Circuit) Depth() int {
	level := make([]int, c.NumQubits)
	depth := 0

	for _, g := range c.Gates {
		layer := 0
		for _, q := range g.Qubits {
			layer = max(layer, level[q])
		}

		layer++
		for _, q := range g.Qubits {
			level[q] = layer
		}

		depth = max(depth, layer)
	}

	return depth
}

// CountOps returns the number of applications of each gate name.
func (c *Circuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, g := range c.Gates {
		counts[g.Name]++
	}

	return counts
}
