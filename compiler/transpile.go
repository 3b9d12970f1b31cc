// Package compiler turns circuits into executable jobs. Transpile
// validates and simplifies a circuit for a basis gate set; Assemble
// packs one or more circuits into a Qobj the backend can run.
package compiler

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/weiihann/qbench/circuit"
)

var ErrUnsupportedGate = errors.New("gate not in basis")

// TranspileConfig controls Transpile.
type TranspileConfig struct {
	// OptimizationLevel 0 only validates; 1 removes identities and
	// cancels or merges adjacent gates.
	OptimizationLevel int
	// BasisGates restricts the allowed gates. Empty allows the whole
	// catalogue.
	BasisGates []string
}

// DefaultTranspileConfig returns level 1 over the full catalogue.
func DefaultTranspileConfig() TranspileConfig {
	return TranspileConfig{OptimizationLevel: 1}
}

// Transpile returns a new circuit equivalent to c. The input is not
// modified.
func Transpile(c *circuit.Circuit, cfg TranspileConfig) (*circuit.Circuit, error) {
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("transpile %s: %w", c.Name, err)
	}

	if cfg.OptimizationLevel < 0 || cfg.OptimizationLevel > 1 {
		return nil, fmt.Errorf(
			"transpile %s: unsupported optimization level %d",
			c.Name, cfg.OptimizationLevel,
		)
	}

	if len(cfg.BasisGates) > 0 {
		for _, g := range c.Gates {
			if !slices.Contains(cfg.BasisGates, g.Name) {
				return nil, fmt.Errorf("transpile %s: %w: %s",
					c.Name, ErrUnsupportedGate, g.Name)
			}
		}
	}

	out := c.Clone()
	if cfg.OptimizationLevel == 0 {
		return out, nil
	}

	out.Gates = optimize(out.Gates, out.NumQubits)

	return out, nil
}

// optimize runs a single forward pass with a stack of kept gates. For
// each qubit it tracks the index of the last kept gate touching it, so a
// new gate is compared against its immediate predecessor on all of its
// operands.
func optimize(gates []circuit.Gate, numQubits int) []circuit.Gate {
	kept := make([]circuit.Gate, 0, len(gates))
	removed := make([]bool, 0, len(gates))
	last := make([]int, numQubits)

	for i := range last {
		last[i] = -1
	}

	// predecessor returns the index of the kept gate that is the last one
	// on every operand of g, or -1.
	predecessor := func(g circuit.Gate) int {
		idx := last[g.Qubits[0]]
		if idx < 0 {
			return -1
		}

		for _, q := range g.Qubits[1:] {
			if last[q] != idx {
				return -1
			}
		}

		if len(kept[idx].Qubits) != len(g.Qubits) {
			return -1
		}

		return idx
	}

	// rewind points every operand of the removed gate at idx back to the
	// previous surviving gate on that qubit.
	rewind := func(idx int) {
		removed[idx] = true

		for _, q := range kept[idx].Qubits {
			last[q] = -1
			for j := idx - 1; j >= 0; j-- {
				if !removed[j] && slices.Contains(kept[j].Qubits, q) {
					last[q] = j

					break
				}
			}
		}
	}

	for _, g := range gates {
		if isIdentity(g) {
			continue
		}

		if idx := predecessor(g); idx >= 0 {
			prev := kept[idx]

			if cancels(prev, g) {
				rewind(idx)

				continue
			}

			if merged, ok := merge(prev, g); ok {
				if isIdentity(merged) {
					rewind(idx)
				} else {
					kept[idx] = merged
				}

				continue
			}
		}

		kept = append(kept, g)
		removed = append(removed, false)

		for _, q := range g.Qubits {
			last[q] = len(kept) - 1
		}
	}

	out := make([]circuit.Gate, 0, len(kept))
	for i, g := range kept {
		if !removed[i] {
			out = append(out, g)
		}
	}

	return out
}

const angleTolerance = 1e-12

func isIdentity(g circuit.Gate) bool {
	if g.Name == "id" {
		return true
	}

	gs, _ := circuit.Lookup(g.Name)
	if !gs.Rotation {
		return false
	}

	// A rotation by a multiple of 4*pi is exactly the identity; 2*pi only
	// up to global phase -1, which we keep.
	r := math.Mod(g.Params[0], 4*math.Pi)

	return math.Abs(r) < angleTolerance ||
		math.Abs(math.Abs(r)-4*math.Pi) < angleTolerance
}

func cancels(prev, g circuit.Gate) bool {
	if !slices.Equal(prev.Qubits, g.Qubits) {
		return false
	}

	gs, _ := circuit.Lookup(prev.Name)
	if gs.SelfInverse {
		return prev.Name == g.Name
	}

	return gs.Inverse != "" && gs.Inverse == g.Name
}

func merge(prev, g circuit.Gate) (circuit.Gate, bool) {
	if prev.Name != g.Name || !slices.Equal(prev.Qubits, g.Qubits) {
		return circuit.Gate{}, false
	}

	gs, _ := circuit.Lookup(g.Name)
	if !gs.Rotation {
		return circuit.Gate{}, false
	}

	return circuit.Gate{
		Name:   g.Name,
		Qubits: slices.Clone(g.Qubits),
		Params: []float64{prev.Params[0] + g.Params[0]},
	}, true
}
