package workload

import (
	"fmt"

	"github.com/weiihann/qbench/circuit"
)

// rotationAngle is the fixed angle used by every rotation layer.
const rotationAngle = 1.0

// SingleGate builds an nqubits circuit holding one gate on locs.
func SingleGate(nqubits int, gate string, locs ...int) (*circuit.Circuit, error) {
	c := circuit.New(nqubits)
	if err := c.Apply(gate, locs); err != nil {
		return nil, err
	}

	return c, nil
}

// FirstRotation appends rx, rz to every qubit.
func FirstRotation(c *circuit.Circuit, qubits []int) *circuit.Circuit {
	for _, q := range qubits {
		c.RX(rotationAngle, q).RZ(rotationAngle, q)
	}

	return c
}

// MidRotation appends rz, rx, rz to every qubit.
func MidRotation(c *circuit.Circuit, qubits []int) *circuit.Circuit {
	for _, q := range qubits {
		c.RZ(rotationAngle, q).RX(rotationAngle, q).RZ(rotationAngle, q)
	}

	return c
}

// LastRotation appends rz, rx to every qubit.
func LastRotation(c *circuit.Circuit, qubits []int) *circuit.Circuit {
	for _, q := range qubits {
		c.RZ(rotationAngle, q).RX(rotationAngle, q)
	}

	return c
}

// Entangler appends a cx for every (control, target) pair.
func Entangler(c *circuit.Circuit, pairs [][2]int) *circuit.Circuit {
	for _, p := range pairs {
		c.CX(p[0], p[1])
	}

	return c
}

// RingPairs returns (i, i+1 mod n) for every qubit i.
func RingPairs(n int) [][2]int {
	pairs := make([][2]int, n)
	for i := range pairs {
		pairs[i] = [2]int{i, (i + 1) % n}
	}

	return pairs
}

// QCBM builds the quantum circuit Born machine ansatz: a rotation layer
// and an entangler, then depth-1 blocks of mid rotation and entangler,
// then a closing rotation layer.
func QCBM(n, depth int, pairs [][2]int) (*circuit.Circuit, error) {
	if depth < 1 {
		return nil, fmt.Errorf("depth must be positive, got %d", depth)
	}

	c := circuit.New(n)

	qubits := make([]int, n)
	for i := range qubits {
		qubits[i] = i
	}

	FirstRotation(c, qubits)
	Entangler(c, pairs)

	for k := 0; k < depth-1; k++ {
		MidRotation(c, qubits)
		Entangler(c, pairs)
	}

	LastRotation(c, qubits)

	if err := c.Err(); err != nil {
		return nil, err
	}

	return c, nil
}
