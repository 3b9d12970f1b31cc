package backend

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/weiihann/qbench/compiler"
)

// matrix is a 2x2 unitary in row-major order.
type matrix [4]complex128

var (
	invSqrt2 = complex(1/math.Sqrt2, 0)

	matY = matrix{0, -1i, 1i, 0}
	matH = matrix{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}

	phaseS = 1i
	phaseT = cmplx.Exp(complex(0, math.Pi/4))
)

func rx(theta float64) matrix {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))

	return matrix{c, s, s, c}
}

func ry(theta float64) matrix {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)

	return matrix{c, -s, s, c}
}

// state is a dense statevector. Qubit q maps to bit q of the amplitude
// index, so qubit 0 is the least significant.
type state struct {
	amps []complex128
	loop *looper
}

func newState(nqubits int, loop *looper) *state {
	amps := make([]complex128, 1<<nqubits)
	amps[0] = 1

	return &state{amps: amps, loop: loop}
}

// insertZero spreads k around a zero at bit position q.
func insertZero(k, q int) int {
	low := k & (1<<q - 1)

	return (k>>q)<<(q+1) | low
}

// apply executes a single instruction.
func (s *state) apply(in compiler.Instruction) error {
	q := in.Qubits

	switch in.Name {
	case "id":
	case "x":
		s.applyX(q[0], 0)
	case "y":
		s.applyMatrix(q[0], matY, 0)
	case "z":
		s.applyPhase(q[0], 1, -1, 0)
	case "h":
		s.applyMatrix(q[0], matH, 0)
	case "s":
		s.applyPhase(q[0], 1, phaseS, 0)
	case "sdg":
		s.applyPhase(q[0], 1, cmplx.Conj(phaseS), 0)
	case "t":
		s.applyPhase(q[0], 1, phaseT, 0)
	case "tdg":
		s.applyPhase(q[0], 1, cmplx.Conj(phaseT), 0)
	case "rx":
		s.applyMatrix(q[0], rx(in.Params[0]), 0)
	case "ry":
		s.applyMatrix(q[0], ry(in.Params[0]), 0)
	case "rz":
		theta := in.Params[0]
		s.applyPhase(q[0],
			cmplx.Exp(complex(0, -theta/2)),
			cmplx.Exp(complex(0, theta/2)),
			0,
		)
	case "cx":
		s.applyX(q[1], 1<<q[0])
	case "cz":
		s.applyPhase(q[1], 1, -1, 1<<q[0])
	case "swap":
		s.applySwap(q[0], q[1])
	case "ccx":
		s.applyX(q[2], 1<<q[0]|1<<q[1])
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInstruction, in.Name)
	}

	return nil
}

// applyMatrix applies m to qubit q on every amplitude pair whose index
// has all ctrl bits set.
func (s *state) applyMatrix(q int, m matrix, ctrl int) {
	amps := s.amps
	bit := 1 << q

	s.loop.run(len(amps)>>1, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			i := insertZero(k, q)
			if i&ctrl != ctrl {
				continue
			}

			j := i | bit
			a0, a1 := amps[i], amps[j]
			amps[i] = m[0]*a0 + m[1]*a1
			amps[j] = m[2]*a0 + m[3]*a1
		}
	})
}

// applyPhase multiplies the |0> and |1> components of qubit q by d0 and
// d1.
func (s *state) applyPhase(q int, d0, d1 complex128, ctrl int) {
	amps := s.amps
	bit := 1 << q

	s.loop.run(len(amps)>>1, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			i := insertZero(k, q)
			if i&ctrl != ctrl {
				continue
			}

			if d0 != 1 {
				amps[i] *= d0
			}
			amps[i|bit] *= d1
		}
	})
}

func (s *state) applyX(q int, ctrl int) {
	amps := s.amps
	bit := 1 << q

	s.loop.run(len(amps)>>1, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			i := insertZero(k, q)
			if i&ctrl != ctrl {
				continue
			}

			amps[i], amps[i|bit] = amps[i|bit], amps[i]
		}
	})
}

func (s *state) applySwap(a, b int) {
	amps := s.amps
	lo, hi := min(a, b), max(a, b)
	abit, bbit := 1<<a, 1<<b

	s.loop.run(len(amps)>>2, func(from, to int) {
		for k := from; k < to; k++ {
			i := insertZero(insertZero(k, lo), hi)
			amps[i|abit], amps[i|bbit] = amps[i|bbit], amps[i|abit]
		}
	})
}

// norm returns the squared norm of the state.
func norm(amps []complex128) float64 {
	var sum float64
	for _, a := range amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}

	return sum
}

// StatevectorBytes is the memory held by an n-qubit statevector.
func StatevectorBytes(nqubits int) uint64 {
	return 16 << uint(nqubits)
}
