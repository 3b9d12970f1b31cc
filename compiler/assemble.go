package compiler

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/weiihann/qbench/circuit"
)

const (
	QobjType      = "QASM"
	SchemaVersion = "1.3.0"
	DefaultShots  = 1024
)

// Qobj is an executable job: a run config plus one experiment per
// assembled circuit.
type Qobj struct {
	QobjID        string       `json:"qobj_id"`
	Type          string       `json:"type"`
	SchemaVersion string       `json:"schema_version"`
	Config        QobjConfig   `json:"config"`
	Experiments   []Experiment `json:"experiments"`
}

// QobjConfig holds run options shared by all experiments.
type QobjConfig struct {
	Shots       int    `json:"shots"`
	MemorySlots int    `json:"memory_slots"`
	NQubits     int    `json:"n_qubits"`
	Seed        int64  `json:"seed_simulator,omitempty"`
	Method      string `json:"method,omitempty"`
	Threads     int    `json:"max_parallel_threads,omitempty"`
}

// Experiment is one circuit lowered to an instruction list.
type Experiment struct {
	Header       ExperimentHeader `json:"header"`
	Instructions []Instruction    `json:"instructions"`
}

// ExperimentHeader carries descriptive metadata about an experiment.
type ExperimentHeader struct {
	Name     string `json:"name"`
	NQubits  int    `json:"n_qubits"`
	Depth    int    `json:"depth"`
	NumGates int    `json:"num_gates"`
}

// Instruction is a single gate application.
type Instruction struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
}

// AssembleConfig controls Assemble.
type AssembleConfig struct {
	Shots int
	Seed  int64
}

// Assemble builds a Qobj from circuits. Every call gets a fresh id.
func Assemble(circuits []*circuit.Circuit, cfg AssembleConfig) (*Qobj, error) {
	if len(circuits) == 0 {
		return nil, errors.New("assemble: no circuits")
	}

	shots := cfg.Shots
	if shots == 0 {
		shots = DefaultShots
	}

	if shots < 0 {
		return nil, fmt.Errorf("assemble: invalid shots %d", shots)
	}

	q := &Qobj{
		QobjID:        uuid.NewString(),
		Type:          QobjType,
		SchemaVersion: SchemaVersion,
		Config: QobjConfig{
			Shots: shots,
			Seed:  cfg.Seed,
		},
		Experiments: make([]Experiment, 0, len(circuits)),
	}

	for _, c := range circuits {
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("assemble %s: %w", c.Name, err)
		}

		instructions := make([]Instruction, len(c.Gates))
		for i, g := range c.Gates {
			instructions[i] = Instruction{
				Name:   g.Name,
				Qubits: slices.Clone(g.Qubits),
				Params: slices.Clone(g.Params),
			}
		}

		q.Experiments = append(q.Experiments, Experiment{
			Header: ExperimentHeader{
				Name:     c.Name,
				NQubits:  c.NumQubits,
				Depth:    c.Depth(),
				NumGates: c.Len(),
			},
			Instructions: instructions,
		})

		q.Config.NQubits = max(q.Config.NQubits, c.NumQubits)
	}

	return q, nil
}
