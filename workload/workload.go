// Package workload generates deterministic benchmark suites of quantum
// circuits. Each case names a benchmark group, a qubit count and the gate
// layout; cases serialize to JSONL so a suite can be stored and replayed.
package workload

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/weiihann/qbench/circuit"
)

// Benchmark groups.
const (
	GroupX       = "X"
	GroupH       = "H"
	GroupT       = "T"
	GroupCNOT    = "CNOT"
	GroupToffoli = "Toffoli"
	GroupQCBM    = "QCBM"
)

const (
	DefaultMinQubits = 4
	DefaultMaxQubits = 25
	DefaultQCBMDepth = 9
)

// groupLayout is the gate and operands of a single-gate group.
type groupLayout struct {
	gate string
	locs []int
}

var singleGateGroups = map[string]groupLayout{
	GroupX:       {gate: "x", locs: []int{1}},
	GroupH:       {gate: "h", locs: []int{1}},
	GroupT:       {gate: "t", locs: []int{1}},
	GroupCNOT:    {gate: "cx", locs: []int{1, 2}},
	GroupToffoli: {gate: "ccx", locs: []int{2, 3, 0}},
}

// DefaultGroups returns every known group in reporting order.
func DefaultGroups() []string {
	return []string{
		GroupX, GroupH, GroupT, GroupCNOT, GroupToffoli, GroupQCBM,
	}
}

// Case is a single benchmark: one circuit at one register size.
type Case struct {
	Group   string `json:"group"`
	Gate    string `json:"gate,omitempty"`
	Locs    []int  `json:"locs,omitempty"`
	NQubits int    `json:"nqubits"`
	Depth   int    `json:"depth,omitempty"`
}

// Name returns a stable identifier such as "CNOT/nqubits=12".
func (c Case) Name() string {
	return fmt.Sprintf("%s/nqubits=%d", c.Group, c.NQubits)
}

// Circuit builds the circuit described by c.
func (c Case) Circuit() (*circuit.Circuit, error) {
	var (
		circ *circuit.Circuit
		err  error
	)

	if c.Group == GroupQCBM {
		circ, err = QCBM(c.NQubits, c.Depth, RingPairs(c.NQubits))
	} else {
		circ, err = SingleGate(c.NQubits, c.Gate, c.Locs...)
	}

	if err != nil {
		return nil, fmt.Errorf("build %s: %w", c.Name(), err)
	}

	circ.Name = c.Name()

	return circ, nil
}

// NewCase returns the case for group at nqubits. depth is only used by
// QCBM.
func NewCase(group string, nqubits, depth int) (Case, error) {
	if group == GroupQCBM {
		if nqubits < 2 {
			return Case{}, fmt.Errorf("QCBM needs at least 2 qubits, got %d", nqubits)
		}
		if depth < 1 {
			return Case{}, fmt.Errorf("QCBM depth must be positive, got %d", depth)
		}

		return Case{Group: group, NQubits: nqubits, Depth: depth}, nil
	}

	layout, ok := singleGateGroups[group]
	if !ok {
		return Case{}, fmt.Errorf("unknown group %q", group)
	}

	need := slices.Max(layout.locs) + 1
	if nqubits < need {
		return Case{}, fmt.Errorf(
			"group %s needs at least %d qubits, got %d", group, need, nqubits,
		)
	}

	return Case{
		Group:   group,
		Gate:    layout.gate,
		Locs:    slices.Clone(layout.locs),
		NQubits: nqubits,
	}, nil
}

// Summary contains statistics about a generated suite.
type Summary struct {
	TotalCases int
	Groups     int
	TotalGates int
	MaxQubits  int
}

// Config controls suite generation.
type Config struct {
	Groups    []string
	MinQubits int
	MaxQubits int
	QCBMDepth int
}

// Generator produces deterministic suites from a Config.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator from the given Config. Zero fields
// take the package defaults.
func NewGenerator(cfg Config) *Generator {
	if len(cfg.Groups) == 0 {
		cfg.Groups = DefaultGroups()
	}
	if cfg.MinQubits == 0 {
		cfg.MinQubits = DefaultMinQubits
	}
	if cfg.MaxQubits == 0 {
		cfg.MaxQubits = DefaultMaxQubits
	}
	if cfg.QCBMDepth == 0 {
		cfg.QCBMDepth = DefaultQCBMDepth
	}

	return &Generator{cfg: cfg}
}

// Cases returns the suite ordered by group, then qubit count.
func (g *Generator) Cases() ([]Case, error) {
	if g.cfg.MinQubits > g.cfg.MaxQubits {
		return nil, fmt.Errorf(
			"min qubits %d exceeds max qubits %d",
			g.cfg.MinQubits, g.cfg.MaxQubits,
		)
	}

	n := len(g.cfg.Groups) * (g.cfg.MaxQubits - g.cfg.MinQubits + 1)
	cases := make([]Case, 0, n)

	for _, group := range g.cfg.Groups {
		for nq := g.cfg.MinQubits; nq <= g.cfg.MaxQubits; nq++ {
			c, err := NewCase(group, nq, g.cfg.QCBMDepth)
			if err != nil {
				return nil, err
			}

			cases = append(cases, c)
		}
	}

	return cases, nil
}

// Generate writes the suite as JSONL to w and returns a Summary.
func (g *Generator) Generate(w io.Writer) (Summary, error) {
	var summary Summary

	cases, err := g.Cases()
	if err != nil {
		return summary, err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	seen := make(map[string]struct{}, len(g.cfg.Groups))

	for _, c := range cases {
		circ, err := c.Circuit()
		if err != nil {
			return summary, err
		}

		if err := enc.Encode(c); err != nil {
			return summary, fmt.Errorf("encode %s: %w", c.Name(), err)
		}

		seen[c.Group] = struct{}{}
		summary.TotalCases++
		summary.TotalGates += circ.Len()
		summary.MaxQubits = max(summary.MaxQubits, c.NQubits)
	}

	summary.Groups = len(seen)

	return summary, nil
}

// Read parses a JSONL suite written by Generate.
func Read(r io.Reader) ([]Case, error) {
	var cases []Case

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c Case
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if c.Group == "" || c.NQubits <= 0 {
			return nil, fmt.Errorf("line %d: incomplete case", lineNum)
		}

		cases = append(cases, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}

	return cases, nil
}
