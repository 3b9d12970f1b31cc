package circuit

import "sort"

// GateSpec describes the shape of a gate in the catalogue.
type GateSpec struct {
	Name      string
	NumQubits int
	NumParams int
	// SelfInverse gates cancel when applied twice to the same operands.
	SelfInverse bool
	// Inverse names the adjoint gate for non-self-inverse fixed gates.
	Inverse string
	// Rotation gates with a single angle can be merged by summing angles.
	Rotation bool
}

var catalogue = map[string]GateSpec{
	"id":   {Name: "id", NumQubits: 1},
	"x":    {Name: "x", NumQubits: 1, SelfInverse: true},
	"y":    {Name: "y", NumQubits: 1, SelfInverse: true},
	"z":    {Name: "z", NumQubits: 1, SelfInverse: true},
	"h":    {Name: "h", NumQubits: 1, SelfInverse: true},
	"s":    {Name: "s", NumQubits: 1, Inverse: "sdg"},
	"sdg":  {Name: "sdg", NumQubits: 1, Inverse: "s"},
	"t":    {Name: "t", NumQubits: 1, Inverse: "tdg"},
	"tdg":  {Name: "tdg", NumQubits: 1, Inverse: "t"},
	"rx":   {Name: "rx", NumQubits: 1, NumParams: 1, Rotation: true},
	"ry":   {Name: "ry", NumQubits: 1, NumParams: 1, Rotation: true},
	"rz":   {Name: "rz", NumQubits: 1, NumParams: 1, Rotation: true},
	"cx":   {Name: "cx", NumQubits: 2, SelfInverse: true},
	"cz":   {Name: "cz", NumQubits: 2, SelfInverse: true},
	"swap": {Name: "swap", NumQubits: 2, SelfInverse: true},
	"ccx":  {Name: "ccx", NumQubits: 3, SelfInverse: true},
}

// Lookup returns the catalogue entry for a gate name.
func Lookup(name string) (GateSpec, bool) {
	gs, ok := catalogue[name]
	return gs, ok
}

// GateNames returns the sorted names of all known gates.
func GateNames() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
