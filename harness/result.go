// Package harness compiles benchmark cases and times their execution on
// a statevector backend.
package harness

// Result holds the timing statistics of one benchmark case. Durations
// are in nanoseconds.
type Result struct {
	Group            string  `json:"group"`
	Name             string  `json:"name"`
	Backend          string  `json:"backend"`
	NQubits          int     `json:"nqubits"`
	Gates            int     `json:"gates"`
	Depth            int     `json:"depth"`
	Rounds           int     `json:"rounds"`
	MinNs            int64   `json:"min_ns"`
	MaxNs            int64   `json:"max_ns"`
	MeanNs           int64   `json:"mean_ns"`
	MedianNs         int64   `json:"median_ns"`
	StdDevNs         int64   `json:"stddev_ns"`
	OPS              float64 `json:"ops"`
	CompileNs        int64   `json:"compile_ns"`
	StatevectorBytes uint64  `json:"statevector_bytes"`
}
