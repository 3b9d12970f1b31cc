package backend

import "time"

// Job and experiment status values.
const (
	StatusCompleted = "COMPLETED"
	StatusDone      = "DONE"
	StatusError     = "ERROR"
)

// Result is the controller output for one payload.
type Result struct {
	Backend   string             `json:"backend_name"`
	QobjID    string             `json:"qobj_id"`
	Status    string             `json:"status"`
	Success   bool               `json:"success"`
	TimeTaken time.Duration      `json:"time_taken"`
	Results   []ExperimentResult `json:"results"`
}

// ExperimentResult is the outcome of a single experiment.
type ExperimentResult struct {
	Name        string        `json:"name"`
	NQubits     int           `json:"n_qubits"`
	Status      string        `json:"status"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	TimeTaken   time.Duration `json:"time_taken"`
	Statevector []complex128  `json:"-"`

	err error
}

// Err returns the error of the first failed experiment, if any.
func (r *Result) Err() error {
	for _, er := range r.Results {
		if er.err != nil {
			return er.err
		}
	}

	return nil
}
