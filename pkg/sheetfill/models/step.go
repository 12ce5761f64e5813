package models

// StepSpec is one declared transform step before compilation.
type StepSpec struct {
	// Name is the registered step name.
	Name string `json:"name"`
	// Params is the raw parameter value (nil for a bare step name).
	Params any `json:"params,omitempty"`
}
