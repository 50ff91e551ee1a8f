package harness

// StepTrace records what one step produced.
type StepTrace struct {
	Index     int    `json:"index"`
	Op        string `json:"op"`
	Component string `json:"component"`
	Into      string `json:"into,omitempty"`

	// Mode is the mode of the produced component.
	Mode string `json:"mode,omitempty"`

	// Signatures lists the produced behavior signatures in sorted order.
	Signatures []string `json:"signatures,omitempty"`

	// Behaviors maps each signature to its source form followed by its
	// flag description, e.g. "int getX() [insert public ...]".
	Behaviors map[string]string `json:"behaviors,omitempty"`

	// Diagnostics lists the reported diagnostic codes in order.
	Diagnostics []string `json:"diagnostics,omitempty"`

	// Cached counts rebuild steps served from recorded resolutions.
	Cached int `json:"cached,omitempty"`

	// Error is the step failure, when the step was expected to fail.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// Trace contains one entry per executed step.
	Trace []StepTrace `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Trace:    []StepTrace{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step trace.
func (r *Result) AddTrace(st StepTrace) {
	r.Trace = append(r.Trace, st)
}
