package harness

// TraceEvent is one executed scenario step.
type TraceEvent struct {
	Seq       int64    `json:"seq"`
	Step      int      `json:"step"`
	Operator  string   `json:"operator"`
	Types     []string `json:"types"`
	Operation string   `json:"operation,omitempty"`
	Value     string   `json:"value,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes each failed expectation. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Aliases is the alias memo persisted during the run.
	Aliases map[string]string `json:"aliases,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Aliases: map[string]string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
