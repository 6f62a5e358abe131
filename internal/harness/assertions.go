package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			outcome := event.Value
			if event.Error != "" {
				outcome = event.Error
			}
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Step, event.Operator, event.Operation, outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var msgs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertAlias:
			err = assertAlias(result.Aliases, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

// assertTraceContains checks that some step selected the operation.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Operation == assertion.Operation {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("operation %s", assertion.Operation),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that operations were first selected in the given
// order. Intervening steps are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Operation]; !seen && event.Operation != "" {
			positions[event.Operation] = i + 1
		}
	}

	for _, op := range assertion.Operations {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all operations present: %v", assertion.Operations),
				Actual:   fmt.Sprintf("missing operation: %s", op),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(assertion.Operations); i++ {
		prev, curr := assertion.Operations[i-1], assertion.Operations[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("operations in order: %v", assertion.Operations),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the operation was selected exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Operation == assertion.Operation {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Operation),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertAlias checks the persisted alias memo.
func assertAlias(aliases map[string]string, assertion Assertion) error {
	got, ok := aliases[assertion.Mangled]
	if ok && got == assertion.Canonical {
		return nil
	}
	actual := "no alias recorded"
	if ok {
		actual = fmt.Sprintf("aliased to %s", got)
	}
	return &AssertionError{
		Type:     AssertAlias,
		Expected: fmt.Sprintf("%s aliased to %s", assertion.Mangled, assertion.Canonical),
		Actual:   actual,
	}
}
