package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// NewFrame creates a frame over a fresh heap and BasicHost.
//
// The heap is sized for unit tests; callers needing a different host
// replace f.Host.
func NewFrame(t testing.TB, args ...ir.Value) *engine.Frame {
	t.Helper()
	f, err := engine.NewFrame(engine.NewHeap(8<<20), engine.NewBasicHost(nil), args...)
	require.NoError(t, err)
	return f
}

// Lit returns an operation yielding v.
func Lit(v ir.Value) engine.Operation {
	return &engine.Const{Label: "lit", Value: v}
}

// Exec runs op in f and fails the test on error.
func Exec(t testing.TB, f *engine.Frame, op engine.Operation) ir.Value {
	t.Helper()
	v, err := op.Execute(f)
	require.NoError(t, err, "executing %s", op.Name())
	return v
}

// Untouchable returns an operation that fails the test if it is executed.
// Use it to prove an operand is never evaluated.
func Untouchable(t testing.TB, label string) engine.Operation {
	return &engine.Func{Label: label, Fn: func(*engine.Frame) (ir.Value, error) {
		t.Errorf("operand %s was evaluated", label)
		return nil, &engine.RuntimeError{Code: engine.ErrCodeTrap, Message: label}
	}}
}

// Counter counts how often a demangler or callback runs.
type Counter struct {
	clock *DeterministicClock
}

// NewCounter creates a counter at zero.
func NewCounter() *Counter {
	return &Counter{clock: NewDeterministicClock()}
}

// Hit records one call.
func (c *Counter) Hit() { c.clock.Next() }

// Count returns the number of recorded calls.
func (c *Counter) Count() int { return int(c.clock.Current()) }
