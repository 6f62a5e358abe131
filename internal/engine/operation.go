package engine

import (
	"fmt"

	"github.com/roach88/lowercore/internal/ir"
)

// Operation is an executable node produced by lowering.
//
// Operations capture only immutable lowering-time data (sub-operations,
// widths, offsets). All mutable state lives in the Frame, so one operation
// may execute on many goroutines at once, each with its own frame.
type Operation interface {
	// Execute evaluates the operation. Void operations return a nil Value.
	Execute(f *Frame) (ir.Value, error)

	// Name identifies the selected implementation, e.g. "add.i32" or
	// "sext.i8.i32". Names are stable and used by inspection and traces.
	Name() string
}

// Const is an operation that always yields the same value.
type Const struct {
	Label string
	Value ir.Value
}

// Execute returns the constant.
func (c *Const) Execute(*Frame) (ir.Value, error) { return c.Value, nil }

// Name returns the label.
func (c *Const) Name() string { return c.Label }

// Arg reads the frame's argument at Index (0-based).
type Arg struct {
	Index int
}

// Execute returns the argument, or a type mismatch if the frame has fewer
// arguments.
func (a *Arg) Execute(f *Frame) (ir.Value, error) {
	if a.Index < 0 || a.Index >= len(f.Args) {
		return nil, &RuntimeError{
			Code:      ErrCodeTypeMismatch,
			Message:   fmt.Sprintf("argument %d requested but frame has %d", a.Index, len(f.Args)),
			Operation: a.Name(),
		}
	}
	return f.Args[a.Index], nil
}

// Name returns "arg<index>".
func (a *Arg) Name() string { return fmt.Sprintf("arg%d", a.Index) }

// Func adapts a closure into an Operation.
type Func struct {
	Label string
	Fn    func(f *Frame) (ir.Value, error)
}

// Execute calls Fn.
func (o *Func) Execute(f *Frame) (ir.Value, error) { return o.Fn(f) }

// Name returns the label.
func (o *Func) Name() string { return o.Label }

// EvalAll executes each operation in order and collects the results.
func EvalAll(f *Frame, ops []Operation) ([]ir.Value, error) {
	vals := make([]ir.Value, len(ops))
	for i, op := range ops {
		v, err := op.Execute(f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
