package lowering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// unaryFn and binaryFn are scalar primitives selected once at lowering time.
type (
	unaryFn  func(v ir.Value) (ir.Value, error)
	binaryFn func(l, r ir.Value) (ir.Value, error)
)

type unaryOp struct {
	name string
	in   engine.Operation
	fn   unaryFn
}

func (o *unaryOp) Name() string { return o.name }

func (o *unaryOp) Execute(f *engine.Frame) (ir.Value, error) {
	v, err := o.in.Execute(f)
	if err != nil {
		return nil, err
	}
	out, err := o.fn(v)
	return out, annotate(err, o.name)
}

type binaryOp struct {
	name string
	l, r engine.Operation
	fn   binaryFn
}

func (o *binaryOp) Name() string { return o.name }

func (o *binaryOp) Execute(f *engine.Frame) (ir.Value, error) {
	l, err := o.l.Execute(f)
	if err != nil {
		return nil, err
	}
	r, err := o.r.Execute(f)
	if err != nil {
		return nil, err
	}
	out, err := o.fn(l, r)
	return out, annotate(err, o.name)
}

// vectorUnaryOp applies a scalar primitive to each of n lanes.
type vectorUnaryOp struct {
	name string
	n    int
	in   engine.Operation
	fn   unaryFn
}

func (o *vectorUnaryOp) Name() string { return o.name }

func (o *vectorUnaryOp) Execute(f *engine.Frame) (ir.Value, error) {
	v, err := o.in.Execute(f)
	if err != nil {
		return nil, err
	}
	vec, err := asVector(v, o.n, o.name)
	if err != nil {
		return nil, err
	}
	out := make(ir.Vector, o.n)
	for i, e := range vec {
		if out[i], err = o.fn(e); err != nil {
			return nil, annotate(err, o.name)
		}
	}
	return out, nil
}

// vectorBinaryOp applies a scalar primitive lane by lane.
type vectorBinaryOp struct {
	name string
	n    int
	l, r engine.Operation
	fn   binaryFn
}

func (o *vectorBinaryOp) Name() string { return o.name }

func (o *vectorBinaryOp) Execute(f *engine.Frame) (ir.Value, error) {
	lv, err := o.l.Execute(f)
	if err != nil {
		return nil, err
	}
	rv, err := o.r.Execute(f)
	if err != nil {
		return nil, err
	}
	l, err := asVector(lv, o.n, o.name)
	if err != nil {
		return nil, err
	}
	r, err := asVector(rv, o.n, o.name)
	if err != nil {
		return nil, err
	}
	out := make(ir.Vector, o.n)
	for i := range l {
		if out[i], err = o.fn(l[i], r[i]); err != nil {
			return nil, annotate(err, o.name)
		}
	}
	return out, nil
}

// newBinary wraps fn for a scalar or vector type.
func newBinary(name string, t ir.Type, l, r engine.Operation, fn binaryFn) engine.Operation {
	if vt, ok := t.(*ir.VectorType); ok {
		return &vectorBinaryOp{name: name, n: vt.Len, l: l, r: r, fn: fn}
	}
	return &binaryOp{name: name, l: l, r: r, fn: fn}
}

func asVector(v ir.Value, n int, op string) (ir.Vector, error) {
	vec, ok := v.(ir.Vector)
	if !ok {
		return nil, engine.NewTypeMismatch(op, "vector", v)
	}
	if len(vec) != n {
		return nil, &engine.RuntimeError{
			Code:      engine.ErrCodeTypeMismatch,
			Message:   fmt.Sprintf("vector has %d lanes, want %d", len(vec), n),
			Operation: op,
		}
	}
	return vec, nil
}

// annotate stamps the failing operation's name on runtime errors that do
// not carry one yet.
func annotate(err error, name string) error {
	var re *engine.RuntimeError
	if errors.As(err, &re) && re.Operation == "" {
		re.Operation = name
	}
	return err
}

// suffix renders the type component of an operation name: "i32", "double",
// "ptr", "v4i32", "struct".
func suffix(t ir.Type) string {
	switch x := t.(type) {
	case *ir.IntType:
		return fmt.Sprintf("i%d", x.Width)
	case *ir.FloatType:
		return x.String()
	case *ir.VectorType:
		return fmt.Sprintf("v%d%s", x.Len, suffix(x.Elem))
	}
	return ir.Classify(t).String()
}

func opName(mnemonic string, types ...ir.Type) string {
	parts := make([]string, 0, len(types)+1)
	parts = append(parts, mnemonic)
	for _, t := range types {
		parts = append(parts, suffix(t))
	}
	return strings.Join(parts, ".")
}

// elemType returns the lane type of a vector, or t itself.
func elemType(t ir.Type) ir.Type {
	if vt, ok := t.(*ir.VectorType); ok {
		return vt.Elem
	}
	return t
}
