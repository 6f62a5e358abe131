package lowering

import (
	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// Select chooses between tv and fv on cond. With a scalar i1 condition only
// the chosen branch is evaluated. A <N x i1> condition selects lane by lane
// and requires t to be a vector of N lanes.
func (lw *Lowerer) Select(condType, t ir.Type, cond, tv, fv engine.Operation) (engine.Operation, error) {
	tag := ir.Classify(t)
	if tag == ir.TagVoid {
		return nil, violation("select", condType, t)
	}
	name := opName("select", t)

	switch ir.Classify(condType) {
	case ir.TagBool:
		return &selectOp{name: name, cond: cond, t: tv, f: fv}, nil
	case ir.TagVectorBool:
		vt, ok := t.(*ir.VectorType)
		if !ok || vt.Len != condType.(*ir.VectorType).Len {
			return nil, violationf("select", []ir.Type{condType, t}, "condition lanes must match value lanes")
		}
		return &vectorSelectOp{name: name, n: vt.Len, cond: cond, t: tv, f: fv}, nil
	}
	return nil, violation("select", condType, t)
}

type selectOp struct {
	name string
	cond engine.Operation
	t, f engine.Operation
}

func (o *selectOp) Name() string { return o.name }

func (o *selectOp) Execute(fr *engine.Frame) (ir.Value, error) {
	c, err := o.cond.Execute(fr)
	if err != nil {
		return nil, err
	}
	b, ok := c.(ir.I1)
	if !ok {
		return nil, engine.NewTypeMismatch(o.name, "i1", c)
	}
	if b {
		return o.t.Execute(fr)
	}
	return o.f.Execute(fr)
}

type vectorSelectOp struct {
	name string
	n    int
	cond engine.Operation
	t, f engine.Operation
}

func (o *vectorSelectOp) Name() string { return o.name }

func (o *vectorSelectOp) Execute(fr *engine.Frame) (ir.Value, error) {
	vals, err := engine.EvalAll(fr, []engine.Operation{o.cond, o.t, o.f})
	if err != nil {
		return nil, err
	}
	var lanes [3]ir.Vector
	for i, v := range vals {
		if lanes[i], err = asVector(v, o.n, o.name); err != nil {
			return nil, err
		}
	}
	out := make(ir.Vector, o.n)
	for i := range out {
		b, ok := lanes[0][i].(ir.I1)
		if !ok {
			return nil, engine.NewTypeMismatch(o.name, "i1", lanes[0][i])
		}
		if b {
			out[i] = lanes[1][i]
		} else {
			out[i] = lanes[2][i]
		}
	}
	return out, nil
}
