package lowering

import (
	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// ExtractElement reads one lane of a vector. The index is unsigned; an index
// past the last lane yields the zero element.
func (lw *Lowerer) ExtractElement(t ir.Type, vec, idx engine.Operation) (engine.Operation, error) {
	vt, ok := t.(*ir.VectorType)
	if !ok {
		return nil, violation("extractelement", t)
	}
	zero, err := ir.Zero(vt.Elem)
	if err != nil {
		return nil, violationf("extractelement", []ir.Type{t}, "%v", err)
	}
	name := opName("extractelement", t)
	return &engine.Func{Label: name, Fn: func(f *engine.Frame) (ir.Value, error) {
		vals, err := engine.EvalAll(f, []engine.Operation{vec, idx})
		if err != nil {
			return nil, err
		}
		lanes, err := asVector(vals[0], vt.Len, name)
		if err != nil {
			return nil, err
		}
		i, ok := ir.AsUint64(vals[1])
		if !ok {
			return nil, engine.NewTypeMismatch(name, "integer index", vals[1])
		}
		if i >= uint64(vt.Len) {
			return zero, nil
		}
		return lanes[i], nil
	}}, nil
}

// InsertElement replaces one lane of a vector. An index past the last lane
// leaves the vector unchanged.
func (lw *Lowerer) InsertElement(t ir.Type, vec, elem, idx engine.Operation) (engine.Operation, error) {
	vt, ok := t.(*ir.VectorType)
	if !ok {
		return nil, violation("insertelement", t)
	}
	name := opName("insertelement", t)
	etag := ir.Classify(vt.Elem)
	return &engine.Func{Label: name, Fn: func(f *engine.Frame) (ir.Value, error) {
		vals, err := engine.EvalAll(f, []engine.Operation{vec, elem, idx})
		if err != nil {
			return nil, err
		}
		lanes, err := asVector(vals[0], vt.Len, name)
		if err != nil {
			return nil, err
		}
		if !ir.MatchesTag(etag, vals[1]) {
			return nil, engine.NewTypeMismatch(name, vt.Elem.String(), vals[1])
		}
		i, ok := ir.AsUint64(vals[2])
		if !ok {
			return nil, engine.NewTypeMismatch(name, "integer index", vals[2])
		}
		out := make(ir.Vector, vt.Len)
		copy(out, lanes)
		if i < uint64(vt.Len) {
			out[i] = vals[1]
		}
		return out, nil
	}}, nil
}

// ShuffleVector builds a vector of len(mask) lanes picked from the
// concatenation of a and b. A negative mask entry selects the zero element;
// an entry past both inputs is a type system violation.
func (lw *Lowerer) ShuffleVector(t ir.Type, mask []int, a, b engine.Operation) (engine.Operation, error) {
	vt, ok := t.(*ir.VectorType)
	if !ok || len(mask) == 0 {
		return nil, violation("shufflevector", t)
	}
	for _, m := range mask {
		if m >= 2*vt.Len {
			return nil, violationf("shufflevector", []ir.Type{t}, "mask index %d exceeds %d lanes", m, 2*vt.Len)
		}
	}
	zero, err := ir.Zero(vt.Elem)
	if err != nil {
		return nil, violationf("shufflevector", []ir.Type{t}, "%v", err)
	}
	mask = append([]int(nil), mask...)
	out := ir.MustVector(vt.Elem, len(mask))
	name := opName("shufflevector", t, out)
	return &engine.Func{Label: name, Fn: func(f *engine.Frame) (ir.Value, error) {
		vals, err := engine.EvalAll(f, []engine.Operation{a, b})
		if err != nil {
			return nil, err
		}
		l, err := asVector(vals[0], vt.Len, name)
		if err != nil {
			return nil, err
		}
		r, err := asVector(vals[1], vt.Len, name)
		if err != nil {
			return nil, err
		}
		res := make(ir.Vector, len(mask))
		for i, m := range mask {
			switch {
			case m < 0:
				res[i] = zero
			case m < vt.Len:
				res[i] = l[m]
			default:
				res[i] = r[m-vt.Len]
			}
		}
		return res, nil
	}}, nil
}
