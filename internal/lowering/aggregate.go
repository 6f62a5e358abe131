package lowering

import (
	"fmt"
	"strings"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// ExtractValue reads the element of an aggregate at a constant index path.
// The aggregate operand evaluates to a reference. A scalar element is loaded;
// an aggregate element is returned as a reference into the source storage.
func (lw *Lowerer) ExtractValue(agg ir.Type, indices []int, in engine.Operation) (engine.Operation, error) {
	if !ir.Classify(agg).IsAggregate() || len(indices) == 0 {
		return nil, violation("extractvalue", agg)
	}
	off, et, err := lw.layout.OffsetOf(agg, indices)
	if err != nil {
		return nil, violationf("extractvalue", []ir.Type{agg}, "%v", err)
	}
	return &extractValueOp{
		name:   "extractvalue." + suffix(et) + indexSuffix(indices),
		in:     in,
		offset: off,
		elem:   et,
	}, nil
}

// InsertValue copies an aggregate into fresh storage and replaces the element
// at a constant index path. The source aggregate is left untouched.
func (lw *Lowerer) InsertValue(agg ir.Type, indices []int, in, v engine.Operation) (engine.Operation, error) {
	if !ir.Classify(agg).IsAggregate() || len(indices) == 0 {
		return nil, violation("insertvalue", agg)
	}
	off, et, err := lw.layout.OffsetOf(agg, indices)
	if err != nil {
		return nil, violationf("insertvalue", []ir.Type{agg}, "%v", err)
	}
	return &insertValueOp{
		name:   "insertvalue." + suffix(et) + indexSuffix(indices),
		in:     in,
		v:      v,
		agg:    agg,
		offset: off,
		elem:   et,
	}, nil
}

func indexSuffix(indices []int) string {
	var b strings.Builder
	for _, i := range indices {
		fmt.Fprintf(&b, ".%d", i)
	}
	return b.String()
}

type extractValueOp struct {
	name   string
	in     engine.Operation
	offset int64
	elem   ir.Type
}

func (o *extractValueOp) Name() string { return o.name }

func (o *extractValueOp) Execute(f *engine.Frame) (ir.Value, error) {
	v, err := o.in.Execute(f)
	if err != nil {
		return nil, err
	}
	base, err := addressOf(v, o.name)
	if err != nil {
		return nil, err
	}
	out, err := loadElement(f, o.elem, base+uint64(o.offset))
	return out, annotate(err, o.name)
}

type insertValueOp struct {
	name   string
	in, v  engine.Operation
	agg    ir.Type
	offset int64
	elem   ir.Type
}

func (o *insertValueOp) Name() string { return o.name }

func (o *insertValueOp) Execute(f *engine.Frame) (ir.Value, error) {
	vals, err := engine.EvalAll(f, []engine.Operation{o.in, o.v})
	if err != nil {
		return nil, err
	}
	src, err := addressOf(vals[0], o.name)
	if err != nil {
		return nil, err
	}
	dst, err := f.StackAlloc(o.agg)
	if err != nil {
		return nil, err
	}
	if err := engine.Copy(f.Mem, dst, src, f.Layout.SizeOf(o.agg)); err != nil {
		return nil, annotate(err, o.name)
	}
	if err := storeElement(f, o.elem, dst+uint64(o.offset), vals[1]); err != nil {
		return nil, annotate(err, o.name)
	}
	return ir.Address(dst), nil
}
