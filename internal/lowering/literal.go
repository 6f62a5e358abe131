package lowering

import (
	"fmt"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// LiteralOp is a typed constant.
type LiteralOp struct {
	Type  ir.Type
	Value ir.Value
}

// Name returns "lit.<type>".
func (o *LiteralOp) Name() string { return opName("lit", o.Type) }

// Execute returns the constant.
func (o *LiteralOp) Execute(*engine.Frame) (ir.Value, error) { return o.Value, nil }

// VectorLiteralOp builds a vector from one operation per lane.
type VectorLiteralOp struct {
	Type     *ir.VectorType
	Elements []engine.Operation
}

// Name returns "vec.<type>".
func (o *VectorLiteralOp) Name() string { return opName("vec", o.Type) }

// Execute evaluates each lane in order.
func (o *VectorLiteralOp) Execute(f *engine.Frame) (ir.Value, error) {
	vals, err := engine.EvalAll(f, o.Elements)
	if err != nil {
		return nil, err
	}
	return ir.Vector(vals), nil
}

// Literal wraps a constant after checking its runtime shape against t.
func (lw *Lowerer) Literal(t ir.Type, v ir.Value) (engine.Operation, error) {
	tag := ir.Classify(t)
	if tag == ir.TagVoid || !ir.MatchesTag(tag, v) {
		return nil, violationf("literal", []ir.Type{t}, "value %s", ir.FormatValue(v))
	}
	switch x := t.(type) {
	case *ir.IntType:
		if n, ok := v.(ir.IntN); ok && n.Width != x.Width {
			return nil, violationf("literal", []ir.Type{t}, "width %d", n.Width)
		}
	case *ir.VectorType:
		if len(v.(ir.Vector)) != x.Len {
			return nil, violationf("literal", []ir.Type{t}, "%d lanes", len(v.(ir.Vector)))
		}
	}
	return &LiteralOp{Type: t, Value: v}, nil
}

// VectorLiteral builds a vector from per-lane operations.
func (lw *Lowerer) VectorLiteral(t *ir.VectorType, elems []engine.Operation) (engine.Operation, error) {
	if len(elems) != t.Len {
		return nil, violationf("vector", []ir.Type{t}, "%d elements for %d lanes", len(elems), t.Len)
	}
	return &VectorLiteralOp{Type: t, Elements: elems}, nil
}

// Zero returns the zero constant of t. A vector zero is one zero-literal
// operation replicated per lane. Aggregate zeros allocate zero-filled
// storage on the frame's stack.
func (lw *Lowerer) Zero(t ir.Type) (engine.Operation, error) {
	switch ir.Classify(t) {
	case ir.TagBool, ir.TagI8, ir.TagI16, ir.TagI32, ir.TagI64, ir.TagIntN,
		ir.TagFloat, ir.TagDouble, ir.TagX86FP80, ir.TagPointer, ir.TagFunctionPointer:
		z, err := ir.Zero(t)
		if err != nil {
			return nil, violationf("zero", []ir.Type{t}, "%v", err)
		}
		return &LiteralOp{Type: t, Value: z}, nil
	case ir.TagVectorBool, ir.TagVectorI8, ir.TagVectorI16, ir.TagVectorI32, ir.TagVectorI64,
		ir.TagVectorFloat, ir.TagVectorDouble, ir.TagVectorPointer:
		vt := t.(*ir.VectorType)
		lane, err := lw.Zero(vt.Elem)
		if err != nil {
			return nil, err
		}
		elems := make([]engine.Operation, vt.Len)
		for i := range elems {
			elems[i] = lane
		}
		return &VectorLiteralOp{Type: vt, Elements: elems}, nil
	case ir.TagArray, ir.TagStruct:
		return &aggregateLiteralOp{
			name:  opName("zero", t),
			size:  lw.layout.AllocSizeOf(t),
			align: lw.layout.AlignOf(t),
		}, nil
	case ir.TagVoid:
	}
	return nil, violation("zero", t)
}

// StructLiteral builds a struct in fresh stack storage. Fields are placed at
// their layout offsets; padding bytes are zero.
func (lw *Lowerer) StructLiteral(st *ir.StructType, fields []engine.Operation) (engine.Operation, error) {
	if len(fields) != len(st.Fields) {
		return nil, violationf("struct", []ir.Type{st}, "%d values for %d fields", len(fields), len(st.Fields))
	}
	layout := lw.layout.StructLayout(st)
	slots := make([]slot, len(fields))
	for i, op := range fields {
		slots[i] = slot{offset: layout.Offsets[i], typ: st.Fields[i], op: op}
	}
	return &aggregateLiteralOp{
		name:  opName("struct", st),
		size:  lw.layout.AllocSizeOf(st),
		align: lw.layout.AlignOf(st),
		slots: slots,
	}, nil
}

// ArrayLiteral builds an array in fresh stack storage.
func (lw *Lowerer) ArrayLiteral(at *ir.ArrayType, elems []engine.Operation) (engine.Operation, error) {
	if len(elems) != at.Len {
		return nil, violationf("array", []ir.Type{at}, "%d values for %d elements", len(elems), at.Len)
	}
	stride := lw.layout.AllocSizeOf(at.Elem)
	slots := make([]slot, len(elems))
	for i, op := range elems {
		slots[i] = slot{offset: int64(i) * stride, typ: at.Elem, op: op}
	}
	return &aggregateLiteralOp{
		name:  fmt.Sprintf("array.%d.%s", at.Len, suffix(at.Elem)),
		size:  lw.layout.AllocSizeOf(at),
		align: lw.layout.AlignOf(at),
		slots: slots,
	}, nil
}

type slot struct {
	offset int64
	typ    ir.Type
	op     engine.Operation
}

type aggregateLiteralOp struct {
	name  string
	size  int64
	align int64
	slots []slot
}

func (o *aggregateLiteralOp) Name() string { return o.name }

func (o *aggregateLiteralOp) Execute(f *engine.Frame) (ir.Value, error) {
	addr, err := f.Stack.Alloc(o.size, o.align)
	if err != nil {
		return nil, err
	}
	if err := engine.Fill(f.Mem, addr, 0, o.size); err != nil {
		return nil, err
	}
	for _, s := range o.slots {
		v, err := s.op.Execute(f)
		if err != nil {
			return nil, err
		}
		if err := storeElement(f, s.typ, addr+uint64(s.offset), v); err != nil {
			return nil, annotate(err, o.name)
		}
	}
	return ir.Address(addr), nil
}

// storeElement writes v at addr. Aggregate elements arrive as a reference
// and are copied byte-wise.
func storeElement(f *engine.Frame, t ir.Type, addr uint64, v ir.Value) error {
	if ir.Classify(t).IsAggregate() {
		src, ok := v.(ir.Address)
		if !ok {
			return engine.NewTypeMismatch("", "aggregate reference", v)
		}
		return engine.Copy(f.Mem, addr, uint64(src), f.Layout.SizeOf(t))
	}
	return f.Store(t, addr, v)
}

// loadElement reads the element at addr. Aggregate elements are returned by
// reference.
func loadElement(f *engine.Frame, t ir.Type, addr uint64) (ir.Value, error) {
	if ir.Classify(t).IsAggregate() {
		return ir.Address(addr), nil
	}
	return f.Load(t, addr)
}

func addressOf(v ir.Value, op string) (uint64, error) {
	switch x := v.(type) {
	case ir.Address:
		return uint64(x), nil
	case ir.FunctionAddress:
		return uint64(x), nil
	}
	return 0, engine.NewTypeMismatch(op, "pointer", v)
}
