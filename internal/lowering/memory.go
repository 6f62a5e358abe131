package lowering

import (
	"fmt"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// Load selects the read of a t-typed value from the address produced by addr.
// Scalars and vectors decode their byte image. Aggregates are copied into
// fresh stack storage and returned by reference.
func (lw *Lowerer) Load(t ir.Type, addr engine.Operation) (engine.Operation, error) {
	if _, bare := t.(*ir.FunctionType); bare {
		return nil, violation("load", t)
	}
	name := opName("load", t)
	switch ir.Classify(t) {
	case ir.TagBool, ir.TagI8, ir.TagI16, ir.TagI32, ir.TagI64, ir.TagIntN,
		ir.TagFloat, ir.TagDouble, ir.TagX86FP80, ir.TagPointer, ir.TagFunctionPointer,
		ir.TagVectorBool, ir.TagVectorI8, ir.TagVectorI16, ir.TagVectorI32, ir.TagVectorI64,
		ir.TagVectorFloat, ir.TagVectorDouble, ir.TagVectorPointer:
		return &loadOp{name: name, t: t, addr: addr}, nil
	case ir.TagArray, ir.TagStruct:
		return &loadOp{name: name, t: t, addr: addr, aggregate: true}, nil
	case ir.TagVoid:
	}
	return nil, violation("load", t)
}

// Store selects the write of v to the address produced by addr. The value is
// evaluated before the address. The operation yields no value.
func (lw *Lowerer) Store(t ir.Type, addr, v engine.Operation) (engine.Operation, error) {
	if _, bare := t.(*ir.FunctionType); bare {
		return nil, violation("store", t)
	}
	name := opName("store", t)
	switch ir.Classify(t) {
	case ir.TagBool, ir.TagI8, ir.TagI16, ir.TagI32, ir.TagI64, ir.TagIntN,
		ir.TagFloat, ir.TagDouble, ir.TagX86FP80, ir.TagPointer, ir.TagFunctionPointer,
		ir.TagVectorBool, ir.TagVectorI8, ir.TagVectorI16, ir.TagVectorI32, ir.TagVectorI64,
		ir.TagVectorFloat, ir.TagVectorDouble, ir.TagVectorPointer,
		ir.TagArray, ir.TagStruct:
		return &storeOp{name: name, t: t, addr: addr, v: v}, nil
	case ir.TagVoid:
	}
	return nil, violation("store", t)
}

type loadOp struct {
	name      string
	t         ir.Type
	addr      engine.Operation
	aggregate bool
}

func (o *loadOp) Name() string { return o.name }

func (o *loadOp) Execute(f *engine.Frame) (ir.Value, error) {
	p, err := o.addr.Execute(f)
	if err != nil {
		return nil, err
	}
	src, err := addressOf(p, o.name)
	if err != nil {
		return nil, err
	}
	if !o.aggregate {
		v, err := f.Load(o.t, src)
		return v, annotate(err, o.name)
	}
	dst, err := f.StackAlloc(o.t)
	if err != nil {
		return nil, err
	}
	if err := engine.Copy(f.Mem, dst, src, f.Layout.SizeOf(o.t)); err != nil {
		return nil, annotate(err, o.name)
	}
	return ir.Address(dst), nil
}

type storeOp struct {
	name    string
	t       ir.Type
	addr, v engine.Operation
}

func (o *storeOp) Name() string { return o.name }

func (o *storeOp) Execute(f *engine.Frame) (ir.Value, error) {
	vals, err := engine.EvalAll(f, []engine.Operation{o.v, o.addr})
	if err != nil {
		return nil, err
	}
	dst, err := addressOf(vals[1], o.name)
	if err != nil {
		return nil, err
	}
	return nil, annotate(storeElement(f, o.t, dst, vals[0]), o.name)
}

// Index is one getelementptr index. Value is nil for a constant index.
// Struct field indices must be constant.
type Index struct {
	Value engine.Operation
	Const int64
}

// ConstIndex returns a constant index.
func ConstIndex(i int64) Index { return Index{Const: i} }

// DynamicIndex returns an index computed at run time.
func DynamicIndex(op engine.Operation) Index { return Index{Value: op} }

type scaledIndex struct {
	op    engine.Operation
	scale int64
}

// ElementPointer selects a getelementptr over source, the type base points
// to. The first index steps over whole source elements; later indices walk
// into arrays, vectors and structs. Constant parts fold into one offset.
func (lw *Lowerer) ElementPointer(source ir.Type, base engine.Operation, indices []Index) (engine.Operation, error) {
	if len(indices) == 0 {
		return base, nil
	}
	op := &gepOp{name: "gep." + suffix(source), base: base}
	addTerm := func(idx Index, scale int64) {
		if idx.Value == nil {
			op.offset += idx.Const * scale
			return
		}
		op.terms = append(op.terms, scaledIndex{op: idx.Value, scale: scale})
	}

	addTerm(indices[0], lw.layout.AllocSizeOf(source))
	cur := source
	for depth, idx := range indices[1:] {
		switch x := cur.(type) {
		case *ir.StructType:
			if idx.Value != nil || idx.Const < 0 || idx.Const >= int64(len(x.Fields)) {
				return nil, violationf("getelementptr", []ir.Type{source},
					"struct index at depth %d must be a constant field number", depth+1)
			}
			op.offset += lw.layout.StructLayout(x).Offsets[idx.Const]
			cur = x.Fields[idx.Const]
		case *ir.ArrayType:
			addTerm(idx, lw.layout.AllocSizeOf(x.Elem))
			cur = x.Elem
		case *ir.VectorType:
			if ir.Classify(x.Elem) == ir.TagBool {
				return nil, violationf("getelementptr", []ir.Type{source}, "cannot address i1 vector lanes")
			}
			addTerm(idx, lw.layout.SizeOf(x.Elem))
			cur = x.Elem
		default:
			return nil, violationf("getelementptr", []ir.Type{source}, "cannot index into %s", cur)
		}
	}
	return op, nil
}

type gepOp struct {
	name   string
	base   engine.Operation
	offset int64
	terms  []scaledIndex
}

func (o *gepOp) Name() string { return o.name }

func (o *gepOp) Execute(f *engine.Frame) (ir.Value, error) {
	b, err := o.base.Execute(f)
	if err != nil {
		return nil, err
	}
	addr, err := addressOf(b, o.name)
	if err != nil {
		return nil, err
	}
	off := o.offset
	for _, t := range o.terms {
		v, err := t.op.Execute(f)
		if err != nil {
			return nil, err
		}
		i, ok := ir.AsInt64(v)
		if !ok {
			return nil, engine.NewTypeMismatch(o.name, "integer index", v)
		}
		off += i * t.scale
	}
	return ir.Address(addr + uint64(off)), nil
}

// Alloca reserves count elements of elem on the frame's stack. count may be
// nil for a single element. align raises the element's natural alignment.
func (lw *Lowerer) Alloca(elem ir.Type, count engine.Operation, align int64) (engine.Operation, error) {
	switch ir.Classify(elem) {
	case ir.TagVoid:
		return nil, violation("alloca", elem)
	case ir.TagFunctionPointer:
		if _, bare := elem.(*ir.FunctionType); bare {
			return nil, violation("alloca", elem)
		}
	}
	return &allocaOp{
		name:  opName("alloca", elem),
		size:  lw.layout.AllocSizeOf(elem),
		align: max(align, lw.layout.AlignOf(elem)),
		count: count,
	}, nil
}

type allocaOp struct {
	name  string
	size  int64
	align int64
	count engine.Operation
}

func (o *allocaOp) Name() string { return o.name }

func (o *allocaOp) Execute(f *engine.Frame) (ir.Value, error) {
	n := int64(1)
	if o.count != nil {
		v, err := o.count.Execute(f)
		if err != nil {
			return nil, err
		}
		c, ok := ir.AsUint64(v)
		if !ok || c > uint64(1<<40) {
			return nil, engine.NewTypeMismatch(o.name, "element count", v)
		}
		n = int64(c)
	}
	addr, err := f.Stack.Alloc(o.size*n, o.align)
	if err != nil {
		return nil, annotate(err, o.name)
	}
	return ir.Address(addr), nil
}

// VAArg reads the next variadic argument through the va_list at list. The
// argument must match t.
func (lw *Lowerer) VAArg(t ir.Type, list engine.Operation) (engine.Operation, error) {
	tag := ir.Classify(t)
	if tag == ir.TagVoid || tag.IsAggregate() {
		return nil, violation("va_arg", t)
	}
	name := opName("va_arg", t)
	return &engine.Func{Label: name, Fn: func(f *engine.Frame) (ir.Value, error) {
		p, err := list.Execute(f)
		if err != nil {
			return nil, err
		}
		addr, err := addressOf(p, name)
		if err != nil {
			return nil, err
		}
		v, err := f.VANext(addr)
		if err != nil {
			return nil, annotate(err, name)
		}
		if !ir.MatchesTag(tag, v) {
			return nil, engine.NewTypeMismatch(name, fmt.Sprint(t), v)
		}
		return v, nil
	}}, nil
}
