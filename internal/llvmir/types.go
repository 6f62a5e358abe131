package llvmir

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/asm"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/roach88/lowercore/internal/ir"
)

// UnsupportedTypeError reports an LLVM type with no counterpart in the
// lowering core, such as half, fp128, label or an opaque struct by value.
type UnsupportedTypeError struct {
	Type   string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %s: %s", e.Type, e.Reason)
}

// probeName is the declaration ParseType wraps a type string in.
const probeName = "__lowerc_type_probe"

// ParseType parses an LLVM type in textual form, e.g. "<4 x i32>" or
// "{ i8, double }".
func ParseType(s string) (ir.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse type: empty")
	}
	if s == "void" {
		return ir.Void, nil
	}
	src := fmt.Sprintf("declare void @%s(%s)\n", probeName, s)
	m, err := asm.ParseString("<type>", src)
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	if len(m.Funcs) != 1 || len(m.Funcs[0].Sig.Params) != 1 {
		return nil, fmt.Errorf("parse type %q: not a single type", s)
	}
	return FromLLIR(m.Funcs[0].Sig.Params[0])
}

// ParseSignature parses a function type such as "i32 (i32, i1)" or
// "i32 (i8*, ...)".
func ParseSignature(s string) (*ir.FunctionType, error) {
	t, err := ParseType(strings.TrimSpace(s) + "*")
	if err != nil {
		return nil, fmt.Errorf("parse signature %q: %w", s, err)
	}
	p, ok := t.(*ir.PointerType)
	if !ok {
		return nil, fmt.Errorf("parse signature %q: not a function type", s)
	}
	sig, ok := p.Pointee.(*ir.FunctionType)
	if !ok {
		return nil, fmt.Errorf("parse signature %q: not a function type", s)
	}
	return sig, nil
}

// FromLLIR converts an llir type.
func FromLLIR(t lltypes.Type) (ir.Type, error) {
	c := converter{structs: make(map[*lltypes.StructType]*ir.StructType)}
	return c.convert(t)
}

// converter memoises named structs so recursive definitions terminate.
type converter struct {
	structs map[*lltypes.StructType]*ir.StructType
}

func (c *converter) convert(t lltypes.Type) (ir.Type, error) {
	switch x := t.(type) {
	case *lltypes.VoidType:
		return ir.Void, nil
	case *lltypes.IntType:
		if x.BitSize == 0 {
			return nil, &UnsupportedTypeError{Type: t.String(), Reason: "zero width"}
		}
		return ir.NewInt(int(x.BitSize)), nil
	case *lltypes.FloatType:
		switch x.Kind {
		case lltypes.FloatKindFloat:
			return ir.Float, nil
		case lltypes.FloatKindDouble:
			return ir.Double, nil
		case lltypes.FloatKindX86_FP80:
			return ir.FP80, nil
		}
		return nil, &UnsupportedTypeError{Type: t.String(), Reason: "floating-point format"}
	case *lltypes.PointerType:
		// Only function pointees change the classification.
		if fn, ok := x.ElemType.(*lltypes.FuncType); ok {
			sig, err := c.function(fn)
			if err != nil {
				return nil, err
			}
			return ir.NewPointer(sig), nil
		}
		return ir.Ptr, nil
	case *lltypes.FuncType:
		return c.function(x)
	case *lltypes.ArrayType:
		elem, err := c.convert(x.ElemType)
		if err != nil {
			return nil, err
		}
		return ir.NewArray(elem, int(x.Len)), nil
	case *lltypes.VectorType:
		if x.Scalable {
			return nil, &UnsupportedTypeError{Type: t.String(), Reason: "scalable vector"}
		}
		elem, err := c.convert(x.ElemType)
		if err != nil {
			return nil, err
		}
		v, err := ir.NewVector(elem, int(x.Len))
		if err != nil {
			return nil, &UnsupportedTypeError{Type: t.String(), Reason: err.Error()}
		}
		return v, nil
	case *lltypes.StructType:
		return c.structType(x)
	}
	return nil, &UnsupportedTypeError{Type: t.String(), Reason: "no lowering counterpart"}
}

func (c *converter) function(fn *lltypes.FuncType) (*ir.FunctionType, error) {
	ret, err := c.convert(fn.RetType)
	if err != nil {
		return nil, err
	}
	params := make([]ir.Type, len(fn.Params))
	for i, p := range fn.Params {
		if params[i], err = c.convert(p); err != nil {
			return nil, err
		}
	}
	sig := ir.NewFunction(ret, params...)
	sig.Variadic = fn.Variadic
	return sig, nil
}

func (c *converter) structType(x *lltypes.StructType) (ir.Type, error) {
	if st, ok := c.structs[x]; ok {
		return st, nil
	}
	if x.Opaque {
		return nil, &UnsupportedTypeError{Type: x.String(), Reason: "opaque struct has no layout"}
	}
	st := &ir.StructType{Name: x.TypeName, Packed: x.Packed}
	if x.TypeName != "" {
		c.structs[x] = st
	}
	st.Fields = make([]ir.Type, len(x.Fields))
	for i, f := range x.Fields {
		ft, err := c.convert(f)
		if err != nil {
			return nil, err
		}
		st.Fields[i] = ft
	}
	return st, nil
}
