package ir

import (
	"fmt"
	"strings"
)

// Type is a sealed interface representing an LLVM IR type.
// Only the types declared in this file implement it.
type Type interface {
	irType() // Sealed - only these types implement it
	String() string
}

// FloatKind identifies a floating-point precision.
type FloatKind int

const (
	Float32 FloatKind = iota
	Float64
	X86FP80
)

// IntType is an integer type of arbitrary bit width.
// Width 1 is the boolean type; 8/16/32/64 are the fixed-width integers.
type IntType struct {
	Width int
}

// FloatType is a floating-point type.
type FloatType struct {
	Kind FloatKind
}

// PointerType is a pointer. Pointee is nil for opaque pointers.
type PointerType struct {
	Pointee Type
}

// FunctionType is a function signature.
type FunctionType struct {
	Return   Type
	Params   []Type
	Variadic bool
}

// ArrayType is a fixed-length array.
type ArrayType struct {
	Elem Type
	Len  int
}

// StructType is a structure, optionally packed (no inter-field padding).
type StructType struct {
	Name   string // Empty for literal structs
	Fields []Type
	Packed bool
}

// VectorType is a fixed-length SIMD vector of primitive elements.
type VectorType struct {
	Elem Type
	Len  int
}

// VoidType is the absence of a value.
type VoidType struct{}

func (*IntType) irType()      {}
func (*FloatType) irType()    {}
func (*PointerType) irType()  {}
func (*FunctionType) irType() {}
func (*ArrayType) irType()    {}
func (*StructType) irType()   {}
func (*VectorType) irType()   {}
func (*VoidType) irType()     {}

// Shared instances for the common primitive types.
var (
	Int1   = &IntType{Width: 1}
	Int8   = &IntType{Width: 8}
	Int16  = &IntType{Width: 16}
	Int32  = &IntType{Width: 32}
	Int64  = &IntType{Width: 64}
	Float  = &FloatType{Kind: Float32}
	Double = &FloatType{Kind: Float64}
	FP80   = &FloatType{Kind: X86FP80}
	Ptr    = &PointerType{}
	Void   = &VoidType{}
)

// NewInt returns an integer type of the given width.
func NewInt(width int) *IntType {
	return &IntType{Width: width}
}

// NewPointer returns a pointer to pointee.
func NewPointer(pointee Type) *PointerType {
	return &PointerType{Pointee: pointee}
}

// NewFunction returns a function signature.
func NewFunction(ret Type, params ...Type) *FunctionType {
	return &FunctionType{Return: ret, Params: params}
}

// NewArray returns an array type.
func NewArray(elem Type, n int) *ArrayType {
	return &ArrayType{Elem: elem, Len: n}
}

// NewStruct returns a literal (unnamed) struct type.
func NewStruct(packed bool, fields ...Type) *StructType {
	return &StructType{Fields: fields, Packed: packed}
}

// NewVector returns a vector type, rejecting non-primitive element types.
func NewVector(elem Type, n int) (*VectorType, error) {
	if n <= 0 {
		return nil, fmt.Errorf("vector length must be positive, got %d", n)
	}
	if !isVectorElement(elem) {
		return nil, fmt.Errorf("invalid vector element type %s", elem)
	}
	return &VectorType{Elem: elem, Len: n}, nil
}

// MustVector is like NewVector but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustVector(elem Type, n int) *VectorType {
	v, err := NewVector(elem, n)
	if err != nil {
		panic(err)
	}
	return v
}

func isVectorElement(t Type) bool {
	switch e := t.(type) {
	case *IntType:
		return e.Width == 1 || e.Width == 8 || e.Width == 16 || e.Width == 32 || e.Width == 64
	case *FloatType:
		return e.Kind == Float32 || e.Kind == Float64
	case *PointerType:
		return true
	}
	return false
}

func (t *IntType) String() string {
	return fmt.Sprintf("i%d", t.Width)
}

func (t *FloatType) String() string {
	switch t.Kind {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case X86FP80:
		return "x86_fp80"
	}
	return fmt.Sprintf("float(%d)", int(t.Kind))
}

func (t *PointerType) String() string {
	if t.Pointee == nil {
		return "ptr"
	}
	return t.Pointee.String() + "*"
}

func (t *FunctionType) String() string {
	params := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	if t.Variadic {
		params = append(params, "...")
	}
	ret := "void"
	if t.Return != nil {
		ret = t.Return.String()
	}
	return fmt.Sprintf("%s (%s)", ret, strings.Join(params, ", "))
}

func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
}

func (t *StructType) String() string {
	if t.Name != "" {
		return "%" + t.Name
	}
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.String()
	}
	body := "{ " + strings.Join(fields, ", ") + " }"
	if len(t.Fields) == 0 {
		body = "{}"
	}
	if t.Packed {
		return "<" + body + ">"
	}
	return body
}

func (t *VectorType) String() string {
	return fmt.Sprintf("<%d x %s>", t.Len, t.Elem)
}

func (*VoidType) String() string {
	return "void"
}

// SameType reports whether two types are structurally identical.
// Named structs compare by name; literal structs compare field by field.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *IntType:
		y, ok := b.(*IntType)
		return ok && x.Width == y.Width
	case *FloatType:
		y, ok := b.(*FloatType)
		return ok && x.Kind == y.Kind
	case *PointerType:
		y, ok := b.(*PointerType)
		return ok && SameType(x.Pointee, y.Pointee)
	case *FunctionType:
		y, ok := b.(*FunctionType)
		if !ok || x.Variadic != y.Variadic || len(x.Params) != len(y.Params) {
			return false
		}
		if !SameType(orVoid(x.Return), orVoid(y.Return)) {
			return false
		}
		for i := range x.Params {
			if !SameType(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Len == y.Len && SameType(x.Elem, y.Elem)
	case *StructType:
		y, ok := b.(*StructType)
		if !ok || x.Packed != y.Packed || x.Name != y.Name || len(x.Fields) != len(y.Fields) {
			return false
		}
		if x.Name != "" {
			return true
		}
		for i := range x.Fields {
			if !SameType(x.Fields[i], y.Fields[i]) {
				return false
			}
		}
		return true
	case *VectorType:
		y, ok := b.(*VectorType)
		return ok && x.Len == y.Len && SameType(x.Elem, y.Elem)
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	}
	return false
}

func orVoid(t Type) Type {
	if t == nil {
		return Void
	}
	return t
}
