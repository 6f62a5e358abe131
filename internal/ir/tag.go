package ir

import "fmt"

// TypeTag is the closed classification of an IR type used by every dispatcher.
type TypeTag int

const (
	TagBool TypeTag = iota
	TagI8
	TagI16
	TagI32
	TagI64
	TagIntN
	TagFloat
	TagDouble
	TagX86FP80
	TagPointer
	TagFunctionPointer
	TagArray
	TagStruct
	TagVoid
	TagVectorBool
	TagVectorI8
	TagVectorI16
	TagVectorI32
	TagVectorI64
	TagVectorFloat
	TagVectorDouble
	TagVectorPointer

	tagCount
)

var tagNames = [tagCount]string{
	TagBool:            "i1",
	TagI8:              "i8",
	TagI16:             "i16",
	TagI32:             "i32",
	TagI64:             "i64",
	TagIntN:            "iN",
	TagFloat:           "float",
	TagDouble:          "double",
	TagX86FP80:         "x86_fp80",
	TagPointer:         "ptr",
	TagFunctionPointer: "fnptr",
	TagArray:           "array",
	TagStruct:          "struct",
	TagVoid:            "void",
	TagVectorBool:      "vi1",
	TagVectorI8:        "vi8",
	TagVectorI16:       "vi16",
	TagVectorI32:       "vi32",
	TagVectorI64:       "vi64",
	TagVectorFloat:     "vfloat",
	TagVectorDouble:    "vdouble",
	TagVectorPointer:   "vptr",
}

func (t TypeTag) String() string {
	if t >= 0 && t < tagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// AllTags lists every tag in declaration order.
func AllTags() []TypeTag {
	tags := make([]TypeTag, tagCount)
	for i := range tags {
		tags[i] = TypeTag(i)
	}
	return tags
}

// Classify maps a type to its tag. Every well-formed type yields exactly one tag.
func Classify(t Type) TypeTag {
	switch x := t.(type) {
	case *IntType:
		return intTag(x.Width)
	case *FloatType:
		switch x.Kind {
		case Float32:
			return TagFloat
		case Float64:
			return TagDouble
		case X86FP80:
			return TagX86FP80
		}
	case *PointerType:
		if _, ok := x.Pointee.(*FunctionType); ok {
			return TagFunctionPointer
		}
		return TagPointer
	case *FunctionType:
		// A bare function type only appears as a callee; it is used by reference.
		return TagFunctionPointer
	case *ArrayType:
		return TagArray
	case *StructType:
		return TagStruct
	case *VectorType:
		return vectorTag(x.Elem)
	case *VoidType, nil:
		return TagVoid
	}
	panic(fmt.Sprintf("ir: unclassifiable type %T", t))
}

func intTag(width int) TypeTag {
	switch width {
	case 1:
		return TagBool
	case 8:
		return TagI8
	case 16:
		return TagI16
	case 32:
		return TagI32
	case 64:
		return TagI64
	}
	return TagIntN
}

func vectorTag(elem Type) TypeTag {
	switch Classify(elem) {
	case TagBool:
		return TagVectorBool
	case TagI8:
		return TagVectorI8
	case TagI16:
		return TagVectorI16
	case TagI32:
		return TagVectorI32
	case TagI64:
		return TagVectorI64
	case TagFloat:
		return TagVectorFloat
	case TagDouble:
		return TagVectorDouble
	case TagPointer, TagFunctionPointer:
		return TagVectorPointer
	}
	panic(fmt.Sprintf("ir: invalid vector element %s", elem))
}

// VectorInfo returns the element tag and length of a vector type.
// For non-vector types it returns the type's own tag and length 0.
func VectorInfo(t Type) (TypeTag, int) {
	if v, ok := t.(*VectorType); ok {
		return Classify(v.Elem), v.Len
	}
	return Classify(t), 0
}

// ElementTag returns the scalar tag of a vector tag, or the tag itself.
func (t TypeTag) ElementTag() TypeTag {
	switch t {
	case TagVectorBool:
		return TagBool
	case TagVectorI8:
		return TagI8
	case TagVectorI16:
		return TagI16
	case TagVectorI32:
		return TagI32
	case TagVectorI64:
		return TagI64
	case TagVectorFloat:
		return TagFloat
	case TagVectorDouble:
		return TagDouble
	case TagVectorPointer:
		return TagPointer
	}
	return t
}

// IsVector reports whether the tag is one of the vector forms.
func (t TypeTag) IsVector() bool {
	return t >= TagVectorBool && t <= TagVectorPointer
}

// IsInteger reports whether the tag is a scalar integer (including i1).
func (t TypeTag) IsInteger() bool {
	return t >= TagBool && t <= TagIntN
}

// IsFloat reports whether the tag is a scalar floating-point type.
func (t TypeTag) IsFloat() bool {
	return t == TagFloat || t == TagDouble || t == TagX86FP80
}

// IsPointer reports whether the tag is a data or function pointer.
func (t TypeTag) IsPointer() bool {
	return t == TagPointer || t == TagFunctionPointer
}

// IsAggregate reports whether values of the tag travel by reference.
func (t TypeTag) IsAggregate() bool {
	return t == TagArray || t == TagStruct
}

// BitWidth returns the scalar bit width of integer, float, pointer and vector
// types under DefaultLayout. Aggregates and void return 0.
func BitWidth(t Type) int {
	return DefaultLayout.BitWidth(t)
}

// BitWidth is the package-level BitWidth with pointers sized by dl.
func (dl DataLayout) BitWidth(t Type) int {
	switch x := t.(type) {
	case *IntType:
		return x.Width
	case *FloatType:
		switch x.Kind {
		case Float32:
			return 32
		case Float64:
			return 64
		case X86FP80:
			return 80
		}
	case *PointerType:
		return int(dl.PointerSize) * 8
	case *VectorType:
		return dl.BitWidth(x.Elem) * x.Len
	}
	return 0
}
