package ir

import "fmt"

// DataLayout computes sizes, alignments and field offsets for the target.
// The zero value is not usable; start from DefaultLayout.
type DataLayout struct {
	// PointerSize is the width of a pointer in bytes.
	PointerSize int64
}

// DefaultLayout is x86-64 System V.
var DefaultLayout = DataLayout{PointerSize: 8}

// StructLayout is the computed placement of a struct's fields.
type StructLayout struct {
	Offsets []int64
	Size    int64 // total size including tail padding
	Align   int64
}

// SizeOf returns the store size of t in bytes: the bytes a load or store touches.
func (dl DataLayout) SizeOf(t Type) int64 {
	switch x := t.(type) {
	case *IntType:
		return (int64(x.Width) + 7) / 8
	case *FloatType:
		switch x.Kind {
		case Float32:
			return 4
		case Float64:
			return 8
		case X86FP80:
			return 10
		}
	case *PointerType, *FunctionType:
		return dl.PointerSize
	case *VectorType:
		if isBool(x.Elem) {
			return (int64(x.Len) + 7) / 8
		}
		return int64(x.Len) * dl.SizeOf(x.Elem)
	case *ArrayType:
		return int64(x.Len) * dl.AllocSizeOf(x.Elem)
	case *StructType:
		return dl.StructLayout(x).Size
	}
	return 0
}

// AllocSizeOf returns the size rounded up to the type's alignment; this is the
// stride between consecutive array elements.
func (dl DataLayout) AllocSizeOf(t Type) int64 {
	return alignTo(dl.SizeOf(t), dl.AlignOf(t))
}

// AlignOf returns the ABI alignment of t in bytes.
func (dl DataLayout) AlignOf(t Type) int64 {
	switch x := t.(type) {
	case *IntType:
		return min(nextPow2((int64(x.Width)+7)/8), 8)
	case *FloatType:
		switch x.Kind {
		case Float32:
			return 4
		case Float64:
			return 8
		case X86FP80:
			return 16
		}
	case *PointerType, *FunctionType:
		return dl.PointerSize
	case *VectorType:
		return min(nextPow2(dl.SizeOf(x)), 16)
	case *ArrayType:
		return dl.AlignOf(x.Elem)
	case *StructType:
		return dl.StructLayout(x).Align
	}
	return 1
}

// StructLayout places each field at the next offset aligned for it. Packed
// structs have no padding and alignment 1.
func (dl DataLayout) StructLayout(st *StructType) StructLayout {
	layout := StructLayout{Offsets: make([]int64, len(st.Fields)), Align: 1}
	var off int64
	for i, f := range st.Fields {
		if !st.Packed {
			a := dl.AlignOf(f)
			off = alignTo(off, a)
			layout.Align = max(layout.Align, a)
		}
		layout.Offsets[i] = off
		off += dl.AllocSizeOf(f)
	}
	if !st.Packed {
		off = alignTo(off, layout.Align)
	}
	layout.Size = off
	return layout
}

// OffsetOf walks indices into an aggregate or vector type and returns the
// byte offset of the addressed element together with its type.
func (dl DataLayout) OffsetOf(t Type, indices []int) (int64, Type, error) {
	var off int64
	cur := t
	for depth, idx := range indices {
		switch x := cur.(type) {
		case *StructType:
			if idx < 0 || idx >= len(x.Fields) {
				return 0, nil, fmt.Errorf("index %d out of range for %s at depth %d", idx, x, depth)
			}
			off += dl.StructLayout(x).Offsets[idx]
			cur = x.Fields[idx]
		case *ArrayType:
			if idx < 0 || idx >= x.Len {
				return 0, nil, fmt.Errorf("index %d out of range for %s at depth %d", idx, x, depth)
			}
			off += int64(idx) * dl.AllocSizeOf(x.Elem)
			cur = x.Elem
		case *VectorType:
			if idx < 0 || idx >= x.Len || isBool(x.Elem) {
				return 0, nil, fmt.Errorf("cannot address element %d of %s", idx, x)
			}
			off += int64(idx) * dl.SizeOf(x.Elem)
			cur = x.Elem
		default:
			return 0, nil, fmt.Errorf("cannot index into %s at depth %d", cur, depth)
		}
	}
	return off, cur, nil
}

func isBool(t Type) bool {
	it, ok := t.(*IntType)
	return ok && it.Width == 1
}

func alignTo(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func nextPow2(n int64) int64 {
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}
