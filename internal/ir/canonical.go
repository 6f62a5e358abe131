package ir

import (
	"bytes"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical byte form of a type for hashing.
//
// Differences from String():
//  1. Named structs carry their body the first time they appear
//  2. Recursive references to a named struct print only the name
//  3. Struct names are NFC normalized
//  4. Opaque and typed pointers both render as "ptr": pointee types do not
//     affect lowering
func MarshalCanonical(t Type) []byte {
	var buf bytes.Buffer
	writeCanonical(&buf, t, map[string]bool{})
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, t Type, seen map[string]bool) {
	switch x := t.(type) {
	case nil:
		buf.WriteString("void")
	case *IntType:
		fmt.Fprintf(buf, "i%d", x.Width)
	case *FloatType:
		buf.WriteString(x.String())
	case *PointerType:
		if _, ok := x.Pointee.(*FunctionType); ok {
			buf.WriteString("fnptr")
			return
		}
		buf.WriteString("ptr")
	case *FunctionType:
		buf.WriteString("fn(")
		writeCanonical(buf, x.Return, seen)
		for _, p := range x.Params {
			buf.WriteByte(',')
			writeCanonical(buf, p, seen)
		}
		if x.Variadic {
			buf.WriteString(",...")
		}
		buf.WriteByte(')')
	case *ArrayType:
		fmt.Fprintf(buf, "[%d x ", x.Len)
		writeCanonical(buf, x.Elem, seen)
		buf.WriteByte(']')
	case *VectorType:
		fmt.Fprintf(buf, "<%d x ", x.Len)
		writeCanonical(buf, x.Elem, seen)
		buf.WriteByte('>')
	case *StructType:
		if x.Name != "" {
			name := norm.NFC.String(x.Name)
			buf.WriteString("%" + name)
			if seen[name] {
				return
			}
			seen[name] = true
		}
		if x.Packed {
			buf.WriteByte('<')
		}
		buf.WriteByte('{')
		for i, f := range x.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, f, seen)
		}
		buf.WriteByte('}')
		if x.Packed {
			buf.WriteByte('>')
		}
	case *VoidType:
		buf.WriteString("void")
	}
}
