package ir

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ParseValue reads a literal of type t in the notation FormatValue writes.
// Integers accept decimal or 0x-prefixed hex and wrap to the type's width;
// i1 also accepts true and false. Floats accept nan, +inf and -inf.
// Vectors are written <a, b, ...> with one literal per lane.
func ParseValue(t Type, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch x := t.(type) {
	case *IntType:
		if x.Width == 1 {
			switch s {
			case "true":
				return I1(true), nil
			case "false":
				return I1(false), nil
			}
		}
		n, err := parseInt(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s literal %q: %w", t, s, err)
		}
		return MakeInt(x.Width, n), nil

	case *FloatType:
		return parseFloat(x.Kind, s)

	case *PointerType:
		n, err := parseInt(s)
		if err != nil || n.Sign() < 0 || !n.IsUint64() {
			return nil, fmt.Errorf("parse %s literal %q: not an address", t, s)
		}
		if _, ok := x.Pointee.(*FunctionType); ok {
			return FunctionAddress(n.Uint64()), nil
		}
		return Address(n.Uint64()), nil

	case *VectorType:
		if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("parse %s literal %q: missing <...>", t, s)
		}
		parts := strings.Split(s[1:len(s)-1], ",")
		if len(parts) != x.Len {
			return nil, fmt.Errorf("parse %s literal %q: %d lanes, want %d", t, s, len(parts), x.Len)
		}
		vec := make(Vector, x.Len)
		for i, p := range parts {
			v, err := ParseValue(x.Elem, p)
			if err != nil {
				return nil, err
			}
			vec[i] = v
		}
		return vec, nil
	}
	return nil, fmt.Errorf("type %s has no literal form", orVoid(t))
}

func parseInt(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if rest, ok := strings.CutPrefix(digits, "0x"); ok {
		digits, base = rest, 16
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" {
		return nil, fmt.Errorf("invalid integer")
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func parseFloat(kind FloatKind, s string) (Value, error) {
	special := map[string]float64{"nan": math.NaN(), "+inf": math.Inf(1), "inf": math.Inf(1), "-inf": math.Inf(-1)}
	if kind == X86FP80 {
		if f, ok := special[s]; ok {
			return F80FromFloat64(f), nil
		}
		x, _, err := big.ParseFloat(s, 10, 64, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("parse x86_fp80 literal %q: %w", s, err)
		}
		return F80FromBig(x), nil
	}

	bits := 64
	if kind == Float32 {
		bits = 32
	}
	f, ok := special[s]
	if !ok {
		var err error
		if f, err = strconv.ParseFloat(s, bits); err != nil {
			return nil, fmt.Errorf("parse float literal %q: %w", s, err)
		}
	}
	if kind == Float32 {
		return F32(f), nil
	}
	return F64(f), nil
}
