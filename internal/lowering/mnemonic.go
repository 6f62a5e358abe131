package lowering

import (
	"fmt"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// ParseInstruction builds the instruction an LLVM mnemonic names over
// operands of type t. Casts read their target from to and take one operand;
// select takes a condition followed by the two values; the arithmetic,
// logical and comparison mnemonics take two operands. Comparison predicates
// are read in the float family when t is floating point.
func ParseInstruction(mnemonic string, t, to ir.Type, operands []engine.Operation) (Instruction, error) {
	want := func(n int) error {
		if len(operands) != n {
			return fmt.Errorf("%s takes %d operands, got %d", mnemonic, n, len(operands))
		}
		return nil
	}

	if kind, err := ir.ParseConversionKind(mnemonic); err == nil {
		if to == nil {
			return nil, fmt.Errorf("%s needs a target type", mnemonic)
		}
		if err := want(1); err != nil {
			return nil, err
		}
		return &CastInst{Kind: kind, From: t, To: to, In: operands[0]}, nil
	}

	if mnemonic == "select" {
		if err := want(3); err != nil {
			return nil, err
		}
		var cond ir.Type = ir.Int1
		if vt, ok := t.(*ir.VectorType); ok {
			cond = ir.MustVector(ir.Int1, vt.Len)
		}
		return &SelectInst{CondType: cond, Type: t, Cond: operands[0], True: operands[1], False: operands[2]}, nil
	}

	if err := want(2); err != nil {
		return nil, err
	}
	if op, err := ir.ParseArithmeticOp(mnemonic); err == nil {
		return &BinaryInst{Op: op, Type: t, L: operands[0], R: operands[1]}, nil
	}
	if op, err := ir.ParseLogicalOp(mnemonic); err == nil {
		return &LogicalInst{Op: op, Type: t, L: operands[0], R: operands[1]}, nil
	}
	float := ir.Classify(t).ElementTag().IsFloat()
	if op, err := ir.ParseComparisonOp(mnemonic, float); err == nil {
		return &CompareInst{Op: op, Type: t, L: operands[0], R: operands[1]}, nil
	}
	return nil, fmt.Errorf("unknown operator %q", mnemonic)
}
