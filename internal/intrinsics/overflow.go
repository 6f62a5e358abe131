package intrinsics

import (
	"fmt"
	"math/big"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

type overflowOp struct {
	name   string
	signed bool
	apply  func(z, a, b *big.Int) *big.Int
}

var overflowOps = []overflowOp{
	{"sadd", true, (*big.Int).Add},
	{"uadd", false, (*big.Int).Add},
	{"ssub", true, (*big.Int).Sub},
	{"usub", false, (*big.Int).Sub},
	{"smul", true, (*big.Int).Mul},
	{"umul", false, (*big.Int).Mul},
}

// registerOverflow adds llvm.{s,u}{add,sub,mul}.with.overflow.iN. The
// {iN, i1} result is written to stack storage and returned by reference;
// the flag sits at the field offset the layout gives the pair.
func registerOverflow(r *Registry) error {
	for _, w := range bitWidths {
		result := ir.NewStruct(false, ir.NewInt(w), ir.Int1)
		layout := ir.DefaultLayout.StructLayout(result)
		slo, shi := intRange(w, true)
		ulo, uhi := intRange(w, false)

		for _, op := range overflowOps {
			bitsOf, lower, upper := ir.UnsignedBits, ulo, uhi
			if op.signed {
				bitsOf, lower, upper = ir.SignedBits, slo, shi
			}
			name := fmt.Sprintf("@llvm.%s.with.overflow.i%d", op.name, w)
			err := r.Register(builtin(name, 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
				a, _, ok1 := bitsOf(args[0])
				b, _, ok2 := bitsOf(args[1])
				if !ok1 || !ok2 {
					return nil, engine.NewTypeMismatch(name, fmt.Sprintf("i%d", w), args[0])
				}
				exact := op.apply(new(big.Int), a, b)
				overflow := exact.Cmp(lower) < 0 || exact.Cmp(upper) > 0

				addr, err := f.Stack.Alloc(layout.Size, layout.Align)
				if err != nil {
					return nil, err
				}
				if err := f.Store(result.Fields[0], addr, ir.MakeInt(w, exact)); err != nil {
					return nil, err
				}
				if err := f.Store(ir.Int1, addr+uint64(layout.Offsets[1]), ir.I1(overflow)); err != nil {
					return nil, err
				}
				return ir.Address(addr), nil
			}))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// intRange returns the inclusive bounds of a w-bit integer.
func intRange(w int, signed bool) (*big.Int, *big.Int) {
	if !signed {
		return new(big.Int), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(w)), big.NewInt(1))
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(w-1))
	return new(big.Int).Neg(half), new(big.Int).Sub(half, big.NewInt(1))
}
