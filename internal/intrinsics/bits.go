package intrinsics

import (
	"fmt"
	"math/bits"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

var bitWidths = []int{8, 16, 32, 64}

// registerBits adds llvm.ctlz, llvm.cttz, llvm.ctpop and llvm.bswap.
func registerBits(r *Registry) error {
	for _, w := range bitWidths {
		err := r.registerAll(
			builtin(fmt.Sprintf("@llvm.ctlz.i%d", w), 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
				u, err := uintArg(args[0])
				if err != nil {
					return nil, err
				}
				return intOf(w, int64(bits.LeadingZeros64(u)-(64-w))), nil
			}),
			builtin(fmt.Sprintf("@llvm.cttz.i%d", w), 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
				u, err := uintArg(args[0])
				if err != nil {
					return nil, err
				}
				return intOf(w, int64(min(bits.TrailingZeros64(u), w))), nil
			}),
			builtin(fmt.Sprintf("@llvm.ctpop.i%d", w), 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
				u, err := uintArg(args[0])
				if err != nil {
					return nil, err
				}
				return intOf(w, int64(bits.OnesCount64(u))), nil
			}),
		)
		if err != nil {
			return err
		}
	}
	return r.registerAll(
		builtin("@llvm.bswap.i16", 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			u, err := uintArg(args[0])
			if err != nil {
				return nil, err
			}
			return ir.I16(bits.ReverseBytes16(uint16(u))), nil
		}),
		builtin("@llvm.bswap.i32", 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			u, err := uintArg(args[0])
			if err != nil {
				return nil, err
			}
			return ir.I32(bits.ReverseBytes32(uint32(u))), nil
		}),
		builtin("@llvm.bswap.i64", 1, func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			u, err := uintArg(args[0])
			if err != nil {
				return nil, err
			}
			return ir.I64(bits.ReverseBytes64(u)), nil
		}),
	)
}
