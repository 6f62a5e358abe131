package intrinsics

import (
	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// registerInterop adds the polyglot binding entry points. They are all
// force-split. Names are C strings in frame memory.
func registerInterop(r *Registry) error {
	name := func(f *engine.Frame, v ir.Value) (string, error) {
		p, err := pointerArg(v)
		if err != nil {
			return "", err
		}
		return engine.ReadCString(f.Mem, p)
	}
	return r.registerAll(
		split(builtin("@polyglot_import", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			n, err := name(f, args[0])
			if err != nil {
				return nil, err
			}
			return h.Import(n)
		})),
		split(builtin("@polyglot_export", 2, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			n, err := name(f, args[0])
			if err != nil {
				return nil, err
			}
			return nil, h.Export(n, args[1])
		})),
		split(builtin("@polyglot_is_value", 1, func(f *engine.Frame, args []ir.Value) (ir.Value, error) {
			h, err := hostOf(f)
			if err != nil {
				return nil, err
			}
			return ir.I1(h.IsValue(args[0])), nil
		})),
	)
}
