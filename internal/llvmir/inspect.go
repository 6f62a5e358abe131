package llvmir

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/asm"
	llir "github.com/llir/llvm/ir"

	"github.com/roach88/lowercore/internal/intrinsics"
	"github.com/roach88/lowercore/internal/ir"
)

// Status is the verdict for one function of an inspected module.
type Status string

const (
	// StatusDefined marks a function with a body in the module.
	StatusDefined Status = "defined"

	// StatusSupported marks a declaration the registry can lower.
	StatusSupported Status = "supported"

	// StatusUnsupported marks a declaration no registry entry serves.
	StatusUnsupported Status = "unsupported"

	// StatusSignature marks a declaration whose entry rejects the
	// declared signature.
	StatusSignature Status = "signature"

	// StatusUntyped marks a function whose signature uses a type the core
	// cannot represent.
	StatusUntyped Status = "untyped"
)

// Function is the inspection result for one function.
type Function struct {
	Name      string
	Signature string
	Tags      []ir.TypeTag // return type, then parameters
	Canonical string       // serving registry entry, if any
	Inline    bool
	Status    Status
	Detail    string
}

// Report lists a module's functions in source order.
type Report struct {
	Source    string
	Functions []Function
}

// Count returns the number of functions with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, f := range r.Functions {
		if f.Status == s {
			n++
		}
	}
	return n
}

// InspectFile parses the module at path and inspects it against reg.
func InspectFile(path string, reg *intrinsics.Registry) (*Report, error) {
	m, err := asm.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Inspect(path, m, reg), nil
}

// InspectString is InspectFile for IR held in memory.
func InspectString(source, content string, reg *intrinsics.Registry) (*Report, error) {
	m, err := asm.ParseString(source, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return Inspect(source, m, reg), nil
}

// Inspect classifies every function of m. Declarations are resolved
// against reg, which may be nil.
func Inspect(source string, m *llir.Module, reg *intrinsics.Registry) *Report {
	rep := &Report{Source: source, Functions: make([]Function, 0, len(m.Funcs))}
	for _, fn := range m.Funcs {
		rep.Functions = append(rep.Functions, inspectFunc(fn, reg))
	}
	return rep
}

func inspectFunc(fn *llir.Func, reg *intrinsics.Registry) Function {
	out := Function{Name: "@" + fn.Name()}

	t, err := FromLLIR(fn.Sig)
	if err != nil {
		out.Signature = fn.Sig.String()
		out.Status = StatusUntyped
		out.Detail = err.Error()
		return out
	}
	sig := t.(*ir.FunctionType)
	out.Signature = sig.String()
	out.Tags = append(out.Tags, ir.Classify(sig.Return))
	for _, p := range sig.Params {
		out.Tags = append(out.Tags, ir.Classify(p))
	}

	if len(fn.Blocks) > 0 {
		out.Status = StatusDefined
		return out
	}
	if reg == nil {
		out.Status = StatusUnsupported
		return out
	}

	target, err := reg.ResolveIntrinsic(out.Name, sig)
	switch {
	case err == nil:
		out.Status = StatusSupported
		out.Canonical = target.Name
		out.Inline = target.Entry.ForceInline
	case errors.Is(err, intrinsics.ErrNotFound):
		out.Status = StatusUnsupported
	default:
		out.Status = StatusSignature
		out.Detail = err.Error()
		if e, ok := reg.Resolve(out.Name); ok {
			out.Canonical = e.Name
		}
	}
	return out
}
