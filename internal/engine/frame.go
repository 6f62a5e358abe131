package engine

import (
	"fmt"

	"github.com/roach88/lowercore/internal/ir"
)

// Frame is the per-invocation execution context handed to operations.
//
// Args holds the callee's arguments; FixedArgs is the number of declared
// (non-variadic) parameters so va_start knows where the variadic tail
// begins. Mem, Alloc and Stack may share one Heap. Host is optional; host
// services fail with ErrCodeNoHost when it is nil.
type Frame struct {
	Args      []ir.Value
	FixedArgs int
	Mem       Memory
	Alloc     Allocator
	Stack     *Stack
	Host      Host
	Layout    ir.DataLayout

	// Caller is the frame that created this one through WithArgs, or nil.
	Caller *Frame
}

// NewFrame creates a frame backed by heap with a fresh stack.
func NewFrame(heap *Heap, host Host, args ...ir.Value) (*Frame, error) {
	stack, err := NewStack(heap, DefaultStackSize)
	if err != nil {
		return nil, err
	}
	return &Frame{
		Args:      args,
		FixedArgs: len(args),
		Mem:       heap,
		Alloc:     heap,
		Stack:     stack,
		Host:      host,
		Layout:    ir.DefaultLayout,
	}, nil
}

// WithArgs returns a frame for a nested call. Memory, stack and host are
// shared with f.
func (f *Frame) WithArgs(args ...ir.Value) *Frame {
	nf := *f
	nf.Args = args
	nf.FixedArgs = len(args)
	nf.Caller = f
	return &nf
}

// WithVariadicArgs is WithArgs for a variadic callee with fixed declared
// parameters. Arguments past fixed are reachable through va_arg.
func (f *Frame) WithVariadicArgs(fixed int, args ...ir.Value) *Frame {
	nf := f.WithArgs(args...)
	nf.FixedArgs = min(fixed, len(args))
	return nf
}

// Load reads a scalar or vector of type t from addr.
func (f *Frame) Load(t ir.Type, addr uint64) (ir.Value, error) {
	b, err := f.Mem.Read(addr, f.Layout.SizeOf(t))
	if err != nil {
		return nil, err
	}
	return f.Layout.DecodeValue(t, b)
}

// Store writes a scalar or vector of type t to addr.
func (f *Frame) Store(t ir.Type, addr uint64, v ir.Value) error {
	b, err := f.Layout.EncodeValue(t, v)
	if err != nil {
		return &RuntimeError{Code: ErrCodeTypeMismatch, Message: err.Error()}
	}
	return f.Mem.Write(addr, b)
}

// StackAlloc reserves storage for a value of type t on the frame's stack.
func (f *Frame) StackAlloc(t ir.Type) (uint64, error) {
	return f.Stack.Alloc(f.Layout.AllocSizeOf(t), f.Layout.AlignOf(t))
}

// va_list storage holds a single i64 cursor into Args.
const vaListSize = 8

// VAStart points the va_list at list to the first variadic argument.
func (f *Frame) VAStart(list uint64) error {
	return f.Store(ir.Int64, list, ir.I64(f.FixedArgs))
}

// VANext returns the argument under the va_list cursor at list and advances
// the cursor.
func (f *Frame) VANext(list uint64) (ir.Value, error) {
	c, err := f.Load(ir.Int64, list)
	if err != nil {
		return nil, err
	}
	cur := int64(c.(ir.I64))
	if cur < int64(f.FixedArgs) || cur >= int64(len(f.Args)) {
		return nil, &RuntimeError{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("va_arg cursor %d outside variadic arguments [%d, %d)", cur, f.FixedArgs, len(f.Args)),
		}
	}
	if err := f.Store(ir.Int64, list, ir.I64(cur+1)); err != nil {
		return nil, err
	}
	return f.Args[cur], nil
}

// VACopy duplicates the va_list at src into dst.
func (f *Frame) VACopy(dst, src uint64) error {
	return Copy(f.Mem, dst, src, vaListSize)
}
