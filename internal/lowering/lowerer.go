package lowering

import (
	"log/slog"

	"github.com/roach88/lowercore/internal/intrinsics"
	"github.com/roach88/lowercore/internal/ir"
)

// Record describes one successful dispatch decision.
type Record struct {
	// Operator is the instruction mnemonic, e.g. "add", "sext", "call".
	Operator string

	// Types are the operand types that selected the operation.
	Types []ir.Type

	// Operation is the Name of the selected operation.
	Operation string
}

// Lowerer selects typed operations for decoded instructions.
//
// A Lowerer holds only immutable configuration and is safe for concurrent
// use. The operations it produces are likewise immutable.
type Lowerer struct {
	layout   ir.DataLayout
	registry *intrinsics.Registry
	linker   Linker
	logger   *slog.Logger
	observer func(Record)
}

// Option configures a Lowerer.
type Option func(*Lowerer)

// WithLogger sets the logger. Dispatch decisions are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(lw *Lowerer) {
		lw.logger = l
	}
}

// WithLinker sets the fallback for call targets the registry cannot resolve.
func WithLinker(l Linker) Option {
	return func(lw *Lowerer) {
		lw.linker = l
	}
}

// WithObserver registers a callback invoked after each successful
// LowerInstruction. The store uses it to keep a lowering log.
func WithObserver(fn func(Record)) Option {
	return func(lw *Lowerer) {
		lw.observer = fn
	}
}

// New creates a Lowerer for the given target layout. registry may be nil, in
// which case every call goes to the linker.
func New(layout ir.DataLayout, registry *intrinsics.Registry, opts ...Option) *Lowerer {
	lw := &Lowerer{
		layout:   layout,
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(lw)
	}
	return lw
}

// Layout returns the data layout the Lowerer computes offsets with.
func (lw *Lowerer) Layout() ir.DataLayout {
	return lw.layout
}

// Registry returns the intrinsic registry, which may be nil.
func (lw *Lowerer) Registry() *intrinsics.Registry {
	return lw.registry
}
