package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/lowercore/internal/ir"
)

// Host provides process-level services to builtins: calls through function
// pointers, exit handling, signals, exception bookkeeping and interop
// bindings.
type Host interface {
	// Call invokes the function at fn with args.
	Call(f *Frame, fn uint64, args []ir.Value) (ir.Value, error)

	// AtExit registers fn to run at exit. With hasArg, fn receives arg.
	AtExit(fn uint64, arg ir.Value, hasArg bool)

	// Exit runs registered exit handlers in reverse order and returns the
	// ErrCodeExit error that carries status.
	Exit(f *Frame, status int) error

	// Signal installs handler for sig and returns the previous handler.
	Signal(sig int32, handler uint64) uint64

	// Import and Export move values across the interop boundary.
	Import(name string) (ir.Value, error)
	Export(name string, v ir.Value) error
	IsValue(v ir.Value) bool

	// TypeID returns the stable selector for a C++ typeinfo address.
	TypeID(typeinfo uint64) int32

	// BeginCatch, EndCatch and CurrentException track caught exceptions.
	BeginCatch(obj uint64)
	EndCatch()
	CurrentException() (uint64, bool)
}

// HostFunc is a Go implementation bound to a function address.
type HostFunc func(f *Frame, args []ir.Value) (ir.Value, error)

// FunctionBase is the first address handed out by BasicHost.Bind.
const FunctionBase uint64 = 0x1000

type atExitEntry struct {
	fn     uint64
	arg    ir.Value
	hasArg bool
}

// BasicHost is an in-memory Host.
//
// Thread-safety: all methods are safe for concurrent use. Exit handlers run
// without the lock held so they may call back into the host.
type BasicHost struct {
	mu        sync.Mutex
	logger    *slog.Logger
	clock     *Clock
	functions map[uint64]HostFunc
	names     map[uint64]string
	atExit    []atExitEntry
	signals   map[int32]uint64
	bindings  map[string]ir.Value
	typeIDs   map[uint64]int32
	caught    []uint64
}

// NewBasicHost creates an empty host. A nil logger discards output.
func NewBasicHost(logger *slog.Logger) *BasicHost {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BasicHost{
		logger:    logger,
		clock:     NewClock(0),
		functions: make(map[uint64]HostFunc),
		names:     make(map[uint64]string),
		signals:   make(map[int32]uint64),
		bindings:  make(map[string]ir.Value),
		typeIDs:   make(map[uint64]int32),
	}
}

// Bind assigns a function address to fn.
func (h *BasicHost) Bind(name string, fn HostFunc) ir.FunctionAddress {
	addr := FunctionBase + uint64(h.clock.Next())*16
	h.mu.Lock()
	defer h.mu.Unlock()
	h.functions[addr] = fn
	h.names[addr] = name
	return ir.FunctionAddress(addr)
}

// Call implements Host.
func (h *BasicHost) Call(f *Frame, fn uint64, args []ir.Value) (ir.Value, error) {
	h.mu.Lock()
	impl, ok := h.functions[fn]
	name := h.names[fn]
	h.mu.Unlock()
	if !ok {
		return nil, NewMemoryFault(fn, 0, "call to unbound function")
	}
	h.logger.Debug("host call", "function", name, "args", len(args))
	return impl(f.WithArgs(args...), args)
}

// AtExit implements Host.
func (h *BasicHost) AtExit(fn uint64, arg ir.Value, hasArg bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.atExit = append(h.atExit, atExitEntry{fn: fn, arg: arg, hasArg: hasArg})
}

// Exit implements Host. Handlers run once; a second Exit runs none.
func (h *BasicHost) Exit(f *Frame, status int) error {
	h.mu.Lock()
	handlers := h.atExit
	h.atExit = nil
	h.mu.Unlock()

	for i := len(handlers) - 1; i >= 0; i-- {
		e := handlers[i]
		var args []ir.Value
		if e.hasArg {
			args = []ir.Value{e.arg}
		}
		if _, err := h.Call(f, e.fn, args); err != nil {
			return fmt.Errorf("exit handler %d: %w", i, err)
		}
	}
	h.logger.Info("exit", "status", status, "handlers", len(handlers))
	return &RuntimeError{
		Code:    ErrCodeExit,
		Message: fmt.Sprintf("exit(%d)", status),
		Status:  status,
	}
}

// Signal implements Host.
func (h *BasicHost) Signal(sig int32, handler uint64) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.signals[sig]
	h.signals[sig] = handler
	return prev
}

// Import implements Host.
func (h *BasicHost) Import(name string) (ir.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.bindings[name]
	if !ok {
		return nil, fmt.Errorf("import %q: no such binding", name)
	}
	return v, nil
}

// Export implements Host.
func (h *BasicHost) Export(name string, v ir.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bindings[name] = v
	return nil
}

// IsValue reports whether v is the value of some binding.
func (h *BasicHost) IsValue(v ir.Value) bool {
	if _, ok := v.(ir.Vector); ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, b := range h.bindings {
		if b == v {
			return true
		}
	}
	return false
}

// TypeID implements Host. Selectors start at 1 in first-seen order.
func (h *BasicHost) TypeID(typeinfo uint64) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.typeIDs[typeinfo]; ok {
		return id
	}
	id := int32(len(h.typeIDs) + 1)
	h.typeIDs[typeinfo] = id
	return id
}

// BeginCatch implements Host.
func (h *BasicHost) BeginCatch(obj uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.caught = append(h.caught, obj)
}

// EndCatch implements Host.
func (h *BasicHost) EndCatch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.caught); n > 0 {
		h.caught = h.caught[:n-1]
	}
}

// CurrentException implements Host.
func (h *BasicHost) CurrentException() (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.caught); n > 0 {
		return h.caught[n-1], true
	}
	return 0, false
}
