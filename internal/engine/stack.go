package engine

// DefaultStackSize is the stack region reserved per frame chain.
const DefaultStackSize = 1 << 20

// Stack is a downward-growing region carved out of an Allocator.
// A Stack belongs to one thread of execution and is not safe for
// concurrent use.
type Stack struct {
	base uint64 // lowest usable address
	top  uint64 // one past the highest usable address
	sp   uint64
}

// NewStack reserves size bytes from a for a new stack.
func NewStack(a Allocator, size int64) (*Stack, error) {
	base, err := a.Allocate(size, 16)
	if err != nil {
		return nil, err
	}
	top := base + uint64(size)
	return &Stack{base: base, top: top, sp: top}, nil
}

// Alloc reserves size bytes aligned to align below the current stack pointer.
func (s *Stack) Alloc(size, align int64) (uint64, error) {
	if align < 1 {
		align = 1
	}
	if size < 0 || uint64(size) > s.sp-s.base {
		return 0, NewMemoryFault(s.sp, size, "stack overflow")
	}
	sp := (s.sp - uint64(size)) &^ (uint64(align) - 1)
	if sp < s.base {
		return 0, NewMemoryFault(s.sp, size, "stack overflow")
	}
	s.sp = sp
	return sp, nil
}

// Save returns the current stack pointer.
func (s *Stack) Save() uint64 {
	return s.sp
}

// Restore resets the stack pointer to a value returned by Save.
func (s *Stack) Restore(sp uint64) error {
	if sp < s.base || sp > s.top {
		return NewMemoryFault(sp, 0, "stack restore outside stack")
	}
	s.sp = sp
	return nil
}

// Used returns the number of bytes currently reserved.
func (s *Stack) Used() int64 {
	return int64(s.top - s.sp)
}
