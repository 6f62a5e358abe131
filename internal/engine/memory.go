package engine

import (
	"sync"
)

// Memory is byte-addressed storage.
type Memory interface {
	Read(addr uint64, n int64) ([]byte, error)
	Write(addr uint64, b []byte) error
}

// Allocator hands out aligned blocks of memory.
type Allocator interface {
	Allocate(size, align int64) (uint64, error)
	Free(addr uint64) error

	// BlockSize reports the size of the live block starting at addr.
	BlockSize(addr uint64) (int64, bool)
}

// HeapBase is the lowest mapped address. Address 0 and everything below
// HeapBase fault, so null dereferences are always detected.
const HeapBase uint64 = 0x10000

// DefaultHeapLimit bounds heap growth.
const DefaultHeapLimit = 64 << 20

// Heap is a bump-allocated byte arena implementing Memory and Allocator.
//
// Freed blocks are unmapped from the block table but their bytes are not
// reused. Thread-safety: all methods are safe for concurrent use.
type Heap struct {
	mu     sync.Mutex
	data   []byte
	blocks map[uint64]int64
	limit  int64
}

// NewHeap creates a heap that may grow to limit bytes.
func NewHeap(limit int64) *Heap {
	if limit <= 0 {
		limit = DefaultHeapLimit
	}
	return &Heap{
		blocks: make(map[uint64]int64),
		limit:  limit,
	}
}

// Allocate reserves size bytes aligned to align. Zero-sized requests still
// receive a distinct address.
func (h *Heap) Allocate(size, align int64) (uint64, error) {
	if size < 0 {
		return 0, NewMemoryFault(0, size, "negative allocation")
	}
	if align < 1 {
		align = 1
	}
	size = max(size, 1)

	h.mu.Lock()
	defer h.mu.Unlock()

	end := HeapBase + uint64(len(h.data))
	addr := (end + uint64(align) - 1) / uint64(align) * uint64(align)
	if addr < end || addr-HeapBase > uint64(h.limit) || size > h.limit-int64(addr-HeapBase) {
		return 0, NewMemoryFault(addr, size, "out of memory")
	}
	newLen := int64(addr-HeapBase) + size
	h.data = append(h.data, make([]byte, newLen-int64(len(h.data)))...)
	h.blocks[addr] = size
	return addr, nil
}

// Free releases a block returned by Allocate. Freeing address 0 is a no-op.
func (h *Heap) Free(addr uint64) error {
	if addr == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.blocks[addr]; !ok {
		return NewMemoryFault(addr, 0, "invalid free")
	}
	delete(h.blocks, addr)
	return nil
}

// BlockSize returns the size of a live block.
func (h *Heap) BlockSize(addr uint64) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.blocks[addr]
	return n, ok
}

// Read copies n bytes starting at addr.
func (h *Heap) Read(addr uint64, n int64) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	off, err := h.check(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, h.data[off:])
	return out, nil
}

// Write copies b to addr.
func (h *Heap) Write(addr uint64, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	off, err := h.check(addr, int64(len(b)))
	if err != nil {
		return err
	}
	copy(h.data[off:], b)
	return nil
}

func (h *Heap) check(addr uint64, n int64) (int64, error) {
	if addr < HeapBase || n < 0 {
		return 0, NewMemoryFault(addr, n, "unmapped access")
	}
	size := uint64(len(h.data))
	if addr-HeapBase > size || uint64(n) > size-(addr-HeapBase) {
		return 0, NewMemoryFault(addr, n, "unmapped access")
	}
	return int64(addr - HeapBase), nil
}

// Copy moves n bytes from src to dst. Overlapping ranges are handled
// (memmove semantics).
func Copy(mem Memory, dst, src uint64, n int64) error {
	if n == 0 {
		return nil
	}
	b, err := mem.Read(src, n)
	if err != nil {
		return err
	}
	return mem.Write(dst, b)
}

// Fill sets n bytes at addr to c.
func Fill(mem Memory, addr uint64, c byte, n int64) error {
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	if c != 0 {
		for i := range b {
			b[i] = c
		}
	}
	return mem.Write(addr, b)
}

// ReadCString reads a NUL-terminated string.
func ReadCString(mem Memory, addr uint64) (string, error) {
	var out []byte
	for {
		b, err := mem.Read(addr, 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
		addr++
	}
}

// WriteCString stores s followed by a NUL byte.
func WriteCString(mem Memory, addr uint64, s string) error {
	return mem.Write(addr, append([]byte(s), 0))
}
