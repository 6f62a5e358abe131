package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure raised while executing a lowered operation.
//
// Runtime errors include:
//   - Integer division or remainder by zero
//   - Memory faults: unmapped address, stack overflow, double free
//   - Process control: trap, abort, exit, Rust panic
//   - Unwinding: a thrown C++ exception propagating out of an operation
//
// Exit and Unwind are control transfers rather than faults; the driver
// inspects Status and Payload to continue.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Operation names the operation that failed, when known.
	Operation string

	// Status is the process exit status for ErrCodeExit and ErrCodeAbort.
	Status int

	// Payload is the exception object address for ErrCodeUnwind.
	Payload uint64

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeDivideByZero indicates integer division or remainder by zero.
	ErrCodeDivideByZero RuntimeErrorCode = "DIVIDE_BY_ZERO"

	// ErrCodeMemoryFault indicates an access outside mapped memory.
	ErrCodeMemoryFault RuntimeErrorCode = "MEMORY_FAULT"

	// ErrCodeTrap indicates llvm.trap was executed.
	ErrCodeTrap RuntimeErrorCode = "TRAP"

	// ErrCodeAbort indicates abort() was called.
	ErrCodeAbort RuntimeErrorCode = "ABORT"

	// ErrCodeExit indicates exit() was called.
	ErrCodeExit RuntimeErrorCode = "EXIT"

	// ErrCodePanic indicates a Rust panic.
	ErrCodePanic RuntimeErrorCode = "PANIC"

	// ErrCodeUnwind indicates an exception is propagating.
	ErrCodeUnwind RuntimeErrorCode = "UNWIND"

	// ErrCodeTypeMismatch indicates an operand had the wrong runtime shape.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"

	// ErrCodeNoHost indicates a host service was needed but none is attached.
	ErrCodeNoHost RuntimeErrorCode = "NO_HOST"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Operation)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the runtime error code of err, or "" if err is not a
// RuntimeError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsDivideByZero returns true if the error is a division by zero.
func IsDivideByZero(err error) bool {
	return CodeOf(err) == ErrCodeDivideByZero
}

// IsMemoryFault returns true if the error is a memory fault.
func IsMemoryFault(err error) bool {
	return CodeOf(err) == ErrCodeMemoryFault
}

// ExitStatus returns the status carried by an exit or abort error.
func ExitStatus(err error) (int, bool) {
	var re *RuntimeError
	if errors.As(err, &re) && (re.Code == ErrCodeExit || re.Code == ErrCodeAbort) {
		return re.Status, true
	}
	return 0, false
}

// NewDivideByZeroError creates a RuntimeError for a zero divisor.
func NewDivideByZeroError(op string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeDivideByZero,
		Message:   "integer division by zero",
		Operation: op,
	}
}

// NewMemoryFault creates a RuntimeError for an invalid access.
func NewMemoryFault(addr uint64, size int64, reason string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMemoryFault,
		Message: fmt.Sprintf("%s at 0x%x (%d bytes)", reason, addr, size),
		Details: map[string]string{
			"address": fmt.Sprintf("0x%x", addr),
			"size":    fmt.Sprintf("%d", size),
		},
	}
}

// NewTypeMismatch creates a RuntimeError for an operand of the wrong shape.
func NewTypeMismatch(op, want string, got any) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeTypeMismatch,
		Message:   fmt.Sprintf("expected %s operand, got %T", want, got),
		Operation: op,
	}
}

// NewNoHostError creates a RuntimeError for a missing host service.
func NewNoHostError(op string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeNoHost,
		Message:   "operation requires a host but the frame has none",
		Operation: op,
	}
}
