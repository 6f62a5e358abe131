package lowering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/lowercore/internal/ir"
)

// LoweringError is a fatal failure to select an operation.
// Lowering errors are never retried.
type LoweringError struct {
	// Code identifies the error category.
	Code LoweringErrorCode

	// Operator is the instruction or conversion mnemonic being lowered.
	Operator string

	// Types are the operand types the dispatcher saw.
	Types []ir.Type

	// Symbol is the unresolved callee for ErrCodeUnsupportedIntrinsic.
	Symbol string

	// Message is a human-readable description.
	Message string
}

// LoweringErrorCode categorizes lowering errors.
type LoweringErrorCode string

const (
	// ErrCodeTypeSystemViolation indicates a (type, operator) pair outside
	// the supported matrix.
	ErrCodeTypeSystemViolation LoweringErrorCode = "TYPE_SYSTEM_VIOLATION"

	// ErrCodeUnsupportedIntrinsic indicates an external symbol with no
	// registry entry and no linker fallback.
	ErrCodeUnsupportedIntrinsic LoweringErrorCode = "UNSUPPORTED_INTRINSIC"
)

// Error implements the error interface.
func (e *LoweringError) Error() string {
	if e.Code == ErrCodeUnsupportedIntrinsic {
		return fmt.Sprintf("%s: %s", e.Code, e.Symbol)
	}
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		if t == nil {
			names[i] = "void"
			continue
		}
		names[i] = t.String()
	}
	msg := fmt.Sprintf("%s: %s [%s]", e.Code, e.Operator, strings.Join(names, ", "))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsTypeSystemViolation returns true if err is a type system violation.
// Uses errors.As to handle wrapped errors.
func IsTypeSystemViolation(err error) bool {
	var le *LoweringError
	if errors.As(err, &le) {
		return le.Code == ErrCodeTypeSystemViolation
	}
	return false
}

// IsUnsupportedIntrinsic returns true if err reports an unresolvable symbol.
func IsUnsupportedIntrinsic(err error) bool {
	var le *LoweringError
	if errors.As(err, &le) {
		return le.Code == ErrCodeUnsupportedIntrinsic
	}
	return false
}

// violation creates a LoweringError for an unsupported combination.
func violation(operator string, types ...ir.Type) *LoweringError {
	return &LoweringError{
		Code:     ErrCodeTypeSystemViolation,
		Operator: operator,
		Types:    types,
	}
}

// violationf is violation with a detail message.
func violationf(operator string, types []ir.Type, format string, args ...any) *LoweringError {
	e := violation(operator, types...)
	e.Message = fmt.Sprintf(format, args...)
	return e
}
