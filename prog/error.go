package prog

// This file defines all errors returned by the prog package.

import (
	"errors"
	"fmt"
)

// ErrPatternTooLarge indicates the pattern compiles to more
// instructions than Config.MaxInstructions allows.
var ErrPatternTooLarge = errors.New("pattern too large")

// ErrInternal indicates the compiler produced an inconsistent
// program. It should never be observed; construction aborts rather
// than handing a broken program to an engine.
var ErrInternal = errors.New("internal consistency fault")

// CompileError wraps a pattern compilation failure.
type CompileError struct {
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling pattern: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// ConsistencyError reports a structural violation found by program
// validation, with the offending PC.
type ConsistencyError struct {
	Message string
	PC      uint32
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: %s at pc %d", ErrInternal, e.Message, e.PC)
}

// Unwrap makes errors.Is(err, ErrInternal) hold.
func (e *ConsistencyError) Unwrap() error {
	return ErrInternal
}
