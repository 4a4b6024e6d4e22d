package jit

// This file defines all errors returned by the jit package.

import (
	"errors"
	"fmt"
)

// ErrUnsupportedArchitecture indicates this platform has no native
// backend. The interpreter engine serves such targets.
var ErrUnsupportedArchitecture = errors.New("jit: unsupported architecture")

// ErrCodegen indicates code generation failed. Construction aborts:
// a compiled pattern either works or does not exist.
var ErrCodegen = errors.New("jit: code generation failed")

// CodegenError wraps a code generation failure with context.
type CodegenError struct {
	// Message describes the failing stage.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CodegenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrCodegen, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrCodegen, e.Message)
}

// Unwrap makes errors.Is(err, ErrCodegen) hold, and exposes the
// underlying cause when present.
func (e *CodegenError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCodegen, e.Err}
	}
	return []error{ErrCodegen}
}
