package ast

// This file defines all errors returned by the ast package.

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSyntax indicates the pattern uses a construct the
// engines do not support (look-around, in-pattern anchors, or
// non-byte character class semantics).
var ErrUnsupportedSyntax = errors.New("unsupported pattern syntax")

// ErrNestingTooDeep indicates the pattern exceeds the parser's
// nesting depth limit.
var ErrNestingTooDeep = errors.New("pattern nesting too deep")

// ParseError wraps a pattern parse or translation failure.
type ParseError struct {
	// Pattern is the pattern that failed to parse.
	Pattern string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
