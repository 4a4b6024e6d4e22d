//go:build !((linux || darwin) && amd64)

package jit

import "github.com/coregx/rejit/prog"

// Supported reports whether this platform has a native backend.
func Supported() bool {
	return false
}

// Code is a compiled program. This platform has no backend, so Code
// values never exist; every method is an unreachable stub.
type Code struct{}

// Compile always fails with ErrUnsupportedArchitecture here. Callers
// fall back to the interpreter engine.
func Compile(p *prog.Program) (*Code, error) {
	return nil, ErrUnsupportedArchitecture
}

// State holds per-search buffers on supported platforms.
type State struct{}

// NewState returns an empty State.
func (c *Code) NewState() *State {
	return &State{}
}

// Find never matches on an unsupported platform.
func (c *Code) Find(haystack []byte, at int, s *State, slots []int) bool {
	return false
}

// IsMatch never matches on an unsupported platform.
func (c *Code) IsMatch(haystack []byte, at int, s *State) bool {
	return false
}

// Program returns nil.
func (c *Code) Program() *prog.Program {
	return nil
}

// Close is a no-op.
func (c *Code) Close() error {
	return nil
}
