// Package jit compiles programs to native machine code with the same
// match semantics as the pike interpreter: leftmost-first priority,
// capture slots, and the empty-match rules, bit for bit.
//
// The backend targets amd64 on Linux and macOS. Everywhere else
// Compile returns ErrUnsupportedArchitecture and callers fall back to
// the interpreter.
//
// Generated code is threaded: thread lists hold the machine-code
// addresses of per-instruction step blocks, and dispatch is a single
// indirect jump. Epsilon closures are flattened at compile time into
// straight-line chains; only byte and match instructions carry a
// runtime dedup check, implemented with position stamps so the
// visited table is never cleared between steps.
//
// Jitted code runs on the calling goroutine's stack through a small
// assembly trampoline. It makes no calls, touches no Go runtime
// state, and works exclusively on buffers owned by the caller's
// State, so compiled patterns are safe for concurrent use with one
// State per goroutine.
package jit
