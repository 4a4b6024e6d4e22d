// Package rejit is a regular expression engine with two interchangeable
// backends: a PikeVM interpreter that simulates the compiled program with
// priority-ordered thread lists, and a JIT that translates the same program
// into native machine code. Both backends run in time linear in the input
// and produce identical matches, including capture group boundaries.
//
// Compile a pattern with an explicit backend:
//
//	re, err := rejit.CompileJIT(node, rejit.DefaultConfig())
//
// or let Compile pick the JIT when the platform supports it:
//
//	re, err := rejit.Compile(`(\d+)-(\d+)`, rejit.DefaultConfig())
//	m := re.Find([]byte("order 137-42"))
//	start, end, ok := m.Group(1)
//
// Patterns use a subset of Go's regexp syntax: literals, character classes,
// alternation, repetition, and capture groups. Anchoring is a compile
// option rather than pattern syntax; anchors and word boundaries inside the
// pattern are rejected by ast.Parse.
//
// A Regexp is safe for concurrent use. Per-search state is pooled
// internally, so callers never manage scratch buffers.
package rejit

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/coregx/rejit/ast"
	"github.com/coregx/rejit/jit"
	"github.com/coregx/rejit/pike"
	"github.com/coregx/rejit/prefilter"
	"github.com/coregx/rejit/prog"
)

// Re-exported sentinels so callers can classify failures without importing
// the backend packages.
var (
	// ErrPatternTooLarge reports that compilation exceeded the configured
	// instruction budget.
	ErrPatternTooLarge = prog.ErrPatternTooLarge

	// ErrUnsupportedSyntax reports a pattern construct outside the
	// supported subset, such as in-pattern anchors.
	ErrUnsupportedSyntax = ast.ErrUnsupportedSyntax

	// ErrUnsupportedArchitecture reports that the JIT backend cannot run
	// on this platform.
	ErrUnsupportedArchitecture = jit.ErrUnsupportedArchitecture

	// ErrCodegen reports a broken invariant during native code emission.
	// Compilation aborts rather than returning miscompiled code.
	ErrCodegen = jit.ErrCodegen

	// ErrInternal reports a structurally invalid compiled program. It
	// indicates a bug in the compiler, not a bad pattern.
	ErrInternal = prog.ErrInternal
)

// Config controls pattern compilation.
type Config struct {
	// MaxInstructions bounds the size of the compiled program. Zero means
	// the default budget.
	MaxInstructions int

	// Anchored restricts matches to those starting exactly at the search
	// position.
	Anchored bool
}

// DefaultConfig returns the configuration used by the Must* constructors.
func DefaultConfig() Config {
	return Config{MaxInstructions: prog.DefaultMaxInstructions}
}

// JITSupported reports whether CompileJIT can produce native code on this
// platform.
func JITSupported() bool { return jit.Supported() }

// Match is a single successful search. Start and End delimit the overall
// match; capture groups are available through Group.
type Match struct {
	Start int
	End   int

	slots []int
}

// Group returns the boundaries of capture group i. Group 0 is the overall
// match. ok is false when i is out of range or the group did not
// participate in the match.
func (m *Match) Group(i int) (start, end int, ok bool) {
	if i < 0 || 2*i+1 >= len(m.slots) {
		return 0, 0, false
	}
	start, end = m.slots[2*i], m.slots[2*i+1]
	if start < 0 || end < 0 {
		return 0, 0, false
	}
	return start, end, true
}

// GroupCount returns the number of capture groups, counting group 0.
func (m *Match) GroupCount() int { return len(m.slots) / 2 }

// engine is the backend contract: run one search from at and fill slots.
type engine interface {
	find(haystack []byte, at int, slots []int) bool
	close() error
}

// Regexp is a compiled pattern bound to one backend. It is safe for
// concurrent use.
type Regexp struct {
	prog   *prog.Program
	eng    engine
	pf     prefilter.Prefilter
	closed sync.Once
}

// Compile parses pattern and compiles it with the JIT backend when the
// platform supports it, falling back to the PikeVM interpreter otherwise.
func Compile(pattern string, cfg Config) (*Regexp, error) {
	node, err := ast.Parse(pattern)
	if err != nil {
		return nil, err
	}
	if jit.Supported() {
		return CompileJIT(node, cfg)
	}
	return CompilePikeVM(node, cfg)
}

// CompilePikeVM compiles node for the PikeVM interpreter backend.
func CompilePikeVM(node *ast.Node, cfg Config) (*Regexp, error) {
	p, err := compileProg(node, cfg)
	if err != nil {
		return nil, err
	}
	vm := pike.New(p)
	eng := &pikeEngine{vm: vm}
	eng.pool.New = func() any { return pike.NewState() }
	return newRegexp(p, eng, node), nil
}

// CompileJIT compiles node to native machine code. It fails with
// ErrUnsupportedArchitecture on platforms without a JIT backend.
func CompileJIT(node *ast.Node, cfg Config) (*Regexp, error) {
	p, err := compileProg(node, cfg)
	if err != nil {
		return nil, err
	}
	code, err := jit.Compile(p)
	if err != nil {
		return nil, err
	}
	eng := &jitEngine{code: code}
	eng.pool.New = func() any { return code.NewState() }
	re := newRegexp(p, eng, node)
	// Release the executable mapping even if the caller forgets Close.
	runtime.AddCleanup(re, func(c *jit.Code) { c.Close() }, code)
	return re, nil
}

// MustCompilePikeVM parses pattern and compiles it for the interpreter,
// panicking on error. Intended for initialization of package-level
// patterns.
func MustCompilePikeVM(pattern string) *Regexp {
	re, err := compileString(pattern, CompilePikeVM)
	if err != nil {
		panic(fmt.Sprintf("rejit: MustCompilePikeVM(%q): %v", pattern, err))
	}
	return re
}

// MustCompileJIT parses pattern and compiles it to native code, panicking
// on error.
func MustCompileJIT(pattern string) *Regexp {
	re, err := compileString(pattern, CompileJIT)
	if err != nil {
		panic(fmt.Sprintf("rejit: MustCompileJIT(%q): %v", pattern, err))
	}
	return re
}

func compileString(pattern string, compile func(*ast.Node, Config) (*Regexp, error)) (*Regexp, error) {
	node, err := ast.Parse(pattern)
	if err != nil {
		return nil, err
	}
	return compile(node, DefaultConfig())
}

func compileProg(node *ast.Node, cfg Config) (*prog.Program, error) {
	pc := prog.DefaultConfig()
	if cfg.MaxInstructions > 0 {
		pc.MaxInstructions = cfg.MaxInstructions
	}
	pc.Anchored = cfg.Anchored
	return prog.Compile(node, pc)
}

func newRegexp(p *prog.Program, eng engine, node *ast.Node) *Regexp {
	re := &Regexp{prog: p, eng: eng}
	if !p.Anchored() {
		re.pf = prefilter.FromAST(node)
	}
	return re
}

// Match reports whether the pattern matches anywhere in b.
func (re *Regexp) Match(b []byte) bool {
	return re.FindAt(b, 0) != nil
}

// MatchString reports whether the pattern matches anywhere in s.
func (re *Regexp) MatchString(s string) bool {
	return re.Match([]byte(s))
}

// Find returns the leftmost match in b, or nil if there is none.
func (re *Regexp) Find(b []byte) *Match {
	return re.FindAt(b, 0)
}

// FindAt returns the leftmost match in b starting at or after position at.
// An anchored pattern must match exactly at at. FindAt returns nil when at
// is out of range.
func (re *Regexp) FindAt(b []byte, at int) *Match {
	if at < 0 || at > len(b) {
		return nil
	}
	if re.pf != nil {
		at = re.pf.Next(b, at)
		if at < 0 {
			return nil
		}
	}
	slots := make([]int, re.prog.NumSlots())
	if !re.eng.find(b, at, slots) {
		return nil
	}
	return &Match{Start: slots[0], End: slots[1], slots: slots}
}

// FindAll returns successive non-overlapping matches in b, at most limit of
// them; limit < 0 means all. After an empty match the search resumes one
// position later so it always makes progress.
func (re *Regexp) FindAll(b []byte, limit int) []*Match {
	if limit == 0 {
		return nil
	}
	var out []*Match
	at := 0
	for at <= len(b) {
		m := re.FindAt(b, at)
		if m == nil {
			break
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
		if m.End == m.Start {
			at = m.End + 1
		} else {
			at = m.End
		}
	}
	return out
}

// NumGroups returns the number of capture groups in the pattern, counting
// the overall match as group 0.
func (re *Regexp) NumGroups() int { return re.prog.NumGroups() + 1 }

// Anchored reports whether the pattern was compiled in anchored mode.
func (re *Regexp) Anchored() bool { return re.prog.Anchored() }

// Program exposes the compiled program, mainly for diagnostics.
func (re *Regexp) Program() *prog.Program { return re.prog }

// Close releases backend resources. For the JIT backend this unmaps the
// executable code; searching after Close is undefined. Close is idempotent
// and always safe to defer.
func (re *Regexp) Close() error {
	var err error
	re.closed.Do(func() { err = re.eng.close() })
	return err
}

type pikeEngine struct {
	vm   *pike.VM
	pool sync.Pool
}

func (e *pikeEngine) find(haystack []byte, at int, slots []int) bool {
	s := e.pool.Get().(*pike.State)
	ok := e.vm.Find(haystack, at, s, slots)
	e.pool.Put(s)
	return ok
}

func (e *pikeEngine) close() error { return nil }

type jitEngine struct {
	code *jit.Code
	pool sync.Pool
}

func (e *jitEngine) find(haystack []byte, at int, slots []int) bool {
	s := e.pool.Get().(*jit.State)
	ok := e.code.Find(haystack, at, s, slots)
	e.pool.Put(s)
	return ok
}

func (e *jitEngine) close() error { return e.code.Close() }
