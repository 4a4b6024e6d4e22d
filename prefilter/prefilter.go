// Package prefilter accelerates unanchored searches by skipping
// positions that cannot start a match.
//
// When every match of a pattern must begin with one of a small set of
// literal byte strings, scanning for those literals is far cheaper
// than running an engine. A prefilter only produces candidate
// positions; the engine still verifies from the candidate, so a
// prefilter can never change results, only skip dead input.
//
// Strategy selection follows the literal count: a single literal uses
// bytes.Index, multiple literals build an Aho-Corasick automaton.
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/rejit/ast"
)

// Prefilter finds candidate match start positions.
type Prefilter interface {
	// Next returns the earliest position >= at where a match could
	// start, or -1 when the rest of the haystack cannot match.
	Next(haystack []byte, at int) int
}

// FromAST builds a prefilter for the pattern, or nil when the
// pattern's prefixes are unsuitable (unknown, unbounded, or matching
// the empty string).
func FromAST(node *ast.Node) Prefilter {
	s := prefixSeq(node)
	if !s.exact || len(s.lits) == 0 {
		return nil
	}
	var needles [][]byte
	seen := make(map[string]bool)
	for _, l := range s.lits {
		if len(l.bytes) == 0 {
			// An empty prefix admits every position.
			return nil
		}
		if seen[string(l.bytes)] {
			continue
		}
		seen[string(l.bytes)] = true
		needles = append(needles, l.bytes)
	}

	if len(needles) == 1 {
		return &substring{needle: needles[0]}
	}

	builder := ahocorasick.NewBuilder()
	for _, n := range needles {
		builder.AddPattern(n)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &automaton{auto: auto}
}

// substring scans for a single literal prefix.
type substring struct {
	needle []byte
}

func (s *substring) Next(haystack []byte, at int) int {
	if at > len(haystack) {
		return -1
	}
	i := bytes.Index(haystack[at:], s.needle)
	if i < 0 {
		return -1
	}
	return at + i
}

// automaton scans for any of several literal prefixes with
// leftmost-match Aho-Corasick.
type automaton struct {
	auto *ahocorasick.Automaton
}

func (a *automaton) Next(haystack []byte, at int) int {
	if at >= len(haystack) {
		return -1
	}
	m := a.auto.Find(haystack, at)
	if m == nil {
		return -1
	}
	return m.Start
}
