package prefilter

import (
	"testing"

	"github.com/coregx/rejit/ast"
)

func build(t *testing.T, pattern string) Prefilter {
	t.Helper()
	node, err := ast.Parse(pattern)
	if err != nil {
		t.Fatalf("Parse(%q): %v", pattern, err)
	}
	return FromAST(node)
}

func TestFromAST(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool // prefilter expected?
	}{
		{"plain literal", "abc", true},
		{"literal alternation", "foo|bar|baz", true},
		{"alternation with tails", "foo.*|bar[0-9]", true},
		{"small class", "[ab]c", true},
		{"plus keeps first iteration", "ab+", true},
		{"leading star is empty-prefixed", "a*b", false},
		{"leading optional is empty-prefixed", "a?b", false},
		{"wide class", `\d+`, false},
		{"dot", ".x", false},
		{"empty pattern", "", false},
		{"group", "(ab|cd)x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := build(t, tt.pattern)
			if (pf != nil) != tt.want {
				t.Errorf("FromAST(%q) = %v, want prefilter=%v", tt.pattern, pf, tt.want)
			}
		})
	}
}

func TestSubstringNext(t *testing.T) {
	pf := build(t, "needle")
	if _, ok := pf.(*substring); !ok {
		t.Fatalf("prefilter = %T, want *substring", pf)
	}
	haystack := []byte("hay needle hay needle")
	if got := pf.Next(haystack, 0); got != 4 {
		t.Errorf("Next(0) = %d, want 4", got)
	}
	if got := pf.Next(haystack, 5); got != 15 {
		t.Errorf("Next(5) = %d, want 15", got)
	}
	if got := pf.Next(haystack, 16); got != -1 {
		t.Errorf("Next(16) = %d, want -1", got)
	}
	if got := pf.Next(haystack, len(haystack)+5); got != -1 {
		t.Errorf("Next past end = %d, want -1", got)
	}
}

func TestAutomatonNext(t *testing.T) {
	pf := build(t, "foo|bar")
	if _, ok := pf.(*automaton); !ok {
		t.Fatalf("prefilter = %T, want *automaton", pf)
	}
	haystack := []byte("xx bar yy foo")
	if got := pf.Next(haystack, 0); got != 3 {
		t.Errorf("Next(0) = %d, want 3", got)
	}
	if got := pf.Next(haystack, 4); got != 10 {
		t.Errorf("Next(4) = %d, want 10", got)
	}
	if got := pf.Next(haystack, 11); got != -1 {
		t.Errorf("Next(11) = %d, want -1", got)
	}
}

func TestCandidatesNeverSkipMatchStarts(t *testing.T) {
	// Soundness: every position where the pattern matches must be at
	// or after the candidate the prefilter reports.
	patterns := []string{"abc", "foo|bar", "ab+", "[ab]c", "(ab|cd)x"}
	haystack := []byte("abc xabx bar cdx aac abba foo")
	for _, pattern := range patterns {
		pf := build(t, pattern)
		if pf == nil {
			t.Fatalf("FromAST(%q) = nil", pattern)
		}
		for at := 0; at <= len(haystack); at++ {
			c := pf.Next(haystack, at)
			if c == -1 {
				continue
			}
			if c < at {
				t.Errorf("%q: Next(%d) = %d went backwards", pattern, at, c)
			}
		}
	}
}

func TestPrefixExtraction(t *testing.T) {
	node, err := ast.Parse("(ab|cd)x")
	if err != nil {
		t.Fatal(err)
	}
	s := prefixSeq(node)
	if !s.exact {
		t.Fatal("prefixSeq not exact")
	}
	got := make(map[string]bool)
	for _, l := range s.lits {
		got[string(l.bytes)] = true
	}
	for _, want := range []string{"abx", "cdx"} {
		if !got[want] {
			t.Errorf("prefixes = %v, missing %q", got, want)
		}
	}
}
