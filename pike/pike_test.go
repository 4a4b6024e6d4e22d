package pike

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/coregx/rejit/ast"
	"github.com/coregx/rejit/prog"
)

func compile(t *testing.T, pattern string, cfg prog.Config) *VM {
	t.Helper()
	node, err := ast.Parse(pattern)
	if err != nil {
		t.Fatalf("Parse(%q): %v", pattern, err)
	}
	p, err := prog.Compile(node, cfg)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	return New(p)
}

func find(t *testing.T, v *VM, haystack string, at int) []int {
	t.Helper()
	s := NewState()
	slots := make([]int, v.Program().NumSlots())
	if !v.Find([]byte(haystack), at, s, slots) {
		return nil
	}
	return slots
}

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		haystack string
		want     []int // nil = no match; otherwise full slot row
	}{
		{
			name:     "leftmost first beats longest",
			pattern:  "a|ab",
			haystack: "ab",
			want:     []int{0, 1},
		},
		{
			name:     "greedy plus",
			pattern:  "a+",
			haystack: "aaa",
			want:     []int{0, 3},
		},
		{
			name:     "lazy plus",
			pattern:  "a+?",
			haystack: "aaa",
			want:     []int{0, 1},
		},
		{
			name:     "captures",
			pattern:  `(\d+)_(\d+)`,
			haystack: "12_19",
			want:     []int{0, 5, 0, 2, 3, 5},
		},
		{
			name:     "empty pattern on empty input",
			pattern:  "",
			haystack: "",
			want:     []int{0, 0},
		},
		{
			name:     "empty pattern on nonempty input",
			pattern:  "",
			haystack: "xyz",
			want:     []int{0, 0},
		},
		{
			name:     "unanchored scan",
			pattern:  "bc",
			haystack: "aaabcd",
			want:     []int{3, 5},
		},
		{
			name:     "no match",
			pattern:  "xy",
			haystack: "abc",
			want:     nil,
		},
		{
			name:     "star matches empty before mismatch",
			pattern:  "a*",
			haystack: "bbb",
			want:     []int{0, 0},
		},
		{
			name:     "alternation priority among equals",
			pattern:  "ab|ac",
			haystack: "ac",
			want:     []int{0, 2},
		},
		{
			name:     "unmatched group stays unset",
			pattern:  "(a)|(b)",
			haystack: "b",
			want:     []int{0, 1, -1, -1, 0, 1},
		},
		{
			name:     "group in repeat keeps last iteration",
			pattern:  "(a|b)+",
			haystack: "ab",
			want:     []int{0, 2, 1, 2},
		},
		{
			name:     "bounded repeat",
			pattern:  "a{2,3}",
			haystack: "aaaa",
			want:     []int{0, 3},
		},
		{
			name:     "match at end of input",
			pattern:  "c",
			haystack: "abc",
			want:     []int{2, 3},
		},
		{
			// A star whose body can match empty revisits the loop-head
			// split and is pruned there, so the non-empty first iteration
			// keeps its priority and the match extends past it. stdlib
			// regexp resolves this the other way and returns [0,0].
			name:     "empty-capable alternation in star",
			pattern:  `(?:(?:a)?|(?:\d)+?)*`,
			haystack: "1",
			want:     []int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compile(t, tt.pattern, prog.DefaultConfig())
			got := find(t, v, tt.haystack, 0)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Find = %v, want no match", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Find = no match, want %v", tt.want)
			}
			for i, w := range tt.want {
				if got[i] != w {
					t.Errorf("slots = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestFindAt(t *testing.T) {
	v := compile(t, "a", prog.DefaultConfig())
	if got := find(t, v, "abca", 1); got == nil || got[0] != 3 || got[1] != 4 {
		t.Errorf("Find at 1 = %v, want [3 4]", got)
	}
	if got := find(t, v, "abc", 1); got != nil {
		t.Errorf("Find at 1 = %v, want no match", got)
	}
	// Empty pattern matches at the start position, wherever it is.
	empty := compile(t, "", prog.DefaultConfig())
	if got := find(t, empty, "xyz", 2); got == nil || got[0] != 2 || got[1] != 2 {
		t.Errorf("empty pattern at 2 = %v, want [2 2]", got)
	}
}

func TestAnchored(t *testing.T) {
	cfg := prog.DefaultConfig()
	cfg.Anchored = true
	v := compile(t, "bc", cfg)
	if got := find(t, v, "abc", 0); got != nil {
		t.Errorf("anchored at 0 = %v, want no match", got)
	}
	if got := find(t, v, "abc", 1); got == nil || got[0] != 1 || got[1] != 3 {
		t.Errorf("anchored at 1 = %v, want [1 3]", got)
	}
	// Anchored still grabs the greedy extent.
	v2 := compile(t, "a+", cfg)
	if got := find(t, v2, "aaab", 0); got == nil || got[1] != 3 {
		t.Errorf("anchored a+ = %v, want end 3", got)
	}
}

func TestStateReuse(t *testing.T) {
	v := compile(t, `(\w+)@(\w+)`, prog.DefaultConfig())
	s := NewState()
	slots := make([]int, v.Program().NumSlots())
	inputs := []string{"a@b", "no match here", "xx user@host yy", "a@b"}
	for _, in := range inputs {
		v.Find([]byte(in), 0, s, slots)
	}
	if !v.Find([]byte("plain user@host"), 0, s, slots) {
		t.Fatal("Find = false after reuse, want match")
	}
	if slots[0] != 6 || slots[1] != 15 {
		t.Errorf("slots = %v, want match at [6 15]", slots[:2])
	}
}

// TestAgainstStdlib cross-checks first-match and submatch results on a
// pattern corpus. stdlib regexp shares leftmost-first semantics, so
// results must agree exactly on these byte-safe patterns.
func TestAgainstStdlib(t *testing.T) {
	patterns := []string{
		"a", "abc", "a|b", "a|ab|abc", "ab|a",
		"a*", "a+", "a?", "a{2,4}", "a*b", "a+?b",
		"(a)(b)(c)", "(a+)(b+)", "(a|b)*c", "((a)|(b))+",
		`\d+`, `\w+`, `[a-f]+[0-9]*`, "[^a-z]+",
		"x(y|z)*x", "(ab)+", "a.c", "a.*c", "a.?c",
	}
	haystacks := []string{
		"", "a", "b", "ab", "abc", "aabbcc", "xyzx", "xyx",
		"aaab", "abab", "a1b2", "hello world", "acc", "axc",
		"aaaa", "abcabc", "zzz", "x123f", "XYZ",
	}

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			t.Fatalf("stdlib Compile(%q): %v", pattern, err)
		}
		v := compile(t, pattern, prog.DefaultConfig())
		s := NewState()
		slots := make([]int, v.Program().NumSlots())
		for _, haystack := range haystacks {
			want := re.FindStringSubmatchIndex(haystack)
			ok := v.Find([]byte(haystack), 0, s, slots)
			if (want != nil) != ok {
				t.Errorf("%q on %q: matched = %v, stdlib = %v", pattern, haystack, ok, want != nil)
				continue
			}
			if !ok {
				continue
			}
			for i, w := range want {
				if slots[i] != w {
					t.Errorf("%q on %q: slots = %v, stdlib = %v", pattern, haystack, slots[:len(want)], want)
					break
				}
			}
		}
	}
}

// TestLinearity compiles a pathological backtracking pattern and
// checks the simulation stays fast: thirty nested optional repeats
// over thirty mandatory characters.
func TestLinearity(t *testing.T) {
	const n = 30
	pattern := strings.Repeat("a?", n) + strings.Repeat("a", n)
	haystack := strings.Repeat("a", n)

	v := compile(t, pattern, prog.DefaultConfig())
	s := NewState()
	slots := make([]int, v.Program().NumSlots())

	startTime := time.Now()
	if !v.Find([]byte(haystack), 0, s, slots) {
		t.Fatal("Find = false, want match")
	}
	if elapsed := time.Since(startTime); elapsed > 2*time.Second {
		t.Errorf("search took %v, expected linear-time behavior", elapsed)
	}
	if slots[0] != 0 || slots[1] != n {
		t.Errorf("slots = %v, want [0 %d]", slots[:2], n)
	}
}
