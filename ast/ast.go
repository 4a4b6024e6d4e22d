// Package ast defines the byte-oriented pattern syntax tree consumed
// by prog.Compile.
//
// Nodes describe patterns over bytes, not runes: a Literal carries a
// sorted set of byte ranges, and multi-byte characters are expressed
// as concatenations of single-byte literals. Nodes are immutable after
// construction; the same subtree may be shared between patterns.
//
// Most callers build the tree with Parse, which adapts the standard
// regexp/syntax parser:
//
//	node, err := ast.Parse(`(\d+)_(\d+)`)
package ast

// Kind identifies the node variant.
type Kind uint8

const (
	// KindEmpty matches the empty string.
	KindEmpty Kind = iota
	// KindLiteral consumes one byte inside the node's range set.
	KindLiteral
	// KindConcat matches its children in sequence.
	KindConcat
	// KindAlternate matches the first child that matches, in order.
	KindAlternate
	// KindRepeat matches its child between Min and Max times.
	KindRepeat
	// KindGroup is a capturing group around its child.
	KindGroup
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindLiteral:
		return "Literal"
	case KindConcat:
		return "Concat"
	case KindAlternate:
		return "Alternate"
	case KindRepeat:
		return "Repeat"
	case KindGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// Range is an inclusive byte range.
type Range struct {
	Lo, Hi byte
}

// Node is a pattern syntax tree node. Fields are populated according
// to Kind; use the constructors rather than building Nodes by hand.
type Node struct {
	Kind Kind

	// Ranges is the byte range set of a Literal, sorted by Lo with no
	// overlaps.
	Ranges []Range

	// Children holds the ordered sub-nodes of Concat and Alternate,
	// and the single body of Repeat and Group.
	Children []*Node

	// Min and Max bound a Repeat. Max == -1 means unbounded.
	Min, Max int

	// Greedy controls Repeat preference: a greedy repeat prefers
	// iterating, a lazy one prefers stopping.
	Greedy bool

	// Index is the 1-based capture index of a Group.
	Index int
}

// Empty returns a node matching the empty string.
func Empty() *Node {
	return &Node{Kind: KindEmpty}
}

// Literal returns a node consuming one byte inside the given ranges.
// The ranges are normalized: sorted, merged, with Lo <= Hi.
func Literal(ranges ...Range) *Node {
	return &Node{Kind: KindLiteral, Ranges: normalizeRanges(ranges)}
}

// Byte returns a node consuming exactly the byte b.
func Byte(b byte) *Node {
	return &Node{Kind: KindLiteral, Ranges: []Range{{b, b}}}
}

// Bytes returns a node matching the literal byte sequence s.
// An empty s yields Empty.
func Bytes(s []byte) *Node {
	if len(s) == 0 {
		return Empty()
	}
	if len(s) == 1 {
		return Byte(s[0])
	}
	children := make([]*Node, len(s))
	for i, b := range s {
		children[i] = Byte(b)
	}
	return &Node{Kind: KindConcat, Children: children}
}

// Concat returns a node matching the children in sequence.
func Concat(children ...*Node) *Node {
	switch len(children) {
	case 0:
		return Empty()
	case 1:
		return children[0]
	}
	return &Node{Kind: KindConcat, Children: children}
}

// Alternate returns a node matching the first child that matches.
// Earlier children have strictly higher priority.
func Alternate(children ...*Node) *Node {
	switch len(children) {
	case 0:
		return Empty()
	case 1:
		return children[0]
	}
	return &Node{Kind: KindAlternate, Children: children}
}

// Repeat returns a node matching body between min and max times.
// max == -1 means unbounded. A greedy repeat prefers more iterations.
func Repeat(body *Node, min, max int, greedy bool) *Node {
	return &Node{Kind: KindRepeat, Children: []*Node{body}, Min: min, Max: max, Greedy: greedy}
}

// Group returns a capturing group with the given 1-based index.
func Group(body *Node, index int) *Node {
	return &Node{Kind: KindGroup, Children: []*Node{body}, Index: index}
}

// Body returns the single child of a Repeat or Group, or nil.
func (n *Node) Body() *Node {
	if (n.Kind == KindRepeat || n.Kind == KindGroup) && len(n.Children) == 1 {
		return n.Children[0]
	}
	return nil
}

// MaxCaptureIndex returns the highest Group index in the tree, or 0
// when the tree has no capturing groups.
func (n *Node) MaxCaptureIndex() int {
	max := 0
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Kind == KindGroup && cur.Index > max {
			max = cur.Index
		}
		stack = append(stack, cur.Children...)
	}
	return max
}

// normalizeRanges sorts, swaps reversed bounds, and merges adjacent or
// overlapping ranges.
func normalizeRanges(ranges []Range) []Range {
	out := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Lo > r.Hi {
			r.Lo, r.Hi = r.Hi, r.Lo
		}
		out = append(out, r)
	}
	// Insertion sort: range sets are tiny.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Lo < out[j-1].Lo; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	merged := out[:0]
	for _, r := range out {
		if n := len(merged); n > 0 {
			prev := &merged[n-1]
			if int(r.Lo) <= int(prev.Hi)+1 {
				if r.Hi > prev.Hi {
					prev.Hi = r.Hi
				}
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged
}
