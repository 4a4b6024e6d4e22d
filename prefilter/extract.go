package prefilter

import "github.com/coregx/rejit/ast"

// Extraction limits. Past these the filter stops paying for itself.
const (
	maxLiterals   = 32
	maxLiteralLen = 16
	maxClassWidth = 8
)

// lit is one literal prefix. complete means the literal spans every
// byte its source node can match, so concatenation may extend it.
type lit struct {
	bytes    []byte
	complete bool
}

// seq is a set of alternative literal prefixes for one node. When
// exact is false the node's prefixes could not be enumerated and the
// whole extraction is abandoned.
type seq struct {
	lits  []lit
	exact bool
}

func inexact() seq {
	return seq{}
}

// prefixSeq enumerates the literal prefixes of a node: every match of
// the node starts with one of the returned literals.
func prefixSeq(n *ast.Node) seq {
	switch n.Kind {
	case ast.KindEmpty:
		return seq{lits: []lit{{bytes: nil, complete: true}}, exact: true}

	case ast.KindLiteral:
		width := 0
		for _, r := range n.Ranges {
			width += int(r.Hi) - int(r.Lo) + 1
		}
		if width == 0 || width > maxClassWidth {
			return inexact()
		}
		var lits []lit
		for _, r := range n.Ranges {
			for b := int(r.Lo); b <= int(r.Hi); b++ {
				lits = append(lits, lit{bytes: []byte{byte(b)}, complete: true})
			}
		}
		return seq{lits: lits, exact: true}

	case ast.KindConcat:
		s := seq{lits: []lit{{bytes: nil, complete: true}}, exact: true}
		for _, child := range n.Children {
			if !s.extendable() {
				return s
			}
			c := prefixSeq(child)
			if !c.exact {
				// Current literals stay valid prefixes; they just
				// cannot grow any further.
				return s.demoted()
			}
			var err bool
			s, err = cross(s, c)
			if err {
				return inexact()
			}
		}
		return s

	case ast.KindAlternate:
		var out seq
		out.exact = true
		for _, child := range n.Children {
			c := prefixSeq(child)
			if !c.exact {
				return inexact()
			}
			out.lits = append(out.lits, c.lits...)
			if len(out.lits) > maxLiterals {
				return inexact()
			}
		}
		return out

	case ast.KindGroup:
		return prefixSeq(n.Body())

	case ast.KindRepeat:
		body := prefixSeq(n.Body())
		if !body.exact {
			return inexact()
		}
		// The first iteration starts the match; later iterations may
		// follow, so body literals stop being complete.
		s := body.demoted()
		if n.Min == 0 {
			// The repeat can also match nothing at all.
			s.lits = append(s.lits, lit{bytes: nil, complete: true})
		}
		if len(s.lits) > maxLiterals {
			return inexact()
		}
		return s

	default:
		return inexact()
	}
}

// extendable reports whether every literal can still grow.
func (s seq) extendable() bool {
	for _, l := range s.lits {
		if !l.complete {
			return false
		}
	}
	return true
}

// demoted marks every literal incomplete.
func (s seq) demoted() seq {
	out := seq{lits: make([]lit, len(s.lits)), exact: true}
	for i, l := range s.lits {
		out.lits[i] = lit{bytes: l.bytes, complete: false}
	}
	return out
}

// cross extends every complete literal of s with every literal of c.
// Incomplete literals pass through unchanged. Reports failure when
// the product exceeds maxLiterals.
func cross(s, c seq) (seq, bool) {
	var out seq
	out.exact = true
	for _, l := range s.lits {
		if !l.complete {
			out.lits = append(out.lits, l)
			continue
		}
		for _, m := range c.lits {
			joined := make([]byte, 0, len(l.bytes)+len(m.bytes))
			joined = append(joined, l.bytes...)
			joined = append(joined, m.bytes...)
			nl := lit{bytes: joined, complete: m.complete}
			if len(nl.bytes) > maxLiteralLen {
				nl.bytes = nl.bytes[:maxLiteralLen]
				nl.complete = false
			}
			out.lits = append(out.lits, nl)
		}
		if len(out.lits) > maxLiterals {
			return seq{}, true
		}
	}
	return out, false
}
