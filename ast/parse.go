package ast

import (
	"fmt"
	"regexp/syntax"
	"unicode/utf8"
)

// maxParseDepth bounds translation recursion over the parsed syntax
// tree. regexp/syntax enforces its own limits but they are generous.
const maxParseDepth = 1000

// Parse parses a regular expression in regexp/syntax Perl syntax and
// translates it to a byte-oriented Node.
//
// Translation rules:
//   - literal runes above 0xFF become their UTF-8 byte sequence;
//   - character class ranges are clamped to the byte range 0x00-0xFF;
//   - look-around, word boundaries, and in-pattern anchors (^, $, \b,
//     \A, \z) are rejected with ErrUnsupportedSyntax: anchoring is a
//     compile option, not a pattern operator.
func Parse(pattern string) (*Node, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, &ParseError{Pattern: pattern, Err: err}
	}
	node, err := translate(re, 0)
	if err != nil {
		return nil, &ParseError{Pattern: pattern, Err: err}
	}
	return node, nil
}

func translate(re *syntax.Regexp, depth int) (*Node, error) {
	if depth > maxParseDepth {
		return nil, ErrNestingTooDeep
	}

	switch re.Op {
	case syntax.OpEmptyMatch:
		return Empty(), nil

	case syntax.OpLiteral:
		return literalNode(re)

	case syntax.OpCharClass:
		return Literal(classRanges(re.Rune)...), nil

	case syntax.OpAnyChar:
		return Literal(Range{0x00, 0xFF}), nil

	case syntax.OpAnyCharNotNL:
		return Literal(Range{0x00, '\n' - 1}, Range{'\n' + 1, 0xFF}), nil

	case syntax.OpConcat:
		children, err := translateAll(re.Sub, depth)
		if err != nil {
			return nil, err
		}
		return Concat(children...), nil

	case syntax.OpAlternate:
		children, err := translateAll(re.Sub, depth)
		if err != nil {
			return nil, err
		}
		return Alternate(children...), nil

	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		body, err := translate(re.Sub[0], depth+1)
		if err != nil {
			return nil, err
		}
		greedy := re.Flags&syntax.NonGreedy == 0
		switch re.Op {
		case syntax.OpStar:
			return Repeat(body, 0, -1, greedy), nil
		case syntax.OpPlus:
			return Repeat(body, 1, -1, greedy), nil
		case syntax.OpQuest:
			return Repeat(body, 0, 1, greedy), nil
		default:
			return Repeat(body, re.Min, re.Max, greedy), nil
		}

	case syntax.OpCapture:
		body, err := translate(re.Sub[0], depth+1)
		if err != nil {
			return nil, err
		}
		return Group(body, re.Cap), nil

	case syntax.OpNoMatch:
		// A literal with an empty range set matches nothing.
		return Literal(), nil

	case syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, re.Op)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, re.Op)
	}
}

func translateAll(subs []*syntax.Regexp, depth int) ([]*Node, error) {
	out := make([]*Node, 0, len(subs))
	for _, sub := range subs {
		n, err := translate(sub, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// literalNode translates an OpLiteral, honoring case folding for
// ASCII letters and encoding non-ASCII runes as UTF-8 bytes.
func literalNode(re *syntax.Regexp) (*Node, error) {
	foldCase := re.Flags&syntax.FoldCase != 0
	parts := make([]*Node, 0, len(re.Rune))
	for _, r := range re.Rune {
		if r < utf8.RuneSelf {
			b := byte(r)
			if foldCase && isASCIILetter(b) {
				parts = append(parts, Literal(Range{lower(b), lower(b)}, Range{upper(b), upper(b)}))
			} else {
				parts = append(parts, Byte(b))
			}
			continue
		}
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for _, b := range buf[:n] {
			parts = append(parts, Byte(b))
		}
	}
	return Concat(parts...), nil
}

// classRanges clamps rune range pairs to the byte range.
func classRanges(runes []rune) []Range {
	out := make([]Range, 0, len(runes)/2)
	for i := 0; i+1 < len(runes); i += 2 {
		lo, hi := runes[i], runes[i+1]
		if lo > 0xFF {
			continue
		}
		if hi > 0xFF {
			hi = 0xFF
		}
		out = append(out, Range{byte(lo), byte(hi)})
	}
	return out
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func lower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func upper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
