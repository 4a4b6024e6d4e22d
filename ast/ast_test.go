package ast

import "testing"

func TestLiteralNormalizesRanges(t *testing.T) {
	tests := []struct {
		name string
		in   []Range
		want []Range
	}{
		{
			name: "sorted disjoint kept",
			in:   []Range{{'a', 'c'}, {'x', 'z'}},
			want: []Range{{'a', 'c'}, {'x', 'z'}},
		},
		{
			name: "unsorted sorted",
			in:   []Range{{'x', 'z'}, {'a', 'c'}},
			want: []Range{{'a', 'c'}, {'x', 'z'}},
		},
		{
			name: "overlap merged",
			in:   []Range{{'a', 'm'}, {'g', 'z'}},
			want: []Range{{'a', 'z'}},
		},
		{
			name: "adjacent merged",
			in:   []Range{{'a', 'c'}, {'d', 'f'}},
			want: []Range{{'a', 'f'}},
		},
		{
			name: "reversed bounds swapped",
			in:   []Range{{'z', 'a'}},
			want: []Range{{'a', 'z'}},
		},
		{
			name: "empty",
			in:   nil,
			want: []Range{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Literal(tt.in...)
			if n.Kind != KindLiteral {
				t.Fatalf("Kind = %v, want Literal", n.Kind)
			}
			if len(n.Ranges) != len(tt.want) {
				t.Fatalf("Ranges = %v, want %v", n.Ranges, tt.want)
			}
			for i, r := range n.Ranges {
				if r != tt.want[i] {
					t.Errorf("Ranges[%d] = %v, want %v", i, r, tt.want[i])
				}
			}
		})
	}
}

func TestConstructorsCollapse(t *testing.T) {
	if n := Concat(); n.Kind != KindEmpty {
		t.Errorf("Concat() kind = %v, want Empty", n.Kind)
	}
	if n := Alternate(); n.Kind != KindEmpty {
		t.Errorf("Alternate() kind = %v, want Empty", n.Kind)
	}
	b := Byte('a')
	if n := Concat(b); n != b {
		t.Errorf("Concat(x) should return x unchanged")
	}
	if n := Alternate(b); n != b {
		t.Errorf("Alternate(x) should return x unchanged")
	}
	if n := Bytes(nil); n.Kind != KindEmpty {
		t.Errorf("Bytes(nil) kind = %v, want Empty", n.Kind)
	}
	if n := Bytes([]byte("ab")); n.Kind != KindConcat || len(n.Children) != 2 {
		t.Errorf("Bytes(ab) = %+v, want 2-child Concat", n)
	}
}

func TestMaxCaptureIndex(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want int
	}{
		{"no groups", Bytes([]byte("abc")), 0},
		{"one group", Group(Byte('a'), 1), 1},
		{
			"nested groups",
			Group(Concat(Byte('a'), Group(Byte('b'), 2)), 1),
			2,
		},
		{
			"groups in alternation",
			Alternate(Group(Byte('a'), 1), Group(Byte('b'), 3)),
			3,
		},
		{
			"group under repeat",
			Repeat(Group(Byte('a'), 2), 0, -1, true),
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.MaxCaptureIndex(); got != tt.want {
				t.Errorf("MaxCaptureIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBody(t *testing.T) {
	inner := Byte('a')
	if got := Repeat(inner, 0, -1, true).Body(); got != inner {
		t.Errorf("Repeat Body() = %v, want inner", got)
	}
	if got := Group(inner, 1).Body(); got != inner {
		t.Errorf("Group Body() = %v, want inner", got)
	}
	if got := inner.Body(); got != nil {
		t.Errorf("Literal Body() = %v, want nil", got)
	}
}
