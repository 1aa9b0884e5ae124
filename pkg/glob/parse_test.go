package glob

import (
	"reflect"
	"testing"
)

var parseCases = []struct {
	src  string
	want []Segment
}{
	{"", nil},
	{"abc", []Segment{Literal{"abc"}}},
	{"a?c", []Segment{Literal{"a"}, Wild{Type: Question}, Literal{"c"}}},
	{"a***b", []Segment{Literal{"a"}, Wild{Type: Star}, Literal{"b"}}},
	{"a//b", []Segment{Literal{"a"}, Slash{}, Literal{"b"}}},
	{`a\*b`, []Segment{Literal{"a*b"}}},
	{`a\\b`, []Segment{Literal{`a\b`}}},
	{"[abc]", []Segment{Wild{Type: Class, Chars: "abc"}}},
	{"[!abc]", []Segment{Wild{Type: Class, Negated: true, Chars: "abc"}}},
	{"[^abc]", []Segment{Wild{Type: Class, Negated: true, Chars: "abc"}}},
	{"[a-z]", []Segment{Wild{Type: Class, Ranges: [][2]rune{{'a', 'z'}}}}},
	{"[a-cx]", []Segment{Wild{Type: Class, Chars: "x", Ranges: [][2]rune{{'a', 'c'}}}}},
	{"[]a]", []Segment{Wild{Type: Class, Chars: "]a"}}},
	{"[a-]", []Segment{Wild{Type: Class, Chars: "a-"}}},
	{`[\]]`, []Segment{Wild{Type: Class, Chars: "]"}}},
	// An unterminated class is taken literally.
	{"[abc", []Segment{Literal{"[abc"}}},
	{"a[", []Segment{Literal{"a"}, Literal{"["}}},
	{"x[ab", []Segment{Literal{"x"}, Literal{"[ab"}}},
}

func TestParse(t *testing.T) {
	for _, tc := range parseCases {
		p := Parse(tc.src)
		if !reflect.DeepEqual(p.Segments, tc.want) {
			t.Errorf("Parse(%q) = %v, want %v", tc.src, p.Segments, tc.want)
		}
	}
}

func TestWildMatch(t *testing.T) {
	cases := []struct {
		w    Wild
		r    rune
		want bool
	}{
		{Wild{Type: Question}, 'x', true},
		{Wild{Type: Class, Chars: "abc"}, 'b', true},
		{Wild{Type: Class, Chars: "abc"}, 'd', false},
		{Wild{Type: Class, Ranges: [][2]rune{{'0', '9'}}}, '5', true},
		{Wild{Type: Class, Ranges: [][2]rune{{'0', '9'}}}, 'x', false},
		{Wild{Type: Class, Negated: true, Chars: "abc"}, 'd', true},
		{Wild{Type: Class, Negated: true, Chars: "abc"}, 'a', false},
	}
	for _, tc := range cases {
		if got := tc.w.Match(tc.r); got != tc.want {
			t.Errorf("%+v.Match(%q) = %v, want %v", tc.w, tc.r, got, tc.want)
		}
	}
}
