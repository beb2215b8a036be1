package trexio

import (
	"math"
	"strings"
	"testing"
)

func TestFormatTextFloat(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{1, "1.0"},
		{-42, "-42.0"},
		{0.1, "0.1"},
		{1.39250319, "1.39250319"},
		{1e21, "1e+21"},
		{5e-324, "5e-324"},
		{math.Inf(1), ".inf"},
		{math.Inf(-1), "-.inf"},
		{math.NaN(), ".nan"},
	}
	for _, tt := range tests {
		s := formatTextFloat(tt.f)
		if s != tt.want {
			t.Errorf("formatTextFloat(%v) = %q, wanted %q", tt.f, s, tt.want)
		}
		back, err := parseTextFloat(s)
		if err != nil {
			t.Errorf("parseTextFloat(%q) failed: %v", s, err)
		} else if math.Float64bits(back) != math.Float64bits(tt.f) && !math.IsNaN(tt.f) {
			t.Errorf("parseTextFloat(%q) = %v, wanted %v", s, back, tt.f)
		}
	}
}

func TestParseTextFloat(t *testing.T) {
	deepEqual(t, must(parseTextFloat("+.Inf")), math.Inf(1))
	deepEqual(t, must(parseTextFloat("-.INF")), math.Inf(-1))
	deepEqual(t, must(parseTextFloat("2")), 2.0)
	deepEqual(t, must(parseTextFloat("1E3")), 1000.0)
	if !math.IsNaN(must(parseTextFloat(".NaN"))) {
		t.Fatalf(".NaN did not parse as NaN")
	}
	for _, s := range []string{"", "abc", "1.0.0", "0x"} {
		if _, err := parseTextFloat(s); err == nil {
			t.Errorf("parseTextFloat(%q) succeeded", s)
		}
	}
}

func TestTextGroup_RoundTrip(t *testing.T) {
	in := textGroup{
		"num":    textFieldFromValue(&value{Kind: KindInt, Ints: []int64{2}}),
		"charge": textFieldFromValue(&value{Kind: KindFloat, Dims: []uint64{2}, Floats: []float64{8, 1.5}}),
		"coord":  textFieldFromValue(&value{Kind: KindFloat, Dims: []uint64{2, 3}, Floats: []float64{1, 2, 3, 4, 5, math.Inf(1)}}),
		"label":  textFieldFromValue(&value{Kind: KindString, Dims: []uint64{2}, Strs: []string{"O", "two words"}}),
		"empty":  textFieldFromValue(&value{Kind: KindInt, Dims: []uint64{0}, Ints: []int64{}}),
		"breaks": textFieldFromValue(&value{Kind: KindString, Dims: []uint64{3}, Strs: []string{"\n", "\n\n b", "c\n\n"}}),
		"group":  textFieldFromValue(&value{Kind: KindString, Strs: []string{"\n"}}),
	}
	data := must(encodeTextGroup(in))
	text := string(data)
	if !strings.HasPrefix(text, "breaks:\n") {
		t.Fatalf("fields are not sorted:\n%s", text)
	}
	if !strings.Contains(text, "dims: [2, 3]") {
		t.Fatalf("dims are not in flow style:\n%s", text)
	}
	if !strings.Contains(text, `- "two words"`) || !strings.Contains(text, `- "\n\n b"`) {
		t.Fatalf("strings are not double-quoted:\n%s", text)
	}

	out := must(decodeTextGroup(data))
	deepEqual(t, len(out), len(in))
	for name, tf := range in {
		want := must(tf.value())
		got := must(out[name].value())
		deepEqual(t, got, want)
	}
}

func TestDecodeTextGroup_Corruption(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "num: [1, 2\n"},
		{"not a map", "- 1\n- 2\n"},
		{"empty field", "num:\n"},
		{"bad float", "x:\n  kind: float\n  rank: 1\n  dims: [1]\n  floats: [abc]\n"},
		{"nested float", "x:\n  kind: float\n  rank: 1\n  dims: [1]\n  floats: [[1.0]]\n"},
		{"nested string", "x:\n  kind: str\n  rank: 1\n  dims: [1]\n  strings: [[a]]\n"},
		{"strings not a list", "x:\n  kind: str\n  rank: 0\n  strings: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeTextGroup([]byte(tt.yaml))
			isErr(t, err, ErrCorrupt)
		})
	}

	// well-formed YAML with inconsistent content fails on conversion
	fields := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "x:\n  kind: complex\n  rank: 0\n"},
		{"rank disagrees with dims", "x:\n  kind: int\n  rank: 2\n  dims: [1]\n  ints: [1]\n"},
		{"too few elements", "x:\n  kind: int\n  rank: 1\n  dims: [3]\n  ints: [1, 2]\n"},
		{"scalar without value", "x:\n  kind: str\n  rank: 0\n"},
		{"shape overflows", "x:\n  kind: int\n  rank: 2\n  dims: [4294967296, 4294967296]\n"},
	}
	for _, tt := range fields {
		t.Run(tt.name, func(t *testing.T) {
			g := must(decodeTextGroup([]byte(tt.yaml)))
			_, err := g["x"].value()
			isErr(t, err, ErrCorrupt)
		})
	}
}

func TestDecodeTextGroup_Empty(t *testing.T) {
	g := must(decodeTextGroup(nil))
	deepEqual(t, len(g), 0)
}
