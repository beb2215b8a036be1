package trexio

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const textFormatVer = 1

// textMarker is the content of the .trexio.yaml file that identifies a text
// container directory.
type textMarker struct {
	Backend string `yaml:"backend"`
	Format  int    `yaml:"format"`
}

// textGroup is the YAML document of one group file. Keys are field names;
// yaml.v3 sorts them on output, which keeps files diffable.
type textGroup map[string]*textField

type textField struct {
	Kind    string      `yaml:"kind"`
	Rank    int         `yaml:"rank"`
	Dims    []uint64    `yaml:"dims,flow,omitempty"`
	Ints    []int64     `yaml:"ints,omitempty"`
	Floats  textFloats  `yaml:"floats,omitempty"`
	Strings textStrings `yaml:"strings,omitempty"`
}

var textKindNames = map[Kind]string{
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "str",
}

func textFieldFromValue(v *value) *textField {
	return &textField{
		Kind:    textKindNames[v.Kind],
		Rank:    len(v.Dims),
		Dims:    v.Dims,
		Ints:    v.Ints,
		Floats:  textFloats(v.Floats),
		Strings: textStrings(v.Strs),
	}
}

func (tf *textField) value() (*value, error) {
	v := &value{}
	switch tf.Kind {
	case "int":
		v.Kind, v.Ints = KindInt, tf.Ints
		if v.Ints == nil {
			v.Ints = []int64{}
		}
	case "float":
		v.Kind, v.Floats = KindFloat, []float64(tf.Floats)
		if v.Floats == nil {
			v.Floats = []float64{}
		}
	case "str":
		v.Kind, v.Strs = KindString, []string(tf.Strings)
		if v.Strs == nil {
			v.Strs = []string{}
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrCorrupt, tf.Kind)
	}
	if tf.Rank != len(tf.Dims) {
		return nil, fmt.Errorf("%w: rank %d with %d dims", ErrCorrupt, tf.Rank, len(tf.Dims))
	}
	if tf.Rank > 0 {
		v.Dims = tf.Dims
	}
	if !v.shapeMatches() {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrCorrupt, v.Len(), tf.Dims)
	}
	return v, nil
}

func encodeTextGroup(g textGroup) ([]byte, error) {
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func decodeTextGroup(data []byte) (textGroup, error) {
	var g textGroup
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if g == nil {
		g = make(textGroup)
	}
	for name, tf := range g {
		if tf == nil {
			return nil, fmt.Errorf("%w: field %s has no content", ErrCorrupt, name)
		}
	}
	return g, nil
}

// textFloats marshals each element with the shortest representation that
// parses back to the same float64, always in a form YAML resolves as float.
type textFloats []float64

func (tf textFloats) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, f := range tf {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!float",
			Value: formatTextFloat(f),
		})
	}
	return node, nil
}

func (tf *textFloats) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: expected a sequence of floats", node.Line)
	}
	result := make(textFloats, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: expected a float", item.Line)
		}
		f, err := parseTextFloat(item.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		result[i] = f
	}
	*tf = result
	return nil
}

// textStrings marshals every element double-quoted. Block and plain styles
// lose leading line breaks and surrounding blanks on the way back. Invalid
// UTF-8 goes out as !!binary.
type textStrings []string

func (ts textStrings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range ts {
		item := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Style: yaml.DoubleQuotedStyle,
			Value: s,
		}
		if !utf8.ValidString(s) {
			item.Tag, item.Style, item.Value = "!!binary", 0, base64.StdEncoding.EncodeToString([]byte(s))
		}
		node.Content = append(node.Content, item)
	}
	return node, nil
}

func (ts *textStrings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: expected a sequence of strings", node.Line)
	}
	result := make(textStrings, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: expected a string", item.Line)
		}
		if item.ShortTag() == "!!binary" {
			b, err := base64.StdEncoding.DecodeString(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			result[i] = string(b)
			continue
		}
		result[i] = item.Value
	}
	*ts = result
	return nil
}

func formatTextFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func parseTextFloat(s string) (float64, error) {
	switch s {
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), nil
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return math.Inf(1), nil
	case "-.inf", "-.Inf", "-.INF":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}
