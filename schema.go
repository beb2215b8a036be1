package trexio

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindIntArray
	KindFloatArray
	KindStringArray
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindInt:         "int",
	KindFloat:       "float",
	KindString:      "str",
	KindIntArray:    "int[]",
	KindFloatArray:  "float[]",
	KindStringArray: "str[]",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) IsArray() bool {
	return k == KindIntArray || k == KindFloatArray || k == KindStringArray
}

// elem returns the scalar kind of array elements.
func (k Kind) elem() Kind {
	switch k {
	case KindIntArray:
		return KindInt
	case KindFloatArray:
		return KindFloat
	case KindStringArray:
		return KindString
	default:
		return k
	}
}

// Dim is one axis of an array field: either a constant or the value of a
// governing dimension scalar.
type Dim struct {
	Const uint64
	Ref   *FieldDesc
}

// Fixed returns a constant axis.
func Fixed(n uint64) Dim {
	return Dim{Const: n}
}

func (d Dim) String() string {
	if d.Ref != nil {
		return d.Ref.FullName()
	}
	return fmt.Sprint(d.Const)
}

// Schema is a catalog of groups and their fields.
type Schema struct {
	groups           []*Group
	groupsByName     map[string]*Group
	fieldsByFullName map[string]*FieldDesc
}

func NewSchema() *Schema {
	return &Schema{
		groupsByName:     make(map[string]*Group),
		fieldsByFullName: make(map[string]*FieldDesc),
	}
}

func (scm *Schema) Groups() []*Group {
	return append([]*Group(nil), scm.groups...)
}

func (scm *Schema) Group(name string) *Group {
	return scm.groupsByName[name]
}

// Resolve finds the descriptor of group.field, failing with ErrUnknownField
// if the catalog has no such field.
func (scm *Schema) Resolve(group, field string) (*FieldDesc, error) {
	g := scm.groupsByName[group]
	if g == nil {
		return nil, &FieldError{Op: "resolve", Group: group, Field: field, Kind: ErrUnknownField, Msg: "no such group"}
	}
	fd := g.fieldsByName[field]
	if fd == nil {
		return nil, &FieldError{Op: "resolve", Group: group, Field: field, Kind: ErrUnknownField}
	}
	return fd, nil
}

// LookupFullName resolves a binding-style name such as "nucleus_coord".
// Full names are unique within a schema.
func (scm *Schema) LookupFullName(name string) (*FieldDesc, error) {
	if fd := scm.fieldsByFullName[name]; fd != nil {
		return fd, nil
	}
	return nil, &FieldError{Op: "resolve", Field: name, Kind: ErrUnknownField}
}

func (scm *Schema) AddGroup(name string) *Group {
	if !validName(name) {
		panic(fmt.Errorf("invalid group name %q", name))
	}
	if scm.groupsByName[name] != nil {
		panic(fmt.Errorf("group %s already defined", name))
	}
	g := &Group{
		schema:       scm,
		name:         name,
		fieldsByName: make(map[string]*FieldDesc),
	}
	scm.groups = append(scm.groups, g)
	scm.groupsByName[name] = g
	return g
}

// validName accepts lowercase identifiers. Group names double as bucket and
// file names.
func validName(name string) bool {
	if name == "" || name[0] == '_' || (name[0] >= '0' && name[0] <= '9') {
		return false
	}
	for _, c := range []byte(name) {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// Group is a fixed namespace of fields.
type Group struct {
	schema       *Schema
	name         string
	fields       []*FieldDesc
	fieldsByName map[string]*FieldDesc
}

func (g *Group) Name() string    { return g.name }
func (g *Group) Schema() *Schema { return g.schema }

func (g *Group) Fields() []*FieldDesc {
	return append([]*FieldDesc(nil), g.fields...)
}

func (g *Group) Field(name string) *FieldDesc {
	return g.fieldsByName[name]
}

func (g *Group) addField(name string, kind Kind, isDim bool, dims []Dim) *FieldDesc {
	if !validName(name) {
		panic(fmt.Errorf("invalid field name %q", name))
	}
	if g.fieldsByName[name] != nil {
		panic(fmt.Errorf("field %s_%s already defined", g.name, name))
	}
	fd := &FieldDesc{
		group: g,
		name:  name,
		kind:  kind,
		isDim: isDim,
		dims:  dims,
	}
	full := fd.FullName()
	if g.schema.fieldsByFullName[full] != nil {
		panic(fmt.Errorf("field name %s is ambiguous", full))
	}
	for _, d := range dims {
		if d.Ref != nil && (!d.Ref.isDim || d.Ref.group.schema != g.schema) {
			panic(fmt.Errorf("%s: axis %s is not a dimension of this schema", full, d.Ref.FullName()))
		}
	}
	g.fields = append(g.fields, fd)
	g.fieldsByName[name] = fd
	g.schema.fieldsByFullName[full] = fd
	return fd
}

// DefineDimension adds an integer scalar that governs the length of arrays.
// Dimensions are write-once and must be non-negative.
func (g *Group) DefineDimension(name string) IntField {
	return IntField{g.addField(name, KindInt, true, nil)}
}

func (g *Group) DefineInt(name string) IntField {
	return IntField{g.addField(name, KindInt, false, nil)}
}

func (g *Group) DefineFloat(name string) FloatField {
	return FloatField{g.addField(name, KindFloat, false, nil)}
}

func (g *Group) DefineString(name string) StringField {
	return StringField{g.addField(name, KindString, false, nil)}
}

func (g *Group) DefineIntArray(name string, dims ...Dim) IntArrayField {
	return IntArrayField{g.addField(name, KindIntArray, false, checkDims(dims))}
}

func (g *Group) DefineFloatArray(name string, dims ...Dim) FloatArrayField {
	return FloatArrayField{g.addField(name, KindFloatArray, false, checkDims(dims))}
}

func (g *Group) DefineStringArray(name string, dims ...Dim) StringArrayField {
	return StringArrayField{g.addField(name, KindStringArray, false, checkDims(dims))}
}

func checkDims(dims []Dim) []Dim {
	if len(dims) == 0 {
		panic("array field needs at least one axis")
	}
	return append([]Dim(nil), dims...)
}

// FieldDesc describes a field: its declared kind, rank and axes.
type FieldDesc struct {
	group *Group
	name  string
	kind  Kind
	isDim bool
	dims  []Dim
}

func (fd *FieldDesc) Group() *Group { return fd.group }
func (fd *FieldDesc) Name() string  { return fd.name }
func (fd *FieldDesc) Kind() Kind    { return fd.kind }

// IsDimension reports whether this scalar governs the length of arrays.
func (fd *FieldDesc) IsDimension() bool { return fd.isDim }

// Rank is 0 for scalars.
func (fd *FieldDesc) Rank() int { return len(fd.dims) }

func (fd *FieldDesc) Dims() []Dim {
	return append([]Dim(nil), fd.dims...)
}

// FullName is the flat binding-style name, e.g. "nucleus_coord".
func (fd *FieldDesc) FullName() string {
	return fd.group.name + "_" + fd.name
}

func (fd *FieldDesc) String() string {
	if len(fd.dims) == 0 {
		return fd.FullName() + " " + fd.kind.String()
	}
	parts := make([]string, len(fd.dims))
	for i, d := range fd.dims {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s %s[%s]", fd.FullName(), fd.kind.elem(), strings.Join(parts, ","))
}

// Governing returns the dimension scalars this field's axes refer to.
func (fd *FieldDesc) Governing() []*FieldDesc {
	var result []*FieldDesc
	for _, d := range fd.dims {
		if d.Ref != nil {
			result = append(result, d.Ref)
		}
	}
	return result
}

// Typed field handles. They are thin wrappers that let the compiler pick the
// right read/write functions for a field.
type (
	IntField         struct{ d *FieldDesc }
	FloatField       struct{ d *FieldDesc }
	StringField      struct{ d *FieldDesc }
	IntArrayField    struct{ d *FieldDesc }
	FloatArrayField  struct{ d *FieldDesc }
	StringArrayField struct{ d *FieldDesc }
)

func (f IntField) Desc() *FieldDesc         { return f.d }
func (f FloatField) Desc() *FieldDesc       { return f.d }
func (f StringField) Desc() *FieldDesc      { return f.d }
func (f IntArrayField) Desc() *FieldDesc    { return f.d }
func (f FloatArrayField) Desc() *FieldDesc  { return f.d }
func (f StringArrayField) Desc() *FieldDesc { return f.d }

// Axis turns a dimension field into an array axis.
func (f IntField) Axis() Dim {
	if !f.d.isDim {
		panic(fmt.Errorf("%s is not a dimension", f.d.FullName()))
	}
	return Dim{Ref: f.d}
}
