package trexio

import (
	"math/bits"
	"slices"
)

// storage is a backend driver (binary, text). A driver is owned by exactly
// one File and is not safe for concurrent use.
type storage interface {
	// Put stores a value, replacing any previous one. Writes may be buffered
	// until Flush.
	Put(group, field string, v *value) error

	// Get returns the stored value, or nil if the field was never written.
	Get(group, field string) (*value, error)

	// Exists reports whether the field was written (possibly as an empty array).
	Exists(group, field string) (bool, error)

	// Groups returns the names of materialized groups, sorted.
	Groups() ([]string, error)

	// Fields returns the names of written fields within a group, sorted.
	Fields(group string) ([]string, error)

	// Flush commits buffered writes.
	Flush() error

	// Release flushes and releases files and locks. Safe to call once.
	Release() error

	// Abandon releases files and locks, dropping buffered writes.
	Abandon() error
}

// value is the canonical in-memory form of a stored field: int64, float64
// or string elements plus the shape they were written with. Scalars have no
// dims and exactly one element.
type value struct {
	Kind   Kind // element kind: KindInt, KindFloat or KindString
	Dims   []uint64
	Ints   []int64
	Floats []float64
	Strs   []string
}

func (v *value) Len() int {
	switch v.Kind {
	case KindInt:
		return len(v.Ints)
	case KindFloat:
		return len(v.Floats)
	case KindString:
		return len(v.Strs)
	default:
		return 0
	}
}

func (v *value) Rank() int {
	return len(v.Dims)
}

// shapeMatches reports whether the element count equals the product of Dims
// (1 for scalars). A shape whose product overflows never matches.
func (v *value) shapeMatches() bool {
	n, ok := dimsProduct(v.Dims)
	return ok && uint64(v.Len()) == n
}

// dimsProduct multiplies out a shape; ok is false on uint64 overflow.
func dimsProduct(dims []uint64) (n uint64, ok bool) {
	n = 1
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// pendingWrites buffers Put calls until a driver commits them. Later writes
// to the same field replace earlier ones, preserving call order semantics.
type pendingWrites struct {
	groups map[string]map[string]*value
}

func (p *pendingWrites) put(group, field string, v *value) {
	if p.groups == nil {
		p.groups = make(map[string]map[string]*value)
	}
	g := p.groups[group]
	if g == nil {
		g = make(map[string]*value)
		p.groups[group] = g
	}
	g[field] = v
}

func (p *pendingWrites) get(group, field string) *value {
	return p.groups[group][field]
}

func (p *pendingWrites) empty() bool {
	return len(p.groups) == 0
}

func (p *pendingWrites) groupNames() []string {
	return sortedKeys(p.groups)
}

func (p *pendingWrites) fieldNames(group string) []string {
	return sortedKeys(p.groups[group])
}

func (p *pendingWrites) reset() {
	p.groups = nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func mergeSorted(a, b []string) []string {
	result := append(slices.Clone(a), b...)
	slices.Sort(result)
	return slices.Compact(result)
}
