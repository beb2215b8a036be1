package trexio

import (
	"fmt"
	"math"
)

// DType is the element type requested from, or returned by, an array read.
type DType uint8

const (
	DTypeInvalid DType = iota
	DTypeInt16
	DTypeInt32
	DTypeInt64
	DTypeFloat32
	DTypeFloat64
	DTypeString
)

var dtypeNames = [...]string{
	DTypeInvalid: "invalid",
	DTypeInt16:   "int16",
	DTypeInt32:   "int32",
	DTypeInt64:   "int64",
	DTypeFloat32: "float32",
	DTypeFloat64: "float64",
	DTypeString:  "string",
}

func (dt DType) String() string {
	if int(dt) < len(dtypeNames) {
		return dtypeNames[dt]
	}
	return fmt.Sprintf("DType(%d)", int(dt))
}

// ParseDType accepts the names returned by DType.String.
func ParseDType(s string) (DType, error) {
	for dt, name := range dtypeNames {
		if dt != int(DTypeInvalid) && name == s {
			return DType(dt), nil
		}
	}
	return DTypeInvalid, fmt.Errorf("trexio: %w: unknown dtype %q", ErrInvalidArgument, s)
}

// canonicalDType returns the storage dtype of an element kind.
func canonicalDType(k Kind) DType {
	switch k.elem() {
	case KindInt:
		return DTypeInt64
	case KindFloat:
		return DTypeFloat64
	case KindString:
		return DTypeString
	default:
		return DTypeInvalid
	}
}

// readable reports whether values of element kind k may be read as dt.
func readable(k Kind, dt DType) bool {
	switch k.elem() {
	case KindInt:
		return dt == DTypeInt16 || dt == DTypeInt32 || dt == DTypeInt64
	case KindFloat:
		return dt == DTypeFloat32 || dt == DTypeFloat64
	case KindString:
		return dt == DTypeString
	default:
		return false
	}
}

// Integer is any Go integer type accepted by integer array writes.
type Integer interface {
	int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64
}

// Number is any Go numeric type accepted by float array writes.
type Number interface {
	Integer | float32 | float64
}

// ReadableInt lists the element types integer arrays can be read as.
type ReadableInt interface {
	int16 | int32 | int64
}

// ReadableFloat lists the element types float arrays can be read as.
type ReadableFloat interface {
	float32 | float64
}

func dtypeOf[T ReadableInt | ReadableFloat | string]() DType {
	var zero T
	switch any(zero).(type) {
	case int16:
		return DTypeInt16
	case int32:
		return DTypeInt32
	case int64:
		return DTypeInt64
	case float32:
		return DTypeFloat32
	case float64:
		return DTypeFloat64
	case string:
		return DTypeString
	default:
		panic("unreachable")
	}
}

// rangeError reports an element that cannot be represented exactly in the
// target type.
type rangeError struct {
	index int
	value any
	to    string
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("element %d = %v cannot be represented as %s", e.index, e.value, e.to)
}

// typeError reports Go data that cannot be stored in a field at all.
type typeError struct {
	data any
	kind Kind
}

func (e *typeError) Error() string {
	return fmt.Sprintf("cannot store %T in a %s field", e.data, e.kind)
}

// canonInts widens integers to int64.
func canonInts[T Integer](data []T) ([]int64, error) {
	out := make([]int64, len(data))
	for i, v := range data {
		if v > 0 && uint64(v) > math.MaxInt64 {
			return nil, &rangeError{i, v, "int64"}
		}
		out[i] = int64(v)
	}
	return out, nil
}

// canonFloats converts numbers to float64, rejecting integers that float64
// cannot hold exactly.
func canonFloats[T Number](data []T) ([]float64, error) {
	out := make([]float64, len(data))
	for i, v := range data {
		switch x := any(v).(type) {
		case float64:
			out[i] = x
		case float32:
			out[i] = float64(x)
		case uint:
			if !exactUint(uint64(x)) {
				return nil, &rangeError{i, v, "float64"}
			}
			out[i] = float64(x)
		case uint64:
			if !exactUint(x) {
				return nil, &rangeError{i, v, "float64"}
			}
			out[i] = float64(x)
		default:
			n := int64(v)
			if !exactInt(n) {
				return nil, &rangeError{i, v, "float64"}
			}
			out[i] = float64(n)
		}
	}
	return out, nil
}

const maxExactFloat = 1 << 53

func exactInt(n int64) bool {
	if n >= -maxExactFloat && n <= maxExactFloat {
		return true
	}
	f := float64(n)
	return f > -0x1p63 && f < 0x1p63 && int64(f) == n || f == -0x1p63 && n == math.MinInt64
}

func exactUint(n uint64) bool {
	if n <= maxExactFloat {
		return true
	}
	f := float64(n)
	return f < 0x1p64 && uint64(f) == n
}

// narrowInts converts stored integers to T, failing on the first value that
// does not fit.
func narrowInts[T ReadableInt](src []int64) ([]T, error) {
	out := make([]T, len(src))
	for i, v := range src {
		t := T(v)
		if int64(t) != v {
			return nil, &rangeError{i, v, dtypeOf[T]().String()}
		}
		out[i] = t
	}
	return out, nil
}

// narrowFloats converts stored floats to T. Values outside the range of T or
// not exactly representable in it are rejected, so precision is never lost
// silently.
func narrowFloats[T ReadableFloat](src []float64) ([]T, error) {
	out := make([]T, len(src))
	for i, v := range src {
		t := T(v)
		if float64(t) != v && !math.IsNaN(v) {
			return nil, &rangeError{i, v, dtypeOf[T]().String()}
		}
		out[i] = t
	}
	return out, nil
}

// anyInts converts the supported integer slice types to int64.
func anyInts(data any) ([]int64, error) {
	switch d := data.(type) {
	case []int64:
		return canonInts(d)
	case []int32:
		return canonInts(d)
	case []int16:
		return canonInts(d)
	case []int8:
		return canonInts(d)
	case []int:
		return canonInts(d)
	case []uint64:
		return canonInts(d)
	case []uint32:
		return canonInts(d)
	case []uint16:
		return canonInts(d)
	case []uint8:
		return canonInts(d)
	case []uint:
		return canonInts(d)
	default:
		return nil, &typeError{data, KindIntArray}
	}
}

// anyFloats converts the supported numeric slice types to float64.
func anyFloats(data any) ([]float64, error) {
	switch d := data.(type) {
	case []float64:
		return canonFloats(d)
	case []float32:
		return canonFloats(d)
	case []int64:
		return canonFloats(d)
	case []int32:
		return canonFloats(d)
	case []int16:
		return canonFloats(d)
	case []int8:
		return canonFloats(d)
	case []int:
		return canonFloats(d)
	case []uint64:
		return canonFloats(d)
	case []uint32:
		return canonFloats(d)
	case []uint16:
		return canonFloats(d)
	case []uint8:
		return canonFloats(d)
	case []uint:
		return canonFloats(d)
	default:
		return nil, &typeError{data, KindFloatArray}
	}
}

// toArray converts a stored value into an Array of the requested dtype using
// the closed table of legal conversions.
func toArray(v *value, dt DType) (Array, error) {
	a := Array{dtype: dt, dims: v.Dims}
	var err error
	switch dt {
	case DTypeInt16:
		a.data, err = narrowInts[int16](v.Ints)
	case DTypeInt32:
		a.data, err = narrowInts[int32](v.Ints)
	case DTypeInt64:
		a.data = cloneNonNil(v.Ints)
	case DTypeFloat32:
		a.data, err = narrowFloats[float32](v.Floats)
	case DTypeFloat64:
		a.data = cloneNonNil(v.Floats)
	case DTypeString:
		a.data = cloneNonNil(v.Strs)
	default:
		panic(fmt.Errorf("toArray: invalid dtype %v", dt))
	}
	if err != nil {
		return Array{}, err
	}
	return a, nil
}

func cloneNonNil[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
