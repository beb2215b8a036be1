package trexio

import (
	"fmt"
	"slices"
)

// Array is the result of a dynamic read: a flat, row-major slice of one
// element type together with the shape the field was written with.
type Array struct {
	dtype DType
	dims  []uint64
	data  any
}

func (a Array) DType() DType { return a.dtype }

// Dims returns the stored shape.
func (a Array) Dims() []uint64 { return slices.Clone(a.dims) }

func (a Array) Len() int {
	switch d := a.data.(type) {
	case []int16:
		return len(d)
	case []int32:
		return len(d)
	case []int64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []string:
		return len(d)
	default:
		return 0
	}
}

// Data returns the underlying slice, e.g. []int32 for DTypeInt32.
func (a Array) Data() any { return a.data }

// The typed accessors panic when the array holds a different dtype.

func (a Array) Int16s() []int16     { return arrayData[int16](a, DTypeInt16) }
func (a Array) Int32s() []int32     { return arrayData[int32](a, DTypeInt32) }
func (a Array) Int64s() []int64     { return arrayData[int64](a, DTypeInt64) }
func (a Array) Float32s() []float32 { return arrayData[float32](a, DTypeFloat32) }
func (a Array) Float64s() []float64 { return arrayData[float64](a, DTypeFloat64) }
func (a Array) Strings() []string   { return arrayData[string](a, DTypeString) }

func arrayData[T any](a Array, dt DType) []T {
	if a.dtype != dt {
		panic(fmt.Errorf("trexio: array holds %v, not %v", a.dtype, dt))
	}
	return a.data.([]T)
}

func (a Array) String() string {
	return fmt.Sprintf("%v%v%v", a.dtype, a.dims, a.data)
}
