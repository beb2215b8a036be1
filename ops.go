package trexio

import (
	"errors"
	"slices"
)

// write validates v against fd and hands it to the driver. Array values get
// their shape from the governing dimensions.
func (f *File) write(fd *FieldDesc, v *value) error {
	const op = "write"
	if err := f.checkField(op, fd); err != nil {
		return err
	}
	if !f.mode.Writable() {
		return fieldErrf(op, fd, ErrInvalidMode, nil, "container is open for %v", f.mode)
	}

	if fd.isDim {
		if v.Ints[0] < 0 {
			return fieldErrf(op, fd, ErrInvalidArgument, nil, "dimension must be non-negative, got %d", v.Ints[0])
		}
		exists, err := f.store.Exists(fd.group.name, fd.name)
		if err != nil {
			return f.fail(fieldErrf(op, fd, category(err, ErrBackendIO), err, ""))
		}
		if exists {
			return fieldErrf(op, fd, ErrAlreadyExists, nil, "dimensions cannot be rewritten")
		}
	}

	if fd.kind.IsArray() {
		dims, err := f.resolveDims(op, fd)
		if err != nil {
			return err
		}
		want, ok := dimsProduct(dims)
		if !ok {
			return fieldErrf(op, fd, ErrInvalidArgument, nil, "shape %v has too many elements", dims)
		}
		if uint64(v.Len()) != want {
			return fieldErrf(op, fd, ErrDimensionMismatch, nil, "got %d elements, shape %v needs %d", v.Len(), dims, want)
		}
		v.Dims = dims
	}

	if err := f.store.Put(fd.group.name, fd.name, v); err != nil {
		return f.fail(fieldErrf(op, fd, category(err, ErrBackendIO), err, ""))
	}
	if f.verbose {
		f.logger.Debug("trexio: write", "path", f.path, "group", fd.group.name, "field", fd.name, "len", v.Len())
	}
	return nil
}

// resolveDims returns the current shape of an array field. Every governing
// dimension must already be written.
func (f *File) resolveDims(op string, fd *FieldDesc) ([]uint64, error) {
	dims := make([]uint64, len(fd.dims))
	for i, d := range fd.dims {
		if d.Ref == nil {
			dims[i] = d.Const
			continue
		}
		n, ok, err := f.dimValue(op, fd, d.Ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fieldErrf(op, fd, ErrFieldNotFound, nil, "dimension %s is not written", d.Ref.FullName())
		}
		dims[i] = n
	}
	return dims, nil
}

func (f *File) dimValue(op string, fd, dim *FieldDesc) (uint64, bool, error) {
	v, err := f.store.Get(dim.group.name, dim.name)
	if err != nil {
		return 0, false, f.fail(fieldErrf(op, fd, category(err, ErrBackendIO), err, "reading %s", dim.FullName()))
	}
	if v == nil {
		return 0, false, nil
	}
	if v.Kind != KindInt || v.Len() != 1 || v.Ints[0] < 0 {
		return 0, false, f.fail(fieldErrf(op, fd, ErrCorrupt, nil, "dimension %s has invalid stored value", dim.FullName()))
	}
	return uint64(v.Ints[0]), true, nil
}

// load fetches a stored value and checks it against the catalog. Stored data
// that disagrees with the declared kind, rank or governing dimensions poisons
// the handle.
func (f *File) load(op string, fd *FieldDesc) (*value, error) {
	if err := f.checkField(op, fd); err != nil {
		return nil, err
	}
	v, err := f.store.Get(fd.group.name, fd.name)
	if err != nil {
		return nil, f.fail(fieldErrf(op, fd, category(err, ErrBackendIO), err, ""))
	}
	if v == nil {
		return nil, fieldErrf(op, fd, ErrFieldNotFound, nil, "")
	}
	if v.Kind != fd.kind.elem() {
		return nil, f.fail(fieldErrf(op, fd, ErrCorrupt, nil, "stored %v, declared %v", v.Kind, fd.kind))
	}
	if v.Rank() != fd.Rank() || !v.shapeMatches() {
		return nil, f.fail(fieldErrf(op, fd, ErrCorrupt, nil, "stored shape %v with %d elements, declared rank %d", v.Dims, v.Len(), fd.Rank()))
	}
	for i, d := range fd.dims {
		want := d.Const
		if d.Ref != nil {
			n, ok, err := f.dimValue(op, fd, d.Ref)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			want = n
		}
		if v.Dims[i] != want {
			return nil, f.fail(fieldErrf(op, fd, ErrCorrupt, nil, "stored axis %d is %d, %v is %d", i, v.Dims[i], d, want))
		}
	}
	return v, nil
}

// readArray is shared by the safe and convenience reads. Safe reads pass
// checkDim and must name the stored element count exactly.
func (f *File) readArray(fd *FieldDesc, dim int, checkDim bool) (*value, error) {
	const op = "read"
	if checkDim && dim < 0 {
		return nil, fieldErrf(op, fd, ErrInvalidArgument, nil, "negative dimension %d", dim)
	}
	v, err := f.load(op, fd)
	if err != nil {
		return nil, err
	}
	if checkDim && dim != v.Len() {
		return nil, fieldErrf(op, fd, ErrDimensionMismatch, nil, "requested %d elements, stored %d", dim, v.Len())
	}
	return v, nil
}

func (f *File) has(fd *FieldDesc) (bool, error) {
	if err := f.checkField("has", fd); err != nil {
		return false, err
	}
	ok, err := f.store.Exists(fd.group.name, fd.name)
	if err != nil {
		return false, f.fail(fieldErrf("has", fd, category(err, ErrBackendIO), err, ""))
	}
	return ok, nil
}

func (f *File) resolve(op, group, field string) (*FieldDesc, error) {
	if err := f.checkUsable(op, nil); err != nil {
		return nil, err
	}
	return f.schema.Resolve(group, field)
}

func conversionErr(op string, fd *FieldDesc, err error) error {
	var te *typeError
	if errors.As(err, &te) {
		return fieldErrf(op, fd, ErrInvalidArgument, err, "")
	}
	return fieldErrf(op, fd, ErrTypeConversionOverflow, err, "")
}

// Field is implemented by the typed field handles.
type Field interface {
	Desc() *FieldDesc
}

// Has reports whether fld was written, possibly as an empty array.
func Has[F Field](f *File, fld F) (bool, error) {
	return f.has(fld.Desc())
}

// Scalars

func WriteInt(f *File, fld IntField, v int64) error {
	return f.write(fld.d, &value{Kind: KindInt, Ints: []int64{v}})
}

func ReadInt(f *File, fld IntField) (int64, error) {
	v, err := f.load("read", fld.d)
	if err != nil {
		return 0, err
	}
	return v.Ints[0], nil
}

func WriteFloat(f *File, fld FloatField, v float64) error {
	return f.write(fld.d, &value{Kind: KindFloat, Floats: []float64{v}})
}

func ReadFloat(f *File, fld FloatField) (float64, error) {
	v, err := f.load("read", fld.d)
	if err != nil {
		return 0, err
	}
	return v.Floats[0], nil
}

func WriteString(f *File, fld StringField, s string) error {
	return f.write(fld.d, &value{Kind: KindString, Strs: []string{s}})
}

func ReadString(f *File, fld StringField) (string, error) {
	v, err := f.load("read", fld.d)
	if err != nil {
		return "", err
	}
	return v.Strs[0], nil
}

// ReadStringN is the bounded form of ReadString: a stored string longer than
// maxLen bytes fails with ErrDimensionMismatch instead of being truncated.
func ReadStringN(f *File, fld StringField, maxLen int) (string, error) {
	s, err := ReadString(f, fld)
	if err != nil {
		return "", err
	}
	if len(s) > maxLen {
		return "", fieldErrf("read", fld.d, ErrDimensionMismatch, nil, "stored %d bytes, buffer holds %d", len(s), maxLen)
	}
	return s, nil
}

// Arrays

func WriteIntArray[T Integer](f *File, fld IntArrayField, data []T) error {
	ints, err := canonInts(data)
	if err != nil {
		return conversionErr("write", fld.d, err)
	}
	return f.write(fld.d, &value{Kind: KindInt, Ints: ints})
}

// ReadIntArray reads exactly dim elements as T. Any other dim fails with
// ErrDimensionMismatch; values that do not fit T fail with
// ErrTypeConversionOverflow.
func ReadIntArray[T ReadableInt](f *File, fld IntArrayField, dim int) ([]T, error) {
	v, err := f.readArray(fld.d, dim, true)
	if err != nil {
		return nil, err
	}
	out, err := narrowInts[T](v.Ints)
	if err != nil {
		return nil, conversionErr("read", fld.d, err)
	}
	return out, nil
}

// ReadIntArrayAll reads every stored element in canonical form.
func ReadIntArrayAll(f *File, fld IntArrayField) ([]int64, error) {
	v, err := f.readArray(fld.d, 0, false)
	if err != nil {
		return nil, err
	}
	return cloneNonNil(v.Ints), nil
}

// WriteFloatArray accepts any numeric element type. Integers must be exactly
// representable as float64.
func WriteFloatArray[T Number](f *File, fld FloatArrayField, data []T) error {
	floats, err := canonFloats(data)
	if err != nil {
		return conversionErr("write", fld.d, err)
	}
	return f.write(fld.d, &value{Kind: KindFloat, Floats: floats})
}

func ReadFloatArray[T ReadableFloat](f *File, fld FloatArrayField, dim int) ([]T, error) {
	v, err := f.readArray(fld.d, dim, true)
	if err != nil {
		return nil, err
	}
	out, err := narrowFloats[T](v.Floats)
	if err != nil {
		return nil, conversionErr("read", fld.d, err)
	}
	return out, nil
}

func ReadFloatArrayAll(f *File, fld FloatArrayField) ([]float64, error) {
	v, err := f.readArray(fld.d, 0, false)
	if err != nil {
		return nil, err
	}
	return cloneNonNil(v.Floats), nil
}

func WriteStringArray(f *File, fld StringArrayField, data []string) error {
	return f.write(fld.d, &value{Kind: KindString, Strs: cloneNonNil(data)})
}

func ReadStringArray(f *File, fld StringArrayField, dim int) ([]string, error) {
	v, err := f.readArray(fld.d, dim, true)
	if err != nil {
		return nil, err
	}
	return cloneNonNil(v.Strs), nil
}

func ReadStringArrayAll(f *File, fld StringArrayField) ([]string, error) {
	v, err := f.readArray(fld.d, 0, false)
	if err != nil {
		return nil, err
	}
	return cloneNonNil(v.Strs), nil
}

// StoredDims returns the shape an array field was written with.
func StoredDims[F Field](f *File, fld F) ([]uint64, error) {
	fd := fld.Desc()
	v, err := f.load("read", fd)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.Dims), nil
}

// Dynamic access by name, for callers that do not link against the typed
// field handles.

// WriteArray stores a slice into group.field. Integer fields accept any Go
// integer slice, float fields any numeric slice, string fields []string.
func (f *File) WriteArray(group, field string, data any) error {
	fd, err := f.resolve("write", group, field)
	if err != nil {
		return err
	}
	v := &value{Kind: fd.kind.elem()}
	switch fd.kind {
	case KindIntArray:
		v.Ints, err = anyInts(data)
	case KindFloatArray:
		v.Floats, err = anyFloats(data)
	case KindStringArray:
		strs, ok := data.([]string)
		if !ok {
			err = &typeError{data, fd.kind}
		}
		v.Strs = cloneNonNil(strs)
	default:
		return fieldErrf("write", fd, ErrInvalidArgument, nil, "%v is not an array field", fd.kind)
	}
	if err != nil {
		return conversionErr("write", fd, err)
	}
	return f.write(fd, v)
}

// ReadArray reads exactly dim elements of group.field as dtype. The legal
// conversions are int64 to int16, int32 or int64; float64 to float32 or
// float64; string to string.
func (f *File) ReadArray(group, field string, dim int, dtype DType) (Array, error) {
	fd, err := f.resolve("read", group, field)
	if err != nil {
		return Array{}, err
	}
	if !fd.kind.IsArray() {
		return Array{}, fieldErrf("read", fd, ErrInvalidArgument, nil, "%v is not an array field", fd.kind)
	}
	if !readable(fd.kind, dtype) {
		return Array{}, fieldErrf("read", fd, ErrInvalidArgument, nil, "cannot read %v as %v", fd.kind, dtype)
	}
	v, err := f.readArray(fd, dim, true)
	if err != nil {
		return Array{}, err
	}
	a, err := toArray(v, dtype)
	if err != nil {
		return Array{}, conversionErr("read", fd, err)
	}
	return a, nil
}

// ReadArrayAll reads every stored element of group.field in its canonical
// dtype (int64, float64 or string).
func (f *File) ReadArrayAll(group, field string) (Array, error) {
	fd, err := f.resolve("read", group, field)
	if err != nil {
		return Array{}, err
	}
	if !fd.kind.IsArray() {
		return Array{}, fieldErrf("read", fd, ErrInvalidArgument, nil, "%v is not an array field", fd.kind)
	}
	v, err := f.readArray(fd, 0, false)
	if err != nil {
		return Array{}, err
	}
	return toArray(v, canonicalDType(fd.kind))
}

// Has reports whether group.field was written.
func (f *File) Has(group, field string) (bool, error) {
	fd, err := f.resolve("has", group, field)
	if err != nil {
		return false, err
	}
	return f.has(fd)
}
