package trexio

import (
	"gonum.org/v1/gonum/mat"
)

func checkMatrixField(op string, fd *FieldDesc) error {
	if fd == nil {
		return unboundFieldErr(op)
	}
	if fd.Rank() != 2 {
		return fieldErrf(op, fd, ErrInvalidArgument, nil, "rank %d field is not a matrix", fd.Rank())
	}
	return nil
}

// ReadMatrix reads a rank-2 float field into a row-major dense matrix, e.g.
// NucleusCoord as a num×3 matrix.
func ReadMatrix(f *File, fld FloatArrayField) (*mat.Dense, error) {
	if err := checkMatrixField("read", fld.d); err != nil {
		return nil, err
	}
	v, err := f.readArray(fld.d, 0, false)
	if err != nil {
		return nil, err
	}
	rows, cols := int(v.Dims[0]), int(v.Dims[1])
	if rows == 0 || cols == 0 {
		// gonum does not allow empty matrices
		return nil, fieldErrf("read", fld.d, ErrInvalidArgument, nil, "stored shape %v is empty", v.Dims)
	}
	return mat.NewDense(rows, cols, cloneNonNil(v.Floats)), nil
}

// WriteMatrix stores m into a rank-2 float field. The matrix must match the
// shape given by the governing dimensions.
func WriteMatrix(f *File, fld FloatArrayField, m mat.Matrix) error {
	const op = "write"
	if err := checkMatrixField(op, fld.d); err != nil {
		return err
	}
	if err := f.checkField(op, fld.d); err != nil {
		return err
	}
	dims, err := f.resolveDims(op, fld.d)
	if err != nil {
		return err
	}
	rows, cols := m.Dims()
	if uint64(rows) != dims[0] || uint64(cols) != dims[1] {
		return fieldErrf(op, fld.d, ErrDimensionMismatch, nil, "matrix is %d×%d, field shape is %v", rows, cols, dims)
	}

	data := make([]float64, 0, rows*cols)
	for i := range rows {
		for j := range cols {
			data = append(data, m.At(i, j))
		}
	}
	return f.write(fld.d, &value{Kind: KindFloat, Floats: data})
}
