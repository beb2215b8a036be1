package trexio

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMatrix(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		path := containerPath(t, backend)
		writeBenzene(t, path, backend)
		f := setup(t, path, ModeAppend, backend)

		m := must(ReadMatrix(f, NucleusCoord))
		rows, cols := m.Dims()
		deepEqual(t, [2]int{rows, cols}, [2]int{12, 3})
		deepEqual(t, m.At(1, 0), -1.20594314)
		deepEqual(t, m.At(11, 1), 2.47304151)

		// shift every nucleus along x and store it back
		var shifted mat.Dense
		shifted.Apply(func(i, j int, v float64) float64 {
			if j == 0 {
				return v + 1
			}
			return v
		}, m)
		noErr(t, WriteMatrix(f, NucleusCoord, &shifted))
		coords := must(ReadFloatArray[float64](f, NucleusCoord, 36))
		deepEqual(t, coords[3], m.At(1, 0)+1)
		deepEqual(t, coords[4], 0.69625160)

		// transposed views are written in row-major order of the view
		noErr(t, WriteInt(f, AoNum, 2))
		noErr(t, WriteInt(f, MoNum, 3))
		src := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
		noErr(t, WriteMatrix(f, MoCoefficient, src.T()))
		deepEqual(t, must(ReadFloatArrayAll(f, MoCoefficient)), []float64{1, 3, 5, 2, 4, 6})

		isErr(t, WriteMatrix(f, MoCoefficient, src), ErrDimensionMismatch)
		isErr(t, WriteMatrix(f, NucleusCharge, src), ErrInvalidArgument)
		_, err := ReadMatrix(f, NucleusCharge)
		isErr(t, err, ErrInvalidArgument)
		noErr(t, WriteMatrix(f, Ao1eIntOverlap, mat.NewDense(2, 2, nil)))
	})
}

func TestMatrix_MissingAndEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		f := setup(t, containerPath(t, backend), ModeWrite, backend)

		_, err := ReadMatrix(f, RdmOneE)
		isErr(t, err, ErrFieldNotFound)
		isErr(t, WriteMatrix(f, RdmOneE, mat.NewDense(1, 1, nil)), ErrFieldNotFound)

		noErr(t, WriteInt(f, MoNum, 0))
		noErr(t, WriteFloatArray(f, RdmOneE, []float64{}))
		_, err = ReadMatrix(f, RdmOneE)
		isErr(t, err, ErrInvalidArgument)
	})
}
