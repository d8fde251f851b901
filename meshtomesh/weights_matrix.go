package meshtomesh

import (
	"errors"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// ErrParallelMatrix is returned when a matrix product would need remote
// columns
var ErrParallelMatrix = errors.New("weight matrix products need a single processor run")

func weightsMatrix(addr [][]int, wght [][]float64, nCols int) *sparse.CSR {
	dok := sparse.NewDOK(len(addr), nCols)
	for i, row := range addr {
		for j, col := range row {
			dok.Set(i, col, wght[i][j])
		}
	}
	return dok.ToCSR()
}

// SrcToTgtWeights returns the source to target table as a sparse matrix
// with a row per local source cell and a column per global target cell
func (e *MeshToMesh) SrcToTgtWeights() *sparse.CSR {
	return weightsMatrix(e.srcToTgtCellAddr, e.srcToTgtCellWght, e.tgtGI.Size())
}

// TgtToSrcWeights returns the target to source table as a sparse matrix
// with a row per local target cell and a column per global source cell
func (e *MeshToMesh) TgtToSrcWeights() *sparse.CSR {
	return weightsMatrix(e.tgtToSrcCellAddr, e.tgtToSrcCellWght, e.srcGI.Size())
}

// MapSrcToTgtScalar maps a scalar source field with the target to source
// weight matrix. Target cells without overlap get zero.
func (e *MeshToMesh) MapSrcToTgtScalar(fld []float64) (result []float64, err error) {
	if e.comm.Parallel() {
		return nil, ErrParallelMatrix
	}
	if len(fld) != e.src.NumElements {
		return nil, errors.New("source field length does not match the source mesh")
	}
	result = make([]float64, e.tgt.NumElements)
	if len(result) == 0 || len(fld) == 0 {
		return
	}
	var r mat.VecDense
	r.MulVec(e.TgtToSrcWeights(), mat.NewVecDense(len(fld), fld))
	copy(result, r.RawVector().Data)
	return
}
