package meshtomesh

import (
	"fmt"

	"github.com/notargets/meshmap/parallel"
	"gonum.org/v1/gonum/spatial/r3"
)

// CombineOp folds one weighted contribution into a result cell
type CombineOp[T any] func(result *T, value T, weight float64)

// Number is a floating point cell value
type Number interface {
	~float32 | ~float64
}

// PlusEqOp accumulates weight*value
func PlusEqOp[T Number]() CombineOp[T] {
	return func(result *T, value T, weight float64) {
		*result += T(weight) * value
	}
}

// PlusEqVec accumulates weight*value for vector fields
func PlusEqVec(result *r3.Vec, value r3.Vec, weight float64) {
	*result = r3.Add(*result, r3.Scale(weight, value))
}

func mapField[T any](c *parallel.Comm, gm *parallel.GlobalMap, work [][]int, wght [][]float64,
	fld []T, cop CombineOp[T], result []T) (err error) {
	var values []T
	if values, err = parallel.Distribute(c, gm, fld); err != nil {
		return
	}
	for cellI, row := range work {
		for j, k := range row {
			cop(&result[cellI], values[k], wght[cellI][j])
		}
	}
	return
}

// MapSrcToTgt combines the source field fld into result on the target cells.
// Target cells without overlap keep their value. Collective in parallel
// runs.
func MapSrcToTgt[T any](e *MeshToMesh, fld []T, cop CombineOp[T], result []T) error {
	if len(fld) != e.src.NumElements {
		return fmt.Errorf("source field has %d values, mesh has %d cells", len(fld), e.src.NumElements)
	}
	if len(result) != e.tgt.NumElements {
		return fmt.Errorf("target field has %d values, mesh has %d cells", len(result), e.tgt.NumElements)
	}
	return mapField(e.comm, e.srcMap, e.tgtToSrcWork, e.tgtToSrcCellWght, fld, cop, result)
}

// MapTgtToSrc combines the target field fld into result on the source cells
func MapTgtToSrc[T any](e *MeshToMesh, fld []T, cop CombineOp[T], result []T) error {
	if len(fld) != e.tgt.NumElements {
		return fmt.Errorf("target field has %d values, mesh has %d cells", len(fld), e.tgt.NumElements)
	}
	if len(result) != e.src.NumElements {
		return fmt.Errorf("source field has %d values, mesh has %d cells", len(result), e.src.NumElements)
	}
	return mapField(e.comm, e.tgtMap, e.srcToTgtWork, e.srcToTgtCellWght, fld, cop, result)
}

// MapSrcToTgtNew maps into a zero valued target field
func MapSrcToTgtNew[T any](e *MeshToMesh, fld []T, cop CombineOp[T]) (result []T, err error) {
	result = make([]T, e.tgt.NumElements)
	if err = MapSrcToTgt(e, fld, cop, result); err != nil {
		return nil, err
	}
	return
}

// MapTgtToSrcNew maps into a zero valued source field
func MapTgtToSrcNew[T any](e *MeshToMesh, fld []T, cop CombineOp[T]) (result []T, err error) {
	result = make([]T, e.src.NumElements)
	if err = MapTgtToSrc(e, fld, cop, result); err != nil {
		return nil, err
	}
	return
}

// MapSrcToTgtSum is MapSrcToTgtNew with weighted accumulation
func MapSrcToTgtSum[T Number](e *MeshToMesh, fld []T) ([]T, error) {
	return MapSrcToTgtNew(e, fld, PlusEqOp[T]())
}

// MapTgtToSrcSum is MapTgtToSrcNew with weighted accumulation
func MapTgtToSrcSum[T Number](e *MeshToMesh, fld []T) ([]T, error) {
	return MapTgtToSrcNew(e, fld, PlusEqOp[T]())
}

// BoundaryPatch holds the face values of one boundary patch together with
// the cell owning each face
type BoundaryPatch[T any] struct {
	Name      string
	FaceCells []int
	Values    []T
}

// VolField is a cell field with boundary patches
type VolField[T any] struct {
	Internal []T
	Patches  []BoundaryPatch[T]
}

// evaluatePatches sets patch values from their owner cells
func (f *VolField[T]) evaluatePatches() error {
	for pi := range f.Patches {
		p := &f.Patches[pi]
		if len(p.Values) != len(p.FaceCells) {
			return fmt.Errorf("patch %s has %d values for %d faces", p.Name, len(p.Values), len(p.FaceCells))
		}
		for i, cellI := range p.FaceCells {
			if cellI < 0 || cellI >= len(f.Internal) {
				return fmt.Errorf("patch %s face %d owner %d out of range", p.Name, i, cellI)
			}
			p.Values[i] = f.Internal[cellI]
		}
	}
	return nil
}

// InterpolateSrcToTgt maps the cell values of a source field onto result.
// With interpPatches the patch values of result are re-evaluated from their
// owner cells, otherwise they are left untouched.
func InterpolateSrcToTgt[T any](e *MeshToMesh, field *VolField[T], cop CombineOp[T], result *VolField[T],
	interpPatches bool) error {
	if err := MapSrcToTgt(e, field.Internal, cop, result.Internal); err != nil {
		return err
	}
	if interpPatches {
		return result.evaluatePatches()
	}
	return nil
}

// InterpolateTgtToSrc is the reverse of InterpolateSrcToTgt
func InterpolateTgtToSrc[T any](e *MeshToMesh, field *VolField[T], cop CombineOp[T], result *VolField[T],
	interpPatches bool) error {
	if err := MapTgtToSrc(e, field.Internal, cop, result.Internal); err != nil {
		return err
	}
	if interpPatches {
		return result.evaluatePatches()
	}
	return nil
}
