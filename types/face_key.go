package types

import (
	"fmt"
	"math"
	"sort"
)

/*
FaceKey identifies a cell face independently of the order its vertices were listed in. The vertex
indices are stored in ascending order, unused slots (triangular faces) hold -1 after the used ones, so
the key is comparable and usable directly as a map key.
*/
type FaceKey [4]int

func NewFaceKey(verts []int) (fk FaceKey) {
	if len(verts) < 3 || len(verts) > 4 {
		panic(fmt.Errorf("unable to key a face with %d vertices, need 3 or 4", len(verts)))
	}
	for _, vert := range verts {
		if vert < 0 || vert > math.MaxInt32 {
			panic(fmt.Errorf("face vertex index %d out of range", vert))
		}
	}
	sorted := make([]int, len(verts))
	copy(sorted, verts)
	sort.Ints(sorted)
	for i := range fk {
		if i < len(sorted) {
			fk[i] = sorted[i]
		} else {
			fk[i] = -1
		}
	}
	return
}

func (fk FaceKey) NumVertices() (n int) {
	for _, v := range fk {
		if v >= 0 {
			n++
		}
	}
	return
}

// GetVertices returns the sorted vertex indices
func (fk FaceKey) GetVertices() (verts []int) {
	verts = make([]int, 0, 4)
	for _, v := range fk {
		if v >= 0 {
			verts = append(verts, v)
		}
	}
	return
}
