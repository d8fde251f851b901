package meshtomesh

import (
	"fmt"

	"github.com/notargets/meshmap/mesh"
	"github.com/notargets/meshmap/parallel"
	"gonum.org/v1/gonum/spatial/r3"
)

// cellFragment is the part of a processor's target mesh shipped to another
// processor. Vertex and cell indices are local to the fragment, cell ids and
// neighbour ids are global.
type cellFragment struct {
	DonorProc  int
	Points     []r3.Vec
	Cells      [][]int
	CellTypes  []mesh.ElementType
	CellIDs    []int
	FaceNbrIDs [][]int // Global id across each cell face, -1 on physical boundaries
}

// mergedMesh is the target mesh assembled from received fragments
type mergedMesh struct {
	*mesh.Mesh
	CellIDs   []int // Global id of every merged cell
	DonorProc []int // Processor owning every merged cell
}

// globalFaceNeighbours returns the global id of the cell across every face
// of every local cell, using the halo for processor boundaries
func globalFaceNeighbours(c *parallel.Comm, m *mesh.Mesh, gi *parallel.GlobalIndex) (nbrs [][]int, err error) {
	nbrs = make([][]int, m.NumElements)
	for k := 0; k < m.NumElements; k++ {
		nbrs[k] = make([]int, len(m.EToE[k]))
		for f, nbr := range m.EToE[k] {
			if nbr < 0 {
				nbrs[k][f] = -1
			} else {
				nbrs[k][f] = gi.ToGlobal(c.Rank(), nbr)
			}
		}
	}
	for _, h := range m.Halo {
		switch {
		case h.Element < 0 || h.Element >= m.NumElements ||
			h.LocalFace < 0 || h.LocalFace >= len(nbrs[h.Element]):
			return nil, fmt.Errorf("halo face %d of element %d does not exist", h.LocalFace, h.Element)
		case h.NbrCellID < 0 || h.NbrCellID >= gi.Size():
			return nil, fmt.Errorf("halo neighbour %d of element %d outside global range [0,%d)",
				h.NbrCellID, h.Element, gi.Size())
		case gi.WhichProc(h.NbrCellID) != h.NbrProc || h.NbrProc == c.Rank():
			return nil, fmt.Errorf("halo neighbour %d of element %d is not held by processor %d",
				h.NbrCellID, h.Element, h.NbrProc)
		}
		nbrs[h.Element][h.LocalFace] = h.NbrCellID
	}
	return
}

// distributeCells ships target cells following the plan and merges what is
// received into one locally addressable mesh
func distributeCells(c *parallel.Comm, tgt *mesh.Mesh, tgtGI *parallel.GlobalIndex,
	plan *distributionPlan) (merged *mergedMesh, err error) {
	nbrs, err := globalFaceNeighbours(c, tgt, tgtGI)
	if err != nil {
		return nil, distributionError("distribute", c.Rank(), err)
	}
	send := make([]cellFragment, c.NP())
	for p, cells := range plan.Map.SendMap {
		send[p] = newCellFragment(c.Rank(), tgt, tgtGI, nbrs, cells)
	}
	recv, err := parallel.AllToAll(c, send)
	if err != nil {
		return nil, distributionError("distribute", c.Rank(), err)
	}
	for p, frag := range recv {
		if len(frag.CellIDs) != len(plan.Map.ConstructMap[p]) {
			return nil, distributionError("distribute", c.Rank(), fmt.Errorf(
				"received %d cells from processor %d, plan expects %d",
				len(frag.CellIDs), p, len(plan.Map.ConstructMap[p])))
		}
	}
	if merged, err = mergeFragments(recv); err != nil {
		return nil, distributionError("merge", c.Rank(), err)
	}
	return
}

func newCellFragment(rank int, m *mesh.Mesh, gi *parallel.GlobalIndex, nbrs [][]int, cells []int) (frag cellFragment) {
	frag = cellFragment{
		DonorProc:  rank,
		Cells:      make([][]int, len(cells)),
		CellTypes:  make([]mesh.ElementType, len(cells)),
		CellIDs:    make([]int, len(cells)),
		FaceNbrIDs: make([][]int, len(cells)),
	}
	vertMap := make(map[int]int)
	for i, k := range cells {
		el := make([]int, len(m.Elements[k]))
		for n, v := range m.Elements[k] {
			lv, ok := vertMap[v]
			if !ok {
				lv = len(frag.Points)
				vertMap[v] = lv
				frag.Points = append(frag.Points, m.Vertices[v])
			}
			el[n] = lv
		}
		frag.Cells[i] = el
		frag.CellTypes[i] = m.ElementTypes[k]
		frag.CellIDs[i] = gi.ToGlobal(rank, k)
		frag.FaceNbrIDs[i] = append([]int(nil), nbrs[k]...)
	}
	return
}

// mergeFragments concatenates fragments in processor order. Cell neighbours
// come from the shipped global ids, so cells from different donors are
// connected across the processor boundaries they shared.
func mergeFragments(frags []cellFragment) (mm *mergedMesh, err error) {
	var (
		vertices  []r3.Vec
		elements  [][]int
		types     []mesh.ElementType
		cellIDs   []int
		donors    []int
		faceNbrs  [][]int
		globalToL = make(map[int]int)
	)
	for _, frag := range frags {
		if len(frag.Cells) != len(frag.CellIDs) || len(frag.CellTypes) != len(frag.CellIDs) ||
			len(frag.FaceNbrIDs) != len(frag.CellIDs) {
			return nil, fmt.Errorf("fragment from processor %d has inconsistent cell lists", frag.DonorProc)
		}
		offset := len(vertices)
		vertices = append(vertices, frag.Points...)
		for i, cell := range frag.Cells {
			id := frag.CellIDs[i]
			if _, dup := globalToL[id]; dup {
				return nil, fmt.Errorf("cell %d received twice", id)
			}
			globalToL[id] = len(elements)
			el := make([]int, len(cell))
			for n, v := range cell {
				if v < 0 || v >= len(frag.Points) {
					return nil, fmt.Errorf("cell %d from processor %d references missing point %d",
						id, frag.DonorProc, v)
				}
				el[n] = v + offset
			}
			elements = append(elements, el)
			types = append(types, frag.CellTypes[i])
			cellIDs = append(cellIDs, id)
			donors = append(donors, frag.DonorProc)
			faceNbrs = append(faceNbrs, frag.FaceNbrIDs[i])
		}
	}
	m, err := mesh.NewMeshFromElements(vertices, elements, types)
	if err != nil {
		return nil, err
	}
	for i := range elements {
		if len(faceNbrs[i]) != len(m.EToE[i]) {
			return nil, fmt.Errorf("cell %d has %d faces but %d neighbour ids",
				cellIDs[i], len(m.EToE[i]), len(faceNbrs[i]))
		}
		for f, g := range faceNbrs[i] {
			m.EToE[i][f] = -1
			if g < 0 {
				continue
			}
			j, ok := globalToL[g]
			if !ok {
				continue
			}
			if !contains(faceNbrs[j], cellIDs[i]) {
				return nil, fmt.Errorf("cell %d lists %d as a neighbour but not the reverse", cellIDs[i], g)
			}
			m.EToE[i][f] = j
		}
	}
	mm = &mergedMesh{Mesh: m, CellIDs: cellIDs, DonorProc: donors}
	return
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
