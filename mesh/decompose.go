package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Decomposition holds one sub-mesh per processor. Cells are numbered
// globally by processor, the j-th cell of processor p having global id
// Offsets[p]+j.
type Decomposition struct {
	Meshes         []*Mesh
	CellAddressing [][]int // Sub-mesh cell to original cell
	Offsets        []int
}

// Decompose splits m into nProcs sub-meshes following the element to
// partition map eToP. A processor may receive no cells.
func Decompose(m *Mesh, eToP []int, nProcs int) (d *Decomposition, err error) {
	if len(eToP) != m.NumElements {
		return nil, fmt.Errorf("partition map has %d entries, mesh has %d elements",
			len(eToP), m.NumElements)
	}
	d = &Decomposition{
		Meshes:         make([]*Mesh, nProcs),
		CellAddressing: make([][]int, nProcs),
		Offsets:        make([]int, nProcs+1),
	}
	localID := make([]int, m.NumElements)
	for k, p := range eToP {
		if p < 0 || p >= nProcs {
			return nil, fmt.Errorf("element %d assigned to partition %d, have %d partitions",
				k, p, nProcs)
		}
		localID[k] = len(d.CellAddressing[p])
		d.CellAddressing[p] = append(d.CellAddressing[p], k)
	}
	for p := 0; p < nProcs; p++ {
		d.Offsets[p+1] = d.Offsets[p] + len(d.CellAddressing[p])
	}
	for p := 0; p < nProcs; p++ {
		var (
			cells    = d.CellAddressing[p]
			vertMap  = make(map[int]int)
			vertices []r3.Vec
			elements = make([][]int, len(cells))
			types    = make([]ElementType, len(cells))
		)
		for j, k := range cells {
			el := make([]int, len(m.Elements[k]))
			for n, v := range m.Elements[k] {
				lv, ok := vertMap[v]
				if !ok {
					lv = len(vertices)
					vertMap[v] = lv
					vertices = append(vertices, m.Vertices[v])
				}
				el[n] = lv
			}
			elements[j] = el
			types[j] = m.ElementTypes[k]
		}
		sub, err := NewMeshFromElements(vertices, elements, types)
		if err != nil {
			return nil, fmt.Errorf("building sub-mesh %d: %w", p, err)
		}
		sub.EToP = make([]int, len(cells))
		for j, k := range cells {
			sub.EToP[j] = p
			// Local face order follows the element vertex order, which is kept
			for f, nbr := range m.EToE[k] {
				if nbr < 0 || eToP[nbr] == p {
					continue
				}
				q := eToP[nbr]
				sub.Halo = append(sub.Halo, HaloFace{
					Element:   j,
					LocalFace: f,
					NbrProc:   q,
					NbrCellID: d.Offsets[q] + localID[nbr],
				})
			}
		}
		d.Meshes[p] = sub
	}
	return
}

// GlobalCellID converts a sub-mesh cell id to decomposition numbering
func (d *Decomposition) GlobalCellID(proc, cellI int) int {
	return d.Offsets[proc] + cellI
}
