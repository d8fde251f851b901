package mesh

import (
	"math"

	"github.com/notargets/meshmap/geometry3D"
	"gonum.org/v1/gonum/spatial/r3"
)

// CalcGeometry computes cell volumes, centroids and bounding boxes. Cells
// whose vertex ordering gives a negative volume are flipped so every cell is
// handled with outward facing faces.
func (m *Mesh) CalcGeometry() {
	m.Volumes = make([]float64, m.NumElements)
	m.Centroids = make([]r3.Vec, m.NumElements)
	m.CellBounds = make([]geometry3D.BoundBox, m.NumElements)
	for k := 0; k < m.NumElements; k++ {
		p := m.CellPolyhedron(k)
		m.Volumes[k] = p.Volume()
		m.Centroids[k] = p.Centroid()
		m.CellBounds[k] = p.Bounds()
	}
}

// CellPolyhedron returns the cell as a convex polyhedron with outward faces
func (m *Mesh) CellPolyhedron(cellI int) geometry3D.Polyhedron {
	p := geometry3D.NewPolyhedron(m.Vertices,
		GetElementFaces(m.ElementTypes[cellI], m.Elements[cellI]))
	if p.Volume() < 0 {
		return p.Reversed()
	}
	return p
}

// Bounds returns the bounding box of all cells, empty for a mesh without cells
func (m *Mesh) Bounds() (bb geometry3D.BoundBox) {
	bb = geometry3D.EmptyBoundBox()
	for _, cb := range m.CellBounds {
		bb = bb.Union(cb)
	}
	return
}

// TotalVolume sums the cell volumes
func (m *Mesh) TotalVolume() (vol float64) {
	for _, v := range m.Volumes {
		vol += v
	}
	return
}

// PointInCell tests pt against the face planes of the cell, tol is relative
// to the cell size
func (m *Mesh) PointInCell(pt r3.Vec, cellI int, tol float64) bool {
	bb := m.CellBounds[cellI]
	dist := tol * bb.Mag()
	if !bb.Inflate(math.Max(tol, 0)).Contains(pt) {
		return false
	}
	return m.CellPolyhedron(cellI).Contains(pt, dist)
}

// IntersectionVolume returns the volume shared by cell srcI of m and cell
// tgtI of other
func (m *Mesh) IntersectionVolume(srcI int, other *Mesh, tgtI int) float64 {
	if !m.CellBounds[srcI].Overlaps(other.CellBounds[tgtI]) {
		return 0
	}
	return geometry3D.IntersectionVolume(m.CellPolyhedron(srcI), other.CellPolyhedron(tgtI))
}
