package mesh

import (
	"sort"

	"github.com/notargets/meshmap/geometry3D"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// pointInCellTol is the relative tolerance used when locating points
const pointInCellTol = 1e-10

// nearestCandidates is the number of closest cell centres tested before
// falling back to a bounding box scan
const nearestCandidates = 8

// cellPoint is a cell centre stored in the kd-tree
type cellPoint struct {
	X    r3.Vec
	Cell int
}

func coord(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func (p cellPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(cellPoint)
	return coord(p.X, d) - coord(q.X, d)
}

func (p cellPoint) Dims() int { return 3 }

func (p cellPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(cellPoint)
	return r3.Norm2(r3.Sub(p.X, q.X))
}

type cellPoints []cellPoint

func (p cellPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p cellPoints) Len() int                      { return len(p) }
func (p cellPoints) Pivot(d kdtree.Dim) int {
	return cellPlane{cellPoints: p, Dim: d}.Pivot()
}
func (p cellPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// cellPlane sorts cell points along one dimension
type cellPlane struct {
	kdtree.Dim
	cellPoints
}

func (p cellPlane) Less(i, j int) bool {
	return coord(p.cellPoints[i].X, p.Dim) < coord(p.cellPoints[j].X, p.Dim)
}
func (p cellPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p cellPlane) Slice(start, end int) kdtree.SortSlicer {
	p.cellPoints = p.cellPoints[start:end]
	return p
}
func (p cellPlane) Swap(i, j int) {
	p.cellPoints[i], p.cellPoints[j] = p.cellPoints[j], p.cellPoints[i]
}

// CellLocator finds the cell containing a point using a kd-tree of cell
// centres
type CellLocator struct {
	m    *Mesh
	tree *kdtree.Tree
}

func NewCellLocator(m *Mesh) (cl *CellLocator) {
	cl = &CellLocator{m: m}
	if m.NumElements == 0 {
		return
	}
	pts := make(cellPoints, m.NumElements)
	for k := range pts {
		pts[k] = cellPoint{X: m.Centroids[k], Cell: k}
	}
	cl.tree = kdtree.New(pts, false)
	return
}

// FindCell returns the cell containing pt, or -1 when no cell does
func (cl *CellLocator) FindCell(pt r3.Vec) int {
	if cl.tree == nil {
		return -1
	}
	keep := kdtree.NewNKeeper(nearestCandidates)
	cl.tree.NearestSet(keep, cellPoint{X: pt, Cell: -1})
	tested := make(map[int]bool, nearestCandidates)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		cellI := c.Comparable.(cellPoint).Cell
		tested[cellI] = true
		if cl.m.PointInCell(pt, cellI, pointInCellTol) {
			return cellI
		}
	}
	// Large or stretched cells can have their centre far from pt
	for cellI, bb := range cl.m.CellBounds {
		if tested[cellI] || !bb.Contains(pt) {
			continue
		}
		if cl.m.PointInCell(pt, cellI, pointInCellTol) {
			return cellI
		}
	}
	return -1
}

// CellsInBox returns the cells whose centre lies in bb, in index order
func (cl *CellLocator) CellsInBox(bb geometry3D.BoundBox) (cells []int) {
	if cl.tree == nil || bb.IsEmpty() {
		return nil
	}
	half := r3.Scale(0.5, bb.Span())
	keep := kdtree.NewDistKeeper(r3.Norm2(half) * (1 + pointInCellTol))
	cl.tree.NearestSet(keep, cellPoint{X: bb.Centre(), Cell: -1})
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		cp := c.Comparable.(cellPoint)
		if bb.Contains(cp.X) {
			cells = append(cells, cp.Cell)
		}
	}
	sort.Ints(cells)
	return
}

// Locator returns the mesh cell locator, building it on first use
func (m *Mesh) Locator() *CellLocator {
	m.locatorOnce.Do(func() {
		m.locator = NewCellLocator(m)
	})
	return m.locator
}

// FindCell returns the cell containing pt, or -1
func (m *Mesh) FindCell(pt r3.Vec) int {
	return m.Locator().FindCell(pt)
}
