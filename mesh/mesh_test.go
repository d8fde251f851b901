package mesh

import (
	"testing"

	"github.com/notargets/meshmap/geometry3D"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var unitBox = r3.Vec{X: 1, Y: 1, Z: 1}

func checkSymmetricConnectivity(t *testing.T, m *Mesh) {
	t.Helper()
	for k := 0; k < m.NumElements; k++ {
		for _, nbr := range m.EToE[k] {
			if nbr < 0 {
				continue
			}
			assert.Contains(t, m.EToE[nbr], k, "element %d lists %d as neighbour but not the reverse", k, nbr)
		}
	}
}

func TestNewBoxMesh_Hex(t *testing.T) {
	m, err := NewBoxMesh(r3.Vec{}, unitBox, 2, 2, 2, Hex)
	require.NoError(t, err)
	assert.Equal(t, 8, m.NumElements)
	assert.Equal(t, 27, m.NumVertices)
	assert.Equal(t, 36, m.NumFaces)
	assert.Equal(t, 24, m.NumBoundaryFaces())
	assert.InDelta(t, 1., m.TotalVolume(), 1e-13)
	for k := 0; k < m.NumElements; k++ {
		assert.InDelta(t, 0.125, m.Volumes[k], 1e-14)
		assert.Len(t, m.CellCells(k), 3)
	}
	c := m.Centroids[7]
	assert.InDelta(t, 0.75, c.X, 1e-14)
	assert.InDelta(t, 0.75, c.Y, 1e-14)
	assert.InDelta(t, 0.75, c.Z, 1e-14)
	checkSymmetricConnectivity(t, m)

	bb := m.Bounds()
	assert.Equal(t, r3.Vec{}, bb.Min)
	assert.Equal(t, unitBox, bb.Max)
}

func TestNewBoxMesh_SplitElements(t *testing.T) {
	{ // Six tets per hex
		m, err := NewBoxMesh(r3.Vec{}, unitBox, 1, 1, 1, Tet)
		require.NoError(t, err)
		assert.Equal(t, 6, m.NumElements)
		assert.Equal(t, 12, m.NumBoundaryFaces())
		assert.Equal(t, 18, m.NumFaces)
		for k := 0; k < m.NumElements; k++ {
			assert.InDelta(t, 1./6., m.Volumes[k], 1e-14)
		}
		checkSymmetricConnectivity(t, m)
	}
	{ // Split hexes stay conforming across cells
		m, err := NewBoxMesh(r3.Vec{X: -1}, r3.Vec{X: 2, Y: 1, Z: 1}, 3, 2, 2, Tet)
		require.NoError(t, err)
		assert.Equal(t, 72, m.NumElements)
		// Each boundary quad is split into two triangles
		assert.Equal(t, 2*2*(3*2+3*2+2*2), m.NumBoundaryFaces())
		assert.InDelta(t, 2., m.TotalVolume(), 1e-13)
		checkSymmetricConnectivity(t, m)
	}
	{ // Two prisms per hex
		m, err := NewBoxMesh(r3.Vec{}, unitBox, 2, 1, 1, Prism)
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumElements)
		assert.InDelta(t, 1., m.TotalVolume(), 1e-13)
		for k := 0; k < m.NumElements; k++ {
			assert.InDelta(t, 0.25, m.Volumes[k], 1e-14)
		}
		// Interior faces are the two hex diagonals and the quad at x = 0.5
		assert.Equal(t, 4*5-2*3, m.NumBoundaryFaces())
		checkSymmetricConnectivity(t, m)
	}
	{
		_, err := NewBoxMesh(r3.Vec{}, unitBox, 0, 1, 1, Hex)
		assert.Error(t, err)
		_, err = NewBoxMesh(r3.Vec{}, unitBox, 1, 1, 1, Pyramid)
		assert.Error(t, err)
	}
}

func TestNewMeshFromElements_Validation(t *testing.T) {
	verts := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}
	_, err := NewMeshFromElements(verts, [][]int{{0, 1, 2}}, []ElementType{Tet})
	assert.Error(t, err)
	_, err = NewMeshFromElements(verts, [][]int{{0, 1, 2, 4}}, []ElementType{Tet})
	assert.Error(t, err)
	_, err = NewMeshFromElements(verts, [][]int{{0, 1, 2, 3}}, nil)
	assert.Error(t, err)

	// Inverted vertex order is handled by flipping the cell
	m, err := NewMeshFromElements(verts, [][]int{{0, 2, 1, 3}}, []ElementType{Tet})
	require.NoError(t, err)
	assert.InDelta(t, 1./6., m.Volumes[0], 1e-15)
	assert.True(t, m.PointInCell(r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}, 0, 1e-10))

	empty, err := NewMeshFromElements(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.Bounds().IsEmpty())
	assert.Equal(t, -1, empty.FindCell(r3.Vec{}))
}

func TestMesh_FindCell(t *testing.T) {
	m, err := NewBoxMesh(r3.Vec{}, unitBox, 4, 4, 4, Hex)
	require.NoError(t, err)
	assert.Equal(t, 1+4*(2+4*3), m.FindCell(r3.Vec{X: 0.3, Y: 0.6, Z: 0.9}))
	assert.Equal(t, 0, m.FindCell(r3.Vec{X: 0.01, Y: 0.01, Z: 0.01}))
	assert.Equal(t, -1, m.FindCell(r3.Vec{X: 1.5, Y: 0.5, Z: 0.5}))
	// A point on a shared face belongs to one of the two cells
	cellI := m.FindCell(r3.Vec{X: 0.5, Y: 0.1, Z: 0.1})
	assert.Contains(t, []int{1, 2}, cellI)

	tets, err := NewBoxMesh(r3.Vec{}, unitBox, 3, 3, 3, Tet)
	require.NoError(t, err)
	for k := 0; k < tets.NumElements; k++ {
		assert.Equal(t, k, tets.FindCell(tets.Centroids[k]))
	}
}

func TestCellLocator_CellsInBox(t *testing.T) {
	m, err := NewBoxMesh(r3.Vec{}, unitBox, 4, 4, 4, Hex)
	require.NoError(t, err)
	lower := geometry3D.NewBoundBox(r3.Vec{}, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	assert.Equal(t, []int{0, 1, 4, 5, 16, 17, 20, 21}, m.Locator().CellsInBox(lower))
	// A box between cell centres holds none
	gap := geometry3D.NewBoundBox(r3.Vec{X: 0.2, Y: 0.2, Z: 0.2}, r3.Vec{X: 0.3, Y: 0.3, Z: 0.3})
	assert.Empty(t, m.Locator().CellsInBox(gap))
	assert.Empty(t, m.Locator().CellsInBox(geometry3D.EmptyBoundBox()))
}

func TestMesh_IntersectionVolume(t *testing.T) {
	a, err := NewBoxMesh(r3.Vec{}, unitBox, 2, 2, 2, Hex)
	require.NoError(t, err)
	b, err := NewBoxMesh(r3.Vec{X: 0.25}, unitBox, 2, 2, 2, Hex)
	require.NoError(t, err)
	assert.InDelta(t, 0.25*0.5*0.5, a.IntersectionVolume(0, b, 0), 1e-14)
	assert.InDelta(t, 0.25*0.5*0.5, a.IntersectionVolume(1, b, 0), 1e-14)
	assert.Equal(t, 0., a.IntersectionVolume(0, b, 7))
}

func TestDecompose(t *testing.T) {
	m, err := NewBoxMesh(r3.Vec{}, unitBox, 4, 2, 2, Hex)
	require.NoError(t, err)
	eToP := make([]int, m.NumElements)
	for k := range eToP {
		if m.Centroids[k].X > 0.5 {
			eToP[k] = 1
		}
	}
	d, err := Decompose(m, eToP, 3)
	require.NoError(t, err)
	require.Len(t, d.Meshes, 3)
	assert.Equal(t, []int{0, 8, 16, 16}, d.Offsets)
	assert.Equal(t, 0, d.Meshes[2].NumElements)

	var vol float64
	for p, sub := range d.Meshes {
		vol += sub.TotalVolume()
		for j := 0; j < sub.NumElements; j++ {
			orig := d.CellAddressing[p][j]
			assert.InDelta(t, m.Volumes[orig], sub.Volumes[j], 1e-15)
			assert.Equal(t, m.Centroids[orig], sub.Centroids[j])
		}
	}
	assert.InDelta(t, 1., vol, 1e-13)

	// Each side of x = 0.5 has a 2x2 layer of halo faces
	require.Len(t, d.Meshes[0].Halo, 4)
	require.Len(t, d.Meshes[1].Halo, 4)
	for p, sub := range d.Meshes[:2] {
		for _, h := range sub.Halo {
			assert.Equal(t, 1-p, h.NbrProc)
			assert.Equal(t, -1, sub.EToE[h.Element][h.LocalFace])
			nbrLocal := h.NbrCellID - d.Offsets[h.NbrProc]
			nbrOrig := d.CellAddressing[h.NbrProc][nbrLocal]
			assert.Contains(t, m.EToE[d.CellAddressing[p][h.Element]], nbrOrig)
		}
	}

	_, err = Decompose(m, eToP[1:], 2)
	assert.Error(t, err)
	eToP[0] = 5
	_, err = Decompose(m, eToP, 2)
	assert.Error(t, err)
}

func TestMesh_PrintStatistics(t *testing.T) {
	m, err := NewBoxMesh(r3.Vec{}, unitBox, 1, 1, 1, Hex)
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	m.PrintStatistics(logger)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, hook.LastEntry().Data["elements"])
	assert.Equal(t, 6, hook.LastEntry().Data["boundaryFaces"])
}
