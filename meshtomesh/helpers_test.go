package meshtomesh

import (
	"testing"

	"github.com/notargets/meshmap/mesh"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var unitBox = r3.Vec{X: 1, Y: 1, Z: 1}

func boxMesh(t *testing.T, origin, size r3.Vec, n int, et mesh.ElementType) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewBoxMesh(origin, size, n, n, n, et)
	require.NoError(t, err)
	return m
}

func emptyMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewMeshFromElements(nil, nil, nil)
	require.NoError(t, err)
	return m
}

// joinMeshes puts the cells of several meshes into one mesh without
// connecting them
func joinMeshes(t *testing.T, meshes ...*mesh.Mesh) *mesh.Mesh {
	t.Helper()
	var (
		vertices []r3.Vec
		elements [][]int
		types    []mesh.ElementType
	)
	for _, m := range meshes {
		offset := len(vertices)
		vertices = append(vertices, m.Vertices...)
		for k, el := range m.Elements {
			shifted := make([]int, len(el))
			for n, v := range el {
				shifted[n] = v + offset
			}
			elements = append(elements, shifted)
			types = append(types, m.ElementTypes[k])
		}
	}
	m, err := mesh.NewMeshFromElements(vertices, elements, types)
	require.NoError(t, err)
	return m
}

// reversedMesh numbers the cells of m backwards
func reversedMesh(t *testing.T, m *mesh.Mesh) *mesh.Mesh {
	t.Helper()
	n := m.NumElements
	elements := make([][]int, n)
	types := make([]mesh.ElementType, n)
	for k := 0; k < n; k++ {
		elements[n-1-k] = m.Elements[k]
		types[n-1-k] = m.ElementTypes[k]
	}
	r, err := mesh.NewMeshFromElements(m.Vertices, elements, types)
	require.NoError(t, err)
	return r
}

func quietConfig() *Config {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := DefaultConfig()
	cfg.Logger = logger
	return cfg
}

func rowSums(wght [][]float64) (sums []float64) {
	sums = make([]float64, len(wght))
	for i, w := range wght {
		sums[i] = floats.Sum(w)
	}
	return
}

// checkTables verifies the invariants every serial result must satisfy
func checkTables(t *testing.T, e *MeshToMesh, src, tgt *mesh.Mesh) {
	t.Helper()
	tol := e.Tolerance()
	srcAddr, srcW := e.SrcToTgtCellAddr(), e.SrcToTgtCellWght()
	tgtAddr, tgtW := e.TgtToSrcCellAddr(), e.TgtToSrcCellWght()
	require.Len(t, srcAddr, src.NumElements)
	require.Len(t, tgtAddr, tgt.NumElements)
	for srcI, row := range srcAddr {
		require.Len(t, srcW[srcI], len(row))
		sum := floats.Sum(srcW[srcI])
		assert.LessOrEqual(t, sum, 1+tol)
		assert.GreaterOrEqual(t, sum, 0.)
		for j, tgtI := range row {
			if j > 0 {
				assert.Less(t, row[j-1], tgtI, "rows are sorted")
			}
			assert.True(t, src.CellBounds[srcI].Overlaps(tgt.CellBounds[tgtI]))
			assert.Greater(t, srcW[srcI][j], 0.)
			// The reverse pair carries the same overlap volume
			k := indexOf(tgtAddr[tgtI], srcI)
			if assert.GreaterOrEqual(t, k, 0, "pair %d -> %d has no reverse", srcI, tgtI) {
				assert.InDelta(t, srcW[srcI][j]*src.Volumes[srcI], tgtW[tgtI][k]*tgt.Volumes[tgtI], 1e-12)
			}
		}
	}
	for tgtI, row := range tgtAddr {
		assert.LessOrEqual(t, floats.Sum(tgtW[tgtI]), 1+tol)
		for _, srcI := range row {
			assert.GreaterOrEqual(t, indexOf(srcAddr[srcI], tgtI), 0)
		}
	}
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
