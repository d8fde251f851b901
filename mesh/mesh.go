package mesh

import (
	"fmt"
	"sync"

	"github.com/notargets/meshmap/geometry3D"
	"github.com/notargets/meshmap/types"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// ElementType represents different element types
type ElementType int

const (
	Tet ElementType = iota
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"Tet", "Hex", "Prism", "Pyramid"}[e]
}

// NumVertices is the number of corner vertices of the element type
func (e ElementType) NumVertices() int {
	return [...]int{4, 8, 6, 5}[e]
}

// Face represents a face of an element
type Face struct {
	Vertices []int // Sorted vertex indices
	Element  int   // Parent element
	LocalID  int   // Local face ID within element
}

// HaloFace records an element face lying on a processor boundary, together
// with the cell on the other side in decomposition-global numbering
type HaloFace struct {
	Element   int
	LocalFace int
	NbrProc   int
	NbrCellID int
}

// Mesh represents a complete unstructured mesh with all connectivity
type Mesh struct {
	// Geometry
	Vertices []r3.Vec

	// Element data
	Elements     [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element

	// Connectivity (built during initialization)
	EToE [][]int // Element to element connectivity [nelems][nfaces_per_elem], -1 on boundaries
	EToF [][]int // Element to face connectivity [nelems][nfaces_per_elem]
	EToP []int   // Element to partition mapping (set after partitioning)

	// Face data
	Faces   []Face                // All unique faces in mesh
	FaceMap map[types.FaceKey]int // Map from sorted vertex key to face ID

	// Processor boundary faces, only set on decomposed meshes
	Halo []HaloFace

	// Cell geometry (built by CalcGeometry)
	Volumes    []float64
	Centroids  []r3.Vec
	CellBounds []geometry3D.BoundBox

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int

	locatorOnce sync.Once
	locator     *CellLocator
}

// NewMesh creates an empty mesh
func NewMesh() *Mesh {
	return &Mesh{
		FaceMap: make(map[types.FaceKey]int),
	}
}

// NewMeshFromElements builds connectivity and cell geometry for the given
// vertices and elements
func NewMeshFromElements(vertices []r3.Vec, elements [][]int, elementTypes []ElementType) (m *Mesh, err error) {
	if len(elements) != len(elementTypes) {
		return nil, fmt.Errorf("have %d elements but %d element types", len(elements), len(elementTypes))
	}
	for k, verts := range elements {
		if len(verts) != elementTypes[k].NumVertices() {
			return nil, fmt.Errorf("element %d of type %s has %d vertices, want %d",
				k, elementTypes[k], len(verts), elementTypes[k].NumVertices())
		}
		for _, v := range verts {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("element %d references vertex %d, mesh has %d vertices",
					k, v, len(vertices))
			}
		}
	}
	m = NewMesh()
	m.Vertices = vertices
	m.Elements = elements
	m.ElementTypes = elementTypes
	m.NumElements = len(elements)
	m.NumVertices = len(vertices)
	m.BuildConnectivity()
	m.CalcGeometry()
	return
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() {
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[types.FaceKey]int)

	for elemID := 0; elemID < m.NumElements; elemID++ {
		faceVertices := GetElementFaces(m.ElementTypes[elemID], m.Elements[elemID])

		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localFaceID, faceVerts := range faceVertices {
			key := types.NewFaceKey(faceVerts)

			if faceID, exists := m.FaceMap[key]; exists {
				// Face already exists - this is an interior face
				face := &m.Faces[faceID]
				m.EToE[elemID][localFaceID] = face.Element
				m.EToE[face.Element][face.LocalID] = elemID
				m.EToF[elemID][localFaceID] = faceID
			} else {
				faceID := len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices: key.GetVertices(),
					Element:  elemID,
					LocalID:  localFaceID,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}

	m.NumFaces = len(m.Faces)
}

// GetElementFaces returns the face vertices for each element type, ordered
// counter-clockwise when viewed from outside a positively oriented element
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Tet:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]}, // Face 0
			{vertices[0], vertices[1], vertices[3]}, // Face 1
			{vertices[1], vertices[2], vertices[3]}, // Face 2
			{vertices[0], vertices[3], vertices[2]}, // Face 3
		}
	case Hex:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (bottom)
			{vertices[4], vertices[5], vertices[6], vertices[7]}, // Face 1 (top)
			{vertices[0], vertices[1], vertices[5], vertices[4]}, // Face 2
			{vertices[1], vertices[2], vertices[6], vertices[5]}, // Face 3
			{vertices[2], vertices[3], vertices[7], vertices[6]}, // Face 4
			{vertices[3], vertices[0], vertices[4], vertices[7]}, // Face 5
		}
	case Prism:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]},              // Face 0 (bottom tri)
			{vertices[3], vertices[4], vertices[5]},              // Face 1 (top tri)
			{vertices[0], vertices[1], vertices[4], vertices[3]}, // Face 2 (quad)
			{vertices[1], vertices[2], vertices[5], vertices[4]}, // Face 3 (quad)
			{vertices[2], vertices[0], vertices[3], vertices[5]}, // Face 4 (quad)
		}
	case Pyramid:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (base quad)
			{vertices[0], vertices[1], vertices[4]},              // Face 1 (tri)
			{vertices[1], vertices[2], vertices[4]},              // Face 2 (tri)
			{vertices[2], vertices[3], vertices[4]},              // Face 3 (tri)
			{vertices[3], vertices[0], vertices[4]},              // Face 4 (tri)
		}
	default:
		panic(fmt.Errorf("unsupported element type %d", elemType))
	}
}

// CellCells returns the face neighbours of a cell, skipping boundary faces
func (m *Mesh) CellCells(cellI int) (nbrs []int) {
	nbrs = make([]int, 0, len(m.EToE[cellI]))
	for _, nbr := range m.EToE[cellI] {
		if nbr >= 0 {
			nbrs = append(nbrs, nbr)
		}
	}
	return
}

// NumBoundaryFaces counts element faces without a neighbour in this mesh,
// including processor boundary faces
func (m *Mesh) NumBoundaryFaces() (n int) {
	for i := 0; i < m.NumElements; i++ {
		for _, nbr := range m.EToE[i] {
			if nbr < 0 {
				n++
			}
		}
	}
	return
}

// PrintStatistics logs mesh statistics
func (m *Mesh) PrintStatistics(log logrus.FieldLogger) {
	typeCounts := make(map[ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}
	var total float64
	for _, v := range m.Volumes {
		total += v
	}
	log.WithFields(logrus.Fields{
		"vertices":      m.NumVertices,
		"elements":      m.NumElements,
		"faces":         m.NumFaces,
		"boundaryFaces": m.NumBoundaryFaces(),
		"haloFaces":     len(m.Halo),
		"elementTypes":  typeCounts,
		"totalVolume":   total,
	}).Info("Mesh Statistics")
}
