package mesh

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ParseElementType accepts the element type names used in input files
func ParseElementType(name string) (ElementType, error) {
	switch strings.ToLower(name) {
	case "tet", "tetra", "tetrahedron":
		return Tet, nil
	case "hex", "hexa", "hexahedron", "":
		return Hex, nil
	case "prism", "wedge":
		return Prism, nil
	case "pyramid", "pyra":
		return Pyramid, nil
	}
	return Hex, fmt.Errorf("unknown element type %q", name)
}

// Kuhn split of a hex into six tets sharing the 0-6 diagonal. Every hex is
// split the same way so neighbouring hexes produce matching faces.
var hexToTets = [6][4]int{
	{0, 1, 2, 6},
	{0, 2, 3, 6},
	{0, 3, 7, 6},
	{0, 7, 4, 6},
	{0, 4, 5, 6},
	{0, 5, 1, 6},
}

var hexToPrisms = [2][6]int{
	{0, 1, 2, 4, 5, 6},
	{0, 2, 3, 4, 6, 7},
}

// NewBoxMesh builds a structured mesh of the box [origin, origin+size] with
// nx*ny*nz hexes, each optionally split into tets or prisms
func NewBoxMesh(origin, size r3.Vec, nx, ny, nz int, elemType ElementType) (m *Mesh, err error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("box divisions must be positive, have %d x %d x %d", nx, ny, nz)
	}
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("box size must be positive, have %v", size)
	}
	vertID := func(i, j, k int) int {
		return i + (nx+1)*(j+(ny+1)*k)
	}
	vertices := make([]r3.Vec, (nx+1)*(ny+1)*(nz+1))
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				vertices[vertID(i, j, k)] = r3.Vec{
					X: origin.X + size.X*float64(i)/float64(nx),
					Y: origin.Y + size.Y*float64(j)/float64(ny),
					Z: origin.Z + size.Z*float64(k)/float64(nz),
				}
			}
		}
	}
	var (
		elements [][]int
		types    []ElementType
	)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				hex := []int{
					vertID(i, j, k), vertID(i+1, j, k), vertID(i+1, j+1, k), vertID(i, j+1, k),
					vertID(i, j, k+1), vertID(i+1, j, k+1), vertID(i+1, j+1, k+1), vertID(i, j+1, k+1),
				}
				switch elemType {
				case Hex:
					elements = append(elements, hex)
					types = append(types, Hex)
				case Tet:
					for _, tet := range hexToTets {
						elements = append(elements, []int{hex[tet[0]], hex[tet[1]], hex[tet[2]], hex[tet[3]]})
						types = append(types, Tet)
					}
				case Prism:
					for _, pr := range hexToPrisms {
						el := make([]int, 6)
						for n, v := range pr {
							el[n] = hex[v]
						}
						elements = append(elements, el)
						types = append(types, Prism)
					}
				default:
					return nil, fmt.Errorf("box meshes of %s elements are not supported", elemType)
				}
			}
		}
	}
	return NewMeshFromElements(vertices, elements, types)
}
