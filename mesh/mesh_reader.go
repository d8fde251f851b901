package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadMeshFile reads a mesh file based on extension. Only volume elements
// are kept, boundary elements are skipped.
func ReadMeshFile(filename string) (m *Mesh, err error) {
	var file *os.File
	if file, err = os.Open(filename); err != nil {
		return
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".msh":
		m, err = ReadGmsh(file)
	case ".su2":
		m, err = ReadSU2(file)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return
}

// Gmsh element type number to element type
var gmshElements = map[int]ElementType{
	4: Tet,
	5: Hex,
	6: Prism,
	7: Pyramid,
}

// Gmsh types whose first nodes are the corners of a volume element
var gmshHighOrder = map[int]ElementType{
	11: Tet, // 10-node tet
	12: Hex, // 27-node hex
	17: Hex, // 20-node hex
}

type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(r)}
}

// next returns the next non blank line, trimmed
func (lr *lineReader) next() (line string, err error) {
	for lr.scanner.Scan() {
		lr.line++
		if line = strings.TrimSpace(lr.scanner.Text()); line != "" {
			return
		}
	}
	if err = lr.scanner.Err(); err == nil {
		err = io.ErrUnexpectedEOF
	}
	return
}

func (lr *lineReader) errorf(format string, a ...interface{}) error {
	return fmt.Errorf("line %d: %s", lr.line, fmt.Sprintf(format, a...))
}

func (lr *lineReader) count() (n int, err error) {
	var line string
	if line, err = lr.next(); err != nil {
		return
	}
	if n, err = strconv.Atoi(strings.Fields(line)[0]); err != nil || n < 0 {
		return 0, lr.errorf("bad count %q", line)
	}
	return
}

func parseInts(fields []string) (vals []int, err error) {
	vals = make([]int, len(fields))
	for i, f := range fields {
		if vals[i], err = strconv.Atoi(f); err != nil {
			return
		}
	}
	return
}

func parsePoint(fields []string) (p r3.Vec, err error) {
	var c [3]float64
	for i := 0; i < 3 && i < len(fields); i++ {
		if c[i], err = strconv.ParseFloat(fields[i], 64); err != nil {
			return
		}
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ReadGmsh reads an ASCII Gmsh file in format version 2.2
func ReadGmsh(r io.Reader) (m *Mesh, err error) {
	var (
		lr       = newLineReader(r)
		vertices []r3.Vec
		nodeIDs  = make(map[int]int)
		elements [][]int
		types    []ElementType
		nodeTags [][]int // Node ids until the nodes are all read
		line     string
	)
	for {
		if line, err = lr.next(); err == io.ErrUnexpectedEOF {
			break
		} else if err != nil {
			return
		}
		switch line {
		case "$MeshFormat":
			if line, err = lr.next(); err != nil {
				return
			}
			if !strings.HasPrefix(line, "2.") {
				return nil, lr.errorf("unsupported Gmsh format version %q, want 2.2", line)
			}
			if fields := strings.Fields(line); len(fields) > 1 && fields[1] != "0" {
				return nil, lr.errorf("binary Gmsh files are not supported")
			}
		case "$Nodes":
			var n int
			if n, err = lr.count(); err != nil {
				return
			}
			vertices = make([]r3.Vec, n)
			for i := 0; i < n; i++ {
				if line, err = lr.next(); err != nil {
					return
				}
				fields := strings.Fields(line)
				if len(fields) < 4 {
					return nil, lr.errorf("node line %q needs an id and three coordinates", line)
				}
				id, err := strconv.Atoi(fields[0])
				if err != nil {
					return nil, lr.errorf("bad node id %q", fields[0])
				}
				nodeIDs[id] = i
				if vertices[i], err = parsePoint(fields[1:]); err != nil {
					return nil, lr.errorf("bad coordinates in %q", line)
				}
			}
		case "$Elements":
			var n int
			if n, err = lr.count(); err != nil {
				return
			}
			for i := 0; i < n; i++ {
				if line, err = lr.next(); err != nil {
					return
				}
				vals, err := parseInts(strings.Fields(line))
				if err != nil || len(vals) < 3 {
					return nil, lr.errorf("bad element line %q", line)
				}
				et, ok := gmshElements[vals[1]]
				if !ok {
					if et, ok = gmshHighOrder[vals[1]]; !ok {
						continue // Points, lines and surface elements
					}
				}
				first := 3 + vals[2]
				if len(vals) < first+et.NumVertices() {
					return nil, lr.errorf("element line %q has too few nodes for a %s", line, et)
				}
				nodeTags = append(nodeTags, vals[first:first+et.NumVertices()])
				types = append(types, et)
			}
		}
	}
	elements = make([][]int, len(nodeTags))
	for k, tags := range nodeTags {
		elements[k] = make([]int, len(tags))
		for n, tag := range tags {
			v, ok := nodeIDs[tag]
			if !ok {
				return nil, fmt.Errorf("element %d references undefined node %d", k, tag)
			}
			elements[k][n] = v
		}
	}
	return NewMeshFromElements(vertices, elements, types)
}

// SU2 element type number to element type
var su2Elements = map[int]ElementType{
	10: Tet,
	12: Hex,
	13: Prism,
	14: Pyramid,
}

// keyword parses "NAME= value" lines
func keyword(line, name string) (val string, ok bool) {
	if !strings.HasPrefix(line, name+"=") {
		return
	}
	return strings.TrimSpace(strings.TrimPrefix(line, name+"=")), true
}

// ReadSU2 reads a single zone SU2 native mesh. Boundary markers are skipped.
func ReadSU2(r io.Reader) (m *Mesh, err error) {
	var (
		lr       = newLineReader(r)
		vertices []r3.Vec
		elements [][]int
		types    []ElementType
		line     string
		n        int
	)
	for {
		if line, err = lr.next(); err == io.ErrUnexpectedEOF {
			break
		} else if err != nil {
			return
		}
		if strings.HasPrefix(line, "%") {
			continue
		}
		if val, ok := keyword(line, "NDIME"); ok {
			if val != "3" {
				return nil, lr.errorf("only 3D meshes are supported, got NDIME=%s", val)
			}
		} else if val, ok := keyword(line, "NELEM"); ok {
			if n, err = strconv.Atoi(val); err != nil {
				return nil, lr.errorf("bad element count %q", val)
			}
			for i := 0; i < n; i++ {
				if line, err = lr.next(); err != nil {
					return
				}
				vals, err := parseInts(strings.Fields(line))
				if err != nil || len(vals) < 2 {
					return nil, lr.errorf("bad element line %q", line)
				}
				et, ok := su2Elements[vals[0]]
				if !ok {
					continue
				}
				if len(vals) < 1+et.NumVertices() {
					return nil, lr.errorf("element line %q has too few nodes for a %s", line, et)
				}
				elements = append(elements, append([]int(nil), vals[1:1+et.NumVertices()]...))
				types = append(types, et)
			}
		} else if val, ok := keyword(line, "NPOIN"); ok {
			// Some writers add the number of domain points after the total
			fields := strings.Fields(val)
			if len(fields) == 0 {
				return nil, lr.errorf("missing point count")
			}
			if n, err = strconv.Atoi(fields[0]); err != nil {
				return nil, lr.errorf("bad point count %q", val)
			}
			vertices = make([]r3.Vec, n)
			for i := 0; i < n; i++ {
				if line, err = lr.next(); err != nil {
					return
				}
				if vertices[i], err = parsePoint(strings.Fields(line)); err != nil {
					return nil, lr.errorf("bad coordinates in %q", line)
				}
			}
		} else if val, ok := keyword(line, "MARKER_ELEMS"); ok {
			if n, err = strconv.Atoi(val); err != nil {
				return nil, lr.errorf("bad marker element count %q", val)
			}
			for i := 0; i < n; i++ {
				if _, err = lr.next(); err != nil {
					return
				}
			}
		}
	}
	return NewMeshFromElements(vertices, elements, types)
}
