package geometry3D

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is the set of points p with Dot(Normal, p) == D. Normal is unit length
// and points to the outside of the face that produced the plane.
type Plane struct {
	Normal r3.Vec
	D      float64
}

// NewPlane builds the plane of a polygon using Newell's method, so slightly
// warped faces still get a well defined average normal.
func NewPlane(poly []r3.Vec) (pl Plane, ok bool) {
	var (
		n      r3.Vec
		centre r3.Vec
		np     = len(poly)
	)
	if np < 3 {
		return
	}
	for i := 0; i < np; i++ {
		a, b := poly[i], poly[(i+1)%np]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
		centre = r3.Add(centre, a)
	}
	mag := r3.Norm(n)
	if mag == 0 {
		return
	}
	pl.Normal = r3.Scale(1/mag, n)
	pl.D = r3.Dot(pl.Normal, r3.Scale(1/float64(np), centre))
	return pl, true
}

// SignedDistance is positive on the side the normal points to
func (pl Plane) SignedDistance(p r3.Vec) float64 {
	return r3.Dot(pl.Normal, p) - pl.D
}

// Polyhedron is a convex cell described by its faces. Each face lists its
// vertices counter-clockwise when viewed from outside.
type Polyhedron struct {
	Faces [][]r3.Vec
}

// NewPolyhedron gathers face polygons from a shared vertex list
func NewPolyhedron(vertices []r3.Vec, faces [][]int) (p Polyhedron) {
	p.Faces = make([][]r3.Vec, len(faces))
	for i, f := range faces {
		poly := make([]r3.Vec, len(f))
		for j, v := range f {
			poly[j] = vertices[v]
		}
		p.Faces[i] = poly
	}
	return
}

func (p Polyhedron) IsEmpty() bool { return len(p.Faces) < 4 }

func (p Polyhedron) refPoint() r3.Vec {
	for _, f := range p.Faces {
		if len(f) > 0 {
			return f[0]
		}
	}
	return r3.Vec{}
}

// Volume is signed: negative when the faces are oriented inwards
func (p Polyhedron) Volume() (vol float64) {
	if p.IsEmpty() {
		return 0
	}
	ref := p.refPoint()
	for _, f := range p.Faces {
		a := r3.Sub(f[0], ref)
		for i := 1; i < len(f)-1; i++ {
			b, c := r3.Sub(f[i], ref), r3.Sub(f[i+1], ref)
			vol += r3.Dot(a, r3.Cross(b, c))
		}
	}
	return vol / 6
}

// Centroid is the volume centroid, computed from the tetrahedra formed between
// a reference point and each face triangle
func (p Polyhedron) Centroid() r3.Vec {
	var (
		ref    = p.refPoint()
		sumV   float64
		sumVxC r3.Vec
	)
	for _, f := range p.Faces {
		for i := 1; i < len(f)-1; i++ {
			v := TetVolume(ref, f[0], f[i], f[i+1])
			c := r3.Scale(0.25, r3.Add(r3.Add(ref, f[0]), r3.Add(f[i], f[i+1])))
			sumV += v
			sumVxC = r3.Add(sumVxC, r3.Scale(v, c))
		}
	}
	if math.Abs(sumV) < math.SmallestNonzeroFloat64 {
		return p.vertexAverage()
	}
	return r3.Scale(1/sumV, sumVxC)
}

func (p Polyhedron) vertexAverage() (c r3.Vec) {
	var n int
	for _, f := range p.Faces {
		for _, v := range f {
			c = r3.Add(c, v)
			n++
		}
	}
	if n > 0 {
		c = r3.Scale(1/float64(n), c)
	}
	return
}

func (p Polyhedron) Bounds() (bb BoundBox) {
	bb = EmptyBoundBox()
	for _, f := range p.Faces {
		for _, v := range f {
			bb.Add(v)
		}
	}
	return
}

// Planes returns the supporting plane of every non-degenerate face
func (p Polyhedron) Planes() (planes []Plane) {
	planes = make([]Plane, 0, len(p.Faces))
	for _, f := range p.Faces {
		if pl, ok := NewPlane(f); ok {
			planes = append(planes, pl)
		}
	}
	return
}

// Reversed flips the orientation of every face
func (p Polyhedron) Reversed() (q Polyhedron) {
	q.Faces = make([][]r3.Vec, len(p.Faces))
	for i, f := range p.Faces {
		rf := make([]r3.Vec, len(f))
		for j := range f {
			rf[j] = f[len(f)-1-j]
		}
		q.Faces[i] = rf
	}
	return
}

// Contains tests pt against every face plane, with tol measured as a distance
func (p Polyhedron) Contains(pt r3.Vec, tol float64) bool {
	if p.IsEmpty() {
		return false
	}
	for _, pl := range p.Planes() {
		if pl.SignedDistance(pt) > tol {
			return false
		}
	}
	return true
}

// Clip keeps the part of p on the negative side of pl and closes the cut with
// a cap face lying in pl.
func (p Polyhedron) Clip(pl Plane) (q Polyhedron) {
	if p.IsEmpty() {
		return
	}
	var (
		eps     = clipEpsilon * math.Max(p.Bounds().Mag(), 1e-300)
		allIn   = true
		allOut  = true
		capPts  []r3.Vec
		clipped = make([][]r3.Vec, 0, len(p.Faces)+1)
	)
	for _, f := range p.Faces {
		for _, v := range f {
			d := pl.SignedDistance(v)
			if d > eps {
				allIn = false
			}
			if d < -eps {
				allOut = false
			}
		}
	}
	if allIn {
		return p
	}
	if allOut {
		return
	}
	for _, f := range p.Faces {
		poly, onPlane := clipPolygon(f, pl, eps)
		capPts = append(capPts, onPlane...)
		if len(poly) >= 3 {
			clipped = append(clipped, poly)
		}
	}
	if cp := capPolygon(capPts, pl.Normal, eps); len(cp) >= 3 {
		clipped = append(clipped, cp)
	}
	q.Faces = clipped
	if q.IsEmpty() {
		return Polyhedron{}
	}
	return
}

// clipEpsilon is relative to the size of the polyhedron being clipped
const clipEpsilon = 1e-12

func clipPolygon(f []r3.Vec, pl Plane, eps float64) (out, onPlane []r3.Vec) {
	n := len(f)
	d := make([]float64, n)
	for i, v := range f {
		d[i] = pl.SignedDistance(v)
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cur, next := f[i], f[j]
		dc, dn := d[i], d[j]
		if dc <= eps {
			out = append(out, cur)
			if math.Abs(dc) <= eps {
				onPlane = append(onPlane, cur)
			}
		}
		if (dc < -eps && dn > eps) || (dc > eps && dn < -eps) {
			t := dc / (dc - dn)
			x := r3.Add(cur, r3.Scale(t, r3.Sub(next, cur)))
			out = append(out, x)
			onPlane = append(onPlane, x)
		}
	}
	return
}

// capPolygon orders the points collected on the clipping plane
// counter-clockwise around the plane normal, dropping duplicates.
func capPolygon(pts []r3.Vec, normal r3.Vec, eps float64) (poly []r3.Vec) {
	unique := make([]r3.Vec, 0, len(pts))
	for _, p := range pts {
		dup := false
		for _, u := range unique {
			if r3.Norm(r3.Sub(p, u)) <= eps {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, p)
		}
	}
	if len(unique) < 3 {
		return nil
	}
	var centre r3.Vec
	for _, u := range unique {
		centre = r3.Add(centre, u)
	}
	centre = r3.Scale(1/float64(len(unique)), centre)
	// In-plane basis with Cross(u, v) == normal
	u := perpendicular(normal)
	v := r3.Cross(normal, u)
	angles := make([]float64, len(unique))
	for i, p := range unique {
		rel := r3.Sub(p, centre)
		angles[i] = math.Atan2(r3.Dot(rel, v), r3.Dot(rel, u))
	}
	idx := make([]int, len(unique))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return angles[idx[a]] < angles[idx[b]] })
	poly = make([]r3.Vec, len(unique))
	for i, k := range idx {
		poly[i] = unique[k]
	}
	return
}

func perpendicular(n r3.Vec) r3.Vec {
	var axis r3.Vec
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ax <= ay && ax <= az:
		axis = r3.Vec{X: 1}
	case ay <= az:
		axis = r3.Vec{Y: 1}
	default:
		axis = r3.Vec{Z: 1}
	}
	return r3.Unit(r3.Cross(n, axis))
}

// Intersect clips p by every face plane of q. Both must be convex.
func (p Polyhedron) Intersect(q Polyhedron) Polyhedron {
	r := p
	for _, pl := range q.Planes() {
		r = r.Clip(pl)
		if r.IsEmpty() {
			return Polyhedron{}
		}
	}
	return r
}

// IntersectionVolume returns the volume shared by two convex polyhedra
func IntersectionVolume(p, q Polyhedron) float64 {
	if !p.Bounds().Overlaps(q.Bounds()) {
		return 0
	}
	return math.Max(p.Intersect(q).Volume(), 0)
}

// TetVolume is positive when d lies on the side of triangle abc that its
// right handed normal points to
func TetVolume(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a))) / 6
}
