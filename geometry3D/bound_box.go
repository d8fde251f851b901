package geometry3D

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// BoundBox is an axis aligned bounding box. An empty box has Min > Max.
type BoundBox struct {
	Min, Max r3.Vec
}

func EmptyBoundBox() BoundBox {
	inf := math.Inf(1)
	return BoundBox{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewBoundBox returns the smallest box enclosing pts
func NewBoundBox(pts ...r3.Vec) (bb BoundBox) {
	bb = EmptyBoundBox()
	for _, p := range pts {
		bb.Add(p)
	}
	return
}

func (bb *BoundBox) Add(p r3.Vec) {
	bb.Min = r3.Vec{X: math.Min(bb.Min.X, p.X), Y: math.Min(bb.Min.Y, p.Y), Z: math.Min(bb.Min.Z, p.Z)}
	bb.Max = r3.Vec{X: math.Max(bb.Max.X, p.X), Y: math.Max(bb.Max.Y, p.Y), Z: math.Max(bb.Max.Z, p.Z)}
}

func (bb BoundBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y || bb.Min.Z > bb.Max.Z
}

func (bb BoundBox) Union(o BoundBox) BoundBox {
	if bb.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return bb
	}
	bb.Add(o.Min)
	bb.Add(o.Max)
	return bb
}

// Intersection returns the overlapping region, which is empty when the boxes
// do not overlap
func (bb BoundBox) Intersection(o BoundBox) BoundBox {
	return BoundBox{
		Min: r3.Vec{X: math.Max(bb.Min.X, o.Min.X), Y: math.Max(bb.Min.Y, o.Min.Y), Z: math.Max(bb.Min.Z, o.Min.Z)},
		Max: r3.Vec{X: math.Min(bb.Max.X, o.Max.X), Y: math.Min(bb.Max.Y, o.Max.Y), Z: math.Min(bb.Max.Z, o.Max.Z)},
	}
}

// Overlaps is true when the closed boxes share at least one point
func (bb BoundBox) Overlaps(o BoundBox) bool {
	if bb.IsEmpty() || o.IsEmpty() {
		return false
	}
	return bb.Min.X <= o.Max.X && o.Min.X <= bb.Max.X &&
		bb.Min.Y <= o.Max.Y && o.Min.Y <= bb.Max.Y &&
		bb.Min.Z <= o.Max.Z && o.Min.Z <= bb.Max.Z
}

func (bb BoundBox) Contains(p r3.Vec) bool {
	return p.X >= bb.Min.X && p.X <= bb.Max.X &&
		p.Y >= bb.Min.Y && p.Y <= bb.Max.Y &&
		p.Z >= bb.Min.Z && p.Z <= bb.Max.Z
}

func (bb BoundBox) Span() r3.Vec {
	return r3.Sub(bb.Max, bb.Min)
}

func (bb BoundBox) Centre() r3.Vec {
	return r3.Scale(0.5, r3.Add(bb.Min, bb.Max))
}

// Mag is the length of the box diagonal
func (bb BoundBox) Mag() float64 {
	if bb.IsEmpty() {
		return 0
	}
	return r3.Norm(bb.Span())
}

// Inflate grows the box on every side by s times the diagonal length
func (bb BoundBox) Inflate(s float64) BoundBox {
	if bb.IsEmpty() {
		return bb
	}
	ext := s * bb.Mag()
	d := r3.Vec{X: ext, Y: ext, Z: ext}
	return BoundBox{Min: r3.Sub(bb.Min, d), Max: r3.Add(bb.Max, d)}
}
