package meshtomesh

import (
	"math"

	"github.com/notargets/meshmap/mesh"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// maskInflation grows the shared bounding box before masking source cells
const maskInflation = 0.01

// seedPointTol is the relative tolerance for target centres tested inside a
// source cell
const seedPointTol = 1e-10

// mapper carries the state of one geometric search over a pair of local
// meshes
type mapper struct {
	src, tgt *mesh.Mesh
	tol      float64
	log      logrus.FieldLogger
	a        *addressing

	srcCellIDs []int  // Masked source cells, in index order
	mapFlag    []bool // Source cell still needs mapping
	startSeedI int    // Position in srcCellIDs where the seed search resumes
}

func newMapper(src, tgt *mesh.Mesh, tol float64, log logrus.FieldLogger, a *addressing) (mp *mapper) {
	mp = &mapper{
		src:     src,
		tgt:     tgt,
		tol:     tol,
		log:     log,
		a:       a,
		mapFlag: make([]bool, src.NumElements),
	}
	mp.srcCellIDs = maskCells(src, tgt)
	for _, srcI := range mp.srcCellIDs {
		mp.mapFlag[srcI] = true
	}
	return
}

// maskCells returns the source cells whose bounding box overlaps the
// inflated intersection of both mesh bounding boxes
func maskCells(src, tgt *mesh.Mesh) (cells []int) {
	bb := src.Bounds().Intersection(tgt.Bounds())
	if bb.IsEmpty() {
		return nil
	}
	bb = bb.Inflate(maskInflation)
	for srcI, cb := range src.CellBounds {
		if cb.Overlaps(bb) {
			cells = append(cells, srcI)
		}
	}
	return
}

// intersect returns the overlap volume of a cell pair and whether it is
// above the noise threshold
func (mp *mapper) intersect(srcI, tgtI int) (vol float64, ok bool) {
	vol = mp.src.IntersectionVolume(srcI, mp.tgt, tgtI)
	minVol := math.Min(mp.src.Volumes[srcI], mp.tgt.Volumes[tgtI])
	return vol, vol > mp.tol*minVol
}

// seedPoints are tested in order when looking for a target cell overlapping
// srcI
func (mp *mapper) seedPoints(srcI int) (pts []r3.Vec) {
	verts := mp.src.Elements[srcI]
	pts = make([]r3.Vec, 0, len(verts)+1)
	pts = append(pts, mp.src.Centroids[srcI])
	for _, v := range verts {
		pts = append(pts, mp.src.Vertices[v])
	}
	return
}

// findInitialSeeds resumes the search for an overlapping pair at startSeedI.
// Cells passed over without a hit are not retried by later searches, though
// the advancing front can still reach them.
func (mp *mapper) findInitialSeeds() (srcSeedI, tgtSeedI int, found bool) {
	for i := mp.startSeedI; i < len(mp.srcCellIDs); i++ {
		srcI := mp.srcCellIDs[i]
		if !mp.mapFlag[srcI] {
			continue
		}
		for _, pt := range mp.seedPoints(srcI) {
			tgtI := mp.tgt.FindCell(pt)
			if tgtI < 0 {
				continue
			}
			if _, ok := mp.intersect(srcI, tgtI); ok {
				mp.startSeedI = i + 1
				return srcI, tgtI, true
			}
		}
		// A target mesh smaller than srcI can miss all of its points
		if tgtI, ok := mp.enclosedSeed(srcI); ok {
			mp.startSeedI = i + 1
			return srcI, tgtI, true
		}
	}
	mp.startSeedI = len(mp.srcCellIDs)
	return -1, -1, false
}

// enclosedSeed looks for a target cell whose centre lies inside srcI
func (mp *mapper) enclosedSeed(srcI int) (tgtI int, found bool) {
	for _, tgtI = range mp.tgt.Locator().CellsInBox(mp.src.CellBounds[srcI]) {
		if !mp.src.PointInCell(mp.tgt.Centroids[tgtI], srcI, seedPointTol) {
			continue
		}
		if _, ok := mp.intersect(srcI, tgtI); ok {
			return tgtI, true
		}
	}
	return -1, false
}
