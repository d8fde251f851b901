package meshtomesh

import (
	"github.com/notargets/meshmap/mesh"
	"github.com/sirupsen/logrus"
)

// addressing holds the raw tables of one geometric search, indexed by the
// local cells of the meshes it ran on. Weights are overlap volumes until
// normalised.
type addressing struct {
	srcToTgtAddr [][]int
	srcToTgtWght [][]float64
	tgtToSrcAddr [][]int
	tgtToSrcWght [][]float64
	V            float64
}

func newAddressing(nSrc, nTgt int) addressing {
	return addressing{
		srcToTgtAddr: make([][]int, nSrc),
		srcToTgtWght: make([][]float64, nSrc),
		tgtToSrcAddr: make([][]int, nTgt),
		tgtToSrcWght: make([][]float64, nTgt),
	}
}

func (a *addressing) record(srcI, tgtI int, srcW, tgtW float64) {
	a.srcToTgtAddr[srcI] = append(a.srcToTgtAddr[srcI], tgtI)
	a.srcToTgtWght[srcI] = append(a.srcToTgtWght[srcI], srcW)
	a.tgtToSrcAddr[tgtI] = append(a.tgtToSrcAddr[tgtI], srcI)
	a.tgtToSrcWght[tgtI] = append(a.tgtToSrcWght[tgtI], tgtW)
}

// calcAddressing pairs the cells of two local meshes with the chosen method
func calcAddressing(src, tgt *mesh.Mesh, method InterpolationMethod, tol float64,
	log logrus.FieldLogger) addressing {
	a := newAddressing(src.NumElements, tgt.NumElements)
	if src.NumElements == 0 || tgt.NumElements == 0 {
		log.Debug("No cells to map")
		return a
	}
	mp := newMapper(src, tgt, tol, log, &a)
	if len(mp.srcCellIDs) == 0 {
		log.Debug("Mesh bounding boxes do not overlap")
		return a
	}
	switch method {
	case Direct:
		mp.calcDirect()
	case CellVolumeWeight:
		mp.calcIndirect()
	}
	return a
}
