package meshtomesh

import (
	"github.com/sirupsen/logrus"
)

// directPair is a source cell waiting to be recorded against its target
type directPair struct {
	srcI, tgtI int
}

// calcDirect pairs congruent cells one to one, spreading from each seed pair
// across matching face neighbours. Source cells whose neighbours cannot be
// matched are left with empty rows.
func (mp *mapper) calcDirect() {
	var (
		srcTgtSeed = make([]int, mp.src.NumElements)
		unmatched  int
		islands    int
	)
	for i := range srcTgtSeed {
		srcTgtSeed[i] = -1
	}
	for {
		srcSeedI, tgtSeedI, found := mp.findInitialSeeds()
		if !found {
			break
		}
		islands++
		srcTgtSeed[srcSeedI] = tgtSeedI
		queue := []directPair{{srcSeedI, tgtSeedI}}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if !mp.mapFlag[p.srcI] {
				continue
			}
			mp.a.record(p.srcI, p.tgtI, mp.src.Volumes[p.srcI], mp.tgt.Volumes[p.tgtI])
			mp.a.V += mp.src.Volumes[p.srcI]
			mp.mapFlag[p.srcI] = false
			queue, unmatched = mp.appendToDirectSeeds(p, srcTgtSeed, queue, unmatched)
		}
	}
	mp.log.WithFields(logrus.Fields{
		"islands":   islands,
		"unmatched": unmatched,
	}).Debug("Direct mapping finished")
}

// appendToDirectSeeds pairs each unvisited source neighbour of p with the
// target neighbour of p that contains its centroid
func (mp *mapper) appendToDirectSeeds(p directPair, srcTgtSeed []int, queue []directPair,
	unmatched int) ([]directPair, int) {
	tgtNbrs := mp.tgt.CellCells(p.tgtI)
	for _, srcNbr := range mp.src.CellCells(p.srcI) {
		if !mp.mapFlag[srcNbr] || srcTgtSeed[srcNbr] != -1 {
			continue
		}
		found := false
		for _, tgtNbr := range tgtNbrs {
			if mp.tgt.PointInCell(mp.src.Centroids[srcNbr], tgtNbr, mp.tol) {
				srcTgtSeed[srcNbr] = tgtNbr
				queue = append(queue, directPair{srcNbr, tgtNbr})
				found = true
				break
			}
		}
		if !found {
			// Topology does not line up here
			mp.mapFlag[srcNbr] = false
			unmatched++
			mp.log.WithField("cell", srcNbr).Debug("Direct mapping found no matching target neighbour")
		}
	}
	return queue, unmatched
}
