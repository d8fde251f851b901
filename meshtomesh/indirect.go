package meshtomesh

import (
	"github.com/sirupsen/logrus"
)

// calcIndirect runs the advancing front. Source cells are taken from a FIFO
// frontier, each carrying a target cell known to overlap it. For every
// source cell the overlapping target cells are found by walking target face
// neighbours out from that seed, and the source neighbours are seeded from
// the target cells just visited. When the frontier empties the seed search
// resumes to pick up disconnected overlap regions.
func (mp *mapper) calcIndirect() {
	var (
		srcTgtSeed = make([]int, mp.src.NumElements)
		regions    int
		pairs      int
	)
	for i := range srcTgtSeed {
		srcTgtSeed[i] = -1
	}
	for {
		srcSeedI, tgtSeedI, found := mp.findInitialSeeds()
		if !found {
			break
		}
		regions++
		srcTgtSeed[srcSeedI] = tgtSeedI
		frontier := []int{srcSeedI}
		for len(frontier) > 0 {
			srcI := frontier[0]
			frontier = frontier[1:]
			if !mp.mapFlag[srcI] {
				continue
			}
			visited, n := mp.overlapTargets(srcI, srcTgtSeed[srcI])
			pairs += n
			mp.mapFlag[srcI] = false
			frontier = mp.setNextCells(srcI, visited, srcTgtSeed, frontier)
		}
	}
	mp.log.WithFields(logrus.Fields{
		"regions": regions,
		"pairs":   pairs,
	}).Debug("Advancing front finished")
}

// overlapTargets records every target cell overlapping srcI that is face
// connected to tgtSeedI through other overlapping cells. It returns all
// target cells whose overlap was computed.
func (mp *mapper) overlapTargets(srcI, tgtSeedI int) (visited []int, recorded int) {
	var (
		queued = map[int]bool{tgtSeedI: true}
		stack  = []int{tgtSeedI}
	)
	for len(stack) > 0 {
		tgtI := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited = append(visited, tgtI)
		vol, ok := mp.intersect(srcI, tgtI)
		if !ok {
			continue
		}
		mp.a.record(srcI, tgtI, vol, vol)
		mp.a.V += vol
		recorded++
		for _, nbr := range mp.tgt.CellCells(tgtI) {
			if !queued[nbr] {
				queued[nbr] = true
				stack = append(stack, nbr)
			}
		}
	}
	return
}

// setNextCells seeds the unvisited source neighbours of srcI from the target
// cells just visited and adds them to the frontier
func (mp *mapper) setNextCells(srcI int, visited, srcTgtSeed, frontier []int) []int {
	for _, srcNbr := range mp.src.CellCells(srcI) {
		if !mp.mapFlag[srcNbr] || srcTgtSeed[srcNbr] != -1 {
			continue
		}
		for _, tgtI := range visited {
			if !mp.src.CellBounds[srcNbr].Overlaps(mp.tgt.CellBounds[tgtI]) {
				continue
			}
			if _, ok := mp.intersect(srcNbr, tgtI); ok {
				srcTgtSeed[srcNbr] = tgtI
				frontier = append(frontier, srcNbr)
				break
			}
		}
	}
	return frontier
}
