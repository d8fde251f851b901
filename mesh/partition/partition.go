// Package partition assigns mesh elements to processors
package partition

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/meshmap/mesh"
	"github.com/notargets/meshmap/parallel"
	"github.com/sirupsen/logrus"
)

// Partitioner computes an element to partition map
type Partitioner interface {
	Partition(m *mesh.Mesh, nParts int) (eToP []int, err error)
}

// New returns the partitioner registered under name
func New(name string, log logrus.FieldLogger) (Partitioner, error) {
	switch strings.ToLower(name) {
	case "block", "":
		return Block{}, nil
	case "metis":
		return NewMetis(DefaultConfig(), log), nil
	}
	return nil, fmt.Errorf("unknown partitioner %q, want block or metis", name)
}

// Block gives each partition a contiguous range of elements
type Block struct{}

func (Block) Partition(m *mesh.Mesh, nParts int) (eToP []int, err error) {
	if nParts < 1 {
		return nil, fmt.Errorf("number of partitions must be positive, have %d", nParts)
	}
	eToP = make([]int, m.NumElements)
	for p, r := range parallel.SplitEvenly(m.NumElements, nParts) {
		for k := r[0]; k < r[1]; k++ {
			eToP[k] = p
		}
	}
	return
}

// Stats holds statistics for a single partition
type Stats struct {
	ID           int
	NumElements  int
	Volume       float64
	ElementTypes map[mesh.ElementType]int
	NumNeighbors map[int]int // neighbor partition -> shared faces
}

// Analyze computes per partition statistics and logs the partition quality
func Analyze(m *mesh.Mesh, eToP []int, nParts int, log logrus.FieldLogger) (stats []Stats, cutFaces int) {
	stats = make([]Stats, nParts)
	for i := range stats {
		stats[i].ID = i
		stats[i].ElementTypes = make(map[mesh.ElementType]int)
		stats[i].NumNeighbors = make(map[int]int)
	}
	for elem := 0; elem < m.NumElements; elem++ {
		s := &stats[eToP[elem]]
		s.NumElements++
		s.ElementTypes[m.ElementTypes[elem]]++
		s.Volume += m.Volumes[elem]
	}
	for elem := 0; elem < m.NumElements; elem++ {
		elemPart := eToP[elem]
		for _, nbr := range m.EToE[elem] {
			if nbr > elem && eToP[nbr] != elemPart {
				cutFaces++
				stats[elemPart].NumNeighbors[eToP[nbr]]++
				stats[eToP[nbr]].NumNeighbors[elemPart]++
			}
		}
	}
	var (
		avgLoad = float64(m.NumElements) / float64(nParts)
		maxLoad = 0
		minLoad = math.MaxInt
	)
	for _, s := range stats {
		maxLoad = max(maxLoad, s.NumElements)
		minLoad = min(minLoad, s.NumElements)
	}
	imbalance := 0.
	if avgLoad > 0 {
		imbalance = float64(maxLoad)/avgLoad - 1
	}
	log.WithFields(logrus.Fields{
		"partitions": nParts,
		"cutFaces":   cutFaces,
		"imbalance":  fmt.Sprintf("%.2f%%", imbalance*100),
		"minLoad":    minLoad,
		"maxLoad":    maxLoad,
	}).Info("Partition Analysis")
	for _, s := range stats {
		log.WithFields(logrus.Fields{
			"partition":    s.ID,
			"elements":     s.NumElements,
			"volume":       s.Volume,
			"elementTypes": s.ElementTypes,
			"neighbors":    len(s.NumNeighbors),
		}).Debug("Partition statistics")
	}
	return
}
