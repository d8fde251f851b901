package partition

import (
	"fmt"

	metis "github.com/notargets/go-metis"
	"github.com/notargets/meshmap/mesh"
	"github.com/sirupsen/logrus"
)

// Config holds configuration for METIS partitioning
type Config struct {
	ImbalanceFactor  float32 // e.g., 1.05 for 5% imbalance
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
}

func DefaultConfig() *Config {
	return &Config{
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        "vol", // minimize communication volume
	}
}

// Metis partitions the element dual graph with METIS k-way partitioning
type Metis struct {
	config *Config
	log    logrus.FieldLogger
}

func NewMetis(config *Config, log logrus.FieldLogger) *Metis {
	return &Metis{config: config, log: log}
}

// computeCost weights elements by the relative cost of intersecting them
func computeCost(elemType mesh.ElementType) int32 {
	switch elemType {
	case mesh.Hex:
		return 8
	case mesh.Prism:
		return 6
	case mesh.Pyramid:
		return 5
	default:
		return 4
	}
}

func (mp *Metis) Partition(m *mesh.Mesh, nParts int) (eToP []int, err error) {
	if nParts < 1 {
		return nil, fmt.Errorf("number of partitions must be positive, have %d", nParts)
	}
	mp.log.WithFields(logrus.Fields{
		"elements":   m.NumElements,
		"partitions": nParts,
	}).Info("Partitioning mesh with METIS")
	eToP = make([]int, m.NumElements)
	if nParts == 1 || m.NumElements == 0 {
		return
	}

	xadj, adjncy, vwgt, adjwgt := mp.buildGraph(m)

	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	if mp.config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{mp.config.ImbalanceFactor}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, vwgt, adjwgt,
		int32(nParts), nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	for i := range eToP {
		eToP[i] = int(part[i])
	}
	mp.log.WithField("objective", objval).Debug("METIS finished")
	Analyze(m, eToP, nParts, mp.log)
	return
}

// buildGraph converts mesh connectivity to METIS CSR format, weighting
// edges by the number of face vertices
func (mp *Metis) buildGraph(m *mesh.Mesh) (xadj, adjncy, vwgt, adjwgt []int32) {
	ne := m.NumElements
	if mp.config.UseVertexWeights {
		vwgt = make([]int32, ne)
		for i := 0; i < ne; i++ {
			vwgt[i] = computeCost(m.ElementTypes[i])
		}
	}
	xadj = make([]int32, ne+1)
	for elem := 0; elem < ne; elem++ {
		for faceIdx, nbr := range m.EToE[elem] {
			if nbr < 0 || nbr == elem {
				continue
			}
			adjncy = append(adjncy, int32(nbr))
			if mp.config.UseEdgeWeights {
				face := m.Faces[m.EToF[elem][faceIdx]]
				adjwgt = append(adjwgt, int32(len(face.Vertices)))
			}
		}
		xadj[elem+1] = int32(len(adjncy))
	}
	return
}
