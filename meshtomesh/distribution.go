package meshtomesh

import (
	"github.com/kr/pretty"
	"github.com/notargets/meshmap/geometry3D"
	"github.com/notargets/meshmap/mesh"
	"github.com/notargets/meshmap/parallel"
	"github.com/sirupsen/logrus"
)

// procBoundsInflation grows processor bounding boxes before overlap tests
const procBoundsInflation = 0.01

// calcDistribution returns the processor holding every cell of both meshes,
// or -1 when cells are spread over several processors or there are none
func calcDistribution(c *parallel.Comm, src, tgt *mesh.Mesh) (procI int, err error) {
	var haveMesh []bool
	haveMesh, err = parallel.AllGather(c, src.NumElements > 0 || tgt.NumElements > 0)
	if err != nil {
		return -1, distributionError("distribution check", c.Rank(), err)
	}
	procI = -1
	nHave := 0
	for p, have := range haveMesh {
		if have {
			nHave++
			procI = p
		}
	}
	if nHave != 1 {
		procI = -1
	}
	return
}

// procBounds is the inflated bounding box of a local mesh, empty when the
// mesh has no cells
func procBounds(m *mesh.Mesh) geometry3D.BoundBox {
	return m.Bounds().Inflate(procBoundsInflation)
}

// distributionPlan says which local target cells go to which processor.
// Every processor whose source cells may overlap a target cell receives it.
type distributionPlan struct {
	SrcBounds []geometry3D.BoundBox // Per processor
	TgtBounds []geometry3D.BoundBox // Per processor
	Donors    []int                 // Processors whose target cells may reach my source cells
	Map       *parallel.GlobalMap   // Target cells sent, received fragment slots
}

// calcProcMap builds the distribution plan from processor bounding boxes
func calcProcMap(c *parallel.Comm, src, tgt *mesh.Mesh, log logrus.FieldLogger) (plan *distributionPlan, err error) {
	plan = &distributionPlan{}
	if plan.SrcBounds, err = parallel.AllGather(c, procBounds(src)); err != nil {
		return nil, distributionError("plan", c.Rank(), err)
	}
	if plan.TgtBounds, err = parallel.AllGather(c, procBounds(tgt)); err != nil {
		return nil, distributionError("plan", c.Rank(), err)
	}
	mySrc := plan.SrcBounds[c.Rank()]
	for p, bb := range plan.TgtBounds {
		if bb.Overlaps(mySrc) {
			plan.Donors = append(plan.Donors, p)
		}
	}
	sendMap := make([][]int, c.NP())
	for p := range sendMap {
		sendMap[p] = []int{}
	}
	for tgtI, cb := range tgt.CellBounds {
		for p, bb := range plan.SrcBounds {
			if cb.Overlaps(bb) {
				sendMap[p] = append(sendMap[p], tgtI)
			}
		}
	}
	if plan.Map, err = parallel.NewGlobalMap(c, sendMap); err != nil {
		return nil, distributionError("plan", c.Rank(), err)
	}
	log.WithFields(logrus.Fields{
		"donors":   plan.Donors,
		"received": plan.Map.ConstructSize,
	}).Debug("Distribution plan built")
	log.Debugf("Distribution plan: %# v", pretty.Formatter(plan))
	return
}
