// Package meshtomesh computes the cell addressing and interpolation weights
// between two overlapping 3D meshes and uses them to transfer cell fields.
//
// A MeshToMesh is built once from a source and a target mesh. In a parallel
// run every processor calls New with its own parts of both meshes and the
// same method, and every processor must take part in the field transfers.
// Addresses in the tables are global cell ids of the other mesh, numbered
// consecutively by processor rank (see parallel.GlobalIndex).
package meshtomesh

import (
	"fmt"

	"github.com/notargets/meshmap/mesh"
	"github.com/notargets/meshmap/parallel"
	"github.com/sirupsen/logrus"
)

// MeshToMesh holds the addressing and weights between a source and a target
// mesh. Everything is computed in New and is read only afterwards.
type MeshToMesh struct {
	comm   *parallel.Comm
	src    *mesh.Mesh
	tgt    *mesh.Mesh
	method InterpolationMethod
	tol    float64
	log    logrus.FieldLogger

	singleMeshProc int
	srcGI, tgtGI   *parallel.GlobalIndex

	srcToTgtCellAddr [][]int
	srcToTgtCellWght [][]float64
	tgtToSrcCellAddr [][]int
	tgtToSrcCellWght [][]float64
	v                float64

	// Field transfer plans: srcMap brings the source values addressed by
	// tgtToSrc rows to this processor, stored at the positions in tgtToSrcWork
	srcMap, tgtMap             *parallel.GlobalMap
	tgtToSrcWork, srcToTgtWork [][]int
}

// New computes the addressing between src and tgt. A nil comm runs on a
// single processor and a nil cfg uses DefaultConfig. In parallel runs New is
// collective and any distribution failure is returned on every processor.
func New(comm *parallel.Comm, src, tgt *mesh.Mesh, method InterpolationMethod, cfg *Config) (e *MeshToMesh, err error) {
	if comm == nil {
		comm = parallel.Serial()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if err = c.validate(); err != nil {
		return
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	if src == nil || tgt == nil {
		return nil, fmt.Errorf("%w: source and target meshes are required", ErrConfiguration)
	}
	e = &MeshToMesh{
		comm:   comm,
		src:    src,
		tgt:    tgt,
		method: method,
		tol:    c.Tolerance,
		log:    c.Logger.WithField("proc", comm.Rank()),
	}
	if err = e.calcAddressing(); err != nil {
		return nil, err
	}
	return
}

func (e *MeshToMesh) calcAddressing() (err error) {
	e.log.WithFields(logrus.Fields{
		"method":   e.method,
		"srcCells": e.src.NumElements,
		"tgtCells": e.tgt.NumElements,
	}).Debug("Creating mesh to mesh addressing")

	if e.singleMeshProc, err = calcDistribution(e.comm, e.src, e.tgt); err != nil {
		return
	}
	if e.srcGI, err = parallel.NewGlobalIndex(e.comm, e.src.NumElements); err != nil {
		return distributionError("global numbering", e.comm.Rank(), err)
	}
	if e.tgtGI, err = parallel.NewGlobalIndex(e.comm, e.tgt.NumElements); err != nil {
		return distributionError("global numbering", e.comm.Rank(), err)
	}

	var localV float64
	if e.singleMeshProc == -1 {
		e.log.Debug("Meshes are split across processors")
		if localV, err = e.calcDistributedAddressing(); err != nil {
			return
		}
	} else {
		e.log.WithField("singleMeshProc", e.singleMeshProc).Debug("Both meshes held by one processor")
		localV = e.calcLocalAddressing()
	}

	srcStats := normaliseWeights(e.srcToTgtCellAddr, e.srcToTgtCellWght, e.src.Volumes, e.tol)
	tgtStats := normaliseWeights(e.tgtToSrcCellAddr, e.tgtToSrcCellWght, e.tgt.Volumes, e.tol)
	e.log.WithFields(logrus.Fields{
		"rows":    srcStats.Rows,
		"min":     srcStats.Min,
		"max":     srcStats.Max,
		"clamped": srcStats.Clamped,
	}).Debug("Source weight sums")
	e.log.WithFields(logrus.Fields{
		"rows":    tgtStats.Rows,
		"min":     tgtStats.Min,
		"max":     tgtStats.Max,
		"clamped": tgtStats.Clamped,
	}).Debug("Target weight sums")

	if e.v, err = parallel.AllReduceSum(e.comm, localV); err != nil {
		return distributionError("overlap volume", e.comm.Rank(), err)
	}
	if err = e.buildFieldMaps(); err != nil {
		return
	}
	e.log.WithField("V", e.v).Debug("Overlap volume")
	return
}

// calcLocalAddressing handles both meshes on one processor, where local and
// global cell ids coincide. Other processors hold no cells.
func (e *MeshToMesh) calcLocalAddressing() float64 {
	if e.comm.Rank() != e.singleMeshProc {
		e.setTables(newAddressing(e.src.NumElements, e.tgt.NumElements))
		return 0
	}
	a := calcAddressing(e.src, e.tgt, e.method, e.tol, e.log)
	e.setTables(a)
	return a.V
}

func (e *MeshToMesh) setTables(a addressing) {
	e.srcToTgtCellAddr = a.srcToTgtAddr
	e.srcToTgtCellWght = a.srcToTgtWght
	e.tgtToSrcCellAddr = a.tgtToSrcAddr
	e.tgtToSrcCellWght = a.tgtToSrcWght
}

// tgtRow carries the target to source row found for one shipped target cell
// back to the processor owning it
type tgtRow struct {
	TgtID   int
	SrcIDs  []int
	Weights []float64
}

// calcDistributedAddressing brings the target cells that may overlap local
// source cells here, maps against them and returns the target rows to their
// owners
func (e *MeshToMesh) calcDistributedAddressing() (localV float64, err error) {
	var (
		rank   = e.comm.Rank()
		plan   *distributionPlan
		merged *mergedMesh
	)
	if plan, err = calcProcMap(e.comm, e.src, e.tgt, e.log); err != nil {
		return
	}
	if merged, err = distributeCells(e.comm, e.tgt, e.tgtGI, plan); err != nil {
		return
	}
	e.log.WithField("cells", merged.NumElements).Debug("Merged target fragments")

	a := calcAddressing(e.src, merged.Mesh, e.method, e.tol, e.log)

	// Source rows address global target ids
	for srcI, row := range a.srcToTgtAddr {
		for j, tgtI := range row {
			a.srcToTgtAddr[srcI][j] = merged.CellIDs[tgtI]
		}
	}
	e.srcToTgtCellAddr = a.srcToTgtAddr
	e.srcToTgtCellWght = a.srcToTgtWght

	// Target rows go back to the owning processors with global source ids
	send := make([][]tgtRow, e.comm.NP())
	for tgtI, row := range a.tgtToSrcAddr {
		if len(row) == 0 {
			continue
		}
		srcIDs := make([]int, len(row))
		for j, srcI := range row {
			srcIDs[j] = e.srcGI.ToGlobal(rank, srcI)
		}
		donor := merged.DonorProc[tgtI]
		send[donor] = append(send[donor], tgtRow{
			TgtID:   merged.CellIDs[tgtI],
			SrcIDs:  srcIDs,
			Weights: a.tgtToSrcWght[tgtI],
		})
	}
	var recv [][]tgtRow
	if recv, err = parallel.AllToAll(e.comm, send); err != nil {
		return 0, distributionError("return rows", rank, err)
	}
	e.tgtToSrcCellAddr = make([][]int, e.tgt.NumElements)
	e.tgtToSrcCellWght = make([][]float64, e.tgt.NumElements)
	for p, rows := range recv {
		for _, r := range rows {
			if !e.tgtGI.IsLocal(rank, r.TgtID) {
				return 0, distributionError("return rows", rank,
					fmt.Errorf("processor %d returned row for cell %d not held here", p, r.TgtID))
			}
			tgtI := e.tgtGI.ToLocal(rank, r.TgtID)
			e.tgtToSrcCellAddr[tgtI] = append(e.tgtToSrcCellAddr[tgtI], r.SrcIDs...)
			e.tgtToSrcCellWght[tgtI] = append(e.tgtToSrcCellWght[tgtI], r.Weights...)
		}
	}
	return a.V, nil
}

// buildFieldMaps prepares, for each direction, the exchange bringing the
// values addressed by local rows to this processor
func (e *MeshToMesh) buildFieldMaps() (err error) {
	if e.srcMap, e.tgtToSrcWork, err = buildFieldMap(e.comm, e.tgtToSrcCellAddr, e.srcGI); err != nil {
		return distributionError("field map", e.comm.Rank(), err)
	}
	if e.tgtMap, e.srcToTgtWork, err = buildFieldMap(e.comm, e.srcToTgtCellAddr, e.tgtGI); err != nil {
		return distributionError("field map", e.comm.Rank(), err)
	}
	return
}

// buildFieldMap requests the items addressed by rows from the processors
// owning them and returns the rows rewritten as positions in the
// distributed work array
func buildFieldMap(c *parallel.Comm, rows [][]int, owner *parallel.GlobalIndex) (gm *parallel.GlobalMap,
	work [][]int, err error) {
	var (
		requests = make([][]int, c.NP())
		seen     = make(map[int]bool)
	)
	for p := range requests {
		requests[p] = []int{}
	}
	for _, row := range rows {
		for _, id := range row {
			if !seen[id] {
				seen[id] = true
				p := owner.WhichProc(id)
				requests[p] = append(requests[p], id)
			}
		}
	}
	var asked [][]int
	if asked, err = parallel.AllToAll(c, requests); err != nil {
		return
	}
	sendMap := make([][]int, c.NP())
	for p, ids := range asked {
		sendMap[p] = make([]int, len(ids))
		for i, id := range ids {
			if !owner.IsLocal(c.Rank(), id) {
				return nil, nil, fmt.Errorf("processor %d asked for cell %d not held here", p, id)
			}
			sendMap[p][i] = owner.ToLocal(c.Rank(), id)
		}
	}
	if gm, err = parallel.NewGlobalMap(c, sendMap); err != nil {
		return
	}
	slot := make(map[int]int, len(seen))
	for p, ids := range requests {
		for i, id := range ids {
			slot[id] = gm.ConstructMap[p][i]
		}
	}
	work = make([][]int, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		work[i] = make([]int, len(row))
		for j, id := range row {
			work[i][j] = slot[id]
		}
	}
	return
}

// SrcToTgtCellAddr lists, per local source cell, the global ids of the
// overlapping target cells in increasing order. Must not be modified.
func (e *MeshToMesh) SrcToTgtCellAddr() [][]int { return e.srcToTgtCellAddr }

// TgtToSrcCellAddr lists, per local target cell, the global ids of the
// overlapping source cells in increasing order. Must not be modified.
func (e *MeshToMesh) TgtToSrcCellAddr() [][]int { return e.tgtToSrcCellAddr }

// SrcToTgtCellWght holds the fraction of each source cell covered by the
// target cell at the same position of SrcToTgtCellAddr
func (e *MeshToMesh) SrcToTgtCellWght() [][]float64 { return e.srcToTgtCellWght }

// TgtToSrcCellWght holds the fraction of each target cell covered by the
// source cell at the same position of TgtToSrcCellAddr
func (e *MeshToMesh) TgtToSrcCellWght() [][]float64 { return e.tgtToSrcCellWght }

// V is the total overlap volume over all processors
func (e *MeshToMesh) V() float64 { return e.v }

func (e *MeshToMesh) Method() InterpolationMethod { return e.method }

func (e *MeshToMesh) Tolerance() float64 { return e.tol }

// SingleMeshProc is the processor holding both meshes, or -1 when they are
// split
func (e *MeshToMesh) SingleMeshProc() int { return e.singleMeshProc }

func (e *MeshToMesh) SrcGlobalIndex() *parallel.GlobalIndex { return e.srcGI }

func (e *MeshToMesh) TgtGlobalIndex() *parallel.GlobalIndex { return e.tgtGI }

// UnmappedSrcCells lists the local source cells with no overlapping target
// cell
func (e *MeshToMesh) UnmappedSrcCells() []int { return emptyRows(e.srcToTgtCellAddr) }

// UnmappedTgtCells lists the local target cells with no overlapping source
// cell
func (e *MeshToMesh) UnmappedTgtCells() []int { return emptyRows(e.tgtToSrcCellAddr) }

func emptyRows(addr [][]int) (cells []int) {
	for i, row := range addr {
		if len(row) == 0 {
			cells = append(cells, i)
		}
	}
	return
}
