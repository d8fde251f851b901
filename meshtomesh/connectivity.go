package meshtomesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/notargets/meshmap/parallel"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteConnectivity writes an OBJ file of line segments joining the centre
// of every local source cell to the centres of the target cells it
// overlaps. Collective in parallel runs, each processor writes its own
// cells.
func (e *MeshToMesh) WriteConnectivity(w io.Writer) (err error) {
	var tgtCentres []r3.Vec
	if tgtCentres, err = parallel.Distribute(e.comm, e.tgtMap, e.tgt.Centroids); err != nil {
		return
	}
	bw := bufio.NewWriter(w)
	nPoints := 0
	for srcI, row := range e.srcToTgtWork {
		if len(row) == 0 {
			continue
		}
		sc := e.src.Centroids[srcI]
		fmt.Fprintf(bw, "v %g %g %g\n", sc.X, sc.Y, sc.Z)
		srcPt := nPoints + 1
		nPoints++
		for _, k := range row {
			tc := tgtCentres[k]
			fmt.Fprintf(bw, "v %g %g %g\n", tc.X, tc.Y, tc.Z)
			nPoints++
			fmt.Fprintf(bw, "l %d %d\n", srcPt, nPoints)
		}
	}
	return bw.Flush()
}
