package meshtomesh

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// rowStats summarises the normalised row sums of one table
type rowStats struct {
	Rows    int
	Min     float64
	Max     float64
	Clamped int
}

// normaliseWeights divides every row by the volume of the cell owning it.
// Rows summing above 1+tol are rescaled to sum to one. Rows are then sorted
// by the global id of the cells they address.
func normaliseWeights(addr [][]int, wght [][]float64, cellVolumes []float64, tol float64) (st rowStats) {
	st.Min, st.Max = math.Inf(1), math.Inf(-1)
	for cellI := range addr {
		if len(addr[cellI]) == 0 {
			continue
		}
		vol := cellVolumes[cellI]
		if vol <= 0 {
			addr[cellI], wght[cellI] = nil, nil
			continue
		}
		divide(wght[cellI], vol)
		sum := floats.Sum(wght[cellI])
		if sum > 1+tol {
			divide(wght[cellI], sum)
			sum = floats.Sum(wght[cellI])
			st.Clamped++
		}
		sortRow(addr[cellI], wght[cellI])
		st.Rows++
		st.Min = math.Min(st.Min, sum)
		st.Max = math.Max(st.Max, sum)
	}
	if st.Rows == 0 {
		st.Min, st.Max = 0, 0
	}
	return
}

// divide keeps a weight equal to the divisor exactly one
func divide(w []float64, d float64) {
	for i := range w {
		w[i] /= d
	}
}

type row struct {
	addr []int
	wght []float64
}

func (r row) Len() int           { return len(r.addr) }
func (r row) Less(i, j int) bool { return r.addr[i] < r.addr[j] }
func (r row) Swap(i, j int) {
	r.addr[i], r.addr[j] = r.addr[j], r.addr[i]
	r.wght[i], r.wght[j] = r.wght[j], r.wght[i]
}

func sortRow(addr []int, wght []float64) {
	sort.Sort(row{addr, wght})
}
