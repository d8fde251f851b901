package parallel

import (
	"fmt"
	"sort"
)

// GlobalIndex numbers items held by each processor consecutively by rank,
// the i-th item of processor p having global id Offset(p)+i
type GlobalIndex struct {
	offsets []int
}

// NewGlobalIndex gathers the local sizes of every processor
func NewGlobalIndex(c *Comm, localSize int) (gi *GlobalIndex, err error) {
	var sizes []int
	if sizes, err = AllGather(c, localSize); err != nil {
		return
	}
	return NewGlobalIndexFromSizes(sizes), nil
}

func NewGlobalIndexFromSizes(sizes []int) (gi *GlobalIndex) {
	gi = &GlobalIndex{offsets: make([]int, len(sizes)+1)}
	for p, n := range sizes {
		gi.offsets[p+1] = gi.offsets[p] + n
	}
	return
}

// Size is the total number of items over all processors
func (gi *GlobalIndex) Size() int { return gi.offsets[len(gi.offsets)-1] }

func (gi *GlobalIndex) NP() int { return len(gi.offsets) - 1 }

func (gi *GlobalIndex) Offset(proc int) int { return gi.offsets[proc] }

func (gi *GlobalIndex) LocalSize(proc int) int {
	return gi.offsets[proc+1] - gi.offsets[proc]
}

func (gi *GlobalIndex) ToGlobal(proc, i int) int { return gi.offsets[proc] + i }

func (gi *GlobalIndex) ToLocal(proc, globalI int) int { return globalI - gi.offsets[proc] }

func (gi *GlobalIndex) IsLocal(proc, globalI int) bool {
	return globalI >= gi.offsets[proc] && globalI < gi.offsets[proc+1]
}

// WhichProc returns the processor holding globalI
func (gi *GlobalIndex) WhichProc(globalI int) int {
	if globalI < 0 || globalI >= gi.Size() {
		panic(fmt.Errorf("global index %d out of range [0,%d)", globalI, gi.Size()))
	}
	// First offset beyond globalI, skipping processors without items
	return sort.Search(len(gi.offsets), func(p int) bool {
		return gi.offsets[p] > globalI
	}) - 1
}

// SplitEvenly divides n items into parts contiguous ranges [start, end)
// whose sizes differ by at most one, the larger ones first
func SplitEvenly(n, parts int) (ranges [][2]int) {
	ranges = make([][2]int, parts)
	var (
		nPart     = n / parts
		remainder = n % parts
	)
	for p := 0; p < parts; p++ {
		var startAdd, endAdd int
		if remainder != 0 {
			if p+1 > remainder {
				startAdd = remainder
			} else {
				startAdd = p
				endAdd = 1
			}
		}
		ranges[p][0] = p*nPart + startAdd
		ranges[p][1] = ranges[p][0] + nPart + endAdd
	}
	return
}
