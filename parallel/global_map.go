package parallel

import "fmt"

// GlobalMap describes a redistribution of items between processors.
// SendMap[p] lists the local items sent to processor p, and ConstructMap[p]
// the slots of the constructed array filled, in order, with what processor p
// sends. A slot filled by more than one processor keeps the last value.
type GlobalMap struct {
	ConstructSize int
	SendMap       [][]int
	ConstructMap  [][]int
}

// NewGlobalMap exchanges send sizes and lays out received items
// consecutively by source rank
func NewGlobalMap(c *Comm, sendMap [][]int) (gm *GlobalMap, err error) {
	if len(sendMap) != c.NP() {
		return nil, fmt.Errorf("send map has %d entries, have %d processors", len(sendMap), c.NP())
	}
	sendSizes := make([]int, c.NP())
	for p := range sendMap {
		sendSizes[p] = len(sendMap[p])
	}
	var recvSizes []int
	if recvSizes, err = AllToAll(c, sendSizes); err != nil {
		return
	}
	gm = &GlobalMap{
		SendMap:      sendMap,
		ConstructMap: make([][]int, c.NP()),
	}
	for p, n := range recvSizes {
		slots := make([]int, n)
		for i := range slots {
			slots[i] = gm.ConstructSize + i
		}
		gm.ConstructMap[p] = slots
		gm.ConstructSize += n
	}
	return
}

// Distribute sends local items following the map and returns the
// constructed array
func Distribute[T any](c *Comm, gm *GlobalMap, local []T) (result []T, err error) {
	send := make([][]T, c.NP())
	for p, items := range gm.SendMap {
		buf := make([]T, len(items))
		for i, k := range items {
			if k < 0 || k >= len(local) {
				return nil, fmt.Errorf("send map entry %d to processor %d out of range [0,%d)",
					k, p, len(local))
			}
			buf[i] = local[k]
		}
		send[p] = buf
	}
	var recv [][]T
	if recv, err = AllToAll(c, send); err != nil {
		return
	}
	result = make([]T, gm.ConstructSize)
	for p, slots := range gm.ConstructMap {
		if len(recv[p]) != len(slots) {
			return nil, fmt.Errorf("received %d items from processor %d, expected %d",
				len(recv[p]), p, len(slots))
		}
		for i, slot := range slots {
			result[slot] = recv[p][i]
		}
	}
	return
}
