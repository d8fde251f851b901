package parallel

import (
	"fmt"
)

// Comm is one processor's view of its world. A Comm must only be used from
// the goroutine running that processor.
type Comm struct {
	w    *World
	rank int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) NP() int   { return c.w.NP }

// Parallel is true when there is more than one processor
func (c *Comm) Parallel() bool { return c.w.NP > 1 }

// Master is true for processor zero
func (c *Comm) Master() bool { return c.rank == 0 }

// Abort fails the whole world with err
func (c *Comm) Abort(err error) { c.w.Abort(err) }

func (c *Comm) send(dest int, msg any) error {
	return c.w.mb.PostMessage(c.rank, dest, msg)
}

func (c *Comm) recv(from int) (any, error) {
	return c.w.mb.ReceiveMessage(c.rank, from)
}

func receive[T any](c *Comm, from int) (v T, err error) {
	var (
		msg any
		ok  bool
	)
	if msg, err = c.recv(from); err != nil {
		return
	}
	if v, ok = msg.(T); !ok {
		err = fmt.Errorf("processor %d expected %T from processor %d, received %T",
			c.rank, v, from, msg)
	}
	return
}

// Barrier blocks until every processor has reached it
func (c *Comm) Barrier() error {
	_, err := AllGather(c, struct{}{})
	return err
}

// AllGather returns the value contributed by every processor, indexed by
// rank
func AllGather[T any](c *Comm, v T) (all []T, err error) {
	all = make([]T, c.NP())
	all[c.rank] = v
	for p := 0; p < c.NP(); p++ {
		if p != c.rank {
			if err = c.send(p, v); err != nil {
				return nil, err
			}
		}
	}
	for p := 0; p < c.NP(); p++ {
		if p != c.rank {
			if all[p], err = receive[T](c, p); err != nil {
				return nil, err
			}
		}
	}
	return
}

// AllToAll sends send[p] to processor p and returns what each processor sent
// to this one
func AllToAll[T any](c *Comm, send []T) (recv []T, err error) {
	if len(send) != c.NP() {
		return nil, fmt.Errorf("all to all needs %d send buffers, have %d", c.NP(), len(send))
	}
	recv = make([]T, c.NP())
	recv[c.rank] = send[c.rank]
	for p := 0; p < c.NP(); p++ {
		if p != c.rank {
			if err = c.send(p, send[p]); err != nil {
				return nil, err
			}
		}
	}
	for p := 0; p < c.NP(); p++ {
		if p != c.rank {
			if recv[p], err = receive[T](c, p); err != nil {
				return nil, err
			}
		}
	}
	return
}

// AllReduceSum sums v over all processors. The sum is taken in rank order so
// every processor gets a bitwise identical result.
func AllReduceSum(c *Comm, v float64) (sum float64, err error) {
	var all []float64
	if all, err = AllGather(c, v); err != nil {
		return
	}
	for _, x := range all {
		sum += x
	}
	return
}

func AllReduceSumInt(c *Comm, v int) (sum int, err error) {
	var all []int
	if all, err = AllGather(c, v); err != nil {
		return
	}
	for _, x := range all {
		sum += x
	}
	return
}

// AllReduceOr is true on every processor when v is true on any
func AllReduceOr(c *Comm, v bool) (result bool, err error) {
	var all []bool
	if all, err = AllGather(c, v); err != nil {
		return
	}
	for _, x := range all {
		result = result || x
	}
	return
}
