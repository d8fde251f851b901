package parallel

import (
	"errors"
	"fmt"
	"sync"
)

// World is a group of NP processors, each run as a goroutine, that exchange
// data through a shared mailbox
type World struct {
	NP    int
	mb    *MailBox[any]
	comms []*Comm

	done      chan struct{}
	abortOnce sync.Once
	cause     error
}

func NewWorld(NP int) (w *World) {
	if NP < 1 {
		panic(fmt.Errorf("world needs at least one processor, have %d", NP))
	}
	w = &World{
		NP:    NP,
		done:  make(chan struct{}),
		comms: make([]*Comm, NP),
	}
	w.mb = NewMailBox[any](NP, w.done)
	for n := 0; n < NP; n++ {
		w.comms[n] = &Comm{w: w, rank: n}
	}
	return
}

// Serial returns the communicator of a single processor world
func Serial() *Comm {
	return NewWorld(1).Comm(0)
}

func (w *World) Comm(rank int) *Comm { return w.comms[rank] }

// Abort releases every processor blocked in a communication. The first cause
// is kept and returned from Run.
func (w *World) Abort(err error) {
	w.abortOnce.Do(func() {
		w.cause = err
		close(w.done)
	})
}

func (w *World) aborted() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Run calls fn on every processor concurrently and waits for all of them. A
// processor returning an error or panicking aborts the others, and the
// originating error is returned rather than the ErrAborted seen elsewhere.
// A world cannot run again after it has been aborted.
func (w *World) Run(fn func(c *Comm) error) error {
	if w.aborted() {
		return ErrAborted
	}
	var (
		wg   sync.WaitGroup
		errs = make([]error, w.NP)
	)
	for n := 0; n < w.NP; n++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[rank] = fmt.Errorf("processor %d panicked: %v", rank, r)
					w.Abort(errs[rank])
				}
			}()
			if err := fn(w.comms[rank]); err != nil {
				errs[rank] = err
				w.Abort(err)
			}
		}(n)
	}
	wg.Wait()
	if w.cause != nil {
		return w.cause
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrAborted) {
			return err
		}
	}
	return nil
}
