package parallel

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by blocking operations once any processor of the
// world has failed
var ErrAborted = errors.New("parallel run aborted")

type envelope[T any] struct {
	From int
	Seq  uint64
	Msg  T
}

// MailBox carries messages between NP threads. Messages from one sender to
// one receiver are delivered in the order they were posted. Each thread may
// only touch its own row of the bookkeeping.
type MailBox[T any] struct {
	NP           int
	MessageChans []chan envelope[T] // One inbox for each thread
	sendSeq      [][]uint64         // [from][to]
	recvSeq      [][]uint64         // [to][from]
	pending      []map[int][]envelope[T]
	done         <-chan struct{}
}

// NewMailBox creates a mailbox whose blocking calls return ErrAborted once
// done is closed
func NewMailBox[T any](NP int, done <-chan struct{}) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan envelope[T], NP),
		sendSeq:      make([][]uint64, NP),
		recvSeq:      make([][]uint64, NP),
		pending:      make([]map[int][]envelope[T], NP),
		done:         done,
	}
	for n := 0; n < NP; n++ {
		// Collectives are all-to-all and a thread can run at most one step
		// ahead of the slowest receiver
		mb.MessageChans[n] = make(chan envelope[T], 2*NP+1)
		mb.sendSeq[n] = make([]uint64, NP)
		mb.recvSeq[n] = make([]uint64, NP)
		mb.pending[n] = make(map[int][]envelope[T])
	}
	return mb
}

func (mb *MailBox[T]) checkThread(thread int) error {
	if thread < 0 || thread >= mb.NP {
		return fmt.Errorf("thread %d out of bounds [0,%d)", thread, mb.NP)
	}
	return nil
}

// PostMessage sends msg from myThread to targetThread
func (mb *MailBox[T]) PostMessage(myThread, targetThread int, msg T) error {
	if err := mb.checkThread(targetThread); err != nil {
		return err
	}
	env := envelope[T]{
		From: myThread,
		Seq:  mb.sendSeq[myThread][targetThread],
		Msg:  msg,
	}
	mb.sendSeq[myThread][targetThread]++
	select {
	case mb.MessageChans[targetThread] <- env:
		return nil
	case <-mb.done:
		return ErrAborted
	}
}

// ReceiveMessage blocks until the next message from fromThread arrives.
// Messages from other threads that arrive first are held until asked for.
func (mb *MailBox[T]) ReceiveMessage(myThread, fromThread int) (msg T, err error) {
	if err = mb.checkThread(fromThread); err != nil {
		return
	}
	want := mb.recvSeq[myThread][fromThread]
	if q := mb.pending[myThread][fromThread]; len(q) > 0 && q[0].Seq == want {
		msg = q[0].Msg
		mb.pending[myThread][fromThread] = q[1:]
		mb.recvSeq[myThread][fromThread]++
		return
	}
	for {
		select {
		case env := <-mb.MessageChans[myThread]:
			if env.From == fromThread && env.Seq == want {
				mb.recvSeq[myThread][fromThread]++
				return env.Msg, nil
			}
			mb.pending[myThread][env.From] = append(mb.pending[myThread][env.From], env)
		case <-mb.done:
			err = ErrAborted
			return
		}
	}
}
