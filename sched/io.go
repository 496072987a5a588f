package sched

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RequestIO runs an I/O burst of duration ticks for worker id on the single
// I/O device and returns the tick at which it completes.
//
// The device is served in FIFO order, requests released together ordered by
// identity, and each burst holds it as one block:
// it starts at the later of the I/O clock and ceil(at). A worker holding the
// CPU gives it up first.
func (e *Engine) RequestIO(at float64, id, duration int) (int, error) {
	if duration < 0 {
		return 0, fmt.Errorf("%w: negative I/O duration %d", ErrInvalidArgument, duration)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	if err := e.join(w); err != nil {
		return 0, err
	}
	defer e.leave(w)

	if e.cpuHolder == w {
		e.cpuHolder = nil
		e.dispatch(false)
	}

	w.state = StateBlockedIO
	from := 0
	if e.ioHolder != nil {
		from = 1
	}
	e.ioQueue.insert(w, from, func(m *worker) bool {
		return m.phase == w.phase && m.id > w.id
	})

	// The device is only handed out once every request of this phase is queued.
	e.settle(w)
	if err := e.barrier.awaitSettled(w.phase); err != nil {
		e.ioQueue.remove(w)
		return 0, err
	}
	if e.ioHolder == nil {
		e.ioHolder = e.ioQueue.peek()
		if e.ioHolder != w {
			e.ioHolder.wake.Signal()
		}
	}
	if err := e.sleep(w, func() bool { return e.ioHolder == w }); err != nil {
		e.ioQueue.remove(w)
		return 0, err
	}

	start := max(e.clk.io, ceilTick(at))
	done := start + duration
	e.clk.advanceIO(done)
	e.trace("io burst", logrus.Fields{"worker": id, "start": start, "done": done})

	e.ioQueue.pop()
	e.ioHolder = e.ioQueue.peek()
	if e.ioHolder != nil {
		e.ioHolder.wake.Signal()
	}

	w.state = StateReady
	e.emit(EventIO, w, done, -1)
	return done, nil
}
