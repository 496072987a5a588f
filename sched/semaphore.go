package sched

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// semaphore is a counting semaphore. value > 0 implies waiters is empty:
// a signal always wakes a waiter before it increments the counter.
type semaphore struct {
	value   int
	waiters []*worker
	limit   int
}

// wakeLowest removes and returns the waiter with the lowest identity.
func (s *semaphore) wakeLowest() *worker {
	if len(s.waiters) == 0 {
		return nil
	}
	idx := 0
	for i, w := range s.waiters {
		if w.id < s.waiters[idx].id {
			idx = i
		}
	}
	w := s.waiters[idx]
	s.waiters = slices.Delete(s.waiters, idx, idx+1)
	return w
}

func (s *semaphore) block(w *worker) {
	if len(s.waiters) >= s.limit {
		panic(fmt.Sprintf("sched: semaphore waiter list over capacity (%d) adding worker %d", s.limit, w.id))
	}
	s.waiters = append(s.waiters, w)
}

type semaphoreBank struct {
	sems []*semaphore
}

func newSemaphoreBank(count, workers int, initial map[int]int) (*semaphoreBank, error) {
	bank := &semaphoreBank{sems: make([]*semaphore, count)}
	for i := range bank.sems {
		bank.sems[i] = &semaphore{limit: workers}
	}
	for id, v := range initial {
		if id >= count {
			return nil, fmt.Errorf("%w: initial value for %d, bank holds %d", ErrUnknownSemaphore, id, count)
		}
		bank.sems[id].value = v
	}
	return bank, nil
}

func (b *semaphoreBank) get(id int) (*semaphore, error) {
	if id < 0 || id >= len(b.sems) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSemaphore, id)
	}
	return b.sems[id], nil
}

// pendingSignal is a signal held back by the ordering guard.
type pendingSignal struct {
	tick   int
	worker int
}

// signalOrder tracks the signals waiting for the CPU clock to reach their
// tick. Signals leave in (tick, worker) order.
type signalOrder struct {
	pending []pendingSignal
}

func (o *signalOrder) add(p pendingSignal) {
	o.pending = append(o.pending, p)
}

func (o *signalOrder) remove(p pendingSignal) {
	if i := slices.Index(o.pending, p); i >= 0 {
		o.pending = slices.Delete(o.pending, i, i+1)
	}
}

func (o *signalOrder) first() pendingSignal {
	return slices.MinFunc(o.pending, func(a, b pendingSignal) int {
		if a.tick != b.tick {
			return a.tick - b.tick
		}
		return a.worker - b.worker
	})
}

// SemaphoreValue returns the counter of semaphore sem.
func (e *Engine) SemaphoreValue(sem int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrEngineClosed
	}
	s, err := e.sems.get(sem)
	if err != nil {
		return 0, err
	}
	return s.value, nil
}

// SemaphoreWait performs P on semaphore sem for worker id.
//
// If the counter is positive it is decremented, the CPU clock is brought up
// to ceil(at) and the call returns ceil(at) without blocking. Otherwise the
// worker gives up the CPU (if it held it) and sleeps until a signal picks it;
// the return value is then the tick of that signal.
func (e *Engine) SemaphoreWait(at float64, id, sem int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	s, err := e.sems.get(sem)
	if err != nil {
		return 0, err
	}
	if err := e.join(w); err != nil {
		return 0, err
	}
	defer e.leave(w)

	now := ceilTick(at)
	if s.value > 0 {
		s.value--
		e.clk.advanceCPU(now)
		e.emit(EventWait, w, now, sem)
		return now, nil
	}

	if e.cpuHolder == w {
		e.cpuHolder = nil
		e.dispatch(false)
	}
	w.state = StateBlockedSem
	s.block(w)
	e.barrier.park()
	// One fewer contender may satisfy a pending signal's guard.
	e.clk.tick.Broadcast()
	e.trace("semaphore wait blocked", logrus.Fields{"worker": id, "sem": sem})

	if err := e.sleep(w, func() bool { return w.state != StateBlockedSem }); err != nil {
		return 0, err
	}
	e.barrier.resume()
	e.clk.advanceCPU(now)

	e.emit(EventWait, w, w.wakeTick, sem)
	return w.wakeTick, nil
}

// SemaphoreSignal performs V on semaphore sem for worker id and returns
// ceil(at).
//
// A signal is not delivered before the CPU clock reaches ceil(at), unless the
// caller holds the CPU, and concurrent signals are delivered in (tick, worker)
// order. When every worker still contending is a held-back signal, the CPU
// clock jumps to the earliest of them. Delivery wakes the lowest identity
// waiter, or increments the counter when nobody waits.
func (e *Engine) SemaphoreSignal(at float64, id, sem int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	s, err := e.sems.get(sem)
	if err != nil {
		return 0, err
	}
	if err := e.join(w); err != nil {
		return 0, err
	}
	defer e.leave(w)

	now := ceilTick(at)
	if err := e.awaitSignalTurn(w, pendingSignal{tick: now, worker: id}); err != nil {
		return 0, err
	}

	if waiter := s.wakeLowest(); waiter != nil {
		waiter.wakeTick = now
		waiter.state = StateReady
		e.barrier.unpark()
		waiter.wake.Signal()
		e.trace("semaphore signal woke waiter", logrus.Fields{"worker": id, "sem": sem, "woken": waiter.id})
	} else {
		s.value++
	}

	e.emit(EventSignal, w, now, sem)
	return now, nil
}

// awaitSignalTurn blocks on the clock tick notification until the signal p
// may be delivered.
func (e *Engine) awaitSignalTurn(w *worker, p pendingSignal) error {
	e.signals.add(p)
	defer func() {
		e.signals.remove(p)
		e.clk.tick.Broadcast()
	}()

	for {
		if e.err != nil {
			return e.err
		}
		if e.cpuHolder == w {
			return nil
		}
		first := e.signals.first()
		if first == p && e.clk.cpu >= p.tick {
			return nil
		}
		if e.barrier.contenders() <= len(e.signals.pending) {
			e.trace("clock jump to pending signal", logrus.Fields{"worker": first.worker, "tick": first.tick})
			e.clk.advanceCPU(first.tick)
			if first == p {
				return nil
			}
		}
		e.settle(w)
		e.clk.tick.Wait()
	}
}
