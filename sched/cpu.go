package sched

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RequestCPU asks for one tick of CPU on behalf of worker id, which has
// remaining units left in its current burst (remaining included this tick).
//
// The call returns once the worker has been granted and has executed exactly
// one tick, with the CPU clock value at the end of that tick. A remaining of
// zero is the burst completion notice: it withdraws the worker from the ready
// structures and returns ceil(at) without waiting for anyone.
//
// Parameters:
//   - at: virtual time of the request, normally the tick the previous call returned
//   - id: the calling worker
//   - remaining: units left in the burst, counting down to 0
func (e *Engine) RequestCPU(at float64, id, remaining int) (int, error) {
	if remaining < 0 {
		return 0, fmt.Errorf("%w: negative remaining burst %d", ErrInvalidArgument, remaining)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.lookup(id)
	if err != nil {
		return 0, err
	}

	w.remaining = remaining
	if remaining == 0 {
		e.selector.retire(w)
		w.lastRemaining = 0
		return ceilTick(at), nil
	}

	holding := e.cpuHolder == w
	if e.selector.arrive(w, at, w.startsBurst(remaining), holding) {
		e.cpuHolder = nil
	}

	if err := e.join(w); err != nil {
		return 0, err
	}
	defer e.leave(w)

	if e.cpuHolder == nil {
		e.dispatch(true)
	}
	if err := e.sleep(w, func() bool { return e.cpuHolder == w }); err != nil {
		return 0, err
	}

	e.clk.advanceCPU(ceilTick(at))
	e.clk.advanceCPU(e.clk.cpu + 1)
	w.remaining--
	w.lastRemaining = w.remaining

	if e.selector.granted(w, at) && e.cpuHolder == w {
		e.trace("quantum expired", logrus.Fields{"worker": id, "level": w.level})
		e.cpuHolder = nil
	}

	e.emit(EventCPU, w, e.clk.cpu, -1)
	return e.clk.cpu, nil
}
