package sched

import "sync"

// worker is the control block the engine keeps for one simulated worker.
// All fields are guarded by the engine mutex.
type worker struct {
	id    int
	state State

	// remaining is the number of units left in the current CPU burst.
	remaining int
	// lastRemaining is what remained after the previous granted tick; a request
	// with more remaining than this (or after a finished burst) starts a new burst.
	lastRemaining int
	// readyTick is the virtual time the worker became eligible for the CPU.
	readyTick float64
	// wakeTick is the tick at which a semaphore signal released the worker.
	wakeTick int

	// settling is set between a successful barrier join and the worker's
	// first suspension or exit from the handler.
	settling bool
	// phase is the barrier generation the worker's current request was
	// released in.
	phase uint64

	// MLFQ bookkeeping, reset whenever a new burst begins.
	level       int
	quantumUsed int

	// wake is the worker's private wait slot; it shares the engine mutex.
	wake *sync.Cond
}

func newWorker(id int, mu *sync.Mutex) *worker {
	return &worker{
		id:            id,
		state:         StateReady,
		lastRemaining: -1,
		wake:          sync.NewCond(mu),
	}
}

// startsBurst reports whether a request for remaining units begins a new CPU
// burst rather than continuing the current one.
func (w *worker) startsBurst(remaining int) bool {
	return w.lastRemaining <= 0 || remaining > w.lastRemaining
}

func (w *worker) resetFeedback() {
	w.level = 0
	w.quantumUsed = 0
}
