package sched

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Engine coordinates the simulated workers of one run. Each worker is driven
// by its own goroutine that calls the operation handlers (RequestCPU,
// RequestIO, SemaphoreWait, SemaphoreSignal, End); the engine blocks those
// goroutines so that exactly one of them holds the CPU and one the I/O device
// at any virtual instant.
//
// All state is guarded by a single mutex that is held for the whole of each
// handler and only released while a worker sleeps.
type Engine struct {
	mu sync.Mutex

	policy   Policy
	selector selector
	workers  []*worker
	ioQueue  *waitQueue
	sems     *semaphoreBank
	signals  *signalOrder
	barrier  *barrier
	clk      *clocks

	cpuHolder *worker
	ioHolder  *worker

	log      *logrus.Entry
	observer func(Event)

	err    error
	closed bool
}

// New allocates an engine for workerCount workers, identified 0..workerCount-1,
// all starting Ready with both clocks at zero.
//
// Parameters:
//   - policy: the CPU scheduling policy for the whole run
//   - workerCount: number of workers; every one of them must eventually call End
//   - opts: semaphore bank size and initial values, MLFQ quanta, logger, observer
//
// Returns:
//   - *Engine: ready to accept operations from the worker goroutines
//   - error: ErrInvalidPolicy, ErrInvalidWorkerCount or ErrUnknownSemaphore
func New(policy Policy, workerCount int, opts ...Option) (*Engine, error) {
	if !policy.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}
	if workerCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, workerCount)
	}

	cfg := newConfig(opts...)
	sems, err := newSemaphoreBank(cfg.semaphoreCount, workerCount, cfg.semaphoreInit)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		policy:   policy,
		selector: newSelector(policy, workerCount, cfg.quanta),
		ioQueue:  newWaitQueue("io", workerCount),
		sems:     sems,
		signals:  &signalOrder{},
		log:      cfg.logger.WithField("policy", string(policy)),
		observer: cfg.observer,
	}
	e.barrier = newBarrier(&e.mu, workerCount)
	e.clk = newClocks(&e.mu)
	e.workers = make([]*worker, workerCount)
	for i := range e.workers {
		e.workers[i] = newWorker(i, &e.mu)
	}
	return e, nil
}

// Close tears the engine down. It fails with ErrWorkersActive while any
// worker has not called End, unless the run was aborted. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	if e.err == nil && e.barrier.active > 0 {
		return fmt.Errorf("%w: %d", ErrWorkersActive, e.barrier.active)
	}
	e.closed = true
	e.workers = nil
	e.cpuHolder, e.ioHolder = nil, nil
	return nil
}

// Abort fails the run: every blocked operation returns an error wrapping
// ErrAborted, as does every later call. Use it when a driver gives up on a
// run, since workers parked in the engine would otherwise wait forever.
func (e *Engine) Abort(cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return
	}
	e.err = fmt.Errorf("%w: %v", ErrAborted, cause)
	e.barrier.breakWith(e.err)
	e.clk.tick.Broadcast()
	for _, w := range e.workers {
		w.wake.Broadcast()
	}
	e.log.WithError(cause).Warn("scheduler run aborted")
}

// Policy returns the policy the engine was created with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Now returns the CPU and I/O clocks.
func (e *Engine) Now() (cpuTick, ioTick int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clk.cpu, e.clk.io
}

// State returns the lifecycle state of worker id.
func (e *Engine) State(id int) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrEngineClosed
	}
	if id < 0 || id >= len(e.workers) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownWorker, id)
	}
	return e.workers[id].state, nil
}

// End terminates worker id. If it held the CPU the next worker is chosen and
// woken, and the rendezvous quorum shrinks by one.
func (e *Engine) End(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.lookup(id)
	if err != nil {
		return err
	}

	w.state = StateTerminated
	e.selector.retire(w)
	if e.cpuHolder == w {
		e.cpuHolder = nil
		e.dispatch(false)
	}
	e.barrier.retire()
	e.clk.tick.Broadcast()

	e.trace("worker terminated", logrus.Fields{"worker": id, "active": e.barrier.active})
	e.emit(EventEnd, w, e.clk.cpu, -1)
	return nil
}

// lookup validates an operation issued by worker id. Callers hold e.mu.
func (e *Engine) lookup(id int) (*worker, error) {
	switch {
	case e.err != nil:
		return nil, e.err
	case e.closed:
		return nil, ErrEngineClosed
	case id < 0 || id >= len(e.workers):
		return nil, fmt.Errorf("%w: %d", ErrUnknownWorker, id)
	}
	w := e.workers[id]
	if w.state == StateTerminated {
		return nil, fmt.Errorf("%w: %d", ErrWorkerTerminated, id)
	}
	return w, nil
}

// dispatch hands the free CPU to the worker the policy selects and wakes it.
// When required is set the policy must produce a worker: an empty choice
// then means the wait structures are inconsistent, which is fatal.
func (e *Engine) dispatch(required bool) *worker {
	next := e.selector.next(e.clk)
	if next == nil {
		if required {
			panic(fmt.Sprintf("sched: %s policy found no ready worker for a pending CPU request", e.policy))
		}
		return nil
	}
	next.state = StateRunning
	e.cpuHolder = next
	next.wake.Signal()
	e.trace("cpu dispatched", logrus.Fields{
		"worker":     next.id,
		"ready_tick": next.readyTick,
		"remaining":  next.remaining,
		"level":      next.level,
	})
	return next
}

// join enters the rendezvous for w's current request.
func (e *Engine) join(w *worker) error {
	if err := e.barrier.join(); err != nil {
		return err
	}
	w.settling = true
	w.phase = e.barrier.generation
	return nil
}

// settle marks w's request as applied, letting the next phase form.
func (e *Engine) settle(w *worker) {
	if w.settling {
		w.settling = false
		e.barrier.settle()
	}
}

// leave ends w's part in the rendezvous once its handler returns.
func (e *Engine) leave(w *worker) {
	e.settle(w)
	e.barrier.leave()
}

// sleep parks w on its private wait slot until done reports true or the run
// is aborted. Reaching it settles w's request.
func (e *Engine) sleep(w *worker, done func() bool) error {
	e.settle(w)
	for !done() {
		if e.err != nil {
			return e.err
		}
		w.wake.Wait()
	}
	return nil
}

func (e *Engine) emit(kind EventKind, w *worker, tick, sem int) {
	if e.observer != nil {
		e.observer(Event{Kind: kind, Worker: w.id, Tick: tick, Semaphore: sem})
	}
}
