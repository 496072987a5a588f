package sched

import "sync"

// barrier is the rendezvous every scheduling relevant operation passes before
// a decision is made.
//
// arrived counts workers currently inside an operation handler. A decision is
// only taken once every active worker is inside, which means every worker has
// issued its request for the current instant. Workers parked on a semaphore
// stay counted as arrived, so they never hold back a quorum while asleep.
//
// A release opens a phase. Every worker it released owes one settle, made
// when it first suspends after the barrier or leaves its handler. Until the
// phase is settled new callers are held outside the count, so no worker can
// form a later quorum while a released request has not yet been applied.
//
// The caller must hold the mutex the barrier was created with.
type barrier struct {
	cond *sync.Cond

	active  int
	arrived int
	// blocked counts workers asleep purely waiting for a semaphore signal.
	blocked int

	// waiting counts callers parked in join for the current generation.
	waiting int
	// unsettled counts released workers that have not settled yet.
	unsettled int

	// generation increments each time a quorum releases the waiters.
	generation uint64
	// settled is the latest generation whose released workers all settled.
	settled uint64
	broken     error
}

func newBarrier(mu *sync.Mutex, active int) *barrier {
	return &barrier{
		cond:   sync.NewCond(mu),
		active: active,
	}
}

func (b *barrier) quorum() bool {
	return b.arrived >= b.active
}

// join registers the caller as arrived and blocks until all active workers
// have arrived. A successful join must be matched by one settle. It returns
// a non-nil error only if the barrier was broken.
func (b *barrier) join() error {
	for b.unsettled > 0 {
		if b.broken != nil {
			return b.broken
		}
		b.cond.Wait()
	}
	if b.broken != nil {
		return b.broken
	}
	b.arrived++
	if b.quorum() {
		b.unsettled++
		b.release()
		return nil
	}

	gen := b.generation
	b.waiting++
	for gen == b.generation {
		if b.broken != nil {
			return b.broken
		}
		b.cond.Wait()
	}
	return b.broken
}

// release opens a new phase for every parked caller.
func (b *barrier) release() {
	b.unsettled += b.waiting
	b.waiting = 0
	b.generation++
	b.cond.Broadcast()
}

// settle reports that a released worker has applied its request.
func (b *barrier) settle() {
	b.unsettled--
	if b.unsettled < 0 {
		panic("sched: rendezvous settle without a release")
	}
	if b.unsettled == 0 {
		b.settled = b.generation
		b.cond.Broadcast()
	}
}

// awaitSettled blocks until every request released in generation gen has
// been applied.
func (b *barrier) awaitSettled(gen uint64) error {
	for b.settled < gen {
		if b.broken != nil {
			return b.broken
		}
		b.cond.Wait()
	}
	return b.broken
}

// leave ends the caller's current operation.
func (b *barrier) leave() {
	b.arrived--
	if b.arrived < 0 {
		panic("sched: rendezvous arrival count went negative")
	}
}

// park marks an arrived worker as asleep on a semaphore.
func (b *barrier) park() {
	b.blocked++
}

// unpark is called by the signalling worker when it releases a parked one.
// The released worker no longer counts as arrived until it actually resumes,
// so no quorum can form before it has finished its wait.
func (b *barrier) unpark() {
	b.blocked--
	b.arrived--
}

// resume re-registers a worker released by unpark. It does not release the
// barrier: the resumed worker's next request completes the quorum.
func (b *barrier) resume() {
	b.arrived++
}

// retire removes a terminated worker from the quorum target.
func (b *barrier) retire() {
	b.active--
	if b.quorum() && b.waiting > 0 {
		b.release()
		return
	}
	b.cond.Broadcast()
}

// contenders is the number of active workers not parked on a semaphore.
func (b *barrier) contenders() int {
	return b.active - b.blocked
}

func (b *barrier) breakWith(err error) {
	if b.broken == nil {
		b.broken = err
	}
	b.cond.Broadcast()
}
