package sched

import "math"

// selector is the policy specific half of CPU scheduling. The engine drives
// the shared protocol (barrier, ownership, clock) and asks the selector to
// maintain its wait structures and pick the next holder.
//
// Any new policy must implement this. All methods run with the engine mutex held.
type selector interface {
	// arrive prepares w for contention when it requests the CPU at time at.
	// holding reports whether w currently owns the CPU. It returns true when
	// w must give up that ownership before the next decision.
	arrive(w *worker, at float64, newBurst, holding bool) (yield bool)

	// granted runs after w consumed one tick of a request made at time at.
	// It returns true when w must give up the CPU.
	granted(w *worker, at float64) (yield bool)

	// retire withdraws w from the wait structures (burst finished or terminated).
	retire(w *worker)

	// next picks the worker that should hold the CPU, or nil if nobody is
	// waiting. It may move the CPU clock forward to the earliest pending work.
	next(clk *clocks) *worker
}

// newSelector is the factory for the policy implementations.
func newSelector(p Policy, workers int, quanta [mlfqLevels]int) selector {
	switch p {
	case SRTF:
		return &srtfSelector{ready: newWaitQueue("ready", workers)}
	case MLFQ:
		s := &mlfqSelector{quanta: quanta}
		for lvl := range s.levels {
			s.levels[lvl] = newWaitQueue("mlfq", workers)
		}
		return s
	default:
		return &fcfsSelector{ready: newWaitQueue("ready", workers)}
	}
}

// earliest returns the candidate with the smallest readyTick, ties broken by
// the smallest identity.
func earliest(candidates []*worker) *worker {
	var best *worker
	for _, w := range candidates {
		if best == nil || w.readyTick < best.readyTick ||
			(w.readyTick == best.readyTick && w.id < best.id) {
			best = w
		}
	}
	return best
}

// shortest returns the candidate with the fewest remaining units, ties broken
// by the smallest identity.
func shortest(candidates []*worker) *worker {
	var best *worker
	for _, w := range candidates {
		if best == nil || w.remaining < best.remaining ||
			(w.remaining == best.remaining && w.id < best.id) {
			best = w
		}
	}
	return best
}

// readyBy filters the candidates eligible at the given tick.
func readyBy(candidates []*worker, tick int) []*worker {
	var out []*worker
	for _, w := range candidates {
		if w.readyTick <= float64(tick) {
			out = append(out, w)
		}
	}
	return out
}

// fcfsSelector runs whichever worker became ready first. A holder keeps the
// CPU until its burst ends.
type fcfsSelector struct {
	ready *waitQueue
}

func (s *fcfsSelector) arrive(w *worker, at float64, newBurst, holding bool) bool {
	yield := false
	if newBurst {
		w.readyTick = at
		if holding {
			yield, holding = true, false
		}
	}
	if !holding {
		s.ready.push(w)
		w.state = StateReady
	}
	return yield
}

func (s *fcfsSelector) granted(*worker, float64) bool { return false }

func (s *fcfsSelector) retire(w *worker) {
	s.ready.remove(w)
}

// next does not filter on readiness: arrival order already encodes eligibility.
func (s *fcfsSelector) next(*clocks) *worker {
	return earliest(s.ready.items())
}

// srtfSelector re-contends the CPU on every tick: each request releases the
// caller's ownership and the worker with the least remaining work wins.
type srtfSelector struct {
	ready *waitQueue
}

func (s *srtfSelector) arrive(w *worker, at float64, _, holding bool) bool {
	w.readyTick = at
	s.ready.push(w)
	w.state = StateReady
	return holding
}

func (s *srtfSelector) granted(w *worker, _ float64) bool {
	s.ready.remove(w)
	return false
}

func (s *srtfSelector) retire(w *worker) {
	s.ready.remove(w)
}

func (s *srtfSelector) next(clk *clocks) *worker {
	if s.ready.len() == 0 {
		return nil
	}
	if w := shortest(readyBy(s.ready.items(), clk.cpu)); w != nil {
		return w
	}
	// Nobody is ready yet: jump to the earliest arrival.
	w := earliest(s.ready.items())
	clk.advanceCPU(ceilTick(w.readyTick))
	return w
}

// mlfqSelector keeps one FIFO per level. New bursts enter level 0 and a
// worker that uses its whole quantum without finishing drops one level.
type mlfqSelector struct {
	levels [mlfqLevels]*waitQueue
	quanta [mlfqLevels]int
}

func (s *mlfqSelector) arrive(w *worker, at float64, newBurst, holding bool) bool {
	if !newBurst {
		return false
	}
	w.readyTick = at
	s.retire(w)
	w.resetFeedback()
	s.levels[0].push(w)
	w.state = StateReady
	return holding
}

func (s *mlfqSelector) granted(w *worker, at float64) bool {
	w.quantumUsed++
	if w.quantumUsed < s.quanta[w.level] || w.remaining <= 0 {
		return false
	}
	s.levels[w.level].remove(w)
	w.readyTick = at
	w.level = min(w.level+1, mlfqLevels-1)
	w.quantumUsed = 0
	s.levels[w.level].push(w)
	w.state = StateReady
	return true
}

func (s *mlfqSelector) retire(w *worker) {
	for _, q := range s.levels {
		q.remove(w)
	}
}

func (s *mlfqSelector) next(clk *clocks) *worker {
	for lvl, q := range s.levels {
		if w := earliest(readyBy(q.items(), clk.cpu)); w != nil {
			w.level = lvl
			return w
		}
	}

	var (
		best     *worker
		bestTick = math.MaxInt
	)
	for _, q := range s.levels {
		for _, w := range q.items() {
			t := ceilTick(w.readyTick)
			if t < bestTick || (t == bestTick && w.id < best.id) {
				best, bestTick = w, t
			}
		}
	}
	if best != nil {
		clk.advanceCPU(bestTick)
	}
	return best
}
