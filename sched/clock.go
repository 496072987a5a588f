package sched

import "sync"

// clocks holds the two virtual clocks. Both only move forward and only while
// the engine mutex is held.
type clocks struct {
	cpu int
	io  int

	// tick is broadcast on every CPU clock increment so time dependent waits
	// (the signal ordering guard) re-check their predicate.
	tick *sync.Cond
}

func newClocks(mu *sync.Mutex) *clocks {
	return &clocks{tick: sync.NewCond(mu)}
}

// advanceCPU moves the CPU clock forward one unit at a time up to target.
func (c *clocks) advanceCPU(target int) {
	for c.cpu < target {
		c.cpu++
		c.tick.Broadcast()
	}
}

// advanceIO moves the I/O clock up to target. I/O is held as one
// non-preemptible block so nobody waits on individual I/O ticks.
func (c *clocks) advanceIO(target int) {
	if c.io < target {
		c.io = target
	}
}
