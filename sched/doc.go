// Package sched is a deterministic CPU, I/O and semaphore scheduling engine
// for simulated workers.
//
// Every worker is driven by its own goroutine, which issues operations
// against a shared Engine and feeds the tick each call returns into its next
// call. The engine blocks those goroutines so that one worker holds the CPU
// and one holds the I/O device at any virtual instant, and it only makes a
// scheduling decision once every active worker has issued its request.
//
// # Basic Usage
//
//	eng, err := sched.New(sched.FCFS, 1)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	// the only worker runs a three unit CPU burst starting at 0:
//	t := 0
//	for rem := 3; rem >= 0; rem-- {
//	    t, err = eng.RequestCPU(float64(t), 0, rem)
//	}
//	_ = eng.End(0)
//
// # Policies
//
//   - FCFS: the worker that became ready first keeps the CPU for its whole burst
//   - SRTF: every tick is contended; the ready worker with the least work left wins
//   - MLFQ: five feedback levels; a worker using up its level's quantum drops a level
//
// Ties always go to the lowest worker identity.
//
// # Semaphores
//
// The engine owns a bank of counting semaphores (10 by default, see
// WithSemaphoreCount). A signal wakes the waiting worker with the lowest
// identity, regardless of the order in which the waiters blocked.
//
// # Contract
//
// Every worker must eventually call End. A worker that stops issuing
// operations holds back every later decision; drivers that give up on a run
// call Abort to release the blocked goroutines.
package sched
