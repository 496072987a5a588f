package sched

import (
	"fmt"
	"math"
	"strings"
)

// Policy names the CPU scheduling algorithm the engine uses for a whole run.
type Policy string

const (
	// FCFS selects the ready worker that became eligible first.
	FCFS Policy = "FCFS"
	// SRTF selects the ready worker with the fewest units left in its burst.
	SRTF Policy = "SRTF"
	// MLFQ selects from five feedback levels, demoting workers that use up their quantum.
	MLFQ Policy = "MLFQ"
)

// ParsePolicy accepts either a policy name (case-insensitive) or the numeric
// form used on the command line: 0 = FCFS, 1 = SRTF, 2 = MLFQ.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "0", string(FCFS):
		return FCFS, nil
	case "1", string(SRTF):
		return SRTF, nil
	case "2", string(MLFQ):
		return MLFQ, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

func (p Policy) valid() bool {
	return p == FCFS || p == SRTF || p == MLFQ
}

// State is the lifecycle state of a worker.
type State int

const (
	StateReady State = iota
	StateRunning
	StateBlockedIO
	StateBlockedSem
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlockedIO:
		return "blocked-io"
	case StateBlockedSem:
		return "blocked-sem"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventCPU EventKind = iota
	EventIO
	EventWait
	EventSignal
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventCPU:
		return "cpu"
	case EventIO:
		return "io"
	case EventWait:
		return "wait"
	case EventSignal:
		return "signal"
	case EventEnd:
		return "end"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to the observer installed with WithObserver each time an
// operation completes inside the engine.
//
// Fields:
//   - Kind: which operation completed
//   - Worker: identity of the worker that issued it
//   - Tick: the tick returned to the worker (end of the CPU unit, I/O completion, ...)
//   - Semaphore: semaphore id for EventWait and EventSignal, -1 otherwise
type Event struct {
	Kind      EventKind
	Worker    int
	Tick      int
	Semaphore int
}

// ceilTick converts a caller supplied time into the first whole tick at or after it.
func ceilTick(t float64) int {
	return int(math.Ceil(t))
}
