package sched

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// op is one script operation for the in-package test driver.
type op struct {
	kind byte // 'C', 'I', 'P', 'V'
	arg  int
}

func opC(n int) op { return op{'C', n} }
func opI(n int) op { return op{'I', n} }
func opP(n int) op { return op{'P', n} }
func opV(n int) op { return op{'V', n} }

// script is what a single worker executes before End.
type script struct {
	arrival float64
	ops     []op
}

// timeline records the ticks each worker got back, per operation kind.
type timeline struct {
	cpu []int
	io  []int
	p   []int
	v   []int
}

const runDeadline = 5 * time.Second

// run drives one goroutine per script against eng and returns the recorded
// timelines. A run that does not finish before runDeadline is aborted and
// fails the test.
func run(t *testing.T, eng *Engine, scripts []script) []timeline {
	t.Helper()

	out := make([]timeline, len(scripts))
	var g errgroup.Group
	for id, sc := range scripts {
		g.Go(func() error {
			return drive(eng, id, sc, &out[id])
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(runDeadline):
		eng.Abort(errors.New("test deadline exceeded"))
		<-done
		t.Fatalf("run did not finish within %v", runDeadline)
	}
	return out
}

func drive(eng *Engine, id int, sc script, tl *timeline) error {
	at := sc.arrival
	for _, o := range sc.ops {
		var (
			tick int
			err  error
		)
		switch o.kind {
		case 'C':
			for rem := o.arg; rem >= 0; rem-- {
				tick, err = eng.RequestCPU(at, id, rem)
				if err != nil {
					return fmt.Errorf("worker %d C%d: %w", id, o.arg, err)
				}
				if rem > 0 {
					tl.cpu = append(tl.cpu, tick)
				}
				at = float64(tick)
			}
			continue
		case 'I':
			tick, err = eng.RequestIO(at, id, o.arg)
			tl.io = append(tl.io, tick)
		case 'P':
			tick, err = eng.SemaphoreWait(at, id, o.arg)
			tl.p = append(tl.p, tick)
		case 'V':
			tick, err = eng.SemaphoreSignal(at, id, o.arg)
			tl.v = append(tl.v, tick)
		}
		if err != nil {
			return fmt.Errorf("worker %d %c%d: %w", id, o.kind, o.arg, err)
		}
		at = float64(tick)
	}
	return eng.End(id)
}

// eventLog is an observer that records engine events in emission order.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) of(kind EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine(t *testing.T, p Policy, n int, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(p, n, opts...)
	if err != nil {
		t.Fatalf("New(%s, %d): %v", p, n, err)
	}
	return eng
}

func equalTicks(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
