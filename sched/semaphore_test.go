package sched

import (
	"fmt"
	"runtime"
	"testing"
)

func TestSemaphore_WaitThenSignal(t *testing.T) {
	eng := newTestEngine(t, FCFS, 2)
	got := run(t, eng, []script{
		{0, []op{opP(0)}},
		{0, []op{opC(5), opV(0)}},
	})

	if !equalTicks(got[0].p, []int{5}) {
		t.Errorf("worker 0: expected P to return [5], got %v", got[0].p)
	}
	if !equalTicks(got[1].cpu, []int{1, 2, 3, 4, 5}) {
		t.Errorf("worker 1: expected CPU [1 2 3 4 5], got %v", got[1].cpu)
	}
	if !equalTicks(got[1].v, []int{5}) {
		t.Errorf("worker 1: expected V to return [5], got %v", got[1].v)
	}
	if v, _ := eng.SemaphoreValue(0); v != 0 {
		t.Errorf("expected semaphore value 0, got %d", v)
	}
}

func TestSemaphore_WaitThenSignalEveryRun(t *testing.T) {
	const rounds = 200

	for _, procs := range []int{1, 2, 4, 8} {
		for _, p := range []Policy{FCFS, SRTF, MLFQ} {
			t.Run(fmt.Sprintf("%s/procs=%d", p, procs), func(t *testing.T) {
				defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(procs))

				for i := range rounds {
					eng := newTestEngine(t, p, 2)
					got := run(t, eng, []script{
						{0, []op{opP(0)}},
						{0, []op{opC(5), opV(0)}},
					})
					if !equalTicks(got[0].p, []int{5}) {
						t.Fatalf("round %d: expected P to return [5], got %v", i, got[0].p)
					}
				}
			})
		}
	}
}

func TestSemaphore_NonBlockingWait(t *testing.T) {
	t.Run("positive counter", func(t *testing.T) {
		eng := newTestEngine(t, FCFS, 1, WithSemaphoreValue(0, 2))
		got := run(t, eng, []script{{3.5, []op{opP(0), opP(0)}}})

		if !equalTicks(got[0].p, []int{4, 4}) {
			t.Errorf("expected P returns [4 4], got %v", got[0].p)
		}
		if cpuTick, _ := eng.Now(); cpuTick != 4 {
			t.Errorf("expected CPU clock moved to 4, got %d", cpuTick)
		}
		if v, _ := eng.SemaphoreValue(0); v != 0 {
			t.Errorf("expected counter 0, got %d", v)
		}
	})

	t.Run("signal without waiters increments", func(t *testing.T) {
		eng := newTestEngine(t, FCFS, 1)
		got := run(t, eng, []script{{0, []op{opC(1), opV(3), opV(3), opP(3)}}})

		if !equalTicks(got[0].v, []int{1, 1}) || !equalTicks(got[0].p, []int{1}) {
			t.Errorf("expected V [1 1] and P [1], got V %v P %v", got[0].v, got[0].p)
		}
		if v, _ := eng.SemaphoreValue(3); v != 1 {
			t.Errorf("expected counter 1, got %d", v)
		}
	})
}

func TestSemaphore_WakesLowestIdentity(t *testing.T) {
	events := &eventLog{}
	eng := newTestEngine(t, FCFS, 4, WithObserver(events.observe))

	// Workers block in the order 2, 0, 1.
	got := run(t, eng, []script{
		{0, []op{opC(2), opP(0)}},
		{0, []op{opC(1), opP(0)}},
		{0, []op{opP(0)}},
		{0, []op{opC(1), opV(0), opV(0), opV(0)}},
	})

	for id := range 3 {
		if !equalTicks(got[id].p, []int{4}) {
			t.Errorf("worker %d: expected P [4], got %v", id, got[id].p)
		}
	}
	if !equalTicks(got[3].v, []int{4, 4, 4}) {
		t.Errorf("worker 3: expected V [4 4 4], got %v", got[3].v)
	}

	waits := events.of(EventWait)
	if len(waits) != 3 {
		t.Fatalf("expected 3 wait events, got %d", len(waits))
	}
	for i, ev := range waits {
		if ev.Worker != i {
			t.Errorf("wake %d: expected worker %d, got %d", i, i, ev.Worker)
		}
	}
}

func TestSemaphore_ChainedWaiters(t *testing.T) {
	eng := newTestEngine(t, FCFS, 3)
	got := run(t, eng, []script{
		{0, []op{opC(2), opP(0)}},
		{1, []op{opP(0)}},
		{2, []op{opC(5), opV(0), opC(1), opV(0)}},
	})

	if !equalTicks(got[0].cpu, []int{1, 2}) || !equalTicks(got[0].p, []int{7}) {
		t.Errorf("worker 0: expected CPU [1 2] P [7], got CPU %v P %v", got[0].cpu, got[0].p)
	}
	if !equalTicks(got[1].p, []int{8}) {
		t.Errorf("worker 1: expected P [8], got %v", got[1].p)
	}
	if !equalTicks(got[2].cpu, []int{3, 4, 5, 6, 7, 8}) || !equalTicks(got[2].v, []int{7, 8}) {
		t.Errorf("worker 2: expected CPU [3 4 5 6 7 8] V [7 8], got CPU %v V %v", got[2].cpu, got[2].v)
	}
}

func TestSemaphore_SignalDoesNotOvertakeEarlierWait(t *testing.T) {
	// Worker 0 signals at 2 straight out of I/O, before worker 1 has even
	// been granted the CPU. Worker 1 waits at 1, which precedes the signal.
	eng := newTestEngine(t, FCFS, 2)
	got := run(t, eng, []script{
		{0, []op{opI(2), opV(0)}},
		{0, []op{opC(1), opP(0)}},
	})

	if !equalTicks(got[0].v, []int{2}) {
		t.Errorf("worker 0: expected V [2], got %v", got[0].v)
	}
	if !equalTicks(got[1].p, []int{2}) {
		t.Errorf("worker 1: expected P to block until 2, got %v", got[1].p)
	}
	if v, _ := eng.SemaphoreValue(0); v != 0 {
		t.Errorf("expected counter 0, got %d", v)
	}
}

func TestSemaphore_ConcurrentSignalsLeaveInTickOrder(t *testing.T) {
	events := &eventLog{}
	eng := newTestEngine(t, FCFS, 3, WithObserver(events.observe))
	got := run(t, eng, []script{
		{5, []op{opV(1)}},
		{1, []op{opV(1)}},
		{0, []op{opC(1), opP(1), opP(1)}},
	})

	if !equalTicks(got[2].p, []int{1, 5}) {
		t.Errorf("worker 2: expected P [1 5], got %v", got[2].p)
	}

	signals := events.of(EventSignal)
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Worker != 1 || signals[1].Worker != 0 {
		t.Errorf("expected signals from workers [1 0], got [%d %d]", signals[0].Worker, signals[1].Worker)
	}
}
