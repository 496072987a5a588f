package sched

import (
	"sync"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"0", FCFS, false},
		{"1", SRTF, false},
		{"2", MLFQ, false},
		{"fcfs", FCFS, false},
		{" MLFQ ", MLFQ, false},
		{"3", "", true},
		{"rr", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFCFSSelector(t *testing.T) {
	ws := testWorkers(3)
	s := newSelector(FCFS, 3, defaultQuanta)
	for i, at := range []float64{2, 0, 0} {
		s.arrive(ws[i], at, true, false)
	}

	clk := newClocks(&sync.Mutex{})
	if got := s.next(clk); got != ws[1] {
		t.Fatalf("expected worker 1, got %d", got.id)
	}

	s.retire(ws[1])
	s.retire(ws[2])
	// No readiness filter: worker 0 is picked even though it is ready at 2.
	if got := s.next(clk); got != ws[0] {
		t.Fatalf("expected worker 0, got %v", got)
	}
	if clk.cpu != 0 {
		t.Errorf("expected FCFS to leave the clock alone, got %d", clk.cpu)
	}

	t.Run("new burst of the holder yields", func(t *testing.T) {
		if !s.arrive(ws[0], 5, true, true) {
			t.Error("expected holder starting a new burst to yield")
		}
		if s.arrive(ws[0], 6, false, true) {
			t.Error("expected holder continuing its burst to keep the CPU")
		}
	})
}

func TestSRTFSelector(t *testing.T) {
	t.Run("least remaining among ready", func(t *testing.T) {
		ws := testWorkers(3)
		s := newSelector(SRTF, 3, defaultQuanta)
		ws[0].remaining, ws[1].remaining, ws[2].remaining = 5, 2, 1
		s.arrive(ws[0], 0, true, false)
		s.arrive(ws[1], 0, true, false)
		s.arrive(ws[2], 3, true, false)

		clk := newClocks(&sync.Mutex{})
		if got := s.next(clk); got != ws[1] {
			t.Fatalf("expected worker 1, got %d", got.id)
		}
	})

	t.Run("ties by identity", func(t *testing.T) {
		ws := testWorkers(2)
		s := newSelector(SRTF, 2, defaultQuanta)
		ws[0].remaining, ws[1].remaining = 2, 2
		s.arrive(ws[1], 0, true, false)
		s.arrive(ws[0], 0, true, false)

		if got := s.next(newClocks(&sync.Mutex{})); got != ws[0] {
			t.Fatalf("expected worker 0, got %d", got.id)
		}
	})

	t.Run("jumps to earliest arrival", func(t *testing.T) {
		ws := testWorkers(2)
		s := newSelector(SRTF, 2, defaultQuanta)
		ws[0].remaining, ws[1].remaining = 1, 9
		s.arrive(ws[0], 7, true, false)
		s.arrive(ws[1], 3.5, true, false)

		clk := newClocks(&sync.Mutex{})
		if got := s.next(clk); got != ws[1] {
			t.Fatalf("expected worker 1, got %d", got.id)
		}
		if clk.cpu != 4 {
			t.Errorf("expected clock at 4, got %d", clk.cpu)
		}
	})

	t.Run("every request yields", func(t *testing.T) {
		ws := testWorkers(1)
		s := newSelector(SRTF, 1, defaultQuanta)
		if !s.arrive(ws[0], 1, false, true) {
			t.Error("expected holder to yield on every request")
		}
		s.granted(ws[0], 1)
		if s.next(newClocks(&sync.Mutex{})) != nil {
			t.Error("expected granted worker to leave the ready queue")
		}
	})
}

func TestMLFQSelector(t *testing.T) {
	quanta := [mlfqLevels]int{2, 2, 2, 2, 2}

	t.Run("demotes after a full quantum", func(t *testing.T) {
		ws := testWorkers(1)
		s := newSelector(MLFQ, 1, quanta)
		w := ws[0]
		w.remaining = 3
		s.arrive(w, 0, true, false)

		if s.granted(w, 0) {
			t.Fatal("expected no demotion after one tick")
		}
		if !s.granted(w, 1) {
			t.Fatal("expected demotion after a full quantum")
		}
		if w.level != 1 || w.quantumUsed != 0 {
			t.Errorf("expected level 1 quantum 0, got level %d quantum %d", w.level, w.quantumUsed)
		}
	})

	t.Run("finished burst is not demoted", func(t *testing.T) {
		ws := testWorkers(1)
		s := newSelector(MLFQ, 1, quanta)
		w := ws[0]
		s.arrive(w, 0, true, false)
		w.quantumUsed = 1
		w.remaining = 0
		if s.granted(w, 0) {
			t.Error("expected no demotion for a finished burst")
		}
	})

	t.Run("clamps at the last level", func(t *testing.T) {
		ws := testWorkers(1)
		s := newSelector(MLFQ, 1, quanta)
		w := ws[0]
		s.arrive(w, 0, true, false)
		s.retire(w)
		w.level = mlfqLevels - 1
		w.quantumUsed = 1
		w.remaining = 4
		s.(*mlfqSelector).levels[w.level].push(w)

		if !s.granted(w, 3) {
			t.Fatal("expected yield at the end of the quantum")
		}
		if w.level != mlfqLevels-1 {
			t.Errorf("expected level %d, got %d", mlfqLevels-1, w.level)
		}
	})

	t.Run("new burst resets to level 0", func(t *testing.T) {
		ws := testWorkers(1)
		s := newSelector(MLFQ, 1, quanta)
		w := ws[0]
		w.level, w.quantumUsed = 3, 1
		if !s.arrive(w, 4, true, true) {
			t.Error("expected holder to yield on a new burst")
		}
		if w.level != 0 || w.quantumUsed != 0 {
			t.Errorf("expected level 0 quantum 0, got level %d quantum %d", w.level, w.quantumUsed)
		}
	})

	t.Run("higher level wins", func(t *testing.T) {
		ws := testWorkers(2)
		s := newSelector(MLFQ, 2, quanta).(*mlfqSelector)
		ws[0].level = 1
		s.levels[1].push(ws[0])
		s.arrive(ws[1], 0, true, false)

		if got := s.next(newClocks(&sync.Mutex{})); got != ws[1] {
			t.Fatalf("expected worker 1 from level 0, got %d", got.id)
		}
	})

	t.Run("jumps to earliest ceiling", func(t *testing.T) {
		ws := testWorkers(3)
		s := newSelector(MLFQ, 3, quanta).(*mlfqSelector)
		ws[0].readyTick, ws[1].readyTick, ws[2].readyTick = 3, 2.2, 5
		s.levels[0].push(ws[0])
		s.levels[1].push(ws[1])
		s.levels[0].push(ws[2])

		clk := newClocks(&sync.Mutex{})
		if got := s.next(clk); got != ws[0] {
			t.Fatalf("expected worker 0 (tie at tick 3 by identity), got %d", got.id)
		}
		if clk.cpu != 3 {
			t.Errorf("expected clock at 3, got %d", clk.cpu)
		}
	})
}
