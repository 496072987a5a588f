// Package report summarises a finished run per worker.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/schedme/internal/gantt"
	"github.com/utkarsh5026/schedme/internal/script"
	"github.com/utkarsh5026/schedme/sched"
)

// Stat is the summary of one worker.
type Stat struct {
	Worker  int
	Arrival float64
	// FirstCPU is the tick at which the worker first started running, -1 if it never did.
	FirstCPU   int
	Completion int
	CPUTicks   int
	IOTicks    int
	Waits      int
	Signals    int
}

// Turnaround is the virtual time from arrival to the worker's last event.
func (s Stat) Turnaround() float64 {
	return float64(s.Completion) - s.Arrival
}

// Response is the virtual time from arrival to the first CPU tick, -1 if the
// worker never ran.
func (s Stat) Response() float64 {
	if s.FirstCPU < 0 {
		return -1
	}
	return float64(s.FirstCPU) - s.Arrival
}

// Summarize builds the per-worker statistics from the workload and its
// merged timeline. I/O ticks are taken from the workload's burst lengths.
// A worker with no events completes at its arrival.
func Summarize(workers []script.Worker, timeline []gantt.Entry) []Stat {
	stats := make([]Stat, len(workers))
	for i, w := range workers {
		stats[i] = Stat{
			Worker:     w.ID,
			Arrival:    w.Arrival,
			FirstCPU:   -1,
			Completion: int(math.Ceil(w.Arrival)),
		}
		for _, op := range w.Ops {
			if op.Kind == script.IO {
				stats[i].IOTicks += op.Arg
			}
		}
	}

	for _, e := range timeline {
		if e.Worker < 0 || e.Worker >= len(stats) {
			continue
		}
		s := &stats[e.Worker]
		switch e.Kind {
		case sched.EventCPU:
			s.CPUTicks++
			if start := e.Tick - 1; s.FirstCPU < 0 || start < s.FirstCPU {
				s.FirstCPU = start
			}
		case sched.EventWait:
			s.Waits++
		case sched.EventSignal:
			s.Signals++
		}
		s.Completion = max(s.Completion, e.Tick)
	}
	return stats
}

// Render writes the statistics as a table. With colored set the turnaround
// column is highlighted green for the best worker and red for the worst.
func Render(w io.Writer, stats []Stat, colored bool) error {
	table := tablewriter.NewWriter(w)
	table.Header("Worker", "Arrival", "First CPU", "Completion", "CPU", "I/O", "P/V", "Response", "Turnaround")

	best, worst := extremes(stats)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	for i, s := range stats {
		turnaround := formatTime(s.Turnaround())
		if colored && len(stats) > 1 {
			switch i {
			case best:
				turnaround = good.Sprint(turnaround)
			case worst:
				turnaround = bad.Sprint(turnaround)
			}
		}

		first := "-"
		if s.FirstCPU >= 0 {
			first = strconv.Itoa(s.FirstCPU)
		}
		response := "-"
		if r := s.Response(); r >= 0 {
			response = formatTime(r)
		}

		err := table.Append(
			fmt.Sprintf("T%d", s.Worker),
			formatTime(s.Arrival),
			first,
			strconv.Itoa(s.Completion),
			strconv.Itoa(s.CPUTicks),
			strconv.Itoa(s.IOTicks),
			fmt.Sprintf("%d/%d", s.Waits, s.Signals),
			response,
			turnaround,
		)
		if err != nil {
			return fmt.Errorf("report: row for T%d: %w", s.Worker, err)
		}
	}
	return table.Render()
}

// Averages returns the mean turnaround and response over the workers that ran.
func Averages(stats []Stat) (turnaround, response float64) {
	ran := 0
	for _, s := range stats {
		turnaround += s.Turnaround()
		if r := s.Response(); r >= 0 {
			response += r
			ran++
		}
	}
	if len(stats) > 0 {
		turnaround /= float64(len(stats))
	}
	if ran > 0 {
		response /= float64(ran)
	}
	return turnaround, response
}

func extremes(stats []Stat) (best, worst int) {
	for i, s := range stats {
		if s.Turnaround() < stats[best].Turnaround() {
			best = i
		}
		if s.Turnaround() > stats[worst].Turnaround() {
			worst = i
		}
	}
	return best, worst
}

func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
