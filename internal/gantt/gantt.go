// Package gantt records what each worker got back from the engine and turns
// the per-worker records into the merged Gantt timeline.
package gantt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/utkarsh5026/schedme/sched"
)

// MaxEntries bounds the number of entries a single worker may record.
const MaxEntries = 4096

var ErrTooManyEntries = errors.New("gantt: too many log entries for one worker")

// Entry is one line of the timeline.
type Entry struct {
	// Seq orders entries across workers: the entry recorded first has the lowest Seq.
	Seq       uint64
	Worker    int
	Kind      sched.EventKind
	Tick      int
	Semaphore int
}

// String formats the entry the way it appears in the Gantt file.
func (e Entry) String() string {
	switch e.Kind {
	case sched.EventCPU:
		return fmt.Sprintf("%3d~%3d: T%d, CPU", e.Tick-1, e.Tick, e.Worker)
	case sched.EventIO:
		return fmt.Sprintf("   ~%3d: T%d, Return from IO", e.Tick, e.Worker)
	case sched.EventWait:
		return fmt.Sprintf("   ~%3d: T%d, Return from P%d", e.Tick, e.Worker, e.Semaphore)
	case sched.EventSignal:
		return fmt.Sprintf("   ~%3d: T%d, Return from V%d", e.Tick, e.Worker, e.Semaphore)
	default:
		return fmt.Sprintf("   ~%3d: T%d, %s", e.Tick, e.Worker, e.Kind)
	}
}

// Sequencer hands out the stamps that order entries of different workers.
// It is safe for concurrent use.
type Sequencer struct {
	n atomic.Uint64
}

func (s *Sequencer) next() uint64 {
	return s.n.Add(1)
}

// Log is the record of a single worker. A Log is written by one goroutine only.
type Log struct {
	worker  int
	seq     *Sequencer
	entries []Entry
}

// NewLog creates the log of worker, stamped by seq.
func NewLog(worker int, seq *Sequencer) *Log {
	return &Log{worker: worker, seq: seq}
}

// Record appends an entry for a returned tick.
func (l *Log) Record(kind sched.EventKind, tick, sem int) error {
	if len(l.entries) >= MaxEntries {
		return fmt.Errorf("%w: worker %d", ErrTooManyEntries, l.worker)
	}
	l.entries = append(l.entries, Entry{
		Seq:       l.seq.next(),
		Worker:    l.worker,
		Kind:      kind,
		Tick:      tick,
		Semaphore: sem,
	})
	return nil
}

// Entries returns the recorded entries in recording order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Merge interleaves the logs into one timeline, repeatedly taking the head
// with the lowest sequence stamp.
func Merge(logs []*Log) []Entry {
	total := 0
	for _, l := range logs {
		total += len(l.entries)
	}

	out := make([]Entry, 0, total)
	idx := make([]int, len(logs))
	for len(out) < total {
		pick := -1
		for i, l := range logs {
			if idx[i] >= len(l.entries) {
				continue
			}
			if pick < 0 || l.entries[idx[i]].Seq < logs[pick].entries[idx[pick]].Seq {
				pick = i
			}
		}
		out = append(out, logs[pick].entries[idx[pick]])
		idx[pick]++
	}
	return out
}

// Write prints the timeline, one entry per line.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FileName is the output path for a run: <dir>/gantt-<policyArg>-<basename(input)>.
func FileName(dir, policyArg, input string) string {
	return filepath.Join(dir, fmt.Sprintf("gantt-%s-%s", policyArg, filepath.Base(input)))
}

// WriteFile writes the timeline to FileName(dir, policyArg, input), creating
// dir if needed, and returns the path written.
func WriteFile(dir, policyArg, input string, entries []Entry) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := FileName(dir, policyArg, input)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create gantt file: %w", err)
	}
	if err := Write(f, entries); err != nil {
		f.Close()
		return "", fmt.Errorf("write gantt file: %w", err)
	}
	return path, f.Close()
}
