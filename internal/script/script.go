// Package script parses workload files for the scheduler.
//
// A workload has one line per worker:
//
//	<arrivalTime> <id> <op><arg> ... E
//
// where ids run 0, 1, 2, ... in line order and each op is one of
// C<n> (CPU burst of n units), I<n> (I/O burst of n ticks), P<n> (wait on
// semaphore n), V<n> (signal semaphore n) and E (end). Tokens after E are
// ignored; blank lines are skipped.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrEmpty            = errors.New("script: no workers")
	ErrIdentityMismatch = errors.New("script: worker id does not match its line")
	ErrMissingEnd       = errors.New("script: worker finishes without E")
	ErrUnknownOp        = errors.New("script: unknown operation")
	ErrBadArgument      = errors.New("script: bad operation argument")
	ErrBadArrival       = errors.New("script: bad arrival time")
)

// ParseError reports a problem on a specific line of a workload.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Kind is an operation type, spelled as its script letter.
type Kind byte

const (
	CPU    Kind = 'C'
	IO     Kind = 'I'
	Wait   Kind = 'P'
	Signal Kind = 'V'
	End    Kind = 'E'
)

// Op is one parsed operation.
type Op struct {
	Kind Kind
	Arg  int
}

func (o Op) String() string {
	if o.Kind == End {
		return "E"
	}
	return fmt.Sprintf("%c%d", o.Kind, o.Arg)
}

// Worker is the parsed line of one worker. Ops always ends with End.
type Worker struct {
	ID      int
	Arrival float64
	Ops     []Op
	Line    int
}

// Calls returns how many engine calls the worker issues: n+1 for C<n>,
// one for every other operation including E.
func (w Worker) Calls() int {
	n := 0
	for _, op := range w.Ops {
		if op.Kind == CPU {
			n += op.Arg + 1
			continue
		}
		n++
	}
	return n
}

// CallCount sums Calls over all workers.
func CallCount(workers []Worker) int {
	n := 0
	for _, w := range workers {
		n += w.Calls()
	}
	return n
}

// ParseFile parses the workload at path.
func ParseFile(path string) ([]Worker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workload: %w", err)
	}
	defer f.Close()

	workers, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return workers, nil
}

// Parse reads a workload from r. Any malformed line fails the whole parse.
func Parse(r io.Reader) ([]Worker, error) {
	var workers []Worker

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		w, err := parseLine(fields, len(workers), lineNo)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}
	if len(workers) == 0 {
		return nil, ErrEmpty
	}
	return workers, nil
}

func parseLine(fields []string, id, lineNo int) (Worker, error) {
	w := Worker{ID: id, Line: lineNo}

	arrival, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || arrival < 0 {
		return w, &ParseError{Line: lineNo, Token: fields[0], Err: ErrBadArrival}
	}
	w.Arrival = arrival

	if len(fields) < 2 {
		return w, &ParseError{Line: lineNo, Err: ErrIdentityMismatch}
	}
	if got, err := strconv.Atoi(fields[1]); err != nil || got != id {
		return w, &ParseError{Line: lineNo, Token: fields[1], Err: ErrIdentityMismatch}
	}

	for _, tok := range fields[2:] {
		op, err := parseOp(tok)
		if err != nil {
			return w, &ParseError{Line: lineNo, Token: tok, Err: err}
		}
		w.Ops = append(w.Ops, op)
		if op.Kind == End {
			return w, nil
		}
	}
	return w, &ParseError{Line: lineNo, Err: ErrMissingEnd}
}

func parseOp(tok string) (Op, error) {
	kind := Kind(tok[0])
	switch kind {
	case End:
		if len(tok) != 1 {
			return Op{}, ErrUnknownOp
		}
		return Op{Kind: End}, nil
	case CPU, IO, Wait, Signal:
	default:
		return Op{}, ErrUnknownOp
	}

	arg, err := strconv.Atoi(tok[1:])
	if err != nil || arg < 0 {
		return Op{}, ErrBadArgument
	}
	return Op{Kind: kind, Arg: arg}, nil
}
