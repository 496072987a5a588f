// Package driver runs parsed workloads against the scheduling engine, one
// goroutine per worker, and collects the per-worker Gantt logs.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/schedme/internal/cpu"
	"github.com/utkarsh5026/schedme/internal/gantt"
	"github.com/utkarsh5026/schedme/internal/script"
	"github.com/utkarsh5026/schedme/sched"
)

// Engine is the part of *sched.Engine the driver needs.
type Engine interface {
	RequestCPU(at float64, id, remaining int) (int, error)
	RequestIO(at float64, id, duration int) (int, error)
	SemaphoreWait(at float64, id, sem int) (int, error)
	SemaphoreSignal(at float64, id, sem int) (int, error)
	End(id int) error
	Abort(cause error)
}

// Option is a functional option for configuring Run.
type Option func(*config)

type config struct {
	pin      bool
	lock     bool
	progress func()
	logger   *logrus.Logger
}

// WithThreadLocking locks every worker goroutine to its own OS thread for
// the whole run.
func WithThreadLocking() Option {
	return func(cfg *config) {
		cfg.lock = true
	}
}

// WithPinning locks every worker goroutine to an OS thread and pins that
// thread to a core. Pinning failures are logged, not fatal.
func WithPinning() Option {
	return func(cfg *config) {
		cfg.lock = true
		cfg.pin = true
	}
}

// WithProgress installs a hook called after every engine call returns.
// It is called concurrently from the worker goroutines.
func WithProgress(fn func()) Option {
	return func(cfg *config) {
		cfg.progress = fn
	}
}

// WithLogger sets the logger used for per-operation debug output and pinning
// warnings. Runs are silent by default.
func WithLogger(logger *logrus.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Result is the outcome of a completed run.
type Result struct {
	Logs     []*gantt.Log
	Timeline []gantt.Entry
}

// Run drives every worker of the workload against eng and waits for all of
// them to end.
//
// The first worker error fails the run: the engine is aborted so the other
// workers, which may be parked waiting for the failed one, return too.
// Cancelling ctx aborts the run the same way.
func Run(ctx context.Context, eng Engine, workers []script.Worker, opts ...Option) (*Result, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logrus.New()
		cfg.logger.SetOutput(io.Discard)
	}

	seq := &gantt.Sequencer{}
	logs := make([]*gantt.Log, len(workers))
	for i, w := range workers {
		logs[i] = gantt.NewLog(w.ID, seq)
	}

	g, gctx := errgroup.WithContext(ctx)

	var running sync.WaitGroup
	for i, w := range workers {
		running.Add(1)
		g.Go(func() error {
			defer running.Done()
			r := &runner{eng: eng, cfg: cfg, worker: w, log: logs[i]}
			return r.run()
		})
	}

	g.Go(func() error {
		finished := make(chan struct{})
		go func() {
			running.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-gctx.Done():
			eng.Abort(context.Cause(gctx))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Result{Logs: logs, Timeline: gantt.Merge(logs)}, nil
}

// runner executes the script of one worker.
type runner struct {
	eng    Engine
	cfg    *config
	worker script.Worker
	log    *gantt.Log
}

func (r *runner) run() error {
	id := r.worker.ID
	entry := r.cfg.logger.WithField("worker", id)

	if r.cfg.lock {
		release, err := cpu.Bind(id, r.cfg.pin)
		defer release()
		if err != nil {
			entry.WithError(err).Warn("worker thread not pinned")
		}
	}

	at := r.worker.Arrival
	for _, op := range r.worker.Ops {
		entry.WithFields(logrus.Fields{"op": op.String(), "at": at}).Debug("issuing operation")

		tick, err := r.exec(op, at)
		if err != nil {
			if errors.Is(err, sched.ErrAborted) {
				return err
			}
			return fmt.Errorf("worker %d %s: %w", id, op, err)
		}
		if op.Kind == script.End {
			return nil
		}
		at = float64(tick)
	}
	return nil
}

// exec performs one script operation and records what came back.
func (r *runner) exec(op script.Op, at float64) (int, error) {
	id := r.worker.ID

	switch op.Kind {
	case script.CPU:
		tick := int(at)
		for rem := op.Arg; rem >= 0; rem-- {
			t, err := r.eng.RequestCPU(at, id, rem)
			if err != nil {
				return 0, err
			}
			r.done()
			// The completion notice (rem == 0) is not a granted tick.
			if rem > 0 {
				if err := r.log.Record(sched.EventCPU, t, -1); err != nil {
					return 0, err
				}
			}
			tick, at = t, float64(t)
		}
		return tick, nil

	case script.IO:
		return r.record(sched.EventIO, -1, func() (int, error) {
			return r.eng.RequestIO(at, id, op.Arg)
		})

	case script.Wait:
		return r.record(sched.EventWait, op.Arg, func() (int, error) {
			return r.eng.SemaphoreWait(at, id, op.Arg)
		})

	case script.Signal:
		return r.record(sched.EventSignal, op.Arg, func() (int, error) {
			return r.eng.SemaphoreSignal(at, id, op.Arg)
		})

	case script.End:
		if err := r.eng.End(id); err != nil {
			return 0, err
		}
		r.done()
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s", script.ErrUnknownOp, op)
}

func (r *runner) record(kind sched.EventKind, sem int, call func() (int, error)) (int, error) {
	tick, err := call()
	if err != nil {
		return 0, err
	}
	r.done()
	return tick, r.log.Record(kind, tick, sem)
}

func (r *runner) done() {
	if r.cfg.progress != nil {
		r.cfg.progress()
	}
}
