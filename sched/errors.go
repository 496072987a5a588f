package sched

import "errors"

var (
	ErrInvalidPolicy      = errors.New("sched: invalid scheduling policy")
	ErrInvalidWorkerCount = errors.New("sched: worker count must be positive")
	ErrInvalidArgument    = errors.New("sched: invalid argument")
	ErrUnknownWorker      = errors.New("sched: unknown worker")
	ErrUnknownSemaphore   = errors.New("sched: unknown semaphore")
	ErrWorkerTerminated   = errors.New("sched: worker already terminated")
	ErrWorkersActive      = errors.New("sched: workers still active")
	ErrEngineClosed       = errors.New("sched: engine closed")
	ErrAborted            = errors.New("sched: run aborted")
)
