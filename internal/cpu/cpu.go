// Package cpu binds worker goroutines to operating system threads and,
// where the platform allows it, pins those threads to cores.
package cpu

import (
	"errors"
	"runtime"
)

// ErrPinningUnsupported is returned by Bind when the thread was locked but
// the platform cannot pin it to a core.
var ErrPinningUnsupported = errors.New("cpu: core pinning not supported on this platform")

// NumCPU returns the number of logical CPUs available.
func NumCPU() int {
	return runtime.NumCPU()
}

// coreFor maps a worker onto a core, wrapping around when there are more
// workers than cores.
func coreFor(workerID int) int {
	n := runtime.NumCPU()
	if workerID < 0 {
		workerID = -workerID
	}
	return workerID % n
}
