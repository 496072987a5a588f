//go:build linux

package cpu

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Bind locks the calling goroutine to its OS thread. With pin set the thread
// is also restricted to one core chosen from workerID.
// The returned release function restores the previous affinity and unlocks
// the thread; it must be called from the same goroutine and is never nil.
func Bind(workerID int, pin bool) (func(), error) {
	runtime.LockOSThread()
	if !pin {
		return runtime.UnlockOSThread, nil
	}

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return runtime.UnlockOSThread, fmt.Errorf("cpu: read affinity: %w", err)
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(coreFor(workerID))
	if err := unix.SchedSetaffinity(0, &mask); err != nil { // 0 = current thread
		return runtime.UnlockOSThread, fmt.Errorf("cpu: pin worker %d: %w", workerID, err)
	}

	return func() {
		_ = unix.SchedSetaffinity(0, &prev)
		runtime.UnlockOSThread()
	}, nil
}
