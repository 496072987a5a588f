//go:build darwin

package cpu

import (
	"runtime"
)

// Bind locks the goroutine to an OS thread.
// CPU pinning is not available on macOS, so pin only reports ErrPinningUnsupported.
func Bind(workerID int, pin bool) (func(), error) {
	runtime.LockOSThread()
	if pin {
		return runtime.UnlockOSThread, ErrPinningUnsupported
	}
	return runtime.UnlockOSThread, nil
}
