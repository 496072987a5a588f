//go:build windows

package cpu

import (
	"fmt"
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// Bind locks the goroutine to an OS thread and, with pin set, restricts the
// thread to one core. Release restores the previous mask.
func Bind(workerID int, pin bool) (func(), error) {
	runtime.LockOSThread()
	if !pin {
		return runtime.UnlockOSThread, nil
	}

	handle, _, _ := getCurrentThread.Call()
	// Bit N = CPU N.
	mask := uintptr(1) << coreFor(workerID)
	prev, _, err := setThreadAffinityMask.Call(handle, mask)
	if prev == 0 {
		return runtime.UnlockOSThread, fmt.Errorf("cpu: pin worker %d: %w", workerID, err)
	}

	return func() {
		_, _, _ = setThreadAffinityMask.Call(handle, prev)
		runtime.UnlockOSThread()
	}, nil
}
