//go:build !linux && !darwin && !windows

package cpu

import "runtime"

func Bind(workerID int, pin bool) (func(), error) {
	runtime.LockOSThread()
	if pin {
		return runtime.UnlockOSThread, ErrPinningUnsupported
	}
	return runtime.UnlockOSThread, nil
}
