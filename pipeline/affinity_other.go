//go:build !linux

package pipeline

import "runtime"

func pinThread(_ int) error {
	runtime.LockOSThread()
	return nil
}
