//go:build linux

package miner

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinThread binds the calling OS thread to one logical CPU. Workers call it
// after runtime.LockOSThread.
func pinThread(id int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(id % runtime.NumCPU())
	return unix.SchedSetaffinity(0, &set)
}
