// Package gpu implements the GPU hashing backend. The OpenCL binding itself
// (platform enumeration, kernel source, buffer plumbing) sits behind the
// DeviceQueue contract; this package owns everything above it: the worker
// thread, the kernel slicing schedule and the memory budget check. A pure-Go
// reference device implements the same contract for hosts without OpenCL and
// for the bit-equality tests against the CPU backend.
package gpu

import (
	"github.com/PoC-Consortium/bencher/pkg/poc/core"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

// HashesPerRun is how many chain rounds one noncegen kernel invocation
// covers. GPU local memory cannot hold a whole plot, so the 8192-round
// schedule is run in slices.
const HashesPerRun = 32

// Config selects one device, straight from the `gpus` config list.
type Config struct {
	PlatformID int `yaml:"platform_id"`
	DeviceID   int `yaml:"device_id"`
	Cores      int `yaml:"cores"`
}

// DeviceQueue is the contract of one device command queue. Implementations
// own a plot buffer of Worksize()×NonceSize bytes, a gensig buffer, a
// per-nonce deadline buffer and the two scalar result cells.
type DeviceQueue interface {
	// Worksize is the number of nonces one task covers on this device.
	Worksize() int
	// BindTask sets the noncegen kernel arguments for a nonce range.
	BindTask(accountID, startNonce, nonces uint64)
	// EnqueueNoncegen runs chain rounds [startRound, endRound] of the
	// bound range. endRound == plot.FinalRound includes finalisation.
	EnqueueNoncegen(startRound, endRound int)
	// Finish blocks until all enqueued work drained.
	Finish()
	// UploadGensig is a blocking write of the round challenge.
	UploadGensig(gensig *[32]byte)
	// EnqueueDeadlines scores every plotted nonce at the given scoop.
	EnqueueDeadlines(scoop uint32)
	// EnqueueFindMin reduces the deadline buffer to (best, offset).
	EnqueueFindMin() (bestDeadline, bestOffset uint64)
	// Release frees device resources.
	Release()
}

// Task is one unit of GPU work.
type Task struct {
	AccountID  uint64
	StartNonce uint64
	Nonces     uint64
	Round      core.RoundInfo
}

// Hash runs one task to completion on a device queue and returns the best
// (deadline, nonce offset) pair.
func Hash(q DeviceQueue, task *Task) (uint64, uint64) {
	q.BindTask(task.AccountID, task.StartNonce, task.Nonces)
	for i := 0; i < plot.HashRounds; i += HashesPerRun {
		end := i + HashesPerRun - 1
		if i+HashesPerRun >= plot.HashRounds {
			end = plot.FinalRound
		}
		q.EnqueueNoncegen(i, end)
	}
	q.Finish()

	q.UploadGensig(&task.Round.GenSig)
	q.EnqueueDeadlines(task.Round.Scoop)
	return q.EnqueueFindMin()
}

// Worker is the long-lived loop bound to one device queue. It blocks on the
// inbound task channel; a nil task (or channel close) is the termination
// signal. Results are reported as NoncesProcessed, SubmitDeadline, then
// GPURequestForWork.
func Worker(gpuID int, q DeviceQueue, tx chan<- core.HasherMessage, tasks <-chan *Task) {
	defer q.Release()
	for task := range tasks {
		if task == nil {
			return
		}
		deadline, offset := Hash(q, task)

		tx <- core.NoncesProcessed{Nonces: task.Nonces}
		tx <- core.SubmitDeadline{
			Height:   task.Round.Height,
			BlockSeq: task.Round.BlockSeq,
			Nonce:    task.StartNonce + offset,
			Deadline: deadline,
		}
		tx <- core.GPURequestForWork{GpuID: gpuID}
	}
}
