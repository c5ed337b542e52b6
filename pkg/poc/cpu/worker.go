// Package cpu implements the CPU hashing backend: one task plots a nonce
// range into an aligned buffer, scans it and reports back on the scheduler's
// reply channel.
package cpu

import (
	"github.com/PoC-Consortium/bencher/pkg/poc/core"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

// Task is one unit of CPU work.
type Task struct {
	AccountID  uint64
	StartNonce uint64
	Nonces     uint64
	Round      core.RoundInfo
}

// Hash returns the closure the scheduler hands to the worker pool. The
// worker is stateless across tasks; the plot buffer lives only for the task.
// It reports SubmitDeadline, NoncesProcessed and CPURequestForWork, in that
// order.
func Hash(tx chan<- core.HasherMessage, task Task, noncegen plot.NoncegenFunc) func() {
	return func() {
		buffer := core.PageAlignedBuffer(int(task.Nonces) * plot.NonceSize)
		noncegen(buffer, task.AccountID, task.StartNonce, task.Nonces)

		deadline, offset := plot.FindBestDeadline(
			buffer, task.Round.Scoop, task.Nonces, &task.Round.GenSig)

		tx <- core.SubmitDeadline{
			Height:   task.Round.Height,
			BlockSeq: task.Round.BlockSeq,
			Nonce:    task.StartNonce + offset,
			Deadline: deadline,
		}
		tx <- core.NoncesProcessed{Nonces: task.Nonces}
		tx <- core.CPURequestForWork{}
	}
}
