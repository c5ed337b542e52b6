// internal/miner/scheduler.go
package miner

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/PoC-Consortium/bencher/internal/status"
	"github.com/PoC-Consortium/bencher/pkg/poc/core"
	"github.com/PoC-Consortium/bencher/pkg/poc/cpu"
	"github.com/PoC-Consortium/bencher/pkg/poc/gpu"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

// NonceData is one qualifying deadline the scheduler forwards to the driver,
// together with a capacity snapshot for the proxy headers.
type NonceData struct {
	AccountID        uint64
	Nonce            uint64
	Height           uint64
	BlockSeq         uint64
	Deadline         uint64
	DeadlineAdjusted uint64
	Capacity         uint64
	BaseTarget       uint64
}

// Scheduler owns the CPU worker pool and the GPU worker threads, splits each
// round's nonce range into tasks and aggregates the replies.
type Scheduler struct {
	accountID   uint64
	startNonce  uint64
	cpuTaskSize uint64
	blocktime   uint64

	noncegen plot.NoncegenFunc
	pool     *workerPool
	gpus     []gpu.DeviceQueue
	gpuTasks []chan *gpu.Task

	rounds    <-chan core.RoundInfo
	nonceData chan<- NonceData
	reply     chan core.HasherMessage
}

// NewScheduler wires a scheduler. gpus may be empty; the CPU pool alone then
// carries the round.
func NewScheduler(accountID, startNonce, cpuTaskSize, blocktime uint64,
	cpuThreads int, pinning bool, noncegen plot.NoncegenFunc,
	gpus []gpu.DeviceQueue, rounds <-chan core.RoundInfo,
	nonceData chan<- NonceData) *Scheduler {

	return &Scheduler{
		accountID:   accountID,
		startNonce:  startNonce,
		cpuTaskSize: cpuTaskSize,
		blocktime:   blocktime,
		noncegen:    noncegen,
		pool:        newWorkerPool(cpuThreads, pinning),
		gpus:        gpus,
		gpuTasks:    make([]chan *gpu.Task, len(gpus)),
		rounds:      rounds,
		nonceData:   nonceData,
		reply:       make(chan core.HasherMessage, 4*(cpuThreads+len(gpus))+64),
	}
}

// Run processes rounds until the round channel closes. It then terminates
// the GPU workers and the CPU pool. A started round only returns when a new
// round is waiting, so once the first round has begun, closing the channel
// does not end Run and the workers are not terminated.
func (s *Scheduler) Run() {
	for i, q := range s.gpus {
		tasks := make(chan *gpu.Task, 1)
		s.gpuTasks[i] = tasks
		go gpu.Worker(i, q, s.reply, tasks)
	}
	defer func() {
		for _, tasks := range s.gpuTasks {
			tasks <- nil
		}
		s.pool.Close()
	}()

	for round := range s.rounds {
		s.runRound(round)
	}
}

func (s *Scheduler) runRound(round core.RoundInfo) {
	started := time.Now()
	noncesToHash := math.MaxUint64 - s.startNonce
	var requested, processed uint64

	scheduleCPU := func() {
		size := minU64(s.cpuTaskSize, noncesToHash-requested)
		if size > 0 {
			s.pool.Spawn(cpu.Hash(s.reply, cpu.Task{
				AccountID:  s.accountID,
				StartNonce: s.startNonce + requested,
				Nonces:     size,
				Round:      round,
			}, s.noncegen))
		}
		requested += size
	}
	scheduleGPU := func(id int) {
		size := minU64(uint64(s.gpus[id].Worksize()), noncesToHash-requested)
		if size > 0 {
			s.gpuTasks[id] <- &gpu.Task{
				AccountID:  s.accountID,
				StartNonce: s.startNonce + requested,
				Nonces:     size,
				Round:      round,
			}
		}
		requested += size
	}

	// Kickoff: one task per GPU, one per CPU slot.
	for id := range s.gpus {
		scheduleGPU(id)
	}
	for i := 0; i < s.pool.threads; i++ {
		scheduleCPU()
	}

	for msg := range s.reply {
		switch m := msg.(type) {
		case core.CPURequestForWork:
			scheduleCPU()
		case core.GPURequestForWork:
			scheduleGPU(m.GpuID)
		case core.NoncesProcessed:
			processed += m.Nonces
			status.NoncesProcessed.Add(float64(m.Nonces))
			s.logStatus(processed, started)
		case core.SubmitDeadline:
			// Results from a preempted round still trickle in; the
			// dispatch-time block counter weeds them out.
			if m.BlockSeq != round.BlockSeq {
				break
			}
			elapsedMs := uint64(1 + time.Since(started).Milliseconds())
			s.nonceData <- NonceData{
				AccountID:        s.accountID,
				Nonce:            m.Nonce,
				Height:           m.Height,
				BlockSeq:         m.BlockSeq,
				Deadline:         m.Deadline,
				DeadlineAdjusted: m.Deadline / round.BaseTarget,
				Capacity:         processed * 250 * s.blocktime / 1024 / elapsedMs,
				BaseTarget:       round.BaseTarget,
			}
		}
		// Preempt as soon as a new round is waiting.
		if len(s.rounds) > 0 {
			return
		}
	}
}

func (s *Scheduler) logStatus(processed uint64, started time.Time) {
	elapsedMs := float64(1 + time.Since(started).Milliseconds())
	perMinute := float64(processed) * 1000.0 * 60.0 / elapsedMs
	emulated := float64(processed) * 1000.0 / elapsedMs * float64(s.blocktime) * plot.NonceSize
	status.EmulatedCapacity.Set(emulated / (1 << 30))
	log.Infof("nonces generated: %d, nonces/minute: %.2f, emulated size=%s",
		processed, perMinute, humanize.IBytes(uint64(emulated)))
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
