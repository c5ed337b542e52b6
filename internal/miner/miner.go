// Package miner wires the round driver, the round scheduler and the
// submission pipeline together.
package miner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PoC-Consortium/bencher/internal/client"
	"github.com/PoC-Consortium/bencher/internal/config"
	"github.com/PoC-Consortium/bencher/internal/status"
	"github.com/PoC-Consortium/bencher/pkg/poc/core"
	"github.com/PoC-Consortium/bencher/pkg/poc/gpu"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

var log = logrus.WithField("prefix", "miner")

// Miner is the top-level assembly: it polls the pool for mining info, feeds
// rounds to the scheduler and filters scheduler results into the submitter.
type Miner struct {
	cfg       *config.Config
	client    *client.Client
	submitter *client.Submitter
	scheduler *Scheduler

	rounds    chan core.RoundInfo
	nonceData chan NonceData

	mu    sync.Mutex
	state *State
}

// New assembles a miner from the loaded config and the detected hardware.
func New(cfg *config.Config, noncegen plot.NoncegenFunc, cpuThreads int,
	gpus []gpu.DeviceQueue, xpu string) *Miner {

	log.Infof("server: %s", cfg.URL)
	poolClient := client.NewClient(
		cfg.BaseURL(),
		cfg.SecretPhrase,
		time.Duration(cfg.Timeout)*time.Millisecond,
		cfg.SendProxyDetails,
		cfg.AdditionalHeaders,
		xpu,
	)

	rounds := make(chan core.RoundInfo, 8)
	nonceData := make(chan NonceData, 256)

	return &Miner{
		cfg:       cfg,
		client:    poolClient,
		submitter: client.NewSubmitter(poolClient),
		scheduler: NewScheduler(
			cfg.NumericID, *cfg.StartNonce, cfg.CPUWorkerTaskSize,
			cfg.Blocktime, cpuThreads, cfg.CPUThreadPinning,
			noncegen, gpus, rounds, nonceData),
		rounds:    rounds,
		nonceData: nonceData,
		state:     newState(),
	}
}

// Run starts all pipelines and blocks until ctx is cancelled.
func (m *Miner) Run(ctx context.Context) {
	go m.scheduler.Run()
	go m.submitter.Run(ctx)
	go m.consumeNonceData(ctx)

	interval := time.Duration(m.cfg.GetMiningInfoInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(m.rounds)
			return
		case <-ticker.C:
			m.pollMiningInfo()
		}
	}
}

// pollMiningInfo fetches the current challenge and emits a RoundInfo when
// the generation signature changed.
func (m *Miner) pollMiningInfo() {
	m.mu.Lock()
	capacity := m.state.capacity
	m.mu.Unlock()

	info, err := m.client.GetMiningInfo(capacity)
	if err != nil {
		m.mu.Lock()
		if m.state.first {
			log.Error("error getting mining info, please check server config")
			m.state.first = false
			m.state.outage = true
		} else if !m.state.outage {
			log.Error("error getting mining info => connection outage...")
			m.state.outage = true
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.first = false
	if m.state.outage {
		log.Error("outage resolved.")
		m.state.outage = false
	}
	if info.GenerationSignature == m.state.generationSignature {
		return
	}
	if err := m.state.updateMiningInfo(info); err != nil {
		log.Errorf("ignoring mining info: %v", err)
		return
	}
	m.rounds <- core.RoundInfo{
		GenSig:     m.state.generationSignatureBytes,
		BaseTarget: m.state.baseTarget,
		Scoop:      m.state.scoop,
		Height:     m.state.height,
		BlockSeq:   m.state.blockSeq,
	}
}

// consumeNonceData applies the round and target-deadline filters, keeps the
// per-round best deadline monotonic and forwards winners to the submitter.
// Target deadline filtering happens here, once, at the driver→submission
// boundary.
func (m *Miner) consumeNonceData(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case nd := <-m.nonceData:
			m.mu.Lock()
			m.state.capacity = nd.Capacity
			target := m.cfg.TargetDeadline
			if m.state.serverTargetDeadline < target {
				target = m.state.serverTargetDeadline
			}
			accept := m.state.blockSeq == nd.BlockSeq &&
				m.state.bestDeadline > nd.DeadlineAdjusted &&
				nd.DeadlineAdjusted < target
			if accept {
				m.state.bestDeadline = nd.DeadlineAdjusted
				status.BestDeadline.Set(float64(nd.DeadlineAdjusted))
			}
			gensig := m.state.generationSignatureBytes
			m.mu.Unlock()

			if accept {
				m.submitter.Submit(client.SubmissionParameters{
					AccountID:          nd.AccountID,
					Nonce:              nd.Nonce,
					Height:             nd.Height,
					Block:              nd.BlockSeq,
					DeadlineUnadjusted: nd.Deadline,
					Deadline:           nd.DeadlineAdjusted,
					GenSig:             gensig,
				})
			}
		}
	}
}

// Snapshot is the read-only view served by the status endpoint.
type Snapshot struct {
	Height       uint64 `json:"height"`
	BlockSeq     uint64 `json:"blockSeq"`
	Scoop        uint32 `json:"scoop"`
	BaseTarget   uint64 `json:"baseTarget"`
	BestDeadline uint64 `json:"bestDeadline"`
	Capacity     uint64 `json:"capacity"`
	Outage       bool   `json:"outage"`
}

// Snapshot returns the current mining state for the status endpoint.
func (m *Miner) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Height:       m.state.height,
		BlockSeq:     m.state.blockSeq,
		Scoop:        m.state.scoop,
		BaseTarget:   m.state.baseTarget,
		BestDeadline: m.state.bestDeadline,
		Capacity:     m.state.capacity,
		Outage:       m.state.outage,
	}
}
