package miner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoC-Consortium/bencher/pkg/poc/core"
	"github.com/PoC-Consortium/bencher/pkg/poc/gpu"
)

// fakeQueue is an instant DeviceQueue that records the ranges it was asked
// to plot.
type fakeQueue struct {
	worksize int

	mu     sync.Mutex
	ranges [][2]uint64

	deadline uint64
}

func (q *fakeQueue) Worksize() int { return q.worksize }

func (q *fakeQueue) BindTask(_, startNonce, nonces uint64) {
	q.mu.Lock()
	q.ranges = append(q.ranges, [2]uint64{startNonce, nonces})
	q.mu.Unlock()
}

func (q *fakeQueue) EnqueueNoncegen(int, int) {}
func (q *fakeQueue) Finish()                  {}
func (q *fakeQueue) UploadGensig(*[32]byte)   {}
func (q *fakeQueue) EnqueueDeadlines(uint32)  {}

func (q *fakeQueue) EnqueueFindMin() (uint64, uint64) { return q.deadline, 0 }

func (q *fakeQueue) Release() {}

func (q *fakeQueue) snapshot() [][2]uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][2]uint64, len(q.ranges))
	copy(out, q.ranges)
	return out
}

func noopNoncegen(_ []byte, _, _, _ uint64) {}

func testRoundInfo(seq uint64) core.RoundInfo {
	return core.RoundInfo{BaseTarget: 100, Scoop: 7, Height: 500 + seq, BlockSeq: seq}
}

func TestSchedulerTasksAreContiguous(t *testing.T) {
	q := &fakeQueue{worksize: 5, deadline: 12345}
	rounds := make(chan core.RoundInfo, 4)
	nonceData := make(chan NonceData, 64)

	s := NewScheduler(1337, 10, 64, 240, 0, false, noopNoncegen,
		[]gpu.DeviceQueue{q}, rounds, nonceData)
	go s.Run()

	rounds <- testRoundInfo(1)

	// The single device is fed sequentially, so the recorded ranges must
	// tile the nonce space from start_nonce without gap or overlap.
	require.Eventually(t, func() bool {
		return len(q.snapshot()) >= 6
	}, 5*time.Second, 10*time.Millisecond)

	ranges := q.snapshot()[:6]
	next := uint64(10)
	for _, r := range ranges {
		assert.Equal(t, next, r[0])
		assert.Equal(t, uint64(5), r[1])
		next += r[1]
	}
}

func TestSchedulerForwardsAdjustedDeadline(t *testing.T) {
	q := &fakeQueue{worksize: 3, deadline: 4200}
	rounds := make(chan core.RoundInfo, 4)
	nonceData := make(chan NonceData, 64)

	s := NewScheduler(1337, 0, 64, 240, 0, false, noopNoncegen,
		[]gpu.DeviceQueue{q}, rounds, nonceData)
	go s.Run()

	rounds <- testRoundInfo(1)

	nd := <-nonceData
	assert.Equal(t, uint64(1337), nd.AccountID)
	assert.Equal(t, uint64(1), nd.BlockSeq)
	assert.Equal(t, uint64(4200), nd.Deadline)
	assert.Equal(t, uint64(42), nd.DeadlineAdjusted, "deadline / base_target")
	assert.Equal(t, uint64(100), nd.BaseTarget)
}

func TestSchedulerDropsStaleSubmitDeadline(t *testing.T) {
	rounds := make(chan core.RoundInfo, 4)
	nonceData := make(chan NonceData, 8)

	s := NewScheduler(1, 0, 64, 240, 0, false, noopNoncegen,
		nil, rounds, nonceData)
	go s.Run()

	rounds <- testRoundInfo(7)
	// Let the scheduler enter the control loop, then inject a result
	// from a superseded round followed by a current one.
	time.Sleep(20 * time.Millisecond)
	s.reply <- core.SubmitDeadline{Height: 1, BlockSeq: 3, Nonce: 5, Deadline: 100}
	s.reply <- core.SubmitDeadline{Height: 507, BlockSeq: 7, Nonce: 6, Deadline: 200}

	nd := <-nonceData
	assert.Equal(t, uint64(7), nd.BlockSeq, "stale result must be dropped")
	assert.Equal(t, uint64(6), nd.Nonce)

	select {
	case extra := <-nonceData:
		t.Fatalf("only the current-round result may be forwarded, got %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchedulerPreemptsOnNewRound(t *testing.T) {
	q := &fakeQueue{worksize: 5, deadline: 99}
	rounds := make(chan core.RoundInfo, 4)
	nonceData := make(chan NonceData, 1024)

	s := NewScheduler(1, 10, 64, 240, 0, false, noopNoncegen,
		[]gpu.DeviceQueue{q}, rounds, nonceData)
	go s.Run()

	// Stand in for the driver and drain forwarded results; the instant
	// device would otherwise fill nonceData and the blocking send would
	// hold the scheduler before it sees the new round.
	newRoundResult := make(chan struct{})
	go func() {
		for nd := range nonceData {
			if nd.BlockSeq == 2 {
				close(newRoundResult)
				return
			}
		}
	}()

	rounds <- testRoundInfo(1)
	require.Eventually(t, func() bool {
		return len(q.snapshot()) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	before := len(q.snapshot())
	rounds <- testRoundInfo(2)

	// After preemption the nonce range restarts at start_nonce.
	require.Eventually(t, func() bool {
		for _, r := range q.snapshot()[before:] {
			if r[0] == 10 {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	// And a result carrying the new round counter is forwarded.
	select {
	case <-newRoundResult:
	case <-time.After(2 * time.Second):
		t.Fatal("no result for the new round arrived")
	}
}
