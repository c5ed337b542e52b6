package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoC-Consortium/bencher/pkg/poc/core"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

const testAccountID = 7900104405094198526

func testRound(scoop uint32) core.RoundInfo {
	return core.RoundInfo{
		BaseTarget: 1,
		Scoop:      scoop,
		Height:     1,
		BlockSeq:   1,
	}
}

func TestReferenceDeviceMatchesCPUBackend(t *testing.T) {
	const nonces = 2
	device := NewReferenceDevice(1)
	require.GreaterOrEqual(t, device.Worksize(), nonces)

	round := testRound(3)
	task := &Task{
		AccountID:  testAccountID,
		StartNonce: 50,
		Nonces:     nonces,
		Round:      round,
	}
	gpuDeadline, gpuOffset := Hash(device, task)

	// The CPU backend's answer for the same range.
	buffer := make([]byte, nonces*plot.NonceSize)
	plot.NoncegenScalar(buffer, testAccountID, 50, nonces)
	cpuDeadline, cpuOffset := plot.FindBestDeadline(buffer, round.Scoop, nonces, &round.GenSig)

	assert.Equal(t, cpuDeadline, gpuDeadline)
	assert.Equal(t, cpuOffset, gpuOffset)

	// And the plotted bytes themselves are bit-identical.
	assert.Equal(t, buffer, device.buffer[:nonces*plot.NonceSize])
}

func TestHashSliceScheduleCoversAllRounds(t *testing.T) {
	// Record the slices the worker enqueues and verify the inclusive
	// bounds tile [0, FinalRound] without gap or overlap.
	device := NewReferenceDevice(1)
	task := &Task{AccountID: testAccountID, StartNonce: 0, Nonces: 1, Round: testRound(0)}

	var slices [][2]int
	wrapped := &recordingDevice{ReferenceDevice: device, slices: &slices}
	Hash(wrapped, task)

	require.NotEmpty(t, slices)
	assert.Equal(t, 0, slices[0][0])
	for i := 1; i < len(slices); i++ {
		assert.Equal(t, slices[i-1][1]+1, slices[i][0])
	}
	assert.Equal(t, plot.FinalRound, slices[len(slices)-1][1])
	for _, s := range slices[:len(slices)-1] {
		assert.Equal(t, HashesPerRun-1, s[1]-s[0])
	}
}

type recordingDevice struct {
	*ReferenceDevice
	slices *[][2]int
}

func (d *recordingDevice) EnqueueNoncegen(start, end int) {
	*d.slices = append(*d.slices, [2]int{start, end})
	d.ReferenceDevice.EnqueueNoncegen(start, end)
}

func TestWorkerProtocol(t *testing.T) {
	device := NewReferenceDevice(1)
	reply := make(chan core.HasherMessage, 8)
	tasks := make(chan *Task, 2)

	done := make(chan struct{})
	go func() {
		Worker(3, device, reply, tasks)
		close(done)
	}()

	tasks <- &Task{AccountID: testAccountID, StartNonce: 9, Nonces: 1, Round: testRound(0)}
	tasks <- nil

	processed, ok := (<-reply).(core.NoncesProcessed)
	require.True(t, ok, "first message must be NoncesProcessed")
	assert.Equal(t, uint64(1), processed.Nonces)

	submit, ok := (<-reply).(core.SubmitDeadline)
	require.True(t, ok, "second message must be SubmitDeadline")
	assert.Equal(t, uint64(1), submit.BlockSeq)
	assert.Equal(t, uint64(9), submit.Nonce)

	request, ok := (<-reply).(core.GPURequestForWork)
	require.True(t, ok, "third message must be GPURequestForWork")
	assert.Equal(t, 3, request.GpuID)

	<-done // nil task terminates the worker
}

func TestOpenRejectsUnknownDevices(t *testing.T) {
	_, err := Open(Config{PlatformID: 3})
	assert.Error(t, err)
	_, err = Open(Config{DeviceID: 1})
	assert.Error(t, err)
}

func TestPredictMemory(t *testing.T) {
	assert.Equal(t, uint64(2*64*plot.NonceSize), PredictMemory(2, 64))
}
