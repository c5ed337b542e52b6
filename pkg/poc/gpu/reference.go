package gpu

import (
	"math"

	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

// referenceWorkgroupSize stands in for the kernel workgroup size an OpenCL
// build queries from the device.
const referenceWorkgroupSize = 64

// ReferenceDevice executes the three kernels (noncegen, calculate_deadlines,
// find_min) in plain Go over a host buffer. Slice for slice it performs the
// same work the OpenCL kernels do, so its output is bit-identical to the CPU
// backend — which is exactly what the equivalence tests pin down.
type ReferenceDevice struct {
	worksize  int
	buffer    []byte
	gensig    [32]byte
	deadlines []uint64

	accountID  uint64
	startNonce uint64
	nonces     uint64
}

// NewReferenceDevice creates a device sized to cores×workgroup nonces.
func NewReferenceDevice(cores int) *ReferenceDevice {
	worksize := cores * referenceWorkgroupSize
	return &ReferenceDevice{
		worksize:  worksize,
		buffer:    make([]byte, worksize*plot.NonceSize),
		deadlines: make([]uint64, worksize),
	}
}

func (d *ReferenceDevice) Worksize() int { return d.worksize }

func (d *ReferenceDevice) BindTask(accountID, startNonce, nonces uint64) {
	d.accountID = accountID
	d.startNonce = startNonce
	d.nonces = nonces
}

func (d *ReferenceDevice) EnqueueNoncegen(startRound, endRound int) {
	for n := uint64(0); n < d.nonces; n++ {
		lane := d.buffer[n*plot.NonceSize : (n+1)*plot.NonceSize]
		plot.Rounds(lane, d.accountID, d.startNonce+n, startRound, endRound)
	}
}

func (d *ReferenceDevice) Finish() {}

func (d *ReferenceDevice) UploadGensig(gensig *[32]byte) {
	d.gensig = *gensig
}

func (d *ReferenceDevice) EnqueueDeadlines(scoop uint32) {
	mirror := uint32(plot.NumScoops-1) - scoop
	for n := uint64(0); n < d.nonces; n++ {
		base := n * plot.NonceSize
		a := base + uint64(scoop)*plot.ScoopSize
		b := base + uint64(mirror)*plot.ScoopSize + plot.HashSize
		d.deadlines[n] = plot.Deadline(&d.gensig,
			d.buffer[a:a+plot.HashSize], d.buffer[b:b+plot.HashSize])
	}
}

func (d *ReferenceDevice) EnqueueFindMin() (uint64, uint64) {
	best := uint64(math.MaxUint64)
	offset := uint64(0)
	for n := uint64(0); n < d.nonces; n++ {
		if d.deadlines[n] < best {
			best = d.deadlines[n]
			offset = n
		}
	}
	return best, offset
}

func (d *ReferenceDevice) Release() {
	d.buffer = nil
	d.deadlines = nil
}
