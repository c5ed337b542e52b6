package gpu

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/PoC-Consortium/bencher/pkg/poc/hardware"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

var log = logrus.WithField("prefix", "gpu")

// PredictMemory is the device memory one worker needs: every work item owns
// a full plot, so cores × workgroup × 256 KiB.
func PredictMemory(cores, workgroupSize int) uint64 {
	return uint64(cores) * uint64(workgroupSize) * plot.NonceSize
}

// Open validates a device selection and returns its queue. The shipped
// backend exposes a single platform with the in-process reference device;
// an OpenCL build enumerates real platforms behind the same call.
func Open(cfg Config) (DeviceQueue, error) {
	if cfg.PlatformID != 0 {
		return nil, errors.Errorf("selected OpenCL platform %d doesn't exist", cfg.PlatformID)
	}
	if cfg.DeviceID != 0 {
		return nil, errors.Errorf("selected OpenCL device %d doesn't exist", cfg.DeviceID)
	}
	cores := cfg.Cores
	if cores < 1 {
		cores = 1
	}

	needed := PredictMemory(cores, referenceWorkgroupSize)
	if vm, err := mem.VirtualMemory(); err == nil && needed > vm.Available {
		return nil, errors.Errorf(
			"not enough device memory, need %s but only %s available; reduce number of cores",
			humanize.IBytes(needed), humanize.IBytes(vm.Available))
	}

	log.Infof("gpu: reference device [using %d cores], buffer=%s",
		cores, humanize.IBytes(needed))
	return NewReferenceDevice(cores), nil
}

// ListPlatforms prints the devices the backend can open, mirroring what the
// `--opencl` flag reports on an OpenCL build.
func ListPlatforms() {
	log.Infof("OCL: platform 0, reference (built-in)")
	log.Infof("OCL:   device 0, %s", hardware.CPUName())
	log.Infof("OCL:     workgroupsize=%d", referenceWorkgroupSize)
}
