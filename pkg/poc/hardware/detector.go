// Package hardware detects host capabilities: which vector width the Shabal
// pipeline should run at, how many CPU workers to start, and the descriptor
// string reported to pools.
package hardware

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

// SimdExtension identifies the widest usable vector extension for the
// Shabal pipeline.
type SimdExtension int

const (
	SimdNone SimdExtension = iota
	SimdSSE2
	SimdAVX
	SimdAVX2
	SimdAVX512f
)

func (s SimdExtension) String() string {
	switch s {
	case SimdAVX512f:
		return "AVX512F"
	case SimdAVX2:
		return "AVX2"
	case SimdAVX:
		return "AVX"
	case SimdSSE2:
		return "SSE2"
	default:
		return "none"
	}
}

// Lanes returns how many independent hash chains the extension keeps in
// lockstep: 16 for AVX512F, 8 for AVX2, 4 for the 128-bit families.
func (s SimdExtension) Lanes() int {
	switch s {
	case SimdAVX512f:
		return 16
	case SimdAVX2:
		return 8
	case SimdAVX, SimdSSE2:
		return 4
	default:
		return 1
	}
}

// DetectSimd probes the CPU once and returns the widest supported extension.
func DetectSimd() SimdExtension {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return SimdAVX512f
	case cpuid.CPU.Supports(cpuid.AVX2):
		return SimdAVX2
	case cpuid.CPU.Supports(cpuid.AVX):
		return SimdAVX
	case cpuid.CPU.Supports(cpuid.SSE2):
		return SimdSSE2
	default:
		return SimdNone
	}
}

// SelectGenerator maps the detected extension to the nonce generator the
// CPU workers will run. Selected once at startup; workers call the returned
// function directly afterwards.
func SelectGenerator(ext SimdExtension) plot.NoncegenFunc {
	if lanes := ext.Lanes(); lanes > 1 {
		return plot.NoncegenLockstep(lanes)
	}
	return plot.NoncegenScalar
}

// LogicalCores returns the number of logical CPUs, falling back to
// runtime.NumCPU when gopsutil cannot read the topology.
func LogicalCores() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// ResolveThreads applies the cpu_threads config semantics: 0 means one
// worker per logical core, anything else is capped at twice the logical
// core count.
func ResolveThreads(configured int) int {
	cores := LogicalCores()
	if configured == 0 {
		return cores
	}
	if configured > 2*cores {
		return 2 * cores
	}
	return configured
}

// CPUName returns the CPU brand string, best effort.
func CPUName() string {
	infos, err := cpu.Info()
	if err == nil && len(infos) > 0 {
		if name := strings.TrimSpace(infos[0].ModelName); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(cpuid.CPU.BrandName); name != "" {
		return name
	}
	return "unknown cpu"
}

// CPUDescriptor renders the "cpu: ..." fragment of the X-Xpu header and the
// startup banner, e.g. "cpu: AMD Ryzen 9 [using 12 of 24 cores + AVX2]".
func CPUDescriptor(threads int, ext SimdExtension) string {
	simd := ""
	if ext != SimdNone {
		simd = " + " + ext.String()
	}
	return fmt.Sprintf("cpu: %s [using %d of %d cores%s]",
		CPUName(), threads, LogicalCores(), simd)
}
