package hardware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSimdUsable(t *testing.T) {
	ext := DetectSimd()
	assert.GreaterOrEqual(t, ext.Lanes(), 1)
	assert.NotEmpty(t, ext.String())
}

func TestLanesPerExtension(t *testing.T) {
	assert.Equal(t, 16, SimdAVX512f.Lanes())
	assert.Equal(t, 8, SimdAVX2.Lanes())
	assert.Equal(t, 4, SimdAVX.Lanes())
	assert.Equal(t, 4, SimdSSE2.Lanes())
	assert.Equal(t, 1, SimdNone.Lanes())
}

func TestResolveThreads(t *testing.T) {
	cores := LogicalCores()
	assert.Equal(t, cores, ResolveThreads(0))
	assert.Equal(t, 1, ResolveThreads(1))
	assert.Equal(t, 2*cores, ResolveThreads(1000*cores))
}

func TestCPUDescriptor(t *testing.T) {
	desc := CPUDescriptor(2, SimdNone)
	assert.True(t, strings.HasPrefix(desc, "cpu: "))
	assert.Contains(t, desc, "using 2 of")
	assert.NotContains(t, desc, "+ AVX2")

	desc = CPUDescriptor(2, SimdAVX2)
	assert.Contains(t, desc, "+ AVX2")
}

func TestSelectGeneratorNeverNil(t *testing.T) {
	for _, ext := range []SimdExtension{SimdNone, SimdSSE2, SimdAVX, SimdAVX2, SimdAVX512f} {
		assert.NotNil(t, SelectGenerator(ext))
	}
}
