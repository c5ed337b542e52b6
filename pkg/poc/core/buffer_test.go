package core

import "testing"

func TestPageAlignedBuffer(t *testing.T) {
	for _, size := range []int{1, 4096, 262144, 262144*3 + 1} {
		buf := PageAlignedBuffer(size)
		if len(buf) != size {
			t.Fatalf("size %d: got len %d", size, len(buf))
		}
		if cap(buf) != size {
			t.Fatalf("size %d: got cap %d", size, cap(buf))
		}
		if sliceAddr(buf)%pageSize != 0 {
			t.Fatalf("size %d: buffer not page aligned", size)
		}
	}
}
