package plot

import "math"

// FindBestDeadline scans a contiguous buffer of plots for the minimum
// deadline under gensig at the given scoop. The scored tuple for each plot
// is the first half of the target scoop concatenated with the second half of
// the mirror scoop. Returns the best deadline and the plot offset it was
// found at; ties resolve to the smallest offset.
func FindBestDeadline(data []byte, scoop uint32, nonces uint64, gensig *[32]byte) (uint64, uint64) {
	bestDeadline := uint64(math.MaxUint64)
	bestOffset := uint64(0)
	mirror := uint32(NumScoops-1) - scoop
	for i := uint64(0); i < nonces; i++ {
		base := i * NonceSize
		a := base + uint64(scoop)*ScoopSize
		b := base + uint64(mirror)*ScoopSize + HashSize
		dl := Deadline(gensig, data[a:a+HashSize], data[b:b+HashSize])
		if dl < bestDeadline {
			bestDeadline = dl
			bestOffset = i
		}
	}
	return bestDeadline, bestOffset
}
