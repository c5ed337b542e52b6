package plot

import "github.com/PoC-Consortium/bencher/pkg/poc/shabal"

// NoncegenFunc fills dst (nonces × NonceSize bytes) with the plots for
// [startNonce, startNonce+nonces). All implementations are bit-identical;
// they differ only in how many independent hash chains they keep in flight.
// The active implementation is chosen once at startup, so the hot loop pays
// no per-nonce dispatch cost.
type NoncegenFunc func(dst []byte, accountID, startNonce, nonces uint64)

// NoncegenScalar runs one hash chain at a time. It is the reference every
// wider variant must match byte for byte.
func NoncegenScalar(dst []byte, accountID, startNonce, nonces uint64) {
	for n := uint64(0); n < nonces; n++ {
		Nonce(dst[n*NonceSize:(n+1)*NonceSize], accountID, startNonce+n)
	}
}

// NoncegenLockstep returns a generator that advances `lanes` independent
// chains round by round. The loop structure matches the SSE2/AVX/AVX2/AVX512
// kernels (4/8/16 lanes in lockstep); each lane is an independent Shabal
// stream, so the output is identical to the scalar chain.
func NoncegenLockstep(lanes int) NoncegenFunc {
	if lanes < 1 {
		panic("plot: lockstep lanes must be >= 1")
	}
	return func(dst []byte, accountID, startNonce, nonces uint64) {
		for off := uint64(0); off < nonces; off += uint64(lanes) {
			group := uint64(lanes)
			if nonces-off < group {
				group = nonces - off
			}
			lockstepGroup(dst[off*NonceSize:(off+group)*NonceSize],
				accountID, startNonce+off, int(group))
		}
	}
}

func lockstepGroup(dst []byte, accountID, startNonce uint64, lanes int) {
	tbs := make([]termBlocks, lanes)
	for l := range tbs {
		tbs[l] = newTermBlocks(accountID, startNonce+uint64(l))
	}

	var h [HashSize]byte
	for r := 0; r < HashRounds; r++ {
		i := NonceSize - HashSize*r
		for l := 0; l < lanes; l++ {
			lane := dst[l*NonceSize : (l+1)*NonceSize]
			switch {
			case r == 0:
				shabal.HashTo(&h, nil, &tbs[l].t1)
				copy(lane[NonceSize-HashSize:], h[:])
				tbs[l].setFirstHash(&h)
			case r < HashCap/HashSize:
				if i%64 == 0 {
					shabal.HashTo(&h, lane[i:], &tbs[l].t1)
				} else {
					shabal.HashTo(&h, lane[i:], &tbs[l].t2)
				}
				copy(lane[i-HashSize:i], h[:])
			default:
				shabal.HashTo(&h, lane[i:i+HashCap], &tbs[l].t3)
				copy(lane[i-HashSize:i], h[:])
			}
		}
	}

	var final [HashSize]byte
	for l := 0; l < lanes; l++ {
		lane := dst[l*NonceSize : (l+1)*NonceSize]
		shabal.HashTo(&final, lane, &tbs[l].t1)
		for k := 0; k < NonceSize; k++ {
			lane[k] ^= final[k%HashSize]
		}
	}
}
