// Package plot turns (account id, nonce index) pairs into 256 KiB PoC plot
// blocks and scans them for deadlines. The hash chain, the smart-termination
// blocks and the XOR finalisation follow the Burst PoC2 nonce format; any
// other bit-level layout is non-conforming.
package plot

import (
	"encoding/binary"

	"github.com/PoC-Consortium/bencher/pkg/poc/shabal"
)

const (
	// HashSize is the size of one chain hash.
	HashSize = 32
	// HashCap bounds the seed window of the deep chain rounds.
	HashCap = 4096
	// NumScoops is the number of scoops per plot.
	NumScoops = 4096
	// ScoopSize is the size of one scoop.
	ScoopSize = 64
	// NonceSize is the size of one full plot: 4096 scoops of 64 bytes.
	NonceSize = NumScoops * ScoopSize

	// HashRounds is the number of chain hashes per nonce. Round indices
	// run [0, HashRounds); FinalRound additionally covers the final hash
	// and the XOR pass.
	HashRounds = NonceSize / HashSize
	// FinalRound is the pseudo round index for the finalisation step.
	FinalRound = HashRounds
)

// termBlocks holds the three padded 512-bit termination blocks for one
// (account, nonce) pair. t2's first eight words are filled with the first
// chain hash once it is known ("smart termination").
type termBlocks struct {
	t1 [16]uint32
	t2 [16]uint32
	t3 [16]uint32
}

func newTermBlocks(accountID, nonce uint64) termBlocks {
	var raw [shabal.BlockSize]byte
	var tb termBlocks

	binary.BigEndian.PutUint64(raw[0:], accountID)
	binary.BigEndian.PutUint64(raw[8:], nonce)
	raw[16] = 0x80
	shabal.DecodeBlock(&tb.t1, raw[:])

	raw = [shabal.BlockSize]byte{}
	binary.BigEndian.PutUint64(raw[32:], accountID)
	binary.BigEndian.PutUint64(raw[40:], nonce)
	raw[48] = 0x80
	shabal.DecodeBlock(&tb.t2, raw[:])

	tb.t3[0] = 0x80
	return tb
}

// setFirstHash injects the first chain hash into the smart termination block.
func (tb *termBlocks) setFirstHash(h *[HashSize]byte) {
	for i := 0; i < 8; i++ {
		tb.t2[i] = binary.LittleEndian.Uint32(h[i*4:])
	}
}

// Nonce fills dst (exactly NonceSize bytes) with the plot for
// (accountID, nonce).
func Nonce(dst []byte, accountID, nonce uint64) {
	Rounds(dst, accountID, nonce, 0, FinalRound)
}

// Rounds executes chain rounds [start, end] of the plot for (accountID,
// nonce) against dst, which must be exactly NonceSize bytes and must already
// hold the output of rounds [0, start). Round r writes
// dst[NonceSize-32*(r+1) : NonceSize-32*r]; passing end == FinalRound also
// performs the final whole-plot hash and the XOR pass. This round-sliced
// form is what device workers invoke repeatedly; Nonce runs it in one go.
func Rounds(dst []byte, accountID, nonce uint64, start, end int) {
	if len(dst) != NonceSize {
		panic("plot: dst must be exactly one nonce")
	}
	tb := newTermBlocks(accountID, nonce)
	if start > 0 {
		// Rounds 1..127 alternate on t2; re-derive it from the first
		// hash already present in the tail of dst.
		var first [HashSize]byte
		copy(first[:], dst[NonceSize-HashSize:])
		tb.setFirstHash(&first)
	}

	var h [HashSize]byte
	for r := start; r <= end && r < HashRounds; r++ {
		i := NonceSize - HashSize*r
		switch {
		case r == 0:
			shabal.HashTo(&h, nil, &tb.t1)
			copy(dst[NonceSize-HashSize:], h[:])
			tb.setFirstHash(&h)
		case r < HashCap/HashSize: // r in [1,127]: shallow rounds
			// The seed is shorter than one HashCap; terminate with t1
			// when it splits into whole 512-bit blocks, t2 otherwise.
			if i%64 == 0 {
				shabal.HashTo(&h, dst[i:], &tb.t1)
			} else {
				shabal.HashTo(&h, dst[i:], &tb.t2)
			}
			copy(dst[i-HashSize:i], h[:])
		default:
			// Deep rounds read a fixed 4096-byte seed window.
			shabal.HashTo(&h, dst[i:i+HashCap], &tb.t3)
			copy(dst[i-HashSize:i], h[:])
		}
	}

	if end >= FinalRound {
		var final [HashSize]byte
		shabal.HashTo(&final, dst, &tb.t1)
		for k := 0; k < NonceSize; k++ {
			dst[k] ^= final[k%HashSize]
		}
	}
}

// CalculateScoop derives the scoop index for a block from its height and
// generation signature: one Shabal pass over gensig || be64(height) || pad,
// taking the low 12 bits of the digest tail.
func CalculateScoop(height uint64, gensig *[32]byte) uint32 {
	var raw [shabal.BlockSize]byte
	copy(raw[:32], gensig[:])
	binary.BigEndian.PutUint64(raw[32:], height)
	raw[40] = 0x80

	var m [16]uint32
	shabal.DecodeBlock(&m, raw[:])
	out := shabal.Hash(nil, &m)
	return uint32(out[30]&0x0F)<<8 | uint32(out[31])
}

// Deadline scores one 64-byte scoop tuple against a generation signature:
// a Shabal absorb of gensig || tuple, reading the digest's 8-byte big-endian
// prefix.
func Deadline(gensig *[32]byte, scoopA, scoopB []byte) uint64 {
	var block [shabal.BlockSize]byte
	copy(block[:32], gensig[:])
	copy(block[32:], scoopA[:HashSize])

	var term [16]uint32
	var raw [shabal.BlockSize]byte
	copy(raw[:HashSize], scoopB[:HashSize])
	raw[32] = 0x80
	shabal.DecodeBlock(&term, raw[:])

	out := shabal.Hash(block[:], &term)
	return binary.BigEndian.Uint64(out[:8])
}
