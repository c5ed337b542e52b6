// Package shabal implements the Shabal-256 compression used by the PoC
// plotting and deadline pipeline. Inputs are always full 512-bit blocks:
// callers pass an optional block-aligned prefix plus one already-padded
// 16-word termination block, so no padding logic lives here.
package shabal

import "encoding/binary"

// BlockSize is the Shabal message block size in bytes.
const BlockSize = 64

// DigestSize is the Shabal-256 output size in bytes.
const DigestSize = 32

// Initialisation vectors for the 256-bit output size, as produced by the
// two-block prefix procedure of the Shabal submission.
var (
	ivA = [12]uint32{
		0x52F84552, 0xE54B7999, 0x2D8EE3EC, 0xB9645191,
		0xE0078B86, 0xBB7C44C9, 0xD2B5C1CA, 0xB0D2EB8C,
		0x14CE5A45, 0x22AF50DC, 0xEFFDBC6B, 0xEB21B74A,
	}
	ivB = [16]uint32{
		0xB555C6EE, 0x3E710596, 0xA72A652F, 0x9301515F,
		0xDA28C1FA, 0x696FD868, 0x9CB6BF72, 0x0AFE4002,
		0xA6E03615, 0x5138C1D4, 0xBE216306, 0xB38B8890,
		0x3EA8B96B, 0x3299ACE4, 0x30924DD4, 0x55CB34A5,
	}
	ivC = [16]uint32{
		0xB405F031, 0xC4233EBA, 0xB3733979, 0xC0DD9D55,
		0xC51C28AE, 0xA327B8E1, 0x56C56167, 0xED614433,
		0x88B59D60, 0x60E2CEBA, 0x758B4B8B, 0x83E82A7F,
		0xBC968828, 0xE6E00BF7, 0xBA839E55, 0x9B491C60,
	}
)

// State is a running Shabal-256 state. The zero value is not usable; call
// Init (or use Hash/HashTo) before feeding blocks.
type State struct {
	a [12]uint32
	b [16]uint32
	c [16]uint32
	w uint64
}

// Init resets the state to the Shabal-256 IV.
func (s *State) Init() {
	s.a = ivA
	s.b = ivB
	s.c = ivC
	s.w = 1
}

func rotl32(x uint32, n uint) uint32 {
	return x<<n | x>>(32-n)
}

// applyP is the Shabal permutation: the initial B rotation, 48 mixing steps
// and the trailing A+C additions.
func (s *State) applyP(m *[16]uint32) {
	a, b, c := &s.a, &s.b, &s.c
	for i := 0; i < 16; i++ {
		b[i] = rotl32(b[i], 17)
	}
	for step := 0; step < 48; step++ {
		i := step & 15
		ai := step % 12
		ap := (step + 11) % 12
		x := ((a[ai] ^ (rotl32(a[ap], 15) * 5) ^ c[(8-i)&15]) * 3) ^
			b[(i+13)&15] ^ (b[(i+9)&15] &^ b[(i+6)&15]) ^ m[i]
		a[ai] = x
		b[i] = ^(rotl32(b[i], 1) ^ x)
	}
	for j := 0; j < 36; j++ {
		a[11-j%12] += c[(54-j)&15]
	}
}

// Absorb processes one full 512-bit message block.
func (s *State) Absorb(m *[16]uint32) {
	for i := 0; i < 16; i++ {
		s.b[i] += m[i]
	}
	s.a[0] ^= uint32(s.w)
	s.a[1] ^= uint32(s.w >> 32)
	s.applyP(m)
	for i := 0; i < 16; i++ {
		s.c[i] -= m[i]
	}
	s.b, s.c = s.c, s.b
	s.w++
}

// Close processes the final, already-padded block and writes the 32-byte
// digest into dst. The counter is not advanced past the final block; the
// three extra permutation rounds reuse it, per the Shabal finalisation.
func (s *State) Close(m *[16]uint32, dst *[DigestSize]byte) {
	for i := 0; i < 16; i++ {
		s.b[i] += m[i]
	}
	s.a[0] ^= uint32(s.w)
	s.a[1] ^= uint32(s.w >> 32)
	s.applyP(m)
	for r := 0; r < 3; r++ {
		s.b, s.c = s.c, s.b
		s.a[0] ^= uint32(s.w)
		s.a[1] ^= uint32(s.w >> 32)
		s.applyP(m)
	}
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], s.b[8+i])
	}
}

// HashTo computes Shabal-256 over prefix||term and writes the digest to dst.
// Only whole BlockSize blocks of prefix are absorbed; a trailing partial
// block is ignored (the plot generator's t2 termination block carries those
// bytes itself). term is the final 512-bit block with any required padding
// already applied by the caller.
func HashTo(dst *[DigestSize]byte, prefix []byte, term *[16]uint32) {
	var s State
	s.Init()
	var m [16]uint32
	for off := 0; off+BlockSize <= len(prefix); off += BlockSize {
		DecodeBlock(&m, prefix[off:])
		s.Absorb(&m)
	}
	s.Close(term, dst)
}

// Hash is HashTo returning the digest by value.
func Hash(prefix []byte, term *[16]uint32) [DigestSize]byte {
	var out [DigestSize]byte
	HashTo(&out, prefix, term)
	return out
}

// DecodeBlock reads 64 bytes as 16 little-endian message words.
func DecodeBlock(m *[16]uint32, src []byte) {
	_ = src[63]
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint32(src[i*4:])
	}
}

// EncodeBlock writes 16 message words back to 64 little-endian bytes.
func EncodeBlock(dst []byte, m *[16]uint32) {
	_ = dst[63]
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], m[i])
	}
}
