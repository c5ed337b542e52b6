// internal/miner/state.go
package miner

import (
	"encoding/hex"
	"math"

	"github.com/pkg/errors"

	"github.com/PoC-Consortium/bencher/internal/client"
	"github.com/PoC-Consortium/bencher/internal/status"
	"github.com/PoC-Consortium/bencher/pkg/poc/plot"
)

// genesisBaseTarget anchors the net-difficulty estimate logged per block.
const genesisBaseTarget = 4_398_046_511_104

// State is the single mutable mining record: the current challenge, the
// best deadline submitted this round and the connectivity flags. It is
// guarded by the Miner's mutex and only touched in short, non-I/O sections.
type State struct {
	generationSignature      string
	generationSignatureBytes [32]byte
	baseTarget               uint64
	height                   uint64
	blockSeq                 uint64
	serverTargetDeadline     uint64
	first                    bool
	outage                   bool
	bestDeadline             uint64
	scoop                    uint32
	capacity                 uint64
}

func newState() *State {
	return &State{
		baseTarget:           1,
		serverTargetDeadline: math.MaxUint64,
		first:                true,
		bestDeadline:         math.MaxUint64,
	}
}

// updateMiningInfo applies a changed challenge: bump the local round
// counter, reset the best deadline and derive the scoop.
func (s *State) updateMiningInfo(info *client.MiningInfo) error {
	gensig, err := decodeGensig(info.GenerationSignature)
	if err != nil {
		return err
	}

	s.bestDeadline = math.MaxUint64
	s.height = uint64(info.Height)
	s.blockSeq++
	s.baseTarget = uint64(info.BaseTarget)
	s.serverTargetDeadline = info.ServerTargetDeadline()
	s.generationSignature = info.GenerationSignature
	s.generationSignatureBytes = gensig
	s.scoop = plot.CalculateScoop(s.height, &s.generationSignatureBytes)
	status.RoundHeight.Set(float64(s.height))
	status.BestDeadline.Set(math.MaxUint64)

	log.Infof("new block: height=%d, scoop=%d, netdiff=%d",
		s.height, s.scoop, genesisBaseTarget/240/s.baseTarget)
	return nil
}

func decodeGensig(s string) ([32]byte, error) {
	var gensig [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return gensig, errors.Wrap(err, "decoding generation signature")
	}
	if len(raw) != 32 {
		return gensig, errors.Errorf("generation signature has %d bytes, want 32", len(raw))
	}
	copy(gensig[:], raw)
	return gensig, nil
}
