package client

// SubmissionParameters identifies one nonce submission. We always cache the
// currently best parameters and resend them on transport errors and soft
// pool errors; in the meantime a better candidate replaces the cached one.
type SubmissionParameters struct {
	AccountID          uint64
	Nonce              uint64
	Height             uint64
	Block              uint64
	DeadlineUnadjusted uint64
	Deadline           uint64
	GenSig             [32]byte
}

// Better reports whether p should replace o as the pending submission.
// A later round always wins; within one round and one challenge the smaller
// adjusted deadline wins; a different challenge at the same round counter
// means the chain switched, and the newer candidate wins.
func (p *SubmissionParameters) Better(o *SubmissionParameters) bool {
	switch {
	case p.Block != o.Block:
		return p.Block > o.Block
	case p.GenSig == o.GenSig:
		return p.Deadline < o.Deadline
	default:
		return true
	}
}
