package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseParams() SubmissionParameters {
	return SubmissionParameters{
		AccountID:          1337,
		Nonce:              12,
		Height:             112,
		Block:              5,
		DeadlineUnadjusted: 7123,
		Deadline:           1193,
	}
}

func TestSubmissionOrdering(t *testing.T) {
	a := baseParams()

	later := a
	later.Block++
	assert.True(t, later.Better(&a))
	assert.False(t, a.Better(&later))

	smaller := a
	smaller.Deadline--
	assert.True(t, smaller.Better(&a))
	assert.False(t, a.Better(&smaller))

	// A different challenge at the same round counter means the chain
	// switched: the newer candidate wins even with a worse deadline.
	forked := a
	forked.GenSig[0] = 1
	forked.Deadline++
	assert.True(t, forked.Better(&a))

	// Same challenge, worse deadline: no replacement.
	worse := a
	worse.Deadline++
	assert.False(t, worse.Better(&a))
}

func TestSubmitReplacesOnlyWithBetter(t *testing.T) {
	s := NewSubmitter(nil)

	a := baseParams()
	b := a
	b.Deadline = 900

	s.Submit(a)
	s.Submit(b)
	assert.Equal(t, &b, s.pending, "better candidate must replace")

	s.Submit(a)
	assert.Equal(t, &b, s.pending, "worse candidate must be dropped")
}
