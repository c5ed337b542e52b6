// internal/client/submitter.go
package client

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PoC-Consortium/bencher/internal/status"
)

var log = logrus.WithField("prefix", "submit")

// retryQuantum is the minimum spacing between attempts of the same
// candidate.
const retryQuantum = 3 * time.Second

// Submitter drains submission candidates with a priority-retry discipline:
// at most one pending candidate (newest-best-wins replacement), at most one
// request in flight, soft failures re-queue the candidate, and a retry of
// the same candidate waits out the retry quantum. Submit never blocks.
type Submitter struct {
	client *Client

	mu      sync.Mutex
	pending *SubmissionParameters

	kick chan struct{}

	// injected for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewSubmitter wires a submitter to a pool client. Run must be started for
// candidates to flow.
func NewSubmitter(c *Client) *Submitter {
	return &Submitter{
		client: c,
		kick:   make(chan struct{}, 1),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Submit offers a candidate. It replaces the pending one only if it is
// better; otherwise the candidate is dropped.
func (s *Submitter) Submit(p SubmissionParameters) {
	s.mu.Lock()
	if s.pending == nil || p.Better(s.pending) {
		s.pending = &p
	}
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run is the single consumer loop. It returns when ctx is cancelled.
func (s *Submitter) Run(ctx context.Context) {
	var lastAttempt *SubmissionParameters
	var lastAttemptAt time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
		}

		for {
			s.mu.Lock()
			p := s.pending
			if p == nil {
				s.mu.Unlock()
				break
			}
			// A resend of the last attempted candidate (or anything
			// not strictly better) honours the retry quantum. The
			// pending slot stays populated while we wait, so a
			// better candidate can still replace it.
			if lastAttempt != nil && (*p == *lastAttempt || !p.Better(lastAttempt)) {
				if wait := retryQuantum - s.now().Sub(lastAttemptAt); wait > 0 {
					s.mu.Unlock()
					s.sleep(wait)
					continue
				}
			}
			s.pending = nil
			s.mu.Unlock()

			lastAttempt = p
			lastAttemptAt = s.now()
			s.attempt(p)
		}
	}
}

func (s *Submitter) attempt(p *SubmissionParameters) {
	res, err := s.client.SubmitNonce(p)
	if err == nil {
		if res.Deadline != p.Deadline {
			log.Errorf("submit: deadlines mismatch, height=%d, account=%d, nonce=%d, "+
				"deadline_miner=%d, deadline_pool=%d",
				p.Height, p.AccountID, p.Nonce, p.Deadline, res.Deadline)
		} else {
			log.Infof("deadline accepted: account=%d, nonce=%d, deadline=%d",
				p.AccountID, p.Nonce, p.Deadline)
		}
		return
	}

	var poolErr *PoolError
	if errors.As(err, &poolErr) {
		if poolErr.Soft() {
			log.Warnf("submission rate limited, retrying: account=%d, nonce=%d, deadline=%d",
				p.AccountID, p.Nonce, p.Deadline)
			s.Submit(*p)
			return
		}
		status.SubmissionErrors.Inc()
		log.Errorf("submission not accepted: height=%d, account=%d, nonce=%d, "+
			"deadline=%d\n\tcode: %d\n\tmessage: %s",
			p.Height, p.AccountID, p.Nonce, p.Deadline, poolErr.Code, poolErr.Message)
		return
	}

	status.SubmissionErrors.Inc()
	log.Warnf("submission failed, retrying: account=%d, nonce=%d, deadline=%d: %v",
		p.AccountID, p.Nonce, p.Deadline, err)
	s.Submit(*p)
}
