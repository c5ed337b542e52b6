// internal/client/api.go
// Package client talks to the pool/proxy/wallet: mining info polling, nonce
// submission and the priority-retry submit queue.
package client

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FlexUint64 is a u64 that pools deliver either as a JSON number or as a
// string, depending on the implementation.
type FlexUint64 uint64

func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		*f = FlexUint64(v)
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexUint64(v)
	return nil
}

// MiningInfo is the getMiningInfo response.
type MiningInfo struct {
	GenerationSignature string      `json:"generationSignature"`
	BaseTarget          FlexUint64  `json:"baseTarget"`
	Height              FlexUint64  `json:"height"`
	TargetDeadline      *FlexUint64 `json:"targetDeadline,omitempty"`
}

// ServerTargetDeadline returns the pool's target deadline, or u64 max when
// the pool doesn't send one.
func (m *MiningInfo) ServerTargetDeadline() uint64 {
	if m.TargetDeadline == nil {
		return math.MaxUint64
	}
	return uint64(*m.TargetDeadline)
}

// SubmitNonceResponse is the submitNonce success response.
type SubmitNonceResponse struct {
	Deadline uint64

	rawDeadline *FlexUint64
}

func (r *SubmitNonceResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Deadline *FlexUint64 `json:"deadline"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.rawDeadline = raw.Deadline
	if raw.Deadline != nil {
		r.Deadline = uint64(*raw.Deadline)
	}
	return nil
}

// PoolError is the error object pools wrap their failures in. A zero Code
// with the raw body as Message stands in for unparseable replies.
type PoolError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("pool error: code=%d, message=%s", e.Code, e.Message)
}

// Soft reports whether the pool error is transient: pools under submission
// rate limits answer "limit exceeded" (or nothing) and expect a retry.
func (e *PoolError) Soft() bool {
	return e.Message == "" || e.Message == "limit exceeded"
}

type poolErrorWrapper struct {
	Error *PoolError `json:"error"`
}

// result types know whether a decode actually hit their required fields;
// JSON unmarshaling alone is too permissive to tell an error body apart.
type validatable interface {
	valid() bool
}

func (m *MiningInfo) valid() bool {
	return m.GenerationSignature != "" && m.BaseTarget > 0
}

func (r *SubmitNonceResponse) valid() bool {
	return r.rawDeadline != nil
}

// parseJSONResult decodes a pool reply into dst. The error wrapper wins over
// a partial match of dst's shape; anything unparseable becomes a PoolError
// carrying the raw body, so broken proxies still surface something readable.
func parseJSONResult(body []byte, dst validatable) error {
	var wrapper poolErrorWrapper
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error != nil {
		return wrapper.Error
	}
	if err := json.Unmarshal(body, dst); err == nil && dst.valid() {
		return nil
	}
	return &PoolError{Code: 0, Message: string(body)}
}
