package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMiningInfoRequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Write([]byte(`{"generationSignature":"00","baseTarget":70000,"height":12}`))
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	c := NewClient(base, "", time.Second, true,
		map[string]string{"X-Account": "abc"}, "cpu: test [using 1 of 1 cores]")

	info, err := c.GetMiningInfo(42)
	require.NoError(t, err)
	assert.Equal(t, FlexUint64(70000), info.BaseTarget)

	assert.Equal(t, "/burst", got.URL.Path)
	assert.Equal(t, "getMiningInfo", got.URL.Query().Get("requestType"))
	assert.Equal(t, "Bencher/1.0.0", got.Header.Get("User-Agent"))
	assert.Equal(t, "42", got.Header.Get("X-Capacity"))
	assert.Equal(t, "cpu: test [using 1 of 1 cores]", got.Header.Get("X-Xpu"))
	assert.Equal(t, "abc", got.Header.Get("X-Account"))
	assert.Equal(t, "Bencher/1.0.0", got.Header.Get("X-Miner"))
	assert.NotEmpty(t, got.Header.Get("X-Plotfile"))
}

func TestSubmitNonceRequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Write([]byte(`{"deadline":1193}`))
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL + "/")
	c := NewClient(base, "", time.Second, false, nil, "")

	p := baseParams()
	res, err := c.SubmitNonce(&p)
	require.NoError(t, err)
	assert.Equal(t, uint64(1193), res.Deadline)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/burst", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "submitNonce", q.Get("requestType"))
	assert.Equal(t, "1337", q.Get("accountId"))
	assert.Equal(t, "12", q.Get("nonce"))
	assert.Equal(t, "112", q.Get("blockheight"))
	assert.Equal(t, "7123", q.Get("deadline"), "pool mode sends the unadjusted deadline")
	assert.Equal(t, "1193", got.Header.Get("X-Deadline"))
	assert.Empty(t, got.Header.Get("X-Miner"), "proxy details disabled")
}

func TestSubmitNonceSoloModeOmitsDeadline(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Write([]byte(`{"deadline":1193}`))
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	c := NewClient(base, "my secret phrase", time.Second, false, nil, "")

	p := baseParams()
	_, err := c.SubmitNonce(&p)
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "my secret phrase", q.Get("secretPhrase"))
	assert.False(t, q.Has("deadline"), "solo mode lets the wallet compute the deadline")
}
