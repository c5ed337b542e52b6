// internal/client/client.go
package client

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/PoC-Consortium/bencher/internal/version"
)

// Client is an HTTP client for the pool/proxy/wallet burst API.
type Client struct {
	inner        *http.Client
	baseURL      *url.URL
	secretPhrase string // already form-encoded
	headers      http.Header
	xpu          string
}

func userAgent() string {
	return "Bencher/" + version.Version
}

// NewClient builds a client for base. The secret phrase travels verbatim
// (form-encoded) in the submit query; proxy details add the X-Miner triple
// of headers; additionalHeaders ride on every request.
func NewClient(base *url.URL, secretPhrase string, timeout time.Duration,
	sendProxyDetails bool, additionalHeaders map[string]string, xpu string) *Client {

	ua := userAgent()
	headers := http.Header{}
	headers.Set("User-Agent", ua)
	if sendProxyDetails {
		host, _ := os.Hostname()
		headers.Set("X-Miner", ua)
		headers.Set("X-Minername", host)
		headers.Set("X-Plotfile", "ScavengerProxy/"+host)
	}
	for key, value := range additionalHeaders {
		headers.Set(key, value)
	}

	return &Client{
		inner:        &http.Client{Timeout: timeout},
		baseURL:      base,
		secretPhrase: url.QueryEscape(secretPhrase),
		headers:      headers,
		xpu:          xpu,
	}
}

// uriFor joins path onto the base URL, tolerating a trailing slash there.
func (c *Client) uriFor(path, query string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	u.RawQuery = query
	return &u
}

func (c *Client) do(method string, u *url.URL, extra http.Header, dst validatable) error {
	req, err := http.NewRequest(method, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}
	for key, values := range extra {
		req.Header[key] = values
	}

	res, err := c.inner.Do(req)
	if err != nil {
		return errors.Wrap(err, "pool request")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading pool response")
	}
	return parseJSONResult(body, dst)
}

// GetMiningInfo fetches the current challenge. The capacity estimate and the
// host descriptor ride along as headers for proxies that aggregate miners.
func (c *Client) GetMiningInfo(capacity uint64) (*MiningInfo, error) {
	extra := http.Header{}
	extra.Set("X-Capacity", strconv.FormatUint(capacity, 10))
	extra.Set("X-Xpu", c.xpu)

	var info MiningInfo
	u := c.uriFor("burst", "requestType=getMiningInfo")
	if err := c.do(http.MethodGet, u, extra, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SubmitNonce posts one submission and returns the pool's confirmed
// deadline. Pools and proxies (empty secret phrase) additionally get the
// unadjusted deadline as a query parameter so they can rank submissions.
func (c *Client) SubmitNonce(p *SubmissionParameters) (*SubmitNonceResponse, error) {
	query := fmt.Sprintf(
		"requestType=submitNonce&accountId=%d&nonce=%d&secretPhrase=%s&blockheight=%d",
		p.AccountID, p.Nonce, c.secretPhrase, p.Height)
	if c.secretPhrase == "" {
		query += fmt.Sprintf("&deadline=%d", p.DeadlineUnadjusted)
	}

	extra := http.Header{}
	extra.Set("X-Deadline", strconv.FormatUint(p.Deadline, 10))

	var res SubmitNonceResponse
	u := c.uriFor("burst", query)
	if err := c.do(http.MethodPost, u, extra, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
