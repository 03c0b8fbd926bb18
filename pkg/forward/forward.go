// Package forward executes the real upstream call when no rule matches and
// hands the response back for relaying.
package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fakegate/fakegate/pkg/logging"
)

// ErrInvalidTarget marks a target that could not be turned into an
// outgoing request: not an absolute URL, or an unusable method. These are
// client errors, distinct from upstream transport failures.
var ErrInvalidTarget = errors.New("invalid target URL")

const (
	// DefaultTimeout bounds the whole upstream exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of an upstream response is read (10MB).
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// Headers never replayed upstream: connection-scoped, or re-derived from
// the rebuilt request.
var strippedRequestHeaders = []string{
	"Host",
	"Content-Length",
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// Headers never relayed back to the client. The proxy re-serializes the
// body as plain bytes, so upstream framing and encoding markers would
// corrupt the client's read.
var strippedResponseHeaders = []string{
	"Transfer-Encoding",
	"Content-Encoding",
	"Content-Length",
}

// Result is a fully-buffered upstream response.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Forwarder issues upstream requests on behalf of proxy clients.
type Forwarder struct {
	client  *http.Client
	maxBody int64
	log     *slog.Logger
}

// Options configures a Forwarder.
type Options struct {
	// Timeout bounds each upstream exchange; DefaultTimeout if zero.
	Timeout time.Duration

	// MaxBodySize caps the buffered response body; DefaultMaxBodySize if zero.
	MaxBodySize int64

	Logger *slog.Logger
}

// New creates a Forwarder.
func New(opts Options) *Forwarder {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Forwarder{
		client:  &http.Client{Timeout: timeout},
		maxBody: maxBody,
		log:     log,
	}
}

// Forward replays the request against targetURL and returns the buffered
// upstream response. The body is attached for every method except GET and
// HEAD. The caller's context cancels the exchange when the client goes
// away.
func (f *Forwarder) Forward(ctx context.Context, method, targetURL string, header http.Header, body []byte) (*Result, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidTarget, targetURL)
	}

	var reqBody io.Reader
	if len(body) > 0 && method != http.MethodGet && method != http.MethodHead {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for _, key := range strippedRequestHeaders {
		req.Header.Del(key)
	}

	f.log.Debug("forwarding request", "method", method, "target", targetURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	f.log.Debug("upstream responded", "target", targetURL, "status", resp.StatusCode, "bytes", len(respBody))

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       respBody,
	}, nil
}

// RelayHeaders copies upstream response headers onto the outgoing response,
// skipping the encoding and framing headers the proxy invalidates.
func RelayHeaders(dst, src http.Header) {
	for key, values := range src {
		if skipOnRelay(key) {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func skipOnRelay(key string) bool {
	for _, stripped := range strippedResponseHeaders {
		if http.CanonicalHeaderKey(key) == stripped {
			return true
		}
	}
	return false
}
