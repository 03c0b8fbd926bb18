// Package engine implements the interception proxy: every request names
// its real destination in a target parameter, and the engine either
// substitutes a configured fake response or forwards transparently. Each
// transaction is recorded in the request log either way.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fakegate/fakegate/internal/matching"
	"github.com/fakegate/fakegate/internal/storage"
	"github.com/fakegate/fakegate/pkg/forward"
	"github.com/fakegate/fakegate/pkg/httputil"
	"github.com/fakegate/fakegate/pkg/logging"
	"github.com/fakegate/fakegate/pkg/metrics"
	"github.com/fakegate/fakegate/pkg/requestlog"
	"github.com/fakegate/fakegate/pkg/rule"
)

// maxRequestBody caps how much of an inbound body is buffered for matching
// and forwarding (10MB).
const maxRequestBody = 10 * 1024 * 1024

// Engine handles proxy traffic against a rule store.
type Engine struct {
	rules   storage.RuleStore
	logs    requestlog.Store
	fwd     *forward.Forwarder
	metrics *metrics.Metrics
	log     *slog.Logger

	server *http.Server
}

// Options wires an Engine's collaborators.
type Options struct {
	Rules      storage.RuleStore
	RequestLog requestlog.Store
	Forwarder  *forward.Forwarder
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New creates an Engine. Rules, RequestLog and Forwarder are required.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Engine{
		rules:   opts.Rules,
		logs:    opts.RequestLog,
		fwd:     opts.Forwarder,
		metrics: m,
		log:     log,
	}
}

// ServeHTTP handles one proxy transaction on any method and path.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	targetURL, err := ExtractTarget(r.RequestURI)
	if err != nil {
		httputil.WriteBadRequest(w, "missing_target", "target query parameter is required")
		return
	}

	target, err := matching.ParseTarget(targetURL)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_target", fmt.Sprintf("target is not an absolute URL: %s", targetURL))
		return
	}

	// Read one byte past the limit so an oversized body is rejected
	// instead of being matched and forwarded truncated.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		httputil.WriteBadRequest(w, "unreadable_body", "request body could not be read")
		return
	}
	if len(body) > maxRequestBody {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds the 10MB limit")
		return
	}

	entry := &requestlog.Entry{
		Type: requestlog.TypeProxyRequest,
		Request: requestlog.RequestInfo{
			Method:    r.Method,
			TargetURL: targetURL,
			BaseURL:   target.BaseURL,
			Path:      target.Path,
			Query:     target.Query,
			Headers:   r.Header.Clone(),
			Body:      string(body),
		},
	}

	if matched := matching.MatchTarget(target, string(body), e.rules.List()); matched != nil {
		e.serveFake(w, entry, matched)
	} else {
		e.forward(w, r, entry, targetURL, body)
	}

	e.logs.Log(entry)
	e.metrics.LogEntries.Set(float64(e.logs.Count()))
}

// serveFake answers with the matched rule's active response variant.
func (e *Engine) serveFake(w http.ResponseWriter, entry *requestlog.Entry, matched *rule.Rule) {
	var responseBody string
	if active := matched.ActiveResponse(); active != nil {
		responseBody = active.Body
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(responseBody))

	e.log.Debug("served fake response", "rule", matched.ID, "target", entry.Request.TargetURL)
	e.metrics.ProxyRequests.WithLabelValues(metrics.OutcomeFake).Inc()

	entry.Response = requestlog.ResponseInfo{
		Status:  http.StatusOK,
		IsFake:  true,
		RuleID:  matched.ID,
		Headers: w.Header().Clone(),
		Body:    responseBody,
	}
}

// forward relays the request upstream and the response back.
func (e *Engine) forward(w http.ResponseWriter, r *http.Request, entry *requestlog.Entry, targetURL string, body []byte) {
	result, err := e.fwd.Forward(r.Context(), r.Method, targetURL, r.Header, body)
	if err != nil {
		e.log.Warn("upstream request failed", "target", targetURL, "error", err)
		e.metrics.UpstreamErrors.Inc()
		e.metrics.ProxyRequests.WithLabelValues(metrics.OutcomeError).Inc()

		httputil.WriteInternalError(w, "upstream_error", err.Error())
		entry.Response = requestlog.ResponseInfo{
			Status: http.StatusInternalServerError,
			IsFake: false,
			Error:  err.Error(),
		}
		return
	}

	forward.RelayHeaders(w.Header(), result.Header)
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(result.Body)

	e.metrics.ProxyRequests.WithLabelValues(metrics.OutcomeForwarded).Inc()
	entry.Response = requestlog.ResponseInfo{
		Status:  result.StatusCode,
		IsFake:  false,
		Headers: w.Header().Clone(),
		Body:    string(result.Body),
	}
}

// Start begins serving proxy traffic on addr. It blocks until the server
// stops.
func (e *Engine) Start(addr string) error {
	e.server = &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	e.log.Info("proxy listening", "addr", addr)
	if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
