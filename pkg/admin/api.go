// Package admin provides the REST API for managing interception rules and
// inspecting the request log.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fakegate/fakegate/internal/storage"
	"github.com/fakegate/fakegate/pkg/logging"
	"github.com/fakegate/fakegate/pkg/metrics"
	"github.com/fakegate/fakegate/pkg/requestlog"
)

// KeepaliveInterval is how often idle stream connections get a comment
// frame.
const KeepaliveInterval = 15 * time.Second

// AdminAPI serves the management surface on its own port, separate from
// proxy traffic.
type AdminAPI struct {
	rules   storage.RuleStore
	logs    requestlog.SubscribableStore
	metrics *metrics.Metrics
	log     *slog.Logger

	keepalive  time.Duration
	httpServer *http.Server
	version    string
}

// Options wires an AdminAPI's collaborators.
type Options struct {
	Rules      storage.RuleStore
	RequestLog requestlog.SubscribableStore
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// KeepaliveInterval overrides the stream keepalive cadence; tests use
	// short intervals.
	KeepaliveInterval time.Duration

	Version string
}

// New creates an AdminAPI listening on the given port.
func New(port int, opts Options) *AdminAPI {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	keepalive := opts.KeepaliveInterval
	if keepalive <= 0 {
		keepalive = KeepaliveInterval
	}

	api := &AdminAPI{
		rules:     opts.Rules,
		logs:      opts.RequestLog,
		metrics:   m,
		log:       log,
		keepalive: keepalive,
		version:   opts.Version,
	}

	mux := http.NewServeMux()
	api.registerRoutes(mux)

	api.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return api
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (a *AdminAPI) Handler() http.Handler {
	return a.httpServer.Handler
}

// withMiddleware wraps the mux with request logging and CORS. The admin
// API is consumed by browser tooling, so every response carries permissive
// CORS headers.
func (a *AdminAPI) withMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		a.log.Debug("admin request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Start begins serving in the background.
func (a *AdminAPI) Start() error {
	a.log.Info("admin API listening", "addr", a.httpServer.Addr)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("admin API server error", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests. Open stream connections end when
// their clients observe the closed socket.
func (a *AdminAPI) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}
