package admin

import "net/http"

// registerRoutes sets up all API routes.
func (a *AdminAPI) registerRoutes(mux *http.ServeMux) {
	// Health and diagnostics
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("GET /metrics", a.metrics.Handler())

	// Rule management
	mux.HandleFunc("GET /api/rules", a.handleListRules)
	mux.HandleFunc("POST /api/rules", a.handleCreateRule)
	mux.HandleFunc("GET /api/rules/{id}", a.handleGetRule)
	mux.HandleFunc("PUT /api/rules/{id}", a.handleUpdateRule)
	mux.HandleFunc("DELETE /api/rules/{id}", a.handleDeleteRule)
	mux.HandleFunc("POST /api/rules/{id}/responses/{name}/activate", a.handleActivateResponse)

	// Request log
	mux.HandleFunc("GET /api/logs", a.handleListLogs)
	mux.HandleFunc("DELETE /api/logs", a.handleClearLogs)
	mux.HandleFunc("GET /api/logs/stream", a.handleStreamLogs)
	mux.HandleFunc("GET /api/logs/{id}", a.handleGetLog)
}
