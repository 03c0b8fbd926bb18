package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fakegate/fakegate/pkg/httputil"
	"github.com/fakegate/fakegate/pkg/requestlog"
	"github.com/fakegate/fakegate/pkg/sse"
)

func (a *AdminAPI) handleListLogs(w http.ResponseWriter, r *http.Request) {
	filter := &requestlog.Filter{}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, "invalid_offset", "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	httputil.WriteOK(w, map[string]any{
		"entries": a.logs.List(filter),
		"total":   a.logs.Count(),
	})
}

func (a *AdminAPI) handleGetLog(w http.ResponseWriter, r *http.Request) {
	entry := a.logs.Get(r.PathValue("id"))
	if entry == nil {
		httputil.WriteNotFound(w, "log_not_found", "no log entry with that id")
		return
	}
	httputil.WriteOK(w, entry)
}

func (a *AdminAPI) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	a.logs.Clear()
	a.metrics.LogEntries.Set(0)
	a.log.Info("request log cleared")
	httputil.WriteNoContent(w)
}

// handleStreamLogs serves the live request feed over SSE. The client gets
// a connected event first, then one request event per logged transaction,
// with keepalive comments through idle periods.
func (a *AdminAPI) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	stream, err := sse.NewStream(w)
	if err != nil {
		httputil.WriteInternalError(w, "streaming_unsupported", err.Error())
		return
	}

	entries, unsubscribe := a.logs.Subscribe()
	defer unsubscribe()

	a.metrics.StreamSubscribers.Inc()
	defer a.metrics.StreamSubscribers.Dec()

	a.log.Debug("stream connected", "stream", stream.ID(), "remote", r.RemoteAddr)
	defer a.log.Debug("stream disconnected", "stream", stream.ID())

	if err := stream.SendEvent("connected", map[string]any{
		"streamId":  stream.ID(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return
	}

	keepalive := time.NewTicker(a.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := stream.SendEvent("request", entry); err != nil {
				return
			}
		case <-keepalive.C:
			if err := stream.SendKeepalive(); err != nil {
				return
			}
		}
	}
}
