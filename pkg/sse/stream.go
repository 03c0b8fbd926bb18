package sse

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush,
// which makes SSE impossible.
var ErrStreamingUnsupported = errors.New("sse: response writer does not support streaming")

// Stream is one open SSE connection. Not safe for concurrent sends; callers
// serialize writes on their own goroutine.
type Stream struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *Encoder
}

// NewStream prepares the response for event streaming and writes the SSE
// headers. It fails if the writer cannot flush.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{
		id:      uuid.NewString(),
		w:       w,
		flusher: flusher,
		enc:     NewEncoder(),
	}, nil
}

// ID identifies this connection in logs.
func (s *Stream) ID() string {
	return s.id
}

// SendEvent writes one named event and flushes it to the client.
func (s *Stream) SendEvent(eventType string, data any) error {
	frame, err := s.enc.FormatEvent(eventType, data)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte(frame)); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SendKeepalive writes a comment frame so proxies and clients keep the
// connection open through idle periods.
func (s *Stream) SendKeepalive() error {
	if _, err := s.w.Write([]byte(s.enc.FormatKeepalive())); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
