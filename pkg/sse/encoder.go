// Package sse implements the Server-Sent Events wire format used by the
// live request stream.
// See: https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Field prefixes from the SSE wire format.
const (
	fieldEvent   = "event: "
	fieldData    = "data: "
	fieldID      = "id: "
	fieldComment = ": "
)

// MaxEventDataSize caps a single event payload (1MB). Larger payloads are
// rejected rather than truncated.
const MaxEventDataSize = 1 << 20

var (
	// ErrEventTooLarge is returned when a payload exceeds MaxEventDataSize.
	ErrEventTooLarge = errors.New("sse: event data too large")

	// ErrInvalidField is returned when an event type or ID contains line
	// breaks, which would corrupt the framing.
	ErrInvalidField = errors.New("sse: field contains line break")
)

// Encoder formats events into SSE wire frames.
type Encoder struct{}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// FormatEvent frames a named event with a JSON-encoded payload. String and
// []byte payloads are written as-is; anything else is marshaled.
func (e *Encoder) FormatEvent(eventType string, data any) (string, error) {
	if strings.ContainsAny(eventType, "\r\n") {
		return "", ErrInvalidField
	}

	payload, err := e.formatData(data)
	if err != nil {
		return "", err
	}
	if len(payload) > MaxEventDataSize {
		return "", ErrEventTooLarge
	}

	var sb strings.Builder
	if eventType != "" {
		sb.WriteString(fieldEvent)
		sb.WriteString(eventType)
		sb.WriteByte('\n')
	}

	// Multiline payloads become multiple data: lines of one event.
	for _, line := range strings.Split(payload, "\n") {
		sb.WriteString(fieldData)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	// Blank line dispatches the event.
	sb.WriteByte('\n')
	return sb.String(), nil
}

// FormatKeepalive returns a comment frame that keeps idle connections open.
// EventSource clients ignore comment lines.
func (e *Encoder) FormatKeepalive() string {
	return ": keepalive\n\n"
}

func (e *Encoder) formatData(data any) (string, error) {
	switch v := data.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("sse: marshaling event data: %w", err)
		}
		return string(raw), nil
	}
}
