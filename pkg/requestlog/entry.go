// Package requestlog records every proxy transaction: a bounded in-memory
// history plus a live subscriber feed for streaming clients.
package requestlog

import "time"

// TypeProxyRequest is the only entry type exposed to history and
// subscribers. Anything else is dropped at the store boundary.
const TypeProxyRequest = "PROXY_REQUEST"

// Entry is one completed (or failed) proxy transaction. Immutable once
// logged.
type Entry struct {
	// ID is a time-ordered unique identifier, assigned by the store when
	// the entry is logged without one.
	ID string `json:"id"`

	// Timestamp is when the transaction was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Type discriminates entry kinds; only TypeProxyRequest is retained.
	Type string `json:"type"`

	// Request describes what the client asked the proxy to do.
	Request RequestInfo `json:"request"`

	// Response describes what the proxy answered with.
	Response ResponseInfo `json:"response"`
}

// RequestInfo is the request half of a transaction.
type RequestInfo struct {
	Method string `json:"method"`

	// TargetURL is the decoded absolute URL the proxy was asked to reach.
	TargetURL string `json:"targetUrl"`

	// BaseURL, Path and Query are the decomposed target, when it parsed.
	BaseURL string `json:"baseUrl,omitempty"`
	Path    string `json:"path,omitempty"`
	Query   string `json:"query,omitempty"`

	// Headers is a snapshot of the inbound request headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body as matched against rules and sent upstream.
	Body string `json:"body,omitempty"`
}

// ResponseInfo is the response half of a transaction.
type ResponseInfo struct {
	Status int `json:"status"`

	// IsFake is true when a rule supplied the response instead of the
	// upstream.
	IsFake bool `json:"isFake"`

	// RuleID identifies the matched rule when IsFake is set.
	RuleID string `json:"ruleId,omitempty"`

	// Headers is a snapshot of the response headers sent to the client.
	Headers map[string][]string `json:"headers,omitempty"`

	Body string `json:"body,omitempty"`

	// Error carries the transport failure message when the upstream call
	// failed; Body is empty in that case.
	Error string `json:"error,omitempty"`
}
