// Package rule defines the stored fake-response rules: which target shape
// they apply to and which response variants they can answer with.
package rule

import (
	"fmt"
	"net/url"
	"time"
)

// Rule maps a target shape (base URL, path, optional query and body
// constraints) to a list of named response variants. Empty Query or Body
// means the dimension is unconstrained; a request matches regardless of
// what it carries there.
type Rule struct {
	// ID is assigned by the store on creation (ULID, time-ordered).
	ID string `json:"id" yaml:"id"`

	// BaseURL is scheme+host of the target, compared exactly.
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`

	// Path is the target URL path, compared exactly and case-sensitively.
	Path string `json:"path" yaml:"path"`

	// Query is an optional raw query string constraint. Compared for
	// semantic equivalence, not byte equality.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// Body is an optional raw body constraint. JSON bodies are compared
	// structurally, anything else by exact string equality.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`

	// Responses holds the candidate fake responses. Exactly one is active
	// at any time.
	Responses []ResponseVariant `json:"responses" yaml:"responses"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// ResponseVariant is one named fake response payload.
type ResponseVariant struct {
	Name   string `json:"name" yaml:"name"`
	Body   string `json:"body" yaml:"body"`
	Active bool   `json:"active" yaml:"active"`
}

// ActiveResponse returns the variant currently flagged active, or nil for a
// rule with no responses.
func (r *Rule) ActiveResponse() *ResponseVariant {
	for i := range r.Responses {
		if r.Responses[i].Active {
			return &r.Responses[i]
		}
	}
	return nil
}

// Activate flips the named variant to active and all siblings to inactive.
// Returns false if no variant has that name; the rule is left untouched.
func (r *Rule) Activate(name string) bool {
	idx := -1
	for i := range r.Responses {
		if r.Responses[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for i := range r.Responses {
		r.Responses[i].Active = i == idx
	}
	return true
}

// Normalize repairs the active flag after decoding user input: if no variant
// is flagged, the first becomes active. Rules with several flagged variants
// are left alone so Validate can reject them.
func (r *Rule) Normalize() {
	if len(r.Responses) == 0 {
		return
	}
	if r.ActiveResponse() == nil {
		r.Responses[0].Active = true
	}
}

// Validate checks the rule's required fields and the single-active-variant
// invariant. It does not check for conflicts with other rules; the store
// does that.
func (r *Rule) Validate() error {
	if r.BaseURL == "" {
		return fmt.Errorf("baseUrl is required")
	}
	u, err := url.Parse(r.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("baseUrl must be scheme and host, e.g. https://api.example.com: %q", r.BaseURL)
	}
	if u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("baseUrl must not carry a path or query: %q", r.BaseURL)
	}
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	if len(r.Responses) == 0 {
		return fmt.Errorf("at least one response variant is required")
	}

	names := make(map[string]struct{}, len(r.Responses))
	active := 0
	for i := range r.Responses {
		v := &r.Responses[i]
		if v.Name == "" {
			return fmt.Errorf("response variant %d has no name", i)
		}
		if _, dup := names[v.Name]; dup {
			return fmt.Errorf("duplicate response variant name %q", v.Name)
		}
		names[v.Name] = struct{}{}
		if v.Active {
			active++
		}
	}
	if active != 1 {
		return fmt.Errorf("exactly one response variant must be active, found %d", active)
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// observe or mutate shared rule state.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	dup := *r
	dup.Responses = make([]ResponseVariant, len(r.Responses))
	copy(dup.Responses, r.Responses)
	return &dup
}
