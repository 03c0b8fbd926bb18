package matching

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fakegate/fakegate/pkg/rule"
)

// Target is a proxy target URL decomposed into the pieces rules match on.
type Target struct {
	// BaseURL is scheme+host, e.g. "https://api.example.com".
	BaseURL string
	// Path is the URL path, "/users".
	Path string
	// Query is the raw query string without the leading "?".
	Query string
}

// ParseTarget splits an absolute target URL into base URL, path and raw
// query. Relative or unparseable URLs are rejected.
func ParseTarget(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("target must be an absolute URL, got %q", raw)
	}
	return &Target{
		BaseURL: u.Scheme + "://" + u.Host,
		Path:    u.Path,
		Query:   u.RawQuery,
	}, nil
}

// Match selects the first rule satisfied by the target URL and request body,
// in slice order. A target that fails to parse matches nothing.
func Match(targetURL, body string, rules []*rule.Rule) *rule.Rule {
	t, err := ParseTarget(targetURL)
	if err != nil {
		return nil
	}
	return MatchTarget(t, body, rules)
}

// MatchTarget is Match for an already-parsed target. Base URL and path must
// match exactly; a rule's non-empty query/body constraints must hold via
// semantic equivalence; empty constraints match anything.
func MatchTarget(t *Target, body string, rules []*rule.Rule) *rule.Rule {
	for _, r := range rules {
		if r.BaseURL != t.BaseURL || r.Path != t.Path {
			continue
		}
		if q := strings.TrimSpace(r.Query); q != "" && !QueryEquivalent(q, t.Query) {
			continue
		}
		if b := strings.TrimSpace(r.Body); b != "" && !BodyEquivalent(b, body) {
			continue
		}
		return r
	}
	return nil
}

// Conflicts reports whether two rules are ambiguous duplicates of each
// other. Rules sharing base URL and path conflict when both are fully
// unconstrained, or when both constrain the same dimension (query or body)
// with equivalent values. A dimension constrained by only one of the two
// rules keeps them distinct.
func Conflicts(a, b *rule.Rule) bool {
	if a.BaseURL != b.BaseURL || a.Path != b.Path {
		return false
	}

	aq, bq := strings.TrimSpace(a.Query), strings.TrimSpace(b.Query)
	ab, bb := strings.TrimSpace(a.Body), strings.TrimSpace(b.Body)

	if aq == "" && bq == "" && ab == "" && bb == "" {
		return true
	}
	if aq != "" && bq != "" && QueryEquivalent(aq, bq) {
		return true
	}
	if ab != "" && bb != "" && BodyEquivalent(ab, bb) {
		return true
	}
	return false
}
