// Package storage owns the rule set: insertion-ordered storage with
// duplicate-conflict enforcement and optional JSON file persistence.
package storage

import (
	"errors"

	"github.com/fakegate/fakegate/pkg/rule"
)

// Sentinel errors surfaced through the admin API.
var (
	// ErrNotFound means no rule exists with the given ID.
	ErrNotFound = errors.New("rule not found")

	// ErrDuplicateRule means the rule is ambiguous with an existing one:
	// same base URL and path plus an equivalent query or body constraint.
	ErrDuplicateRule = errors.New("rule conflicts with an existing rule")

	// ErrVariantNotFound means the rule has no response variant with the
	// given name.
	ErrVariantNotFound = errors.New("response variant not found")
)

// RuleStore stores and retrieves fake-response rules. Implementations are
// safe for concurrent use; reads return deep copies so the matcher always
// sees a consistent snapshot and callers can never mutate shared state.
type RuleStore interface {
	// Add validates nothing beyond conflicts: the caller normalizes and
	// validates first. On success the rule has its ID and CreatedAt set.
	Add(r *rule.Rule) error

	// Get returns a copy of the rule, or nil if the ID is unknown.
	Get(id string) *rule.Rule

	// Update replaces the rule with the same ID, preserving its insertion
	// position and CreatedAt. Returns ErrNotFound or ErrDuplicateRule.
	Update(r *rule.Rule) error

	// Delete removes a rule. Returns true if it existed.
	Delete(id string) bool

	// List returns copies of all rules in insertion order.
	List() []*rule.Rule

	// ActivateResponse atomically makes the named variant the only active
	// one and returns the updated rule.
	ActivateResponse(id, name string) (*rule.Rule, error)

	// Count returns the number of stored rules.
	Count() int
}
