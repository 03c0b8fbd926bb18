package storage

import (
	"sync"
	"time"

	"github.com/fakegate/fakegate/internal/id"
	"github.com/fakegate/fakegate/internal/matching"
	"github.com/fakegate/fakegate/pkg/rule"
)

// MemoryStore is a thread-safe, insertion-ordered in-memory RuleStore.
// Slice order is match precedence; updates keep their slot so precedence
// never shifts underneath the matcher.
type MemoryStore struct {
	mu    sync.RWMutex
	rules []*rule.Rule
	index map[string]int // id -> position in rules
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

// Add stores a new rule at the end of the match order. The rule gets a
// fresh time-ordered ID and CreatedAt timestamp.
func (s *MemoryStore) Add(r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if matching.Conflicts(existing, r) {
			return ErrDuplicateRule
		}
	}

	stored := r.Clone()
	stored.ID = id.New()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = time.Time{}

	s.index[stored.ID] = len(s.rules)
	s.rules = append(s.rules, stored)

	*r = *stored.Clone()
	return nil
}

// Get returns a copy of the rule, or nil.
func (s *MemoryStore) Get(ruleID string) *rule.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[ruleID]
	if !ok {
		return nil
	}
	return s.rules[pos].Clone()
}

// Update replaces the stored rule in place, keeping ID, CreatedAt and
// insertion position. Conflicts are re-checked against all other rules.
func (s *MemoryStore) Update(r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[r.ID]
	if !ok {
		return ErrNotFound
	}
	for i, existing := range s.rules {
		if i == pos {
			continue
		}
		if matching.Conflicts(existing, r) {
			return ErrDuplicateRule
		}
	}

	stored := r.Clone()
	stored.CreatedAt = s.rules[pos].CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	s.rules[pos] = stored

	*r = *stored.Clone()
	return nil
}

// Delete removes the rule and shifts later rules up one slot.
func (s *MemoryStore) Delete(ruleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[ruleID]
	if !ok {
		return false
	}
	s.rules = append(s.rules[:pos], s.rules[pos+1:]...)
	delete(s.index, ruleID)
	for i := pos; i < len(s.rules); i++ {
		s.index[s.rules[i].ID] = i
	}
	return true
}

// List returns copies of all rules in insertion order.
func (s *MemoryStore) List() []*rule.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*rule.Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Clone()
	}
	return out
}

// ActivateResponse flips the named variant active and all siblings inactive
// under the store lock, so no reader can observe zero or two active
// variants.
func (s *MemoryStore) ActivateResponse(ruleID, name string) (*rule.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[ruleID]
	if !ok {
		return nil, ErrNotFound
	}

	updated := s.rules[pos].Clone()
	if !updated.Activate(name) {
		return nil, ErrVariantNotFound
	}
	updated.UpdatedAt = time.Now().UTC()
	s.rules[pos] = updated

	return updated.Clone(), nil
}

// Count returns the number of stored rules.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// load replaces the store contents wholesale. Used by FileStore on Open.
func (s *MemoryStore) load(rules []*rule.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = make([]*rule.Rule, len(rules))
	s.index = make(map[string]int, len(rules))
	for i, r := range rules {
		stored := r.Clone()
		s.rules[i] = stored
		s.index[stored.ID] = i
	}
}

var _ RuleStore = (*MemoryStore)(nil)
