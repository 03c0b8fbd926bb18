package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/fakegate/fakegate/internal/id"
)

// DefaultCapacity is the history size when none is configured.
const DefaultCapacity = 1000

// subscriberBuffer is the per-subscriber channel depth. A subscriber this
// far behind starts missing entries.
const subscriberBuffer = 100

// RingStore is an in-memory SubscribableStore: a fixed-capacity buffer
// evicting oldest first, with non-blocking fan-out to live subscribers.
type RingStore struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int

	// exclude holds substring patterns; a transaction whose target URL or
	// path contains one is neither stored nor broadcast.
	exclude []string

	subMu       sync.RWMutex
	subscribers map[Subscriber]struct{}
}

// Options configures a RingStore.
type Options struct {
	// Capacity is the maximum retained entries; DefaultCapacity if <= 0.
	Capacity int

	// ExcludePatterns are substrings matched against the target URL and
	// path at log time.
	ExcludePatterns []string
}

// NewRingStore creates an empty RingStore.
func NewRingStore(opts Options) *RingStore {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingStore{
		entries:     make([]*Entry, 0, capacity),
		capacity:    capacity,
		exclude:     opts.ExcludePatterns,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log appends the entry and publishes it to all subscribers. Entries that
// are not proxy transactions, or whose target matches an exclusion
// pattern, are dropped entirely.
func (s *RingStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	if entry.Type == "" {
		entry.Type = TypeProxyRequest
	}
	if entry.Type != TypeProxyRequest {
		return
	}
	if s.excluded(entry) {
		return
	}

	s.mu.Lock()
	if entry.ID == "" {
		entry.ID = id.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if len(s.entries) >= s.capacity {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
			// Subscriber is not draining; it catches up via List.
		}
	}
	s.subMu.RUnlock()
}

func (s *RingStore) excluded(entry *Entry) bool {
	for _, pattern := range s.exclude {
		if pattern == "" {
			continue
		}
		if strings.Contains(entry.Request.TargetURL, pattern) || strings.Contains(entry.Request.Path, pattern) {
			return true
		}
	}
	return false
}

// Get returns the entry with the given ID, or nil.
func (s *RingStore) Get(entryID string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// List returns entries newest first, paged by filter.
func (s *RingStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		result = append(result, s.entries[i])
	}
	s.mu.RUnlock()

	if filter == nil {
		return result
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*Entry{}
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result
}

// Clear empties the history.
func (s *RingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, s.capacity)
}

// Count returns the number of retained entries.
func (s *RingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers a live sink. The returned function unsubscribes and
// closes the channel; it is safe to call during a concurrent Log.
func (s *RingStore) Subscribe() (Subscriber, func()) {
	ch := make(Subscriber, subscriberBuffer)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, unsubscribe
}

// SubscriberCount returns the number of live subscribers.
func (s *RingStore) SubscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subscribers)
}

var _ SubscribableStore = (*RingStore)(nil)
