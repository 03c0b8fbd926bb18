package requestlog

// Logger is the minimal sink the proxy engine needs: record an entry,
// best-effort, never fail the request that produced it.
type Logger interface {
	Log(entry *Entry)
}

// Filter selects a page of history.
type Filter struct {
	// Offset skips entries from the newest end.
	Offset int

	// Limit caps the page size; 0 means no cap.
	Limit int
}

// Store is the request history surface consumed by the admin API. Entries
// come back newest first.
type Store interface {
	Logger

	// Get returns the entry with the given ID, or nil.
	Get(id string) *Entry

	// List returns entries newest first, paged by the filter.
	List(filter *Filter) []*Entry

	// Clear drops all history. Already-delivered broadcasts are unaffected.
	Clear()

	// Count returns the number of retained entries.
	Count() int
}

// Subscriber receives entries as they are logged. The channel is buffered;
// a subscriber that stops draining misses entries rather than blocking the
// publisher.
type Subscriber chan *Entry

// SubscribableStore adds live fan-out to Store. Entries published while a
// subscriber is gone are never redelivered; reconnecting clients catch up
// via List.
type SubscribableStore interface {
	Store

	// Subscribe registers a live sink and returns it with its unsubscribe
	// function. Unsubscribe closes the channel.
	Subscribe() (Subscriber, func())
}
