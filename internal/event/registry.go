package event

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Entry is one registered listener.
type Entry struct {
	// ID uniquely identifies the registration.
	ID string

	// Key is the event type the listener accepts.
	Key Key

	// Position is the zero-based index of the entry within its key's
	// sequence, which is also its dispatch order.
	Position int

	// Async is true for listeners registered as AsyncListener.
	Async bool

	// Handler is the erased listener.
	Handler Handler
}

// Registration is the handle returned when a listener is registered.
type Registration struct {
	ID       string
	Key      Key
	Position int
}

// Registry stores listeners per event type in insertion order.
// It is safe for concurrent use: readers always observe a whole sequence,
// either before or after a concurrent Add.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key][]Entry
	total   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key][]Entry),
	}
}

// Add appends handler to the sequence for key.
func (r *Registry) Add(key Key, handler Handler, async bool) Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := r.entries[key]
	entry := Entry{
		ID:       uuid.NewString(),
		Key:      key,
		Position: len(seq),
		Async:    async,
		Handler:  handler,
	}
	r.entries[key] = append(seq, entry)
	r.total++

	return Registration{
		ID:       entry.ID,
		Key:      key,
		Position: entry.Position,
	}
}

// Entries returns the listeners for key in registration order.
// Returns a copy so a dispatch in progress is unaffected by later Adds.
func (r *Registry) Entries(key Key) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seq := r.entries[key]
	if len(seq) == 0 {
		return nil
	}

	result := make([]Entry, len(seq))
	copy(result, seq)
	return result
}

// Has reports whether at least one listener is registered for key.
func (r *Registry) Has(key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries[key]) > 0
}

// Count returns the number of listeners registered for key.
func (r *Registry) Count(key Key) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries[key])
}

// Len returns the total number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.total
}

// Keys returns every event type with registered listeners, sorted by name.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return nil
	}

	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
