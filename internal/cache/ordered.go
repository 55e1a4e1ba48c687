// Package cache holds the in-memory mirrors a roster keeps of its remote
// tables: ordered record collections and the sparse field value store.
//
// The mutex in each collection only protects memory. Two remote mutations
// racing on one collection still land in whatever order their responses
// arrive.
package cache

import "sync"

// Record is anything identified by a string ID.
type Record interface {
	RecordID() string
}

// Ordered is an ordered collection of records mirroring a remote table.
// The order is whatever the last Replace established, with appended records
// at the tail.
type Ordered[T Record] struct {
	mu    sync.RWMutex
	items []T
}

// Replace swaps the whole collection for items, keeping their order.
func (o *Ordered[T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)
	o.mu.Lock()
	o.items = cp
	o.mu.Unlock()
}

// Append adds item at the tail.
func (o *Ordered[T]) Append(item T) {
	o.mu.Lock()
	o.items = append(o.items, item)
	o.mu.Unlock()
}

// ReplaceByID replaces the first record with the given id by item, keeping
// its index. Reports whether a record was replaced; an absent id is a no-op.
func (o *Ordered[T]) ReplaceByID(id string, item T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, it := range o.items {
		if it.RecordID() == id {
			o.items[i] = item
			return true
		}
	}
	return false
}

// RemoveByID drops every record with the given id and returns how many were
// removed.
func (o *Ordered[T]) RemoveByID(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := make([]T, 0, len(o.items))
	for _, it := range o.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	removed := len(o.items) - len(kept)
	o.items = kept
	return removed
}

// Get returns the record with the given id.
func (o *Ordered[T]) Get(id string) (T, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, it := range o.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the collection in order. Never nil.
func (o *Ordered[T]) Snapshot() []T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]T, len(o.items))
	copy(out, o.items)
	return out
}

// Len returns the number of records.
func (o *Ordered[T]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.items)
}

// Reset empties the collection.
func (o *Ordered[T]) Reset() {
	o.mu.Lock()
	o.items = nil
	o.mu.Unlock()
}
