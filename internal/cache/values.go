package cache

import (
	"sync"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

type valueKey struct {
	entityID string
	fieldID  string
}

// Values is the sparse (entity, field) → value store. It keeps at most one
// FieldValue per key and remembers insertion order for snapshots.
type Values struct {
	mu    sync.RWMutex
	rows  []*types.FieldValue
	index map[valueKey]int
}

// Replace swaps every stored value for rows. A later row wins over an
// earlier one with the same key.
func (v *Values) Replace(rows []*types.FieldValue) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = make([]*types.FieldValue, 0, len(rows))
	v.index = make(map[valueKey]int, len(rows))
	for _, fv := range rows {
		v.putLocked(fv)
	}
}

// Put stores fv, replacing the row with the same key in place or appending
// it when the key is new.
func (v *Values) Put(fv *types.FieldValue) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.putLocked(fv)
}

func (v *Values) putLocked(fv *types.FieldValue) {
	if v.index == nil {
		v.index = make(map[valueKey]int)
	}
	k := valueKey{fv.EntityID, fv.FieldID}
	if i, ok := v.index[k]; ok {
		v.rows[i] = fv
		return
	}
	v.index[k] = len(v.rows)
	v.rows = append(v.rows, fv)
}

// Get returns the value stored for (entityID, fieldID). A miss returns
// nil, false and is not an error.
func (v *Values) Get(entityID, fieldID string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	i, ok := v.index[valueKey{entityID, fieldID}]
	if !ok {
		return nil, false
	}
	return v.rows[i].Value, true
}

// Snapshot returns a copy of the stored rows in insertion order. Never nil.
func (v *Values) Snapshot() []*types.FieldValue {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*types.FieldValue, len(v.rows))
	copy(out, v.rows)
	return out
}

// Len returns the number of stored rows.
func (v *Values) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rows)
}

// Reset empties the store.
func (v *Values) Reset() {
	v.mu.Lock()
	v.rows = nil
	v.index = nil
	v.mu.Unlock()
}
