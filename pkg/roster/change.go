package roster

// Collection names one of the roster's caches.
type Collection string

// Collections.
const (
	CollectionEntities         Collection = "entities"
	CollectionStatuses         Collection = "statuses"
	CollectionFieldDefinitions Collection = "field_definitions"
	CollectionFieldValues      Collection = "field_values"
)

// Op is the kind of change applied to a cache.
type Op string

// Cache operations.
const (
	OpReplace Op = "replace" // whole collection reloaded
	OpAppend  Op = "append"
	OpUpdate  Op = "update"
	OpRemove  Op = "remove"
	OpReset   Op = "reset"
)

// Change describes one cache change. ID is empty for OpReplace and OpReset.
type Change struct {
	Collection Collection
	Op         Op
	ID         string
}

// Subscribe registers fn to be called after every cache change, on the
// goroutine that made the change. The returned function unregisters fn.
func (r *Roster) Subscribe(fn func(Change)) (cancel func()) {
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *Roster) notify(c Change) {
	r.subMu.Lock()
	fns := make([]func(Change), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
