package types

// Backend owns the connection behind a RemoteStore. Callers attach to a
// backend, use its store, and detach when done.
type Backend interface {
	// Attach connects to the backend described by config and prepares its
	// schema. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Store returns the attached RemoteStore.
	// Returns ErrStoreClosed if the backend is not attached.
	Store() (RemoteStore, error)

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on the store return ErrStoreClosed.
	Detach() error
}
