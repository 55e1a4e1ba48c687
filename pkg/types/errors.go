package types

import "errors"

// Store operation errors.
var (
	ErrNotFound     = errors.New("row not found")
	ErrInvalidID    = errors.New("invalid row ID")
	ErrInvalidData  = errors.New("invalid row data")
	ErrInvalidTable = errors.New("invalid table or column name")
	ErrStoreClosed  = errors.New("store is closed")
)

// Roster errors.
var (
	ErrNoStatuses       = errors.New("schema has no status table")
	ErrInvalidSchema    = errors.New("invalid schema")
	ErrInvalidFieldType = errors.New("invalid field type")
)

// Backend lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("backend is already attached")
)
