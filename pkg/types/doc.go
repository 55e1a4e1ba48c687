// Package types defines the RemoteStore interface, the record types managed by
// a roster (entities, statuses, field definitions, field values), their row
// codecs, schema presets, and the standard error values for fieldbook.
package types
