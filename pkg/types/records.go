package types

import "time"

// Entity is one row of a roster's entity table (an account or a family).
// Columns that are not modeled as fields are kept in Attributes.
type Entity struct {
	ID         string         `json:"id"`
	StatusID   *string        `json:"status_id,omitempty"`
	Status     *Status        `json:"status,omitempty"`
	Position   int            `json:"position"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RecordID returns the entity ID.
func (e *Entity) RecordID() string { return e.ID }

// Attribute returns the named attribute, or nil if the entity has none.
func (e *Entity) Attribute(name string) any {
	if e.Attributes == nil {
		return nil
	}
	return e.Attributes[name]
}

// Status is a lookup value an entity may reference.
type Status struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color,omitempty"`
	Position int    `json:"position"`
}

// RecordID returns the status ID.
func (s *Status) RecordID() string { return s.ID }

// FieldDefinition describes one dynamic attribute available to every entity
// of a roster.
type FieldDefinition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// RecordID returns the field definition ID.
func (f *FieldDefinition) RecordID() string { return f.ID }

// FieldValue binds the value of one field definition to one entity. At most
// one FieldValue exists per (EntityID, FieldID) pair.
type FieldValue struct {
	EntityID  string    `json:"entity_id"`
	FieldID   string    `json:"field_id"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrichedEntity is an entity combined at read time with the resolved value
// of every field definition. Fields maps field ID to value; a field with no
// stored value maps to nil.
type EnrichedEntity struct {
	*Entity
	Fields map[string]any `json:"fields"`
}
