package roster

import "github.com/mesh-intelligence/fieldbook/pkg/types"

// WithFields returns every cached entity with its field values resolved,
// computed fresh from the current caches on each call.
func (r *Roster) WithFields() []types.EnrichedEntity {
	return Project(r.entities.Snapshot(), r.fields.Snapshot(), r.values.Get)
}

// Project builds the enriched view of entities: each gets a shallow copy
// with a Fields map holding one entry per definition, resolved through
// lookup. Definitions without a value map to nil.
func Project(
	entities []*types.Entity,
	defs []*types.FieldDefinition,
	lookup func(entityID, fieldID string) (any, bool),
) []types.EnrichedEntity {
	out := make([]types.EnrichedEntity, len(entities))
	for i, e := range entities {
		fields := make(map[string]any, len(defs))
		for _, d := range defs {
			v, _ := lookup(e.ID, d.ID)
			fields[d.ID] = v
		}
		cp := *e
		out[i] = types.EnrichedEntity{Entity: &cp, Fields: fields}
	}
	return out
}
