package sqlstore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// identPattern is the shape every table and column name must have.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// quote validates and double-quotes an identifier.
func quote(ident string) (string, error) {
	if !identPattern.MatchString(ident) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidTable, ident)
	}
	return `"` + ident + `"`, nil
}

// builder accumulates bind arguments and renders their placeholders.
type builder struct {
	dialect Dialect
	args    []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// where renders equality filters in a stable order. A nil filter value
// matches NULL.
func (b *builder) where(filters map[string]any) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]string, 0, len(keys))
	for _, k := range keys {
		col, err := quote(k)
		if err != nil {
			return "", err
		}
		if filters[k] == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, col+" = "+b.bind(filters[k]))
	}
	return " WHERE " + strings.Join(conds, " AND "), nil
}
