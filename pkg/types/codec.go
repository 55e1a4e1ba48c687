package types

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Well-known column names.
const (
	ColumnID        = "id"
	ColumnPosition  = "position"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnLabel     = "label"
	ColumnColor     = "color"
	ColumnName      = "name"
	ColumnType      = "type"
	ColumnFieldID   = "field_id"
	ColumnValue     = "value"
)

// EntityFromRow decodes an entity row. When join is non-nil the status
// foreign key and the embedded status row are decoded into StatusID and
// Status; every other unknown column lands in Attributes.
func EntityFromRow(row Row, join *Join) (*Entity, error) {
	id := idString(row[ColumnID])
	if id == "" {
		return nil, fmt.Errorf("%w: entity row has no id", ErrInvalidData)
	}
	e := &Entity{ID: id, Attributes: make(map[string]any)}
	var err error
	if e.Position, err = intValue(row[ColumnPosition]); err != nil {
		return nil, fmt.Errorf("entity %s position: %w", id, err)
	}
	if e.CreatedAt, err = ParseTime(row[ColumnCreatedAt]); err != nil {
		return nil, fmt.Errorf("entity %s created_at: %w", id, err)
	}
	if e.UpdatedAt, err = ParseTime(row[ColumnUpdatedAt]); err != nil {
		return nil, fmt.Errorf("entity %s updated_at: %w", id, err)
	}

	for k, v := range row {
		switch k {
		case ColumnID, ColumnPosition, ColumnCreatedAt, ColumnUpdatedAt:
			continue
		}
		if join != nil && k == join.ForeignKey {
			if sid := idString(v); sid != "" {
				e.StatusID = &sid
			}
			continue
		}
		if join != nil && k == join.As {
			nested, ok := asRow(v)
			if !ok {
				continue
			}
			if e.Status, err = StatusFromRow(nested); err != nil {
				return nil, fmt.Errorf("entity %s status: %w", id, err)
			}
			continue
		}
		e.Attributes[k] = v
	}
	return e, nil
}

// StatusFromRow decodes a status row.
func StatusFromRow(row Row) (*Status, error) {
	id := idString(row[ColumnID])
	if id == "" {
		return nil, fmt.Errorf("%w: status row has no id", ErrInvalidData)
	}
	pos, err := intValue(row[ColumnPosition])
	if err != nil {
		return nil, fmt.Errorf("status %s position: %w", id, err)
	}
	label, _ := stringValue(row[ColumnLabel])
	color, _ := stringValue(row[ColumnColor])
	return &Status{ID: id, Label: label, Color: color, Position: pos}, nil
}

// FieldDefinitionFromRow decodes a field definition row.
func FieldDefinitionFromRow(row Row) (*FieldDefinition, error) {
	id := idString(row[ColumnID])
	if id == "" {
		return nil, fmt.Errorf("%w: field definition row has no id", ErrInvalidData)
	}
	pos, err := intValue(row[ColumnPosition])
	if err != nil {
		return nil, fmt.Errorf("field definition %s position: %w", id, err)
	}
	name, _ := stringValue(row[ColumnName])
	ft, _ := stringValue(row[ColumnType])
	return &FieldDefinition{ID: id, Name: name, Type: ft, Position: pos}, nil
}

// FieldValueFromRow decodes a field value row whose entity reference is
// stored in the foreignKey column.
func FieldValueFromRow(row Row, foreignKey string) (*FieldValue, error) {
	fv := &FieldValue{
		EntityID: idString(row[foreignKey]),
		FieldID:  idString(row[ColumnFieldID]),
	}
	if fv.EntityID == "" || fv.FieldID == "" {
		return nil, fmt.Errorf("%w: field value row needs %s and %s", ErrInvalidData, foreignKey, ColumnFieldID)
	}
	var err error
	if fv.Value, err = DecodeValue(row[ColumnValue]); err != nil {
		return nil, err
	}
	if fv.UpdatedAt, err = ParseTime(row[ColumnUpdatedAt]); err != nil {
		return nil, fmt.Errorf("field value updated_at: %w", err)
	}
	return fv, nil
}

// Row encodes the field value for upserting, naming the entity column
// foreignKey.
func (fv *FieldValue) Row(foreignKey string) (Row, error) {
	enc, err := EncodeValue(fv.Value)
	if err != nil {
		return nil, err
	}
	return Row{
		foreignKey:      fv.EntityID,
		ColumnFieldID:   fv.FieldID,
		ColumnValue:     enc,
		ColumnUpdatedAt: FormatTime(fv.UpdatedAt),
	}, nil
}

// EncodeValue converts a field value to the JSON text stored in the backend.
// A nil value encodes to nil (SQL NULL).
func EncodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding field value: %v", ErrInvalidData, err)
	}
	return string(data), nil
}

// DecodeValue reverses EncodeValue. JSON numbers decode to int64 when they
// are integral and fit, to float64 otherwise. Text that is not a single
// JSON value is returned as a plain string; non-text values are returned
// unchanged.
func DecodeValue(v any) (any, error) {
	var text string
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		return v, nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return text, nil
	}
	if _, err := dec.Token(); err != io.EOF {
		return text, nil
	}
	return normalizeNumbers(out), nil
}

// normalizeNumbers replaces every json.Number in v with an int64 when it is
// integral and in range, and with a float64 otherwise.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
	}
	return v
}

// FormatTime renders t the way timestamps are written to the backend.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timeLayouts are the timestamp layouts accepted by ParseTime, in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseTime decodes a timestamp column. nil and empty text decode to the
// zero time.
func ParseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x, nil
	case []byte:
		return ParseTime(string(x))
	case string:
		if x == "" {
			return time.Time{}, nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalidData, x)
	default:
		return time.Time{}, fmt.Errorf("%w: timestamp of type %T", ErrInvalidData, v)
	}
}

// idString renders an id column as a string. Integer ids are formatted in
// base 10; nil renders as "".
func idString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// intValue converts a numeric column to int. nil converts to 0.
func intValue(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case json.Number:
		n, err := x.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(x)
	case []byte:
		return strconv.Atoi(string(x))
	default:
		return 0, fmt.Errorf("%w: number of type %T", ErrInvalidData, v)
	}
}

func stringValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

func asRow(v any) (Row, bool) {
	switch x := v.(type) {
	case Row:
		return x, x != nil
	case map[string]any:
		return Row(x), x != nil
	default:
		return nil, false
	}
}
