package types

// Field types determine how a field value is rendered and edited.
const (
	FieldTypeText    = "text"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
	FieldTypeDate    = "date"
	FieldTypeSelect  = "select"
)

// FieldTypes lists the recognized field types in display order.
var FieldTypes = []string{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeBoolean,
	FieldTypeDate,
	FieldTypeSelect,
}

// IsValidFieldType reports whether the given string is a recognized field type.
func IsValidFieldType(ft string) bool {
	for _, t := range FieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}
