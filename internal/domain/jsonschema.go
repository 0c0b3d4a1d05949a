package domain

import "github.com/invopop/jsonschema"

// JSONSchema declares FieldID as string-or-number, matching the lenient
// decoder: older builder versions wrote numeric field ids.
func (FieldID) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
		},
	}
}

// JSONSchema declares Timestamp as a plain string; the accepted layouts
// are enforced by UnmarshalJSON, not the schema.
func (Timestamp) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}
