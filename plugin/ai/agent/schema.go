package agent

import (
	"github.com/invopop/jsonschema"
)

// reflectSchema builds a strict JSON schema for a structured-output
// request: no $ref indirection, no additional properties, every field
// required. The upstream API rejects anything looser in strict mode.
func reflectSchema(v any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}
