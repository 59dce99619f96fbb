package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Document is the shape of a catalog file: a JSON array of rows.
type Document []Row

// Schema returns the JSON Schema of a catalog document. Rows allow extra
// properties because each plugin adds its own identifier field.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Document{})
	schema.Title = "Neo4j plugin catalog"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return out, nil
}
