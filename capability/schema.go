package capability

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// DocumentSchema returns the JSON Schema describing declaration documents.
// Manifest parsers use it to reject structurally invalid documents before
// semantic validation; hosts can publish it for capability authors.
func DocumentSchema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	reflector.ExpandedStruct = true
	reflector.DoNotReference = true

	// Unknown keys stay legal; declaration documents remain forward
	// compatible with fields this host does not know yet.
	reflector.AllowAdditionalProperties = true

	schema := reflector.Reflect(&Document{})
	schema.Title = "Capability Declaration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal declaration schema: %w", err)
	}
	return data, nil
}
