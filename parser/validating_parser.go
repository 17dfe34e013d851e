package parser

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/agentkit-dev/agentkit/capability"
)

// ValidatingParser wraps a DocumentParser and checks the raw document
// against the declaration JSON Schema before the struct decode runs. It
// rejects structurally invalid documents (wrong field types) while leaving
// the semantic rules to capability.Validator.
type ValidatingParser struct {
	inner  DocumentParser
	schema *jsonschema.Schema
}

// NewValidatingParser creates a ValidatingParser around inner.
func NewValidatingParser(inner DocumentParser) (*ValidatingParser, error) {
	raw, err := capability.DocumentSchema()
	if err != nil {
		return nil, err
	}

	schema, err := jsonschema.CompileString("declaration.schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile declaration schema: %w", err)
	}

	return &ValidatingParser{inner: inner, schema: schema}, nil
}

// Parse validates the raw document against the declaration schema, then
// parses it with the inner parser. The schema must see a generic decode of
// the raw bytes: the struct decode coerces or drops exactly the shapes the
// schema rejects.
func (p *ValidatingParser) Parse(data []byte) (*capability.Document, error) {
	generic, err := decodeGeneric(data)
	if err != nil {
		return nil, err
	}

	if err := p.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("declaration schema violation: %w", err)
	}
	return p.inner.Parse(data)
}

// decodeGeneric decodes manifest bytes without a target struct. JSON
// documents decode directly into schema-ready shapes; YAML documents take a
// JSON round-trip to normalize their scalars.
func decodeGeneric(data []byte) (any, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err == nil {
		return generic, nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document for validation: %w", err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode document for validation: %w", err)
	}
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return nil, fmt.Errorf("decode document for validation: %w", err)
	}
	return generic, nil
}
