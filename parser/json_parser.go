package parser

import (
	"encoding/json"

	"github.com/agentkit-dev/agentkit/capability"
)

// JSONDocumentParser implements DocumentParser for JSON.
type JSONDocumentParser struct{}

// NewJSONDocumentParser creates a new JSONDocumentParser.
func NewJSONDocumentParser() DocumentParser {
	return &JSONDocumentParser{}
}

// Parse unmarshals JSON bytes into a Document.
func (p *JSONDocumentParser) Parse(data []byte) (*capability.Document, error) {
	var doc capability.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
