package parser

import (
	"gopkg.in/yaml.v3"

	"github.com/agentkit-dev/agentkit/capability"
)

// YamlDocumentParser implements DocumentParser for YAML.
type YamlDocumentParser struct{}

// NewYamlDocumentParser creates a new YamlDocumentParser.
func NewYamlDocumentParser() DocumentParser {
	return &YamlDocumentParser{}
}

// Parse unmarshals YAML bytes into a Document.
func (p *YamlDocumentParser) Parse(data []byte) (*capability.Document, error) {
	var doc capability.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
