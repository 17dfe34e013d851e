package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkit-dev/agentkit/parser"
)

const declJSON = `{
	"name": "Web Search",
	"description": "Searches the web",
	"platform": "linux",
	"runtime_requires": ">=1.0.0",
	"dependencies": ["ripgrep", "jq>=1.6"],
	"environment_variables": {
		"API_KEY": {"description": "search API key", "required": true},
		"ENDPOINT": {"description": "endpoint override", "default": "https://api.example.com"}
	}
}`

const declYAML = `
name: Web Search
description: Searches the web
platform: linux
runtime_requires: ">=1.0.0"
dependencies:
  - ripgrep
  - jq>=1.6
environment_variables:
  API_KEY:
    description: search API key
    required: true
  ENDPOINT:
    description: endpoint override
    default: https://api.example.com
`

func Test_JSONDocumentParser(t *testing.T) {
	p := parser.NewJSONDocumentParser()

	t.Run("full document", func(t *testing.T) {
		doc, err := p.Parse([]byte(declJSON))
		require.NoError(t, err)
		assert.Equal(t, "Web Search", doc.Name)
		assert.Equal(t, "linux", doc.Platform)
		assert.Len(t, doc.Dependencies, 2)
		require.Contains(t, doc.EnvVars, "API_KEY")
		require.NotNil(t, doc.EnvVars["API_KEY"].Required)
		assert.True(t, *doc.EnvVars["API_KEY"].Required)
		assert.Nil(t, doc.EnvVars["ENDPOINT"].Required)
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		doc, err := p.Parse([]byte(`{"name": "x", "description": "y", "future_field": 1}`))
		require.NoError(t, err)
		assert.Equal(t, "x", doc.Name)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := p.Parse([]byte(`{`))
		assert.Error(t, err)
	})
}

func Test_YamlDocumentParser(t *testing.T) {
	p := parser.NewYamlDocumentParser()

	doc, err := p.Parse([]byte(declYAML))
	require.NoError(t, err)
	assert.Equal(t, "Web Search", doc.Name)
	assert.Equal(t, ">=1.0.0", doc.RuntimeRequires)
	require.Contains(t, doc.EnvVars, "ENDPOINT")
	require.NotNil(t, doc.EnvVars["ENDPOINT"].Default)
	assert.Equal(t, "https://api.example.com", *doc.EnvVars["ENDPOINT"].Default)

	_, err = p.Parse([]byte("name: [unclosed"))
	assert.Error(t, err)
}

func Test_ValidatingParser(t *testing.T) {
	p, err := parser.NewValidatingParser(parser.NewYamlDocumentParser())
	require.NoError(t, err)

	t.Run("valid document passes", func(t *testing.T) {
		doc, err := p.Parse([]byte(declYAML))
		require.NoError(t, err)
		assert.Equal(t, "Web Search", doc.Name)
	})

	t.Run("unknown keys tolerated", func(t *testing.T) {
		doc, err := p.Parse([]byte("name: x\ndescription: y\nfuture_field: 1\n"))
		require.NoError(t, err)
		assert.Equal(t, "x", doc.Name)
	})

	t.Run("wrong-typed field rejected by the schema", func(t *testing.T) {
		_, err := p.Parse([]byte("name: x\ndescription: y\nplatform: 5\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema violation")
	})

	t.Run("wrong-typed env var entry rejected by the schema", func(t *testing.T) {
		_, err := p.Parse([]byte("name: x\ndescription: y\nenvironment_variables:\n  API_KEY:\n    description: api key\n    required: 3\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema violation")
	})

	t.Run("inner parse errors propagate", func(t *testing.T) {
		_, err := p.Parse([]byte("name: [unclosed"))
		assert.Error(t, err)
	})
}

func Test_ValidatingParser_JSONDocuments(t *testing.T) {
	p, err := parser.NewValidatingParser(parser.NewJSONDocumentParser())
	require.NoError(t, err)

	doc, err := p.Parse([]byte(declJSON))
	require.NoError(t, err)
	assert.Equal(t, "Web Search", doc.Name)

	doc, err = p.Parse([]byte(`{"name": "x", "description": "y", "future_field": 1}`))
	require.NoError(t, err)
	assert.Equal(t, "x", doc.Name)

	_, err = p.Parse([]byte(`{"name": "x", "description": "y", "platform": 5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema violation")
}
