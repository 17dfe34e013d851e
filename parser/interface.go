// Package parser provides functionality for parsing capability declaration
// documents.
package parser

import "github.com/agentkit-dev/agentkit/capability"

// DocumentParser parses raw declaration bytes into a Document.
type DocumentParser interface {
	// Parse unmarshals declaration bytes into a Document.
	Parse(data []byte) (*capability.Document, error)
}
