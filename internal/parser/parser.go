// Package parser turns source files into knowledge graph records. A Grammar
// supplies the tree-sitter language and capture queries for one language; the
// extractor and resolver are shared across languages.
package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"codeatlas/internal/graph"
)

// Language represents a supported programming language.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
)

// Grammar defines the language-specific pieces of extraction. Queries use
// tree-sitter capture syntax with fixed capture names:
//
//	ClassQuery:    @class.def @class.name
//	FunctionQuery: @func.def @func.name @func.params
//	CallQuery:     @call.name
type Grammar interface {
	// Language returns which language this grammar handles.
	Language() Language

	// Extensions returns the file extensions this grammar can handle.
	Extensions() []string

	// Sitter returns the tree-sitter language used to parse files.
	Sitter() *sitter.Language

	// ClassQuery returns the capture query for class definitions.
	ClassQuery() string

	// FunctionQuery returns the capture query for function and method
	// definitions.
	FunctionQuery() string

	// CallQuery returns the capture query for call sites.
	CallQuery() string

	// Docstring extracts the documentation string for a definition node, or
	// "" when the definition has none.
	Docstring(def *sitter.Node, content []byte) string
}

// Extraction holds everything extracted from a single file: the file node,
// its classes and functions, and the structural and call edges between them.
type Extraction struct {
	File      *graph.FileNode
	Classes   []*graph.ClassNode
	Functions []*graph.FunctionNode
	Edges     []*graph.Edge
	Language  Language
}
