// Package graph defines the knowledge graph schema: node records for files,
// classes, and functions, typed edges between them, and the Store interface
// used to persist and query the graph.
package graph

import "fmt"

// Label identifies the kind of node in the knowledge graph.
type Label string

const (
	LabelFile     Label = "File"
	LabelClass    Label = "Class"
	LabelFunction Label = "Function"
)

// EdgeType identifies a relationship between two nodes. The string values are
// a wire-visible contract shared with stored graphs and must not change.
type EdgeType string

const (
	EdgeContainsClass    EdgeType = "CONTAINS_CLASS"
	EdgeContainsFunction EdgeType = "CONTAINS_FUNCTION"
	EdgeDefines          EdgeType = "DEFINES"
	EdgeCalls            EdgeType = "CALLS"
)

// FileNode represents a source file.
type FileNode struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

// ClassNode represents a class definition. Line numbers are 1-indexed and
// inclusive; EndLine >= StartLine.
type ClassNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	FilePath  string `json:"file_path"`
}

// FunctionNode represents a callable definition: a free function or a method.
// Args holds the raw parameter-list text; Docstring may be empty.
type FunctionNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Args      string `json:"args"`
	Docstring string `json:"docstring"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	FilePath  string `json:"file_path"`
}

// Edge represents a typed relationship between two nodes. Source and Target
// are node IDs produced in the same extraction pass.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"edge_type"`
}

// FileID returns the deterministic ID for a file node.
func FileID(path string) string {
	return "file:" + path
}

// ClassID returns the deterministic ID for a class node. startRow is the
// zero-based start row reported by the syntax tree, not the 1-indexed line.
func ClassID(path, name string, startRow int) string {
	return fmt.Sprintf("class:%s:%s:%d", path, name, startRow)
}

// FunctionID returns the deterministic ID for a function node. startRow is
// the zero-based start row reported by the syntax tree.
func FunctionID(path, name string, startRow int) string {
	return fmt.Sprintf("func:%s:%s:%d", path, name, startRow)
}

// EdgeID derives an edge ID from its endpoints and type. Duplicate extraction
// may produce duplicate IDs; the store does not deduplicate them.
func EdgeID(source string, edgeType EdgeType, target string) string {
	return fmt.Sprintf("%s->%s->%s", source, edgeType, target)
}
