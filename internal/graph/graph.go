package graph

import "context"

// Row is a single result row from a graph query, keyed by the return item
// name or alias (e.g. "fn.name", "count").
type Row map[string]any

// Stats holds aggregate counts for the stored graph.
type Stats struct {
	NodeCount    int64              `json:"node_count"`
	EdgeCount    int64              `json:"edge_count"`
	NodesByLabel map[Label]int64    `json:"nodes_by_label"`
	EdgesByType  map[EdgeType]int64 `json:"edges_by_type"`
}

// Store is the interface for knowledge graph persistence and querying.
// Implementations do not enforce referential integrity between edges and
// nodes; the extraction pipeline guarantees that every edge endpoint was
// emitted as a node in the same pass.
type Store interface {
	// InsertFile persists a file node.
	InsertFile(ctx context.Context, node *FileNode) error

	// InsertClass persists a class node.
	InsertClass(ctx context.Context, node *ClassNode) error

	// InsertFunction persists a function node.
	InsertFunction(ctx context.Context, node *FunctionNode) error

	// InsertEdge persists an edge.
	InsertEdge(ctx context.Context, edge *Edge) error

	// ExecuteQuery runs a query string against the graph and returns result
	// rows. Values in params are substituted for $name references.
	ExecuteQuery(ctx context.Context, query string, params map[string]any) ([]Row, error)

	// DeleteByFile removes all nodes recorded for filePath along with their
	// edges, supporting incremental re-ingestion.
	DeleteByFile(ctx context.Context, filePath string) error

	// Clear removes all nodes and edges.
	Clear(ctx context.Context) error

	// Stats returns aggregate statistics about the graph.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases resources held by the store.
	Close() error
}
