// Package embedded implements graph.Store on top of BadgerDB, including a
// small openCypher-subset query executor for the query shapes produced by the
// natural-language translator.
package embedded

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"codeatlas/internal/graph"
)

// Key prefixes for the BadgerDB key scheme. Node and edge IDs contain colons,
// so index keys use "|" as the segment separator.
const (
	prefixNode    = "n|" // n|<label>|<nodeID> -> node JSON
	prefixEdge    = "e|" // e|<edgeID> -> edge JSON
	prefixIdxFile = "if|" // if|<filePath>|<nodeID> -> label
	prefixIdxSrc  = "es|" // es|<sourceID>|<type>|<edgeID> -> nil
	prefixIdxTgt  = "et|" // et|<targetID>|<type>|<edgeID> -> nil
)

// Store is a BadgerDB-backed knowledge graph store.
type Store struct {
	db *badger.DB
}

// NewStore opens (or creates) a BadgerDB-backed graph store at dbPath.
func NewStore(dbPath string) (*Store, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewInMemoryStore opens a store backed by an in-memory BadgerDB instance.
// Used by tests and throwaway ingestion runs.
func NewInMemoryStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Store{db: db}, nil
}

func nodeKey(label graph.Label, id string) []byte {
	return []byte(prefixNode + string(label) + "|" + id)
}

func edgeKey(id string) []byte {
	return []byte(prefixEdge + id)
}

func fileIndexKey(filePath, id string) []byte {
	return []byte(prefixIdxFile + filePath + "|" + id)
}

func srcIndexKey(sourceID string, edgeType graph.EdgeType, edgeID string) []byte {
	return []byte(prefixIdxSrc + sourceID + "|" + string(edgeType) + "|" + edgeID)
}

func tgtIndexKey(targetID string, edgeType graph.EdgeType, edgeID string) []byte {
	return []byte(prefixIdxTgt + targetID + "|" + string(edgeType) + "|" + edgeID)
}

// insertNode marshals any node struct and writes it with its file index entry.
func (s *Store) insertNode(label graph.Label, id, filePath string, node any) error {
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshal %s node: %w", label, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(nodeKey(label, id), data); err != nil {
			return err
		}
		if filePath != "" {
			return txn.Set(fileIndexKey(filePath, id), []byte(label))
		}
		return nil
	})
}

func (s *Store) InsertFile(_ context.Context, node *graph.FileNode) error {
	return s.insertNode(graph.LabelFile, node.ID, node.Path, node)
}

func (s *Store) InsertClass(_ context.Context, node *graph.ClassNode) error {
	return s.insertNode(graph.LabelClass, node.ID, node.FilePath, node)
}

func (s *Store) InsertFunction(_ context.Context, node *graph.FunctionNode) error {
	return s.insertNode(graph.LabelFunction, node.ID, node.FilePath, node)
}

func (s *Store) InsertEdge(_ context.Context, edge *graph.Edge) error {
	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("marshal edge: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(edgeKey(edge.ID), data); err != nil {
			return err
		}
		if err := txn.Set(srcIndexKey(edge.Source, edge.Type, edge.ID), nil); err != nil {
			return err
		}
		return txn.Set(tgtIndexKey(edge.Target, edge.Type, edge.ID), nil)
	})
}

func (s *Store) ExecuteQuery(_ context.Context, query string, params map[string]any) ([]graph.Row, error) {
	ast, err := parseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	return evaluate(ast, snap, params)
}

func (s *Store) DeleteByFile(_ context.Context, filePath string) error {
	// Collect node IDs and labels for the file, then delete nodes and any
	// edges touching them.
	type entry struct {
		id    string
		label graph.Label
	}
	var entries []entry
	prefix := []byte(prefixIdxFile + filePath + "|")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key())[len(prefix):]
			label, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, entry{id: id, label: graph.Label(label)})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ent := range entries {
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := deleteEdgesTouching(txn, ent.id); err != nil {
				return err
			}
			if err := txn.Delete(fileIndexKey(filePath, ent.id)); err != nil {
				return err
			}
			return txn.Delete(nodeKey(ent.label, ent.id))
		})
		if err != nil {
			return fmt.Errorf("delete node %s for file %s: %w", ent.id, filePath, err)
		}
	}
	return nil
}

// deleteEdgesTouching removes all edges where nodeID is the source or target,
// along with their index entries.
func deleteEdgesTouching(txn *badger.Txn, nodeID string) error {
	for _, idxPrefix := range []string{prefixIdxSrc, prefixIdxTgt} {
		prefix := []byte(idxPrefix + nodeID + "|")
		var edgeIDs []string
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.Valid(); it.Next() {
			key := string(it.Item().Key())[len(prefix):]
			// Key remainder is <type>|<edgeID>.
			if sep := strings.Index(key, "|"); sep >= 0 {
				edgeIDs = append(edgeIDs, key[sep+1:])
			}
		}
		it.Close()
		for _, eid := range edgeIDs {
			if err := deleteEdgeInTxn(txn, eid); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteEdgeInTxn(txn *badger.Txn, id string) error {
	item, err := txn.Get(edgeKey(id))
	if err == badger.ErrKeyNotFound {
		return nil // already removed via the other endpoint
	}
	if err != nil {
		return fmt.Errorf("get edge %s: %w", id, err)
	}
	var edge graph.Edge
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &edge) }); err != nil {
		return fmt.Errorf("unmarshal edge %s: %w", id, err)
	}
	_ = txn.Delete(srcIndexKey(edge.Source, edge.Type, edge.ID))
	_ = txn.Delete(tgtIndexKey(edge.Target, edge.Type, edge.ID))
	return txn.Delete(edgeKey(id))
}

func (s *Store) Clear(_ context.Context) error {
	return s.db.DropAll()
}

func (s *Store) Stats(_ context.Context) (*graph.Stats, error) {
	stats := &graph.Stats{
		NodesByLabel: make(map[graph.Label]int64),
		EdgesByType:  make(map[graph.EdgeType]int64),
	}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixNode)
		it := txn.NewIterator(opts)
		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			key := string(it.Item().Key())[len(prefixNode):]
			if sep := strings.Index(key, "|"); sep >= 0 {
				stats.NodeCount++
				stats.NodesByLabel[graph.Label(key[:sep])]++
			}
		}
		it.Close()

		opts = badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEdge)
		opts.PrefetchValues = true
		it = txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			var edge graph.Edge
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &edge) })
			if err != nil {
				continue
			}
			stats.EdgeCount++
			stats.EdgesByType[edge.Type]++
		}
		return nil
	})
	return stats, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- query snapshot ---

// graphSnapshot is an in-memory view of the graph taken for one query
// evaluation. Node property maps come from the stored JSON, so keys match the
// schema field names (path, name, start_line, ...).
type graphSnapshot struct {
	nodes    map[string]graph.Row          // node ID -> properties
	labels   map[string]graph.Label        // node ID -> label
	byLabel  map[graph.Label][]string      // label -> node IDs in key order
	allIDs   []string                      // all node IDs in key order
	outgoing map[string][]*graph.Edge      // source ID -> edges
}

func (s *Store) snapshot() (*graphSnapshot, error) {
	snap := &graphSnapshot{
		nodes:    make(map[string]graph.Row),
		labels:   make(map[string]graph.Label),
		byLabel:  make(map[graph.Label][]string),
		outgoing: make(map[string][]*graph.Edge),
	}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixNode)
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())[len(prefixNode):]
			sep := strings.Index(key, "|")
			if sep < 0 {
				continue
			}
			label := graph.Label(key[:sep])
			id := key[sep+1:]
			var props graph.Row
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &props) }); err != nil {
				continue
			}
			snap.nodes[id] = props
			snap.labels[id] = label
			snap.byLabel[label] = append(snap.byLabel[label], id)
			snap.allIDs = append(snap.allIDs, id)
		}
		it.Close()

		opts = badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEdge)
		opts.PrefetchValues = true
		it = txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			var edge graph.Edge
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &edge) })
			if err != nil {
				continue
			}
			e := edge
			snap.outgoing[e.Source] = append(snap.outgoing[e.Source], &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
