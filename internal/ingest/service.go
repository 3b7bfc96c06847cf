package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"codeatlas/internal/graph"
	"codeatlas/internal/parser"
)

// FileError records a failure scoped to one file. The batch continues past
// it.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) String() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// JobStats summarizes one ingestion run.
type JobStats struct {
	FilesProcessed int
	FilesSkipped   int
	NodesCreated   int
	EdgesCreated   int
	Errors         []FileError
}

// Service ingests repositories into the graph store.
type Service struct {
	parser *parser.Service
	store  graph.Store
	logf   func(format string, args ...any)
}

// NewService creates an ingestion service.
func NewService(p *parser.Service, store graph.Store, logf func(format string, args ...any)) *Service {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Service{parser: p, store: store, logf: logf}
}

// IngestRepo walks root and ingests every supported source file. reset
// clears the store first. Per-file failures are collected in the returned
// stats; only a walk failure or a reset failure aborts the run.
func (s *Service) IngestRepo(ctx context.Context, root string, reset bool, extraIgnores []string) (*JobStats, error) {
	if reset {
		if err := s.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear store: %w", err)
		}
	}

	matcher, err := newIgnoreMatcher(root, extraIgnores)
	if err != nil {
		return nil, err
	}
	supported := make(map[string]bool)
	for _, ext := range s.parser.Registry().SupportedExtensions() {
		supported[ext] = true
	}

	files, err := walkRepo(root, supported, matcher)
	if err != nil {
		return nil, err
	}

	stats := &JobStats{}
	for _, rel := range files {
		if err := s.IngestFile(ctx, root, rel, stats); err != nil {
			stats.Errors = append(stats.Errors, FileError{Path: rel, Err: err})
			s.logf("ingest %s: %v", rel, err)
			continue
		}
		stats.FilesProcessed++
	}
	return stats, nil
}

// IngestFile extracts one file and writes its records, replacing whatever
// the store previously held for that path. rel is the root-relative path
// stored in node ids.
func (s *Service) IngestFile(ctx context.Context, root, rel string, stats *JobStats) error {
	g, ok := s.parser.GrammarFor(rel)
	if !ok {
		stats.FilesSkipped++
		return nil
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	ex, err := s.parser.Extract(ctx, rel, content, g)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByFile(ctx, rel); err != nil {
		return fmt.Errorf("delete stale records: %w", err)
	}

	if err := s.store.InsertFile(ctx, ex.File); err != nil {
		return fmt.Errorf("insert file node: %w", err)
	}
	stats.NodesCreated++

	for _, c := range ex.Classes {
		if err := s.store.InsertClass(ctx, c); err != nil {
			s.logf("insert class %s: %v", c.ID, err)
			continue
		}
		stats.NodesCreated++
	}
	for _, fn := range ex.Functions {
		if err := s.store.InsertFunction(ctx, fn); err != nil {
			s.logf("insert function %s: %v", fn.ID, err)
			continue
		}
		stats.NodesCreated++
	}
	for _, e := range ex.Edges {
		if err := s.store.InsertEdge(ctx, e); err != nil {
			s.logf("insert edge %s: %v", e.ID, err)
			continue
		}
		stats.EdgesCreated++
	}
	return nil
}

// RemoveFile drops all records for a root-relative path, for watcher remove
// events.
func (s *Service) RemoveFile(ctx context.Context, rel string) error {
	return s.store.DeleteByFile(ctx, rel)
}
