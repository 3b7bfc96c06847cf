package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Service extracts knowledge graph records from source files using the
// grammars in its registry.
type Service struct {
	registry *Registry
}

// NewService creates an extraction service backed by the given registry.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// Registry returns the service's grammar registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// GrammarFor returns the grammar registered for the file's extension.
func (s *Service) GrammarFor(path string) (Grammar, bool) {
	return s.registry.GetByExtension(filepath.Ext(path))
}

// ExtractFile reads and extracts a single source file. The path is stored
// verbatim in the resulting records, so callers should pass paths relative to
// the repository root.
func (s *Service) ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	g, ok := s.GrammarFor(path)
	if !ok {
		return nil, fmt.Errorf("no grammar registered for %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.Extract(ctx, path, content, g)
}

// Extract extracts already-loaded file content with the given grammar.
func (s *Service) Extract(ctx context.Context, path string, content []byte, g Grammar) (*Extraction, error) {
	facts, err := extractFacts(ctx, g, content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return resolve(path, g.Language(), facts), nil
}
