package parser

import "sync"

// Registry manages a collection of language grammars.
type Registry struct {
	mu       sync.RWMutex
	grammars map[Language]Grammar
	extIndex map[string]Grammar
	order    []Language
}

// NewRegistry creates a new grammar registry.
func NewRegistry() *Registry {
	return &Registry{
		grammars: make(map[Language]Grammar),
		extIndex: make(map[string]Grammar),
		order:    make([]Language, 0),
	}
}

// Register adds a grammar to the registry, indexing it by language and file
// extensions.
func (r *Registry) Register(g Grammar) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lang := g.Language()
	if _, exists := r.grammars[lang]; !exists {
		r.order = append(r.order, lang)
	}
	r.grammars[lang] = g
	for _, ext := range g.Extensions() {
		r.extIndex[ext] = g
	}
}

// Get retrieves a grammar by language.
func (r *Registry) Get(lang Language) (Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.grammars[lang]
	return g, ok
}

// GetByExtension retrieves a grammar by file extension (e.g. ".py", ".js").
func (r *Registry) GetByExtension(ext string) (Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.extIndex[ext]
	return g, ok
}

// All returns all registered grammars in registration order.
func (r *Registry) All() []Grammar {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Grammar, len(r.order))
	for i, lang := range r.order {
		result[i] = r.grammars[lang]
	}
	return result
}

// SupportedExtensions returns all file extensions that have a registered
// grammar.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extIndex))
	for ext := range r.extIndex {
		exts = append(exts, ext)
	}
	return exts
}
