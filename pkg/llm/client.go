package llm

import (
	"context"
	"fmt"
	"sync"
)

// Client is the single-call chat surface every backend implements. The
// translator and synthesizer hold one Client for the life of a session and
// never need streaming or tool use.
type Client interface {
	// Chat sends the system prompt and conversation to the backend and
	// returns its completion.
	Chat(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)

	// Model returns the model the client was configured with.
	Model() string

	// Provider returns the backend name: "anthropic", "ollama" or
	// "vertex-ai".
	Provider() string

	// Close releases any resources held by the client.
	Close() error
}

// Config selects and configures a backend. Only the fields a given
// provider reads need to be set.
type Config struct {
	// Provider selects the backend by registry name.
	Provider string
	// Model is the model name or ID the backend should use.
	Model string
	// APIKey authenticates hosted providers (anthropic).
	APIKey string
	// BaseURL overrides the backend endpoint (anthropic, ollama).
	BaseURL string
	// Project is the GCP project ID (vertex-ai).
	Project string
	// Location is the GCP region, e.g. "us-central1" (vertex-ai).
	Location string
	// CredentialsFile points at a service account JSON file (vertex-ai).
	CredentialsFile string
}

// ProviderFactory builds a Client from a Config.
type ProviderFactory func(cfg Config) (Client, error)

var (
	registry   = make(map[string]ProviderFactory)
	registryMu sync.RWMutex
)

// RegisterProvider registers a backend factory under a name. Backends call
// this from their init() so that importing the provider package is enough
// to make it selectable.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewClient builds the client for cfg.Provider.
func NewClient(cfg Config) (Client, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Provider]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %v)", cfg.Provider, availableProviders())
	}

	return factory(cfg)
}

// IsProviderRegistered reports whether a backend is registered under name.
func IsProviderRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

func availableProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	providers := make([]string, 0, len(registry))
	for p := range registry {
		providers = append(providers, p)
	}
	return providers
}
