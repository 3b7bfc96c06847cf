package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codeatlas/internal/config"
	"codeatlas/internal/graph/embedded"
	_ "codeatlas/internal/llm" // register LLM providers
	"codeatlas/internal/parser"
	"codeatlas/internal/parser/javascript"
	"codeatlas/internal/parser/python"
	"codeatlas/pkg/llm"
)

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the embedded graph store at the configured path. A relative
// db path is resolved against the repository root.
func openStore(cfg *config.Config) (*embedded.Store, error) {
	dbPath := cfg.Graph.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Repository, dbPath)
	}
	store, err := embedded.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	return store, nil
}

// newParserService builds the parser registry with all supported grammars.
func newParserService() *parser.Service {
	registry := parser.NewRegistry()
	registry.Register(python.New())
	registry.Register(javascript.New())
	return parser.NewService(registry)
}

// newLLMClient builds the configured LLM client. A nil client with nil error
// means no provider is configured and the caller should run without one.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	if cfg.LLM.Provider == "" {
		return nil, nil
	}
	apiKey := cfg.LLM.APIKey
	if apiKey == "" && cfg.LLM.Provider == "anthropic" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	client, err := llm.NewClient(llm.Config{
		Provider:        cfg.LLM.Provider,
		Model:           cfg.LLM.Model,
		APIKey:          apiKey,
		BaseURL:         cfg.LLM.BaseURL,
		Project:         cfg.LLM.Project,
		Location:        cfg.LLM.Location,
		CredentialsFile: cfg.LLM.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return client, nil
}

// verboseLogf returns a diagnostic log function writing to the command's
// stderr, or nil when --verbose is not set.
func verboseLogf(cmd *cobra.Command) func(format string, args ...any) {
	if !verbose {
		return nil
	}
	return func(format string, args ...any) {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
}
