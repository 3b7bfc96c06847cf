package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `project:
  name: "test-project"

repository: /tmp/test-repo

graph:
  db_path: /tmp/test-graph

ignore:
  - "generated/"
  - "*.min.js"

llm:
  provider: anthropic
  model: claude-sonnet-4-5-20250929

query:
  max_retries: 3
`
	configPath := filepath.Join(tmpDir, DefaultConfigFile+"."+DefaultConfigType)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Change to the temp directory so Load() discovers .codeatlas.yaml
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Project.Name != "test-project" {
		t.Errorf("Project.Name = %q, want %q", cfg.Project.Name, "test-project")
	}
	if cfg.Repository != "/tmp/test-repo" {
		t.Errorf("Repository = %q, want %q", cfg.Repository, "/tmp/test-repo")
	}
	if cfg.Graph.DBPath != "/tmp/test-graph" {
		t.Errorf("Graph.DBPath = %q, want %q", cfg.Graph.DBPath, "/tmp/test-graph")
	}
	if len(cfg.Ignore) != 2 || cfg.Ignore[0] != "generated/" {
		t.Errorf("Ignore = %v, want [generated/ *.min.js]", cfg.Ignore)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("LLM.Provider = %q, want %q", cfg.LLM.Provider, "anthropic")
	}
	if cfg.LLM.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.Query.MaxRetries != 3 {
		t.Errorf("Query.MaxRetries = %d, want 3", cfg.Query.MaxRetries)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Repository != "." {
		t.Errorf("Repository = %q, want %q", cfg.Repository, ".")
	}
	if cfg.Graph.DBPath != DefaultDBPath {
		t.Errorf("Graph.DBPath = %q, want %q", cfg.Graph.DBPath, DefaultDBPath)
	}
	if cfg.LLM.Provider != "" {
		t.Errorf("LLM.Provider = %q, want empty", cfg.LLM.Provider)
	}
	if cfg.Query.MaxRetries != 2 {
		t.Errorf("Query.MaxRetries = %d, want 2", cfg.Query.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Repository: ".",
			Graph:      GraphConfig{DBPath: DefaultDBPath},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid minimal", func(c *Config) {}, false},
		{"missing repository", func(c *Config) { c.Repository = "" }, true},
		{"missing db path", func(c *Config) { c.Graph.DBPath = "" }, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "openai" }, true},
		{"anthropic provider", func(c *Config) { c.LLM.Provider = "anthropic" }, false},
		{"ollama provider", func(c *Config) { c.LLM.Provider = "ollama" }, false},
		{"vertex without project", func(c *Config) { c.LLM.Provider = "vertex-ai" }, true},
		{"vertex with project", func(c *Config) {
			c.LLM.Provider = "vertex-ai"
			c.LLM.Project = "my-project"
		}, false},
		{"negative retries", func(c *Config) { c.Query.MaxRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{
		Project:    ProjectConfig{Name: "roundtrip"},
		Repository: ".",
		Graph:      GraphConfig{DBPath: DefaultDBPath},
		LLM:        LLMConfig{Provider: "ollama", Model: "llama3"},
		Query:      QueryConfig{MaxRetries: 2},
	}

	configPath := filepath.Join(tmpDir, DefaultConfigFile+"."+DefaultConfigType)
	if err := WriteConfig(cfg, configPath); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	}()

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Project.Name != "roundtrip" {
		t.Errorf("Project.Name = %q, want %q", loaded.Project.Name, "roundtrip")
	}
	if loaded.LLM.Provider != "ollama" || loaded.LLM.Model != "llama3" {
		t.Errorf("LLM = %+v, want ollama/llama3", loaded.LLM)
	}
}
