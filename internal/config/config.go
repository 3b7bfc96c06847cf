// Package config handles configuration loading and validation for codeatlas.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".codeatlas"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// DefaultDBPath is the default embedded graph database directory.
	DefaultDBPath = ".codeatlas/graph"
)

// Config holds all configuration for codeatlas.
type Config struct {
	// Project contains project metadata.
	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	// Repository is the filesystem path of the repository to ingest.
	Repository string `mapstructure:"repository" yaml:"repository"`
	// Graph contains knowledge graph storage configuration.
	Graph GraphConfig `mapstructure:"graph" yaml:"graph"`
	// Ignore lists extra gitignore-style patterns excluded from ingestion
	// and watching.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
	// LLM contains the optional language model backend configuration.
	LLM LLMConfig `mapstructure:"llm" yaml:"llm"`
	// Query contains question-answering configuration.
	Query QueryConfig `mapstructure:"query" yaml:"query"`
}

// ProjectConfig holds project metadata.
type ProjectConfig struct {
	// Name is the project name.
	Name string `mapstructure:"name" yaml:"name"`
}

// GraphConfig holds knowledge graph storage configuration.
type GraphConfig struct {
	// DBPath is the directory of the embedded graph database.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LLMConfig holds the optional LLM backend configuration. An empty provider
// disables the backend; the translator and synthesizer then run on rules and
// templates alone.
type LLMConfig struct {
	// Provider is the LLM provider (anthropic, ollama, vertex-ai), or ""
	// for none.
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Model is the model identifier; empty selects the provider default.
	Model string `mapstructure:"model" yaml:"model"`
	// APIKey is the provider API key, usually supplied via environment.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// BaseURL overrides the provider endpoint (Ollama host, proxies).
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// Project is the GCP project ID (vertex-ai).
	Project string `mapstructure:"project" yaml:"project,omitempty"`
	// Location is the GCP region (vertex-ai).
	Location string `mapstructure:"location" yaml:"location,omitempty"`
	// CredentialsFile is a GCP service account credentials file (vertex-ai).
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
}

// QueryConfig holds question-answering configuration.
type QueryConfig struct {
	// MaxRetries bounds query re-translation after execution failures.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// Load loads configuration from file, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// A config file set via CLI flag lives in the global viper.
	globalViper := viper.GetViper()
	if configFile := globalViper.GetString("config_file"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CODEATLAS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Repository == "" {
		return fmt.Errorf("repository path is required")
	}
	if c.Graph.DBPath == "" {
		return fmt.Errorf("graph db_path is required")
	}
	switch c.LLM.Provider {
	case "", "anthropic", "ollama", "vertex-ai":
	default:
		return fmt.Errorf("llm provider must be 'anthropic', 'ollama', or 'vertex-ai', got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "vertex-ai" && c.LLM.Project == "" {
		return fmt.Errorf("llm project is required for the vertex-ai provider")
	}
	if c.Query.MaxRetries < 0 {
		return fmt.Errorf("query max_retries must be >= 0")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")
	v.SetDefault("repository", ".")
	v.SetDefault("graph.db_path", DefaultDBPath)
	v.SetDefault("ignore", []string{})
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("query.max_retries", 2)
}
