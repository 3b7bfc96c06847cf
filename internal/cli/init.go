package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"codeatlas/internal/config"
)

func newInitCmd() *cobra.Command {
	var noInput bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a .codeatlas.yaml config file",
		Long: `Initialize a codeatlas project in the current directory.

Writes a .codeatlas.yaml configuration file describing the repository to
ingest, the graph database location, and the optional LLM backend. Run with
--no-input to write defaults without the interactive wizard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			configPath := filepath.Join(cwd, config.DefaultConfigFile+"."+config.DefaultConfigType)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; project is already initialized", configPath)
			}

			if noInput {
				return writeDefaultConfig(cmd, cwd, configPath)
			}
			return runInteractiveInit(cmd, cwd, configPath)
		},
	}

	cmd.Flags().BoolVar(&noInput, "no-input", false, "write a default config without prompting")

	return cmd
}

// detectLLMProvider checks environment variables to auto-detect the LLM provider.
func detectLLMProvider() (provider, hint string) {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return "anthropic", "ANTHROPIC_API_KEY set"
	}
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return "vertex-ai", "Google Cloud credentials detected"
	}
	if os.Getenv("OLLAMA_HOST") != "" {
		return "ollama", "OLLAMA_HOST set"
	}
	return "", ""
}

func writeDefaultConfig(cmd *cobra.Command, cwd, configPath string) error {
	provider, hint := detectLLMProvider()
	cfg := &config.Config{
		Project:    config.ProjectConfig{Name: filepath.Base(cwd)},
		Repository: ".",
		Graph:      config.GraphConfig{DBPath: config.DefaultDBPath},
		LLM:        config.LLMConfig{Provider: provider},
		Query:      config.QueryConfig{MaxRetries: 2},
	}
	if err := config.WriteConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", configPath)
	if hint != "" {
		fmt.Fprintf(out, "LLM provider: %s (%s)\n", provider, hint)
	}
	printNextSteps(cmd, provider)
	return nil
}

// runInteractiveInit runs the interactive wizard for project initialization.
func runInteractiveInit(cmd *cobra.Command, cwd, configPath string) error {
	out := cmd.OutOrStdout()

	var (
		projectName = filepath.Base(cwd)
		repository  = "."
		llmProvider string
		model       string
		ollamaHost  string
		gcpProject  string
		gcpRegion   = "us-central1"
		confirm     bool
	)
	llmProvider, _ = detectLLMProvider()

	providerOptions := []huh.Option[string]{
		huh.NewOption("None (rules and templates only)", ""),
		huh.NewOption("Anthropic API", "anthropic"),
		huh.NewOption("Ollama (local)", "ollama"),
		huh.NewOption("Vertex AI (GCP)", "vertex-ai"),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&projectName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("project name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Repository path").
				Description("Path of the repository to ingest, relative to this directory").
				Value(&repository).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("repository path cannot be empty")
					}
					return nil
				}),
		).Title("Project Setup"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LLM provider").
				Description("Used to translate questions into graph queries; optional").
				Options(providerOptions...).
				Value(&llmProvider),
		).Title("LLM Configuration"),

		huh.NewGroup(
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the provider default").
				Value(&model),
		).Title("Model").
			WithHideFunc(func() bool { return llmProvider == "" }),

		huh.NewGroup(
			huh.NewInput().
				Title("Ollama host").
				Placeholder("http://localhost:11434").
				Value(&ollamaHost),
		).Title("Ollama Configuration").
			WithHideFunc(func() bool { return llmProvider != "ollama" }),

		huh.NewGroup(
			huh.NewInput().
				Title("GCP Project ID").
				Value(&gcpProject).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("GCP project ID is required for Vertex AI")
					}
					return nil
				}),
			huh.NewInput().
				Title("GCP Region").
				Value(&gcpRegion).
				Placeholder("us-central1"),
		).Title("Vertex AI Configuration").
			WithHideFunc(func() bool { return llmProvider != "vertex-ai" }),

		huh.NewGroup(
			huh.NewNote().
				Title("Summary").
				DescriptionFunc(func() string {
					providerLabel := llmProvider
					switch llmProvider {
					case "":
						providerLabel = "none"
					case "vertex-ai":
						providerLabel = fmt.Sprintf("Vertex AI (%s / %s)", gcpProject, gcpRegion)
					}
					return fmt.Sprintf(
						"Project:     %s\n"+
							"Repository:  %s\n"+
							"LLM:         %s",
						projectName, repository, providerLabel,
					)
				}, &llmProvider),
			huh.NewConfirm().
				Title("Create project?").
				Value(&confirm).
				Affirmative("Create").
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return fmt.Errorf("interactive init: %w", err)
	}

	if !confirm {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	cfg := &config.Config{
		Project:    config.ProjectConfig{Name: projectName},
		Repository: repository,
		Graph:      config.GraphConfig{DBPath: config.DefaultDBPath},
		LLM: config.LLMConfig{
			Provider: llmProvider,
			Model:    model,
		},
		Query: config.QueryConfig{MaxRetries: 2},
	}
	switch llmProvider {
	case "ollama":
		cfg.LLM.BaseURL = ollamaHost
	case "vertex-ai":
		cfg.LLM.Project = gcpProject
		cfg.LLM.Location = gcpRegion
	}

	if err := config.WriteConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	fmt.Fprintf(out, "Created %s\n", configPath)

	printNextSteps(cmd, llmProvider)
	return nil
}

func printNextSteps(cmd *cobra.Command, provider string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	if provider == "anthropic" {
		fmt.Fprintln(out, "  1. Export ANTHROPIC_API_KEY or set CODEATLAS_LLM_API_KEY")
	} else {
		fmt.Fprintln(out, "  1. Review .codeatlas.yaml")
	}
	fmt.Fprintln(out, "  2. Add .codeatlas/ to .gitignore")
	fmt.Fprintln(out, "  3. Run 'codeatlas ingest' to build the knowledge graph")
	fmt.Fprintln(out, "  4. Run 'codeatlas ask \"how many functions are there?\"'")
}
