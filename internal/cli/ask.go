package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"codeatlas/internal/query"
)

// Style definitions for ask output.
var (
	answerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	detailStyle = lipgloss.NewStyle().
			Faint(true)
)

func newAskCmd() *cobra.Command {
	var showQuery bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a natural-language question about the codebase",
		Long: `Ask a question about the ingested codebase in plain language, for
example:

  codeatlas ask "how many functions are there?"
  codeatlas ask "what functions are in the UserService class?"
  codeatlas ask "which functions call validate?"

Questions are translated into graph queries by a rule table, with optional
LLM assistance when a provider is configured.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := newLLMClient(cfg)
			if err != nil {
				return err
			}
			if client != nil {
				defer client.Close()
			}

			svc := query.NewService(store, query.Options{
				Client:     client,
				MaxRetries: cfg.Query.MaxRetries,
				Logf:       verboseLogf(cmd),
			})

			answer := svc.Answer(cmd.Context(), question)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, answerStyle.Render(answer.Response))

			if len(answer.NodeIDs) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, detailStyle.Render("Referenced nodes:"))
				for _, id := range answer.NodeIDs {
					fmt.Fprintf(out, "  %s\n", detailStyle.Render(id))
				}
			}
			if showQuery || verbose {
				fmt.Fprintln(out)
				fmt.Fprintln(out, detailStyle.Render("Query: "+answer.Query))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showQuery, "show-query", false, "print the executed graph query")

	return cmd
}
