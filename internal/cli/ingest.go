package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"codeatlas/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "Parse the repository and build the knowledge graph",
		Long: `Walk the configured repository (or the given path), parse every supported
source file, and write file, class, and function nodes plus their
relationships to the graph store. Re-ingesting a file replaces its previous
records, so the command is safe to run repeatedly. Use --reset to drop the
whole graph first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Repository = args[0]
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := ingest.NewService(newParserService(), store, verboseLogf(cmd))

			start := time.Now()
			stats, err := svc.IngestRepo(cmd.Context(), cfg.Repository, reset, cfg.Ignore)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %s in %s\n", cfg.Repository, time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(out, "  Files processed: %d\n", stats.FilesProcessed)
			if stats.FilesSkipped > 0 {
				fmt.Fprintf(out, "  Files skipped:   %d\n", stats.FilesSkipped)
			}
			fmt.Fprintf(out, "  Nodes created:   %d\n", stats.NodesCreated)
			fmt.Fprintf(out, "  Edges created:   %d\n", stats.EdgesCreated)

			if len(stats.Errors) > 0 {
				fmt.Fprintf(out, "  Errors:          %d\n", len(stats.Errors))
				for _, fe := range stats.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "    %s\n", fe)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "clear the graph before ingesting")

	return cmd
}
