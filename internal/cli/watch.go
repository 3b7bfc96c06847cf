package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeatlas/internal/ingest"
)

func newWatchCmd() *cobra.Command {
	var noInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the graph in sync with file changes",
		Long: `Ingest the repository and then watch it for changes, re-ingesting
modified files and dropping records for deleted ones until interrupted. Use
--no-initial to skip the up-front ingestion and only apply changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			// Sync events are the whole point of watching, so log them
			// unconditionally.
			logf := func(format string, args ...any) {
				fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
			}
			svc := ingest.NewService(newParserService(), store, logf)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
				cancel()
			}()

			out := cmd.OutOrStdout()

			if !noInitial {
				stats, err := svc.IngestRepo(ctx, cfg.Repository, false, cfg.Ignore)
				if err != nil {
					return fmt.Errorf("initial ingest: %w", err)
				}
				fmt.Fprintf(out, "Ingested %d files (%d nodes, %d edges)\n",
					stats.FilesProcessed, stats.NodesCreated, stats.EdgesCreated)
				for _, fe := range stats.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fe)
				}
			}

			fmt.Fprintf(out, "Watching %s for changes...\n", cfg.Repository)
			if err := svc.WatchAndSync(ctx, cfg.Repository, cfg.Ignore); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noInitial, "no-initial", false, "skip the initial full ingestion")

	return cmd
}
