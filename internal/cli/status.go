package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"codeatlas/internal/graph"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show graph statistics",
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

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}

			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Knowledge Graph Status\n")
			fmt.Fprintf(out, "======================\n\n")
			fmt.Fprintf(out, "  Total nodes: %d\n", stats.NodeCount)
			fmt.Fprintf(out, "  Total edges: %d\n\n", stats.EdgeCount)

			if len(stats.NodesByLabel) > 0 {
				fmt.Fprintf(out, "  Nodes by label:\n")
				for _, label := range sortedLabels(stats.NodesByLabel) {
					fmt.Fprintf(out, "    %-20s %d\n", label, stats.NodesByLabel[label])
				}
				fmt.Fprintln(out)
			}

			if len(stats.EdgesByType) > 0 {
				fmt.Fprintf(out, "  Edges by type:\n")
				for _, et := range sortedEdgeTypes(stats.EdgesByType) {
					fmt.Fprintf(out, "    %-20s %d\n", et, stats.EdgesByType[et])
				}
				fmt.Fprintln(out)
			}

			return nil
		},
	}
}

func sortedLabels(m map[graph.Label]int64) []graph.Label {
	keys := make([]graph.Label, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedEdgeTypes(m map[graph.EdgeType]int64) []graph.EdgeType {
	keys := make([]graph.EdgeType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
