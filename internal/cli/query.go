package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"codeatlas/internal/graph"
)

func newQueryCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Run a raw graph query",
		Long: `Run a graph query directly against the store, bypassing the
natural-language layer. For example:

  codeatlas query 'MATCH (fn:Function) RETURN fn.name, fn.file_path LIMIT 10'
  codeatlas query 'MATCH (f:File) RETURN count(f) AS files'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryText := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.ExecuteQuery(cmd.Context(), queryText, nil)
			if err != nil {
				return fmt.Errorf("execute query: %w", err)
			}

			out := cmd.OutOrStdout()

			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "No results found.")
				return nil
			}

			cols := sortedColumns(rows[0])
			fmt.Fprintln(out, strings.Join(cols, "  |  "))
			for _, row := range rows {
				values := make([]string, len(cols))
				for i, col := range cols {
					values[i] = formatValue(row[col])
				}
				fmt.Fprintln(out, strings.Join(values, "  |  "))
			}
			fmt.Fprintf(out, "\n%d result(s)\n", len(rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	return cmd
}

func sortedColumns(row graph.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
