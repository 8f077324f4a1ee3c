package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/memoriahq/memoria-go/internal/metrics"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories",
	Long: `Search ingested memories by text.

Examples:
  memoria search "beach trip"
  memoria search "standup notes" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := cmd.Context()

	start := time.Now()
	results, err := apiClient.Search(ctx, query, searchLimit)
	collector.RecordTiming(metrics.OpSearch, time.Since(start))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. [%s] %s (%s)\n", i+1, r.Kind, r.Title, r.Date)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
		if verbose {
			fmt.Printf("   id=%s score=%.3f\n", r.ID, r.Score)
		}
		fmt.Println()
	}
	return nil
}
