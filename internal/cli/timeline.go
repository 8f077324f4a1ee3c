package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/memoriahq/memoria-go/internal/timeline"
	"github.com/memoriahq/memoria-go/internal/tui"
)

var (
	timelineView string
	timelineDate string
	timelinePlain bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Browse the memory timeline",
	Long: `Browse the chronological timeline of ingested media.

Opens an interactive browser on a TTY; prints a plain listing otherwise.

Examples:
  memoria timeline
  memoria timeline --view week --date 2024-03-10
  memoria timeline --view all --plain`,
	RunE: runTimeline,
}

func init() {
	timelineCmd.Flags().StringVar(&timelineView, "view", "day", "view mode: day, week, month, year, all")
	timelineCmd.Flags().StringVar(&timelineDate, "date", "", "anchor date (YYYY-MM-DD, default today)")
	timelineCmd.Flags().BoolVar(&timelinePlain, "plain", false, "print a plain listing instead of the browser")
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	mode, err := timeline.ParseViewMode(timelineView)
	if err != nil {
		return err
	}

	ctrl := timeline.NewController(apiClient, loc, logger, collector)
	ctrl.SetMode(mode)
	if timelineDate != "" {
		key := timeline.DateKey(timelineDate)
		if !key.Valid() {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", timelineDate)
		}
		anchor, err := key.Time(loc)
		if err != nil {
			return err
		}
		ctrl.SetAnchor(anchor)
	}

	if !timelinePlain && term.IsTerminal(int(os.Stdout.Fd())) {
		return tui.RunBrowser(ctrl, focusBus)
	}
	return printTimeline(cmd.Context(), ctrl)
}

// printTimeline renders the current range as a plain listing.
func printTimeline(ctx context.Context, ctrl *timeline.Controller) error {
	if ctrl.Mode() == timeline.ViewAll {
		if err := ctrl.LoadAllItems(ctx, true); err != nil {
			return err
		}
		items := ctrl.AllItems().Items()
		fmt.Printf("%d of %d items:\n\n", len(items), ctrl.AllItems().Total())
		for _, it := range items {
			captured := "unknown time"
			if it.CapturedAt != nil {
				captured = it.CapturedAt.In(ctrl.Location()).Format(time.RFC1123)
			}
			fmt.Printf("  %-10s %s (%s)\n", it.ItemType, it.Label(), captured)
		}
		return nil
	}

	if err := ctrl.LoadRange(ctx); err != nil {
		return err
	}

	days := ctrl.Days()
	if len(days) == 0 {
		fmt.Println("No memories in this range.")
		return nil
	}

	for _, day := range days {
		fmt.Printf("%s  (%d items)\n", day.Date, day.ItemCount)
		if day.DailySummary != nil {
			fmt.Printf("  Summary: %s\n", day.DailySummary.Summary)
		}
		for _, ep := range day.Episodes {
			fmt.Printf("  ◆ %s: %s (%d items)\n", ep.Title, ep.Summary, ep.ItemCount)
		}
		for _, it := range day.Items {
			marker := " "
			if day.Highlight != nil && day.Highlight.ID == it.ID {
				marker = "★"
			}
			fmt.Printf("  %s %-10s %s\n", marker, it.ItemType, it.Label())
		}
		fmt.Println()
	}
	return nil
}
