package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memoriahq/memoria-go/internal/timeline"
)

var summaryVoice string

var summaryCmd = &cobra.Command{
	Use:   "summary <date> [text]",
	Short: "Write a day's summary",
	Long: `Create or update the daily summary for a date, optionally attaching a
recorded voice note.

Examples:
  memoria summary 2024-03-10 "Beach day with the kids"
  memoria summary 2024-03-10 --voice note.wav`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryVoice, "voice", "", "voice note file to attach")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	key := timeline.DateKey(args[0])
	if !key.Valid() {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", args[0])
	}
	if len(args) == 1 && summaryVoice == "" {
		return fmt.Errorf("nothing to do: provide summary text, --voice, or both")
	}

	ctrl := timeline.NewController(apiClient, loc, logger, collector)
	anchor, err := key.Time(loc)
	if err != nil {
		return err
	}
	ctrl.SetAnchor(anchor)
	if err := ctrl.LoadRange(ctx); err != nil {
		return err
	}

	if len(args) == 2 {
		if err := ctrl.SaveDailySummary(ctx, key, args[1]); err != nil {
			return err
		}
		fmt.Println("Summary saved.")
	}

	if summaryVoice == "" {
		return nil
	}

	day, ok := ctrl.FocusedDay()
	if !ok || day.DailySummary == nil {
		return fmt.Errorf("no summary exists for %s yet; provide the text first", key)
	}

	f, err := os.Open(summaryVoice)
	if err != nil {
		return fmt.Errorf("open voice note: %w", err)
	}
	defer f.Close()

	if _, err := apiClient.UploadDailySummaryVoice(ctx, day.DailySummary.ID, filepath.Base(summaryVoice), f); err != nil {
		return err
	}
	fmt.Println("Voice note attached.")
	return nil
}
