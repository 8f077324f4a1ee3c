package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/memoriahq/memoria-go/internal/timeline"
	"github.com/memoriahq/memoria-go/internal/tui"
	"github.com/memoriahq/memoria-go/internal/upload"
)

var (
	uploadDate     string
	uploadCaptured string
	uploadNoWait   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload media into the timeline",
	Long: `Upload one or more files and register them for ingestion.

Files upload sequentially; the batch stops at the first failure. After a
successful batch the command waits for server-side processing with a
bounded poll loop unless --no-wait is given.

Examples:
  memoria upload photo.jpg clip.mp4
  memoria upload voice.wav --date 2024-03-10 --captured-at 2024-03-10T14:30:00Z`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadDate, "date", "", "destination date (YYYY-MM-DD, default today)")
	uploadCmd.Flags().StringVar(&uploadCaptured, "captured-at", "", "explicit captured time (RFC3339), overrides media metadata")
	uploadCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, "do not wait for processing to finish")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := upload.Options{Loc: loc}
	if uploadDate != "" {
		key := timeline.DateKey(uploadDate)
		if !key.Valid() {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", uploadDate)
		}
		opts.Date = key
	}
	if uploadCaptured != "" {
		t, err := time.Parse(time.RFC3339, uploadCaptured)
		if err != nil {
			return fmt.Errorf("invalid --captured-at: %w", err)
		}
		opts.CapturedAt = &t
		opts.Override = true
	}

	pipeline := upload.NewPipeline(apiClient, logger, collector)
	poller := upload.NewPoller(apiClient, logger, collector)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return tui.RunUpload(ctx, pipeline, poller, args, opts, !uploadNoWait)
	}

	opts.Progress = func(ev upload.Event) {
		if ev.Err != nil {
			fmt.Printf("  %s: %v\n", ev.Filename, ev.Err)
		} else if ev.Step == "done" {
			fmt.Printf("  %s: uploaded\n", ev.Filename)
		}
	}

	result, err := pipeline.UploadBatch(ctx, args, opts)
	fmt.Printf("Uploaded %d of %d files.\n", result.UploadedCount, len(args))
	if err != nil {
		return err
	}
	if uploadNoWait {
		return nil
	}

	fmt.Println("Waiting for processing...")
	statuses, err := poller.Wait(ctx, result.ItemIDs)
	for _, s := range statuses {
		fmt.Printf("  %s: %s\n", s.ItemID, s.Status)
	}
	if errors.Is(err, upload.ErrStillProcessing) {
		fmt.Println("Some items are still processing; check the timeline later.")
		return nil
	}
	return err
}
