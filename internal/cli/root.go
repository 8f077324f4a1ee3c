// Package cli provides the command-line interface for memoria.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/bus"
	"github.com/memoriahq/memoria-go/internal/config"
	"github.com/memoriahq/memoria-go/internal/metrics"
	"github.com/memoriahq/memoria-go/internal/prefs"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and collaborators
	cfg        config.Config
	apiClient  *api.Client
	prefsStore *prefs.Store
	collector  *metrics.Collector
	loc        *time.Location
	logger     *slog.Logger
	logCleanup func() error
	focusBus   *bus.FocusBus
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "memoria",
	Short: "Personal memory timeline client",
	Long: `Memoria is a terminal client for a personal memory backend: browse a
chronological timeline of ingested media, search it, upload new media,
and chat with an assistant over your memories.

All dates are interpreted in your configured time zone (MEMORIA_TIMEZONE
or the timezone preference), so day boundaries match your wall clock
wherever the backend runs.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		collector = metrics.NewCollector()
		apiClient = api.New(cfg.ServerURL)
		focusBus = bus.NewFocusBus()

		// Interactive commands own the terminal, so stderr stays quiet
		// unless --verbose; the log file captures everything.
		stderrLevel := slog.LevelError
		if verbose {
			stderrLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, stderrLevel)
		slog.SetDefault(logger)

		store, err := prefs.NewStore(&prefs.FileBackend{Path: cfg.PrefsFile})
		if err != nil {
			return fmt.Errorf("open preferences: %w", err)
		}
		prefsStore = store

		// The preference wins over the env var; both fall back to local.
		if tz := prefsStore.Timezone(); tz != "" {
			cfg.Timezone = tz
		}
		loc, err = cfg.Location()
		if err != nil && verbose {
			fmt.Fprintf(os.Stderr, "Warning: %v, using local zone\n", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
