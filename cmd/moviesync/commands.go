package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/app"
	"github.com/Clark-Hu/moviesync/internal/config"
	"github.com/Clark-Hu/moviesync/internal/domain"
	"github.com/Clark-Hu/moviesync/internal/logging"
	"github.com/Clark-Hu/moviesync/internal/scheduler"
	"github.com/Clark-Hu/moviesync/internal/syncer"
)

// openApp loads configuration from the environment and assembles the engine.
// Logs go to stderr so stdout stays machine readable.
func openApp(cmd *cobra.Command) (*app.App, config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}
	logger, err := logging.NewWithOutput(cfg.LogLevel, cfg.LogFormat, "stderr")
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	a, err := app.New(cmd.Context(), cfg, nil, logger)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return a, cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "moviesync",
		Short:         "Incremental movie snapshot synchronization",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `moviesync advances a stored checkpoint day by day, fetching one published
movie snapshot per day and merging new movies into a deduplicated collection.
Configuration is read from the same environment variables as the server.`,
	}
	root.AddCommand(newSyncCmd(), newLatestCmd(), newShowCmd(), newCheckpointCmd())
	return root
}

func newSyncCmd() *cobra.Command {
	var now string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one windowed synchronization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now()
			if now != "" {
				day, err := domain.ParseDay(now)
				if err != nil {
					return fmt.Errorf("--now must follow YYYY-MM-DD format")
				}
				at = day
			}

			a, cfg, logger, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()

			runner := scheduler.NewRunner(a.Syncer, cfg.SyncLockFile, logger.Named("runner"))
			report, err := runner.RunDailyAt(cmd.Context(), at)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summarize(report))
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "reference day (YYYY-MM-DD) instead of the current time")
	return cmd
}

func newLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Merge the most recent snapshot without moving the checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, logger, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()

			runner := scheduler.NewRunner(a.Syncer, cfg.SyncLockFile, logger.Named("runner"))
			report, err := runner.RunLatest(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summarize(report))
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, logger, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()

			movies, err := a.Syncer.ReadCollection(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), movies)
		},
	}
}

func newCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Print the last synchronized day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, logger, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()

			day, err := a.Syncer.Checkpoint(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), domain.FormatDay(day))
			return err
		},
	}
}

type runSummary struct {
	RunID          string   `json:"runId"`
	Kind           string   `json:"kind"`
	LastSynced     string   `json:"lastSynced,omitempty"`
	Days           []string `json:"days"`
	Added          int      `json:"added"`
	CollectionSize int      `json:"collectionSize"`
	Stalled        bool     `json:"stalled"`
}

func summarize(report syncer.Report) runSummary {
	s := runSummary{
		RunID:          report.RunID,
		Kind:           report.Kind,
		Days:           make([]string, 0, len(report.Days)),
		Added:          report.Added,
		CollectionSize: report.CollectionSize,
		Stalled:        report.Stalled,
	}
	if report.Kind == syncer.KindDaily {
		s.LastSynced = domain.FormatDay(report.Checkpoint)
	}
	for _, d := range report.Days {
		s.Days = append(s.Days, domain.FormatDay(d.Day)+" "+d.Status.String())
	}
	return s
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
