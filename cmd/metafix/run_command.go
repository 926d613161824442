package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"metafix/internal/journal"
	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/pipeline"
)

// maxListedFailures caps the failure lines printed after a run; the run log
// and journal hold the full list.
const maxListedFailures = 10

func runArchive(cmd *cobra.Command, ctx *commandContext, root string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	abs, err := pipeline.ValidateRoot(root)
	if err != nil {
		return err
	}

	logPath := filepath.Join(cfg.Paths.LogDir, logging.RunLogName(abs))
	logger, closer, err := logging.NewRunLogger(logging.RunOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: cmd.ErrOrStderr(),
		LogPath: logPath,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "metafix_*.log",
		Exclude: []string{logPath},
	})

	j, err := journal.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "journal unavailable; run history will not be recorded", "journal_unavailable",
			logging.String("path", cfg.JournalPath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
			logging.String(logging.FieldImpact, "metafix runs will not list this run"),
		)
		j = nil
	} else {
		defer j.Close()
		logger.Debug("journal opened", logging.String("path", j.Path()))
	}

	opts := pipeline.Options{
		Config:  cfg,
		Logger:  logger,
		Journal: j,
	}
	if isTerminal(cmd.ErrOrStderr()) {
		opts.Progress = cmd.ErrOrStderr()
	}
	coordinator, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	summary, err := coordinator.Run(cmd.Context(), abs)
	if err != nil {
		switch {
		case pipeline.IsLocked(err):
			return fmt.Errorf("%s is already being processed: %w", abs, err)
		case media.Fatal(err):
			logging.ErrorWithContext(logger, "run rejected", "run_rejected",
				logging.String("root", abs),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the archive root and configuration"),
			)
		}
		return err
	}

	printRunSummary(cmd.OutOrStdout(), summary, logPath)
	return nil
}
