package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tlanger/edgebackup/internal/backup"
	"github.com/tlanger/edgebackup/internal/config"
	"github.com/tlanger/edgebackup/internal/fetch"
	"github.com/tlanger/edgebackup/internal/lock"
	"github.com/tlanger/edgebackup/internal/models"
	"github.com/tlanger/edgebackup/internal/report"
)

// minFreeMB is the disk-space preflight threshold.
const minFreeMB = 100

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full backup",
	Long: `Retrieve the device configuration, validate it, store it in the history
repository, commit with a change summary, push to the remote (best effort)
and apply the retention policy.

Exit code is 0 for a completed run, including a run whose push failed but
whose local commit succeeded. Any other failure exits non-zero.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogging(false)

	repoPath := config.RepoPath()
	if repoPath == "" {
		return fmt.Errorf("github.repo_path is not configured")
	}
	if config.Host() == "" {
		return fmt.Errorf("edgerouter.host is not configured")
	}

	if err := os.MkdirAll(repoPath, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}
	checkDiskSpace(repoPath, logger)

	release, err := lock.Acquire(repoPath)
	if err != nil {
		return err
	}
	defer release()

	store := backup.NewHistoryStore(repoPath, logger)
	if err := store.EnsureRepo(config.Remote()); err != nil {
		return err
	}

	fetcher := fetch.New(fetch.Config{
		Host:    config.Host(),
		Port:    config.Port(),
		User:    config.Username(),
		KeyPath: config.SSHKeyPath(),
		Timeout: config.NetworkTimeout,
	}, logger)

	reporter := report.NewNotifier(report.Options{
		OnSuccess:   config.NotifyOnSuccess(),
		OnFailure:   config.NotifyOnFailure(),
		OnChanges:   config.NotifyOnChanges(),
		MacOSNative: config.MacOSNative(),
	}, logger)

	orch := backup.NewOrchestrator(fetcher, store, backup.Options{
		AutoPush:    config.AutoPush() && config.Remote() != "",
		WindowDays:  config.RetentionDays(),
		PushTimeout: config.NetworkTimeout,
		Reporter:    reporter,
		Logger:      logger,
	})

	logger.Info("starting backup", "host", config.Host())
	outcome := orch.Run(context.Background())

	if outcome.Status == models.StatusFailed {
		return fmt.Errorf("backup failed at %s: %s", outcome.Stage, outcome.Detail)
	}

	fmt.Printf("✓ Backup completed (%s) in %.1fs\n", outcome.Status, outcome.Duration.Seconds())
	return nil
}

func checkDiskSpace(path string, logger *slog.Logger) {
	free, err := availableBytes(path)
	if err != nil {
		logger.Warn("could not determine free disk space", "error", err)
		return
	}
	freeMB := free / (1024 * 1024)
	if freeMB < minFreeMB {
		logger.Warn("low disk space", "available_mb", freeMB)
	}
}
