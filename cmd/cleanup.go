package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tlanger/edgebackup/internal/backup"
	"github.com/tlanger/edgebackup/internal/config"
	"github.com/tlanger/edgebackup/internal/lock"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Apply the retention policy to old backups",
	Long: `Remove working-tree backup files older than the retention window and
record the removal as a single cleanup commit. The underlying commits are
never deleted, so pruned revisions stay recoverable from history.

With nothing eligible this is a no-op: no commit is created.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	logger := setupLogging(false)

	repoPath := config.RepoPath()
	if repoPath == "" {
		return fmt.Errorf("github.repo_path is not configured")
	}
	if _, err := os.Stat(repoPath); err != nil {
		return fmt.Errorf("repository not found at %s, run 'edgebackup run' first", repoPath)
	}

	release, err := lock.Acquire(repoPath)
	if err != nil {
		return err
	}
	defer release()

	days := config.RetentionDays()
	logger.Info("cleaning up old backups", "window_days", days)

	store := backup.NewHistoryStore(repoPath, logger)
	retention := backup.NewRetentionManager(store, logger)

	rep, err := retention.Prune(time.Now(), days)
	if err != nil {
		return err
	}

	if len(rep.Removed) == 0 {
		fmt.Println("No backups eligible for removal")
		return nil
	}

	for _, p := range rep.Removed {
		fmt.Printf("  Removed %s\n", p)
	}
	fmt.Printf("✓ Removed %d file(s) older than %d days\n", len(rep.Removed), days)

	if config.AutoPush() && config.Remote() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), config.NetworkTimeout)
		defer cancel()
		if err := store.Push(ctx, "origin"); err != nil {
			logger.Warn("push failed, cleanup saved locally", "error", err)
		}
	}

	return nil
}
