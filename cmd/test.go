package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tlanger/edgebackup/internal/backup"
	"github.com/tlanger/edgebackup/internal/config"
	"github.com/tlanger/edgebackup/internal/fetch"
	"github.com/tlanger/edgebackup/internal/models"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Dry-run: fetch and validate without saving anything",
	Long: `Connect to the device, retrieve and validate the configuration and
report what a real run would record. Nothing is written, committed or
pruned, and no log file is created.`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	logger := setupLogging(true)

	if config.Host() == "" {
		return fmt.Errorf("edgerouter.host is not configured")
	}

	fmt.Println("TEST MODE - No files will be saved")

	store := backup.NewHistoryStore(config.RepoPath(), logger)

	fetcher := fetch.New(fetch.Config{
		Host:    config.Host(),
		Port:    config.Port(),
		User:    config.Username(),
		KeyPath: config.SSHKeyPath(),
		Timeout: config.NetworkTimeout,
	}, logger)

	orch := backup.NewOrchestrator(fetcher, store, backup.Options{
		Logger: logger,
	})

	outcome := orch.DryRun(context.Background())
	if outcome.Status == models.StatusFailed {
		return fmt.Errorf("test failed at %s: %s", outcome.Stage, outcome.Detail)
	}

	fmt.Printf("✓ Test completed: %s\n", outcome.Detail)
	return nil
}
