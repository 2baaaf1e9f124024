package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tlanger/edgebackup/internal/config"
	"github.com/tlanger/edgebackup/internal/logging"
)

const version = "1.0.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "edgebackup",
	Version: version,
	Short:   "EdgeRouter configuration backup with version control",
	Long: `edgebackup retrieves an EdgeRouter's configuration over SSH and stores
successive snapshots in a date-keyed git repository:

  - both the Web-UI-compatible tar.gz archive and the plain-text form
  - one revision per calendar date, committed with a change summary
  - retention pruning of old working-tree files, history kept intact
  - best-effort push to a remote; local backups never depend on it`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.config/edgebackup/config.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "edgebackup"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("edgerouter.port", 22)
	viper.SetDefault("github.auto_push", true)
	viper.SetDefault("backup.retention_days", 30)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "logs/backup.log")
	viper.SetDefault("logging.max_size_mb", 5)
	viper.SetDefault("logging.backup_count", 3)
	viper.SetDefault("notifications.on_success", true)
	viper.SetDefault("notifications.on_failure", true)
	viper.SetDefault("notifications.on_changes", true)
	viper.SetDefault("notifications.macos_native", false)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging installs the run logger. Dry runs log to console only, real
// runs also append to the rotated log file inside the repository.
func setupLogging(dryRun bool) *slog.Logger {
	file := ""
	if !dryRun {
		file = config.LogFile()
	}
	return logging.Setup(logging.Options{
		Level:       config.LogLevel(),
		File:        file,
		MaxSizeMB:   config.LogMaxSizeMB(),
		BackupCount: config.LogBackupCount(),
	})
}
