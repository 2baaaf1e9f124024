package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NetworkTimeout bounds every fetch and push operation.
const NetworkTimeout = 30 * time.Second

// Host returns the device address.
func Host() string {
	return viper.GetString("edgerouter.host")
}

// Port returns the device SSH port.
func Port() int {
	return viper.GetInt("edgerouter.port")
}

// Username returns the device SSH user.
func Username() string {
	return viper.GetString("edgerouter.username")
}

// SSHKeyPath returns the private key used for device authentication.
func SSHKeyPath() string {
	return expandPath(viper.GetString("edgerouter.ssh_key_path"))
}

// RepoPath returns the local history store directory.
func RepoPath() string {
	return expandPath(viper.GetString("github.repo_path"))
}

// Remote returns the history store remote URL.
func Remote() string {
	return viper.GetString("github.remote")
}

// AutoPush reports whether commits are pushed to the remote after each run.
func AutoPush() bool {
	return viper.GetBool("github.auto_push")
}

// RetentionDays returns the retention window in days.
func RetentionDays() int {
	return viper.GetInt("backup.retention_days")
}

// LogLevel returns the configured log level name.
func LogLevel() string {
	return viper.GetString("logging.level")
}

// LogFile returns the rotated log file path, relative to the repo path
// unless absolute.
func LogFile() string {
	file := viper.GetString("logging.file")
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(RepoPath(), file)
}

// LogMaxSizeMB returns the rotation threshold for the log file.
func LogMaxSizeMB() int {
	return viper.GetInt("logging.max_size_mb")
}

// LogBackupCount returns how many rotated log files are kept.
func LogBackupCount() int {
	return viper.GetInt("logging.backup_count")
}

// NotifyOnSuccess reports whether successful runs raise a notification.
func NotifyOnSuccess() bool {
	return viper.GetBool("notifications.on_success")
}

// NotifyOnFailure reports whether failed runs raise a notification.
func NotifyOnFailure() bool {
	return viper.GetBool("notifications.on_failure")
}

// NotifyOnChanges reports whether the notification text distinguishes
// changed from unchanged runs.
func NotifyOnChanges() bool {
	return viper.GetBool("notifications.on_changes")
}

// MacOSNative reports whether desktop notifications are enabled.
func MacOSNative() bool {
	return viper.GetBool("notifications.macos_native")
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
