package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestExpandHomePaths(t *testing.T) {
	viper.Reset()
	viper.Set("edgerouter.ssh_key_path", "~/.ssh/id_ed25519")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	want := filepath.Join(home, ".ssh", "id_ed25519")
	if got := SSHKeyPath(); got != want {
		t.Errorf("SSHKeyPath = %q, want %q", got, want)
	}
}

func TestAbsolutePathsUntouched(t *testing.T) {
	viper.Reset()
	viper.Set("github.repo_path", "/var/backups/edgerouter")

	if got := RepoPath(); got != "/var/backups/edgerouter" {
		t.Errorf("RepoPath = %q", got)
	}
}

func TestLogFileRelativeToRepo(t *testing.T) {
	viper.Reset()
	viper.Set("github.repo_path", "/var/backups/edgerouter")
	viper.Set("logging.file", "logs/backup.log")

	if got := LogFile(); got != "/var/backups/edgerouter/logs/backup.log" {
		t.Errorf("LogFile = %q", got)
	}

	viper.Set("logging.file", "/var/log/edgebackup.log")
	if got := LogFile(); got != "/var/log/edgebackup.log" {
		t.Errorf("absolute LogFile = %q", got)
	}
}
