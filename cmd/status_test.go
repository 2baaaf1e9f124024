package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/tlanger/edgebackup/internal/models"
	"github.com/tlanger/edgebackup/internal/testutil"
)

func TestStatusUninitialized(t *testing.T) {
	viper.Reset()
	viper.Set("github.repo_path", t.TempDir())
	viper.Set("backup.retention_days", 30)

	if err := runStatus(nil, nil); err != nil {
		t.Fatalf("status failed on uninitialized repository: %v", err)
	}
}

func TestStatusWithBackups(t *testing.T) {
	repo := testutil.NewTempStore(t)
	configureTestRepo(t, repo)

	date := time.Now().AddDate(0, 0, -1)
	repo.WriteBackup(date, "set a\n")
	repo.CommitAll(models.CommitMessage(date, models.NoPrior))

	if err := runStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
}

func TestStatusRequiresRepoPath(t *testing.T) {
	viper.Reset()

	if err := runStatus(nil, nil); err == nil {
		t.Error("status should fail without a configured repo path")
	}
}
