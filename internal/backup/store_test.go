package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tlanger/edgebackup/internal/models"
	"github.com/tlanger/edgebackup/internal/testutil"
)

func testDate(day int) time.Time {
	return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
}

func snapshotFor(t *testing.T, day int, text string) *models.Snapshot {
	t.Helper()
	return &models.Snapshot{
		ArchiveBytes: testutil.MakeArchive(t, map[string]string{"config/config.boot": text}),
		TextBytes:    []byte(text),
		CapturedAt:   testDate(day),
	}
}

func TestWriteCreatesDatePaths(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	snap := snapshotFor(t, 20, "set system host-name router\n")
	paths, err := store.Write(snap)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if paths.Archive != "2026/01/backup-2026-01-20.tar.gz" {
		t.Errorf("archive path = %q", paths.Archive)
	}
	if paths.Text != "2026/01/backup-2026-01-20.cfg" {
		t.Errorf("text path = %q", paths.Text)
	}
	if got := repo.ReadFile(paths.Text); got != string(snap.TextBytes) {
		t.Errorf("text artifact content = %q", got)
	}
	if !repo.FileExists(paths.Archive) {
		t.Error("archive artifact missing")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	if _, err := store.Write(snapshotFor(t, 20, "set x\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(repo.Path, "2026", "01", ".backup-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestWriteSameDateOverwritesInPlace(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	first, err := store.Write(snapshotFor(t, 20, "set a\n"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Write(snapshotFor(t, 20, "set b\n"))
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("paths changed between same-date writes: %+v vs %+v", first, second)
	}
	if got := repo.ReadFile(second.Text); got != "set b\n" {
		t.Errorf("second write did not overwrite: %q", got)
	}
}

func TestWriteFailureLeavesTreeUntouched(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	snap := snapshotFor(t, 20, "set a\n")
	// A directory squatting on the text path makes its rename fail after
	// the archive rename already happened.
	textAbs := filepath.Join(repo.Path, filepath.FromSlash(models.TextPath(snap.CapturedAt)))
	if err := os.MkdirAll(textAbs, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := store.Write(snap)
	var serr *StoreError
	if !errors.As(err, &serr) || serr.Op != "write" {
		t.Fatalf("expected write StoreError, got %v", err)
	}

	if repo.FileExists(models.ArchivePath(snap.CapturedAt)) {
		t.Error("archive observable after failed pair write")
	}
	leftovers, err := filepath.Glob(filepath.Join(repo.Path, "2026", "01", ".backup-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestWriteFailureRestoresPriorArtifacts(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	first := snapshotFor(t, 20, "set a\n")
	paths, err := store.Write(first)
	if err != nil {
		t.Fatal(err)
	}

	// Break the text path, then retry the same date with new bytes. The
	// failed overwrite must leave the first pair intact.
	textAbs := filepath.Join(repo.Path, filepath.FromSlash(paths.Text))
	if err := os.Remove(textAbs); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(textAbs, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Write(snapshotFor(t, 20, "set b\n")); err == nil {
		t.Fatal("expected Write to fail")
	}

	got, readErr := os.ReadFile(filepath.Join(repo.Path, filepath.FromSlash(paths.Archive)))
	if readErr != nil {
		t.Fatalf("prior archive missing after failed overwrite: %v", readErr)
	}
	if string(got) != string(first.ArchiveBytes) {
		t.Error("prior archive bytes were not restored")
	}
}

func TestCommitStagesDatePathsOnly(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	// An unrelated dirty file must not be swept into the backup commit.
	repo.WriteFile("scratch.txt", "untracked\n")

	snap := snapshotFor(t, 20, "set a\n")
	paths, err := store.Write(snap)
	if err != nil {
		t.Fatal(err)
	}

	msg := models.CommitMessage(snap.CapturedAt, models.NoPrior)
	if _, err := store.Commit(paths, msg); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if repo.HeadMessage() != msg {
		t.Errorf("commit message = %q", repo.HeadMessage())
	}
	if !repo.TrackedAt("HEAD", paths.Text) || !repo.TrackedAt("HEAD", paths.Archive) {
		t.Error("artifacts not tracked at HEAD")
	}
	if repo.TrackedAt("HEAD", "scratch.txt") {
		t.Error("unrelated file was committed")
	}
}

func TestCommitRecordsUnchangedRun(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	snap := snapshotFor(t, 20, "set a\n")
	paths, err := store.Write(snap)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(paths, models.CommitMessage(snap.CapturedAt, models.NoPrior)); err != nil {
		t.Fatal(err)
	}

	// Same bytes again: the commit is a no-op state marker, not an error.
	if _, err := store.Write(snap); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(paths, models.CommitMessage(snap.CapturedAt, models.Unchanged)); err != nil {
		t.Fatalf("unchanged commit failed: %v", err)
	}

	if got := repo.CommitCount(); got != 2 {
		t.Errorf("commit count = %d, want 2", got)
	}
	if repo.HeadMessage() != "Backup 2026-01-20 - No changes" {
		t.Errorf("head message = %q", repo.HeadMessage())
	}
}

func TestPushToBareRemote(t *testing.T) {
	repo := testutil.NewTempStore(t)
	remote := testutil.NewBareRemote(t)
	store := NewHistoryStore(repo.Path, nil)

	if err := store.EnsureRepo(remote); err != nil {
		t.Fatal(err)
	}

	snap := snapshotFor(t, 20, "set a\n")
	paths, err := store.Write(snap)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(paths, "Backup 2026-01-20 - First backup"); err != nil {
		t.Fatal(err)
	}

	if err := store.Push(context.Background(), "origin"); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
}

func TestPushFailureIsTyped(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	if err := store.EnsureRepo(filepath.Join(repo.Path, "no-such-remote")); err != nil {
		t.Fatal(err)
	}

	snap := snapshotFor(t, 20, "set a\n")
	paths, err := store.Write(snap)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(paths, "Backup 2026-01-20 - First backup"); err != nil {
		t.Fatal(err)
	}

	err = store.Push(context.Background(), "origin")
	var perr *PushError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PushError, got %v", err)
	}

	// The local commit must be intact after a failed push.
	if repo.CommitCount() != 1 {
		t.Errorf("commit count = %d after failed push", repo.CommitCount())
	}
}

func TestEnsureRepoInitializes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	store := NewHistoryStore(dir, nil)

	if err := store.EnsureRepo("git@example.com:backups.git"); err != nil {
		t.Fatalf("EnsureRepo failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Error("repository was not initialized")
	}
	if !store.Repo().HasRemote("origin") {
		t.Error("origin remote not configured")
	}

	// Second call is a no-op.
	if err := store.EnsureRepo("git@example.com:backups.git"); err != nil {
		t.Fatalf("EnsureRepo not idempotent: %v", err)
	}
}

func TestLatestTextRevision(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	if _, _, err := store.LatestTextRevision(); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory on empty repo, got %v", err)
	}

	repo.WriteBackup(testDate(10), "set a\n")
	repo.CommitAll("Backup 2026-01-10 - First backup")
	repo.WriteBackup(testDate(20), "set b\n")
	repo.CommitAll("Backup 2026-01-20 - Configuration changed")

	path, hash, err := store.LatestTextRevision()
	if err != nil {
		t.Fatalf("LatestTextRevision failed: %v", err)
	}
	if path != "2026/01/backup-2026-01-20.cfg" {
		t.Errorf("latest path = %q", path)
	}
	if hash == "" {
		t.Error("blob hash empty")
	}
}

func TestWorkingTreeBackups(t *testing.T) {
	repo := testutil.NewTempStore(t)
	store := NewHistoryStore(repo.Path, nil)

	repo.WriteBackup(testDate(10), "set a\n")
	repo.WriteBackup(testDate(20), "set b\n")
	repo.WriteFile("logs/backup.log", "noise\n")

	paths, err := store.WorkingTreeBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 4 {
		t.Fatalf("got %d paths: %v", len(paths), paths)
	}
	for _, p := range paths {
		if strings.Contains(p, "logs/") {
			t.Errorf("non-backup path enumerated: %s", p)
		}
	}
}
