package backup

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tlanger/edgebackup/internal/git"
	"github.com/tlanger/edgebackup/internal/models"
)

// WritePaths names the working-tree files of one stored revision, relative
// to the store root.
type WritePaths struct {
	Archive string
	Text    string
}

// All returns both paths.
func (p WritePaths) All() []string {
	return []string{p.Archive, p.Text}
}

// HistoryStore is a version-controlled directory tree keyed by capture
// date. Recorded history is append-only; the working tree is mutable and
// subject to retention pruning.
type HistoryStore struct {
	root string
	repo *git.Repo
	log  *slog.Logger
}

// NewHistoryStore returns a store rooted at dir.
func NewHistoryStore(dir string, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{
		root: dir,
		repo: git.Open(dir),
		log:  logger,
	}
}

// Root returns the store's working-tree root.
func (s *HistoryStore) Root() string { return s.root }

// Repo exposes the underlying repository handle.
func (s *HistoryStore) Repo() *git.Repo { return s.repo }

// EnsureRepo creates the store directory and initializes the repository on
// first use, configuring the origin remote when one is supplied.
func (s *HistoryStore) EnsureRepo(remote string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create store root: %w", err)
	}
	if !s.repo.IsRepo() {
		s.log.Info("initializing history repository", "path", s.root)
		if err := s.repo.Init(); err != nil {
			return err
		}
	}
	if remote != "" && !s.repo.HasRemote("origin") {
		if err := s.repo.AddRemote("origin", remote); err != nil {
			return err
		}
	}
	return nil
}

// Write places both artifacts at their deterministic date paths, creating
// year/month directories as needed. Re-running the same day overwrites in
// place. The pair is written as a unit: both files are fully staged to temp
// files before either rename, and if the text rename fails the archive
// rename is rolled back, so a failed write never leaves half a revision at
// the canonical paths.
func (s *HistoryStore) Write(snap *models.Snapshot) (WritePaths, error) {
	paths := WritePaths{
		Archive: models.ArchivePath(snap.CapturedAt),
		Text:    models.TextPath(snap.CapturedAt),
	}

	archiveTmp, err := s.stageTemp(paths.Archive, snap.ArchiveBytes)
	if err != nil {
		return paths, &StoreError{Op: "write", Err: err}
	}
	defer os.Remove(archiveTmp)

	textTmp, err := s.stageTemp(paths.Text, snap.TextBytes)
	if err != nil {
		return paths, &StoreError{Op: "write", Err: err}
	}
	defer os.Remove(textTmp)

	archiveAbs := filepath.Join(s.root, filepath.FromSlash(paths.Archive))
	prior, readErr := os.ReadFile(archiveAbs)
	hadPrior := readErr == nil

	if err := os.Rename(archiveTmp, archiveAbs); err != nil {
		return paths, &StoreError{Op: "write", Err: fmt.Errorf("failed to move %s into place: %w", paths.Archive, err)}
	}
	if err := os.Rename(textTmp, filepath.Join(s.root, filepath.FromSlash(paths.Text))); err != nil {
		s.rollbackArchive(paths.Archive, prior, hadPrior)
		return paths, &StoreError{Op: "write", Err: fmt.Errorf("failed to move %s into place: %w", paths.Text, err)}
	}

	s.log.Info("snapshot written",
		"archive", paths.Archive,
		"text", paths.Text)
	return paths, nil
}

// stageTemp writes data to a temp file in the artifact's date directory and
// returns the temp path. The caller renames it into place.
func (s *HistoryStore) stageTemp(rel string, data []byte) (string, error) {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".backup-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", rel, err)
	}
	return tmp.Name(), nil
}

// rollbackArchive undoes an archive rename after the paired text rename
// failed: a pre-existing same-date archive is put back, otherwise the new
// file is removed.
func (s *HistoryStore) rollbackArchive(rel string, prior []byte, hadPrior bool) {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if !hadPrior {
		if err := os.Remove(abs); err != nil {
			s.log.Error("failed to undo partial write", "path", rel, "error", err)
		}
		return
	}
	tmp, err := s.stageTemp(rel, prior)
	if err == nil {
		err = os.Rename(tmp, abs)
	}
	if err != nil {
		s.log.Error("failed to restore prior artifact", "path", rel, "error", err)
	}
}

// Commit stages exactly the files written for this run's date and records a
// commit with the supplied message. The commit is recorded even when the
// bytes match the already-committed state, so an unchanged day still leaves
// an auditable run marker.
func (s *HistoryStore) Commit(paths WritePaths, message string) (string, error) {
	if err := s.repo.Add(paths.All()...); err != nil {
		return "", &StoreError{Op: "commit", Err: err}
	}
	id, err := s.repo.Commit(message, true)
	if err != nil {
		return "", &StoreError{Op: "commit", Err: err}
	}
	s.log.Info("commit created", "commit", shortID(id), "message", message)
	return id, nil
}

// Push synchronizes local history to the named remote. Failure is non-fatal
// to the run: the local commit already exists.
func (s *HistoryStore) Push(ctx context.Context, remote string) error {
	if err := s.repo.Push(ctx, remote); err != nil {
		return &PushError{Remote: remote, Err: err}
	}
	s.log.Info("pushed to remote", "remote", remote)
	return nil
}

// PruneWorkingTree removes the given working-tree files and records the
// removal as a single labeled commit. The deletion stays visible in
// history; no commit is ever rewritten away.
func (s *HistoryStore) PruneWorkingTree(paths []string, message string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	if err := s.repo.Remove(paths...); err != nil {
		return "", err
	}
	id, err := s.repo.Commit(message, false)
	if err != nil {
		return "", err
	}
	s.log.Info("retention cleanup committed", "commit", shortID(id), "removed", len(paths))
	return id, nil
}

// LatestTextRevision returns the path and blob hash of the most recent
// committed text artifact at HEAD, or ErrNoHistory when none exists. The
// zero-padded date scheme makes lexicographic order chronological.
func (s *HistoryStore) LatestTextRevision() (string, string, error) {
	if !s.repo.IsRepo() {
		return "", "", ErrNoHistory
	}
	if _, err := s.repo.HeadCommit(); err != nil {
		return "", "", ErrNoHistory
	}

	tracked, err := s.repo.ListTracked()
	if err != nil {
		return "", "", err
	}

	var texts []string
	for _, p := range tracked {
		if models.IsBackupPath(p) && strings.HasSuffix(p, "."+models.ExtText) {
			texts = append(texts, p)
		}
	}
	if len(texts) == 0 {
		return "", "", ErrNoHistory
	}
	sort.Strings(texts)
	latest := texts[len(texts)-1]

	hash, err := s.repo.BlobHash(latest)
	if err != nil {
		return "", "", err
	}
	return latest, hash, nil
}

// WorkingTreeBackups enumerates all backup artifact paths currently present
// in the working tree, relative to the store root.
func (s *HistoryStore) WorkingTreeBackups() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if models.IsBackupPath(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
