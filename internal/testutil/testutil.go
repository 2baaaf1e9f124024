package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tlanger/edgebackup/internal/models"
)

// TempStore is a temporary git-backed backup repository for tests. It
// starts with no commits so first-run behavior is observable.
type TempStore struct {
	Path string
	T    *testing.T
}

// NewTempStore creates an initialized but empty repository.
func NewTempStore(t *testing.T) *TempStore {
	t.Helper()

	dir := t.TempDir()
	s := &TempStore{Path: dir, T: t}

	s.Git("init")
	s.Git("config", "user.name", "Test User")
	s.Git("config", "user.email", "test@example.com")

	return s
}

// Git runs a git command in the store and returns its trimmed output.
func (s *TempStore) Git(args ...string) string {
	s.T.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = s.Path
	output, err := cmd.CombinedOutput()
	if err != nil {
		s.T.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
	return strings.TrimSpace(string(output))
}

// WriteBackup places both artifacts for a capture date in the working
// tree without committing them.
func (s *TempStore) WriteBackup(date time.Time, text string) {
	s.T.Helper()
	s.WriteFile(models.ArchivePath(date), string(MakeArchive(s.T, map[string]string{"config/config.boot": text})))
	s.WriteFile(models.TextPath(date), text)
}

// WriteFile creates a file at a path relative to the store root.
func (s *TempStore) WriteFile(rel, content string) {
	s.T.Helper()
	abs := filepath.Join(s.Path, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		s.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		s.T.Fatalf("failed to write %s: %v", rel, err)
	}
}

// CommitAll stages everything and commits.
func (s *TempStore) CommitAll(message string) {
	s.T.Helper()
	s.Git("add", "-A")
	s.Git("commit", "-m", message)
}

// CommitCount returns the number of commits reachable from HEAD, zero for
// an unborn branch.
func (s *TempStore) CommitCount() int {
	s.T.Helper()

	cmd := exec.Command("git", "rev-list", "--count", "HEAD")
	cmd.Dir = s.Path
	output, err := cmd.Output()
	if err != nil {
		return 0
	}
	n := 0
	for _, c := range strings.TrimSpace(string(output)) {
		n = n*10 + int(c-'0')
	}
	return n
}

// HeadMessage returns the subject of the commit at HEAD.
func (s *TempStore) HeadMessage() string {
	s.T.Helper()
	return s.Git("log", "-1", "--format=%s")
}

// FileExists reports whether a working-tree file exists.
func (s *TempStore) FileExists(rel string) bool {
	s.T.Helper()
	_, err := os.Stat(filepath.Join(s.Path, filepath.FromSlash(rel)))
	return err == nil
}

// TrackedAt reports whether a path exists in the tree of the given
// revision.
func (s *TempStore) TrackedAt(rev, rel string) bool {
	s.T.Helper()
	cmd := exec.Command("git", "cat-file", "-e", rev+":"+rel)
	cmd.Dir = s.Path
	return cmd.Run() == nil
}

// ReadFile returns the content of a working-tree file.
func (s *TempStore) ReadFile(rel string) string {
	s.T.Helper()
	data, err := os.ReadFile(filepath.Join(s.Path, filepath.FromSlash(rel)))
	if err != nil {
		s.T.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

// NewBareRemote creates a bare repository usable as a push target.
func NewBareRemote(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	cmd := exec.Command("git", "init", "--bare")
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to init bare repo: %v\n%s", err, output)
	}
	return dir
}

// MakeArchive builds a valid gzip'd tar from the given file map.
func MakeArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write tar entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}
