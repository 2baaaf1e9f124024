package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repo is a handle to a git repository rooted at Dir. All operations shell
// out to the git binary so diffing, hashing and history stay delegated to
// the underlying version control.
type Repo struct {
	Dir string
}

// Open returns a handle for the repository at dir. It does not verify that
// a repository exists; use IsRepo for that.
func Open(dir string) *Repo {
	return &Repo{Dir: dir}
}

func (r *Repo) command(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	return cmd
}

// IsRepo checks whether Dir is inside a git repository.
func (r *Repo) IsRepo() bool {
	return r.command("rev-parse", "--git-dir").Run() == nil
}

// Init initializes a new repository at Dir.
func (r *Repo) Init() error {
	output, err := r.command("init").CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to init repository: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// HasRemote checks whether the named remote is configured.
func (r *Repo) HasRemote(name string) bool {
	return r.command("remote", "get-url", name).Run() == nil
}

// AddRemote configures a remote.
func (r *Repo) AddRemote(name, url string) error {
	output, err := r.command("remote", "add", name, url).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %s: %w", name, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Add stages the given paths.
func (r *Repo) Add(paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	output, err := r.command(args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to add files: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Commit records a commit with the given message and returns its id.
// With allowEmpty, a commit is recorded even when the staged tree is
// identical to HEAD.
func (r *Repo) Commit(message string, allowEmpty bool) (string, error) {
	args := []string{"commit", "-m", message}
	if allowEmpty {
		args = append(args, "--allow-empty")
	}
	output, err := r.command(args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to commit: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return r.HeadCommit()
}

// Push pushes HEAD to the named remote. The context bounds the operation;
// network stalls beyond its deadline abort the push.
func (r *Repo) Push(ctx context.Context, remote string) error {
	cmd := exec.CommandContext(ctx, "git", "push", "--set-upstream", remote, "HEAD")
	cmd.Dir = r.Dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to push to %s: %s: %w", remote, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Remove removes the given paths from the working tree and the index.
func (r *Repo) Remove(paths ...string) error {
	args := append([]string{"rm", "-q", "--"}, paths...)
	output, err := r.command(args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to remove files: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// HeadCommit returns the commit hash at HEAD.
func (r *Repo) HeadCommit() (string, error) {
	output, err := r.command("rev-parse", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HeadMessage returns the subject line of the commit at HEAD.
func (r *Repo) HeadMessage() (string, error) {
	output, err := r.command("log", "-1", "--format=%s").Output()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD message: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HeadDate returns the committer date of the commit at HEAD.
func (r *Repo) HeadDate() (string, error) {
	output, err := r.command("log", "-1", "--format=%ci").Output()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD date: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CommitCount returns the number of commits reachable from HEAD.
func (r *Repo) CommitCount() (int, error) {
	output, err := r.command("rev-list", "--count", "HEAD").Output()
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%d", &n); err != nil {
		return 0, fmt.Errorf("failed to parse commit count: %w", err)
	}
	return n, nil
}

// ListTracked returns all file paths tracked at HEAD.
func (r *Repo) ListTracked() ([]string, error) {
	output, err := r.command("ls-tree", "-r", "--name-only", "HEAD").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// BlobHash returns the blob hash of path at HEAD.
func (r *Repo) BlobHash(path string) (string, error) {
	output, err := r.command("rev-parse", "HEAD:"+path).Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve blob for %s: %w", path, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HashObject computes the git blob hash of data without writing it to the
// object store.
func (r *Repo) HashObject(data []byte) (string, error) {
	cmd := r.command("hash-object", "--stdin")
	cmd.Stdin = bytes.NewReader(data)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to hash object: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Show returns the content of path at the given revision.
func (r *Repo) Show(rev, path string) (string, error) {
	output, err := r.command("show", rev+":"+path).Output()
	if err != nil {
		return "", fmt.Errorf("failed to show %s at %s: %w", path, rev, err)
	}
	return string(output), nil
}
