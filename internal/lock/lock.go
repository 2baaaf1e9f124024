package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the repository being guarded.
const LockFileName = ".edgebackup.lock"

// Acquire takes an advisory file lock on the repository path so two
// invocations cannot mutate the same working tree at once. The returned
// release function must be called when the run finishes.
func Acquire(repoPath string) (func(), error) {
	fl := flock.New(filepath.Join(repoPath, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire repository lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("repository %s is locked by another invocation", repoPath)
	}
	return func() {
		_ = fl.Unlock()
	}, nil
}
