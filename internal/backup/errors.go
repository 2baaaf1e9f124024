package backup

import (
	"errors"
	"fmt"
)

// ValidationKind names the structural check a snapshot failed.
type ValidationKind string

const (
	EmptyArtifact        ValidationKind = "EmptyArtifact"
	CorruptArchive       ValidationKind = "CorruptArchive"
	MissingConfigMarkers ValidationKind = "MissingConfigMarkers"
)

// ValidationError rejects a snapshot before anything is persisted.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Detail)
}

// StoreError wraps a failed write or commit against the history store.
// Either aborts the run.
type StoreError struct {
	Op  string // "write" or "commit"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PushError wraps a failed remote synchronization. The local commit already
// exists, so it degrades the run instead of failing it.
type PushError struct {
	Remote string
	Err    error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push to %s failed: %v", e.Remote, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// PruneError wraps a failed retention pass. Housekeeping only; never alters
// the run's terminal status.
type PruneError struct {
	Err error
}

func (e *PruneError) Error() string {
	return fmt.Sprintf("retention prune failed: %v", e.Err)
}

func (e *PruneError) Unwrap() error { return e.Err }

// ErrNoHistory is returned when the history store holds no committed
// backups to compare against.
var ErrNoHistory = errors.New("no committed backups in history")
