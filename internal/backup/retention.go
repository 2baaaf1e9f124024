package backup

import (
	"log/slog"
	"time"

	"github.com/tlanger/edgebackup/internal/models"
)

// PruneReport summarizes one retention pass.
type PruneReport struct {
	Removed  []string
	CommitID string
}

// RetentionManager removes working-tree files that fall outside the
// retention window. Commits are never deleted: every pruned revision stays
// recoverable from history.
type RetentionManager struct {
	store *HistoryStore
	log   *slog.Logger
}

// NewRetentionManager returns a manager pruning the given store.
func NewRetentionManager(store *HistoryStore, logger *slog.Logger) *RetentionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionManager{store: store, log: logger}
}

// Prune removes every working-tree backup whose encoded capture date is
// strictly older than now minus windowDays, batched into a single cleanup
// commit. With nothing eligible it is a no-op: no commit, no error.
func (m *RetentionManager) Prune(now time.Time, windowDays int) (PruneReport, error) {
	cutoff := now.AddDate(0, 0, -windowDays)

	candidates, err := m.store.WorkingTreeBackups()
	if err != nil {
		return PruneReport{}, &PruneError{Err: err}
	}

	var eligible []string
	for _, p := range candidates {
		date, err := models.ParseBackupDate(p)
		if err != nil {
			m.log.Warn("skipping unparseable backup path", "path", p, "error", err)
			continue
		}
		if date.Before(cutoff) {
			eligible = append(eligible, p)
		}
	}

	if len(eligible) == 0 {
		m.log.Debug("retention pass found nothing to prune", "window_days", windowDays)
		return PruneReport{}, nil
	}

	id, err := m.store.PruneWorkingTree(eligible, models.CleanupMessage(windowDays))
	if err != nil {
		return PruneReport{}, &PruneError{Err: err}
	}

	m.log.Info("retention applied",
		"window_days", windowDays,
		"removed", len(eligible))
	return PruneReport{Removed: eligible, CommitID: id}, nil
}
