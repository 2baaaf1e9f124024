package backup

import (
	"errors"

	"github.com/tlanger/edgebackup/internal/models"
)

// Detector classifies a freshly retrieved snapshot against the tip of
// history. It is purely advisory: it shapes the commit message and the
// notification text but never gates persistence.
type Detector struct {
	store *HistoryStore
}

// NewDetector returns a detector reading baselines from store.
func NewDetector(store *HistoryStore) *Detector {
	return &Detector{store: store}
}

// Detect compares the new text artifact against the most recent committed
// text artifact. Equality is delegated to git blob hashing rather than a
// custom diff. NoPrior is returned on a first-ever run.
func (d *Detector) Detect(textBytes []byte) (models.ChangeStatus, error) {
	_, prevHash, err := d.store.LatestTextRevision()
	if errors.Is(err, ErrNoHistory) {
		return models.NoPrior, nil
	}
	if err != nil {
		return models.Changed, err
	}

	newHash, err := d.store.Repo().HashObject(textBytes)
	if err != nil {
		return models.Changed, err
	}

	if newHash == prevHash {
		return models.Unchanged, nil
	}
	return models.Changed, nil
}
