package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Artifact extensions as they appear in working-tree filenames.
const (
	ExtArchive = "tar.gz"
	ExtText    = "cfg"
)

// Snapshot holds the paired artifacts of one retrieval from the device.
// It is owned by the current run until persisted into the history store.
type Snapshot struct {
	ArchiveBytes []byte
	TextBytes    []byte
	CapturedAt   time.Time
}

// ArchivePath generates the working-tree path for the archive artifact.
// Format: YYYY/MM/backup-YYYY-MM-DD.tar.gz
func ArchivePath(date time.Time) string {
	return backupPath(date, ExtArchive)
}

// TextPath generates the working-tree path for the text artifact.
// Format: YYYY/MM/backup-YYYY-MM-DD.cfg
func TextPath(date time.Time) string {
	return backupPath(date, ExtText)
}

func backupPath(date time.Time, ext string) string {
	return fmt.Sprintf("%s/backup-%s.%s",
		date.Format("2006/01"),
		date.Format("2006-01-02"),
		ext,
	)
}

// ParseBackupDate extracts the capture date encoded in a backup file path.
func ParseBackupDate(p string) (time.Time, error) {
	name := path.Base(p)
	if !strings.HasPrefix(name, "backup-") {
		return time.Time{}, fmt.Errorf("not a backup path: %s", p)
	}
	rest := strings.TrimPrefix(name, "backup-")
	if len(rest) < len("2006-01-02") {
		return time.Time{}, fmt.Errorf("not a backup path: %s", p)
	}
	date, err := time.Parse("2006-01-02", rest[:len("2006-01-02")])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date in backup path %s: %w", p, err)
	}
	return date, nil
}

// IsBackupPath reports whether a working-tree path follows the backup
// naming scheme for either artifact kind.
func IsBackupPath(p string) bool {
	if _, err := ParseBackupDate(p); err != nil {
		return false
	}
	return strings.HasSuffix(p, "."+ExtArchive) || strings.HasSuffix(p, "."+ExtText)
}
