package models

import (
	"fmt"
	"time"
)

// Status is the terminal classification of one orchestration run.
type Status string

const (
	StatusSuccessChanged   Status = "SUCCESS_CHANGED"
	StatusSuccessUnchanged Status = "SUCCESS_UNCHANGED"
	StatusFailed           Status = "FAILED"
)

// Stage identifies a step of the backup pipeline.
type Stage string

const (
	StageIdle       Stage = "IDLE"
	StageFetching   Stage = "FETCHING"
	StageValidating Stage = "VALIDATING"
	StageStoring    Stage = "STORING"
	StageDetecting  Stage = "DETECTING"
	StageCommitting Stage = "COMMITTING"
	StagePushing    Stage = "PUSHING"
	StagePruning    Stage = "PRUNING"
	StageReporting  Stage = "REPORTING"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// ChangeStatus classifies a run relative to the previous stored revision.
type ChangeStatus string

const (
	Changed   ChangeStatus = "CHANGED"
	Unchanged ChangeStatus = "UNCHANGED"
	NoPrior   ChangeStatus = "NO_PRIOR"
)

// RunOutcome is the result record of one orchestration invocation. It is
// handed to the reporting collaborator and then discarded, never persisted.
type RunOutcome struct {
	Status   Status
	Stage    Stage
	Duration time.Duration
	Detail   string
}

// CommitMessage returns the commit message for a backup of the given date.
func CommitMessage(date time.Time, status ChangeStatus) string {
	day := date.Format("2006-01-02")
	switch status {
	case NoPrior:
		return fmt.Sprintf("Backup %s - First backup", day)
	case Unchanged:
		return fmt.Sprintf("Backup %s - No changes", day)
	default:
		return fmt.Sprintf("Backup %s - Configuration changed", day)
	}
}

// CleanupMessage returns the commit message for a retention cleanup commit.
func CleanupMessage(windowDays int) string {
	return fmt.Sprintf("Retention cleanup: removed backups older than %d days", windowDays)
}
