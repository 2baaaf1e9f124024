package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tlanger/edgebackup/internal/models"
)

// Fetcher retrieves one snapshot from the device.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

// Reporter consumes the terminal RunOutcome of a run.
type Reporter interface {
	Report(outcome models.RunOutcome)
}

// Options configures an Orchestrator.
type Options struct {
	AutoPush    bool
	PushRemote  string // remote name, default "origin"
	WindowDays  int
	PushTimeout time.Duration
	Reporter    Reporter
	Logger      *slog.Logger
	Now         func() time.Time
}

// Orchestrator sequences one backup run through its stages and owns every
// failure-path decision. A single invocation produces exactly one
// RunOutcome.
type Orchestrator struct {
	fetcher   Fetcher
	store     *HistoryStore
	detector  *Detector
	retention *RetentionManager
	reporter  Reporter
	log       *slog.Logger

	autoPush    bool
	pushRemote  string
	windowDays  int
	pushTimeout time.Duration
	now         func() time.Time

	stage models.Stage
}

// NewOrchestrator wires an orchestrator around the given collaborators.
func NewOrchestrator(fetcher Fetcher, store *HistoryStore, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PushRemote == "" {
		opts.PushRemote = "origin"
	}
	if opts.PushTimeout == 0 {
		opts.PushTimeout = 30 * time.Second
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	return &Orchestrator{
		fetcher:     fetcher,
		store:       store,
		detector:    NewDetector(store),
		retention:   NewRetentionManager(store, opts.Logger),
		reporter:    opts.Reporter,
		log:         opts.Logger,
		autoPush:    opts.AutoPush,
		pushRemote:  opts.PushRemote,
		windowDays:  opts.WindowDays,
		pushTimeout: opts.PushTimeout,
		now:         opts.Now,
	}
}

// Stage returns the orchestrator's current stage.
func (o *Orchestrator) Stage() models.Stage { return o.stage }

// validTransition enumerates the allowed stage graph. Push failure routes
// forward to PRUNING rather than FAILED because the local commit already
// exists.
func validTransition(from, to models.Stage) bool {
	if to == models.StageFailed {
		switch from {
		case models.StageFetching, models.StageValidating, models.StageStoring,
			models.StageDetecting, models.StageCommitting, models.StagePushing:
			return true
		}
		return false
	}
	switch from {
	case models.StageIdle:
		return to == models.StageFetching
	case models.StageFetching:
		return to == models.StageValidating
	case models.StageValidating:
		return to == models.StageStoring || to == models.StageDetecting
	case models.StageStoring:
		return to == models.StageDetecting
	case models.StageDetecting:
		return to == models.StageCommitting || to == models.StageReporting
	case models.StageCommitting:
		return to == models.StagePushing
	case models.StagePushing:
		return to == models.StagePruning
	case models.StagePruning:
		return to == models.StageReporting
	case models.StageReporting:
		return to == models.StageDone
	}
	return false
}

func (o *Orchestrator) to(stage models.Stage) {
	if !validTransition(o.stage, stage) {
		o.log.Error("invalid stage transition", "from", o.stage, "to", stage)
	}
	o.stage = stage
	o.log.Debug("stage", "stage", stage)
}

// Run executes the full pipeline: fetch, validate, store, detect, commit,
// push, prune, report. It never leaves a partial write observable and never
// overwrites a good stored revision with data from a failed retrieval.
func (o *Orchestrator) Run(ctx context.Context) models.RunOutcome {
	start := o.now()
	o.stage = models.StageIdle

	o.to(models.StageFetching)
	snap, err := o.fetcher.Fetch(ctx)
	if err != nil {
		return o.fail(start, err)
	}

	o.to(models.StageValidating)
	res, err := Validate(snap)
	if err != nil {
		return o.fail(start, err)
	}
	o.log.Info("snapshot validated",
		"archive_bytes", res.ArchiveBytes,
		"text_bytes", res.TextBytes)

	o.to(models.StageStoring)
	paths, err := o.store.Write(snap)
	if err != nil {
		return o.fail(start, err)
	}

	o.to(models.StageDetecting)
	change, err := o.detector.Detect(snap.TextBytes)
	if err != nil {
		// Advisory only: when the baseline cannot be read, assume changed.
		o.log.Warn("change detection failed, assuming changed", "error", err)
		change = models.Changed
	}
	o.log.Info("change detection", "status", change)

	o.to(models.StageCommitting)
	commitID, err := o.store.Commit(paths, models.CommitMessage(snap.CapturedAt, change))
	if err != nil {
		o.log.Error("commit failed, files left on disk uncommitted for manual recovery",
			"archive", paths.Archive,
			"text", paths.Text)
		return o.fail(start, err)
	}

	detail := fmt.Sprintf("committed %s (%s)", shortID(commitID), change)

	o.to(models.StagePushing)
	if o.autoPush {
		pushCtx, cancel := context.WithTimeout(ctx, o.pushTimeout)
		err := o.store.Push(pushCtx, o.pushRemote)
		cancel()
		if err != nil {
			// Degraded success: local durability never depends on the remote.
			o.log.Warn("push failed, backup saved locally", "error", err)
			detail += "; push failed: " + err.Error()
		}
	}

	o.to(models.StagePruning)
	if _, err := o.retention.Prune(o.now(), o.windowDays); err != nil {
		o.log.Warn("retention prune failed", "error", err)
	}

	o.to(models.StageReporting)
	outcome := models.RunOutcome{
		Status:   successStatus(change),
		Stage:    models.StageDone,
		Duration: o.now().Sub(start),
		Detail:   detail,
	}
	o.reporter.Report(outcome)
	o.to(models.StageDone)
	return outcome
}

// DryRun executes fetch and validate only, then re-runs detection against
// the existing history without writing anything. No state is mutated.
func (o *Orchestrator) DryRun(ctx context.Context) models.RunOutcome {
	start := o.now()
	o.stage = models.StageIdle

	o.to(models.StageFetching)
	snap, err := o.fetcher.Fetch(ctx)
	if err != nil {
		return o.fail(start, err)
	}

	o.to(models.StageValidating)
	res, err := Validate(snap)
	if err != nil {
		return o.fail(start, err)
	}
	o.log.Info("snapshot validated",
		"archive_bytes", res.ArchiveBytes,
		"text_bytes", res.TextBytes)

	o.to(models.StageDetecting)
	change, err := o.detector.Detect(snap.TextBytes)
	if err != nil {
		o.log.Warn("change detection failed, assuming changed", "error", err)
		change = models.Changed
	}

	o.to(models.StageReporting)
	outcome := models.RunOutcome{
		Status:   successStatus(change),
		Stage:    models.StageDone,
		Duration: o.now().Sub(start),
		Detail:   fmt.Sprintf("dry run: would record %s, nothing written", change),
	}
	o.reporter.Report(outcome)
	o.to(models.StageDone)
	return outcome
}

func (o *Orchestrator) fail(start time.Time, err error) models.RunOutcome {
	failedAt := o.stage
	o.log.Error("run failed", "stage", failedAt, "error", err)
	o.to(models.StageFailed)
	outcome := models.RunOutcome{
		Status:   models.StatusFailed,
		Stage:    failedAt,
		Duration: o.now().Sub(start),
		Detail:   err.Error(),
	}
	o.reporter.Report(outcome)
	return outcome
}

// successStatus maps a change classification to a run status. NO_PRIOR is
// messaged like CHANGED but stays visible in the commit message and detail.
func successStatus(change models.ChangeStatus) models.Status {
	if change == models.Unchanged {
		return models.StatusSuccessUnchanged
	}
	return models.StatusSuccessChanged
}

type nopReporter struct{}

func (nopReporter) Report(models.RunOutcome) {}
