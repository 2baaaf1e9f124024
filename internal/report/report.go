package report

import (
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/tlanger/edgebackup/internal/models"
)

// Options controls which outcomes raise a desktop notification.
type Options struct {
	OnSuccess   bool
	OnFailure   bool
	OnChanges   bool
	MacOSNative bool
}

// Notifier logs every RunOutcome and optionally raises a native macOS
// notification. Notification failures are logged and otherwise ignored;
// they never affect the run.
type Notifier struct {
	opts Options
	log  *slog.Logger
}

// NewNotifier returns a reporter with the given notification policy.
func NewNotifier(opts Options, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{opts: opts, log: logger}
}

// Report consumes the terminal outcome of one run.
func (n *Notifier) Report(outcome models.RunOutcome) {
	if outcome.Status == models.StatusFailed {
		n.log.Error("backup failed",
			"stage", outcome.Stage,
			"duration", outcome.Duration.Round(100*time.Millisecond),
			"detail", outcome.Detail)
		if n.opts.OnFailure {
			n.notify("Backup Failed", outcome.Detail)
		}
		return
	}

	n.log.Info("backup completed",
		"status", outcome.Status,
		"duration", outcome.Duration.Round(100*time.Millisecond),
		"detail", outcome.Detail)

	if !n.opts.OnSuccess {
		return
	}
	msg := "EdgeRouter backup completed"
	if n.opts.OnChanges {
		if outcome.Status == models.StatusSuccessChanged {
			msg += " - Configuration changed"
		} else {
			msg += " - No changes"
		}
	}
	n.notify("Backup Successful", msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.opts.MacOSNative {
		return
	}
	script := fmt.Sprintf("display notification %q with title %q", message, title)
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		n.log.Warn("failed to send notification", "error", err)
		return
	}
	n.log.Info("notification sent", "title", title)
}
