package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spec-kit/segnala-service/internal/domain"
)

// completionMarker identifies the closing event by label substring. Renaming the Completato
// label breaks end detection.
const completionMarker = "completato"

// Labels shown while a request is still open.
const (
	InProgressLabel = "In corso"
	NotClosedLabel  = "Non conclusa"
)

// DurationReport is the handling time derived from a request's timeline.
type DurationReport struct {
	StartAt    time.Time     `json:"start_at"`
	EndAt      *time.Time    `json:"end_at,omitempty"`
	Elapsed    time.Duration `json:"-"`
	Minutes    int           `json:"minutes"`
	Label      string        `json:"label"`
	InProgress bool          `json:"in_progress"`
}

// ComputeDuration derives start, end and elapsed time. It does not modify events.
func ComputeDuration(req domain.Request, events []domain.TimelineEvent) DurationReport {
	report := DurationReport{StartAt: req.CreatedAt}

	var oldest, closing *domain.TimelineEvent
	for i := range events {
		ev := &events[i]
		if oldest == nil || ev.Before(*oldest) {
			oldest = ev
		}
		if req.Stato == domain.StatusCompletato &&
			strings.Contains(strings.ToLower(ev.Label), completionMarker) &&
			(closing == nil || closing.Before(*ev)) {
			closing = ev
		}
	}
	if oldest != nil {
		report.StartAt = oldest.CreatedAt
	}

	if closing == nil {
		report.InProgress = true
		report.Label = InProgressLabel
		return report
	}

	end := closing.CreatedAt
	report.EndAt = &end
	report.Elapsed = end.Sub(report.StartAt)
	report.Minutes = roundMinutes(report.Elapsed)
	report.Label = FormatDuration(report.Elapsed)
	return report
}

// FormatDuration renders "N min", "N h" or "N h M min" with minutes rounded;
// non-positive durations render "0 minuti".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0 minuti"
	}
	total := roundMinutes(d)
	hours, minutes := total/60, total%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d min", minutes)
	case minutes == 0:
		return fmt.Sprintf("%d h", hours)
	default:
		return fmt.Sprintf("%d h %d min", hours, minutes)
	}
}

func roundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Minutes() + 0.5))
}
