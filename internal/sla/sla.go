// Package sla derives due-by deadlines and SLA status. Everything here is
// pure; callers supply the clock.
package sla

import (
	"time"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// Response-time offsets added to an issue's creation time, by priority.
var offsets = map[domain.IssuePriority]time.Duration{
	domain.IssuePriorityCritical: 4 * time.Hour,
	domain.IssuePriorityHigh:     8 * time.Hour,
	domain.IssuePriorityMedium:   24 * time.Hour,
	domain.IssuePriorityLow:      48 * time.Hour,
}

// atRiskThreshold is the percentage of SLA budget remaining at which an
// issue flips from on_track to at_risk.
const atRiskThreshold = 25.0

// Offset returns the SLA window for a priority.
func Offset(priority domain.IssuePriority) (time.Duration, bool) {
	d, ok := offsets[priority]
	return d, ok
}

// DueBy computes the deadline for an issue created at createdAt with the
// given priority.
func DueBy(priority domain.IssuePriority, createdAt time.Time) (time.Time, bool) {
	offset, ok := offsets[priority]
	if !ok {
		return time.Time{}, false
	}
	return createdAt.Add(offset), true
}

// Evaluate computes the current SLA status of an issue. Verified and closed
// issues are always completed regardless of timing. The result is never
// trusted from stored state; every read path calls this.
func Evaluate(issue *domain.Issue, now time.Time) domain.SLAStatus {
	if issue.Status.Terminal() {
		return domain.SLACompleted
	}
	if issue.DueBy == nil {
		return domain.SLAOnTrack
	}
	if now.After(*issue.DueBy) {
		return domain.SLABreached
	}
	total := issue.DueBy.Sub(issue.CreatedAt)
	if total <= 0 {
		return domain.SLABreached
	}
	percentLeft := float64(issue.DueBy.Sub(now)) / float64(total) * 100
	if percentLeft <= atRiskThreshold {
		return domain.SLAAtRisk
	}
	return domain.SLAOnTrack
}
