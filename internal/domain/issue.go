package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusPending    IssueStatus = "pending"
	IssueStatusCompleted  IssueStatus = "completed"
	IssueStatusVerified   IssueStatus = "verified"
	IssueStatusRejected   IssueStatus = "rejected"
	IssueStatusClosed     IssueStatus = "closed"
	IssueStatusEscalated  IssueStatus = "escalated"
)

// AllStatuses returns every status value, in lifecycle order.
func AllStatuses() []IssueStatus {
	return []IssueStatus{
		IssueStatusOpen,
		IssueStatusInProgress,
		IssueStatusPending,
		IssueStatusCompleted,
		IssueStatusVerified,
		IssueStatusRejected,
		IssueStatusClosed,
		IssueStatusEscalated,
	}
}

// IssuePriority enumerates SLA urgency.
type IssuePriority string

const (
	IssuePriorityLow      IssuePriority = "low"
	IssuePriorityMedium   IssuePriority = "medium"
	IssuePriorityHigh     IssuePriority = "high"
	IssuePriorityCritical IssuePriority = "critical"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p IssuePriority) bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return true
	}
	return false
}

// SLAStatus is derived from priority, creation time and the clock. It is
// recomputed on every read; the stored value is a display cache only.
type SLAStatus string

const (
	SLAOnTrack   SLAStatus = "on_track"
	SLAAtRisk    SLAStatus = "at_risk"
	SLABreached  SLAStatus = "breached"
	SLACompleted SLAStatus = "completed"
)

// Comment is an append-only entry in an issue's thread. AuthorName is a
// snapshot taken at write time so later profile edits do not rewrite history.
type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

// Issue is the aggregate tracked through the lifecycle.
type Issue struct {
	ID          string
	Title       string
	Description string
	Department  string
	Status      IssueStatus
	Priority    IssuePriority
	ReporterID  string
	AssigneeID  *string
	IsEscalated bool
	SLAStatus   SLAStatus
	DueBy       *time.Time
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the status ends the ordinary flow.
func (s IssueStatus) Terminal() bool {
	return s == IssueStatusVerified || s == IssueStatusClosed
}
