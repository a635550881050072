package events

import (
	"time"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated      EventType = "issue_created"
	EventStatusChanged     EventType = "issue_status_changed"
	EventIssueAssigned     EventType = "issue_assigned"
	EventIssueEscalated    EventType = "issue_escalated"
	EventCommentAdded      EventType = "issue_comment_added"
	EventDepartmentChanged EventType = "issue_department_changed"
)

// Event represents a domain event emitted by the lifecycle engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Department string               `json:"department"`
	Priority   domain.IssuePriority `json:"priority"`
	Title      string               `json:"title"`
	DueBy      *time.Time           `json:"due_by,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	FromStatus domain.IssueStatus `json:"from_status"`
	ToStatus   domain.IssueStatus `json:"to_status"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Reason string `json:"reason"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// DepartmentChangedPayload payload.
type DepartmentChangedPayload struct {
	FromDepartment string `json:"from_department"`
	ToDepartment   string `json:"to_department"`
}
