package dto

import (
	"time"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Department  string               `json:"department"`
	Priority    domain.IssuePriority `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// ReassignDepartmentRequest payload.
type ReassignDepartmentRequest struct {
	Department string `json:"department"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse represents one comment in a thread.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// IssueSummary is the list-view shape.
type IssueSummary struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Department  string               `json:"department"`
	Status      domain.IssueStatus   `json:"status"`
	Priority    domain.IssuePriority `json:"priority"`
	AssigneeID  *string              `json:"assignee_id"`
	IsEscalated bool                 `json:"is_escalated"`
	SLAStatus   domain.SLAStatus     `json:"sla_status"`
	DueBy       *time.Time           `json:"due_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// IssueDetailResponse provides full issue info.
type IssueDetailResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Department  string               `json:"department"`
	Status      domain.IssueStatus   `json:"status"`
	Priority    domain.IssuePriority `json:"priority"`
	ReporterID  string               `json:"reporter_id"`
	AssigneeID  *string              `json:"assignee_id"`
	IsEscalated bool                 `json:"is_escalated"`
	SLAStatus   domain.SLAStatus     `json:"sla_status"`
	DueBy       *time.Time           `json:"due_by"`
	Comments    []CommentResponse    `json:"comments"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ActivityResponse represents one audit log entry.
type ActivityResponse struct {
	ID        string              `json:"id"`
	IssueID   string              `json:"issue_id"`
	ActorID   string              `json:"actor_id"`
	Kind      domain.ActivityKind `json:"kind"`
	Detail    map[string]any      `json:"detail,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// NewIssueSummary maps a domain issue to the list shape.
func NewIssueSummary(issue *domain.Issue) IssueSummary {
	return IssueSummary{
		ID:          issue.ID,
		Title:       issue.Title,
		Department:  issue.Department,
		Status:      issue.Status,
		Priority:    issue.Priority,
		AssigneeID:  issue.AssigneeID,
		IsEscalated: issue.IsEscalated,
		SLAStatus:   issue.SLAStatus,
		DueBy:       issue.DueBy,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}

// NewIssueDetail maps a domain issue with its comment thread.
func NewIssueDetail(issue *domain.Issue) IssueDetailResponse {
	comments := make([]CommentResponse, 0, len(issue.Comments))
	for _, c := range issue.Comments {
		comments = append(comments, CommentResponse{
			ID:         c.ID,
			AuthorID:   c.AuthorID,
			AuthorName: c.AuthorName,
			Body:       c.Body,
			CreatedAt:  c.CreatedAt,
		})
	}
	return IssueDetailResponse{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Department:  issue.Department,
		Status:      issue.Status,
		Priority:    issue.Priority,
		ReporterID:  issue.ReporterID,
		AssigneeID:  issue.AssigneeID,
		IsEscalated: issue.IsEscalated,
		SLAStatus:   issue.SLAStatus,
		DueBy:       issue.DueBy,
		Comments:    comments,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}

// NewActivityResponse maps an activity entry.
func NewActivityResponse(a *domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		IssueID:   a.IssueID,
		ActorID:   a.ActorID,
		Kind:      a.Kind,
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt,
	}
}
