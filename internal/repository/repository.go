package repository

import (
	"context"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// IssueFilter captures listing parameters for the engine's read path.
type IssueFilter struct {
	ReporterID *string
	Department *string
	AssigneeID *string
	Statuses   []domain.IssueStatus
	Priorities []domain.IssuePriority
	Limit      int
	Offset     int
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// IssueRepository encapsulates issue persistence. AppendComment is separate
// from Update so the comment sequence stays append-only at the storage
// boundary.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	AppendComment(ctx context.Context, issueID string, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListAll(ctx context.Context) ([]domain.Issue, error)
}

// ActivityRepository is the append-only audit log. Entries are never edited
// or deleted; ordering is per issue by creation time, insertion order on ties.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.Activity, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Activity, error)
}

// Stores bundles the three repositories behind one seam so a durable store
// can replace the in-memory one without touching the engine.
type Stores struct {
	Users      UserRepository
	Issues     IssueRepository
	Activities ActivityRepository
}
