package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// MemoryStores is the reference in-memory implementation of the store
// interfaces. It is used when no database is configured and in tests, and
// returns pgx.ErrNoRows as its not-found sentinel so callers handle both
// backends the same way.
type MemoryStores struct {
	users      *memoryUserRepository
	issues     *memoryIssueRepository
	activities *memoryActivityRepository
}

// NewMemoryStores builds an empty in-memory store set.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		users:      &memoryUserRepository{byID: map[string]domain.User{}},
		issues:     &memoryIssueRepository{byID: map[string]domain.Issue{}},
		activities: &memoryActivityRepository{},
	}
}

// Stores exposes the repositories behind the shared seam.
func (m *MemoryStores) Stores() Stores {
	return Stores{Users: m.users, Issues: m.issues, Activities: m.activities}
}

type memoryUserRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.User
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.byID {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryIssueRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Issue
}

func cloneIssue(issue domain.Issue) domain.Issue {
	out := issue
	if issue.DueBy != nil {
		dueBy := *issue.DueBy
		out.DueBy = &dueBy
	}
	if issue.AssigneeID != nil {
		assignee := *issue.AssigneeID
		out.AssigneeID = &assignee
	}
	out.Comments = append([]domain.Comment(nil), issue.Comments...)
	return out
}

func (r *memoryIssueRepository) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[issue.ID] = cloneIssue(*issue)
	return nil
}

func (r *memoryIssueRepository) Update(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[issue.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := cloneIssue(*issue)
	// Comments are owned by AppendComment; an Update never rewrites them.
	updated.Comments = stored.Comments
	r.byID[issue.ID] = updated
	return nil
}

func (r *memoryIssueRepository) AppendComment(_ context.Context, issueID string, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[issueID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Comments = append(stored.Comments, *comment)
	r.byID[issueID] = stored
	return nil
}

func (r *memoryIssueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneIssue(issue)
	return &out, nil
}

func (r *memoryIssueRepository) ListWithFilter(_ context.Context, filter IssueFilter) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Issue, 0)
	for _, issue := range r.byID {
		if filter.ReporterID != nil && issue.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.Department != nil && issue.Department != *filter.Department {
			continue
		}
		if filter.AssigneeID != nil {
			if issue.AssigneeID == nil || *issue.AssigneeID != *filter.AssigneeID {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, issue.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, issue.Priority) {
			continue
		}
		matched = append(matched, cloneIssue(issue))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Issue{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *memoryIssueRepository) ListAll(_ context.Context) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Issue, 0, len(r.byID))
	for _, issue := range r.byID {
		out = append(out, cloneIssue(issue))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func containsStatus(values []domain.IssueStatus, v domain.IssueStatus) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsPriority(values []domain.IssuePriority, v domain.IssuePriority) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

type memoryActivityRepository struct {
	mu      sync.RWMutex
	entries []domain.Activity
}

func (r *memoryActivityRepository) Create(_ context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *activity)
	return nil
}

func (r *memoryActivityRepository) ListByIssue(_ context.Context, issueID string) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Activity, 0)
	for _, entry := range r.entries {
		if entry.IssueID == issueID {
			out = append(out, entry)
		}
	}
	// Entries append in insertion order; the stable sort keeps that order
	// for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryActivityRepository) ListRecent(_ context.Context, limit int) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]domain.Activity, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
