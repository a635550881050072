// Package engine implements the issue lifecycle: status transitions,
// escalation, department reassignment, comments and the activity log, with
// SLA status recomputed against the injected clock on every path that reads
// or mutates an issue.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mdfarid01/RapidTrack/internal/cache"
	"github.com/mdfarid01/RapidTrack/internal/clock"
	"github.com/mdfarid01/RapidTrack/internal/domain"
	"github.com/mdfarid01/RapidTrack/internal/events"
	"github.com/mdfarid01/RapidTrack/internal/policy"
	"github.com/mdfarid01/RapidTrack/internal/repository"
	"github.com/mdfarid01/RapidTrack/internal/sla"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

const maxCommentLength = 500

// Engine coordinates all issue mutations. It is the single writer for any
// given issue: concurrent operations on the same issue id serialize on a
// per-issue lock so load-modify-store sequences cannot lose updates.
type Engine struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	activities repository.ActivityRepository
	clock      clock.Clock
	dispatcher events.Dispatcher
	slaCache   cache.SLACache

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Dependencies bundles what the engine needs.
type Dependencies struct {
	Stores     repository.Stores
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	SLACache   cache.SLACache
}

// New constructs the engine. Clock defaults to the system clock; dispatcher
// and SLA cache are optional.
func New(deps Dependencies) *Engine {
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Engine{
		issues:     deps.Stores.Issues,
		users:      deps.Stores.Users,
		activities: deps.Stores.Activities,
		clock:      clk,
		dispatcher: deps.Dispatcher,
		slaCache:   deps.SLACache,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Status edges allowed regardless of actor. Escalated, verified, rejected
// and closed have no outgoing work edges; closing is admin-side and
// escalation is its own operation.
var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusOpen:       {domain.IssueStatusInProgress},
	domain.IssueStatusInProgress: {domain.IssueStatusPending, domain.IssueStatusCompleted},
	domain.IssueStatusPending:    {domain.IssueStatusInProgress, domain.IssueStatusCompleted},
	domain.IssueStatusCompleted:  {domain.IssueStatusVerified, domain.IssueStatusRejected},
	domain.IssueStatusVerified:   {domain.IssueStatusClosed},
	domain.IssueStatusRejected:   {domain.IssueStatusClosed},
}

func isValidTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CreateIssueInput describes issue creation payload. The reporter is always
// the acting user, never client input.
type CreateIssueInput struct {
	Title       string
	Description string
	Department  string
	Priority    domain.IssuePriority
}

// ListFilter narrows ListIssuesForActor results inside the actor's scope.
type ListFilter struct {
	Statuses   []domain.IssueStatus
	Priorities []domain.IssuePriority
	Limit      int
	Offset     int
}

// CreateIssue validates input, derives the SLA deadline from priority and
// stores the new issue with a created activity.
func (e *Engine) CreateIssue(ctx context.Context, actor domain.Actor, input CreateIssueInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if !domain.ValidDepartment(input.Department) {
		return nil, apperrors.NewValidationError("invalid department", map[string]any{"department": input.Department})
	}

	now := e.clock.Now()
	dueBy, _ := sla.DueBy(input.Priority, now)

	issue := &domain.Issue{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Department:  input.Department,
		Status:      domain.IssueStatusOpen,
		Priority:    input.Priority,
		ReporterID:  actor.ID,
		IsEscalated: false,
		SLAStatus:   domain.SLAOnTrack,
		DueBy:       &dueBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.appendActivity(ctx, actor.ID, issue.ID, domain.ActivityCreated, map[string]any{
		"title":      issue.Title,
		"department": issue.Department,
		"priority":   issue.Priority,
	}); err != nil {
		return nil, err
	}
	e.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.IssueCreatedPayload{
			Department: issue.Department,
			Priority:   issue.Priority,
			Title:      issue.Title,
			DueBy:      issue.DueBy,
		},
	})
	return issue, nil
}

// GetIssue fetches an issue within the actor's read scope, with SLA status
// freshly computed.
func (e *Engine) GetIssue(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if decision := policy.CanRead(actor, issue); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	e.refreshSLA(ctx, issue)
	return issue, nil
}

// ListIssuesForActor returns the issues the actor may see: their own reports
// for employees, the department queue for staff, everything for admins.
func (e *Engine) ListIssuesForActor(ctx context.Context, actor domain.Actor, filter ListFilter) ([]domain.Issue, error) {
	repoFilter := repository.IssueFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	switch actor.Role {
	case domain.RoleEmployee:
		reporterID := actor.ID
		repoFilter.ReporterID = &reporterID
	case domain.RoleDepartmentStaff:
		department := actor.Department
		repoFilter.Department = &department
	case domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}

	issues, err := e.issues.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range issues {
		e.refreshSLA(ctx, &issues[i])
	}
	return issues, nil
}

// UpdateStatus moves an issue along the transition graph on behalf of the
// actor.
func (e *Engine) UpdateStatus(ctx context.Context, actor domain.Actor, issueID string, target domain.IssueStatus) (*domain.Issue, error) {
	unlock := e.lockIssue(issueID)
	defer unlock()

	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if decision := policy.CanRead(actor, issue); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	e.refreshSLA(ctx, issue)
	if !isValidTransition(issue.Status, target) {
		return nil, apperrors.NewInvalidTransition("status transition not allowed", map[string]any{
			"from_status": issue.Status,
			"to_status":   target,
		})
	}
	if decision := policy.CanTransition(actor, issue, target); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	fromStatus := issue.Status
	issue.Status = target
	issue.SLAStatus = sla.Evaluate(issue, e.clock.Now())
	issue.UpdatedAt = e.clock.Now()
	if err := e.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.appendActivity(ctx, actor.ID, issue.ID, domain.ActivityUpdatedStatus, map[string]any{
		"from_status": fromStatus,
		"to_status":   target,
	}); err != nil {
		return nil, err
	}
	e.publishEvent(ctx, events.Event{
		Type:    events.EventStatusChanged,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.StatusChangedPayload{FromStatus: fromStatus, ToStatus: target},
	})
	return issue, nil
}

// Assign sets the issue's assignee to a department-staff user. An open issue
// auto-advances to in_progress when it gets an assignee.
func (e *Engine) Assign(ctx context.Context, actor domain.Actor, issueID, assigneeID string) (*domain.Issue, error) {
	unlock := e.lockIssue(issueID)
	defer unlock()

	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if decision := policy.CanAssign(actor, issue); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	assignee, err := e.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleDepartmentStaff {
		return nil, apperrors.NewValidationError("assignee must be department staff", map[string]any{"user_id": assigneeID})
	}
	if assignee.Department != issue.Department {
		return nil, apperrors.NewForbidden("assignee outside issue department")
	}

	issue.AssigneeID = &assignee.ID
	if issue.Status == domain.IssueStatusOpen {
		issue.Status = domain.IssueStatusInProgress
	}
	issue.SLAStatus = sla.Evaluate(issue, e.clock.Now())
	issue.UpdatedAt = e.clock.Now()
	if err := e.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.appendActivity(ctx, actor.ID, issue.ID, domain.ActivityAssigned, map[string]any{
		"assignee_id": assignee.ID,
	}); err != nil {
		return nil, err
	}
	e.publishEvent(ctx, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.IssueAssignedPayload{AssigneeID: assignee.ID},
	})
	return issue, nil
}

// Escalate flags the issue for elevated attention. The flag is one-way; the
// status overlay freezes ordinary transitions until an admin intervenes.
func (e *Engine) Escalate(ctx context.Context, actor domain.Actor, issueID, reason string) (*domain.Issue, error) {
	unlock := e.lockIssue(issueID)
	defer unlock()

	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if decision := policy.CanRead(actor, issue); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	if issue.IsEscalated {
		return nil, apperrors.NewAlreadyEscalated(issue.ID)
	}
	if issue.Status.Terminal() {
		return nil, apperrors.NewInvalidTransition("terminal issues cannot be escalated", map[string]any{
			"status": issue.Status,
		})
	}
	now := e.clock.Now()
	if decision := policy.CanEscalate(actor, issue, now); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	issue.IsEscalated = true
	issue.Status = domain.IssueStatusEscalated
	issue.SLAStatus = sla.Evaluate(issue, now)
	issue.UpdatedAt = now
	if err := e.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.appendActivity(ctx, actor.ID, issue.ID, domain.ActivityEscalated, map[string]any{
		"reason": strings.TrimSpace(reason),
	}); err != nil {
		return nil, err
	}
	e.publishEvent(ctx, events.Event{
		Type:    events.EventIssueEscalated,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.IssueEscalatedPayload{Reason: strings.TrimSpace(reason)},
	})
	return issue, nil
}

// ReassignDepartment transfers ownership of the issue to another department.
// Status and the escalated flag are untouched.
func (e *Engine) ReassignDepartment(ctx context.Context, actor domain.Actor, issueID, newDepartment string) (*domain.Issue, error) {
	unlock := e.lockIssue(issueID)
	defer unlock()

	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if decision := policy.CanReassignDepartment(actor); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	if !domain.ValidDepartment(newDepartment) {
		return nil, apperrors.NewValidationError("invalid department", map[string]any{"department": newDepartment})
	}
	if issue.Department == newDepartment {
		return nil, apperrors.NewNoOpChange("issue already belongs to " + newDepartment)
	}

	fromDepartment := issue.Department
	issue.Department = newDepartment
	issue.SLAStatus = sla.Evaluate(issue, e.clock.Now())
	issue.UpdatedAt = e.clock.Now()
	if err := e.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.appendActivity(ctx, actor.ID, issue.ID, domain.ActivityDepartmentChanged, map[string]any{
		"from_department": fromDepartment,
		"to_department":   newDepartment,
	}); err != nil {
		return nil, err
	}
	e.publishEvent(ctx, events.Event{
		Type:    events.EventDepartmentChanged,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.DepartmentChangedPayload{
			FromDepartment: fromDepartment,
			ToDepartment:   newDepartment,
		},
	})
	return issue, nil
}

// AddComment appends to the issue thread. The author name is snapshotted at
// write time so profile edits never rewrite history.
func (e *Engine) AddComment(ctx context.Context, actor domain.Actor, issueID, body string) (*domain.Issue, *domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil, apperrors.NewValidationError("comment body required", nil)
	}
	if len(body) > maxCommentLength {
		return nil, nil, apperrors.NewValidationError("comment exceeds length limit", map[string]any{
			"max_length": maxCommentLength,
		})
	}

	unlock := e.lockIssue(issueID)
	defer unlock()

	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, nil, err
	}
	if decision := policy.CanComment(actor, issue); !decision.Allowed {
		return nil, nil, apperrors.NewForbidden(decision.Reason)
	}

	now := e.clock.Now()
	comment := &domain.Comment{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       body,
		CreatedAt:  now,
	}
	if err := e.issues.AppendComment(ctx, issue.ID, comment); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	issue.Comments = append(issue.Comments, *comment)
	issue.SLAStatus = sla.Evaluate(issue, now)
	issue.UpdatedAt = now
	if err := e.issues.Update(ctx, issue); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if err := e.appendActivity(ctx, actor.ID, issue.ID, domain.ActivityCommented, map[string]any{
		"comment_id": comment.ID,
	}); err != nil {
		return nil, nil, err
	}
	e.publishEvent(ctx, events.Event{
		Type:    events.EventCommentAdded,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    actor.ID,
			BodyPreview: bodyPreview(body, 120),
		},
	})
	return issue, comment, nil
}

// ListActivitiesForIssue returns the audit trail of an issue the actor may
// read, oldest first.
func (e *Engine) ListActivitiesForIssue(ctx context.Context, actor domain.Actor, issueID string) ([]domain.Activity, error) {
	issue, err := e.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if decision := policy.CanRead(actor, issue); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	activities, err := e.activities.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return activities, nil
}

// ListRecentActivities returns the newest activity across all issues. The
// cross-issue feed is operational tooling, so it is staff/admin only.
func (e *Engine) ListRecentActivities(ctx context.Context, actor domain.Actor, limit int) ([]domain.Activity, error) {
	if actor.Role != domain.RoleDepartmentStaff && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("staff or admin role required")
	}
	activities, err := e.activities.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return activities, nil
}

func (e *Engine) loadIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := e.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

// refreshSLA recomputes the derived status and publishes it to the display
// cache. The stored value is never read back for decisions.
func (e *Engine) refreshSLA(ctx context.Context, issue *domain.Issue) {
	issue.SLAStatus = sla.Evaluate(issue, e.clock.Now())
	if e.slaCache != nil {
		e.slaCache.Put(ctx, issue.ID, issue.SLAStatus)
	}
}

func (e *Engine) appendActivity(ctx context.Context, actorID, issueID string, kind domain.ActivityKind, detail map[string]any) error {
	activity := &domain.Activity{
		ID:        uuid.NewString(),
		IssueID:   issueID,
		ActorID:   actorID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: e.clock.Now(),
	}
	if err := e.activities.Create(ctx, activity); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (e *Engine) publishEvent(ctx context.Context, event events.Event) {
	if e.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock.Now()
	}
	_ = e.dispatcher.Publish(ctx, event)
}

func (e *Engine) lockIssue(issueID string) func() {
	e.locksMu.Lock()
	lock, ok := e.locks[issueID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[issueID] = lock
	}
	e.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func bodyPreview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
