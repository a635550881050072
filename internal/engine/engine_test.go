package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mdfarid01/RapidTrack/internal/clock"
	"github.com/mdfarid01/RapidTrack/internal/domain"
	"github.com/mdfarid01/RapidTrack/internal/repository"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	clock  *clock.Fake
	stores repository.Stores

	reporter domain.Actor
	stranger domain.Actor
	itStaff  domain.Actor
	hrStaff  domain.Actor
	admin    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemoryStores()
	stores := mem.Stores()
	fakeClock := clock.NewFake(t0)

	eng := New(Dependencies{Stores: stores, Clock: fakeClock})

	f := &fixture{engine: eng, clock: fakeClock, stores: stores}
	f.reporter = f.addUser(t, "Rina Patel", domain.RoleEmployee, domain.DepartmentHR)
	f.stranger = f.addUser(t, "Omar Diaz", domain.RoleEmployee, domain.DepartmentIT)
	f.itStaff = f.addUser(t, "Lee Chang", domain.RoleDepartmentStaff, domain.DepartmentIT)
	f.hrStaff = f.addUser(t, "Ana Silva", domain.RoleDepartmentStaff, domain.DepartmentHR)
	f.admin = f.addUser(t, "Sam Reed", domain.RoleAdmin, "")
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role domain.Role, department string) domain.Actor {
	t.Helper()
	user := &domain.User{
		ID:         "u-" + name,
		Name:       name,
		Email:      name + "@example.com",
		Role:       role,
		Department: department,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.stores.Users.Create(context.Background(), user))
	return domain.ActorFor(user)
}

func (f *fixture) createIssue(t *testing.T, priority domain.IssuePriority) *domain.Issue {
	t.Helper()
	issue, err := f.engine.CreateIssue(context.Background(), f.reporter, CreateIssueInput{
		Title:       "VPN keeps dropping",
		Description: "Disconnects every few minutes on the office network",
		Department:  domain.DepartmentIT,
		Priority:    priority,
	})
	require.NoError(t, err)
	return issue
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestCreateIssue(t *testing.T) {
	f := newFixture(t)
	issue := f.createIssue(t, domain.IssuePriorityCritical)

	require.Equal(t, domain.IssueStatusOpen, issue.Status)
	require.Equal(t, domain.SLAOnTrack, issue.SLAStatus)
	require.False(t, issue.IsEscalated)
	require.Equal(t, f.reporter.ID, issue.ReporterID)
	require.NotNil(t, issue.DueBy)
	require.Equal(t, t0.Add(4*time.Hour), *issue.DueBy)

	activities, err := f.engine.ListActivitiesForIssue(context.Background(), f.reporter, issue.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, domain.ActivityCreated, activities[0].Kind)
}

func TestCreateIssueValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateIssueInput
	}{
		{"missing title", CreateIssueInput{Description: "d", Department: domain.DepartmentIT, Priority: domain.IssuePriorityLow}},
		{"missing description", CreateIssueInput{Title: "t", Department: domain.DepartmentIT, Priority: domain.IssuePriorityLow}},
		{"missing priority", CreateIssueInput{Title: "t", Description: "d", Department: domain.DepartmentIT}},
		{"bad priority", CreateIssueInput{Title: "t", Description: "d", Department: domain.DepartmentIT, Priority: "urgent"}},
		{"bad department", CreateIssueInput{Title: "t", Description: "d", Department: "Engineering", Priority: domain.IssuePriorityLow}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateIssue(ctx, f.reporter, tc.input)
			requireCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestGetIssueScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	_, err := f.engine.GetIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	_, err = f.engine.GetIssue(ctx, f.itStaff, issue.ID)
	require.NoError(t, err)
	_, err = f.engine.GetIssue(ctx, f.admin, issue.ID)
	require.NoError(t, err)

	_, err = f.engine.GetIssue(ctx, f.stranger, issue.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = f.engine.GetIssue(ctx, f.hrStaff, issue.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.engine.GetIssue(ctx, f.admin, "missing")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestGetIssueRecomputesSLA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityCritical)

	f.clock.Set(t0.Add(3*time.Hour + 15*time.Minute))
	got, err := f.engine.GetIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SLAAtRisk, got.SLAStatus)

	f.clock.Set(t0.Add(4*time.Hour + time.Minute))
	got, err = f.engine.GetIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SLABreached, got.SLAStatus)
}

func TestUpdateStatusHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	got, err := f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusInProgress, got.Status)

	activities, err := f.engine.ListActivitiesForIssue(ctx, f.itStaff, issue.ID)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	last := activities[len(activities)-1]
	require.Equal(t, domain.ActivityUpdatedStatus, last.Kind)
	require.Equal(t, domain.IssueStatusOpen, last.Detail["from_status"])
	require.Equal(t, domain.IssueStatusInProgress, last.Detail["to_status"])
}

func TestUpdateStatusInvalidEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	_, err := f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusCompleted)
	requireCode(t, err, apperrors.CodeInvalidTrans)

	// Stored issue unchanged after a rejected transition.
	got, err := f.engine.GetIssue(ctx, f.itStaff, issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusOpen, got.Status)
}

func TestUpdateStatusForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	// Valid edge, wrong actor: the reporter cannot work the issue.
	_, err := f.engine.UpdateStatus(ctx, f.reporter, issue.ID, domain.IssueStatusInProgress)
	requireCode(t, err, apperrors.CodeForbidden)

	// An employee who is not the reporter is outside read scope entirely.
	_, err = f.engine.UpdateStatus(ctx, f.stranger, issue.ID, domain.IssueStatusInProgress)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestVerificationBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	_, err := f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusInProgress)
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusCompleted)
	require.NoError(t, err)

	// Staff cannot verify their own work.
	_, err = f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusVerified)
	requireCode(t, err, apperrors.CodeForbidden)

	got, err := f.engine.UpdateStatus(ctx, f.reporter, issue.ID, domain.IssueStatusVerified)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusVerified, got.Status)
	require.Equal(t, domain.SLACompleted, got.SLAStatus)

	// Terminal status pins SLA to completed on all later reads.
	f.clock.Advance(1000 * time.Hour)
	got, err = f.engine.GetIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SLACompleted, got.SLAStatus)
}

func TestAdminClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	for _, target := range []domain.IssueStatus{
		domain.IssueStatusInProgress,
		domain.IssueStatusCompleted,
	} {
		_, err := f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, target)
		require.NoError(t, err)
	}
	_, err := f.engine.UpdateStatus(ctx, f.reporter, issue.ID, domain.IssueStatusVerified)
	require.NoError(t, err)

	_, err = f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusClosed)
	requireCode(t, err, apperrors.CodeForbidden)

	got, err := f.engine.UpdateStatus(ctx, f.admin, issue.ID, domain.IssueStatusClosed)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusClosed, got.Status)
	require.Equal(t, domain.SLACompleted, got.SLAStatus)
}

func TestAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	got, err := f.engine.Assign(ctx, f.itStaff, issue.ID, f.itStaff.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssigneeID)
	require.Equal(t, f.itStaff.ID, *got.AssigneeID)
	// Assignment auto-advances an open issue.
	require.Equal(t, domain.IssueStatusInProgress, got.Status)

	activities, err := f.engine.ListActivitiesForIssue(ctx, f.itStaff, issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ActivityAssigned, activities[len(activities)-1].Kind)
}

func TestAssignRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	// Reporter cannot assign.
	_, err := f.engine.Assign(ctx, f.reporter, issue.ID, f.itStaff.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	// Staff from another department cannot assign.
	_, err = f.engine.Assign(ctx, f.hrStaff, issue.ID, f.itStaff.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	// Assignee must exist, be staff, and be in the issue's department.
	_, err = f.engine.Assign(ctx, f.itStaff, issue.ID, "missing")
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = f.engine.Assign(ctx, f.itStaff, issue.ID, f.stranger.ID)
	requireCode(t, err, apperrors.CodeValidation)
	_, err = f.engine.Assign(ctx, f.itStaff, issue.ID, f.hrStaff.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestEscalateByReporterAfterBreach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityCritical)

	// Inside the window the reporter has no remedy yet.
	_, err := f.engine.Escalate(ctx, f.reporter, issue.ID, "nothing happened")
	requireCode(t, err, apperrors.CodeForbidden)

	f.clock.Set(t0.Add(5 * time.Hour))
	got, err := f.engine.Escalate(ctx, f.reporter, issue.ID, "SLA missed")
	require.NoError(t, err)
	require.True(t, got.IsEscalated)
	require.Equal(t, domain.IssueStatusEscalated, got.Status)

	// Second escalation fails and leaves the issue untouched.
	_, err = f.engine.Escalate(ctx, f.reporter, issue.ID, "again")
	requireCode(t, err, apperrors.CodeAlreadyEscalated)
	check, err := f.engine.GetIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	require.True(t, check.IsEscalated)
	require.Equal(t, domain.IssueStatusEscalated, check.Status)
}

func TestEscalateByStaffUnconditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityLow)

	got, err := f.engine.Escalate(ctx, f.itStaff, issue.ID, "vendor outage")
	require.NoError(t, err)
	require.True(t, got.IsEscalated)

	activities, err := f.engine.ListActivitiesForIssue(ctx, f.itStaff, issue.ID)
	require.NoError(t, err)
	last := activities[len(activities)-1]
	require.Equal(t, domain.ActivityEscalated, last.Kind)
	require.Equal(t, "vendor outage", last.Detail["reason"])
}

func TestEscalateTerminalIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	for _, target := range []domain.IssueStatus{
		domain.IssueStatusInProgress,
		domain.IssueStatusCompleted,
	} {
		_, err := f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, target)
		require.NoError(t, err)
	}
	_, err := f.engine.UpdateStatus(ctx, f.reporter, issue.ID, domain.IssueStatusVerified)
	require.NoError(t, err)

	_, err = f.engine.Escalate(ctx, f.admin, issue.ID, "too late")
	requireCode(t, err, apperrors.CodeInvalidTrans)
}

func TestEscalatedIssueFreezesTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	_, err := f.engine.Escalate(ctx, f.itStaff, issue.ID, "stuck")
	require.NoError(t, err)

	_, err = f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusInProgress)
	requireCode(t, err, apperrors.CodeInvalidTrans)

	// Escalated issues remain commentable.
	_, _, err = f.engine.AddComment(ctx, f.reporter, issue.ID, "any news?")
	require.NoError(t, err)
}

func TestReassignDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityHigh)

	_, err := f.engine.Escalate(ctx, f.itStaff, issue.ID, "needs HR")
	require.NoError(t, err)

	got, err := f.engine.ReassignDepartment(ctx, f.admin, issue.ID, domain.DepartmentHR)
	require.NoError(t, err)
	require.Equal(t, domain.DepartmentHR, got.Department)
	// Status and escalated flag survive the transfer.
	require.Equal(t, domain.IssueStatusEscalated, got.Status)
	require.True(t, got.IsEscalated)

	activities, err := f.engine.ListActivitiesForIssue(ctx, f.admin, issue.ID)
	require.NoError(t, err)
	last := activities[len(activities)-1]
	require.Equal(t, domain.ActivityDepartmentChanged, last.Kind)
	require.Equal(t, domain.DepartmentIT, last.Detail["from_department"])
	require.Equal(t, domain.DepartmentHR, last.Detail["to_department"])
}

func TestReassignDepartmentRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityHigh)

	_, err := f.engine.ReassignDepartment(ctx, f.itStaff, issue.ID, domain.DepartmentHR)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.engine.ReassignDepartment(ctx, f.admin, issue.ID, "Engineering")
	requireCode(t, err, apperrors.CodeValidation)

	before, err := f.engine.ListActivitiesForIssue(ctx, f.admin, issue.ID)
	require.NoError(t, err)

	_, err = f.engine.ReassignDepartment(ctx, f.admin, issue.ID, domain.DepartmentIT)
	requireCode(t, err, apperrors.CodeNoOpChange)

	// No activity appended for the rejected no-op.
	after, err := f.engine.ListActivitiesForIssue(ctx, f.admin, issue.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before))
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	got, comment, err := f.engine.AddComment(ctx, f.reporter, issue.ID, "still broken")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	require.Equal(t, f.reporter.ID, comment.AuthorID)
	require.Equal(t, "Rina Patel", comment.AuthorName)

	// Name snapshot survives later profile edits.
	user, err := f.stores.Users.GetByID(ctx, f.reporter.ID)
	require.NoError(t, err)
	user.Name = "Rina P."
	require.NoError(t, f.stores.Users.Update(ctx, user))

	check, err := f.engine.GetIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	require.Equal(t, "Rina Patel", check.Comments[0].AuthorName)
}

func TestAddCommentValidationAndScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	_, _, err := f.engine.AddComment(ctx, f.reporter, issue.ID, "   ")
	requireCode(t, err, apperrors.CodeValidation)

	long := make([]byte, maxCommentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, _, err = f.engine.AddComment(ctx, f.reporter, issue.ID, string(long))
	requireCode(t, err, apperrors.CodeValidation)

	_, _, err = f.engine.AddComment(ctx, f.stranger, issue.ID, "me too")
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestListIssuesForActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createIssue(t, domain.IssuePriorityMedium)
	f.createIssue(t, domain.IssuePriorityLow)
	_, err := f.engine.CreateIssue(ctx, f.stranger, CreateIssueInput{
		Title:       "Payroll question",
		Description: "Bonus missing from March payslip",
		Department:  domain.DepartmentHR,
		Priority:    domain.IssuePriorityLow,
	})
	require.NoError(t, err)

	mine, err := f.engine.ListIssuesForActor(ctx, f.reporter, ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	queue, err := f.engine.ListIssuesForActor(ctx, f.itStaff, ListFilter{})
	require.NoError(t, err)
	require.Len(t, queue, 2)

	hrQueue, err := f.engine.ListIssuesForActor(ctx, f.hrStaff, ListFilter{})
	require.NoError(t, err)
	require.Len(t, hrQueue, 1)

	all, err := f.engine.ListIssuesForActor(ctx, f.admin, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestListRecentActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.createIssue(t, domain.IssuePriorityMedium)
	f.clock.Advance(time.Minute)
	_, err := f.engine.UpdateStatus(ctx, f.itStaff, issue.ID, domain.IssueStatusInProgress)
	require.NoError(t, err)

	recent, err := f.engine.ListRecentActivities(ctx, f.admin, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, domain.ActivityUpdatedStatus, recent[0].Kind)

	_, err = f.engine.ListRecentActivities(ctx, f.reporter, 10)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestActivityOrderingWithinIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, domain.IssuePriorityMedium)

	// Same-timestamp mutations keep insertion order.
	_, _, err := f.engine.AddComment(ctx, f.reporter, issue.ID, "first")
	require.NoError(t, err)
	_, _, err = f.engine.AddComment(ctx, f.reporter, issue.ID, "second")
	require.NoError(t, err)

	activities, err := f.engine.ListActivitiesForIssue(ctx, f.reporter, issue.ID)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	require.Equal(t, domain.ActivityCreated, activities[0].Kind)
	require.Equal(t, domain.ActivityCommented, activities[1].Kind)
	require.Equal(t, domain.ActivityCommented, activities[2].Kind)
}
