package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

var (
	reporter = domain.Actor{ID: "u-reporter", Role: domain.RoleEmployee, Department: domain.DepartmentHR}
	stranger = domain.Actor{ID: "u-stranger", Role: domain.RoleEmployee, Department: domain.DepartmentIT}
	itStaff  = domain.Actor{ID: "u-staff", Role: domain.RoleDepartmentStaff, Department: domain.DepartmentIT}
	hrStaff  = domain.Actor{ID: "u-hr", Role: domain.RoleDepartmentStaff, Department: domain.DepartmentHR}
	admin    = domain.Actor{ID: "u-admin", Role: domain.RoleAdmin}
)

func itIssue(status domain.IssueStatus) *domain.Issue {
	return &domain.Issue{
		ID:         "iss-1",
		Department: domain.DepartmentIT,
		ReporterID: reporter.ID,
		Status:     status,
	}
}

func TestCanRead(t *testing.T) {
	issue := itIssue(domain.IssueStatusOpen)

	require.True(t, CanRead(reporter, issue).Allowed)
	require.False(t, CanRead(stranger, issue).Allowed)
	require.True(t, CanRead(itStaff, issue).Allowed)
	require.False(t, CanRead(hrStaff, issue).Allowed)
	require.True(t, CanRead(admin, issue).Allowed)
}

func TestCanTransitionWorkTargets(t *testing.T) {
	issue := itIssue(domain.IssueStatusOpen)

	for _, target := range []domain.IssueStatus{
		domain.IssueStatusInProgress,
		domain.IssueStatusPending,
		domain.IssueStatusCompleted,
	} {
		require.True(t, CanTransition(itStaff, issue, target).Allowed, string(target))
		require.True(t, CanTransition(admin, issue, target).Allowed, string(target))
		require.False(t, CanTransition(hrStaff, issue, target).Allowed, string(target))
		require.False(t, CanTransition(reporter, issue, target).Allowed, string(target))
	}
}

func TestCanTransitionVerificationBranch(t *testing.T) {
	issue := itIssue(domain.IssueStatusCompleted)

	require.True(t, CanTransition(reporter, issue, domain.IssueStatusVerified).Allowed)
	require.True(t, CanTransition(reporter, issue, domain.IssueStatusRejected).Allowed)
	require.False(t, CanTransition(itStaff, issue, domain.IssueStatusVerified).Allowed)
	require.False(t, CanTransition(admin, issue, domain.IssueStatusRejected).Allowed)
}

func TestCanTransitionClosedAdminOnly(t *testing.T) {
	issue := itIssue(domain.IssueStatusVerified)

	require.True(t, CanTransition(admin, issue, domain.IssueStatusClosed).Allowed)
	require.False(t, CanTransition(itStaff, issue, domain.IssueStatusClosed).Allowed)
	require.False(t, CanTransition(reporter, issue, domain.IssueStatusClosed).Allowed)
}

func TestCanEscalateStaffUnconditional(t *testing.T) {
	issue := itIssue(domain.IssueStatusOpen)
	now := time.Now()

	require.True(t, CanEscalate(itStaff, issue, now).Allowed)
	require.True(t, CanEscalate(admin, issue, now).Allowed)
	require.False(t, CanEscalate(hrStaff, issue, now).Allowed)
}

func TestCanEscalateReporterGating(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	dueBy := t0.Add(4 * time.Hour)

	issue := itIssue(domain.IssueStatusInProgress)
	issue.CreatedAt = t0
	issue.DueBy = &dueBy

	// Fresh issue inside its SLA window: no remedy yet.
	require.False(t, CanEscalate(reporter, issue, t0.Add(time.Hour)).Allowed)
	// Breached SLA unlocks escalation.
	require.True(t, CanEscalate(reporter, issue, t0.Add(5*time.Hour)).Allowed)
	// A stranger never gets the remedy.
	require.False(t, CanEscalate(stranger, issue, t0.Add(5*time.Hour)).Allowed)

	// Rejection unlocks escalation even inside the window.
	rejected := itIssue(domain.IssueStatusRejected)
	rejected.CreatedAt = t0
	longDue := t0.Add(48 * time.Hour)
	rejected.DueBy = &longDue
	require.True(t, CanEscalate(reporter, rejected, t0.Add(time.Hour)).Allowed)

	// 48 hours elapsed unlocks escalation regardless of SLA state.
	slow := itIssue(domain.IssueStatusPending)
	slow.CreatedAt = t0
	farDue := t0.Add(200 * time.Hour)
	slow.DueBy = &farDue
	require.False(t, CanEscalate(reporter, slow, t0.Add(47*time.Hour)).Allowed)
	require.True(t, CanEscalate(reporter, slow, t0.Add(49*time.Hour)).Allowed)
}

func TestCanReassignDepartment(t *testing.T) {
	require.True(t, CanReassignDepartment(admin).Allowed)
	require.False(t, CanReassignDepartment(itStaff).Allowed)
	require.False(t, CanReassignDepartment(reporter).Allowed)
}

func TestDenialsCarryReasons(t *testing.T) {
	issue := itIssue(domain.IssueStatusOpen)
	decision := CanRead(stranger, issue)
	require.False(t, decision.Allowed)
	require.NotEmpty(t, decision.Reason)
}
