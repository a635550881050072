package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mdfarid01/RapidTrack/internal/domain"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

func (f *fixture) completeIssue(t *testing.T, issueID string, verify bool) {
	t.Helper()
	ctx := context.Background()
	for _, target := range []domain.IssueStatus{
		domain.IssueStatusInProgress,
		domain.IssueStatusCompleted,
	} {
		_, err := f.engine.UpdateStatus(ctx, f.itStaff, issueID, target)
		require.NoError(t, err)
	}
	target := domain.IssueStatusVerified
	if !verify {
		target = domain.IssueStatusRejected
	}
	_, err := f.engine.UpdateStatus(ctx, f.reporter, issueID, target)
	require.NoError(t, err)
}

func TestAnalyticsEmptyStore(t *testing.T) {
	f := newFixture(t)

	report, err := f.engine.Analytics(context.Background(), f.admin)
	require.NoError(t, err)

	require.Equal(t, 0, report.TotalIssues)
	require.Equal(t, 0, report.EscalatedCount)
	// Every status bucket present, zero-filled.
	require.Len(t, report.IssueCountsByStatus, len(domain.AllStatuses()))
	for status, count := range report.IssueCountsByStatus {
		require.Equal(t, 0, count, string(status))
	}
	// Departments with no completed issues report their default 100.
	for _, department := range domain.DepartmentList() {
		require.Equal(t, 100.0, report.SLAPerformanceByDepartment[department])
	}
	require.Equal(t, 100.0, report.OverallPerformance)
}

func TestAnalyticsForbiddenForEmployees(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Analytics(context.Background(), f.reporter)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestAnalyticsSLAPerformance(t *testing.T) {
	f := newFixture(t)

	// Verified inside its 24h window: compliant.
	onTime := f.createIssue(t, domain.IssuePriorityMedium)
	f.clock.Set(t0.Add(2 * time.Hour))
	f.completeIssue(t, onTime.ID, true)

	// Verified 5h after a 4h window: late.
	f.clock.Set(t0)
	late := f.createIssue(t, domain.IssuePriorityCritical)
	f.clock.Set(t0.Add(5 * time.Hour))
	f.completeIssue(t, late.ID, true)

	// Still open issues do not count toward SLA performance.
	f.createIssue(t, domain.IssuePriorityLow)

	report, err := f.engine.Analytics(context.Background(), f.admin)
	require.NoError(t, err)

	require.Equal(t, 3, report.TotalIssues)
	require.Equal(t, 50.0, report.SLAPerformanceByDepartment[domain.DepartmentIT])
	require.Equal(t, 100.0, report.SLAPerformanceByDepartment[domain.DepartmentHR])

	// Mean across 5 departments: four at 100, IT at 50.
	require.InDelta(t, 90.0, report.OverallPerformance, 0.001)

	require.Equal(t, 2, report.IssueCountsByStatus[domain.IssueStatusVerified])
	require.Equal(t, 1, report.IssueCountsByStatus[domain.IssueStatusOpen])
	require.Equal(t, 0, report.IssueCountsByStatus[domain.IssueStatusPending])
}

func TestAnalyticsEscalatedCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createIssue(t, domain.IssuePriorityHigh)
	f.createIssue(t, domain.IssuePriorityHigh)

	_, err := f.engine.Escalate(ctx, f.itStaff, first.ID, "blocked on vendor")
	require.NoError(t, err)

	report, err := f.engine.Analytics(ctx, f.itStaff)
	require.NoError(t, err)
	require.Equal(t, 1, report.EscalatedCount)
	require.Equal(t, 1, report.IssueCountsByStatus[domain.IssueStatusEscalated])
}
