package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

func TestDueByOffsets(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		priority domain.IssuePriority
		offset   time.Duration
	}{
		{domain.IssuePriorityCritical, 4 * time.Hour},
		{domain.IssuePriorityHigh, 8 * time.Hour},
		{domain.IssuePriorityMedium, 24 * time.Hour},
		{domain.IssuePriorityLow, 48 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(string(tc.priority), func(t *testing.T) {
			dueBy, ok := DueBy(tc.priority, createdAt)
			require.True(t, ok)
			require.Equal(t, createdAt.Add(tc.offset), dueBy)
		})
	}
}

func TestDueByUnknownPriority(t *testing.T) {
	_, ok := DueBy(domain.IssuePriority("urgent"), time.Now())
	require.False(t, ok)
}

func TestEvaluateCriticalWindow(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	dueBy := t0.Add(4 * time.Hour)
	issue := &domain.Issue{
		Status:    domain.IssueStatusOpen,
		Priority:  domain.IssuePriorityCritical,
		CreatedAt: t0,
		DueBy:     &dueBy,
	}

	require.Equal(t, domain.SLAOnTrack, Evaluate(issue, t0))
	require.Equal(t, domain.SLAOnTrack, Evaluate(issue, t0.Add(2*time.Hour)))
	// 25% of budget remaining is the at-risk boundary.
	require.Equal(t, domain.SLAAtRisk, Evaluate(issue, t0.Add(3*time.Hour)))
	require.Equal(t, domain.SLAAtRisk, Evaluate(issue, t0.Add(3*time.Hour+15*time.Minute)))
	require.Equal(t, domain.SLABreached, Evaluate(issue, t0.Add(4*time.Hour+time.Minute)))
}

func TestEvaluateTerminalStatusAlwaysCompleted(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	dueBy := t0.Add(4 * time.Hour)

	for _, status := range []domain.IssueStatus{domain.IssueStatusVerified, domain.IssueStatusClosed} {
		issue := &domain.Issue{Status: status, CreatedAt: t0, DueBy: &dueBy}
		require.Equal(t, domain.SLACompleted, Evaluate(issue, t0.Add(100*time.Hour)))
		require.Equal(t, domain.SLACompleted, Evaluate(issue, t0))
	}
}

func TestEvaluateMissingDueBy(t *testing.T) {
	issue := &domain.Issue{Status: domain.IssueStatusOpen, CreatedAt: time.Now()}
	require.Equal(t, domain.SLAOnTrack, Evaluate(issue, time.Now().Add(1000*time.Hour)))
}

func TestEvaluateEscalatedStillMeasured(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	dueBy := t0.Add(8 * time.Hour)
	issue := &domain.Issue{
		Status:      domain.IssueStatusEscalated,
		IsEscalated: true,
		CreatedAt:   t0,
		DueBy:       &dueBy,
	}
	require.Equal(t, domain.SLABreached, Evaluate(issue, t0.Add(9*time.Hour)))
}
