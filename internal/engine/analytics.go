package engine

import (
	"context"
	"time"

	"github.com/mdfarid01/RapidTrack/internal/domain"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

// AnalyticsReport aggregates department SLA compliance and status
// distribution.
type AnalyticsReport struct {
	SLAPerformanceByDepartment map[string]float64           `json:"sla_performance_by_department"`
	OverallPerformance         float64                      `json:"overall_performance"`
	IssueCountsByStatus        map[domain.IssueStatus]int   `json:"issue_counts_by_status"`
	IssueCountsByPriority      map[domain.IssuePriority]int `json:"issue_counts_by_priority"`
	EscalatedCount             int                          `json:"escalated_count"`
	TotalIssues                int                          `json:"total_issues"`
}

// Analytics scans all issues and derives the aggregate report. Dashboards
// are operational tooling, so employees are out of scope.
func (e *Engine) Analytics(ctx context.Context, actor domain.Actor) (*AnalyticsReport, error) {
	if actor.Role != domain.RoleDepartmentStaff && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("staff or admin role required")
	}

	issues, err := e.issues.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := &AnalyticsReport{
		SLAPerformanceByDepartment: make(map[string]float64),
		IssueCountsByStatus:        make(map[domain.IssueStatus]int),
		IssueCountsByPriority:      make(map[domain.IssuePriority]int),
		TotalIssues:                len(issues),
	}
	for _, status := range domain.AllStatuses() {
		report.IssueCountsByStatus[status] = 0
	}
	for _, priority := range []domain.IssuePriority{
		domain.IssuePriorityLow,
		domain.IssuePriorityMedium,
		domain.IssuePriorityHigh,
		domain.IssuePriorityCritical,
	} {
		report.IssueCountsByPriority[priority] = 0
	}

	type deptTally struct {
		completed int
		metSLA    int
	}
	tally := make(map[string]*deptTally)
	for _, department := range domain.DepartmentList() {
		tally[department] = &deptTally{}
	}

	for i := range issues {
		issue := &issues[i]
		report.IssueCountsByStatus[issue.Status]++
		report.IssueCountsByPriority[issue.Priority]++
		if issue.IsEscalated {
			report.EscalatedCount++
		}
		if !issue.Status.Terminal() {
			continue
		}
		counts, ok := tally[issue.Department]
		if !ok {
			counts = &deptTally{}
			tally[issue.Department] = counts
		}
		counts.completed++
		met, err := e.metDeadline(ctx, issue)
		if err != nil {
			return nil, err
		}
		if met {
			counts.metSLA++
		}
	}

	var sum float64
	var departments int
	for department, counts := range tally {
		// Departments with nothing completed report 100; the overall mean
		// keeps that default, matching the dashboard's historical behavior.
		pct := 100.0
		if counts.completed > 0 {
			pct = float64(counts.metSLA) / float64(counts.completed) * 100
		}
		report.SLAPerformanceByDepartment[department] = pct
		sum += pct
		departments++
	}
	if departments > 0 {
		report.OverallPerformance = sum / float64(departments)
	} else {
		report.OverallPerformance = 100
	}
	return report, nil
}

// metDeadline reports whether a terminal issue reached verified/closed
// before its due-by. The terminal transition timestamp comes from the
// activity log; issues without a deadline always count as met.
func (e *Engine) metDeadline(ctx context.Context, issue *domain.Issue) (bool, error) {
	if issue.DueBy == nil {
		return true, nil
	}
	completedAt, ok, err := e.terminalTransitionTime(ctx, issue.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		// No recorded transition; fall back to the last mutation time.
		completedAt = issue.UpdatedAt
	}
	return !completedAt.After(*issue.DueBy), nil
}

func (e *Engine) terminalTransitionTime(ctx context.Context, issueID string) (time.Time, bool, error) {
	activities, err := e.activities.ListByIssue(ctx, issueID)
	if err != nil {
		return time.Time{}, false, apperrors.MapError(err)
	}
	for i := len(activities) - 1; i >= 0; i-- {
		entry := activities[i]
		if entry.Kind != domain.ActivityUpdatedStatus {
			continue
		}
		var target string
		switch v := entry.Detail["to_status"].(type) {
		case string:
			target = v
		case domain.IssueStatus:
			target = string(v)
		}
		switch domain.IssueStatus(target) {
		case domain.IssueStatusVerified, domain.IssueStatusClosed:
			return entry.CreatedAt, true, nil
		}
	}
	return time.Time{}, false, nil
}
