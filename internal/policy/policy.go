// Package policy centralizes who may do what to an issue. Every rule lives
// here instead of being scattered across handlers, and every decision carries
// a reason for the denial path.
package policy

import (
	"time"

	"github.com/mdfarid01/RapidTrack/internal/domain"
	"github.com/mdfarid01/RapidTrack/internal/sla"
)

// Decision is an allow/deny answer with the denial reason.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// reporterEscalationWindow is how long a reporter waits before they may
// escalate regardless of SLA state.
const reporterEscalationWindow = 48 * time.Hour

// CanRead answers whether the actor may see the issue at all. Employees see
// their own reports, department staff their department, admins everything.
func CanRead(actor domain.Actor, issue *domain.Issue) Decision {
	switch actor.Role {
	case domain.RoleAdmin:
		return allow()
	case domain.RoleDepartmentStaff:
		if actor.Department == issue.Department {
			return allow()
		}
		return deny("issue belongs to another department")
	case domain.RoleEmployee:
		if actor.ID == issue.ReporterID {
			return allow()
		}
		return deny("issue was reported by someone else")
	}
	return deny("unknown role")
}

// CanComment mirrors read scope.
func CanComment(actor domain.Actor, issue *domain.Issue) Decision {
	return CanRead(actor, issue)
}

// CanTransition answers whether the actor may move the issue to target,
// assuming the edge itself is valid. Work-side targets are staff/admin
// territory; the verification branch belongs to the original reporter.
func CanTransition(actor domain.Actor, issue *domain.Issue, target domain.IssueStatus) Decision {
	switch target {
	case domain.IssueStatusInProgress, domain.IssueStatusPending, domain.IssueStatusCompleted:
		if actor.Role == domain.RoleAdmin {
			return allow()
		}
		if actor.Role == domain.RoleDepartmentStaff && actor.Department == issue.Department {
			return allow()
		}
		return deny("only department staff or admins may work issues")
	case domain.IssueStatusVerified, domain.IssueStatusRejected:
		if actor.ID != issue.ReporterID {
			return deny("only the reporter may verify or reject")
		}
		return allow()
	case domain.IssueStatusClosed:
		if actor.Role == domain.RoleAdmin {
			return allow()
		}
		return deny("only admins may close issues")
	}
	return deny("target status not reachable by request")
}

// CanAssign answers whether the actor may set the issue's assignee.
func CanAssign(actor domain.Actor, issue *domain.Issue) Decision {
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	if actor.Role == domain.RoleDepartmentStaff && actor.Department == issue.Department {
		return allow()
	}
	return deny("only department staff or admins may assign issues")
}

// CanEscalate answers whether the actor may escalate. Staff and admins may
// escalate any issue in their scope as a process action; the reporter only
// gets the remedy once the SLA is breached, the issue was rejected, or the
// issue has sat for over 48 hours.
func CanEscalate(actor domain.Actor, issue *domain.Issue, now time.Time) Decision {
	switch actor.Role {
	case domain.RoleAdmin:
		return allow()
	case domain.RoleDepartmentStaff:
		if actor.Department == issue.Department {
			return allow()
		}
		return deny("issue belongs to another department")
	case domain.RoleEmployee:
		if actor.ID != issue.ReporterID {
			return deny("issue was reported by someone else")
		}
		if sla.Evaluate(issue, now) == domain.SLABreached {
			return allow()
		}
		if issue.Status == domain.IssueStatusRejected {
			return allow()
		}
		if now.Sub(issue.CreatedAt) > reporterEscalationWindow {
			return allow()
		}
		return deny("escalation requires a breached SLA, a rejection, or 48 hours elapsed")
	}
	return deny("unknown role")
}

// CanReassignDepartment is admin-only. The at-risk/escalated precondition is
// advisory UI policy, not enforced here.
func CanReassignDepartment(actor domain.Actor) Decision {
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	return deny("only admins may reassign departments")
}
