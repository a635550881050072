package domain

import "time"

// ActivityKind captures what a mutation did.
type ActivityKind string

const (
	ActivityCreated           ActivityKind = "created"
	ActivityUpdatedStatus     ActivityKind = "updated_status"
	ActivityAssigned          ActivityKind = "assigned"
	ActivityEscalated         ActivityKind = "escalated"
	ActivityCommented         ActivityKind = "commented"
	ActivityDepartmentChanged ActivityKind = "department_changed"
)

// Activity is an immutable audit record of a single mutation applied to an
// issue. Detail shape depends on Kind, e.g. {"from_status","to_status"} for
// updated_status entries.
type Activity struct {
	ID        string
	IssueID   string
	ActorID   string
	Kind      ActivityKind
	Detail    map[string]any
	CreatedAt time.Time
}
