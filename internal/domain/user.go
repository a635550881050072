package domain

import "time"

// Role enumerates the actor roles known to the system.
type Role string

const (
	RoleEmployee        Role = "employee"
	RoleDepartmentStaff Role = "department_staff"
	RoleAdmin           Role = "admin"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleEmployee, RoleDepartmentStaff, RoleAdmin:
		return true
	}
	return false
}

// Departments issues are routed to. Department is a fixed registry, not a
// stored entity.
const (
	DepartmentIT         = "IT"
	DepartmentHR         = "HR"
	DepartmentFinance    = "Finance"
	DepartmentOperations = "Operations"
	DepartmentFacilities = "Facilities"
)

var departments = []string{
	DepartmentIT,
	DepartmentHR,
	DepartmentFinance,
	DepartmentOperations,
	DepartmentFacilities,
}

// DepartmentList returns all known departments.
func DepartmentList() []string {
	out := make([]string, len(departments))
	copy(out, departments)
	return out
}

// ValidDepartment reports whether the value is a known department.
func ValidDepartment(d string) bool {
	for _, known := range departments {
		if known == d {
			return true
		}
	}
	return false
}

// User is the domain model for anyone who reports or works issues.
// Department is required for department staff and informational otherwise.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated identity the engine trusts. It is built
// server-side from a stored User, never from request claims.
type Actor struct {
	ID         string
	Name       string
	Role       Role
	Department string
}

// ActorFor derives the engine-facing identity from a stored user.
func ActorFor(u *User) Actor {
	return Actor{
		ID:         u.ID,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
	}
}
