package models

// Role is a closed enum. The numeric values are wire values shared with the
// SPA and must not change; they are never compared as raw integers outside
// this package.
type Role int

const (
	RoleStandard Role = 1
	RoleAdmin    Role = 2
	RoleViewer   Role = 3
)

// roleLabels is the single source of truth for how roles are rendered at
// external boundaries.
var roleLabels = map[Role]string{
	RoleStandard: "Developer",
	RoleAdmin:    "Admin",
	RoleViewer:   "Viewer",
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the external string rendering of the role, or "" for an
// unknown role.
func (r Role) Label() string {
	return roleLabels[r]
}

// RoleFromInt converts a wire value back into a Role, rejecting anything
// outside the closed set.
func RoleFromInt(v int) (Role, bool) {
	r := Role(v)
	return r, r.Valid()
}

// RoleFromLabel converts an external string rendering back into a Role.
func RoleFromLabel(label string) (Role, bool) {
	for r, l := range roleLabels {
		if l == label {
			return r, true
		}
	}
	return 0, false
}
