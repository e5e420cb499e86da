package lifecycle

type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleSystem     Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSuperAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor is the identity driving an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}

// Owns reports whether a student actor is the owner of a record belonging to userID.
func (a Actor) Owns(userID string) bool {
	return a.Role == RoleStudent && a.ID != "" && a.ID == userID
}

// System is the actor used for gateway callbacks and background jobs.
func System() Actor {
	return Actor{ID: "system", Role: RoleSystem}
}
