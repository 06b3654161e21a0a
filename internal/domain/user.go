package domain

import "time"

// Role enumerates helpdesk roles. Capabilities per action are resolved by the
// authz policy table, never hardcoded against these values elsewhere.
type Role string

const (
	RoleUser       Role = "USER"
	RoleTechnician Role = "TECHNICIAN"
	RoleSecretary  Role = "SECRETARY"
	RoleAdjointDSI Role = "ADJOINT_DSI"
	RoleDSI        Role = "DSI"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTechnician, RoleSecretary, RoleAdjointDSI, RoleDSI, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for anyone who can log in: requesters as well as
// technicians and the assignment-capable staff roles.
type User struct {
	ID                 int64
	Username           string
	FullName           string
	Email              string
	PasswordHash       string
	Role               Role
	Agency             *string
	Specialization     *string
	Active             bool
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
