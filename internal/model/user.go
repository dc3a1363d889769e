package model

import (
	"github.com/google/uuid"
)

// Role is the single role a user holds.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	Base
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	Active       bool   `json:"active" db:"active"`
}

// Identity is the request-scoped actor passed into every service call.
// ProfileID is the Patient or Doctor id owned by the user, uuid.Nil for admins.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	ProfileID uuid.UUID `json:"profile_id"`
}

func (i Identity) IsAdmin() bool   { return i.Role == RoleAdmin }
func (i Identity) IsDoctor() bool  { return i.Role == RoleDoctor }
func (i Identity) IsPatient() bool { return i.Role == RolePatient }
