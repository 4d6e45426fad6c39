package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the platform role used for staff authorization
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleStaff UserRole = "staff"
	UserRoleAdmin UserRole = "admin"
)

// User is the subset of the account record the escrow core reads
type User struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	Username        string    `db:"username" json:"username"`
	Role            UserRole  `db:"role" json:"role"`
	IsSuspended     bool      `db:"is_suspended" json:"is_suspended"`
	SuspendedReason *string   `db:"suspended_reason" json:"suspended_reason,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsStaff reports whether the user's role grants staff operations
func (u *User) IsStaff() bool {
	return u.Role == UserRoleStaff || u.Role == UserRoleAdmin
}
