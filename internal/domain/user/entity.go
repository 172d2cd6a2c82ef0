package user

import "time"

type Role string

const (
	RoleOwner       Role = "owner"       // Business owner - administrative overrides
	RoleAdmin       Role = "admin"       // Back office - confirms statements, edits rates
	RoleSalesperson Role = "salesperson" // Sees own statements only
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleSalesperson:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSalesperson reports whether the user earns commission.
func (u *User) IsSalesperson() bool {
	return u.Role == RoleSalesperson
}
