package models

import (
	"time"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// roleLevels defines the capability ordering. Higher implies all lower
// privileges.
var roleLevels = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperadmin: 3,
}

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the role's position in the hierarchy, 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// User is an account. Accounts are never physically deleted once referenced
// by tasks; deactivation flips IsActive instead.
type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  string    `gorm:"type:varchar(100);not null" json:"display_name"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	AssignedTasks []Task       `gorm:"foreignKey:AssigneeID" json:"-"`
	CreatedTasks  []Task       `gorm:"foreignKey:CreatorID" json:"-"`
	TaskUpdates   []TaskUpdate `gorm:"foreignKey:AuthorID" json:"-"`
}

// HasRole reports whether the user's role satisfies the required level.
// An admin passes a "requires user" check; the comparison is never equality.
func (u *User) HasRole(required Role) bool {
	return u.Role.Level() >= required.Level()
}
