package models

import "time"

type UserRole string

const (
	RoleEndUser           UserRole = "end_user"
	RoleFacultyAdmin      UserRole = "faculty_admin"
	RoleRelatedUnit       UserRole = "related_unit"
	RoleFacultyLeadership UserRole = "faculty_leadership"
)

// Valid reports whether r is one of the four known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleEndUser, RoleFacultyAdmin, RoleRelatedUnit, RoleFacultyLeadership:
		return true
	}
	return false
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(32);not null;index" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
