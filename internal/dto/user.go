package dto

import (
	"time"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserRefDTO exposes only the id and name of a user
type UserRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func toUserRef(user *models.User) *UserRefDTO {
	if user == nil {
		return nil
	}
	return &UserRefDTO{ID: user.ID, Name: user.Name}
}
