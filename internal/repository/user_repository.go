package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves every column of the user
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// ListActiveIDsByRoles returns the IDs of active users holding any of the roles
func (r *GormUserRepository) ListActiveIDsByRoles(ctx context.Context, roles []models.UserRole) ([]uint64, error) {
	var ids []uint64
	if len(roles) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role IN ? AND is_active = ?", roles, true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
