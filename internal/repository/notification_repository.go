package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/database"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *GormNotificationRepository) List(ctx context.Context, userID uint64, unreadOnly bool, params utils.PaginationParams) ([]models.Notification, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if unreadOnly {
			db = db.Where("is_read = ?", false)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	notifications := []models.Notification{}
	err := r.db.WithContext(ctx).
		Scopes(scope, database.Paginate(params)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// FindForUser finds a notification owned by userID
func (r *GormNotificationRepository) FindForUser(ctx context.Context, id, userID uint64) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, notification *models.Notification, at time.Time) error {
	if notification.IsRead {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(notification).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
	if err != nil {
		return err
	}
	notification.IsRead = true
	notification.ReadAt = &at
	return nil
}

// MarkAllRead marks every unread notification of the user and returns how many changed
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}
