package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/database"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
)

// GormFeedbackRepository is a GORM implementation of FeedbackRepository
type GormFeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

// CreateWithAttachments inserts the feedback and its attachment rows in one transaction
func (r *GormFeedbackRepository) CreateWithAttachments(ctx context.Context, feedback *models.Feedback, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Responses", "Attachments", "Category", "User", "AssignedUnit").Create(feedback).Error; err != nil {
			return fmt.Errorf("create feedback: %w", err)
		}

		if len(attachments) == 0 {
			return nil
		}
		for i := range attachments {
			attachments[i].FeedbackID = feedback.ID
		}
		if err := tx.Create(&attachments).Error; err != nil {
			return fmt.Errorf("create attachments: %w", err)
		}
		feedback.Attachments = attachments
		return nil
	})
}

// FindByID finds a feedback by ID with optional preloading
func (r *GormFeedbackRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Feedback, error) {
	var feedback models.Feedback
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Responses" {
			query = query.Preload("Responses", func(db *gorm.DB) *gorm.DB {
				return db.Order("responses.created_at ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&feedback, id).Error; err != nil {
		return nil, err
	}

	return &feedback, nil
}

// List retrieves feedback with filtering and pagination, newest first
func (r *GormFeedbackRepository) List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.UserID != nil {
			db = db.Where("feedbacks.user_id = ?", *filter.UserID)
		}
		if filter.AssignedUnitID != nil {
			db = db.Where("feedbacks.assigned_unit_id = ?", *filter.AssignedUnitID)
		}
		if filter.Status != nil {
			db = db.Where("feedbacks.status = ?", *filter.Status)
		}
		if filter.CategoryID != nil {
			db = db.Where("feedbacks.category_id = ?", *filter.CategoryID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	feedbacks := []models.Feedback{}
	if total == 0 {
		return feedbacks, 0, nil
	}

	err := r.db.WithContext(ctx).
		Scopes(scope, database.Paginate(filter.Pagination)).
		Preload("User").
		Preload("Category").
		Preload("AssignedUnit").
		Preload("Attachments").
		Order("feedbacks.submission_date DESC").
		Order("feedbacks.id DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}

// UpdateStatus sets the status and, when non-nil, the assigned unit
func (r *GormFeedbackRepository) UpdateStatus(ctx context.Context, id uint64, status models.FeedbackStatus, assignedUnitID *uint64) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": r.db.NowFunc(),
	}
	if assignedUnitID != nil {
		updates["assigned_unit_id"] = *assignedUnitID
	}

	return r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AddResponse stores a response and moves a submitted feedback to processing
func (r *GormFeedbackRepository) AddResponse(ctx context.Context, response *models.Response) (bool, error) {
	advanced := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Admin").Create(response).Error; err != nil {
			return fmt.Errorf("create response: %w", err)
		}

		result := tx.Model(&models.Feedback{}).
			Where("id = ? AND status = ?", response.FeedbackID, models.FeedbackStatusSubmitted).
			Updates(map[string]interface{}{
				"status":     models.FeedbackStatusProcessing,
				"updated_at": tx.NowFunc(),
			})
		if result.Error != nil {
			return fmt.Errorf("advance status: %w", result.Error)
		}
		advanced = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return advanced, nil
}

// FindAttachment finds an attachment belonging to the feedback
func (r *GormFeedbackRepository) FindAttachment(ctx context.Context, feedbackID, attachmentID uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND feedback_id = ?", attachmentID, feedbackID).
		First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}
