package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by the list and dashboard queries
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Feedback listing per role, newest first
		{"feedbacks", "idx_feedbacks_user_submission", "user_id, submission_date"},
		{"feedbacks", "idx_feedbacks_unit_status", "assigned_unit_id, status"},
		{"feedbacks", "idx_feedbacks_status_submission", "status, submission_date"},
		{"feedbacks", "idx_feedbacks_category_submission", "category_id, submission_date"},

		{"responses", "idx_responses_feedback_created", "feedback_id, created_at"},

		// Notification inbox and unread badge
		{"notifications", "idx_notifications_user_created", "user_id, created_at"},
		{"notifications", "idx_notifications_user_unread", "user_id, is_read"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
