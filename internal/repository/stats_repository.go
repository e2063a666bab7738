package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
)

// GormStatsRepository runs dashboard aggregates with GORM
type GormStatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &GormStatsRepository{db: db}
}

// inRange restricts feedbacks.submission_date to r
func inRange(r DateRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where("feedbacks.submission_date >= ?", r.From.UTC())
		}
		switch {
		case r.To != nil && r.IncludeTo:
			db = db.Where("feedbacks.submission_date <= ?", r.To.UTC())
		case r.To != nil:
			db = db.Where("feedbacks.submission_date < ?", r.To.UTC())
		}
		return db
	}
}

func (r *GormStatsRepository) feedbacks(ctx context.Context, dr DateRange) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Feedback{}).Scopes(inRange(dr))
}

func (r *GormStatsRepository) CountFeedback(ctx context.Context, dr DateRange) (int64, error) {
	var count int64
	err := r.feedbacks(ctx, dr).Count(&count).Error
	return count, err
}

func (r *GormStatsRepository) CountAnonymous(ctx context.Context, dr DateRange) (int64, error) {
	var count int64
	err := r.feedbacks(ctx, dr).Where("feedbacks.is_anonymous = ?", true).Count(&count).Error
	return count, err
}

// CountByStatus always returns an entry for every status, zero when absent
func (r *GormStatsRepository) CountByStatus(ctx context.Context, dr DateRange) (map[models.FeedbackStatus]int64, error) {
	var rows []struct {
		Status models.FeedbackStatus
		Count  int64
	}
	err := r.feedbacks(ctx, dr).
		Select("feedbacks.status AS status, COUNT(*) AS count").
		Group("feedbacks.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.FeedbackStatus]int64, len(models.FeedbackStatuses))
	for _, status := range models.FeedbackStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormStatsRepository) CountByCategory(ctx context.Context, dr DateRange) ([]CategoryCount, error) {
	rows := []CategoryCount{}
	err := r.feedbacks(ctx, dr).
		Select("categories.name AS category, COUNT(feedbacks.id) AS count").
		Joins("JOIN categories ON categories.id = feedbacks.category_id").
		Group("categories.name").
		Order("categories.name ASC").
		Scan(&rows).Error
	return rows, err
}

// SubmissionDates returns submission dates inside dr that are not before since
func (r *GormStatsRepository) SubmissionDates(ctx context.Context, dr DateRange, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.feedbacks(ctx, dr).
		Where("feedbacks.submission_date >= ?", since.UTC()).
		Pluck("feedbacks.submission_date", &dates).Error
	return dates, err
}

// CompletedSpans returns submission and last-update times of completed feedback
func (r *GormStatsRepository) CompletedSpans(ctx context.Context, dr DateRange) ([]Span, error) {
	spans := []Span{}
	err := r.feedbacks(ctx, dr).
		Select("feedbacks.submission_date AS submission_date, feedbacks.updated_at AS updated_at").
		Where("feedbacks.status = ?", models.FeedbackStatusCompleted).
		Scan(&spans).Error
	return spans, err
}

// UnitPerformance counts assigned feedback for every related_unit user and for
// any other user that still has feedback assigned.
func (r *GormStatsRepository) UnitPerformance(ctx context.Context) ([]UnitCount, error) {
	rows := []UnitCount{}
	err := r.db.WithContext(ctx).
		Table("users").
		Select(`users.id AS unit_id,
			users.name AS unit_name,
			COUNT(feedbacks.id) AS total_assigned,
			COALESCE(SUM(CASE WHEN feedbacks.status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN feedbacks.status = ? THEN 1 ELSE 0 END), 0) AS processing`,
			models.FeedbackStatusCompleted, models.FeedbackStatusProcessing).
		Joins("LEFT JOIN feedbacks ON feedbacks.assigned_unit_id = users.id").
		Where("users.role = ? OR feedbacks.id IS NOT NULL", models.RoleRelatedUnit).
		Group("users.id, users.name").
		Order("users.name ASC").
		Scan(&rows).Error
	return rows, err
}
