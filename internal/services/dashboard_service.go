package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
)

// Stats is the dashboard summary for a date range
type Stats struct {
	Total                 int64
	ByStatus              map[models.FeedbackStatus]int64
	ByCategory            []repository.CategoryCount
	Anonymous             int64
	Identified            int64
	Monthly               []MonthCount
	AverageResolutionDays *float64
}

// MonthCount is the number of submissions in one calendar month, Month as YYYY-MM
type MonthCount struct {
	Month string
	Count int64
}

// UnitPerformance is the completion summary of one related unit
type UnitPerformance struct {
	UnitID         uint64
	UnitName       string
	TotalAssigned  int64
	Completed      int64
	Processing     int64
	CompletionRate float64
}

// DashboardService computes read-only aggregates on demand
type DashboardService struct {
	stats  repository.StatsRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardService(stats repository.StatsRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		stats:  stats,
		logger: logger,
		now:    time.Now,
	}
}

// Stats computes every dashboard figure over the same date range
func (s *DashboardService) Stats(ctx context.Context, r repository.DateRange) (*Stats, error) {
	total, err := s.stats.CountFeedback(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	byStatus, err := s.stats.CountByStatus(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	byCategory, err := s.stats.CountByCategory(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	anonymous, err := s.stats.CountAnonymous(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to count anonymous feedback: %w", err)
	}

	monthly, err := s.monthly(ctx, r)
	if err != nil {
		return nil, err
	}

	spans, err := s.stats.CompletedSpans(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolution times: %w", err)
	}

	return &Stats{
		Total:                 total,
		ByStatus:              byStatus,
		ByCategory:            byCategory,
		Anonymous:             anonymous,
		Identified:            total - anonymous,
		Monthly:               monthly,
		AverageResolutionDays: averageDays(spans),
	}, nil
}

// monthly buckets submissions into the trailing calendar months, current month
// included, oldest first. Months without submissions are reported as zero.
func (s *DashboardService) monthly(ctx context.Context, r repository.DateRange) ([]MonthCount, error) {
	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(constants.MonthlyTrendMonths - 1), 0)

	dates, err := s.stats.SubmissionDates(ctx, r, first)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission dates: %w", err)
	}

	months := make([]MonthCount, constants.MonthlyTrendMonths)
	index := make(map[string]int, len(months))
	for i := range months {
		key := first.AddDate(0, i, 0).Format("2006-01")
		months[i] = MonthCount{Month: key}
		index[key] = i
	}
	for _, d := range dates {
		if i, ok := index[d.UTC().Format("2006-01")]; ok {
			months[i].Count++
		}
	}
	return months, nil
}

func averageDays(spans []repository.Span) *float64 {
	if len(spans) == 0 {
		return nil
	}
	var sum float64
	for _, sp := range spans {
		sum += sp.UpdatedAt.Sub(sp.SubmissionDate).Hours() / 24
	}
	avg := round1(sum / float64(len(spans)))
	return &avg
}

// UnitPerformance returns completion figures for every related unit
func (s *DashboardService) UnitPerformance(ctx context.Context) ([]UnitPerformance, error) {
	rows, err := s.stats.UnitPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit performance: %w", err)
	}

	result := make([]UnitPerformance, 0, len(rows))
	for _, row := range rows {
		result = append(result, UnitPerformance{
			UnitID:         row.UnitID,
			UnitName:       row.UnitName,
			TotalAssigned:  row.TotalAssigned,
			Completed:      row.Completed,
			Processing:     row.Processing,
			CompletionRate: CompletionRate(row.Completed, row.TotalAssigned),
		})
	}
	return result, nil
}

// CompletionRate is completed/total as a percentage with one decimal, 0 when total is 0
func CompletionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(completed) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
