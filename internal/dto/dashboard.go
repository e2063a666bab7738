package dto

import (
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
)

type CategoryCountDTO struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type MonthCountDTO struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type AnonymityDTO struct {
	Anonymous  int64 `json:"anonymous"`
	Identified int64 `json:"identified"`
}

// StatsDTO is the dashboard summary
type StatsDTO struct {
	Total                 int64                           `json:"total"`
	ByStatus              map[models.FeedbackStatus]int64 `json:"by_status"`
	ByCategory            []CategoryCountDTO              `json:"by_category"`
	Anonymity             AnonymityDTO                    `json:"anonymity"`
	Monthly               []MonthCountDTO                 `json:"monthly"`
	AverageResolutionDays *float64                        `json:"average_resolution_days"`
}

type UnitPerformanceDTO struct {
	UnitID         uint64  `json:"unit_id"`
	UnitName       string  `json:"unit_name"`
	TotalAssigned  int64   `json:"total_assigned"`
	Completed      int64   `json:"completed"`
	Processing     int64   `json:"processing"`
	CompletionRate float64 `json:"completion_rate"`
}

func ToStatsDTO(s *services.Stats) StatsDTO {
	dto := StatsDTO{
		Total:                 s.Total,
		ByStatus:              s.ByStatus,
		ByCategory:            make([]CategoryCountDTO, 0, len(s.ByCategory)),
		Anonymity:             AnonymityDTO{Anonymous: s.Anonymous, Identified: s.Identified},
		Monthly:               make([]MonthCountDTO, 0, len(s.Monthly)),
		AverageResolutionDays: s.AverageResolutionDays,
	}
	for _, c := range s.ByCategory {
		dto.ByCategory = append(dto.ByCategory, CategoryCountDTO{Category: c.Category, Count: c.Count})
	}
	for _, m := range s.Monthly {
		dto.Monthly = append(dto.Monthly, MonthCountDTO{Month: m.Month, Count: m.Count})
	}
	return dto
}

func ToUnitPerformanceDTOs(units []services.UnitPerformance) []UnitPerformanceDTO {
	result := make([]UnitPerformanceDTO, 0, len(units))
	for _, u := range units {
		result = append(result, UnitPerformanceDTO{
			UnitID:         u.UnitID,
			UnitName:       u.UnitName,
			TotalAssigned:  u.TotalAssigned,
			Completed:      u.Completed,
			Processing:     u.Processing,
			CompletionRate: u.CompletionRate,
		})
	}
	return result
}
