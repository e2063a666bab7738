package dto

import "github.com/yukikurage/faculty-feedback-api/internal/utils"

// PaginationDTO is the pagination metadata of list responses
type PaginationDTO struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func ToPaginationDTO(params utils.PaginationParams, total int64) PaginationDTO {
	return PaginationDTO{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: utils.TotalPages(total, params.Limit),
	}
}
