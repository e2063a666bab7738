package dto

import "github.com/yukikurage/faculty-feedback-api/internal/models"

type CategoryDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func ToCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func ToCategoryDTOs(categories []models.Category) []CategoryDTO {
	result := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		result = append(result, ToCategoryDTO(c))
	}
	return result
}
