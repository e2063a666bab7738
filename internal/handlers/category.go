package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/faculty-feedback-api/internal/dto"
	apierrors "github.com/yukikurage/faculty-feedback-api/internal/errors"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListCategories returns active categories sorted by name
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.ListActive(c.Request.Context())
	if err != nil {
		respondCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": dto.ToCategoryDTOs(categories)})
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.categoryService.Get(c.Request.Context(), id)
	if err != nil {
		respondCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryDTO(*category))
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	type CreateCategoryRequest struct {
		Name        string `json:"name" binding:"required,max=100"`
		Description string `json:"description"`
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondCategoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCategoryDTO(*category))
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateCategoryRequest struct {
		Name        *string `json:"name" binding:"omitempty,max=100"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, services.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryDTO(*category))
}

func respondCategoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCategoryNameRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCategoryNameTaken):
		apierrors.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "Internal server error")
	}
}
