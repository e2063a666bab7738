package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	"github.com/yukikurage/faculty-feedback-api/internal/dto"
	apierrors "github.com/yukikurage/faculty-feedback-api/internal/errors"
	"github.com/yukikurage/faculty-feedback-api/internal/middleware"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
	"github.com/yukikurage/faculty-feedback-api/internal/storage"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// SubmitFeedback accepts a multipart form (or JSON without files).
// Authentication is optional; anonymous submissions never record the caller.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	type SubmitRequest struct {
		CategoryID  uint64 `form:"categoryId" json:"category_id" binding:"required"`
		Subject     string `form:"subject" json:"subject"`
		Content     string `form:"content" json:"content" binding:"required"`
		IsAnonymous bool   `form:"isAnonymous" json:"is_anonymous"`
	}

	var req SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			apierrors.PayloadTooLarge(c, "")
			return
		}
		respondBindError(c, err)
		return
	}

	var files []*multipart.FileHeader
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			if isBodyTooLarge(err) {
				apierrors.PayloadTooLarge(c, "")
				return
			}
			apierrors.BadRequest(c, "Invalid multipart form")
			return
		}
		files = form.File["attachments"]
	}

	caller, _ := middleware.GetCurrentUser(c)
	feedback, err := h.feedbackService.Submit(c.Request.Context(), caller, services.SubmitInput{
		CategoryID:  req.CategoryID,
		Subject:     req.Subject,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		Files:       files,
	})
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFeedbackSummaryDTO(*feedback))
}

// ListFeedback returns the feedback visible to the caller
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListInput{Pagination: utils.GetPaginationParams(c, constants.DefaultPageSize)}
	if raw := c.Query("status"); raw != "" {
		status := models.FeedbackStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}
	categoryID, ok := parseOptionalIDQuery(c, "categoryId")
	if !ok {
		return
	}
	input.CategoryID = categoryID

	items, total, err := h.feedbackService.List(c.Request.Context(), caller, input)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFeedbackListResponse(items, input.Pagination, total))
}

// ListMyFeedback returns feedback submitted under the caller's identity
func (h *FeedbackHandler) ListMyFeedback(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c, constants.DefaultPageSize)
	items, total, err := h.feedbackService.ListMine(c.Request.Context(), caller, params)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFeedbackListResponse(items, params, total))
}

func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	feedback, err := h.feedbackService.Get(c.Request.Context(), caller, id)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFeedbackDTO(*feedback))
}

// DownloadAttachment streams an attachment to a caller allowed to read the feedback
func (h *FeedbackHandler) DownloadAttachment(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "attachmentId")
	if !ok {
		return
	}

	attachment, f, err := h.feedbackService.OpenAttachment(c.Request.Context(), caller, id, attachmentID)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": attachment.OriginalName})
	c.DataFromReader(http.StatusOK, info.Size(), attachment.MimeType, f, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status         string  `json:"status" binding:"required,feedback_status"`
		AssignedUnitID *uint64 `json:"assigned_unit_id"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	feedback, err := h.feedbackService.UpdateStatus(c.Request.Context(), caller, id, services.UpdateStatusInput{
		Status:         models.FeedbackStatus(req.Status),
		AssignedUnitID: req.AssignedUnitID,
	})
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFeedbackSummaryDTO(*feedback))
}

func (h *FeedbackHandler) AddResponse(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type AddResponseRequest struct {
		Message string `json:"message" binding:"required"`
	}

	var req AddResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.feedbackService.AddResponse(c.Request.Context(), caller, id, req.Message)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToResponseDTO(*response))
}

// DraftResponse returns an assistant-written reply suggestion; nothing is stored
func (h *FeedbackHandler) DraftResponse(c *gin.Context) {
	caller, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.feedbackService.DraftResponse(c.Request.Context(), caller, id)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DraftResponseDTO{Draft: draft})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func respondFeedbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrTooManyFiles):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeTooManyAttachments, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		apierrors.PayloadTooLarge(c, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType):
		apierrors.UnsupportedMediaType(c, err.Error())
	case errors.Is(err, services.ErrContentRequired),
		errors.Is(err, services.ErrSubjectTooLong),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidAssignedUnit),
		errors.Is(err, services.ErrMessageRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFeedbackNotFound),
		errors.Is(err, services.ErrAttachmentNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFeedbackAccessDenied),
		errors.Is(err, services.ErrInsufficientRole):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "Internal server error")
	}
}
