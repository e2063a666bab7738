package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/storage"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

var (
	ErrFeedbackNotFound       = errors.New("feedback not found")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrFeedbackAccessDenied   = errors.New("you do not have access to this feedback")
	ErrInsufficientRole       = errors.New("insufficient permissions")
	ErrContentRequired        = errors.New("content is required")
	ErrSubjectTooLong         = errors.New("subject is too long")
	ErrInvalidCategory        = errors.New("category does not exist or is inactive")
	ErrInvalidStatus          = errors.New("invalid feedback status")
	ErrInvalidAssignedUnit    = errors.New("assigned unit must be an active related_unit user")
	ErrMessageRequired        = errors.New("message is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
)

// AttachmentStore validates and persists uploaded files
type AttachmentStore interface {
	Validate(files []*multipart.FileHeader) ([]storage.Upload, error)
	SaveAll(uploads []storage.Upload) ([]storage.StoredFile, error)
	RemoveAll(files []storage.StoredFile)
	Open(fileName string) (*os.File, error)
}

// FeedbackService handles the feedback lifecycle
type FeedbackService struct {
	feedback   repository.FeedbackRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	store      AttachmentStore
	notifier   Notifier
	drafter    ResponseDrafter
	logger     *zap.Logger
}

// NewFeedbackService creates a new FeedbackService. drafter may be nil.
func NewFeedbackService(
	repo *repository.Repository,
	store AttachmentStore,
	notifier Notifier,
	drafter ResponseDrafter,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		feedback:   repo.Feedback,
		categories: repo.Category,
		users:      repo.User,
		store:      store,
		notifier:   notifier,
		drafter:    drafter,
		logger:     logger,
	}
}

// SubmitInput represents a new feedback submission
type SubmitInput struct {
	CategoryID  uint64
	Subject     string
	Content     string
	IsAnonymous bool
	Files       []*multipart.FileHeader
}

// Submit records new feedback with its attachments. caller is nil for
// unauthenticated submissions. Either the feedback and every attachment are
// stored, or nothing is.
func (s *FeedbackService) Submit(ctx context.Context, caller *models.User, input SubmitInput) (*models.Feedback, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrContentRequired
	}
	subject := strings.TrimSpace(input.Subject)
	if len([]rune(subject)) > constants.MaxSubjectLength {
		return nil, ErrSubjectTooLong
	}

	category, err := s.categories.FindByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCategory
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if !category.IsActive {
		return nil, ErrInvalidCategory
	}

	uploads, err := s.store.Validate(input.Files)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.SaveAll(uploads)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachments: %w", err)
	}

	feedback := &models.Feedback{
		CategoryID:  category.ID,
		Subject:     subject,
		Content:     content,
		Status:      models.FeedbackStatusSubmitted,
		IsAnonymous: input.IsAnonymous,
	}
	// anonymous submissions drop the identity entirely
	if caller != nil && !input.IsAnonymous {
		id := caller.ID
		feedback.UserID = &id
	}

	attachments := make([]models.Attachment, 0, len(stored))
	for _, f := range stored {
		attachments = append(attachments, models.Attachment{
			FileName:     f.FileName,
			OriginalName: f.OriginalName,
			FilePath:     f.Path,
			FileSize:     f.Size,
			MimeType:     f.MimeType,
		})
	}

	if err := s.feedback.CreateWithAttachments(ctx, feedback, attachments); err != nil {
		s.store.RemoveAll(stored)
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}
	feedback.Category = *category

	message := "A new feedback has been submitted"
	if subject != "" {
		message += ": " + subject
	}
	s.notifier.NotifyRoles(ctx, ReportingRoles, NotificationInput{
		Title:       TitleFeedbackSubmitted,
		Message:     message,
		Type:        models.NotificationFeedbackSubmitted,
		ReferenceID: &feedback.ID,
	})

	return feedback, nil
}

// ListInput holds filters for listing feedback
type ListInput struct {
	Status     *models.FeedbackStatus
	CategoryID *uint64
	Pagination utils.PaginationParams
}

// List returns the feedback visible to the caller. end_user sees their own,
// related_unit sees what is assigned to it, admin and leadership see all.
// Anonymous items never carry a submitter.
func (s *FeedbackService) List(ctx context.Context, caller *models.User, input ListInput) ([]models.Feedback, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	filter := repository.FeedbackFilter{
		Status:     input.Status,
		CategoryID: input.CategoryID,
		Pagination: input.Pagination,
	}
	id := caller.ID
	switch caller.Role {
	case models.RoleEndUser:
		filter.UserID = &id
	case models.RoleRelatedUnit:
		filter.AssignedUnitID = &id
	case models.RoleFacultyAdmin, models.RoleFacultyLeadership:
	default:
		return nil, 0, ErrInsufficientRole
	}

	items, total, err := s.feedback.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}

	for i := range items {
		if items[i].IsAnonymous {
			items[i].HideSubmitter()
		}
	}
	return items, total, nil
}

// ListMine returns feedback submitted under the caller's identity
func (s *FeedbackService) ListMine(ctx context.Context, caller *models.User, params utils.PaginationParams) ([]models.Feedback, int64, error) {
	id := caller.ID
	items, total, err := s.feedback.List(ctx, repository.FeedbackFilter{UserID: &id, Pagination: params})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, total, nil
}

// Get returns one feedback with its responses, attachments, category and unit.
// Only end_user callers are restricted to their own feedback.
func (s *FeedbackService) Get(ctx context.Context, caller *models.User, id uint64) (*models.Feedback, error) {
	feedback, err := s.find(ctx, id, "User", "Category", "AssignedUnit", "Responses", "Responses.Admin", "Attachments")
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(caller, feedback); err != nil {
		return nil, err
	}

	if feedback.IsAnonymous && !feedback.IsOwnedBy(caller.ID) {
		feedback.HideSubmitter()
	}
	return feedback, nil
}

func (s *FeedbackService) checkReadAccess(caller *models.User, feedback *models.Feedback) error {
	if caller.Role == models.RoleEndUser && !feedback.IsOwnedBy(caller.ID) {
		return ErrFeedbackAccessDenied
	}
	return nil
}

// UpdateStatusInput changes the status and optionally assigns a unit
type UpdateStatusInput struct {
	Status         models.FeedbackStatus
	AssignedUnitID *uint64
}

// UpdateStatus moves feedback to any status; the last write wins.
func (s *FeedbackService) UpdateStatus(ctx context.Context, caller *models.User, id uint64, input UpdateStatusInput) (*models.Feedback, error) {
	if !Authorize(caller, StaffRoles...) {
		return nil, ErrInsufficientRole
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	feedback, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.AssignedUnitID != nil {
		unit, err := s.users.FindByID(ctx, *input.AssignedUnitID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidAssignedUnit
			}
			return nil, fmt.Errorf("failed to find unit: %w", err)
		}
		if unit.Role != models.RoleRelatedUnit || !unit.IsActive {
			return nil, ErrInvalidAssignedUnit
		}
	}

	oldStatus := feedback.Status
	if err := s.feedback.UpdateStatus(ctx, id, input.Status, input.AssignedUnitID); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if updated.UserID != nil && !updated.IsAnonymous {
		s.notifier.Notify(ctx, *updated.UserID, NotificationInput{
			Title:       TitleStatusChanged,
			Message:     fmt.Sprintf("Your feedback status has been updated from %s to %s", oldStatus, input.Status),
			Type:        models.NotificationStatusChanged,
			ReferenceID: &updated.ID,
			Metadata: map[string]interface{}{
				"oldStatus": string(oldStatus),
				"newStatus": string(input.Status),
			},
		})
	}
	if input.AssignedUnitID != nil {
		s.notifier.Notify(ctx, *input.AssignedUnitID, NotificationInput{
			Title:       TitleAssigned,
			Message:     "A new feedback has been assigned to you",
			Type:        models.NotificationAssigned,
			ReferenceID: &updated.ID,
		})
	}

	s.logger.Info("Feedback status updated",
		zap.Uint64("feedback_id", id),
		zap.Uint64("actor_id", caller.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(input.Status)))

	return updated, nil
}

// AddResponse appends a staff response. A submitted feedback moves to processing.
func (s *FeedbackService) AddResponse(ctx context.Context, caller *models.User, id uint64, message string) (*models.Response, error) {
	if !Authorize(caller, StaffRoles...) {
		return nil, ErrInsufficientRole
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrMessageRequired
	}

	feedback, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	response := &models.Response{
		FeedbackID: feedback.ID,
		AdminID:    caller.ID,
		Message:    message,
	}
	advanced, err := s.feedback.AddResponse(ctx, response)
	if err != nil {
		return nil, fmt.Errorf("failed to add response: %w", err)
	}
	response.Admin = *caller

	if advanced {
		s.logger.Info("Feedback moved to processing", zap.Uint64("feedback_id", id))
	}

	if feedback.UserID != nil && !feedback.IsAnonymous {
		s.notifier.Notify(ctx, *feedback.UserID, NotificationInput{
			Title:       TitleResponseAdded,
			Message:     "An admin has responded to your feedback",
			Type:        models.NotificationResponseAdded,
			ReferenceID: &feedback.ID,
		})
	}

	return response, nil
}

// DraftResponse asks the configured assistant for a reply suggestion.
func (s *FeedbackService) DraftResponse(ctx context.Context, caller *models.User, id uint64) (string, error) {
	if !Authorize(caller, StaffRoles...) {
		return "", ErrInsufficientRole
	}
	if s.drafter == nil {
		return "", ErrAIServiceNotConfigured
	}

	feedback, err := s.find(ctx, id, "Category")
	if err != nil {
		return "", err
	}

	draft, err := s.drafter.DraftResponse(ctx, DraftInput{
		Category: feedback.Category.Name,
		Subject:  feedback.Subject,
		Content:  feedback.Content,
		Status:   string(feedback.Status),
	})
	if err != nil {
		s.logger.Error("Failed to draft response", zap.Uint64("feedback_id", id), zap.Error(err))
		return "", fmt.Errorf("failed to draft response: %w", err)
	}
	return draft, nil
}

// OpenAttachment opens an attachment under the same access rule as Get.
// The caller must close the returned file.
func (s *FeedbackService) OpenAttachment(ctx context.Context, caller *models.User, feedbackID, attachmentID uint64) (*models.Attachment, *os.File, error) {
	feedback, err := s.find(ctx, feedbackID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkReadAccess(caller, feedback); err != nil {
		return nil, nil, err
	}

	attachment, err := s.feedback.FindAttachment(ctx, feedbackID, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to find attachment: %w", err)
	}

	f, err := s.store.Open(attachment.FileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Error("Attachment file missing", zap.Uint64("attachment_id", attachmentID))
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	return attachment, f, nil
}

func (s *FeedbackService) find(ctx context.Context, id uint64, preload ...string) (*models.Feedback, error) {
	feedback, err := s.feedback.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return feedback, nil
}
