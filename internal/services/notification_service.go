package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification titles
const (
	TitleFeedbackSubmitted = "New Feedback Submitted"
	TitleStatusChanged     = "Feedback Status Updated"
	TitleAssigned          = "New Feedback Assigned"
	TitleResponseAdded     = "New Response on Your Feedback"
)

// NotificationInput describes one notification to deliver
type NotificationInput struct {
	Title       string
	Message     string
	Type        models.NotificationType
	ReferenceID *uint64
	Metadata    map[string]interface{}
}

// Notifier delivers notifications on a best-effort basis. Implementations
// log failures instead of returning them.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, input NotificationInput)
	NotifyRoles(ctx context.Context, roles []models.UserRole, input NotificationInput)
}

// NotificationService stores and reads in-app notifications
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	logger        *zap.Logger
	now           func() time.Time
}

func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Notify creates a notification for one user
func (s *NotificationService) Notify(ctx context.Context, userID uint64, input NotificationInput) {
	if err := s.notifications.CreateBatch(ctx, []models.Notification{build(userID, input)}); err != nil {
		s.logger.Warn("Failed to create notification",
			zap.Uint64("user_id", userID),
			zap.String("type", string(input.Type)),
			zap.Error(err))
	}
}

// NotifyRoles creates one notification per active user holding any of the roles
func (s *NotificationService) NotifyRoles(ctx context.Context, roles []models.UserRole, input NotificationInput) {
	ids, err := s.users.ListActiveIDsByRoles(ctx, roles)
	if err != nil {
		s.logger.Warn("Failed to resolve notification recipients",
			zap.String("type", string(input.Type)),
			zap.Error(err))
		return
	}

	batch := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, build(id, input))
	}
	if err := s.notifications.CreateBatch(ctx, batch); err != nil {
		s.logger.Warn("Failed to create notifications",
			zap.Int("recipients", len(ids)),
			zap.String("type", string(input.Type)),
			zap.Error(err))
	}
}

func build(userID uint64, input NotificationInput) models.Notification {
	n := models.Notification{
		UserID:      userID,
		Title:       input.Title,
		Message:     input.Message,
		Type:        input.Type,
		ReferenceID: input.ReferenceID,
	}
	if len(input.Metadata) > 0 {
		n.Metadata = datatypes.JSONMap(input.Metadata)
	}
	return n
}

// NotificationPage is one page of a user's inbox
type NotificationPage struct {
	Notifications []models.Notification
	Total         int64
	UnreadCount   int64
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uint64, unreadOnly bool, params utils.PaginationParams) (*NotificationPage, error) {
	items, total, err := s.notifications.List(ctx, userID, unreadOnly, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{Notifications: items, Total: total, UnreadCount: unread}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read. Notifications of
// other users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint64) (*models.Notification, error) {
	notification, err := s.notifications.FindForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	if err := s.notifications.MarkRead(ctx, notification, s.now()); err != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return notification, nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	updated, err := s.notifications.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return updated, nil
}
