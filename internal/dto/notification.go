package dto

import (
	"time"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

type NotificationDTO struct {
	ID          uint64                  `json:"id"`
	Title       string                  `json:"title"`
	Message     string                  `json:"message"`
	Type        models.NotificationType `json:"type"`
	ReferenceID *uint64                 `json:"reference_id"`
	Metadata    map[string]interface{}  `json:"metadata,omitempty"`
	IsRead      bool                    `json:"is_read"`
	ReadAt      *time.Time              `json:"read_at"`
	CreatedAt   time.Time               `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int64             `json:"unread_count"`
	Pagination    PaginationDTO     `json:"pagination"`
}

func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          n.ID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		ReferenceID: n.ReferenceID,
		Metadata:    n.Metadata,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

func ToNotificationListResponse(page *services.NotificationPage, params utils.PaginationParams) NotificationListResponse {
	resp := NotificationListResponse{
		Notifications: make([]NotificationDTO, 0, len(page.Notifications)),
		UnreadCount:   page.UnreadCount,
		Pagination:    ToPaginationDTO(params, page.Total),
	}
	for _, n := range page.Notifications {
		resp.Notifications = append(resp.Notifications, ToNotificationDTO(n))
	}
	return resp
}
