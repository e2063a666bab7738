package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationFeedbackSubmitted NotificationType = "feedback_submitted"
	NotificationStatusChanged     NotificationType = "status_changed"
	NotificationResponseAdded     NotificationType = "response_added"
	NotificationAssigned          NotificationType = "assigned"
)

type Notification struct {
	ID          uint64            `gorm:"primarykey" json:"id"`
	UserID      uint64            `gorm:"not null;index" json:"user_id"`
	Title       string            `gorm:"type:varchar(255);not null" json:"title"`
	Message     string            `gorm:"type:text;not null" json:"message"`
	Type        NotificationType  `gorm:"type:varchar(32);not null" json:"type"`
	ReferenceID *uint64           `gorm:"index" json:"reference_id"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	IsRead      bool              `gorm:"not null;index" json:"is_read"`
	ReadAt      *time.Time        `json:"read_at"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}
