package models

import "time"

// Response is a staff reply; it is append-only.
type Response struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	FeedbackID uint64    `gorm:"not null;index" json:"feedback_id"`
	AdminID    uint64    `gorm:"not null;index" json:"admin_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Admin User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}
