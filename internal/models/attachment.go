package models

import "time"

type Attachment struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	FeedbackID   uint64    `gorm:"not null;index" json:"feedback_id"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	FilePath     string    `gorm:"type:varchar(500);not null" json:"-"`
	FileSize     int64     `gorm:"not null" json:"file_size"`
	MimeType     string    `gorm:"type:varchar(100);not null" json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}
