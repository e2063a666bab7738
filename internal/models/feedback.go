package models

import "time"

type FeedbackStatus string

const (
	FeedbackStatusSubmitted  FeedbackStatus = "submitted"
	FeedbackStatusProcessing FeedbackStatus = "processing"
	FeedbackStatusCompleted  FeedbackStatus = "completed"
	FeedbackStatusRejected   FeedbackStatus = "rejected"
)

// FeedbackStatuses lists every status in lifecycle order.
var FeedbackStatuses = []FeedbackStatus{
	FeedbackStatusSubmitted,
	FeedbackStatusProcessing,
	FeedbackStatusCompleted,
	FeedbackStatusRejected,
}

func (s FeedbackStatus) Valid() bool {
	for _, status := range FeedbackStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Feedback is the central record. UserID is NULL for anonymous or
// unauthenticated submissions; SubmissionDate and IsAnonymous never change
// after creation.
type Feedback struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	UserID         *uint64        `gorm:"index" json:"user_id"`
	CategoryID     uint64         `gorm:"not null;index" json:"category_id"`
	Subject        string         `gorm:"type:varchar(255)" json:"subject"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	SubmissionDate time.Time      `gorm:"autoCreateTime;not null;index" json:"submission_date"`
	Status         FeedbackStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IsAnonymous    bool           `gorm:"not null" json:"is_anonymous"`
	AssignedUnitID *uint64        `gorm:"index" json:"assigned_unit_id"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Relations
	User         *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category     Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AssignedUnit *User        `gorm:"foreignKey:AssignedUnitID" json:"assigned_unit,omitempty"`
	Responses    []Response   `gorm:"foreignKey:FeedbackID" json:"responses,omitempty"`
	Attachments  []Attachment `gorm:"foreignKey:FeedbackID" json:"attachments,omitempty"`
}

// IsOwnedBy reports whether userID is the recorded submitter.
func (f *Feedback) IsOwnedBy(userID uint64) bool {
	return f.UserID != nil && *f.UserID == userID
}

// HideSubmitter drops the submitter identity from the loaded record.
func (f *Feedback) HideSubmitter() {
	f.UserID = nil
	f.User = nil
}
