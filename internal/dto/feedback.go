package dto

import (
	"time"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

// FeedbackSummaryDTO is returned by submission and status updates
type FeedbackSummaryDTO struct {
	ID             uint64                `json:"id"`
	Subject        string                `json:"subject"`
	Status         models.FeedbackStatus `json:"status"`
	IsAnonymous    bool                  `json:"is_anonymous"`
	AssignedUnitID *uint64               `json:"assigned_unit_id"`
	SubmissionDate time.Time             `json:"submission_date"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// FeedbackListItemDTO represents feedback in list responses
type FeedbackListItemDTO struct {
	ID             uint64                `json:"id"`
	Subject        string                `json:"subject"`
	Content        string                `json:"content"`
	Status         models.FeedbackStatus `json:"status"`
	IsAnonymous    bool                  `json:"is_anonymous"`
	SubmissionDate time.Time             `json:"submission_date"`
	UpdatedAt      time.Time             `json:"updated_at"`
	UserID         *uint64               `json:"user_id"`
	User           *UserRefDTO           `json:"user"`
	Category       *CategoryDTO          `json:"category,omitempty"`
	AssignedUnit   *UserRefDTO           `json:"assigned_unit"`
	Attachments    []AttachmentDTO       `json:"attachments"`
}

// FeedbackDTO is the detail view of one feedback
type FeedbackDTO struct {
	FeedbackListItemDTO
	Responses []ResponseDTO `json:"responses"`
}

type ResponseDTO struct {
	ID         uint64      `json:"id"`
	FeedbackID uint64      `json:"feedback_id"`
	Message    string      `json:"message"`
	Admin      *UserRefDTO `json:"admin"`
	CreatedAt  time.Time   `json:"created_at"`
}

type AttachmentDTO struct {
	ID           uint64    `json:"id"`
	OriginalName string    `json:"original_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedbackListResponse represents a paginated list of feedback
type FeedbackListResponse struct {
	Feedback   []FeedbackListItemDTO `json:"feedback"`
	Pagination PaginationDTO         `json:"pagination"`
}

// DraftResponseDTO carries an assistant-written reply suggestion
type DraftResponseDTO struct {
	Draft string `json:"draft"`
}

func ToFeedbackSummaryDTO(f models.Feedback) FeedbackSummaryDTO {
	return FeedbackSummaryDTO{
		ID:             f.ID,
		Subject:        f.Subject,
		Status:         f.Status,
		IsAnonymous:    f.IsAnonymous,
		AssignedUnitID: f.AssignedUnitID,
		SubmissionDate: f.SubmissionDate,
		UpdatedAt:      f.UpdatedAt,
	}
}

// ToFeedbackListItemDTO converts a Feedback model. Submitter fields are taken
// as loaded; redaction happens before conversion.
func ToFeedbackListItemDTO(f models.Feedback) FeedbackListItemDTO {
	item := FeedbackListItemDTO{
		ID:             f.ID,
		Subject:        f.Subject,
		Content:        f.Content,
		Status:         f.Status,
		IsAnonymous:    f.IsAnonymous,
		SubmissionDate: f.SubmissionDate,
		UpdatedAt:      f.UpdatedAt,
		UserID:         f.UserID,
		User:           toUserRef(f.User),
		AssignedUnit:   toUserRef(f.AssignedUnit),
		Attachments:    make([]AttachmentDTO, 0, len(f.Attachments)),
	}
	for _, a := range f.Attachments {
		item.Attachments = append(item.Attachments, AttachmentDTO{
			ID:           a.ID,
			OriginalName: a.OriginalName,
			FileSize:     a.FileSize,
			MimeType:     a.MimeType,
			CreatedAt:    a.CreatedAt,
		})
	}
	if f.Category.ID != 0 {
		category := ToCategoryDTO(f.Category)
		item.Category = &category
	}
	return item
}

func ToFeedbackDTO(f models.Feedback) FeedbackDTO {
	detail := FeedbackDTO{
		FeedbackListItemDTO: ToFeedbackListItemDTO(f),
		Responses:           make([]ResponseDTO, 0, len(f.Responses)),
	}
	for _, r := range f.Responses {
		detail.Responses = append(detail.Responses, ToResponseDTO(r))
	}
	return detail
}

// ToResponseDTO exposes the responder as id and name only
func ToResponseDTO(r models.Response) ResponseDTO {
	dto := ResponseDTO{
		ID:         r.ID,
		FeedbackID: r.FeedbackID,
		Message:    r.Message,
		CreatedAt:  r.CreatedAt,
	}
	if r.Admin.ID != 0 {
		dto.Admin = toUserRef(&r.Admin)
	}
	return dto
}

func ToFeedbackListResponse(items []models.Feedback, params utils.PaginationParams, total int64) FeedbackListResponse {
	resp := FeedbackListResponse{
		Feedback:   make([]FeedbackListItemDTO, 0, len(items)),
		Pagination: ToPaginationDTO(params, total),
	}
	for _, f := range items {
		resp.Feedback = append(resp.Feedback, ToFeedbackListItemDTO(f))
	}
	return resp
}
