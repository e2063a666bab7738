package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

// Repository groups the data access layer so services can be wired from one value.
type Repository struct {
	DB           *gorm.DB
	User         UserRepository
	Category     CategoryRepository
	Feedback     FeedbackRepository
	Notification NotificationRepository
	Stats        StatsRepository
}

// New builds every repository on top of db.
func New(db *gorm.DB) *Repository {
	return &Repository{
		DB:           db,
		User:         NewUserRepository(db),
		Category:     NewCategoryRepository(db),
		Feedback:     NewFeedbackRepository(db),
		Notification: NewNotificationRepository(db),
		Stats:        NewStatsRepository(db),
	}
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves every column of the user
	Update(ctx context.Context, user *models.User) error

	// ListActiveIDsByRoles returns the IDs of active users holding any of the roles
	ListActiveIDsByRoles(ctx context.Context, roles []models.UserRole) ([]uint64, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uint64) (*models.Category, error)
	ListActive(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
}

// FeedbackRepository defines the interface for feedback data access
type FeedbackRepository interface {
	// CreateWithAttachments inserts the feedback and its attachment rows in one transaction
	CreateWithAttachments(ctx context.Context, feedback *models.Feedback, attachments []models.Attachment) error

	// FindByID finds a feedback by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Feedback, error)

	// List retrieves feedback with filtering and pagination, newest first
	List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, int64, error)

	// UpdateStatus sets the status and, when non-nil, the assigned unit
	UpdateStatus(ctx context.Context, id uint64, status models.FeedbackStatus, assignedUnitID *uint64) error

	// AddResponse stores a response and moves a submitted feedback to processing.
	// It reports whether the status was advanced.
	AddResponse(ctx context.Context, response *models.Response) (bool, error)

	// FindAttachment finds an attachment belonging to the feedback
	FindAttachment(ctx context.Context, feedbackID, attachmentID uint64) (*models.Attachment, error)
}

// FeedbackFilter holds filtering options for listing feedback
type FeedbackFilter struct {
	UserID         *uint64
	AssignedUnitID *uint64
	Status         *models.FeedbackStatus
	CategoryID     *uint64
	Pagination     utils.PaginationParams
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	List(ctx context.Context, userID uint64, unreadOnly bool, params utils.PaginationParams) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)

	// FindForUser finds a notification owned by userID
	FindForUser(ctx context.Context, id, userID uint64) (*models.Notification, error)

	MarkRead(ctx context.Context, notification *models.Notification, at time.Time) error

	// MarkAllRead marks every unread notification of the user and returns how many changed
	MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error)
}

// DateRange bounds a report. From is inclusive. To is exclusive unless
// IncludeTo is set. A nil bound is open.
type DateRange struct {
	From      *time.Time
	To        *time.Time
	IncludeTo bool
}

// StatsRepository runs the read-only aggregate queries behind the dashboard
type StatsRepository interface {
	CountFeedback(ctx context.Context, r DateRange) (int64, error)
	CountAnonymous(ctx context.Context, r DateRange) (int64, error)
	CountByStatus(ctx context.Context, r DateRange) (map[models.FeedbackStatus]int64, error)
	CountByCategory(ctx context.Context, r DateRange) ([]CategoryCount, error)

	// SubmissionDates returns submission dates inside r that are not before since
	SubmissionDates(ctx context.Context, r DateRange, since time.Time) ([]time.Time, error)

	// CompletedSpans returns submission and last-update times of completed feedback
	CompletedSpans(ctx context.Context, r DateRange) ([]Span, error)

	UnitPerformance(ctx context.Context) ([]UnitCount, error)
}

type CategoryCount struct {
	Category string
	Count    int64
}

type Span struct {
	SubmissionDate time.Time
	UpdatedAt      time.Time
}

type UnitCount struct {
	UnitID        uint64
	UnitName      string
	TotalAssigned int64
	Completed     int64
	Processing    int64
}

// isUniqueViolation recognises duplicate keys whether or not the dialector translated them.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

func translate(err error) error {
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
