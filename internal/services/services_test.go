package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/storage"
	"github.com/yukikurage/faculty-feedback-api/internal/testutil"
)

// testEnv wires the services on an in-memory database and a temporary upload dir
type testEnv struct {
	db            *gorm.DB
	repo          *repository.Repository
	store         *storage.LocalStore
	uploadDir     string
	logs          *observer.ObservedLogs
	logger        *zap.Logger
	notifications *NotificationService
	feedback      *FeedbackService

	student  *models.User
	other    *models.User
	admin    *models.User
	lead     *models.User
	unit     *models.User
	category *models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, 1<<20, 5)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	repo := repository.New(db)
	notifications := NewNotificationService(repo.Notification, repo.User, logger)

	env := &testEnv{
		db:            db,
		repo:          repo,
		store:         store,
		uploadDir:     dir,
		logs:          logs,
		logger:        logger,
		notifications: notifications,
		feedback:      NewFeedbackService(repo, store, notifications, nil, logger),
		student:       testutil.CreateUser(t, db, "Student", "student@example.com", models.RoleEndUser),
		other:         testutil.CreateUser(t, db, "Other", "other@example.com", models.RoleEndUser),
		admin:         testutil.CreateUser(t, db, "Admin", "admin@example.com", models.RoleFacultyAdmin),
		lead:          testutil.CreateUser(t, db, "Dean", "dean@example.com", models.RoleFacultyLeadership),
		unit:          testutil.CreateUser(t, db, "IT Office", "it@example.com", models.RoleRelatedUnit),
		category:      testutil.CreateCategory(t, db, "Facilities", true),
	}
	return env
}

func (e *testEnv) submit(t *testing.T, caller *models.User, anonymous bool) *models.Feedback {
	t.Helper()
	f, err := e.feedback.Submit(context.Background(), caller, SubmitInput{
		CategoryID:  e.category.ID,
		Subject:     "Broken projector",
		Content:     "The projector in room 101 does not work",
		IsAnonymous: anonymous,
	})
	require.NoError(t, err)
	return f
}

func (e *testEnv) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(model).Count(&count).Error)
	return count
}

func (e *testEnv) notificationsFor(t *testing.T, userID uint64, typ models.NotificationType) []models.Notification {
	t.Helper()
	var items []models.Notification
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", userID, typ).Find(&items).Error)
	return items
}

func (e *testEnv) uploadedFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(e.uploadDir)
	require.NoError(t, err)
	return entries
}

var errBoom = errors.New("boom")

// failingNotificationRepo fails every write
type failingNotificationRepo struct {
	repository.NotificationRepository
}

func (failingNotificationRepo) CreateBatch(context.Context, []models.Notification) error {
	return errBoom
}

// failingFeedbackRepo fails the feedback insert
type failingFeedbackRepo struct {
	repository.FeedbackRepository
}

func (failingFeedbackRepo) CreateWithAttachments(context.Context, *models.Feedback, []models.Attachment) error {
	return errBoom
}

// stubDrafter records its input and returns a fixed draft
type stubDrafter struct {
	got   DraftInput
	draft string
	err   error
}

func (s *stubDrafter) DraftResponse(_ context.Context, in DraftInput) (string, error) {
	s.got = in
	return s.draft, s.err
}
