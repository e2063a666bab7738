package services

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/storage"
	"github.com/yukikurage/faculty-feedback-api/internal/testutil"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

func TestSubmit_AnonymousStoresNoUser(t *testing.T) {
	env := newTestEnv(t)

	f := env.submit(t, env.student, true)

	assert.Nil(t, f.UserID)
	assert.True(t, f.IsAnonymous)
	assert.Equal(t, models.FeedbackStatusSubmitted, f.Status)

	var stored models.Feedback
	require.NoError(t, env.db.First(&stored, f.ID).Error)
	assert.Nil(t, stored.UserID)
}

func TestSubmit_IdentifiedAndUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	identified := env.submit(t, env.student, false)
	require.NotNil(t, identified.UserID)
	assert.Equal(t, env.student.ID, *identified.UserID)

	guest := env.submit(t, nil, false)
	assert.Nil(t, guest.UserID)
	assert.False(t, guest.IsAnonymous)
}

func TestSubmit_NotifiesReportingRoles(t *testing.T) {
	env := newTestEnv(t)

	f := env.submit(t, nil, true)

	for _, recipient := range []*models.User{env.admin, env.lead} {
		items := env.notificationsFor(t, recipient.ID, models.NotificationFeedbackSubmitted)
		require.Len(t, items, 1)
		assert.Equal(t, TitleFeedbackSubmitted, items[0].Title)
		assert.Equal(t, "A new feedback has been submitted: Broken projector", items[0].Message)
		require.NotNil(t, items[0].ReferenceID)
		assert.Equal(t, f.ID, *items[0].ReferenceID)
	}
	assert.Empty(t, env.notificationsFor(t, env.unit.ID, models.NotificationFeedbackSubmitted))
	assert.Empty(t, env.notificationsFor(t, env.student.ID, models.NotificationFeedbackSubmitted))
}

func TestSubmit_WithAttachments(t *testing.T) {
	env := newTestEnv(t)

	f, err := env.feedback.Submit(context.Background(), env.student, SubmitInput{
		CategoryID: env.category.ID,
		Content:    "See the photo and report",
		Files: testutil.FileHeaders(t,
			testutil.File{Name: "photo.png", Content: testutil.PNGBytes},
			testutil.File{Name: "report.pdf", Content: testutil.PDFBytes},
		),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), env.countRows(t, &models.Attachment{}))
	assert.Len(t, env.uploadedFiles(t), 2)

	loaded, err := env.feedback.Get(context.Background(), env.student, f.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Attachments, 2)
	assert.Equal(t, "photo.png", loaded.Attachments[0].OriginalName)
	assert.Equal(t, "image/png", loaded.Attachments[0].MimeType)
}

func TestSubmit_TooManyFilesStoresNothing(t *testing.T) {
	env := newTestEnv(t)

	files := make([]testutil.File, 6)
	for i := range files {
		files[i] = testutil.File{Name: "photo.png", Content: testutil.PNGBytes}
	}

	_, err := env.feedback.Submit(context.Background(), env.student, SubmitInput{
		CategoryID: env.category.ID,
		Content:    "Too many photos",
		Files:      testutil.FileHeaders(t, files...),
	})
	assert.ErrorIs(t, err, storage.ErrTooManyFiles)
	assert.Zero(t, env.countRows(t, &models.Feedback{}))
	assert.Zero(t, env.countRows(t, &models.Attachment{}))
	assert.Empty(t, env.uploadedFiles(t))
	assert.Zero(t, env.countRows(t, &models.Notification{}))
}

func TestSubmit_UnsupportedTypeStoresNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feedback.Submit(context.Background(), env.student, SubmitInput{
		CategoryID: env.category.ID,
		Content:    "Text file",
		Files: testutil.FileHeaders(t,
			testutil.File{Name: "photo.png", Content: testutil.PNGBytes},
			testutil.File{Name: "notes.txt", Content: testutil.TextBytes},
		),
	})
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)
	assert.Zero(t, env.countRows(t, &models.Feedback{}))
	assert.Empty(t, env.uploadedFiles(t))
}

func TestSubmit_DatabaseFailureRemovesFiles(t *testing.T) {
	env := newTestEnv(t)
	repo := *env.repo
	repo.Feedback = failingFeedbackRepo{FeedbackRepository: env.repo.Feedback}
	svc := NewFeedbackService(&repo, env.store, env.notifications, nil, env.logger)

	_, err := svc.Submit(context.Background(), env.student, SubmitInput{
		CategoryID: env.category.ID,
		Content:    "With photo",
		Files:      testutil.FileHeaders(t, testutil.File{Name: "photo.png", Content: testutil.PNGBytes}),
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, env.uploadedFiles(t))
	assert.Zero(t, env.countRows(t, &models.Notification{}))
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	inactive := testutil.CreateCategory(t, env.db, "Archived", false)
	ctx := context.Background()

	_, err := env.feedback.Submit(ctx, nil, SubmitInput{CategoryID: env.category.ID, Content: "   "})
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = env.feedback.Submit(ctx, nil, SubmitInput{CategoryID: inactive.ID, Content: "text"})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = env.feedback.Submit(ctx, nil, SubmitInput{CategoryID: 9999, Content: "text"})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	long := make([]rune, 256)
	for i := range long {
		long[i] = 'é'
	}
	_, err = env.feedback.Submit(ctx, nil, SubmitInput{CategoryID: env.category.ID, Subject: string(long), Content: "text"})
	assert.ErrorIs(t, err, ErrSubjectTooLong)

	assert.Zero(t, env.countRows(t, &models.Feedback{}))
}

func TestList_ScopedByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := utils.NewPaginationParams(1, 10, 10)

	own := env.submit(t, env.student, false)
	env.submit(t, env.other, false)
	anon := env.submit(t, env.student, true)

	_, err := env.feedback.UpdateStatus(ctx, env.admin, own.ID, UpdateStatusInput{
		Status:         models.FeedbackStatusProcessing,
		AssignedUnitID: &env.unit.ID,
	})
	require.NoError(t, err)

	items, total, err := env.feedback.List(ctx, env.student, ListInput{Pagination: params})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, own.ID, items[0].ID)

	items, total, err = env.feedback.List(ctx, env.unit, ListInput{Pagination: params})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, own.ID, items[0].ID)

	items, total, err = env.feedback.List(ctx, env.admin, ListInput{Pagination: params})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, item := range items {
		if item.ID == anon.ID {
			assert.Nil(t, item.UserID)
			assert.Nil(t, item.User)
		} else {
			assert.NotNil(t, item.User)
		}
	}

	_, total, err = env.feedback.List(ctx, env.lead, ListInput{Pagination: params})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	status := models.FeedbackStatusProcessing
	_, total, err = env.feedback.List(ctx, env.admin, ListInput{Status: &status, Pagination: params})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	bad := models.FeedbackStatus("archived")
	_, _, err = env.feedback.List(ctx, env.admin, ListInput{Status: &bad, Pagination: params})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	mine, total, err := env.feedback.ListMine(ctx, env.student, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, own.ID, mine[0].ID)
}

func TestGet_AccessRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	own := env.submit(t, env.student, false)
	anon := env.submit(t, nil, true)

	got, err := env.feedback.Get(ctx, env.student, own.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "Student", got.User.Name)
	assert.Equal(t, "Facilities", got.Category.Name)

	_, err = env.feedback.Get(ctx, env.other, own.ID)
	assert.ErrorIs(t, err, ErrFeedbackAccessDenied)

	_, err = env.feedback.Get(ctx, env.student, anon.ID)
	assert.ErrorIs(t, err, ErrFeedbackAccessDenied)

	got, err = env.feedback.Get(ctx, env.admin, anon.ID)
	require.NoError(t, err)
	assert.Nil(t, got.User)
	assert.Nil(t, got.UserID)

	// units are not limited to their assignments when reading one item
	_, err = env.feedback.Get(ctx, env.unit, own.ID)
	assert.NoError(t, err)

	_, err = env.feedback.Get(ctx, env.admin, 9999)
	assert.ErrorIs(t, err, ErrFeedbackNotFound)
}

func TestUpdateStatus_NotifiesOwnerOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.submit(t, env.student, false)

	updated, err := env.feedback.UpdateStatus(ctx, env.admin, f.ID, UpdateStatusInput{
		Status:         models.FeedbackStatusProcessing,
		AssignedUnitID: &env.unit.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusProcessing, updated.Status)
	require.NotNil(t, updated.AssignedUnitID)
	assert.Equal(t, env.unit.ID, *updated.AssignedUnitID)

	changed := env.notificationsFor(t, env.student.ID, models.NotificationStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "Your feedback status has been updated from submitted to processing", changed[0].Message)
	assert.Equal(t, "submitted", changed[0].Metadata["oldStatus"])
	assert.Equal(t, "processing", changed[0].Metadata["newStatus"])

	assigned := env.notificationsFor(t, env.unit.ID, models.NotificationAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, TitleAssigned, assigned[0].Title)

	// a related unit may move it on; last write wins
	_, err = env.feedback.UpdateStatus(ctx, env.unit, f.ID, UpdateStatusInput{Status: models.FeedbackStatusSubmitted})
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(t, env.student.ID, models.NotificationStatusChanged), 2)
}

func TestUpdateStatus_AnonymousHasNoRecipient(t *testing.T) {
	env := newTestEnv(t)
	f := env.submit(t, env.student, true)

	_, err := env.feedback.UpdateStatus(context.Background(), env.admin, f.ID, UpdateStatusInput{Status: models.FeedbackStatusRejected})
	require.NoError(t, err)
	assert.Empty(t, env.notificationsFor(t, env.student.ID, models.NotificationStatusChanged))
}

func TestUpdateStatus_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.submit(t, env.student, false)

	_, err := env.feedback.UpdateStatus(ctx, env.student, f.ID, UpdateStatusInput{Status: models.FeedbackStatusCompleted})
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = env.feedback.UpdateStatus(ctx, env.admin, f.ID, UpdateStatusInput{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.feedback.UpdateStatus(ctx, env.admin, f.ID, UpdateStatusInput{
		Status:         models.FeedbackStatusProcessing,
		AssignedUnitID: &env.other.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidAssignedUnit)

	missing := uint64(9999)
	_, err = env.feedback.UpdateStatus(ctx, env.admin, f.ID, UpdateStatusInput{
		Status:         models.FeedbackStatusProcessing,
		AssignedUnitID: &missing,
	})
	assert.ErrorIs(t, err, ErrInvalidAssignedUnit)

	_, err = env.feedback.UpdateStatus(ctx, env.admin, 9999, UpdateStatusInput{Status: models.FeedbackStatusCompleted})
	assert.ErrorIs(t, err, ErrFeedbackNotFound)

	var stored models.Feedback
	require.NoError(t, env.db.First(&stored, f.ID).Error)
	assert.Equal(t, models.FeedbackStatusSubmitted, stored.Status)
}

func TestUpdateStatus_NotificationFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	notifier := NewNotificationService(failingNotificationRepo{env.repo.Notification}, env.repo.User, env.logger)
	svc := NewFeedbackService(env.repo, env.store, notifier, nil, env.logger)
	f := env.submit(t, env.student, false)

	updated, err := svc.UpdateStatus(context.Background(), env.admin, f.ID, UpdateStatusInput{Status: models.FeedbackStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusCompleted, updated.Status)

	entries := env.logs.FilterMessage("Failed to create notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "status_changed", entries[0].ContextMap()["type"])
}

func TestAddResponse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.submit(t, env.student, false)

	resp, err := env.feedback.AddResponse(ctx, env.admin, f.ID, "  We are on it  ")
	require.NoError(t, err)
	assert.Equal(t, "We are on it", resp.Message)
	assert.Equal(t, "Admin", resp.Admin.Name)

	got, err := env.feedback.Get(ctx, env.student, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusProcessing, got.Status)
	require.Len(t, got.Responses, 1)

	notes := env.notificationsFor(t, env.student.ID, models.NotificationResponseAdded)
	require.Len(t, notes, 1)
	assert.Equal(t, "An admin has responded to your feedback", notes[0].Message)

	_, err = env.feedback.UpdateStatus(ctx, env.admin, f.ID, UpdateStatusInput{Status: models.FeedbackStatusCompleted})
	require.NoError(t, err)
	_, err = env.feedback.AddResponse(ctx, env.unit, f.ID, "Closing note")
	require.NoError(t, err)

	got, err = env.feedback.Get(ctx, env.student, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusCompleted, got.Status)
	assert.Len(t, got.Responses, 2)

	_, err = env.feedback.AddResponse(ctx, env.student, f.ID, "me too")
	assert.ErrorIs(t, err, ErrInsufficientRole)
	_, err = env.feedback.AddResponse(ctx, env.admin, f.ID, "   ")
	assert.ErrorIs(t, err, ErrMessageRequired)
	_, err = env.feedback.AddResponse(ctx, env.admin, 9999, "hello")
	assert.ErrorIs(t, err, ErrFeedbackNotFound)
}

func TestDraftResponse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.submit(t, env.student, false)

	_, err := env.feedback.DraftResponse(ctx, env.admin, f.ID)
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)

	drafter := &stubDrafter{draft: "Thank you for reporting this."}
	svc := NewFeedbackService(env.repo, env.store, env.notifications, drafter, env.logger)

	draft, err := svc.DraftResponse(ctx, env.admin, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thank you for reporting this.", draft)
	assert.Equal(t, DraftInput{
		Category: "Facilities",
		Subject:  "Broken projector",
		Content:  "The projector in room 101 does not work",
		Status:   "submitted",
	}, drafter.got)

	_, err = svc.DraftResponse(ctx, env.student, f.ID)
	assert.ErrorIs(t, err, ErrInsufficientRole)

	drafter.err = errBoom
	_, err = svc.DraftResponse(ctx, env.admin, f.ID)
	assert.ErrorIs(t, err, errBoom)
}

func TestOpenAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f, err := env.feedback.Submit(ctx, env.student, SubmitInput{
		CategoryID: env.category.ID,
		Content:    "See attached",
		Files:      testutil.FileHeaders(t, testutil.File{Name: "report.pdf", Content: testutil.PDFBytes}),
	})
	require.NoError(t, err)
	require.Len(t, f.Attachments, 1)
	attachmentID := f.Attachments[0].ID

	attachment, file, err := env.feedback.OpenAttachment(ctx, env.student, f.ID, attachmentID)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "report.pdf", attachment.OriginalName)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, testutil.PDFBytes, content)

	_, _, err = env.feedback.OpenAttachment(ctx, env.other, f.ID, attachmentID)
	assert.ErrorIs(t, err, ErrFeedbackAccessDenied)

	_, _, err = env.feedback.OpenAttachment(ctx, env.admin, f.ID, attachmentID+1)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

var _ repository.FeedbackRepository = failingFeedbackRepo{}
