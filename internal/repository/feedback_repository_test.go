package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/testutil"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

type FeedbackRepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	repo     *Repository
	ctx      context.Context
	student  *models.User
	admin    *models.User
	unit     *models.User
	category *models.Category
}

func (s *FeedbackRepositoryTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.repo = New(s.db)
	s.ctx = context.Background()

	s.student = testutil.CreateUser(s.T(), s.db, "Student", "student@example.com", models.RoleEndUser)
	s.admin = testutil.CreateUser(s.T(), s.db, "Admin", "admin@example.com", models.RoleFacultyAdmin)
	s.unit = testutil.CreateUser(s.T(), s.db, "IT Office", "it@example.com", models.RoleRelatedUnit)
	s.category = testutil.CreateCategory(s.T(), s.db, "Facilities", true)
}

func (s *FeedbackRepositoryTestSuite) createFeedback(userID *uint64, status models.FeedbackStatus, submitted time.Time) *models.Feedback {
	f := &models.Feedback{
		UserID:         userID,
		CategoryID:     s.category.ID,
		Subject:        "Broken projector",
		Content:        "The projector in room 101 does not work",
		Status:         status,
		SubmissionDate: submitted,
		UpdatedAt:      submitted,
	}
	s.Require().NoError(s.repo.Feedback.CreateWithAttachments(s.ctx, f, nil))
	return f
}

func (s *FeedbackRepositoryTestSuite) TestCreateWithAttachments() {
	f := &models.Feedback{
		UserID:     &s.student.ID,
		CategoryID: s.category.ID,
		Content:    "Leaking roof",
		Status:     models.FeedbackStatusSubmitted,
	}
	attachments := []models.Attachment{
		{FileName: "a.png", OriginalName: "photo.png", FilePath: "/tmp/a.png", FileSize: 10, MimeType: "image/png"},
		{FileName: "b.pdf", OriginalName: "report.pdf", FilePath: "/tmp/b.pdf", FileSize: 20, MimeType: "application/pdf"},
	}

	s.Require().NoError(s.repo.Feedback.CreateWithAttachments(s.ctx, f, attachments))
	s.NotZero(f.ID)
	s.False(f.SubmissionDate.IsZero())

	found, err := s.repo.Feedback.FindByID(s.ctx, f.ID, "Attachments", "Category")
	s.Require().NoError(err)
	s.Len(found.Attachments, 2)
	s.Equal("Facilities", found.Category.Name)

	attachment, err := s.repo.Feedback.FindAttachment(s.ctx, f.ID, found.Attachments[0].ID)
	s.Require().NoError(err)
	s.Equal(f.ID, attachment.FeedbackID)

	_, err = s.repo.Feedback.FindAttachment(s.ctx, f.ID+1, found.Attachments[0].ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	items, _, err := s.repo.Feedback.List(s.ctx, FeedbackFilter{Pagination: utils.NewPaginationParams(1, 10, 10)})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Len(items[0].Attachments, 2)
}

func (s *FeedbackRepositoryTestSuite) TestList_FiltersAndOrder() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := s.createFeedback(&s.student.ID, models.FeedbackStatusSubmitted, base)
	newer := s.createFeedback(&s.student.ID, models.FeedbackStatusCompleted, base.Add(time.Hour))
	s.createFeedback(nil, models.FeedbackStatusSubmitted, base.Add(2*time.Hour))

	params := utils.NewPaginationParams(1, 10, 10)

	items, total, err := s.repo.Feedback.List(s.ctx, FeedbackFilter{UserID: &s.student.ID, Pagination: params})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(items, 2)
	s.Equal(newer.ID, items[0].ID)
	s.Equal(older.ID, items[1].ID)
	s.Require().NotNil(items[0].User)
	s.Equal("Student", items[0].User.Name)

	status := models.FeedbackStatusSubmitted
	items, total, err = s.repo.Feedback.List(s.ctx, FeedbackFilter{Status: &status, Pagination: params})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	for _, item := range items {
		s.Equal(models.FeedbackStatusSubmitted, item.Status)
	}

	other := s.category.ID + 100
	items, total, err = s.repo.Feedback.List(s.ctx, FeedbackFilter{CategoryID: &other, Pagination: params})
	s.Require().NoError(err)
	s.Zero(total)
	s.NotNil(items)
	s.Empty(items)
}

func (s *FeedbackRepositoryTestSuite) TestList_Pagination() {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.createFeedback(nil, models.FeedbackStatusSubmitted, base.Add(time.Duration(i)*time.Minute))
	}

	items, total, err := s.repo.Feedback.List(s.ctx, FeedbackFilter{Pagination: utils.NewPaginationParams(2, 2, 10)})
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(items, 2)
}

func (s *FeedbackRepositoryTestSuite) TestUpdateStatus_AssignsUnit() {
	f := s.createFeedback(&s.student.ID, models.FeedbackStatusSubmitted, time.Now().UTC())

	s.Require().NoError(s.repo.Feedback.UpdateStatus(s.ctx, f.ID, models.FeedbackStatusProcessing, &s.unit.ID))

	unitID := s.unit.ID
	items, total, err := s.repo.Feedback.List(s.ctx, FeedbackFilter{AssignedUnitID: &unitID, Pagination: utils.NewPaginationParams(1, 10, 10)})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(models.FeedbackStatusProcessing, items[0].Status)
	s.Require().NotNil(items[0].AssignedUnit)
	s.Equal("IT Office", items[0].AssignedUnit.Name)

	// a nil unit leaves the assignment untouched
	s.Require().NoError(s.repo.Feedback.UpdateStatus(s.ctx, f.ID, models.FeedbackStatusCompleted, nil))
	found, err := s.repo.Feedback.FindByID(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(models.FeedbackStatusCompleted, found.Status)
	s.Require().NotNil(found.AssignedUnitID)
	s.Equal(s.unit.ID, *found.AssignedUnitID)
}

func (s *FeedbackRepositoryTestSuite) TestAddResponse_AdvancesOnlySubmitted() {
	f := s.createFeedback(&s.student.ID, models.FeedbackStatusSubmitted, time.Now().UTC())

	advanced, err := s.repo.Feedback.AddResponse(s.ctx, &models.Response{FeedbackID: f.ID, AdminID: s.admin.ID, Message: "Looking into it"})
	s.Require().NoError(err)
	s.True(advanced)

	advanced, err = s.repo.Feedback.AddResponse(s.ctx, &models.Response{FeedbackID: f.ID, AdminID: s.admin.ID, Message: "Technician booked"})
	s.Require().NoError(err)
	s.False(advanced)

	found, err := s.repo.Feedback.FindByID(s.ctx, f.ID, "Responses", "Responses.Admin")
	s.Require().NoError(err)
	s.Equal(models.FeedbackStatusProcessing, found.Status)
	s.Require().Len(found.Responses, 2)
	s.Equal("Looking into it", found.Responses[0].Message)
	s.Equal("Admin", found.Responses[0].Admin.Name)
}

func (s *FeedbackRepositoryTestSuite) TestAddResponse_KeepsCompleted() {
	f := s.createFeedback(&s.student.ID, models.FeedbackStatusCompleted, time.Now().UTC())

	advanced, err := s.repo.Feedback.AddResponse(s.ctx, &models.Response{FeedbackID: f.ID, AdminID: s.admin.ID, Message: "Follow-up"})
	s.Require().NoError(err)
	s.False(advanced)

	found, err := s.repo.Feedback.FindByID(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(models.FeedbackStatusCompleted, found.Status)
}

func TestFeedbackRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(FeedbackRepositoryTestSuite))
}

func TestUserRepository_ListActiveIDsByRoles(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", models.RoleFacultyAdmin)
	lead := testutil.CreateUser(t, db, "Dean", "dean@example.com", models.RoleFacultyLeadership)
	inactive := testutil.CreateUser(t, db, "Old Admin", "old@example.com", models.RoleFacultyAdmin)
	testutil.CreateUser(t, db, "Student", "student@example.com", models.RoleEndUser)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	ids, err := repo.ListActiveIDsByRoles(ctx, []models.UserRole{models.RoleFacultyAdmin, models.RoleFacultyLeadership})
	require.NoError(t, err)
	assert.Equal(t, []uint64{admin.ID, lead.ID}, ids)

	ids, err = repo.ListActiveIDsByRoles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserRepository_DuplicateEmail_SQLite(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	testutil.CreateUser(t, db, "A", "dup@example.com", models.RoleEndUser)

	err := repo.Create(context.Background(), &models.User{Name: "B", Email: "dup@example.com", Role: models.RoleEndUser, IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCategoryRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	testutil.CreateCategory(t, db, "Teaching", true)
	testutil.CreateCategory(t, db, "Archived", false)
	testutil.CreateCategory(t, db, "Facilities", true)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Facilities", active[0].Name)
	assert.Equal(t, "Teaching", active[1].Name)

	err = repo.Create(ctx, &models.Category{Name: "Teaching", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}
