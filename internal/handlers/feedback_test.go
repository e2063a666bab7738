package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	"github.com/yukikurage/faculty-feedback-api/internal/dto"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
	"github.com/yukikurage/faculty-feedback-api/internal/storage"
	"github.com/yukikurage/faculty-feedback-api/internal/testutil"
	"github.com/yukikurage/faculty-feedback-api/internal/validation"
)

// FeedbackHandlerTestSuite defines the test suite for FeedbackHandler
type FeedbackHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	handler  *FeedbackHandler
	service  *services.FeedbackService
	router   *gin.Engine
	category *models.Category
	student  *models.User
	admin    *models.User
}

// SetupTest runs before each test
func (suite *FeedbackHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(validation.Register())

	suite.db = testutil.NewDB(suite.T())
	store, err := storage.NewLocalStore(suite.T().TempDir(), 1<<20, 5)
	suite.Require().NoError(err)

	repo := repository.New(suite.db)
	notifications := services.NewNotificationService(repo.Notification, repo.User, zap.NewNop())
	suite.service = services.NewFeedbackService(repo, store, notifications, nil, zap.NewNop())
	suite.handler = NewFeedbackHandler(suite.service)

	suite.category = testutil.CreateCategory(suite.T(), suite.db, "Facilities", true)
	suite.student = testutil.CreateUser(suite.T(), suite.db, "Student", "student@example.com", models.RoleEndUser)
	suite.admin = testutil.CreateUser(suite.T(), suite.db, "Admin", "admin@example.com", models.RoleFacultyAdmin)

	suite.router = gin.New()
	suite.router.POST("/api/feedback", suite.handler.SubmitFeedback)
}

// createAuthContext builds a context as RequireAuth leaves it
func (suite *FeedbackHandlerTestSuite) createAuthContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUser, user)
	c.Set(constants.ContextKeyUserID, user.ID)

	return c, w
}

func (suite *FeedbackHandlerTestSuite) postMultipart(fields map[string]string, files ...testutil.File) *httptest.ResponseRecorder {
	body, contentType := testutil.MultipartBody(suite.T(), fields, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *FeedbackHandlerTestSuite) fields(anonymous bool) map[string]string {
	return map[string]string{
		"categoryId":  strconv.FormatUint(suite.category.ID, 10),
		"subject":     "Broken projector",
		"content":     "The projector in room 101 does not work",
		"isAnonymous": strconv.FormatBool(anonymous),
	}
}

func (suite *FeedbackHandlerTestSuite) feedbackCount() int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(&models.Feedback{}).Count(&count).Error)
	return count
}

func (suite *FeedbackHandlerTestSuite) TestSubmit_AnonymousMultipart() {
	w := suite.postMultipart(suite.fields(true), testutil.File{Name: "photo.png", Content: testutil.PNGBytes})

	suite.Equal(http.StatusCreated, w.Code)

	var response dto.FeedbackSummaryDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.True(response.IsAnonymous)
	suite.Equal(models.FeedbackStatusSubmitted, response.Status)

	var stored models.Feedback
	suite.Require().NoError(suite.db.Preload("Attachments").First(&stored, response.ID).Error)
	suite.Nil(stored.UserID)
	suite.Len(stored.Attachments, 1)
}

func (suite *FeedbackHandlerTestSuite) TestSubmit_JSON() {
	body := []byte(`{"category_id":` + strconv.FormatUint(suite.category.ID, 10) + `,"content":"No files attached"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)
	suite.Equal(int64(1), suite.feedbackCount())
}

func (suite *FeedbackHandlerTestSuite) TestSubmit_TooManyFiles() {
	files := make([]testutil.File, 6)
	for i := range files {
		files[i] = testutil.File{Name: "photo.png", Content: testutil.PNGBytes}
	}

	w := suite.postMultipart(suite.fields(false), files...)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("TOO_MANY_ATTACHMENTS", errorCode(suite.T(), w))
	suite.Zero(suite.feedbackCount())
}

func (suite *FeedbackHandlerTestSuite) TestSubmit_UnsupportedType() {
	w := suite.postMultipart(suite.fields(false), testutil.File{Name: "notes.txt", Content: testutil.TextBytes})

	suite.Equal(http.StatusUnsupportedMediaType, w.Code)
	suite.Zero(suite.feedbackCount())
}

func (suite *FeedbackHandlerTestSuite) TestSubmit_InvalidInput() {
	fields := suite.fields(false)
	delete(fields, "content")
	w := suite.postMultipart(fields)
	suite.Equal(http.StatusBadRequest, w.Code)

	fields = suite.fields(false)
	fields["categoryId"] = "9999"
	w = suite.postMultipart(fields)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.Zero(suite.feedbackCount())
}

func (suite *FeedbackHandlerTestSuite) TestGetFeedback_Forbidden() {
	other := testutil.CreateUser(suite.T(), suite.db, "Other", "other@example.com", models.RoleEndUser)
	f, err := suite.service.Submit(context.Background(), suite.student, services.SubmitInput{
		CategoryID: suite.category.ID,
		Content:    "Mine",
	})
	suite.Require().NoError(err)

	c, w := suite.createAuthContext(http.MethodGet, "/api/feedback/1", nil, other)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(f.ID, 10)}}
	suite.handler.GetFeedback(c)
	suite.Equal(http.StatusForbidden, w.Code)

	c, w = suite.createAuthContext(http.MethodGet, "/api/feedback/1", nil, suite.student)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(f.ID, 10)}}
	suite.handler.GetFeedback(c)
	suite.Equal(http.StatusOK, w.Code)

	var response dto.FeedbackDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("Mine", response.Content)
	suite.NotNil(response.Responses)
	suite.NotNil(response.Attachments)

	c, w = suite.createAuthContext(http.MethodGet, "/api/feedback/abc", nil, suite.student)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	suite.handler.GetFeedback(c)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *FeedbackHandlerTestSuite) TestUpdateStatus() {
	f, err := suite.service.Submit(context.Background(), suite.student, services.SubmitInput{
		CategoryID: suite.category.ID,
		Content:    "Please fix",
	})
	suite.Require().NoError(err)
	id := strconv.FormatUint(f.ID, 10)

	c, w := suite.createAuthContext(http.MethodPatch, "/api/feedback/"+id+"/status", []byte(`{"status":"archived"}`), suite.admin)
	c.Params = gin.Params{{Key: "id", Value: id}}
	suite.handler.UpdateStatus(c)
	suite.Equal(http.StatusBadRequest, w.Code)

	var invalid struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &invalid))
	suite.Equal("INVALID_INPUT", invalid.Code)
	suite.Equal(map[string]string{"status": "feedback_status"}, invalid.Details)

	c, w = suite.createAuthContext(http.MethodPatch, "/api/feedback/"+id+"/status", []byte(`{"status":"completed"}`), suite.admin)
	c.Params = gin.Params{{Key: "id", Value: id}}
	suite.handler.UpdateStatus(c)
	suite.Equal(http.StatusOK, w.Code)

	var response dto.FeedbackSummaryDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(models.FeedbackStatusCompleted, response.Status)
}

func (suite *FeedbackHandlerTestSuite) TestListFeedback_Pagination() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.Submit(context.Background(), nil, services.SubmitInput{
			CategoryID:  suite.category.ID,
			Content:     "Anonymous note",
			IsAnonymous: true,
		})
		suite.Require().NoError(err)
	}

	c, w := suite.createAuthContext(http.MethodGet, "/api/feedback?page=2&limit=2", nil, suite.admin)
	suite.handler.ListFeedback(c)

	suite.Equal(http.StatusOK, w.Code)
	var response dto.FeedbackListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Len(response.Feedback, 1)
	suite.Equal(int64(3), response.Pagination.Total)
	suite.Equal(2, response.Pagination.TotalPages)
	for _, item := range response.Feedback {
		suite.Nil(item.User)
		suite.Nil(item.UserID)
	}

	c, w = suite.createAuthContext(http.MethodGet, "/api/feedback?status=bogus", nil, suite.admin)
	suite.handler.ListFeedback(c)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestFeedbackHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(FeedbackHandlerTestSuite))
}

func TestRespondFeedbackError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[error]int{
		storage.ErrTooManyFiles:            http.StatusBadRequest,
		storage.ErrFileTooLarge:            http.StatusRequestEntityTooLarge,
		storage.ErrUnsupportedType:         http.StatusUnsupportedMediaType,
		services.ErrFeedbackNotFound:       http.StatusNotFound,
		services.ErrFeedbackAccessDenied:   http.StatusForbidden,
		services.ErrAIServiceNotConfigured: http.StatusServiceUnavailable,
		services.ErrInvalidAssignedUnit:    http.StatusBadRequest,
		assert.AnError:                     http.StatusInternalServerError,
	}
	for err, status := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondFeedbackError(c, err)
		assert.Equal(t, status, w.Code, err.Error())
	}
}
