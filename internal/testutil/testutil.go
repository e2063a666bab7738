// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/database"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
)

// Sample file contents whose types are recognised by content sniffing
var (
	PNGBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	PDFBytes  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	TextBytes = []byte("just some plain text, not an allowed attachment\n")
)

// NewDB opens a migrated in-memory SQLite database that is closed with the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Feedback{},
		&models.Response{},
		&models.Attachment{},
		&models.Notification{},
	))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateUser inserts an active user whose password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, name, email string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, name string, active bool) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Description: name + " issues", IsActive: active}
	require.NoError(t, db.Create(category).Error)
	if !active {
		require.NoError(t, db.Model(category).Update("is_active", false).Error)
	}
	return category
}

// File is one part of a generated multipart upload
type File struct {
	Name    string
	Content []byte
}

// FileHeaders builds multipart file headers for files, as a parsed request would carry them.
func FileHeaders(t *testing.T, files ...File) []*multipart.FileHeader {
	t.Helper()
	if len(files) == 0 {
		return nil
	}

	body, contentType := MultipartBody(t, nil, files...)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["attachments"]
}

// MultipartBody encodes fields and files as a multipart/form-data body.
// Files are sent under the "attachments" field.
func MultipartBody(t *testing.T, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile("attachments", f.Name)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}
