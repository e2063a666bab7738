package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooManyFiles    = errors.New("too many attachments")
	ErrFileTooLarge    = errors.New("attachment exceeds the maximum file size")
	ErrUnsupportedType = errors.New("attachment type is not allowed")
	ErrInvalidName     = errors.New("invalid stored file name")
)

// AllowedMimeTypes is the attachment allow-list
var AllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Upload is an incoming file that passed validation
type Upload struct {
	Header   *multipart.FileHeader
	MimeType string
}

// StoredFile describes a file written to the upload directory
type StoredFile struct {
	FileName     string
	OriginalName string
	Path         string
	Size         int64
	MimeType     string
}

// LocalStore keeps attachments on the local filesystem under one directory
type LocalStore struct {
	dir         string
	maxFileSize int64
	maxFiles    int
}

func NewLocalStore(dir string, maxFileSize int64, maxFiles int) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	// Word and OOXML markers can sit past mimetype's default 3 KiB window.
	// sniff bounds the read by maxFileSize instead.
	mimetype.SetLimit(0)
	return &LocalStore{dir: dir, maxFileSize: maxFileSize, maxFiles: maxFiles}, nil
}

// Validate checks the count, size and sniffed content type of every file
// before anything is written.
func (s *LocalStore) Validate(files []*multipart.FileHeader) ([]Upload, error) {
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("%w: at most %d files", ErrTooManyFiles, s.maxFiles)
	}

	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > s.maxFileSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
		}

		mimeType, err := s.sniff(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, Upload{Header: fh, MimeType: mimeType})
	}
	return uploads, nil
}

func (s *LocalStore) sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(io.LimitReader(f, s.maxFileSize))
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}

	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range AllowedMimeTypes {
			if m.Is(allowed) {
				return allowed, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, fh.Filename, detected.String())
}

// Save writes an upload under a fresh uuid-based name
func (s *LocalStore) Save(u Upload) (*StoredFile, error) {
	original := filepath.Base(u.Header.Filename)
	name := uuid.New().String() + strings.ToLower(filepath.Ext(original))
	path := filepath.Join(s.dir, name)

	src, err := u.Header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &StoredFile{
		FileName:     name,
		OriginalName: original,
		Path:         path,
		Size:         size,
		MimeType:     u.MimeType,
	}, nil
}

// SaveAll writes every upload; on failure the files already written are removed.
func (s *LocalStore) SaveAll(uploads []Upload) ([]StoredFile, error) {
	stored := make([]StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.Save(u)
		if err != nil {
			s.RemoveAll(stored)
			return nil, err
		}
		stored = append(stored, *f)
	}
	return stored, nil
}

// Remove deletes a stored file; a missing file is not an error
func (s *LocalStore) Remove(fileName string) error {
	path, err := s.Path(fileName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll deletes stored files, ignoring individual failures
func (s *LocalStore) RemoveAll(files []StoredFile) {
	for _, f := range files {
		_ = s.Remove(f.FileName)
	}
}

// Path resolves a stored name inside the upload directory
func (s *LocalStore) Path(fileName string) (string, error) {
	if fileName == "" || fileName == "." || fileName == ".." || filepath.Base(fileName) != fileName {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, fileName), nil
}

// Open opens a stored file for reading
func (s *LocalStore) Open(fileName string) (*os.File, error) {
	path, err := s.Path(fileName)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
