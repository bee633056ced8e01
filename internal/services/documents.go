package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/repository"
	"github.com/BerylCAtieno/loanmitra/internal/storage"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// AllowedMimeTypes are the document types accepted for upload.
var AllowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type DocumentService interface {
	UploadObject(ctx context.Context, user models.User, bucket, key string, data []byte, contentType string) (string, error)
	DownloadObject(ctx context.Context, user models.User, bucket, key string) ([]byte, error)
	CreateDocument(ctx context.Context, user models.User, req *models.NewDocumentRequest) (*models.UploadedDocument, error)
	UpdateDocument(ctx context.Context, user models.User, id string, patch models.DocumentPatch) (*models.UploadedDocument, error)
	GetDocument(ctx context.Context, user models.User, id string) (*models.UploadedDocument, error)
	ListDocuments(ctx context.Context, user models.User) ([]models.UploadedDocument, error)
}

type documentService struct {
	repo        repository.Repository
	storage     storage.Storage
	maxFileSize int64
	logger      *utils.Logger
	now         func() time.Time
}

func NewDocumentService(repo repository.Repository, store storage.Storage, maxFileSize int64, logger *utils.Logger) DocumentService {
	return &documentService{
		repo:        repo,
		storage:     store,
		maxFileSize: maxFileSize,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func ownsKey(user models.User, key string) bool {
	return strings.HasPrefix(key, user.ID+"/")
}

func (s *documentService) UploadObject(ctx context.Context, user models.User, bucket, key string, data []byte, contentType string) (string, error) {
	if bucket != s.storage.Bucket() {
		return "", utils.NewNotFoundError(fmt.Sprintf("Bucket '%s' not found", bucket))
	}

	clean, err := storage.CleanKey(key)
	if err != nil {
		return "", utils.NewBadRequestError("Invalid object path")
	}
	if !ownsKey(user, clean) {
		s.logger.Warn("Rejected upload outside user prefix", "user_id", user.ID, "key", clean)
		return "", utils.NewForbiddenError("Object path must start with your user id")
	}

	if len(data) == 0 {
		return "", utils.NewBadRequestError("Uploaded file is empty")
	}
	if int64(len(data)) > s.maxFileSize {
		return "", utils.NewBadRequestError(fmt.Sprintf("File size exceeds %d bytes limit", s.maxFileSize))
	}

	if err := s.storage.Upload(ctx, clean, data, contentType); err != nil {
		s.logger.Error("Failed to store object", "error", err, "key", clean)
		return "", utils.NewInternalError("Failed to store document")
	}

	s.logger.Info("Object stored", "bucket", bucket, "key", clean, "size", len(data))
	return clean, nil
}

// DownloadObject returns an object under the caller's own prefix. Other
// users' objects look missing.
func (s *documentService) DownloadObject(ctx context.Context, user models.User, bucket, key string) ([]byte, error) {
	if bucket != s.storage.Bucket() {
		return nil, utils.NewNotFoundError(fmt.Sprintf("Bucket '%s' not found", bucket))
	}
	clean, err := storage.CleanKey(key)
	if err != nil {
		return nil, utils.NewBadRequestError("Invalid object path")
	}
	if !ownsKey(user, clean) {
		return nil, utils.NewNotFoundError("Object not found")
	}

	data, err := s.storage.Download(ctx, clean)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, utils.NewNotFoundError("Object not found")
	}
	if err != nil {
		s.logger.Error("Failed to read object", "error", err, "key", clean)
		return nil, utils.NewInternalError("Failed to read document")
	}
	return data, nil
}

func (s *documentService) CreateDocument(ctx context.Context, user models.User, req *models.NewDocumentRequest) (*models.UploadedDocument, error) {
	if req == nil || strings.TrimSpace(req.FileName) == "" || req.FilePath == "" {
		return nil, utils.NewBadRequestError("file_name and file_path are required")
	}
	if !AllowedMimeTypes[req.MimeType] {
		return nil, utils.NewBadRequestError("Only PDF, JPEG and PNG files are allowed")
	}
	if req.FileSize <= 0 || req.FileSize > s.maxFileSize {
		return nil, utils.NewBadRequestError("File size must be between 1 byte and the upload limit")
	}
	clean, err := storage.CleanKey(req.FilePath)
	if err != nil || clean != req.FilePath {
		return nil, utils.NewBadRequestError("Invalid file_path")
	}
	if !ownsKey(user, clean) {
		return nil, utils.NewForbiddenError("file_path must start with your user id")
	}

	now := s.now()
	doc := &models.UploadedDocument{
		ID:        utils.GenerateID(),
		OwnerID:   user.ID,
		FileName:  req.FileName,
		FilePath:  clean,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
		Status:    models.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, doc); err != nil {
		used, lerr := s.repo.PathInUse(ctx, clean)
		if lerr == nil && used {
			s.logger.Warn("Document already recorded for path", "error", err, "file_path", clean)
			return nil, utils.NewBadRequestError("file_path is already recorded")
		}
		s.logger.Error("Failed to save document to database", "error", err, "file_path", clean)
		// The object is unreachable without a ledger record. Leave it alone
		// when the lookup failed, since another record may still point at it.
		if lerr != nil {
			s.logger.Warn("Keeping object, could not check ledger", "error", lerr, "file_path", clean)
		} else if derr := s.storage.Delete(ctx, clean); derr != nil {
			s.logger.Warn("Failed to remove orphaned object", "error", derr, "file_path", clean)
		}
		return nil, utils.NewInternalError("Failed to save document metadata")
	}

	s.logger.Info("Document recorded", "id", doc.ID, "owner_id", user.ID, "file_name", doc.FileName)
	return doc, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, user models.User, id string, patch models.DocumentPatch) (*models.UploadedDocument, error) {
	if _, err := s.GetDocument(ctx, user, id); err != nil {
		return nil, err
	}

	doc, err := s.repo.Update(ctx, id, patch)
	switch {
	case errors.Is(err, repository.ErrInvalidTransition):
		return nil, utils.NewBadRequestError("Document status can only move from uploaded to processed")
	case errors.Is(err, repository.ErrNotFound):
		return nil, utils.NewNotFoundError("Document not found")
	case err != nil:
		s.logger.Error("Failed to update document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to update document")
	}

	s.logger.Info("Document updated", "id", id, "status", doc.Status)
	return doc, nil
}

// GetDocument hides other users' documents behind a not-found error.
func (s *documentService) GetDocument(ctx context.Context, user models.User, id string) (*models.UploadedDocument, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if doc.OwnerID != user.ID {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return doc, nil
}

func (s *documentService) ListDocuments(ctx context.Context, user models.User) ([]models.UploadedDocument, error) {
	docs, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "owner_id", user.ID)
		return nil, utils.NewInternalError("Failed to list documents")
	}
	return docs, nil
}
