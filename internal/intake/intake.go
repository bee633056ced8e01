// Package intake validates a chosen loan document, stores it and records it
// in the ledger.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

const (
	Bucket      = "loan-documents"
	MaxFileSize = 10 * 1024 * 1024
)

var (
	ErrInvalidType      = fmt.Errorf("%w: only PDF, JPEG and PNG files are allowed", utils.ErrValidation)
	ErrTooLarge         = fmt.Errorf("%w: file is larger than 10 MB", utils.ErrValidation)
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

var extensions = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

// File is a document picked by the user.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

func (f *File) Size() int64 { return int64(len(f.Data)) }

type ContentStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
}

type Ledger interface {
	InsertDocument(ctx context.Context, req *models.NewDocumentRequest) (*models.UploadedDocument, error)
}

type Intake struct {
	store    ContentStore
	ledger   Ledger
	notifier notify.Notifier
	logger   *utils.Logger
	now      func() time.Time

	uploading atomic.Bool

	mu      sync.Mutex
	pending *File
}

func New(store ContentStore, ledger Ledger, notifier notify.Notifier, logger *utils.Logger) *Intake {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Intake{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Validate checks type and size without touching any state.
func Validate(f *File) error {
	if f == nil {
		return fmt.Errorf("%w: no file selected", utils.ErrValidation)
	}
	if _, ok := extensions[f.MimeType]; !ok {
		return ErrInvalidType
	}
	if f.Size() > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// SelectFile makes f the pending candidate when it is valid. An invalid file
// leaves the previous candidate in place.
func (in *Intake) SelectFile(f *File) error {
	if err := Validate(f); err != nil {
		return err
	}
	in.mu.Lock()
	in.pending = f
	in.mu.Unlock()
	return nil
}

func (in *Intake) Pending() *File {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pending
}

func (in *Intake) Uploading() bool {
	return in.uploading.Load()
}

// ObjectKey is {userId}/{unixMillis}.{ext}.
func ObjectKey(userID string, f *File, at time.Time) string {
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), extension(f))
}

func extension(f *File) string {
	if i := strings.LastIndex(f.Name, "."); i >= 0 && i < len(f.Name)-1 {
		return f.Name[i+1:]
	}
	return extensions[f.MimeType]
}

// Upload stores f and records it with status uploaded. Only one upload runs
// at a time; failures are reported once and not retried.
func (in *Intake) Upload(ctx context.Context, f *File, user *models.User) (*models.UploadedDocument, error) {
	if user == nil || user.ID == "" {
		return nil, utils.ErrAuthRequired
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	if !in.uploading.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}
	defer in.uploading.Store(false)

	key := ObjectKey(user.ID, f, in.now())

	if err := in.store.Upload(ctx, Bucket, key, f.Data, f.MimeType); err != nil {
		return nil, in.fail("Failed to upload the document", err, "key", key)
	}

	doc, err := in.ledger.InsertDocument(ctx, &models.NewDocumentRequest{
		FileName: f.Name,
		FilePath: key,
		FileSize: f.Size(),
		MimeType: f.MimeType,
	})
	if err != nil {
		return nil, in.fail("Failed to save document details", err, "key", key)
	}

	in.mu.Lock()
	in.pending = nil
	in.mu.Unlock()

	in.logger.Info("Document uploaded", "id", doc.ID, "path", key, "size", f.Size())
	in.notifier.Notify(notify.Notice{Kind: notify.Info, Title: "Upload successful", Message: f.Name + " uploaded"})
	return doc, nil
}

func (in *Intake) fail(title string, err error, args ...any) error {
	in.logger.Error(title, append(args, "error", err)...)
	in.notifier.Notify(notify.Notice{Kind: notify.Error, Title: title, Message: err.Error()})
	return fmt.Errorf("%s: %w", strings.ToLower(title[:1])+title[1:], err)
}
