package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository is the document ledger.
type Repository interface {
	Insert(ctx context.Context, doc *models.UploadedDocument) error
	GetByID(ctx context.Context, id string) (*models.UploadedDocument, error)
	Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.UploadedDocument, error)
	ListByUser(ctx context.Context, ownerID string) ([]models.UploadedDocument, error)
	PathInUse(ctx context.Context, filePath string) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// documentRow carries the details column, which is stored as JSON text.
type documentRow struct {
	models.UploadedDocument
	DetailsJSON sql.NullString `db:"details"`
}

func (r documentRow) toModel() (*models.UploadedDocument, error) {
	doc := r.UploadedDocument
	if r.DetailsJSON.Valid && r.DetailsJSON.String != "" {
		var details models.LoanDetails
		if err := json.Unmarshal([]byte(r.DetailsJSON.String), &details); err != nil {
			return nil, fmt.Errorf("decode details for %s: %w", doc.ID, err)
		}
		doc.Details = &details
	}
	return &doc, nil
}

const selectColumns = `id, owner_id, file_name, file_path, file_size, mime_type, status, extracted_text, summary, details, language, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, doc *models.UploadedDocument) error {
	details, err := marshalDetails(doc.Details)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO loan_documents (id, owner_id, file_name, file_path, file_size, mime_type, status,
		                            extracted_text, summary, details, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.FileName,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		string(doc.Status),
		doc.ExtractedText,
		doc.Summary,
		details,
		doc.Language,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.UploadedDocument, error) {
	return r.get(ctx, r.db, id)
}

func (r *repository) get(ctx context.Context, q sqlx.QueryerContext, id string) (*models.UploadedDocument, error) {
	var row documentRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+selectColumns+` FROM loan_documents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// Update applies patch to the record. A patch that would move a processed
// record back to uploaded is rejected with ErrInvalidTransition.
func (r *repository) Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.UploadedDocument, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := r.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		if !patch.Status.Valid() || !current.Status.CanTransition(*patch.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, *patch.Status)
		}
	}

	if patch.UpdatedAt == nil {
		now := time.Now().UTC()
		patch.UpdatedAt = &now
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.ExtractedText != nil {
		add("extracted_text", *patch.ExtractedText)
	}
	if patch.Summary != nil {
		add("summary", *patch.Summary)
	}
	if patch.Details != nil {
		details, err := marshalDetails(patch.Details)
		if err != nil {
			return nil, err
		}
		add("details", details)
	}
	if patch.Language != nil {
		add("language", *patch.Language)
	}
	add("updated_at", *patch.UpdatedAt)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE loan_documents SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	// The status read above may be stale by now; only an uploaded row may
	// be written as uploaded.
	guarded := patch.Status != nil && *patch.Status == models.StatusUploaded
	if guarded {
		args = append(args, string(models.StatusUploaded))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if guarded {
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, models.StatusProcessed, models.StatusUploaded)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	patch.Apply(current)
	return current, nil
}

// ListByUser returns the owner's documents, newest first.
func (r *repository) ListByUser(ctx context.Context, ownerID string) ([]models.UploadedDocument, error) {
	var rows []documentRow
	query := `SELECT ` + selectColumns + ` FROM loan_documents WHERE owner_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, err
	}

	docs := make([]models.UploadedDocument, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toModel()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// PathInUse reports whether any record points at filePath.
func (r *repository) PathInUse(ctx context.Context, filePath string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM loan_documents WHERE file_path = $1`, filePath); err != nil {
		return false, err
	}
	return n > 0, nil
}

func marshalDetails(details *models.LoanDetails) (*string, error) {
	if details == nil {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	s := string(raw)
	return &s, nil
}
