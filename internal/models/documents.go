package models

import (
	"time"
)

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusProcessed DocumentStatus = "processed"
)

// CanTransition reports whether a ledger record may move from s to next.
// Records only ever move forward: uploaded -> processed.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	if s == next {
		return true
	}
	return s == StatusUploaded && next == StatusProcessed
}

func (s DocumentStatus) Valid() bool {
	return s == StatusUploaded || s == StatusProcessed
}

// UploadedDocument is one row of the document ledger.
type UploadedDocument struct {
	ID            string         `json:"id" db:"id"`
	OwnerID       string         `json:"owner_id" db:"owner_id"`
	FileName      string         `json:"file_name" db:"file_name"`
	FilePath      string         `json:"file_path" db:"file_path"`
	FileSize      int64          `json:"file_size" db:"file_size"`
	MimeType      string         `json:"mime_type" db:"mime_type"`
	Status        DocumentStatus `json:"status" db:"status"`
	ExtractedText *string        `json:"extracted_text,omitempty" db:"extracted_text"`
	Summary       *string        `json:"summary,omitempty" db:"summary"`
	Details       *LoanDetails   `json:"details,omitempty" db:"-"`
	Language      *string        `json:"language,omitempty" db:"language"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// LoanDetails holds the key terms the summarizer pulls out of a loan
// document. Any field the model could not find stays nil.
type LoanDetails struct {
	LoanAmount         *string `json:"loan_amount,omitempty"`
	InterestRate       *string `json:"interest_rate,omitempty"`
	Tenure             *string `json:"tenure,omitempty"`
	EMI                *string `json:"emi,omitempty"`
	ProcessingFee      *string `json:"processing_fee,omitempty"`
	PenaltyCharges     *string `json:"penalty_charges,omitempty"`
	ForeclosureCharges *string `json:"foreclosure_charges,omitempty"`
}

// Empty reports whether no field was extracted.
func (d *LoanDetails) Empty() bool {
	if d == nil {
		return true
	}
	return d.LoanAmount == nil && d.InterestRate == nil && d.Tenure == nil && d.EMI == nil &&
		d.ProcessingFee == nil && d.PenaltyCharges == nil && d.ForeclosureCharges == nil
}

// NewDocumentRequest is the ledger insert payload. The owner comes from the
// caller's identity, never from the body.
type NewDocumentRequest struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// DocumentPatch is the ledger update payload. Nil fields are left unchanged.
type DocumentPatch struct {
	Status        *DocumentStatus `json:"status,omitempty"`
	ExtractedText *string         `json:"extracted_text,omitempty"`
	Summary       *string         `json:"summary,omitempty"`
	Details       *LoanDetails    `json:"details,omitempty"`
	Language      *string         `json:"language,omitempty"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// Apply merges the patch into doc.
func (p DocumentPatch) Apply(doc *UploadedDocument) {
	if p.Status != nil {
		doc.Status = *p.Status
	}
	if p.ExtractedText != nil {
		doc.ExtractedText = p.ExtractedText
	}
	if p.Summary != nil {
		doc.Summary = p.Summary
	}
	if p.Details != nil {
		doc.Details = p.Details
	}
	if p.Language != nil {
		doc.Language = p.Language
	}
	if p.UpdatedAt != nil {
		doc.UpdatedAt = *p.UpdatedAt
	}
}
