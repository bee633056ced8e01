// Package analyzer asks the summarizer for a plain-language summary of a
// loan document and records the result in the ledger.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

type Summarizer interface {
	Summarize(ctx context.Context, req *models.SummarizeRequest) (*models.SummarizeResponse, error)
}

type Translator interface {
	Translate(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error)
}

type LedgerUpdater interface {
	UpdateDocument(ctx context.Context, id string, patch models.DocumentPatch) (*models.UploadedDocument, error)
}

// Result is what Analyze produced for one document.
type Result struct {
	Document *models.UploadedDocument
	Summary  string
	Details  *models.LoanDetails
	Language language.Code
	// Translated is false when pivot mode fell back to the pivot summary.
	Translated bool
}

type Analyzer struct {
	summarizer Summarizer
	translator Translator
	ledger     LedgerUpdater
	logger     *utils.Logger
	now        func() time.Time

	pivot    language.Code
	hasPivot bool
}

type Option func(*Analyzer)

// WithPivot requests every summary in pivot and translates it into the
// target language afterwards.
func WithPivot(pivot language.Code) Option {
	return func(a *Analyzer) {
		a.pivot = language.Normalize(pivot)
		a.hasPivot = true
	}
}

func New(summarizer Summarizer, translator Translator, ledger LedgerUpdater, logger *utils.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		summarizer: summarizer,
		translator: translator,
		ledger:     ledger,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze summarizes text and marks the document processed. A failed
// summary leaves the ledger untouched.
func (a *Analyzer) Analyze(ctx context.Context, documentID, text string, lang language.Code) (*Result, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", utils.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document text is empty", utils.ErrValidation)
	}
	lang = language.Normalize(lang)

	requestLang := lang
	pivoting := a.hasPivot && a.pivot != lang
	if pivoting {
		requestLang = a.pivot
	}

	resp, err := a.summarizer.Summarize(ctx, &models.SummarizeRequest{
		DocumentID: documentID,
		Text:       text,
		Language:   string(requestLang),
	})
	if err != nil {
		a.logger.Error("Summarize failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("summarize document: %w", err)
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return nil, fmt.Errorf("%w: empty summary", utils.ErrRemoteService)
	}

	result := &Result{Summary: summary, Details: resp.Details, Language: requestLang}
	if pivoting {
		translated, err := a.Translate(ctx, summary, lang)
		if err != nil {
			a.logger.Warn("Translation failed, keeping pivot summary", "document_id", documentID, "target", lang, "error", err)
		} else {
			result.Summary = translated
			result.Language = lang
			result.Translated = true
		}
	}

	status := models.StatusProcessed
	now := a.now()
	langName := string(result.Language)
	doc, err := a.ledger.UpdateDocument(ctx, documentID, models.DocumentPatch{
		Status:        &status,
		ExtractedText: &text,
		Summary:       &result.Summary,
		Details:       result.Details,
		Language:      &langName,
		UpdatedAt:     &now,
	})
	if err != nil {
		a.logger.Error("Failed to record summary", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("record summary: %w", err)
	}
	result.Document = doc

	a.logger.Info("Document analyzed", "document_id", documentID, "language", result.Language, "summary_length", len(result.Summary))
	return result, nil
}

// Translate returns text in target. On failure it returns the original text
// together with the error, so callers can still show something.
func (a *Analyzer) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	if a.translator == nil {
		return text, errors.New("no translator configured")
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := a.translator.Translate(ctx, &models.TranslateRequest{
		Text:           text,
		TargetLanguage: string(language.Normalize(target)),
	})
	if err != nil {
		return text, fmt.Errorf("translate: %w", err)
	}
	translated := strings.TrimSpace(resp.TranslatedText)
	if translated == "" {
		return text, fmt.Errorf("%w: empty translation", utils.ErrRemoteService)
	}
	return translated, nil
}
