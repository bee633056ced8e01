package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

type fakeSummarizer struct {
	calls []models.SummarizeRequest
	resp  *models.SummarizeResponse
	err   error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req *models.SummarizeRequest) (*models.SummarizeResponse, error) {
	f.calls = append(f.calls, *req)
	return f.resp, f.err
}

type fakeTranslator struct {
	calls int
	out   string
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.TranslateResponse{TranslatedText: f.out}, nil
}

// fakeLedger holds a single document that starts out uploaded.
type fakeLedger struct {
	doc     models.UploadedDocument
	updates int
	err     error
}

func newLedger() *fakeLedger {
	return &fakeLedger{doc: models.UploadedDocument{ID: "doc-1", Status: models.StatusUploaded}}
}

func (f *fakeLedger) UpdateDocument(ctx context.Context, id string, patch models.DocumentPatch) (*models.UploadedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updates++
	patch.Apply(&f.doc)
	d := f.doc
	return &d, nil
}

const loanText = "Loan Amount: ₹5,00,000\nInterest Rate: 10.5% p.a.\nTenure: 60 months\nEMI: ₹10,746"

func TestAnalyzeMarksProcessed(t *testing.T) {
	emi := "₹10,746"
	summarizer := &fakeSummarizer{resp: &models.SummarizeResponse{
		Summary: "A personal loan of ₹5,00,000 repaid over 5 years.",
		Details: &models.LoanDetails{EMI: &emi},
	}}
	ledger := newLedger()
	a := New(summarizer, nil, ledger, utils.NopLogger())

	result, err := a.Analyze(context.Background(), "doc-1", loanText, language.English)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if ledger.doc.Status != models.StatusProcessed {
		t.Errorf("expected processed, got %s", ledger.doc.Status)
	}
	if ledger.doc.Summary == nil || *ledger.doc.Summary == "" {
		t.Error("expected a non-empty summary in the ledger")
	}
	if ledger.doc.ExtractedText == nil || *ledger.doc.ExtractedText != loanText {
		t.Error("expected extracted text to be stored")
	}
	if ledger.doc.Details == nil || *ledger.doc.Details.EMI != emi {
		t.Error("expected loan details to be stored")
	}
	if result.Document == nil || result.Language != language.English {
		t.Errorf("unexpected result %+v", result)
	}
	if summarizer.calls[0].Language != "english" || summarizer.calls[0].DocumentID != "doc-1" {
		t.Errorf("unexpected request %+v", summarizer.calls[0])
	}
}

func TestAnalyzeFailureLeavesLedgerUntouched(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"remote", utils.ErrRemoteService, utils.ErrRemoteService},
		{"not configured", utils.ErrConfiguration, utils.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newLedger()
			a := New(&fakeSummarizer{err: tt.err}, nil, ledger, utils.NopLogger())

			_, err := a.Analyze(context.Background(), "doc-1", loanText, language.Hindi)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if ledger.updates != 0 || ledger.doc.Status != models.StatusUploaded {
				t.Errorf("expected ledger untouched, got %+v", ledger.doc)
			}
		})
	}
}

func TestAnalyzeValidation(t *testing.T) {
	summarizer := &fakeSummarizer{}
	a := New(summarizer, nil, newLedger(), utils.NopLogger())

	if _, err := a.Analyze(context.Background(), "doc-1", "   ", language.English); !errors.Is(err, utils.ErrValidation) {
		t.Errorf("expected ErrValidation for empty text, got %v", err)
	}
	if _, err := a.Analyze(context.Background(), "", loanText, language.English); !errors.Is(err, utils.ErrValidation) {
		t.Errorf("expected ErrValidation for empty id, got %v", err)
	}
	if len(summarizer.calls) != 0 {
		t.Error("expected no remote call for invalid input")
	}
}

func TestAnalyzeRetryResubmitsText(t *testing.T) {
	summarizer := &fakeSummarizer{err: utils.ErrRemoteService}
	a := New(summarizer, nil, newLedger(), utils.NopLogger())

	_, _ = a.Analyze(context.Background(), "doc-1", loanText, language.English)
	summarizer.err = nil
	summarizer.resp = &models.SummarizeResponse{Summary: "ok"}
	if _, err := a.Analyze(context.Background(), "doc-1", loanText, language.English); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if len(summarizer.calls) != 2 || summarizer.calls[1].Text != loanText {
		t.Errorf("expected full text on retry, got %+v", summarizer.calls)
	}
}

func TestPivotMode(t *testing.T) {
	t.Run("translated", func(t *testing.T) {
		summarizer := &fakeSummarizer{resp: &models.SummarizeResponse{Summary: "A home loan."}}
		translator := &fakeTranslator{out: "एक गृह ऋण।"}
		ledger := newLedger()
		a := New(summarizer, translator, ledger, utils.NopLogger(), WithPivot(language.English))

		result, err := a.Analyze(context.Background(), "doc-1", loanText, language.Hindi)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if summarizer.calls[0].Language != "english" {
			t.Errorf("expected pivot language in request, got %s", summarizer.calls[0].Language)
		}
		if !result.Translated || result.Summary != "एक गृह ऋण।" || result.Language != language.Hindi {
			t.Errorf("unexpected result %+v", result)
		}
		if *ledger.doc.Language != "hindi" {
			t.Errorf("expected hindi in ledger, got %s", *ledger.doc.Language)
		}
	})

	t.Run("translation failure is not fatal", func(t *testing.T) {
		summarizer := &fakeSummarizer{resp: &models.SummarizeResponse{Summary: "A home loan."}}
		translator := &fakeTranslator{err: utils.ErrRemoteService}
		ledger := newLedger()
		a := New(summarizer, translator, ledger, utils.NopLogger(), WithPivot(language.English))

		result, err := a.Analyze(context.Background(), "doc-1", loanText, language.Tamil)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if result.Translated || result.Summary != "A home loan." {
			t.Errorf("expected pivot summary, got %+v", result)
		}
		if ledger.doc.Status != models.StatusProcessed {
			t.Errorf("expected processed, got %s", ledger.doc.Status)
		}
	})

	t.Run("same language skips translation", func(t *testing.T) {
		translator := &fakeTranslator{out: "x"}
		a := New(&fakeSummarizer{resp: &models.SummarizeResponse{Summary: "A home loan."}}, translator, newLedger(), utils.NopLogger(), WithPivot(language.English))

		if _, err := a.Analyze(context.Background(), "doc-1", loanText, language.English); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if translator.calls != 0 {
			t.Errorf("expected no translation, got %d calls", translator.calls)
		}
	})
}

func TestTranslateReturnsOriginalOnFailure(t *testing.T) {
	a := New(nil, &fakeTranslator{err: utils.ErrRemoteService}, nil, utils.NopLogger())

	got, err := a.Translate(context.Background(), "EMI is a monthly payment.", language.Bengali)
	if !errors.Is(err, utils.ErrRemoteService) {
		t.Errorf("expected ErrRemoteService, got %v", err)
	}
	if got != "EMI is a monthly payment." {
		t.Errorf("expected original text, got %q", got)
	}
}
