package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/llm"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// FunctionService backs the hosted process-document, chat-assistant and
// translate-text functions.
type FunctionService interface {
	ProcessDocument(ctx context.Context, req *models.SummarizeRequest) (*models.SummarizeResponse, error)
	ChatAssistant(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
	TranslateText(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error)
}

type functionService struct {
	llm    llm.Completer
	logger *utils.Logger
}

func NewFunctionService(completer llm.Completer, logger *utils.Logger) FunctionService {
	return &functionService{llm: completer, logger: logger}
}

// resolveLanguage accepts a language code, locale or native name and falls
// back to english.
func resolveLanguage(s string) string {
	if code, ok := language.Parse(s); ok {
		return string(code)
	}
	return string(language.Default)
}

func (s *functionService) completionError(err error, op string) error {
	if errors.Is(err, llm.ErrNotConfigured) {
		s.logger.Warn("LLM not configured", "function", op)
		return utils.NewNotConfiguredError("OpenAI API key not configured")
	}
	if errors.Is(err, context.Canceled) {
		return utils.NewBadRequestError("Request cancelled")
	}
	s.logger.Error("LLM call failed", "function", op, "error", err)
	return utils.NewRemoteError("AI service request failed")
}

func (s *functionService) ProcessDocument(ctx context.Context, req *models.SummarizeRequest) (*models.SummarizeResponse, error) {
	if req == nil || strings.TrimSpace(req.DocumentID) == "" || strings.TrimSpace(req.Text) == "" {
		return nil, utils.NewBadRequestError("documentId and text are required")
	}
	lang := resolveLanguage(req.Language)

	text := req.Text
	if r := []rune(text); len(r) > maxDocumentRunes {
		s.logger.Warn("Document text truncated", "document_id", req.DocumentID, "runes", len(r), "limit", maxDocumentRunes)
		text = string(r[:maxDocumentRunes]) + "..."
	}

	s.logger.Info("Summarizing document", "document_id", req.DocumentID, "language", lang, "text_length", len(text))
	content, err := s.llm.Complete(ctx, llm.Request{
		System:    summarySystemPrompt(lang),
		User:      summaryUserPrompt(text),
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return nil, s.completionError(err, "process-document")
	}

	resp := parseSummary(content)
	s.logger.Info("Document summarized", "document_id", req.DocumentID, "summary_length", len(resp.Summary), "has_details", resp.Details != nil)
	return resp, nil
}

// parseSummary reads the model's JSON reply. A reply that is not JSON is
// used as the summary itself.
func parseSummary(content string) *models.SummarizeResponse {
	content = strings.TrimSpace(content)
	if content == "" {
		return &models.SummarizeResponse{Summary: fallbackSummary}
	}

	var result models.LLMAnalysisResult
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &result); err != nil || strings.TrimSpace(result.Summary) == "" {
		return &models.SummarizeResponse{Summary: content}
	}

	resp := &models.SummarizeResponse{Summary: strings.TrimSpace(result.Summary)}
	if !result.LoanDetails.Empty() {
		resp.Details = result.LoanDetails
	}
	return resp
}

func (s *functionService) ChatAssistant(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, utils.NewBadRequestError("question is required")
	}
	lang := resolveLanguage(req.Language)

	content, err := s.llm.Complete(ctx, llm.Request{
		System:    chatSystemPrompt(lang),
		User:      chatUserPrompt(strings.TrimSpace(req.Question), strings.TrimSpace(req.Context)),
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return nil, s.completionError(err, "chat-assistant")
	}

	answer := strings.TrimSpace(content)
	if answer == "" {
		answer = fallbackAnswer
	}
	return &models.ChatResponse{Answer: answer}, nil
}

func (s *functionService) TranslateText(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, utils.NewBadRequestError("text is required")
	}
	code, ok := language.Parse(req.TargetLanguage)
	if !ok {
		return nil, utils.NewBadRequestError("Unsupported target language")
	}

	content, err := s.llm.Complete(ctx, llm.Request{
		System:    translateSystemPrompt(string(code)),
		User:      req.Text,
		MaxTokens: translateMaxTokens,
	})
	if err != nil {
		return nil, s.completionError(err, "translate-text")
	}

	translated := strings.TrimSpace(content)
	if translated == "" {
		return nil, utils.NewRemoteError("AI service returned an empty translation")
	}
	return &models.TranslateResponse{TranslatedText: translated}, nil
}
