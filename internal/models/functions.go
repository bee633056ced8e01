package models

// Request and response bodies of the hosted functions. Every response may
// instead carry an ErrorResponse.

type SummarizeRequest struct {
	DocumentID string `json:"documentId"`
	Text       string `json:"text"`
	Language   string `json:"language,omitempty"`
}

type SummarizeResponse struct {
	Summary string       `json:"summary"`
	Details *LoanDetails `json:"details,omitempty"`
}

type ChatRequest struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
	Language string `json:"language,omitempty"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type TranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type TokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// LLMAnalysisResult is the JSON shape the summarizer prompt asks the model for.
type LLMAnalysisResult struct {
	Summary     string       `json:"summary"`
	LoanDetails *LoanDetails `json:"loan_details"`
}
