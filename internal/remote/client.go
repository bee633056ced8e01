// Package remote is the typed HTTP client for the LoanMitra API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// Error is a non-2xx answer from the API. It unwraps to the matching
// utils error kind.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return utils.KindForCode(e.Code, e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithToken sets where the bearer token is read from on every request.
func WithToken(token func() string) Option {
	return func(cl *Client) { cl.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
		token:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) HasToken() bool {
	return c.token() != ""
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", utils.ErrRemoteService, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", utils.ErrRemoteService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: malformed response from %s: %v", utils.ErrRemoteService, path, err)
	}
	return nil
}

// decodeError reads the {error, code} envelope, falling back to the raw body.
func decodeError(status int, raw []byte) *Error {
	var envelope models.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == "" {
		envelope.Error = strings.TrimSpace(string(raw))
		if envelope.Error == "" {
			envelope.Error = http.StatusText(status)
		}
	}
	return &Error{StatusCode: status, Code: envelope.Code, Message: envelope.Error}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

// CurrentUser returns the signed-in identity, or nil when there is no valid
// token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	if !c.HasToken() {
		return nil, nil
	}
	var user models.User
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user)
	if errors.Is(err, utils.ErrAuthRequired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) AuthURL(ctx context.Context, provider string) (string, error) {
	var resp models.AuthURLResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/"+url.PathEscape(provider)+"/url", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/storage/"+url.PathEscape(bucket)+"/"+escapeKey(path),
		bytes.NewReader(data), contentType, nil)
}

// Download fetches an object the caller owns.
func (c *Client) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/storage/"+url.PathEscape(bucket)+"/"+escapeKey(path), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: download %s: %v", utils.ErrRemoteService, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read object: %v", utils.ErrRemoteService, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *Client) InsertDocument(ctx context.Context, req *models.NewDocumentRequest) (*models.UploadedDocument, error) {
	var doc models.UploadedDocument
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/documents", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, patch models.DocumentPatch) (*models.UploadedDocument, error) {
	var doc models.UploadedDocument
	if err := c.doJSON(ctx, http.MethodPatch, "/api/v1/documents/"+url.PathEscape(id), patch, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*models.UploadedDocument, error) {
	var doc models.UploadedDocument
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns the caller's documents, newest first.
func (c *Client) ListDocuments(ctx context.Context) ([]models.UploadedDocument, error) {
	var docs []models.UploadedDocument
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) Summarize(ctx context.Context, req *models.SummarizeRequest) (*models.SummarizeResponse, error) {
	var resp models.SummarizeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/functions/process-document", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/functions/chat-assistant", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Translate(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	var resp models.TranslateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/functions/translate-text", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
