package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

type openRouter struct {
	apiKey  string
	model   string
	baseURL string
	logger  *utils.Logger
	client  *http.Client
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenRouter returns a client for any OpenAI-compatible chat completions
// endpoint. baseURL defaults to OpenRouter.
func NewOpenRouter(apiKey, model, baseURL string, logger *utils.Logger) Completer {
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	return &openRouter{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *openRouter) Complete(ctx context.Context, r Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := chatRequest{
		Model:     c.model,
		MaxTokens: r.MaxTokens,
	}
	if r.System != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: r.System})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: r.User})

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "LoanMitra")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Error("LLM API rejected credentials", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: provider rejected the API key", ErrNotConfigured)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("LLM API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("LLM API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("LLM API error: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}

	return parsed.Choices[0].Message.Content, nil
}

// ExtractJSON strips a markdown code fence from around a model reply.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	start := strings.IndexByte(content, '\n')
	if start < 0 {
		return content
	}
	end := strings.LastIndex(content, "```")
	if end <= start {
		return content
	}

	return strings.TrimSpace(content[start+1 : end])
}
