package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

type einoCompleter struct {
	chatModel model.BaseChatModel
}

// NewEino builds a completer backed by one of the eino provider models.
func NewEino(ctx context.Context, provider, apiKey, modelName, baseURL string) (Completer, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)

	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
			APIKey:  apiKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: apiKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if baseURL != "" {
			baseURLPtr = &baseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    apiKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: 1000,
		})
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return NewEinoFromModel(chatModel), nil
}

// NewEinoFromModel wraps an existing eino chat model.
func NewEinoFromModel(chatModel model.BaseChatModel) Completer {
	return &einoCompleter{chatModel: chatModel}
}

func (c *einoCompleter) Complete(ctx context.Context, r Request) (string, error) {
	messages := make([]*schema.Message, 0, 2)
	if r.System != "" {
		messages = append(messages, schema.SystemMessage(r.System))
	}
	messages = append(messages, schema.UserMessage(r.User))

	var opts []model.Option
	if r.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(r.MaxTokens))
	}

	resp, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}
