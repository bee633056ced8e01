package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/loanmitra/internal/config"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

func TestOpenRouterComplete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"EMI is your monthly installment."}}]}`))
	}))
	defer server.Close()

	c := NewOpenRouter("test-key", "openai/gpt-4o-mini", server.URL, utils.NopLogger())
	answer, err := c.Complete(context.Background(), Request{System: "be brief", User: "What is EMI?", MaxTokens: 800})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if answer != "EMI is your monthly installment." {
		t.Errorf("unexpected answer %q", answer)
	}
	if got.MaxTokens != 800 || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestOpenRouterErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantConfig bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, true},
		{"server error", http.StatusBadGateway, `upstream down`, false},
		{"error body", http.StatusOK, `{"error":{"message":"quota"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewOpenRouter("key", "m", server.URL, utils.NopLogger())
			_, err := c.Complete(context.Background(), Request{User: "hi"})
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNotConfigured) != tt.wantConfig {
				t.Errorf("errors.Is(ErrNotConfigured) = %v, want %v (err=%v)", !tt.wantConfig, tt.wantConfig, err)
			}
		})
	}
}

func TestNewWithoutKeyIsNotConfigured(t *testing.T) {
	c, err := New(context.Background(), &config.Config{LLMProvider: "openai"}, utils.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Complete(context.Background(), Request{User: "hi"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"summary":"x"}`, `{"summary":"x"}`},
		{"```json\n{\"summary\":\"x\"}\n```", `{"summary":"x"}`},
		{"```\n{}\n```", `{}`},
		{"  plain text  ", "plain text"},
	}

	for _, tt := range tests {
		if got := ExtractJSON(tt.in); got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type fakeChatModel struct {
	input     []*schema.Message
	maxTokens *int
	reply     string
	err       error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.maxTokens = model.GetCommonOptions(nil, opts...).MaxTokens
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestEinoComplete(t *testing.T) {
	fake := &fakeChatModel{reply: "A loan summary"}
	c := NewEinoFromModel(fake)

	out, err := c.Complete(context.Background(), Request{System: "sys", User: "doc", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "A loan summary" {
		t.Errorf("unexpected output %q", out)
	}
	if len(fake.input) != 2 || fake.input[0].Role != schema.System || fake.input[1].Role != schema.User {
		t.Errorf("unexpected messages %+v", fake.input)
	}
	if fake.maxTokens == nil || *fake.maxTokens != 1000 {
		t.Errorf("expected max tokens 1000, got %v", fake.maxTokens)
	}

	fake.err = errors.New("boom")
	if _, err := c.Complete(context.Background(), Request{User: "doc"}); err == nil {
		t.Error("expected error from failing model")
	}
}
