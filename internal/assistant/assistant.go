// Package assistant keeps the loan chat transcript and relays questions to
// the chat collaborator.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

const (
	Greeting           = "Hello! I'm your loan assistant. I can help you understand loan terms, EMI calculations, and answer any questions about loans. What would you like to know?"
	NotConfiguredReply = "The loan assistant service is not configured yet. Please try again later."
	FailureReply       = "I apologize, but I could not process your question at this time. Please try again."
)

var (
	ErrBusy   = errors.New("the assistant is still answering the previous question")
	ErrClosed = errors.New("the assistant is closed")
)

var commonQuestions = []string{
	"What is EMI?",
	"How is interest calculated?",
	"What happens if I miss a payment?",
	"Can I prepay my loan?",
	"What is foreclosure?",
	"What are processing fees?",
}

// CommonQuestions returns the quick questions offered before the user types.
func CommonQuestions() []string {
	return append([]string(nil), commonQuestions...)
}

type ChatClient interface {
	Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// IdentitySource reports the signed-in user, or nil.
type IdentitySource interface {
	User() *models.User
}

type Assistant struct {
	chat     ChatClient
	identity IdentitySource
	notifier notify.Notifier
	logger   *utils.Logger

	transcript    *transcript
	thinking      atomic.Bool
	closed        atomic.Bool
	notConfigured atomic.Bool
}

func New(chat ChatClient, identity IdentitySource, notifier notify.Notifier, logger *utils.Logger) *Assistant {
	if notifier == nil {
		notifier = notify.Nop
	}
	a := &Assistant{
		chat:       chat,
		identity:   identity,
		notifier:   notifier,
		logger:     logger,
		transcript: &transcript{now: func() time.Time { return time.Now().UTC() }},
	}
	a.transcript.append(Greeting, models.SenderBot)
	return a
}

// Messages returns a copy of the transcript, oldest first.
func (a *Assistant) Messages() []models.Message {
	return a.transcript.snapshot()
}

// Thinking reports whether a question is waiting for its answer.
func (a *Assistant) Thinking() bool {
	return a.thinking.Load()
}

// ConfigurationError reports whether the chat service said it has no
// model configured. It stays set once seen.
func (a *Assistant) ConfigurationError() bool {
	return a.notConfigured.Load()
}

// Ask appends the question and the reply to the transcript and returns the
// reply. Remote failures are answered with a fallback reply and returned as
// the error.
func (a *Assistant) Ask(ctx context.Context, question, docContext string, lang language.Code) (models.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Message{}, fmt.Errorf("%w: question is empty", utils.ErrValidation)
	}
	if a.closed.Load() {
		return models.Message{}, ErrClosed
	}
	if a.identity == nil || a.identity.User() == nil {
		return models.Message{}, utils.ErrAuthRequired
	}
	if !a.thinking.CompareAndSwap(false, true) {
		return models.Message{}, ErrBusy
	}
	defer a.thinking.Store(false)

	a.transcript.append(question, models.SenderUser)

	resp, err := a.chat.Chat(ctx, &models.ChatRequest{
		Question: question,
		Context:  docContext,
		Language: string(language.Normalize(lang)),
	})

	if a.closed.Load() {
		a.logger.Debug("Discarding reply after close")
		return models.Message{}, ErrClosed
	}

	switch {
	case err == nil && strings.TrimSpace(resp.Answer) != "":
		return a.transcript.append(resp.Answer, models.SenderBot), nil
	case err == nil:
		err = fmt.Errorf("%w: empty answer", utils.ErrRemoteService)
	}

	if errors.Is(err, utils.ErrConfiguration) {
		a.notConfigured.Store(true)
		a.logger.Warn("Chat service is not configured", "error", err)
		a.notifier.Notify(notify.Notice{
			Kind:    notify.Persistent,
			Title:   "Assistant unavailable",
			Message: NotConfiguredReply,
		})
		return a.transcript.append(NotConfiguredReply, models.SenderBot), err
	}

	a.logger.Error("Chat request failed", "error", err)
	a.notifier.Notify(notify.Notice{
		Kind:    notify.Error,
		Title:   "Error",
		Message: "Failed to get a response. Please try again.",
	})
	return a.transcript.append(FailureReply, models.SenderBot), err
}

// Close marks teardown. Replies arriving afterwards are dropped.
func (a *Assistant) Close() {
	a.closed.Store(true)
}
