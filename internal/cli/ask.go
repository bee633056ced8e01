package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/loanmitra/internal/assistant"
	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

func newAskCommand(a *app) *cobra.Command {
	var docID string
	var pick, listen, speak bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the loan assistant one question",
		Long: `Ask the loan assistant a single question.

The question comes from the arguments, from --pick (choose one of the
common questions) or from --listen (speak it).

Examples:
  loanmitra ask "What is EMI?"
  loanmitra ask --pick -l hindi
  loanmitra ask --doc 4f1c... "Is the foreclosure charge negotiable?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question, err := a.question(ctx, args, pick, listen)
			if err != nil || question == "" {
				return err
			}
			if err := a.requireUser(ctx); err != nil {
				return err
			}
			docContext, err := a.documentContext(ctx, docID)
			if err != nil {
				return err
			}

			asst := assistant.New(a.client, a.gate, a.notifier, a.logger)
			defer asst.Close()

			a.println(formatMuted("Thinking..."))
			reply, err := asst.Ask(ctx, question, docContext, a.lang)
			if reply.Text != "" {
				a.println(styleBot.Render("Assistant: ") + reply.Text)
			}
			if err != nil {
				return err
			}
			if speak {
				return a.speak(ctx, reply.Text, a.lang)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&docID, "doc", "", "Use this document's summary as context")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose from common questions")
	cmd.Flags().BoolVar(&listen, "listen", false, "Speak the question (needs stt_command)")
	cmd.Flags().BoolVar(&speak, "speak", false, "Read the answer aloud")
	cmd.MarkFlagsMutuallyExclusive("pick", "listen")
	return cmd
}

// question returns "" with a nil error when the user cancelled a picker.
func (a *app) question(ctx context.Context, args []string, pick, listen bool) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case pick:
		questions := assistant.CommonQuestions()
		idx, err := fuzzyfinder.Find(questions, func(i int) string { return questions[i] })
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return questions[idx], nil
	case listen:
		if !a.listener.Available() {
			return "", fmt.Errorf("%w: set stt_command to enable voice input", utils.ErrConfiguration)
		}
		a.println(formatInfo("Listening..."))
		text, err := a.listener.Listen(ctx, a.lang)
		if err != nil {
			return "", err
		}
		if text != "" {
			a.println(styleUser.Render("You: ") + text)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: ask needs a question, --pick or --listen", utils.ErrValidation)
}

// documentContext returns the stored summary and text of id for the
// assistant, or "" when id is empty.
func (a *app) documentContext(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	doc, err := a.client.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	var parts []string
	if doc.Summary != nil {
		parts = append(parts, "Summary: "+*doc.Summary)
	}
	if doc.ExtractedText != nil {
		parts = append(parts, "Document text: "+*doc.ExtractedText)
	}
	return strings.Join(parts, "\n\n"), nil
}

func newSpeakCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "speak <text>",
		Short: "Read text aloud in the chosen language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.speak(cmd.Context(), strings.Join(args, " "), a.lang)
		},
	}
}

// speak reads text aloud and waits for it to finish.
func (a *app) speak(ctx context.Context, text string, lang language.Code) error {
	if !a.speaker.Available() {
		a.notifier.Notify(notify.Notice{
			Kind:    notify.Info,
			Message: "Speech is not available: install espeak-ng, espeak or say",
		})
		return nil
	}
	if err := a.speaker.Speak(ctx, text, lang); err != nil {
		return err
	}
	a.speaker.Wait()
	return nil
}
