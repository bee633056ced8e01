package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/loanmitra/internal/assistant"
	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
	"github.com/BerylCAtieno/loanmitra/internal/speech"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

func newChatCommand(a *app) *cobra.Command {
	var docID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the loan assistant",
		Long: `Open an interactive chat with the loan assistant.

Controls:
  - Enter  : Send
  - Tab    : Fill in a common question
  - Ctrl+S : Read the last answer aloud (again to stop)
  - Esc    : Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireUser(ctx); err != nil {
				return err
			}
			docContext, err := a.documentContext(ctx, docID)
			if err != nil {
				return err
			}

			notices := &notify.Recorder{}
			asst := assistant.New(a.client, a.gate, notices, a.logger)
			defer asst.Close()

			m := newChatModel(ctx, asst, notices, a.speaker, docContext, a.lang)
			_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&docID, "doc", "", "Use this document's summary as context")
	return cmd
}

// replyMsg carries the outcome of one Ask back into the update loop.
type replyMsg struct {
	reply models.Message
	err   error
}

type chatModel struct {
	ctx        context.Context
	assistant  *assistant.Assistant
	notices    *notify.Recorder
	speaker    *speech.Speaker
	docContext string
	lang       language.Code

	input    textinput.Model
	spinner  spinner.Model
	thinking bool
	// status is a one-line message under the transcript, cleared on send.
	status    string
	seen      int
	suggested int
	width     int
}

func newChatModel(ctx context.Context, asst *assistant.Assistant, notices *notify.Recorder, speaker *speech.Speaker, docContext string, lang language.Code) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about EMI, interest, charges..."
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleInfo

	return chatModel{
		ctx:        ctx,
		assistant:  asst,
		notices:    notices,
		speaker:    speaker,
		docContext: docContext,
		lang:       lang,
		input:      ti,
		spinner:    sp,
		width:      80,
	}
}

func (m chatModel) Init() tea.Cmd { return textinput.Blink }

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.send()
		case "tab":
			if m.input.Value() == "" {
				qs := assistant.CommonQuestions()
				m.input.SetValue(qs[m.suggested%len(qs)])
				m.input.CursorEnd()
				m.suggested++
			}
			return m, nil
		case "ctrl+s":
			m.speakLast()
			return m, nil
		}

	case replyMsg:
		m.thinking = false
		m.status = m.replyStatus(msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts an Ask unless one is already pending; input is blocked while
// the assistant is thinking.
func (m chatModel) send() (tea.Model, tea.Cmd) {
	if m.thinking {
		return m, nil
	}
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}

	m.input.Reset()
	m.thinking = true
	m.status = ""

	asst, ctx, docContext, lang := m.assistant, m.ctx, m.docContext, m.lang
	ask := func() tea.Msg {
		reply, err := asst.Ask(ctx, question, docContext, lang)
		return replyMsg{reply: reply, err: err}
	}
	return m, tea.Batch(ask, m.spinner.Tick)
}

func (m *chatModel) replyStatus(err error) string {
	notices := m.notices.Notices()
	fresh := notices[min(m.seen, len(notices)):]
	m.seen = len(notices)
	for i := len(fresh) - 1; i >= 0; i-- {
		if fresh[i].Kind == notify.Error {
			return formatError(fresh[i].Message)
		}
	}

	switch {
	case err == nil, errors.Is(err, utils.ErrConfiguration), errors.Is(err, utils.ErrRemoteService):
		return ""
	case errors.Is(err, assistant.ErrClosed):
		return ""
	}
	return formatError(err.Error())
}

func (m *chatModel) speakLast() {
	if m.speaker == nil || !m.speaker.Available() {
		m.status = formatMuted("Speech is not available on this system")
		return
	}
	msgs := m.assistant.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == models.SenderBot {
			if err := m.speaker.Speak(m.ctx, msgs[i].Text, m.lang); err != nil {
				m.status = formatError(err.Error())
			}
			return
		}
	}
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("LoanMitra assistant"))
	b.WriteString(formatMuted(fmt.Sprintf("  %s · Esc to quit", language.Name(m.lang))))
	b.WriteString("\n\n")

	if m.assistant.ConfigurationError() {
		b.WriteString(renderBanner(notify.Notice{Title: "Assistant unavailable", Message: assistant.NotConfiguredReply}))
		b.WriteString("\n\n")
	}

	wrap := lipgloss.NewStyle().Width(max(20, m.width-2))
	for _, msg := range m.assistant.Messages() {
		label := styleBot.Render("Assistant: ")
		if msg.Sender == models.SenderUser {
			label = styleUser.Render("You: ")
		}
		b.WriteString(wrap.Render(label + msg.Text))
		b.WriteString("\n")
	}

	if len(m.assistant.Messages()) == 1 {
		b.WriteString("\n")
		b.WriteString(formatMuted("Common questions (Tab to use):"))
		for _, q := range assistant.CommonQuestions() {
			b.WriteString("\n" + formatMuted("  • "+q))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.thinking {
		b.WriteString(m.spinner.View() + " " + formatMuted("Thinking..."))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}
