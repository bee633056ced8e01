package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
)

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "2", Dark: "2"}
	colorError   = lipgloss.AdaptiveColor{Light: "1", Dark: "1"}
	colorPrimary = lipgloss.AdaptiveColor{Light: "5", Dark: "5"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "6", Dark: "6"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "8", Dark: "8"}
	colorWarning = lipgloss.AdaptiveColor{Light: "3", Dark: "3"}

	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleHeader  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleBold    = lipgloss.NewStyle().Bold(true)

	styleBanner = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Foreground(colorWarning).
			Padding(0, 1)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			MarginRight(1)

	styleUser = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleBot  = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
)

func formatSuccess(msg string) string { return styleSuccess.Render("✔ " + msg) }
func formatError(msg string) string   { return styleError.Render("✘ " + msg) }
func formatInfo(msg string) string    { return styleInfo.Render("ℹ " + msg) }
func formatWarning(msg string) string { return styleWarning.Render("⚠ " + msg) }
func formatMuted(msg string) string   { return styleMuted.Render(msg) }

// terminalNotifier prints notices to w. Persistent notices are framed and
// remembered so later output can repeat them.
type terminalNotifier struct {
	mu         sync.Mutex
	w          io.Writer
	persistent []notify.Notice
}

func newTerminalNotifier(w io.Writer) *terminalNotifier {
	return &terminalNotifier{w: w}
}

func (n *terminalNotifier) Notify(notice notify.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()

	text := notice.Message
	if notice.Title != "" {
		text = notice.Title + ": " + notice.Message
	}
	switch notice.Kind {
	case notify.Error:
		fmt.Fprintln(n.w, formatError(text))
	case notify.Persistent:
		n.persistent = append(n.persistent, notice)
		fmt.Fprintln(n.w, renderBanner(notice))
	default:
		fmt.Fprintln(n.w, formatInfo(text))
	}
}

func (n *terminalNotifier) Persistent() []notify.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notice(nil), n.persistent...)
}

func renderBanner(notice notify.Notice) string {
	return styleBanner.Render(styleBold.Render(notice.Title) + "\n" + notice.Message)
}

type detailField struct {
	label string
	value *string
}

// renderDetails lays out the extracted loan terms as two cards: the key
// figures and the charges. Fields the summarizer did not find are omitted.
func renderDetails(d *models.LoanDetails) string {
	if d == nil || d.Empty() {
		return ""
	}
	key := renderCard("Key details", []detailField{
		{"Loan amount", d.LoanAmount},
		{"Interest rate", d.InterestRate},
		{"Tenure", d.Tenure},
		{"EMI", d.EMI},
	})
	charges := renderCard("Important charges", []detailField{
		{"Processing fee", d.ProcessingFee},
		{"Penalty charges", d.PenaltyCharges},
		{"Foreclosure charges", d.ForeclosureCharges},
	})

	var cards []string
	for _, c := range []string{key, charges} {
		if c != "" {
			cards = append(cards, c)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderCard(title string, fields []detailField) string {
	var lines []string
	for _, f := range fields {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			continue
		}
		lines = append(lines, styleMuted.Render(f.label+": ")+*f.value)
	}
	if len(lines) == 0 {
		return ""
	}
	return styleCard.Render(styleHeader.Render(title) + "\n" + strings.Join(lines, "\n"))
}

// renderDocuments prints the ledger as an aligned table, newest first.
func renderDocuments(docs []models.UploadedDocument) string {
	headers := []string{"ID", "FILE", "SIZE", "STATUS", "LANGUAGE", "UPLOADED"}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		lang := "-"
		if d.Language != nil {
			lang = *d.Language
		}
		rows = append(rows, []string{
			d.ID,
			truncate(d.FileName, 32),
			formatSize(d.FileSize),
			string(d.Status),
			lang,
			d.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render(joinPadded(headers, widths)))
	b.WriteString("\n")
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	b.WriteString(styleMuted.Render(strings.Join(sep, "  ")))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(joinPadded(row, widths))
	}
	return b.String()
}

func joinPadded(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
