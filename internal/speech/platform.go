package speech

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// Words per minute at rate 1.0 for espeak and say.
const baseWordsPerMinute = 175

// commandSynthesizer drives a text-to-speech executable.
type commandSynthesizer struct {
	path string
	name string
}

// DetectSynthesizer looks for espeak-ng, espeak or say on PATH. It returns
// nil when none is installed.
func DetectSynthesizer(logger *utils.Logger) Synthesizer {
	for _, name := range []string{"espeak-ng", "espeak", "say"} {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("Speech synthesis available", "command", name)
			return &commandSynthesizer{path: path, name: name}
		}
	}
	logger.Debug("No speech synthesizer found")
	return nil
}

func (c *commandSynthesizer) Say(ctx context.Context, text, locale string, rate float64) error {
	cmd := exec.CommandContext(ctx, c.path, synthArgs(c.name, text, locale, rate)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", c.name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func synthArgs(name, text, locale string, rate float64) []string {
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * rate)))
	if name == "say" {
		return []string{"-r", wpm, text}
	}
	return []string{"-v", voice(locale), "-s", wpm, text}
}

// voice turns a locale such as hi-IN into the espeak voice name hi.
func voice(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	if lang == "" {
		return "en"
	}
	return strings.ToLower(lang)
}

// commandRecognizer runs a user-configured speech-to-text command and reads
// the transcript from its stdout. The locale is passed in LOANMITRA_LOCALE.
type commandRecognizer struct {
	argv []string
}

// NewCommandRecognizer returns nil when command is blank.
func NewCommandRecognizer(command string) Recognizer {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil
	}
	return &commandRecognizer{argv: argv}
}

func (c *commandRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Env = append(os.Environ(), "LOANMITRA_LOCALE="+locale)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("speech recognition: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
