package speech

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/BerylCAtieno/loanmitra/internal/language"
)

var ErrListening = errors.New("already listening")

// Recognizer captures one spoken phrase and returns its transcript.
type Recognizer interface {
	Recognize(ctx context.Context, locale string) (string, error)
}

type Listener struct {
	rec       Recognizer
	listening atomic.Bool
}

// NewListener returns a listener. A nil rec makes Listen return "".
func NewListener(rec Recognizer) *Listener {
	return &Listener{rec: rec}
}

func (l *Listener) Available() bool { return l.rec != nil }

// Listen captures a single phrase in the locale of lang.
func (l *Listener) Listen(ctx context.Context, lang language.Code) (string, error) {
	if l.rec == nil {
		return "", nil
	}
	if !l.listening.CompareAndSwap(false, true) {
		return "", ErrListening
	}
	defer l.listening.Store(false)

	text, err := l.rec.Recognize(ctx, language.Locale(lang))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
