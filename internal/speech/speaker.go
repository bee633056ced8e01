// Package speech reads summaries and answers aloud and takes spoken
// questions, when the platform has the tools for it.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// Rate is the relative speaking rate. 1.0 is the engine's normal speed.
const Rate = 0.8

// Synthesizer speaks text and blocks until the utterance ends or ctx is
// cancelled.
type Synthesizer interface {
	Say(ctx context.Context, text, locale string, rate float64) error
}

type State int

const (
	Idle State = iota
	Speaking
)

func (s State) String() string {
	if s == Speaking {
		return "speaking"
	}
	return "idle"
}

// Speaker plays one utterance at a time. Calling Speak while speaking stops
// the current utterance instead of starting another.
type Speaker struct {
	synth  Synthesizer
	logger *utils.Logger
	rate   float64

	mu     sync.Mutex
	state  State
	gen    int
	cancel context.CancelFunc
	done   chan struct{}
}

type SpeakerOption func(*Speaker)

// WithRate overrides Rate. Non-positive values are ignored.
func WithRate(rate float64) SpeakerOption {
	return func(s *Speaker) {
		if rate > 0 {
			s.rate = rate
		}
	}
}

// NewSpeaker returns a speaker. A nil synth makes every call a no-op.
func NewSpeaker(synth Synthesizer, logger *utils.Logger, opts ...SpeakerOption) *Speaker {
	s := &Speaker{synth: synth, logger: logger, rate: Rate}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Speaker) Available() bool { return s.synth != nil }

func (s *Speaker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Speak toggles playback. In the idle state it starts reading text in the
// locale of lang and returns at once. In the speaking state it stops the
// current utterance, waits for it to end and returns.
func (s *Speaker) Speak(ctx context.Context, text string, lang language.Code) error {
	if s.synth == nil {
		return nil
	}

	s.mu.Lock()
	if s.state == Speaking {
		done := s.stopLocked()
		s.mu.Unlock()
		<-done
		return nil
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return nil
	}

	uctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.gen++
	gen := s.gen
	s.state = Speaking
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	locale := language.Locale(lang)
	rate := s.rate
	go func() {
		defer close(done)
		defer cancel()
		err := s.synth.Say(uctx, text, locale, rate)

		s.mu.Lock()
		if s.gen == gen {
			s.state = Idle
			s.cancel = nil
		}
		s.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) && uctx.Err() == nil {
			s.logger.Warn("Speech synthesis failed", "locale", locale, "error", err)
		}
	}()
	return nil
}

// Stop ends any utterance in progress and waits for it.
func (s *Speaker) Stop() {
	s.mu.Lock()
	if s.state != Speaking {
		s.mu.Unlock()
		return
	}
	done := s.stopLocked()
	s.mu.Unlock()
	<-done
}

// Wait blocks until the current utterance, if any, has ended.
func (s *Speaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Speaker) stopLocked() chan struct{} {
	s.gen++
	s.state = Idle
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.done
}
