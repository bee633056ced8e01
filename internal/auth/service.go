package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

var (
	ErrUnknownProvider = errors.New("unknown auth provider")
	ErrInvalidState    = errors.New("invalid or expired state")
)

const stateTTL = 5 * time.Minute

// Provider is one OAuth identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (models.User, error)
}

// Service runs the OAuth sign-in flow and turns the resulting identity into
// a bearer token.
type Service struct {
	providers  map[string]Provider
	states     StateStore
	signer     *Signer
	uiRedirect string
}

func NewService(signer *Signer, states StateStore, uiRedirect string, providers ...Provider) *Service {
	s := &Service{
		providers:  make(map[string]Provider),
		states:     states,
		signer:     signer,
		uiRedirect: uiRedirect,
	}
	for _, p := range providers {
		if p != nil {
			s.providers[p.Name()] = p
		}
	}
	return s
}

// AuthURL returns the provider consent URL for a fresh state value.
func (s *Service) AuthURL(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	state := utils.GenerateID()
	if err := s.states.Put(ctx, state, stateTTL); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return p.AuthCodeURL(state), nil
}

// Callback finishes a sign-in and returns the issued token.
func (s *Service) Callback(ctx context.Context, provider, state, code string) (string, models.User, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", models.User{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if state == "" || code == "" {
		return "", models.User{}, ErrInvalidState
	}

	valid, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", models.User{}, fmt.Errorf("consume state: %w", err)
	}
	if !valid {
		return "", models.User{}, ErrInvalidState
	}

	user, err := p.Identify(ctx, code)
	if err != nil {
		return "", models.User{}, err
	}

	token, err := s.signer.Sign(user)
	if err != nil {
		return "", models.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *Service) Verify(token string) (models.User, error) {
	return s.signer.Verify(token)
}

// RedirectURL is the UI location a browser callback is sent to, or "" when
// the token should be returned as JSON.
func (s *Service) RedirectURL(token string) (string, error) {
	if s.uiRedirect == "" {
		return "", nil
	}
	u, err := url.Parse(s.uiRedirect)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the identity set by the auth middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}
