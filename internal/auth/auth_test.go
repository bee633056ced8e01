package auth

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	user := models.User{ID: "user-1", Email: "asha@example.com", Name: "Asha"}

	token, err := s.Sign(user)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != user {
		t.Errorf("Verify() = %+v, want %+v", got, user)
	}
}

func TestSignerRejects(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, err := s.Sign(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := NewSigner("other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	if _, err := s.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}

	expired := NewSigner("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Sign(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := s.Verify(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := s.Sign(models.User{}); err == nil {
		t.Error("expected error signing a user without id")
	}
}

func TestMemoryStateStoreConsumesOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	if err := store.Put(ctx, "abc", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := store.Consume(ctx, "abc"); !ok {
		t.Error("expected first consume to succeed")
	}
	if ok, _ := store.Consume(ctx, "abc"); ok {
		t.Error("expected second consume to fail")
	}

	_ = store.Put(ctx, "stale", -time.Second)
	if ok, _ := store.Consume(ctx, "stale"); ok {
		t.Error("expected expired state to be rejected")
	}
}

func TestRedisStateStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStateStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	state := "test-" + time.Now().Format("150405.000000")
	if err := store.Put(ctx, state, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, err := store.Consume(ctx, state); err != nil || !ok {
		t.Fatalf("Consume = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := store.Consume(ctx, state); ok {
		t.Error("expected second consume to fail")
	}
}

type fakeProvider struct {
	user models.User
	err  error
}

func (f *fakeProvider) Name() string { return "google" }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Identify(ctx context.Context, code string) (models.User, error) {
	return f.user, f.err
}

func TestServiceFlow(t *testing.T) {
	ctx := context.Background()
	signer := NewSigner("secret", time.Hour)
	provider := &fakeProvider{user: models.User{ID: "user-1", Email: "asha@example.com"}}
	svc := NewService(signer, NewMemoryStateStore(), "http://localhost:3000/auth", provider)

	if _, err := svc.AuthURL(ctx, "github"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}

	authURL, err := svc.AuthURL(ctx, "google")
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	u, _ := url.Parse(authURL)
	state := u.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in %s", authURL)
	}

	if _, _, err := svc.Callback(ctx, "google", "forged", "code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}

	token, user, err := svc.Callback(ctx, "google", state, "code")
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("unexpected user %+v", user)
	}

	verified, err := svc.Verify(token)
	if err != nil || verified.ID != "user-1" {
		t.Errorf("Verify = (%+v, %v)", verified, err)
	}

	redirect, err := svc.RedirectURL(token)
	if err != nil {
		t.Fatalf("RedirectURL: %v", err)
	}
	if !strings.HasPrefix(redirect, "http://localhost:3000/auth?token=") {
		t.Errorf("unexpected redirect %s", redirect)
	}

	if _, _, err := svc.Callback(ctx, "google", state, "code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected replayed state to fail, got %v", err)
	}
}

func TestGoogleProviderRequiresCredentials(t *testing.T) {
	if p := NewGoogleProvider("", "", ""); p != nil {
		t.Error("expected nil provider without credentials")
	}
	p := NewGoogleProvider("id", "secret", "http://localhost:8080/api/v1/auth/google/callback")
	if p == nil || p.Name() != "google" {
		t.Fatal("expected google provider")
	}
	if !strings.Contains(p.AuthCodeURL("xyz"), "state=xyz") {
		t.Errorf("auth url missing state: %s", p.AuthCodeURL("xyz"))
	}
}

func TestUserContext(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Error("expected no user in empty context")
	}
	ctx := WithUser(context.Background(), models.User{ID: "user-1"})
	if u, ok := UserFromContext(ctx); !ok || u.ID != "user-1" {
		t.Errorf("UserFromContext = (%+v, %v)", u, ok)
	}
}
