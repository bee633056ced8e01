package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

type fakeAuth struct {
	mu           sync.Mutex
	user         *models.User
	err          error
	signInErr    error
	signIns      []string
	cb           func(*models.User)
	unsubscribed bool
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, f.err
}

func (f *fakeAuth) OnAuthChange(cb func(*models.User)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	return func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}
}

func (f *fakeAuth) SignInWithOAuth(ctx context.Context, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns = append(f.signIns, provider)
	return f.signInErr
}

func (f *fakeAuth) emit(u *models.User) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(u)
}

func TestGateMountLoadsIdentity(t *testing.T) {
	client := &fakeAuth{user: &models.User{ID: "user-1"}}
	gate := NewGate(client, nil, utils.NopLogger())

	if _, err := gate.Require(); !errors.Is(err, utils.ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired before mount, got %v", err)
	}

	if err := gate.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	user, err := gate.Require()
	if err != nil || user.ID != "user-1" {
		t.Fatalf("Require = (%+v, %v)", user, err)
	}
}

func TestGateFollowsAuthChanges(t *testing.T) {
	client := &fakeAuth{}
	gate := NewGate(client, nil, utils.NopLogger())
	if err := gate.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if gate.User() != nil {
		t.Fatal("expected signed out")
	}

	var seen []*models.User
	cancel := gate.Watch(func(u *models.User) { seen = append(seen, u) })

	client.emit(&models.User{ID: "user-1"})
	if u := gate.User(); u == nil || u.ID != "user-1" {
		t.Fatalf("expected user-1 after sign in, got %+v", u)
	}

	client.emit(nil)
	if gate.User() != nil {
		t.Fatal("expected signed out after sign out event")
	}

	cancel()
	client.emit(&models.User{ID: "user-2"})
	if len(seen) != 2 {
		t.Errorf("expected 2 watcher calls, got %d", len(seen))
	}
}

func TestGateCloseDropsLateEvents(t *testing.T) {
	client := &fakeAuth{user: &models.User{ID: "user-1"}}
	gate := NewGate(client, nil, utils.NopLogger())
	if err := gate.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	gate.Close()
	if !client.unsubscribed {
		t.Error("expected Close to unsubscribe")
	}

	client.emit(&models.User{ID: "user-2"})
	if u := gate.User(); u == nil || u.ID != "user-1" {
		t.Errorf("expected identity to stay user-1 after close, got %+v", u)
	}

	if err := gate.Mount(context.Background()); err == nil {
		t.Error("expected Mount after Close to fail")
	}
}

func TestGateMountFailureStaysSubscribed(t *testing.T) {
	client := &fakeAuth{err: utils.ErrRemoteService}
	gate := NewGate(client, nil, utils.NopLogger())

	if err := gate.Mount(context.Background()); !errors.Is(err, utils.ErrRemoteService) {
		t.Fatalf("expected ErrRemoteService, got %v", err)
	}
	if gate.User() != nil {
		t.Fatal("expected signed out")
	}

	client.emit(&models.User{ID: "user-1"})
	if gate.User() == nil {
		t.Error("expected subscription to still deliver identity")
	}
}

func TestGateSignInFailureNotifies(t *testing.T) {
	client := &fakeAuth{signInErr: errors.New("provider unavailable")}
	notices := &notify.Recorder{}
	gate := NewGate(client, notices, utils.NopLogger())

	err := gate.SignIn(context.Background(), "google")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(client.signIns) != 1 || client.signIns[0] != "google" {
		t.Errorf("expected exactly one sign-in attempt, got %v", client.signIns)
	}
	got := notices.Notices()
	if len(got) != 1 || got[0].Kind != notify.Error {
		t.Fatalf("expected one error notice, got %+v", got)
	}
	if gate.User() != nil {
		t.Error("expected state unchanged after failed sign-in")
	}

	client.signInErr = nil
	if err := gate.SignIn(context.Background(), "google"); err != nil {
		t.Errorf("SignIn: %v", err)
	}
	if len(notices.Notices()) != 1 {
		t.Error("successful sign-in should not notify")
	}
}
