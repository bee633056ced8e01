// Package session tracks who is signed in and gates the features that need
// an identity.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/notify"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// AuthClient is the auth collaborator.
type AuthClient interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	// OnAuthChange registers cb for identity changes. The returned function
	// unsubscribes.
	OnAuthChange(cb func(*models.User)) (unsubscribe func())
	SignInWithOAuth(ctx context.Context, provider string) error
}

// Gate holds the current identity. Mount it once; Close it on teardown.
type Gate struct {
	client   AuthClient
	notifier notify.Notifier
	logger   *utils.Logger

	mu          sync.Mutex
	user        *models.User
	watchers    map[int]func(*models.User)
	nextWatcher int
	unsubscribe func()
	closed      bool
	// version counts identity changes so a slow Mount lookup cannot
	// overwrite a newer subscription update.
	version int
}

func NewGate(client AuthClient, notifier notify.Notifier, logger *utils.Logger) *Gate {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Gate{
		client:   client,
		notifier: notifier,
		logger:   logger,
		watchers: make(map[int]func(*models.User)),
	}
}

// Mount subscribes to identity changes and loads the current identity. A
// failed lookup leaves the gate signed out but still subscribed.
func (g *Gate) Mount(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return fmt.Errorf("session gate is closed")
	}
	if g.unsubscribe == nil {
		g.unsubscribe = g.client.OnAuthChange(g.setUser)
	}
	version := g.version
	g.mu.Unlock()

	user, err := g.client.CurrentUser(ctx)
	if err != nil {
		g.logger.Warn("Failed to load current user", "error", err)
		return err
	}
	g.update(user, version)
	return nil
}

func (g *Gate) setUser(user *models.User) {
	g.update(user, -1)
}

// update stores user unless the gate is closed or, for ifVersion >= 0, the
// identity changed since ifVersion was read.
func (g *Gate) update(user *models.User, ifVersion int) {
	g.mu.Lock()
	if g.closed || (ifVersion >= 0 && ifVersion != g.version) {
		g.mu.Unlock()
		return
	}
	g.version++
	g.user = copyUser(user)
	watchers := make([]func(*models.User), 0, len(g.watchers))
	for _, w := range g.watchers {
		watchers = append(watchers, w)
	}
	g.mu.Unlock()

	for _, w := range watchers {
		w(copyUser(user))
	}
}

// Watch calls cb after every identity change until the returned cancel
// function is called.
func (g *Gate) Watch(cb func(*models.User)) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextWatcher
	g.nextWatcher++
	g.watchers[id] = cb

	return func() {
		g.mu.Lock()
		delete(g.watchers, id)
		g.mu.Unlock()
	}
}

// User returns the current identity, or nil when signed out.
func (g *Gate) User() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyUser(g.user)
}

func (g *Gate) Require() (*models.User, error) {
	if u := g.User(); u != nil {
		return u, nil
	}
	return nil, utils.ErrAuthRequired
}

// SignIn starts an OAuth sign-in. Failures are reported once through the
// notifier; the identity only changes through the auth subscription.
func (g *Gate) SignIn(ctx context.Context, provider string) error {
	if err := g.client.SignInWithOAuth(ctx, provider); err != nil {
		g.logger.Error("Sign-in failed", "provider", provider, "error", err)
		g.notifier.Notify(notify.Notice{
			Kind:    notify.Error,
			Title:   "Sign in failed",
			Message: err.Error(),
		})
		return err
	}
	return nil
}

// Close unsubscribes. Identity changes after Close are ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.watchers = make(map[int]func(*models.User))
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
