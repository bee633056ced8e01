package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type sessionFile struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// FileStore keeps the bearer token in a yaml file and reports changes made
// to it by any process.
type FileStore struct {
	path   string
	logger *utils.Logger

	mu      sync.Mutex
	token   string
	subs    map[int]func()
	nextSub int
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewFileStore(path string, logger *utils.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger,
		subs:   make(map[int]func()),
	}
	token, err := s.read()
	if err != nil {
		return nil, err
	}
	s.token = token
	return s, nil
}

func (s *FileStore) read() (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	var f sessionFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return "", fmt.Errorf("parse session: %w", err)
	}
	return f.Token, nil
}

// Token returns the stored bearer token, or "" when signed out.
func (s *FileStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *FileStore) SaveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	raw, err := yaml.Marshal(sessionFile{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	s.set(token)
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	s.set("")
	return nil
}

// set records token and notifies subscribers when it changed.
func (s *FileStore) set(token string) {
	s.mu.Lock()
	if token == s.token {
		s.mu.Unlock()
		return
	}
	s.token = token
	subs := make([]func(), 0, len(s.subs))
	for _, cb := range s.subs {
		subs = append(subs, cb)
	}
	s.mu.Unlock()

	for _, cb := range subs {
		cb()
	}
}

// Subscribe calls cb whenever the stored token changes. The file is watched
// while at least one subscriber exists.
func (s *FileStore) Subscribe(cb func()) (unsubscribe func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		if err := s.startWatch(); err != nil {
			return nil, err
		}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		stop := len(s.subs) == 0 && s.watcher != nil
		var w *fsnotify.Watcher
		var done chan struct{}
		if stop {
			w, done = s.watcher, s.done
			s.watcher, s.done = nil, nil
		}
		s.mu.Unlock()

		if stop {
			w.Close()
			<-done
		}
	}, nil
}

// startWatch watches the session directory, since the file itself is
// replaced on every save. Caller holds s.mu.
func (s *FileStore) startWatch() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch session: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch session: %w", err)
	}

	done := make(chan struct{})
	s.watcher, s.done = w, done

	go func() {
		defer close(done)
		name := filepath.Base(s.path)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				token, err := s.read()
				if err != nil {
					s.logger.Warn("Failed to reload session", "error", err)
					continue
				}
				s.set(token)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Session watcher error", "error", err)
			}
		}
	}()

	return nil
}

// IdentityAPI is the part of the API client the auth adapter needs.
type IdentityAPI interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	AuthURL(ctx context.Context, provider string) (string, error)
}

// RemoteAuth implements AuthClient on top of the API and a FileStore.
type RemoteAuth struct {
	store   *FileStore
	api     IdentityAPI
	openURL func(url string) error
	logger  *utils.Logger
}

// NewRemoteAuth hands sign-in URLs to openURL, which typically shows or
// opens them for the user.
func NewRemoteAuth(store *FileStore, api IdentityAPI, openURL func(string) error, logger *utils.Logger) *RemoteAuth {
	return &RemoteAuth{store: store, api: api, openURL: openURL, logger: logger}
}

func (a *RemoteAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	return a.api.CurrentUser(ctx)
}

func (a *RemoteAuth) OnAuthChange(cb func(*models.User)) func() {
	unsubscribe, err := a.store.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		user, err := a.api.CurrentUser(ctx)
		if err != nil {
			a.logger.Warn("Failed to refresh user after session change", "error", err)
			user = nil
		}
		cb(user)
	})
	if err != nil {
		a.logger.Warn("Session changes will not be observed", "error", err)
		return func() {}
	}
	return unsubscribe
}

func (a *RemoteAuth) SignInWithOAuth(ctx context.Context, provider string) error {
	url, err := a.api.AuthURL(ctx, provider)
	if err != nil {
		return fmt.Errorf("start %s sign-in: %w", provider, err)
	}
	if a.openURL == nil {
		return fmt.Errorf("no way to open %s", url)
	}
	return a.openURL(url)
}
