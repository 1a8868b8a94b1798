// Package session holds the signed-in user for the lifetime of a client.
//
// A Session is created explicitly and passed to whatever needs it; nothing
// reads the credential from global state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/evenly/internal/api"
	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/internal/middleware"
	"github.com/mmynk/evenly/internal/models"
	"github.com/mmynk/evenly/internal/storage"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not signed in")

// UserFetcher resolves the user a token belongs to.
type UserFetcher interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

var (
	_ middleware.TokenSource  = (*Session)(nil)
	_ middleware.UserIDSource = (*Session)(nil)
)

// Session is the authenticated state of one client.
// It is safe for concurrent use.
type Session struct {
	store     storage.CredentialStore
	users     UserFetcher
	inspector *auth.TokenInspector
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.RWMutex
	token string
	user  *models.User
}

// New creates an unauthenticated Session backed by store. users may be set
// later with SetUserFetcher when the API client itself needs the session.
func New(store storage.CredentialStore, users UserFetcher) *Session {
	return &Session{
		store:     store,
		users:     users,
		inspector: auth.NewTokenInspector(),
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// SetUserFetcher sets the fetcher Init validates the stored token with.
func (s *Session) SetUserFetcher(users UserFetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

// SetLogger replaces the default logger. It must be called before the
// session is shared.
func (s *Session) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Init restores the persisted session.
//
// A stored token is validated against the API. If the API rejects it, the
// credential is discarded. If the API cannot be reached, the stored user is
// trusted so the client keeps working offline.
func (s *Session) Init(ctx context.Context) error {
	cred, err := s.store.LoadCredential(ctx)
	switch {
	case errors.Is(err, storage.ErrNoCredential):
		return nil
	case errors.Is(err, auth.ErrCorrupt):
		s.logger.Warn("Discarding unreadable stored session", "error", err)
		return s.clear(ctx)
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	}

	claims, err := s.inspector.Inspect(cred.Token)
	if err == nil && claims.Expired(s.now()) {
		s.logger.Info("Stored session expired", "expired_at", claims.ExpiresAt.Time)
		return s.clear(ctx)
	}

	s.mu.RLock()
	users := s.users
	s.mu.RUnlock()
	if users == nil {
		s.set(cred.Token, cred.User)
		return nil
	}

	user, err := users.CurrentUser(ctx, cred.Token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			s.logger.Info("Stored session rejected", "status", apiErr.Status)
			return s.clear(ctx)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("Could not verify session, using stored user", "error", err)
		s.set(cred.Token, cred.User)
		return nil
	}

	user = normalize(user, claims)
	s.set(cred.Token, user)
	if err := s.store.SaveCredential(ctx, &storage.Credential{Token: cred.Token, User: user}); err != nil {
		s.logger.Warn("Failed to refresh stored user", "error", err)
	}
	return nil
}

// Login persists token and user and marks the session authenticated.
// A nil user keeps the user already known to the session.
func (s *Session) Login(ctx context.Context, token string, user *models.User) error {
	if token == "" {
		return auth.ErrMissingToken
	}
	if user == nil {
		s.mu.RLock()
		user = s.user
		s.mu.RUnlock()
	} else {
		claims, _ := s.inspector.Inspect(token)
		user = normalize(user, claims)
	}

	if err := s.store.SaveCredential(ctx, &storage.Credential{Token: token, User: user}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.set(token, user)
	return nil
}

// Refresh replaces the signed-in user, keeping the token.
func (s *Session) Refresh(ctx context.Context, user models.User) error {
	token := s.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	return s.Login(ctx, token, &user)
}

// Teardown signs out: the stored credential and the in-memory state are
// both cleared.
func (s *Session) Teardown(ctx context.Context) error {
	return s.clear(ctx)
}

// Token returns the session token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// UserID returns the signed-in user's id, or "".
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Session) set(token string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Session) clear(ctx context.Context) error {
	s.set("", nil)
	if err := s.store.ClearCredential(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// normalize copies user and fills a missing id from the token claims.
func normalize(user *models.User, claims *auth.Claims) *models.User {
	u := *user
	if u.ID == "" && claims != nil {
		u.ID = claims.UserID()
	}
	return &u
}
