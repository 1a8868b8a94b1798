package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/internal/models"
	"github.com/mmynk/evenly/internal/session"
)

// ErrNoToken is returned when the API accepts credentials but sends no token.
var ErrNoToken = errors.New("server returned no session token")

// UserFetcher loads the signed-in user from the API.
type UserFetcher interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthService signs users in and out of a Session.
type AuthService struct {
	authenticator auth.Authenticator
	users         UserFetcher
	session       *session.Session
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, users UserFetcher, sess *session.Session, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		session:       sess,
		logger:        logger,
	}
}

// SignIn authenticates with email and password and starts the session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	s.logger.Info("SignIn request", "email", email)

	if err := auth.ValidateSignIn(email, password); err != nil {
		return nil, err
	}

	resp, err := s.authenticator.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn("SignIn failed", "email", email, "error", err)
		return nil, err
	}
	return s.start(ctx, resp)
}

// SignUp creates an account and starts the session.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*models.User, error) {
	s.logger.Info("SignUp request", "email", email)

	if err := auth.ValidateSignUp(name, email, password); err != nil {
		return nil, err
	}

	resp, err := s.authenticator.SignUp(ctx, name, email, password)
	if err != nil {
		s.logger.Error("SignUp failed", "email", email, "error", err)
		return nil, err
	}
	return s.start(ctx, resp)
}

// SignOut ends the session.
func (s *AuthService) SignOut(ctx context.Context) error {
	s.logger.Info("SignOut request", "user_id", s.session.UserID())
	return s.session.Teardown(ctx)
}

// ChangePassword replaces the signed-in user's password.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	if !s.session.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}
	if err := auth.ValidatePasswordChange(current, next); err != nil {
		return err
	}
	if err := s.authenticator.ChangePassword(ctx, current, next); err != nil {
		s.logger.Warn("ChangePassword failed", "user_id", s.session.UserID(), "error", err)
		return err
	}
	s.logger.Info("Password changed", "user_id", s.session.UserID())
	return nil
}

// SignInWithToken starts a session from a token issued out of band, as the
// Google OAuth redirect does. The token is stored first and the user is then
// fetched with it; if that fails the session is cleared again.
func (s *AuthService) SignInWithToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	s.logger.Info("SignInWithToken request")

	if err := s.session.Teardown(ctx); err != nil {
		return nil, err
	}
	if err := s.session.Login(ctx, token, nil); err != nil {
		return nil, err
	}
	user, err := s.ReloadUser(ctx)
	if err != nil {
		s.logger.Warn("SignInWithToken failed", "error", err)
		if clearErr := s.session.Teardown(ctx); clearErr != nil {
			s.logger.Warn("Failed to clear session", "error", clearErr)
		}
		return nil, fmt.Errorf("failed to load signed-in user: %w", err)
	}
	s.logger.Info("Signed in with token", "user_id", user.ID)
	return user, nil
}

// ReloadUser re-fetches the signed-in user and stores the result.
func (s *AuthService) ReloadUser(ctx context.Context) (*models.User, error) {
	if !s.session.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	user, err := s.users.CurrentUser(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := s.session.Refresh(ctx, *user); err != nil {
		return nil, err
	}
	u, _ := s.session.User()
	return &u, nil
}

// PasswordStrength reports the first unmet password rule.
func (s *AuthService) PasswordStrength(password string) string {
	return auth.PasswordStrength(password)
}

func (s *AuthService) start(ctx context.Context, resp *models.AuthResponse) (*models.User, error) {
	if resp == nil || resp.Token == "" {
		return nil, ErrNoToken
	}

	user := resp.User
	if user == nil {
		// Older API versions only return the token.
		fetched, err := s.users.CurrentUser(ctx, resp.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to load signed-in user: %w", err)
		}
		user = fetched
	}

	if err := s.session.Login(ctx, resp.Token, user); err != nil {
		return nil, err
	}
	u, _ := s.session.User()
	s.logger.Info("Signed in", "user_id", u.ID)
	return &u, nil
}
