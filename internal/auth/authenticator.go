package auth

import (
	"context"

	"github.com/mmynk/evenly/internal/models"
)

// Authenticator defines the remote side of authentication.
// The API client implements it; tests swap in fakes. Implementations do not
// touch the local session, which is the caller's job.
type Authenticator interface {
	// SignIn exchanges an email and password for a session token.
	SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error)

	// SignUp creates a new account and returns its first session token.
	SignUp(ctx context.Context, name, email, password string) (*models.AuthResponse, error)

	// ChangePassword replaces the signed-in user's password.
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}
