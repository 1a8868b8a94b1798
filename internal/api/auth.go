package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/internal/middleware"
	"github.com/mmynk/evenly/internal/models"
)

var _ auth.Authenticator = (*Client)(nil)

// SignIn exchanges credentials for a session token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	resp := &models.AuthResponse{}
	if err := c.post(ctx, "/auth/signin", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignUp registers an account and returns its session token.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	resp := &models.AuthResponse{}
	if err := c.post(ctx, "/auth/signup", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CurrentUser fetches the user token belongs to. An empty token uses the
// client's TokenSource.
func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token != "" {
		ctx = middleware.WithToken(ctx, token)
	}
	user := &models.User{}
	if err := c.get(ctx, "/users/current", nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.post(ctx, "/users/change-password", models.ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// UpdateAIConsent records whether the user opts into insight emails.
func (c *Client) UpdateAIConsent(ctx context.Context, consent bool) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/users/ai-consent",
		body:   map[string]bool{"aiConsent": consent},
	}, nil)
}

// ProfilePicField is the multipart field the API reads the image from.
const ProfilePicField = "profilePic"

// UploadProfilePic replaces the signed-in user's avatar with the image read
// from r and returns its new URL.
func (c *Client) UploadProfilePic(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(ProfilePicField, filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	var resp struct {
		ImageURL string `json:"imageUrl"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/users/profile-pic",
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}
