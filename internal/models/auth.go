package models

// AuthResponse is returned by sign-in and sign-up: a session token and the
// signed-in user.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// ChangePasswordRequest is the payload for changing the current user's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
