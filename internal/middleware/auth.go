package middleware

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// tokenKey overrides the TokenSource for a single request.
	tokenKey contextKey = "token"
	// userIDKey carries the signed-in user id into request logs.
	userIDKey contextKey = "user_id"
)

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// UserIDSource is implemented by token sources that know who is signed in.
type UserIDSource interface {
	UserID() string
}

// WithToken makes requests made with ctx use token instead of the
// TokenSource. It is used to validate a stored token before it is trusted.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

// WithUserID records the signed-in user id for request logging.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// BearerAuth attaches "Authorization: Bearer <token>" when a token is
// available. A header already present on the request is left alone.
func BearerAuth(src TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}

			ctx := req.Context()
			token, ok := TokenFromContext(ctx)
			if !ok && src != nil {
				token = src.Token()
			}
			if ids, isIDs := src.(UserIDSource); isIDs && GetUserID(ctx) == "" {
				if id := ids.UserID(); id != "" {
					ctx = WithUserID(ctx, id)
				}
			}
			if token == "" {
				return next.RoundTrip(req.WithContext(ctx))
			}

			// RoundTrippers must not modify the caller's request.
			out := req.Clone(ctx)
			out.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(out)
		})
	}
}
