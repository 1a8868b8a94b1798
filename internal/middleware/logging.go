package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging returns a middleware that logs every API call.
// It logs the method, path, status, user ID and duration.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			userID := GetUserID(req.Context()) // empty if pre-auth

			resp, err := next.RoundTrip(req)

			duration := time.Since(start).Milliseconds()
			switch {
			case err != nil:
				logger.Error("API error",
					"method", req.Method,
					"path", req.URL.Path,
					"error", err,
					"user_id", userID,
					"duration_ms", duration,
				)
			case resp.StatusCode >= http.StatusBadRequest:
				logger.Warn("API error",
					"method", req.Method,
					"path", req.URL.Path,
					"status", resp.StatusCode,
					"user_id", userID,
					"duration_ms", duration,
				)
			default:
				logger.Debug("API ok",
					"method", req.Method,
					"path", req.URL.Path,
					"status", resp.StatusCode,
					"user_id", userID,
					"duration_ms", duration,
				)
			}

			return resp, err
		})
	}
}
