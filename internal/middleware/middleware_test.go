package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken struct {
	token  string
	userID string
}

func (s staticToken) Token() string  { return s.token }
func (s staticToken) UserID() string { return s.userID }

// recorder captures the request that reached the end of the chain.
func recorder(got **http.Request, status int) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		*got = req
		rec := httptest.NewRecorder()
		rec.WriteHeader(status)
		return rec.Result(), nil
	})
}

func newRequest(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://api.test/api/groups", nil)
	require.NoError(t, err)
	return req
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}
	var got *http.Request
	rt := Chain(recorder(&got, http.StatusOK), mark("first"), mark("second"))

	_, err := rt.RoundTrip(newRequest(t, context.Background()))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBearerAuth(t *testing.T) {
	t.Run("attaches token without mutating the request", func(t *testing.T) {
		var got *http.Request
		rt := BearerAuth(staticToken{token: "abc", userID: "u1"})(recorder(&got, http.StatusOK))
		req := newRequest(t, context.Background())

		_, err := rt.RoundTrip(req)

		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", got.Header.Get("Authorization"))
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.Equal(t, "u1", GetUserID(got.Context()))
	})

	t.Run("no token sends no header", func(t *testing.T) {
		var got *http.Request
		rt := BearerAuth(staticToken{})(recorder(&got, http.StatusOK))

		_, err := rt.RoundTrip(newRequest(t, context.Background()))

		require.NoError(t, err)
		assert.Empty(t, got.Header.Get("Authorization"))
	})

	t.Run("context token overrides source", func(t *testing.T) {
		var got *http.Request
		rt := BearerAuth(staticToken{token: "session"})(recorder(&got, http.StatusOK))

		_, err := rt.RoundTrip(newRequest(t, WithToken(context.Background(), "stored")))

		require.NoError(t, err)
		assert.Equal(t, "Bearer stored", got.Header.Get("Authorization"))
	})

	t.Run("explicit header wins", func(t *testing.T) {
		var got *http.Request
		rt := BearerAuth(staticToken{token: "session"})(recorder(&got, http.StatusOK))
		req := newRequest(t, context.Background())
		req.Header.Set("Authorization", "Bearer manual")

		_, err := rt.RoundTrip(req)

		require.NoError(t, err)
		assert.Equal(t, "Bearer manual", got.Header.Get("Authorization"))
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var got *http.Request
	ok := Logging(logger)(recorder(&got, http.StatusOK))
	_, err := ok.RoundTrip(newRequest(t, WithUserID(context.Background(), "u9")))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "API ok")
	assert.Contains(t, buf.String(), "user_id=u9")

	buf.Reset()
	notFound := Logging(logger)(recorder(&got, http.StatusNotFound))
	_, err = notFound.RoundTrip(newRequest(t, context.Background()))
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "level=WARN"), buf.String())
	assert.Contains(t, buf.String(), "status=404")

	buf.Reset()
	boom := errors.New("connection refused")
	failing := Logging(logger)(RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}))
	_, err = failing.RoundTrip(newRequest(t, context.Background()))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "level=ERROR")
}
