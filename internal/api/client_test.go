package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/evenly/internal/metrics"
	"github.com/mmynk/evenly/internal/models"
)

type tokenFunc func() string

func (f tokenFunc) Token() string { return f() }

func newTestClient(t *testing.T, mux *http.ServeMux, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	c, err := New(srv.URL+"/", opts)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("ftp://example.com", Options{})
	assert.Error(t, err)

	_, err = New("://bad", Options{})
	assert.Error(t, err)
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/groups", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]any{{"_id": "g1", "name": "Trip"}})
	})

	token := ""
	c := newTestClient(t, mux, Options{Tokens: tokenFunc(func() string { return token })})

	_, err := c.ListGroups(context.Background())
	require.NoError(t, err)
	token = "tok"
	groups, err := c.ListGroups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer tok"}, gotAuth)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
}

func TestClient_ErrorDecoding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid credentials"})
	})
	mux.HandleFunc("GET /api/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.SignIn(context.Background(), "a@b.co", "bad")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = c.GetExpense(context.Background(), "e1")
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "api: 404 Not Found", err.Error())
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, Options{Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Balances(context.Background())
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_SignInAndCurrentUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-a",
			"user":  map[string]string{"_id": "u1", "name": "Alice"},
		})
	})
	mux.HandleFunc("GET /api/users/current", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stored" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "bad token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "u1", "name": "Alice"})
	})
	c := newTestClient(t, mux, Options{Tokens: tokenFunc(func() string { return "other" })})

	resp, err := c.SignIn(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)

	user, err := c.CurrentUser(context.Background(), "stored")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = c.CurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_CreateExpenseIdempotencyKey(t *testing.T) {
	var keys []string
	var got models.CreateExpenseRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]any{"_id": "e1", "description": got.Description, "amount": got.Amount})
	})
	c := newTestClient(t, mux, Options{})

	req := models.CreateExpenseRequest{
		Description:  "Dinner",
		Amount:       90,
		PaidByUserID: "u1",
		SplitType:    models.SplitEqual,
		Splits:       []models.ExpenseSplit{{UserID: "u1", Amount: 45, Paid: true}, {UserID: "u2", Amount: 45}},
	}
	e, err := c.CreateExpense(context.Background(), req, "fixed-key")
	require.NoError(t, err)
	_, err = c.CreateExpense(context.Background(), req, "")
	require.NoError(t, err)

	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, "Dinner", got.Description)
	assert.Len(t, got.Splits, 2)
	require.Len(t, keys, 2)
	assert.Equal(t, "fixed-key", keys[0])
	assert.Len(t, keys[1], 36)
}

func TestClient_GetGroupEnvelopes(t *testing.T) {
	bodies := map[string]any{
		"selected": map[string]any{"selectedGroup": map[string]string{"_id": "g1", "name": "Flat"}, "groups": []any{}},
		"group":    map[string]any{"group": map[string]string{"id": "g1", "name": "Flat"}},
		"bare":     map[string]string{"id": "g1", "name": "Flat"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, bodies[r.PathValue("id")])
	})
	c := newTestClient(t, mux, Options{})

	for shape := range bodies {
		t.Run(shape, func(t *testing.T) {
			g, err := c.GetGroup(context.Background(), shape)
			require.NoError(t, err)
			assert.Equal(t, "g1", g.ID)
			assert.Equal(t, "Flat", g.Name)
		})
	}
}

func TestClient_GroupExpensesFallsBackToGroupMembers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/groups/g1/expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"group":    map[string]any{"_id": "g1", "members": []map[string]string{{"_id": "u1"}, {"_id": "u2"}}},
			"balances": []map[string]any{{"userId": "u1", "netBalance": 12.5}},
		})
	})
	c := newTestClient(t, mux, Options{})

	details, err := c.GetGroupExpenses(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, details.Members, 2)
	assert.Equal(t, 12.5, details.Balances[0].NetBalance)
}

func TestClient_QueryEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/settlements/data", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":       r.URL.Query().Get("entityType"),
			"netBalance": -20,
			"counterpart": map[string]string{"_id": r.URL.Query().Get("entityId"), "name": "Bob"},
		})
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bo b", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{"users": []map[string]string{{"_id": "u2", "name": "Bob"}}})
	})
	mux.HandleFunc("GET /api/dashboard/total-spent", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, 321.5)
	})
	c := newTestClient(t, mux, Options{})
	ctx := context.Background()

	data, err := c.SettlementData(ctx, "user", "u2")
	require.NoError(t, err)
	assert.Equal(t, "user", data.Type)
	assert.Equal(t, -20.0, data.NetBalance)
	assert.Equal(t, "u2", data.Counterpart.ID)

	users, err := c.SearchUsers(ctx, "bo b")
	require.NoError(t, err)
	assert.Equal(t, "Bob", users[0].Name)

	total, err := c.TotalSpent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 321.5, total)
}

func TestClient_DeleteAndEmptyBodies(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/settlements/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/users/change-password", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"oldPassword":"old-pass","newPassword":"new-pass"}`, string(b))
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux, Options{})

	require.NoError(t, c.DeleteSettlement(context.Background(), "s1"))
	assert.Equal(t, "s1", deleted)
	require.NoError(t, c.ChangePassword(context.Background(), "old-pass", "new-pass"))
}

func TestClient_Metrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dashboard/monthly-spending", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"month": 1, "total": 10}})
	})
	m := metrics.New()
	c := newTestClient(t, mux, Options{Metrics: m})

	months, err := c.MonthlySpending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.MonthlySpending{{Month: 1, Total: 10}}, months)

	n, err := testutil.GatherAndCount(m.Registry, "evenly_api_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_Updates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/users/ai-consent", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"aiConsent":true}`, string(b))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("PUT /api/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in models.CreateExpenseRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusOK, map[string]any{"_id": r.PathValue("id"), "description": in.Description, "amount": in.Amount})
	})
	c := newTestClient(t, mux, Options{})
	ctx := context.Background()

	require.NoError(t, c.UpdateAIConsent(ctx, true))

	e, err := c.UpdateExpense(ctx, "e9", models.CreateExpenseRequest{Description: "Taxi", Amount: 18})
	require.NoError(t, err)
	assert.Equal(t, "e9", e.ID)
	assert.Equal(t, "Taxi", e.Description)
	assert.Equal(t, 18.0, e.Amount)
}

func TestClient_ProfileActions(t *testing.T) {
	var sent []string
	mux := http.NewServeMux()
	for _, path := range []string{"/api/dashboard/send-insights", "/api/dashboard/send-reminders"} {
		mux.HandleFunc("POST "+path, func(w http.ResponseWriter, r *http.Request) {
			sent = append(sent, r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]string{"msg": "sent"})
		})
	}
	mux.HandleFunc("POST /api/users/profile-pic", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile(ProfilePicField)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		assert.Equal(t, "avatar.png", header.Filename)
		assert.Equal(t, "png-bytes", string(b))
		writeJSON(w, http.StatusOK, map[string]string{"imageUrl": "https://cdn.example.com/avatar.png"})
	})
	c := newTestClient(t, mux, Options{})
	ctx := context.Background()

	require.NoError(t, c.SendInsightsNow(ctx))
	require.NoError(t, c.SendRemindersNow(ctx))
	assert.Equal(t, []string{"/api/dashboard/send-insights", "/api/dashboard/send-reminders"}, sent)

	url, err := c.UploadProfilePic(ctx, "/tmp/photos/avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatar.png", url)
}
