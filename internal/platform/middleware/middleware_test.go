package middleware

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/internal/jwtactor"
	"vantage/pkg/domain"
	"vantage/pkg/requestcontext"
	"vantage/pkg/testutil"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("generates an ID when none supplied", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("honors a caller-supplied ID", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(RequestIDHeader, "req-123")
		testutil.DoRequest(handler, req)
		assert.Equal(t, "req-123", seen)
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := testutil.UnmarshalErrorResponse(t, rr)
	assert.Equal(t, "internal_error", body["error"])
}

func TestRequireActor(t *testing.T) {
	jwt := jwtactor.New("test-signing-key-at-least-32-bytes!", "vantage", "vantage-console")
	var seen domain.Actor
	handler := RequireActor(jwt, slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Actor(r.Context())
	}))

	t.Run("missing token is unauthorized", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token is unauthorized", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer garbage")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token puts the actor in context", func(t *testing.T) {
		actor := domain.Actor{ID: "app-1", Role: domain.RolePlatformApprover}
		token, err := jwt.IssueToken(actor, time.Hour)
		require.NoError(t, err)

		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, actor, seen)
	})
}
