package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SummaryProject/SP-Backend/internal/middleware"
	"github.com/SummaryProject/SP-Backend/internal/utils"
)

// stubFetcher implements middleware.SessionFetcher without a database.
type stubFetcher struct {
	session utils.SessionData
	err     error
}

func (s stubFetcher) FindSessionByID(id string) (utils.SessionData, error) {
	return s.session, s.err
}

// envelope mirrors the httputil response shape for assertions.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// decodeEnvelope parses the recorded body as the shared response envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an envelope: %q", rec.Body.String())
	}
	return env
}

// runSession sends a GET through SessionMiddleware with an optional
// session_id cookie, using a 200-OK inner handler, and returns the response.
func runSession(t *testing.T, fetcher middleware.SessionFetcher, sessionID string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.SessionMiddleware(fetcher)(inner)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestSessionMiddleware_MissingCookie verifies that a request without a
// session_id cookie gets a 401 failure envelope.
func TestSessionMiddleware_MissingCookie(t *testing.T) {
	rec := runSession(t, stubFetcher{}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("expected success=false in envelope")
	}
	if env.Error != "Couldn't find cookie" {
		t.Errorf("expected error %q, got %q", "Couldn't find cookie", env.Error)
	}
}

// TestSessionMiddleware_UnknownSession verifies that a fetcher error (no such
// session row) yields a 401 with the session-missing message.
func TestSessionMiddleware_UnknownSession(t *testing.T) {
	fetcher := stubFetcher{err: errors.New("record not found")}

	rec := runSession(t, fetcher, "no-such-session")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("expected success=false in envelope")
	}
	if env.Error != "Session does not exist!" {
		t.Errorf("expected error %q, got %q", "Session does not exist!", env.Error)
	}
}

// TestSessionMiddleware_ExpiredSession verifies that a session past its
// expiry is rejected with its own message, distinct from the unknown case.
func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	fetcher := stubFetcher{
		session: utils.SessionData{
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(-time.Minute),
		},
	}

	rec := runSession(t, fetcher, "stale-session")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("expected success=false in envelope")
	}
	if env.Error != "Session expired" {
		t.Errorf("expected error %q, got %q", "Session expired", env.Error)
	}
}

// TestSessionMiddleware_ValidSession verifies the pass-through path: 200 from
// the inner handler, which must find the session's userID in the context.
func TestSessionMiddleware_ValidSession(t *testing.T) {
	const wantUserID = "user-42"

	fetcher := stubFetcher{
		session: utils.SessionData{
			UserID:    wantUserID,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := utils.GetUserIDFromContext(r.Context())
		if !ok || got != wantUserID {
			http.Error(w, "wrong userID in context: "+got, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.SessionMiddleware(fetcher)(inner)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "live-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

// TestAdminMiddleware_MissingUserID verifies that AdminMiddleware rejects a
// request whose context carries no userID (session middleware never ran).
// This path touches neither the fetcher nor the database.
func TestAdminMiddleware_MissingUserID(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.AdminMiddleware(stubFetcher{})(inner)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("expected success=false in envelope")
	}
	if env.Error != "Unauthorized: missing user ID in context" {
		t.Errorf("unexpected error message: %q", env.Error)
	}
}
