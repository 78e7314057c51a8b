package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SummaryProject/SP-Backend/internal/api"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// fakeStore is an in-memory token + call store implementing both
// api.TokenFetcher and api.CallStore, with the same conditional-append
// semantics as the real one.
type fakeStore struct {
	mu        sync.Mutex
	history   map[string][]string // token string -> ordered call ids
	calls     map[string]api.Call
	appendErr error
}

func newFakeStore(tokens ...string) *fakeStore {
	s := &fakeStore{
		history: make(map[string][]string),
		calls:   make(map[string]api.Call),
	}
	for _, tok := range tokens {
		s.history[tok] = []string{}
	}
	return s
}

func (s *fakeStore) FindTokenByString(token string) (api.TokenData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.history[token]
	if !ok {
		return api.TokenData{}, api.ErrTokenNotFound
	}
	return api.TokenData{ID: token, Token: token, CallCount: len(ids)}, nil
}

func (s *fakeStore) CreateCall(requestType, requestBody string) (api.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := api.Call{ID: uuid.NewString(), RequestType: requestType, RequestBody: requestBody}
	s.calls[call.ID] = call
	return call, nil
}

func (s *fakeStore) AppendCall(tokenString, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	ids, ok := s.history[tokenString]
	if !ok {
		return api.ErrTokenVanished
	}
	if len(ids) >= api.MaxCalls {
		return api.ErrQuotaExceeded
	}
	s.history[tokenString] = append(ids, callID)
	return nil
}

func (s *fakeStore) historyLen(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history[token])
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeEngine stubs the summarizer subprocess.
type fakeEngine struct {
	summary string
	err     error
}

func (f fakeEngine) Summarize(ctx context.Context, text string) (string, error) {
	return f.summary, f.err
}

// okVerifier accepts every token.
type okVerifier struct{}

func (okVerifier) Verify(token string) error { return nil }

func newTestRouter(store *fakeStore, engine api.Engine) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(api.TokenAuthMiddleware(store, okVerifier{}))
		r.Post("/summarize", api.SummarizeHandler(engine, api.Recorder{Store: store}))
	})
	return r
}

func postSummarize(t *testing.T, h http.Handler, token, text string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(api.SummarizeRequest{Text: text, Token: token})
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestSummarize_SuccessRecordsOneCall verifies the happy path: 200 with the
// summary body and exactly one new Call in the token's history.
func TestSummarize_SuccessRecordsOneCall(t *testing.T) {
	store := newFakeStore("tok")
	h := newTestRouter(store, fakeEngine{summary: "ok"})

	rec := postSummarize(t, h, "tok", "some long text")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}

	var resp api.SummarizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %s", rec.Body.String())
	}
	if resp.Summary != "ok" {
		t.Errorf("expected summary %q, got %q", "ok", resp.Summary)
	}
	if got := store.historyLen("tok"); got != 1 {
		t.Errorf("expected exactly 1 recorded call, got %d", got)
	}
}

// TestSummarize_QuotaBoundary walks the full boundary: a token with 19 calls
// succeeds, its history reaches 20, and the next request is rejected with
// the quota message.
func TestSummarize_QuotaBoundary(t *testing.T) {
	store := newFakeStore("tok")
	for i := 0; i < api.MaxCalls-1; i++ {
		if err := store.AppendCall("tok", fmt.Sprintf("old-call-%d", i)); err != nil {
			t.Fatalf("seed append %d: %v", i, err)
		}
	}
	h := newTestRouter(store, fakeEngine{summary: "ok"})

	rec := postSummarize(t, h, "tok", "the 20th call")
	if rec.Code != http.StatusOK {
		t.Fatalf("request 20 should pass, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if got := store.historyLen("tok"); got != api.MaxCalls {
		t.Fatalf("expected history length %d, got %d", api.MaxCalls, got)
	}

	rec = postSummarize(t, h, "tok", "the 21st call")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("request 21 should be rejected, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "max API call amount") {
		t.Errorf("expected quota message, got: %q", rec.Body.String())
	}
	if got := store.historyLen("tok"); got != api.MaxCalls {
		t.Errorf("history must not grow past the quota, got %d", got)
	}
}

// TestSummarize_SubprocessFailureRecordsNothing verifies that a summarizer
// failure yields a server error and no Call is created for the attempt.
func TestSummarize_SubprocessFailureRecordsNothing(t *testing.T) {
	store := newFakeStore("tok")
	h := newTestRouter(store, fakeEngine{err: fmt.Errorf("%w: boom", api.ErrSubprocess)})

	rec := postSummarize(t, h, "tok", "text")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if store.callCount() != 0 {
		t.Errorf("no Call may be created for a failed attempt, got %d", store.callCount())
	}
	if store.historyLen("tok") != 0 {
		t.Errorf("history must be untouched, got %d", store.historyLen("tok"))
	}
}

// TestSummarize_AccountingFailureOverridesResult verifies that a recorder
// failure turns an otherwise successful summarization into a server error.
func TestSummarize_AccountingFailureOverridesResult(t *testing.T) {
	store := newFakeStore("tok")
	store.appendErr = errors.New("db down")
	h := newTestRouter(store, fakeEngine{summary: "computed fine"})

	rec := postSummarize(t, h, "tok", "text")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "computed fine") {
		t.Error("the computed summary must not leak on accounting failure")
	}
	if !strings.Contains(rec.Body.String(), "failed to save api call") {
		t.Errorf("expected accounting message, got: %q", rec.Body.String())
	}
}

// TestSummarize_VanishedTokenIsServerError verifies the token-deleted-
// between-check-and-record path: 500, while the orphan Call still exists.
func TestSummarize_VanishedTokenIsServerError(t *testing.T) {
	store := newFakeStore("tok")
	// The engine deletes the token mid-request, after authorization passed.
	engine := engineFunc(func(ctx context.Context, text string) (string, error) {
		store.mu.Lock()
		delete(store.history, "tok")
		store.mu.Unlock()
		return "ok", nil
	})
	h := newTestRouter(store, engine)

	rec := postSummarize(t, h, "tok", "text")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if store.callCount() != 1 {
		t.Errorf("expected the orphan Call to exist, got %d", store.callCount())
	}
}

type engineFunc func(ctx context.Context, text string) (string, error)

func (f engineFunc) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func TestSummarize_EmptyTextRejected(t *testing.T) {
	store := newFakeStore("tok")
	h := newTestRouter(store, fakeEngine{summary: "ok"})

	rec := postSummarize(t, h, "tok", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if store.callCount() != 0 {
		t.Errorf("validation failures must not be recorded, got %d calls", store.callCount())
	}
}

func TestSummarize_UnknownTokenRejected(t *testing.T) {
	store := newFakeStore("tok")
	h := newTestRouter(store, fakeEngine{summary: "ok"})

	rec := postSummarize(t, h, "other-token", "text")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid Token") {
		t.Errorf("expected invalid-token message, got: %q", rec.Body.String())
	}
}
