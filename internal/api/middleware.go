package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/SummaryProject/SP-Backend/internal/httputil"
	"github.com/SummaryProject/SP-Backend/internal/utils"
)

// TokenAuthMiddleware gates protected routes on the bearer token carried
// in the JSON request body. Order matters: store lookup, then quota,
// then signature verification. All three paths are read-only and the
// inner handler never runs on failure.
func TokenAuthMiddleware(fetcher TokenFetcher, verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				httputil.WriteError(w, http.StatusRequestEntityTooLarge, "payload too large or unreadable")
				return
			}
			r.Body.Close()

			var body struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(raw, &body); err != nil {
				httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON Body")
				return
			}

			tokenData, err := fetcher.FindTokenByString(body.Token)
			if errors.Is(err, ErrTokenNotFound) {
				httputil.WriteError(w, http.StatusBadRequest, "Invalid Token")
				return
			}
			if err != nil {
				log.Printf("[api] token lookup error: %v", err)
				httputil.WriteError(w, http.StatusBadRequest, "An error occurred when validating the Token")
				return
			}

			if tokenData.CallCount >= MaxCalls {
				httputil.WriteError(w, http.StatusBadRequest, "You have reached the max API call amount")
				return
			}

			// Signature check comes last: the cheap store checks above
			// short-circuit it, and a stored token can still fail here
			// (wrong secret, tampering, expiry).
			if err := verifier.Verify(body.Token); err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "Invalid Token")
				return
			}

			// Hand the body back to the handler untouched.
			r.Body = io.NopCloser(bytes.NewReader(raw))
			ctx := context.WithValue(r.Context(), utils.ContextAPITokenKey, body.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
