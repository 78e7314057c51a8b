package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/SummaryProject/SP-Backend/internal/db"
	"github.com/SummaryProject/SP-Backend/internal/httputil"
	"github.com/SummaryProject/SP-Backend/internal/utils"
)

type SessionFetcher interface {
	FindSessionByID(id string) (utils.SessionData, error)
}

func SessionMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "Couldn't find cookie")
				return
			}

			session, err := fetcher.FindSessionByID(cookie.Value)
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "Session does not exist!")
				return
			}

			if session.ExpiresAt.Before(time.Now()) {
				httputil.WriteError(w, http.StatusUnauthorized, "Session expired")
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var allowed = map[string]struct{}{
	"http://localhost:8080": {},
	"http://localhost:5500": {},
	"https://comp4537-summaryproject.azurewebsites.net": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type User struct {
	UserID string `gorm:"primaryKey"`
	Role   string
}

func (User) TableName() string { return "app_auth.users" }

func AdminMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get user ID from context
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized: missing user ID in context")
				return
			}

			// Fetch the user by ID
			var user User
			if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized: user not found")
				return
			}

			// Check role
			if user.Role != "admin" {
				httputil.WriteError(w, http.StatusForbidden, "User is not an admin")
				return
			}

			// Pass request down the chain
			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
