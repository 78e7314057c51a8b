package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/SummaryProject/SP-Backend/internal/api"
	"github.com/SummaryProject/SP-Backend/internal/db"
	"github.com/SummaryProject/SP-Backend/internal/httputil"
	"github.com/SummaryProject/SP-Backend/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// sessionCookie builds the session_id cookie. Deployed behind HTTPS
// (PORT set) the frontend lives on another origin, so the cookie must
// be SameSite=None + Secure; local dev over plain HTTP needs Lax.
func sessionCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
	}
	if os.Getenv("PORT") != "" {
		c.SameSite = http.SameSiteNoneMode
		c.Secure = true
	} else {
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var user User

	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON Body")
		return
	}

	if user.Email == "" || user.Password == "" || user.FirstName == "" || user.LastName == "" {
		httputil.WriteError(w, http.StatusBadRequest, "first_name, last_name, email and password are required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Server error hashing password")
		return
	}
	user.HashedPassword = string(hashed)
	user.UserID = uuid.NewString()
	user.Password = ""
	user.Role = "standard"

	secret, err := api.SecretFromEnv()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Server misconfigured")
		return
	}

	credential, err := api.Issuer{Secret: secret}.Issue(user.UserID, user.Email, user.FirstName, user.LastName)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to issue API token")
		return
	}

	// Token row first so the user always points at a live token. An
	// orphaned token on user-create failure is harmless garbage.
	token := api.Token{ID: uuid.NewString(), Token: credential}
	if err := db.DB.Create(&token).Error; err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	user.APITokenID = token.ID

	if err := db.DB.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			httputil.WriteError(w, http.StatusConflict, "Email already in use")
			return
		}
		log.Printf("[auth] register error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, map[string]string{
		"user_id": user.UserID,
		"email":   user.Email,
	})
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	var user User
	var existing Session

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON Body")
		return
	}

	if err := db.DB.First(&user, "email = ?", creds.Email).Error; err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	sessionID := uuid.NewString()
	expires := time.Now().Add(SessionTTL)

	// One live session per user: rotate in place if a row exists.
	db.DB.Where("user_id = ?", user.UserID).First(&existing)
	if existing.UserID != "" {
		db.DB.Model(&existing).Updates(Session{
			SessionID: sessionID,
			ExpiresAt: expires,
		})
	} else {
		db.DB.Create(&Session{
			SessionID: sessionID,
			UserID:    user.UserID,
			ExpiresAt: expires,
		})
	}

	http.SetCookie(w, sessionCookie(sessionID, expires))
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{
		"user_id": user.UserID,
		"email":   user.Email,
	})
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var session Session

	cookie, err := r.Cookie("session_id")
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Couldn't find cookie")
		return
	}

	if err := db.DB.First(&session, "session_id = ?", cookie.Value).Error; err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Session does not exist!")
		return
	}

	db.DB.Delete(&session)

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	httputil.WriteSuccess(w, http.StatusOK, struct{}{})
}

func CheckSessionHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Session string `json:"session"`
	}
	var session Session

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON Body")
		return
	}

	err := db.DB.First(&session, "session_id = ?", body.Session).Error
	if err != nil || session.ExpiresAt.Before(time.Now()) {
		httputil.WriteError(w, http.StatusUnauthorized, "Session does not exist!")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, struct{}{})
}

func MeHandler(w http.ResponseWriter, r *http.Request) {
	var user User

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "Missing user ID in context")
		return
	}

	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		httputil.WriteError(w, http.StatusNotFound, "Couldn't find user")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]string{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

// UserTokenHandler returns the caller's API credential so the frontend
// can feed it to the protected endpoint.
func UserTokenHandler(w http.ResponseWriter, r *http.Request) {
	var user User
	var token api.Token

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "Missing user ID in context")
		return
	}

	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		httputil.WriteError(w, http.StatusNotFound, "Couldn't find user")
		return
	}

	if err := db.DB.First(&token, "id = ?", user.APITokenID).Error; err != nil {
		httputil.WriteError(w, http.StatusNotFound, "Couldn't find token")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, token.Token)
}

func callsForUser(userID string) ([]api.Call, error) {
	var user User
	var token api.Token

	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	if err := db.DB.First(&token, "id = ?", user.APITokenID).Error; err != nil {
		return nil, err
	}
	return api.TokenStore{DB: db.DB}.CallsInOrder(token)
}

// CallsHandler returns the caller's call history in insertion order.
func CallsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "Missing user ID in context")
		return
	}

	calls, err := callsForUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "Couldn't find user")
		return
	}
	if err != nil {
		log.Printf("[auth] call history error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to load call history")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, calls)
}

func CheckAdminHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Session string `json:"session"`
	}
	var session Session
	var user User

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON Body")
		return
	}

	if err := db.DB.First(&session, "session_id = ?", body.Session).Error; err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Session does not exist!")
		return
	}

	if err := db.DB.First(&user, "user_id = ?", session.UserID).Error; err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Session does not exist!")
		return
	}

	if user.Role != "admin" {
		httputil.WriteError(w, http.StatusUnauthorized, "User is not an admin")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, struct{}{})
}

type UserSummary struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	APITotalCall int    `json:"api_total_call"`
}

// AllUsersHandler lists every standard user with their total call
// count. Admin-gated by the router.
func AllUsersHandler(w http.ResponseWriter, r *http.Request) {
	var users []User

	if err := db.DB.Find(&users).Error; err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		if u.Role == "admin" {
			continue
		}

		var token api.Token
		count := 0
		if err := db.DB.First(&token, "id = ?", u.APITokenID).Error; err == nil {
			count = len(token.CallIDs)
		}

		summaries = append(summaries, UserSummary{
			UserID:       u.UserID,
			Email:        u.Email,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			APITotalCall: count,
		})
	}

	httputil.WriteSuccess(w, http.StatusOK, summaries)
}

// UserDetailsHandler returns one user's details by ?user= id. Admin-gated.
func UserDetailsHandler(w http.ResponseWriter, r *http.Request) {
	var user User

	targetID := r.URL.Query().Get("user")
	if targetID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}

	if err := db.DB.First(&user, "user_id = ?", targetID).Error; err != nil {
		httputil.WriteError(w, http.StatusNotFound, "Couldn't find user")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]string{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
	})
}

// UserCallsHandler returns one user's call history by ?user= id. Admin-gated.
func UserCallsHandler(w http.ResponseWriter, r *http.Request) {
	targetID := r.URL.Query().Get("user")
	if targetID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}

	calls, err := callsForUser(targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "Couldn't find user")
		return
	}
	if err != nil {
		log.Printf("[auth] call history error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to load call history")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, calls)
}
