package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

// UserContextKey is the context key for the authenticated user.
const UserContextKey contextKey = "user"

const (
	minPasswordLen = 8
	minUsernameLen = 2
	maxUsernameLen = 80
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db            *storage.DB
	issuer        *auth.Issuer
	authenticator *auth.Authenticator
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, issuer *auth.Issuer, authenticator *auth.Authenticator) *Handlers {
	return &Handlers{db: db, issuer: issuer, authenticator: authenticator}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware wraps handlers to require a valid bearer token. Every
// failure mode collapses to a uniform 401 so callers cannot distinguish
// a bad signature from a revoked token or a deleted user.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		user, err := h.authenticator.Authenticate(token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrTokenRevoked) && !errors.Is(err, auth.ErrUserNotFound) {
				log.Printf("Authenticate error: %v", err)
			}
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a new user account.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if msg := validateIdentity(req.Username, req.Email, req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.db.GetUserByUsername(req.Username); err == nil {
		writeError(w, http.StatusConflict, "Username already registered")
		return
	}
	if _, err := h.db.GetUserByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.db.CreateUser(req.Username, req.Email, hash)
	if err != nil {
		// The unique constraints backstop the lookups above.
		writeError(w, http.StatusConflict, "Username or email already registered")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Signup successful",
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func validateIdentity(username, email, password string) string {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return "Username must be between 2 and 80 characters"
	}
	if !strings.Contains(email, "@") {
		return "Invalid email address"
	}
	if len(password) < minPasswordLen {
		return "Password must be at least 8 characters"
	}
	return ""
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token. Login is by
// username; the response never reveals whether the username or the
// password was wrong.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, _, expiresAt, err := h.issuer.Issue(user.ID)
	if err != nil {
		log.Printf("Issue token error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expiresAt.Format(time.RFC3339),
	})
}

// Logout revokes the presented token. It decodes the token itself rather
// than going through the authenticator, so logging out twice with the
// same token succeeds both times.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	jti, expiresAt, err := h.authenticator.Decode(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.db.RevokeToken(jti, expiresAt); err != nil {
		log.Printf("RevokeToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the authenticated user's public fields.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// Dashboard greets the authenticated user.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome back, " + user.Username,
	})
}
