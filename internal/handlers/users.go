package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"finance-tracker/internal/auth"
)

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// requireSelf enforces the self-only rule on /api/users/{id}. The id is
// caller-supplied, so a mismatch answers 403 without leaking anything.
func (h *Handlers) requireSelf(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return 0, false
	}
	if user := GetUserFromContext(r); user.ID != id {
		writeError(w, http.StatusForbidden, "Cannot act on another user's account")
		return 0, false
	}
	return id, true
}

// GetUser returns the authenticated user's own record.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSelf(w, r); !ok {
		return
	}
	user := GetUserFromContext(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateUser applies a self-service partial update.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSelf(w, r); !ok {
		return
	}
	user := GetUserFromContext(r)

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated := *user
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if len(name) < minUsernameLen || len(name) > maxUsernameLen {
			writeError(w, http.StatusBadRequest, "Username must be between 2 and 80 characters")
			return
		}
		if other, err := h.db.GetUserByUsername(name); err == nil && other.ID != user.ID {
			writeError(w, http.StatusConflict, "Username already registered")
			return
		}
		updated.Username = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		if other, err := h.db.GetUserByEmail(email); err == nil && other.ID != user.ID {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		updated.Email = email
	}
	if req.Password != nil {
		if len(*req.Password) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			log.Printf("HashPassword error: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		updated.PasswordHash = hash
	}

	if err := h.db.UpdateUser(&updated); err != nil {
		log.Printf("UpdateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       updated.ID,
		"username": updated.Username,
		"email":    updated.Email,
	})
}

// DeleteUser hard-deletes the authenticated user's account. Owned
// expenses, goals and badges go with it.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteUser(id); err != nil {
		log.Printf("DeleteUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
