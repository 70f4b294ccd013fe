package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/badges"
)

// CreateBadgeRequest is the payload for manually creating a badge.
type CreateBadgeRequest struct {
	Name string `json:"name"`
}

// CreateBadge awards a named badge to the authenticated user.
func (h *Handlers) CreateBadge(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req CreateBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	held, err := h.db.UserBadgeNames(user.ID)
	if err != nil {
		log.Printf("UserBadgeNames error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if held[req.Name] {
		writeError(w, http.StatusConflict, "Badge already awarded")
		return
	}

	badge, err := h.db.CreateBadge(user.ID, req.Name)
	if err != nil {
		log.Printf("CreateBadge error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, badge)
}

// AwardBadges evaluates the badge rules against the caller's active goal
// and persists anything newly earned. A run that earns nothing is still a
// 200; not earning a badge is not an error.
func (h *Handlers) AwardBadges(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	now := time.Now()

	goal, err := h.db.ActiveGoal(user.ID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusOK, map[string]any{
				"awarded": []string{},
				"detail":  "no badges earned",
			})
			return
		}
		log.Printf("ActiveGoal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	spent, err := h.db.SumExpenses(user.ID, goal.StartDate, now)
	if err != nil {
		log.Printf("SumExpenses error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	held, err := h.db.UserBadgeNames(user.ID)
	if err != nil {
		log.Printf("UserBadgeNames error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	awarded := []string{}
	for _, name := range badges.Evaluate(*goal, spent, now) {
		if held[name] {
			continue
		}
		if _, err := h.db.CreateBadge(user.ID, name); err != nil {
			log.Printf("CreateBadge error: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		awarded = append(awarded, name)
	}

	resp := map[string]any{"awarded": awarded}
	if len(awarded) == 0 {
		resp["detail"] = "no badges earned"
	}
	writeJSON(w, http.StatusOK, resp)
}
