package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"finance-tracker/internal/models"
)

// GoalRequest is the payload for creating or updating a financial goal.
type GoalRequest struct {
	Name         string    `json:"name"`
	TargetAmount float64   `json:"target_amount"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

func (req *GoalRequest) validate() string {
	if req.Name == "" {
		return "Name is required"
	}
	if req.TargetAmount <= 0 {
		return "Target amount must be positive"
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return "Start and end dates are required"
	}
	if !req.EndDate.After(req.StartDate) {
		return "End date must be after start date"
	}
	return ""
}

// CreateGoal records a new financial goal for the authenticated user.
func (h *Handlers) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := h.db.CreateGoal(&models.FinancialGoal{
		UserID:       user.ID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		log.Printf("CreateGoal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// ListGoals returns the authenticated user's goals, optionally filtered
// by status (active or past).
func (h *Handlers) ListGoals(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	status := r.URL.Query().Get("status")
	if status != "" && status != "active" && status != "past" {
		writeError(w, http.StatusBadRequest, "Status must be 'active' or 'past'")
		return
	}

	goals, err := h.db.ListGoals(user.ID, status, time.Now())
	if err != nil {
		log.Printf("ListGoals error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if goals == nil {
		goals = []models.FinancialGoal{}
	}

	writeJSON(w, http.StatusOK, goals)
}

// ownedGoal loads a goal and checks it belongs to the caller. Another
// user's goal answers 404 so its existence is not revealed.
func (h *Handlers) ownedGoal(w http.ResponseWriter, r *http.Request) *models.FinancialGoal {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid goal ID")
		return nil
	}

	goal, err := h.db.GetGoal(id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("GetGoal error: %v", err)
		}
		writeError(w, http.StatusNotFound, "Goal not found")
		return nil
	}
	if goal.UserID != GetUserFromContext(r).ID {
		writeError(w, http.StatusNotFound, "Goal not found")
		return nil
	}
	return goal
}

// GetGoal returns one of the authenticated user's goals.
func (h *Handlers) GetGoal(w http.ResponseWriter, r *http.Request) {
	if goal := h.ownedGoal(w, r); goal != nil {
		writeJSON(w, http.StatusOK, goal)
	}
}

// UpdateGoal replaces the mutable fields of an owned goal.
func (h *Handlers) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	goal := h.ownedGoal(w, r)
	if goal == nil {
		return
	}

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal.Name = req.Name
	goal.TargetAmount = req.TargetAmount
	goal.StartDate = req.StartDate
	goal.EndDate = req.EndDate

	if err := h.db.UpdateGoal(goal); err != nil {
		log.Printf("UpdateGoal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// DeleteGoal removes an owned goal.
func (h *Handlers) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	goal := h.ownedGoal(w, r)
	if goal == nil {
		return
	}

	if err := h.db.DeleteGoal(goal.ID); err != nil {
		log.Printf("DeleteGoal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
