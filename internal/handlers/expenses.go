package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// ExpenseRequest is the payload for creating or updating an expense.
type ExpenseRequest struct {
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Date        *time.Time `json:"date"`
}

func (req *ExpenseRequest) validate() string {
	if req.Amount <= 0 {
		return "Amount must be positive"
	}
	if req.Category == "" {
		return "Category is required"
	}
	return ""
}

// CreateExpense records a new expense for the authenticated user. The
// date defaults to the current time when omitted.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if req.Description == "" {
		req.Description = "Expense"
	}
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	expense, err := h.db.CreateExpense(user.ID, req.Amount, req.Description, req.Category, date)
	if err != nil {
		log.Printf("CreateExpense error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// ListExpenses returns the authenticated user's expenses, optionally
// filtered by category and a from/to date range (RFC 3339).
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	filter := storage.ExpenseFilter{Category: r.URL.Query().Get("category")}
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' date")
			return
		}
		filter.From = from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' date")
			return
		}
		filter.To = to
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		writeError(w, http.StatusBadRequest, "Date range is inverted")
		return
	}

	expenses, err := h.db.ListExpenses(user.ID, filter)
	if err != nil {
		log.Printf("ListExpenses error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	writeJSON(w, http.StatusOK, expenses)
}

// ownedExpense loads an expense and checks it belongs to the caller.
// Another user's expense answers 404 so its existence is not revealed.
func (h *Handlers) ownedExpense(w http.ResponseWriter, r *http.Request) *models.Expense {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense ID")
		return nil
	}

	expense, err := h.db.GetExpense(id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("GetExpense error: %v", err)
		}
		writeError(w, http.StatusNotFound, "Expense not found")
		return nil
	}
	if expense.UserID != GetUserFromContext(r).ID {
		writeError(w, http.StatusNotFound, "Expense not found")
		return nil
	}
	return expense
}

// GetExpense returns one of the authenticated user's expenses.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	if expense := h.ownedExpense(w, r); expense != nil {
		writeJSON(w, http.StatusOK, expense)
	}
}

// UpdateExpense replaces the mutable fields of an owned expense.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expense := h.ownedExpense(w, r)
	if expense == nil {
		return
	}

	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	expense.Amount = req.Amount
	expense.Category = req.Category
	if req.Description != "" {
		expense.Description = req.Description
	}
	if req.Date != nil {
		expense.Date = *req.Date
	}

	if err := h.db.UpdateExpense(expense); err != nil {
		log.Printf("UpdateExpense error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// DeleteExpense removes an owned expense.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expense := h.ownedExpense(w, r)
	if expense == nil {
		return
	}

	if err := h.db.DeleteExpense(expense.ID); err != nil {
		log.Printf("DeleteExpense error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
