package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createGoal(t *testing.T, h *Handlers, token string, name string, target float64, start, end time.Time) models.FinancialGoal {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"target_amount":%g,"start_date":%q,"end_date":%q}`,
		name, target, start.Format(time.RFC3339), end.Format(time.RFC3339))
	w := doAuthed(h, h.CreateGoal, jsonRequest("POST", "/api/goals", body), token, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var g models.FinancialGoal
	require.NoError(t, json.NewDecoder(w.Body).Decode(&g))
	return g
}

func TestCreateGoalValidation(t *testing.T) {
	h, _ := newTestHandlers(t)
	_, token := signupAndLogin(t, h, "alice", "a@x.com")

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"name":"Trip","target_amount":500,"start_date":"2026-03-01T00:00:00Z","end_date":"2026-04-01T00:00:00Z"}`, http.StatusCreated},
		{"missing name", `{"target_amount":500,"start_date":"2026-03-01T00:00:00Z","end_date":"2026-04-01T00:00:00Z"}`, http.StatusBadRequest},
		{"non-positive target", `{"name":"Trip","target_amount":0,"start_date":"2026-03-01T00:00:00Z","end_date":"2026-04-01T00:00:00Z"}`, http.StatusBadRequest},
		{"missing dates", `{"name":"Trip","target_amount":500}`, http.StatusBadRequest},
		{"inverted window", `{"name":"Trip","target_amount":500,"start_date":"2026-04-01T00:00:00Z","end_date":"2026-03-01T00:00:00Z"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuthed(h, h.CreateGoal, jsonRequest("POST", "/api/goals", tt.body), token, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestListGoalsStatusFilter(t *testing.T) {
	h, _ := newTestHandlers(t)
	_, token := signupAndLogin(t, h, "alice", "a@x.com")

	now := time.Now()
	createGoal(t, h, token, "Active", 100, now.AddDate(0, 0, -7), now.AddDate(0, 0, 7))
	createGoal(t, h, token, "Past", 50, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantNames  []string
	}{
		{"all", "", http.StatusOK, []string{"Active", "Past"}},
		{"active", "?status=active", http.StatusOK, []string{"Active"}},
		{"past", "?status=past", http.StatusOK, []string{"Past"}},
		{"invalid status", "?status=finished", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuthed(h, h.ListGoals, jsonRequest("GET", "/api/goals"+tt.query, ""), token, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				var list []models.FinancialGoal
				require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
				names := make([]string, 0, len(list))
				for _, g := range list {
					names = append(names, g.Name)
				}
				assert.ElementsMatch(t, tt.wantNames, names)
			}
		})
	}
}

func TestGoalOwnerIsolation(t *testing.T) {
	h, _ := newTestHandlers(t)
	_, tokenA := signupAndLogin(t, h, "alice", "a@x.com")
	_, tokenB := signupAndLogin(t, h, "bob", "b@x.com")

	now := time.Now()
	g := createGoal(t, h, tokenA, "Secret plan", 100, now, now.AddDate(0, 1, 0))
	id := fmt.Sprint(g.ID)

	w := doAuthed(h, h.GetGoal, jsonRequest("GET", "/api/goals/"+id, ""), tokenB, id)
	assert.Equal(t, http.StatusNotFound, w.Code, "foreign goal must look missing")

	w = doAuthed(h, h.DeleteGoal, jsonRequest("DELETE", "/api/goals/"+id, ""), tokenB, id)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doAuthed(h, h.GetGoal, jsonRequest("GET", "/api/goals/"+id, ""), tokenA, id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAndDeleteGoal(t *testing.T) {
	h, _ := newTestHandlers(t)
	_, token := signupAndLogin(t, h, "alice", "a@x.com")

	now := time.Now()
	g := createGoal(t, h, token, "Trip", 500, now, now.AddDate(0, 1, 0))
	id := fmt.Sprint(g.ID)

	body := fmt.Sprintf(`{"name":"Bigger trip","target_amount":800,"start_date":%q,"end_date":%q}`,
		now.Format(time.RFC3339), now.AddDate(0, 2, 0).Format(time.RFC3339))
	w := doAuthed(h, h.UpdateGoal, jsonRequest("PATCH", "/api/goals/"+id, body), token, id)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.FinancialGoal
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "Bigger trip", updated.Name)
	assert.Equal(t, 800.0, updated.TargetAmount)

	w = doAuthed(h, h.DeleteGoal, jsonRequest("DELETE", "/api/goals/"+id, ""), token, id)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doAuthed(h, h.GetGoal, jsonRequest("GET", "/api/goals/"+id, ""), token, id)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
