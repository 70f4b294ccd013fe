package main

import (
	"log"
	"net/http"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load configuration: %v", err)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize database: %v", err)
	}
	defer db.Close()

	// Housekeeping: drop ledger rows for tokens that have expired anyway.
	if err := db.PurgeExpiredRevocations(time.Now()); err != nil {
		log.Printf("Failed to purge expired revocations: %v", err)
	}

	tokenCfg := auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
	}
	issuer := auth.NewIssuer(tokenCfg)
	authenticator := auth.NewAuthenticator(tokenCfg, db, db)

	h := handlers.NewHandlers(db, issuer, authenticator)
	mux := setupRouter(h)

	log.Printf("Server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("FATAL: Server failed: %v", err)
	}
}

// setupRouter registers all routes. Paths and methods are part of the
// compatibility contract with existing clients.
func setupRouter(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("POST /login", h.Login)
	// Logout validates the token itself so a second logout with an
	// already-revoked token still succeeds.
	mux.HandleFunc("POST /logout", h.Logout)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}

	mux.Handle("GET /me", protected(h.Me))
	mux.Handle("GET /dashboard", protected(h.Dashboard))

	mux.Handle("GET /api/users/{id}", protected(h.GetUser))
	mux.Handle("PATCH /api/users/{id}", protected(h.UpdateUser))
	mux.Handle("DELETE /api/users/{id}", protected(h.DeleteUser))

	mux.Handle("GET /api/expenses", protected(h.ListExpenses))
	mux.Handle("POST /api/expenses", protected(h.CreateExpense))
	mux.Handle("GET /api/expenses/{id}", protected(h.GetExpense))
	mux.Handle("PATCH /api/expenses/{id}", protected(h.UpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", protected(h.DeleteExpense))

	mux.Handle("GET /api/goals", protected(h.ListGoals))
	mux.Handle("POST /api/goals", protected(h.CreateGoal))
	mux.Handle("GET /api/goals/{id}", protected(h.GetGoal))
	mux.Handle("PATCH /api/goals/{id}", protected(h.UpdateGoal))
	mux.Handle("DELETE /api/goals/{id}", protected(h.DeleteGoal))

	mux.Handle("POST /api/badges/create", protected(h.CreateBadge))
	mux.Handle("POST /api/badges/award", protected(h.AwardBadges))

	return mux
}
