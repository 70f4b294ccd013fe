package models

import "time"

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expense represents a financial expense record.
type Expense struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

// FinancialGoal represents a savings goal over a date range.
type FinancialGoal struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	TargetAmount float64   `json:"target_amount"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Active reports whether the goal's window has not yet closed.
func (g FinancialGoal) Active(now time.Time) bool {
	return !g.EndDate.Before(now)
}

// Badge represents an achievement awarded to a user.
type Badge struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	AwardedAt time.Time `json:"awarded_at"`
}

// RevokedToken maps a token identifier to its natural expiry.
// Rows outliving their expiry are harmless; the signature check
// already rejects the token.
type RevokedToken struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}
