package storage

import (
	"database/sql"
	"time"

	"finance-tracker/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Pragmas and in-memory databases are per-connection in sqlite, so
	// keep the pool at a single connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	// Cascading deletes from users rely on foreign key enforcement.
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			amount REAL NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			date DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS financial_goals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			target_amount REAL NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS badges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			awarded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, name),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		// Revoked tokens deliberately carry no user FK: a revocation must
		// survive the user record changing or disappearing.
		`CREATE TABLE IF NOT EXISTS revoked_tokens (
			jti TEXT PRIMARY KEY,
			expires_at DATETIME NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser creates a new user with the given username, email and password hash.
func (db *DB) CreateUser(username, email, passwordHash string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?",
		id,
	))
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?",
		username,
	))
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser overwrites a user's mutable fields.
func (db *DB) UpdateUser(u *models.User) error {
	_, err := db.conn.Exec(
		"UPDATE users SET username = ?, email = ?, password_hash = ? WHERE id = ?",
		u.Username, u.Email, u.PasswordHash, u.ID,
	)
	return err
}

// DeleteUser removes a user. Owned expenses, goals and badges cascade.
func (db *DB) DeleteUser(id int64) error {
	_, err := db.conn.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// CreateExpense inserts a new expense and returns the stored record.
func (db *DB) CreateExpense(userID int64, amount float64, description, category string, date time.Time) (*models.Expense, error) {
	if date.IsZero() {
		date = time.Now()
	}
	result, err := db.conn.Exec(
		"INSERT INTO expenses (user_id, amount, description, category, date) VALUES (?, ?, ?, ?, ?)",
		userID, amount, description, category, date,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetExpense(id)
}

// GetExpense retrieves a single expense by ID.
func (db *DB) GetExpense(id int64) (*models.Expense, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, amount, description, category, date FROM expenses WHERE id = ?",
		id,
	)

	var e models.Expense
	if err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Description, &e.Category, &e.Date); err != nil {
		return nil, err
	}
	return &e, nil
}

// ExpenseFilter narrows an expense listing. Zero values mean no filter.
type ExpenseFilter struct {
	Category string
	From     time.Time
	To       time.Time
}

// ListExpenses retrieves a user's expenses, ordered by date descending.
func (db *DB) ListExpenses(userID int64, filter ExpenseFilter) ([]models.Expense, error) {
	query := "SELECT id, user_id, amount, description, category, date FROM expenses WHERE user_id = ?"
	args := []any{userID}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if !filter.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.To)
	}
	query += " ORDER BY date DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Description, &e.Category, &e.Date); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// UpdateExpense updates an existing expense in the database.
func (db *DB) UpdateExpense(e *models.Expense) error {
	_, err := db.conn.Exec(
		"UPDATE expenses SET amount = ?, description = ?, category = ?, date = ? WHERE id = ?",
		e.Amount, e.Description, e.Category, e.Date, e.ID,
	)
	return err
}

// DeleteExpense removes an expense by ID.
func (db *DB) DeleteExpense(id int64) error {
	_, err := db.conn.Exec("DELETE FROM expenses WHERE id = ?", id)
	return err
}

// SumExpenses totals a user's spending between two instants, inclusive.
func (db *DB) SumExpenses(userID int64, from, to time.Time) (float64, error) {
	var total float64
	err := db.conn.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?",
		userID, from, to,
	).Scan(&total)
	return total, err
}

// CreateGoal inserts a new financial goal and returns the stored record.
func (db *DB) CreateGoal(g *models.FinancialGoal) (*models.FinancialGoal, error) {
	result, err := db.conn.Exec(
		"INSERT INTO financial_goals (user_id, name, target_amount, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
		g.UserID, g.Name, g.TargetAmount, g.StartDate, g.EndDate,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetGoal(id)
}

// GetGoal retrieves a single goal by ID.
func (db *DB) GetGoal(id int64) (*models.FinancialGoal, error) {
	return scanGoal(db.conn.QueryRow(
		"SELECT id, user_id, name, target_amount, start_date, end_date, created_at FROM financial_goals WHERE id = ?",
		id,
	))
}

func scanGoal(row *sql.Row) (*models.FinancialGoal, error) {
	var g models.FinancialGoal
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.StartDate, &g.EndDate, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGoals retrieves a user's goals, newest window first. Status "active"
// keeps goals whose window is still open at now, "past" the rest, ""
// everything.
func (db *DB) ListGoals(userID int64, status string, now time.Time) ([]models.FinancialGoal, error) {
	query := "SELECT id, user_id, name, target_amount, start_date, end_date, created_at FROM financial_goals WHERE user_id = ?"
	args := []any{userID}

	switch status {
	case "active":
		query += " AND end_date >= ?"
		args = append(args, now)
	case "past":
		query += " AND end_date < ?"
		args = append(args, now)
	}
	query += " ORDER BY end_date DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.FinancialGoal
	for rows.Next() {
		var g models.FinancialGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.StartDate, &g.EndDate, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

// ActiveGoal returns the user's active goal with the nearest deadline,
// or sql.ErrNoRows if no goal window is open.
func (db *DB) ActiveGoal(userID int64, now time.Time) (*models.FinancialGoal, error) {
	return scanGoal(db.conn.QueryRow(
		`SELECT id, user_id, name, target_amount, start_date, end_date, created_at
		 FROM financial_goals WHERE user_id = ? AND end_date >= ?
		 ORDER BY end_date ASC LIMIT 1`,
		userID, now,
	))
}

// UpdateGoal updates an existing goal in the database.
func (db *DB) UpdateGoal(g *models.FinancialGoal) error {
	_, err := db.conn.Exec(
		"UPDATE financial_goals SET name = ?, target_amount = ?, start_date = ?, end_date = ? WHERE id = ?",
		g.Name, g.TargetAmount, g.StartDate, g.EndDate, g.ID,
	)
	return err
}

// DeleteGoal removes a goal by ID.
func (db *DB) DeleteGoal(id int64) error {
	_, err := db.conn.Exec("DELETE FROM financial_goals WHERE id = ?", id)
	return err
}

// CreateBadge awards a badge to a user.
func (db *DB) CreateBadge(userID int64, name string) (*models.Badge, error) {
	result, err := db.conn.Exec(
		"INSERT INTO badges (user_id, name) VALUES (?, ?)",
		userID, name,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	row := db.conn.QueryRow("SELECT id, user_id, name, awarded_at FROM badges WHERE id = ?", id)
	var b models.Badge
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.AwardedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// UserBadgeNames returns the names of every badge the user holds.
func (db *DB) UserBadgeNames(userID int64) (map[string]bool, error) {
	rows, err := db.conn.Query("SELECT name FROM badges WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

// RevokeToken records a token identifier as revoked. Revoking the same
// jti twice is a no-op, which keeps concurrent logouts race-safe.
func (db *DB) RevokeToken(jti string, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)",
		jti, expiresAt,
	)
	return err
}

// IsTokenRevoked reports whether a token identifier has been revoked.
func (db *DB) IsTokenRevoked(jti string) (bool, error) {
	count, err := db.RevokedTokenCount(jti)
	return count > 0, err
}

// RevokedTokenCount returns the number of ledger entries for a jti.
func (db *DB) RevokedTokenCount(jti string) (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?", jti).Scan(&count)
	return count, err
}

// PurgeExpiredRevocations removes ledger entries whose token has expired.
// Pure housekeeping: expired tokens already fail validation on their own,
// so authentication does not depend on this running.
func (db *DB) PurgeExpiredRevocations(now time.Time) error {
	_, err := db.conn.Exec("DELETE FROM revoked_tokens WHERE expires_at <= ?", now)
	return err
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
