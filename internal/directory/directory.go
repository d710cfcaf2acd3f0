// Package directory holds the helpdesk's customer records: users, their
// insurance policies and the FAQ knowledge base, backed by SQLite.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// User is a customer account record.
type User struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Policy is one insurance policy held by a user.
type Policy struct {
	PolicyID       string  `json:"policy_id"`
	UserID         string  `json:"user_id"`
	PolicyType     string  `json:"policy_type"`
	Premium        float64 `json:"premium"`
	CoverageAmount float64 `json:"coverage_amount"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Status         string  `json:"status"`
}

// FAQEntry is one question and answer pair from the knowledge base.
type FAQEntry struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// updatableColumns is the whitelist of user fields a profile update may touch.
var updatableColumns = map[string]struct{}{
	"name":    {},
	"email":   {},
	"phone":   {},
	"address": {},
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	email   TEXT NOT NULL DEFAULT '',
	phone   TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS policies (
	policy_id       TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL REFERENCES users(user_id),
	policy_type     TEXT NOT NULL,
	premium         REAL NOT NULL DEFAULT 0,
	coverage_amount REAL NOT NULL DEFAULT 0,
	start_date      TEXT NOT NULL DEFAULT '',
	end_date        TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'active'
);
CREATE INDEX IF NOT EXISTS idx_policies_user ON policies(user_id);
CREATE TABLE IF NOT EXISTS faq (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	question TEXT NOT NULL,
	answer   TEXT NOT NULL
);
`

// Store wraps the SQLite database holding the helpdesk records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the directory database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open directory db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate directory db: %w", err)
	}
	logx.Debug().Str("path", path).Msg("directory database ready")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetUser fetches one user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, email, phone, address FROM users WHERE user_id = ?`,
		userID,
	).Scan(&u.UserID, &u.Name, &u.Email, &u.Phone, &u.Address)
	if err != nil {
		return User{}, errx.WrapSQL(err)
	}
	return u, nil
}

// UpdateUser applies the approved field changes to a user record. Fields
// outside the whitelist are rejected before anything is written.
func (s *Store) UpdateUser(ctx context.Context, userID string, changes map[string]any) error {
	if len(changes) == 0 {
		return fmt.Errorf("no fields to update")
	}

	fields := make([]string, 0, len(changes))
	for f := range changes {
		if _, ok := updatableColumns[f]; !ok {
			return fmt.Errorf("field %q is not updatable", f)
		}
		fields = append(fields, f)
	}
	sort.Strings(fields)

	assignments := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		assignments = append(assignments, f+" = ?")
		args = append(args, fmt.Sprintf("%v", changes[f]))
	}
	args = append(args, userID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(assignments, ", ")+" WHERE user_id = ?",
		args...,
	)
	if err != nil {
		return errx.WrapSQL(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errx.WrapSQL(err)
	}
	if n == 0 {
		return errx.WrapSQL(sql.ErrNoRows)
	}
	logx.Info().Str("user_id", userID).Strs("fields", fields).Msg("user record updated")
	return nil
}

// GetPolicies returns all policies held by a user, newest first.
func (s *Store) GetPolicies(ctx context.Context, userID string) ([]Policy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT policy_id, user_id, policy_type, premium, coverage_amount,
		        start_date, end_date, status
		   FROM policies WHERE user_id = ? ORDER BY start_date DESC`,
		userID,
	)
	if err != nil {
		return nil, errx.WrapSQL(err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.PolicyID, &p.UserID, &p.PolicyType, &p.Premium,
			&p.CoverageAmount, &p.StartDate, &p.EndDate, &p.Status); err != nil {
			return nil, errx.WrapSQL(err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapSQL(err)
	}
	return policies, nil
}

// SearchFAQ returns up to limit FAQ entries whose question or answer contains
// the query terms.
func (s *Store) SearchFAQ(ctx context.Context, query string, limit int) ([]FAQEntry, error) {
	if limit <= 0 {
		limit = 3
	}
	pattern := "%" + strings.TrimSpace(query) + "%"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer FROM faq
		  WHERE question LIKE ? COLLATE NOCASE OR answer LIKE ? COLLATE NOCASE
		  LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, errx.WrapSQL(err)
	}
	defer rows.Close()

	var entries []FAQEntry
	for rows.Next() {
		var e FAQEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer); err != nil {
			return nil, errx.WrapSQL(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapSQL(err)
	}
	return entries, nil
}
