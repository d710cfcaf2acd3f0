package directory

import (
	"context"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// Seed loads demo users, policies and FAQ entries when the database is empty.
// It is a no-op on a database that already has users.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return errx.WrapSQL(err)
	}
	if n > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errx.WrapSQL(err)
	}
	defer tx.Rollback()

	users := [][]string{
		{"user123", "Ravi Sharma", "ravi.sharma@example.com", "+91-98100-11111", "42 MG Road, Bengaluru"},
		{"user456", "Priya Patel", "priya.patel@example.com", "+91-98100-22222", "8 Marine Drive, Mumbai"},
		{"user789", "Arjun Mehta", "arjun.mehta@example.com", "+91-98100-33333", "5 Park Street, Kolkata"},
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, name, email, phone, address) VALUES (?, ?, ?, ?, ?)`,
			u[0], u[1], u[2], u[3], u[4],
		); err != nil {
			return errx.WrapSQL(err)
		}
	}

	policies := []Policy{
		{PolicyID: "POL-1001", UserID: "user123", PolicyType: "health", Premium: 4800, CoverageAmount: 500000, StartDate: "2025-01-01", EndDate: "2026-01-01", Status: "active"},
		{PolicyID: "POL-1002", UserID: "user123", PolicyType: "motor", Premium: 7200, CoverageAmount: 300000, StartDate: "2025-03-15", EndDate: "2026-03-15", Status: "active"},
		{PolicyID: "POL-2001", UserID: "user456", PolicyType: "life", Premium: 12000, CoverageAmount: 2000000, StartDate: "2024-07-01", EndDate: "2044-07-01", Status: "active"},
		{PolicyID: "POL-3001", UserID: "user789", PolicyType: "home", Premium: 3600, CoverageAmount: 1000000, StartDate: "2024-11-20", EndDate: "2025-11-20", Status: "lapsed"},
	}
	for _, p := range policies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO policies (policy_id, user_id, policy_type, premium, coverage_amount, start_date, end_date, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.PolicyID, p.UserID, p.PolicyType, p.Premium, p.CoverageAmount, p.StartDate, p.EndDate, p.Status,
		); err != nil {
			return errx.WrapSQL(err)
		}
	}

	faqs := [][2]string{
		{"How do I file a claim?", "Log in to your account, open the policy, choose File a claim and upload the supporting documents. A claims agent responds within two business days."},
		{"When is my premium due?", "Premiums are due on the policy anniversary date. You can find the exact date on the policy details page, and we send a reminder email 14 days before."},
		{"Can I cancel my policy?", "Yes. Policies can be cancelled any time from the account page. Refunds are prorated for the unused coverage period after a 30-day minimum."},
		{"What does a lapsed policy mean?", "A policy lapses when a premium payment is missed past the grace period. Coverage pauses until the outstanding premium is paid and the policy is reinstated."},
		{"How do I update my contact details?", "Ask a support agent to update your email, phone or address. Changes to account records are reviewed by our staff before they take effect."},
	}
	for _, f := range faqs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO faq (question, answer) VALUES (?, ?)`, f[0], f[1],
		); err != nil {
			return errx.WrapSQL(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errx.WrapSQL(err)
	}
	logx.Info().Int("users", len(users)).Int("policies", len(policies)).Int("faqs", len(faqs)).
		Msg("seeded directory database with demo data")
	return nil
}
