package governance

import (
	"context"
	"fmt"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// initAdminUsers creates the admin_users table
func (db *DB) initAdminUsers(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS admin_users (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			wallet_address TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	return db.Exec(ctx, query)
}

// InsertAdminUser registers a human voter.
func (db *DB) InsertAdminUser(ctx context.Context, a *models.AdminUser) error {
	query := `
		INSERT INTO admin_users (id, user_id, wallet_address, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	err := db.Exec(ctx, query, a.ID, a.UserID, a.WalletAddress, a.IsActive, a.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return &gov.ConflictError{Resource: "admin_users", Detail: "wallet " + a.WalletAddress + " already registered"}
		}
		return fmt.Errorf("insert admin user %s: %w", a.ID, err)
	}
	return nil
}

// GetAdminUser returns the admin for the given id.
func (db *DB) GetAdminUser(ctx context.Context, id string) (*models.AdminUser, error) {
	query := `
		SELECT id, user_id, wallet_address, is_active, created_at
		FROM admin_users
		WHERE id = $1
	`

	var a models.AdminUser
	err := db.QueryRow(ctx, query, id).Scan(&a.ID, &a.UserID, &a.WalletAddress, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, &gov.NotFoundError{Resource: "admin_user", ID: id}
		}
		return nil, fmt.Errorf("query admin user %s: %w", id, err)
	}
	return &a, nil
}

// ListAdminUsers returns the full voter registry.
func (db *DB) ListAdminUsers(ctx context.Context) ([]models.AdminUser, error) {
	query := `
		SELECT id, user_id, wallet_address, is_active, created_at
		FROM admin_users
		ORDER BY created_at
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	defer rows.Close()

	var out []models.AdminUser
	for rows.Next() {
		var a models.AdminUser
		if err := rows.Scan(&a.ID, &a.UserID, &a.WalletAddress, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin user: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAdminActive flips a voter's eligibility flag.
func (db *DB) SetAdminActive(ctx context.Context, id string, active bool) (bool, error) {
	query := `UPDATE admin_users SET is_active = $2 WHERE id = $1`
	tag, err := db.GetExecutor(ctx).Exec(ctx, query, id, active)
	if err != nil {
		return false, fmt.Errorf("set admin %s active=%t: %w", id, active, err)
	}
	return tag.RowsAffected() == 1, nil
}
