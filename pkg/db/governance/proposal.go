package governance

import (
	"context"
	"fmt"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// initProposals creates the proposals table. The status CHECK carries the
// full lifecycle enum the frontend renders copy against.
func (db *DB) initProposals(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS proposals (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL,
			wallet_address TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			recipient_address TEXT NOT NULL DEFAULT '',
			requested_amount BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending_review'
				CHECK (status IN ('pending_review','approved','rejected','pending_admin_vote','ready_for_multisig','active','completed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	return db.Exec(ctx, query)
}

const proposalColumns = `id, author_id, wallet_address, title, body, recipient_address, requested_amount, status, created_at, updated_at`

// InsertProposal persists a new proposal.
func (db *DB) InsertProposal(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	err := db.Exec(ctx, query,
		p.ID, p.AuthorID, p.WalletAddress, p.Title, p.Body,
		p.RecipientAddress, int64(p.RequestedAmount), p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert proposal %s: %w", p.ID, err)
	}
	return nil
}

// GetProposal returns the proposal for the given id.
func (db *DB) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	return db.scanProposal(ctx, query, id)
}

// GetProposalForUpdate locks the proposal row for the enclosing transaction.
// The row lock serializes all lifecycle transitions per proposal.
func (db *DB) GetProposalForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`
	return db.scanProposal(ctx, query, id)
}

func (db *DB) scanProposal(ctx context.Context, query, id string) (*models.Proposal, error) {
	var (
		p      models.Proposal
		amount int64
	)
	err := db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.AuthorID, &p.WalletAddress, &p.Title, &p.Body,
		&p.RecipientAddress, &amount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, &gov.NotFoundError{Resource: "proposal", ID: id}
		}
		return nil, fmt.Errorf("query proposal %s: %w", id, err)
	}
	p.RequestedAmount = uint64(amount)
	return &p, nil
}

// ListProposals returns proposals newest-first, optionally filtered by status.
func (db *DB) ListProposals(ctx context.Context, status string, limit int) ([]models.Proposal, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []models.Proposal
	for rows.Next() {
		var (
			p      models.Proposal
			amount int64
		)
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.WalletAddress, &p.Title, &p.Body,
			&p.RecipientAddress, &amount, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		p.RequestedAmount = uint64(amount)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProposalStatus transitions id from exactly `from` to `to`. The WHERE
// clause on the current status makes the update a compare-and-swap.
func (db *DB) UpdateProposalStatus(ctx context.Context, id, from, to string) (bool, error) {
	query := `
		UPDATE proposals
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	tag, err := db.GetExecutor(ctx).Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update proposal %s status %s -> %s: %w", id, from, to, err)
	}
	return tag.RowsAffected() == 1, nil
}
