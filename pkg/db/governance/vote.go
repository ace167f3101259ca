package governance

import (
	"context"
	"fmt"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// initVotes creates the admin_votes table. The ledger is append-only: no
// update or delete statement exists anywhere in this package.
//
// UNIQUE(proposal_id, admin_id) treats NULLs as distinct, so it cannot guard
// the synthetic Azura ballot (admin_id NULL); the partial unique index closes
// that hole by allowing at most one Azura ballot per proposal.
func (db *DB) initVotes(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS admin_votes (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			admin_id TEXT REFERENCES admin_users(id),
			admin_wallet_address TEXT,
			vote TEXT NOT NULL CHECK (vote IN ('approve','reject')),
			vote_weight INTEGER NOT NULL CHECK (vote_weight BETWEEN 0 AND 40),
			reasoning TEXT NOT NULL DEFAULT '',
			is_azura_vote BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (proposal_id, admin_id),
			CONSTRAINT azura_identity_exclusive CHECK (
				(is_azura_vote AND admin_id IS NULL AND admin_wallet_address IS NULL) OR
				(NOT is_azura_vote AND admin_id IS NOT NULL AND admin_wallet_address IS NOT NULL)
			)
		)
	`
	if err := db.Exec(ctx, query); err != nil {
		return err
	}

	index := `
		CREATE UNIQUE INDEX IF NOT EXISTS admin_votes_one_azura_per_proposal
		ON admin_votes (proposal_id) WHERE is_azura_vote
	`
	return db.Exec(ctx, index)
}

// InsertVote appends one ballot. A second ballot from the same voter on the
// same proposal surfaces as a DuplicateVoteError with the ledger unchanged.
func (db *DB) InsertVote(ctx context.Context, v *models.AdminVote) error {
	query := `
		INSERT INTO admin_votes (id, proposal_id, admin_id, admin_wallet_address, vote, vote_weight, reasoning, is_azura_vote, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	err := db.Exec(ctx, query,
		v.ID, v.ProposalID, v.AdminID, v.AdminWalletAddress, v.Vote, v.VoteWeight, v.Reasoning, v.IsAzuraVote, v.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			adminID := "azura"
			if v.AdminID != nil {
				adminID = *v.AdminID
			}
			return &gov.DuplicateVoteError{ProposalID: v.ProposalID, AdminID: adminID}
		}
		if postgres.IsCheckViolation(err) {
			return &gov.ValidationError{Field: "vote", Reason: err.Error()}
		}
		return fmt.Errorf("insert vote on proposal %s: %w", v.ProposalID, err)
	}
	return nil
}

// ListVotes returns the ballots for a proposal in cast order.
func (db *DB) ListVotes(ctx context.Context, proposalID string) ([]models.AdminVote, error) {
	query := `
		SELECT id, proposal_id, admin_id, admin_wallet_address, vote, vote_weight, reasoning, is_azura_vote, created_at
		FROM admin_votes
		WHERE proposal_id = $1
		ORDER BY created_at
	`

	rows, err := db.Query(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list votes for proposal %s: %w", proposalID, err)
	}
	defer rows.Close()

	var out []models.AdminVote
	for rows.Next() {
		var v models.AdminVote
		if err := rows.Scan(&v.ID, &v.ProposalID, &v.AdminID, &v.AdminWalletAddress, &v.Vote, &v.VoteWeight, &v.Reasoning, &v.IsAzuraVote, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
