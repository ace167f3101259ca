package governance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// initReviews creates the proposal_reviews table. UNIQUE(proposal_id) makes
// the review append-once; the coupling CHECK mirrors the engine-side
// validation so a bad allocation can never land even through raw SQL.
func (db *DB) initReviews(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS proposal_reviews (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			decision TEXT NOT NULL CHECK (decision IN ('approved','rejected')),
			reasoning TEXT NOT NULL DEFAULT '',
			token_allocation_percentage INTEGER,
			scores JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (proposal_id),
			CONSTRAINT review_allocation_coupling CHECK (
				(decision = 'approved' AND token_allocation_percentage BETWEEN 1 AND 40) OR
				(decision = 'rejected' AND token_allocation_percentage IS NULL)
			)
		)
	`
	return db.Exec(ctx, query)
}

// InsertReview persists the AI review. A second review for the same proposal
// surfaces as a ConflictError with no mutation.
func (db *DB) InsertReview(ctx context.Context, r *models.Review) error {
	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return fmt.Errorf("marshal review scores: %w", err)
	}
	if r.Scores == nil {
		scores = []byte(`{}`)
	}

	query := `
		INSERT INTO proposal_reviews (id, proposal_id, decision, reasoning, token_allocation_percentage, scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	err = db.Exec(ctx, query,
		r.ID, r.ProposalID, r.Decision, r.Reasoning, r.TokenAllocationPercentage, scores, r.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return &gov.ConflictError{Resource: "proposal_reviews", Detail: "proposal " + r.ProposalID + " already reviewed"}
		}
		return fmt.Errorf("insert review for proposal %s: %w", r.ProposalID, err)
	}
	return nil
}

// GetReview returns the review attached to a proposal.
func (db *DB) GetReview(ctx context.Context, proposalID string) (*models.Review, error) {
	query := `
		SELECT id, proposal_id, decision, reasoning, token_allocation_percentage, scores, created_at
		FROM proposal_reviews
		WHERE proposal_id = $1
	`

	var (
		r      models.Review
		scores []byte
	)
	err := db.QueryRow(ctx, query, proposalID).Scan(
		&r.ID, &r.ProposalID, &r.Decision, &r.Reasoning, &r.TokenAllocationPercentage, &scores, &r.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, &gov.NotFoundError{Resource: "review", ID: proposalID}
		}
		return nil, fmt.Errorf("query review for proposal %s: %w", proposalID, err)
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &r.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal review scores: %w", err)
		}
	}
	return &r, nil
}
