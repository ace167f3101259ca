package governance

import (
	"time"
)

const ReviewsTableName = "proposal_reviews"

const (
	ReviewDecisionApproved = "approved"
	ReviewDecisionRejected = "rejected"
)

// Review is the AI-generated opinion attached to a proposal, at most one per
// proposal. TokenAllocationPercentage is the suggested vote weight (1-40) and
// is nil exactly when the decision is rejected.
type Review struct {
	ID                        string             `json:"id"`
	ProposalID                string             `json:"proposal_id"`
	Decision                  string             `json:"decision"`
	Reasoning                 string             `json:"reasoning"`
	TokenAllocationPercentage *int32             `json:"token_allocation_percentage,omitempty"`
	Scores                    map[string]float64 `json:"scores,omitempty"`
	CreatedAt                 time.Time          `json:"created_at"`
}
