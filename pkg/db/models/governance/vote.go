package governance

import (
	"time"
)

const VotesTableName = "admin_votes"

const (
	VoteApprove = "approve"
	VoteReject  = "reject"
)

// AzuraVoteReasoning is the attribution string recorded on votes synthesized
// from an approved AI review.
const AzuraVoteReasoning = "Automated vote cast by Azura based on AI review"

// AdminVote is one weighted ballot on one proposal. Votes are append-only:
// once cast they are never updated or deleted.
//
// Exactly one of the two voter identities applies: a human admin (AdminID and
// AdminWalletAddress set, IsAzuraVote false) or the synthetic Azura voter
// (both nil, IsAzuraVote true).
type AdminVote struct {
	ID                 string    `json:"id"`
	ProposalID         string    `json:"proposal_id"`
	AdminID            *string   `json:"admin_id,omitempty"`
	AdminWalletAddress *string   `json:"admin_wallet_address,omitempty"`
	Vote               string    `json:"vote"`
	VoteWeight         int32     `json:"vote_weight"`
	Reasoning          string    `json:"reasoning"`
	IsAzuraVote        bool      `json:"is_azura_vote"`
	CreatedAt          time.Time `json:"created_at"`
}

// VoteSummary is the read-only aggregate exposed for UI display.
type VoteSummary struct {
	ProposalID       string      `json:"proposal_id"`
	ApproveWeight    int32       `json:"approve_weight"`
	RejectWeight     int32       `json:"reject_weight"`
	ThresholdReached bool        `json:"threshold_reached"`
	WeightNeeded     int32       `json:"weight_needed"`
	Votes            []AdminVote `json:"votes"`
}
