package governance

import (
	"time"
)

const ProposalsTableName = "proposals"

// Proposal lifecycle states. The literal strings are part of the contract
// consumed by the frontend, so they must not be renamed.
const (
	ProposalStatusPendingReview    = "pending_review"
	ProposalStatusApproved         = "approved"
	ProposalStatusRejected         = "rejected"
	ProposalStatusPendingAdminVote = "pending_admin_vote"
	ProposalStatusReadyForMultisig = "ready_for_multisig"
	ProposalStatusActive           = "active"
	ProposalStatusCompleted        = "completed"
)

type Proposal struct {
	ID               string    `json:"id"`
	AuthorID         string    `json:"author_id"`
	WalletAddress    string    `json:"wallet_address"`
	Title            string    `json:"title"`
	Body             string    `json:"body"` // markdown
	RecipientAddress string    `json:"recipient_address,omitempty"`
	RequestedAmount  uint64    `json:"requested_amount,omitempty"` // micro-USDC (6 decimals)
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsTerminal reports whether the proposal can no longer transition.
func (p *Proposal) IsTerminal() bool {
	return p.Status == ProposalStatusRejected || p.Status == ProposalStatusCompleted
}
