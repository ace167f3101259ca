package governance

import (
	"context"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// Store is the persistence contract the engine runs against. The postgres
// implementation lives in pkg/db/governance; tests supply mocks.
//
// InTx runs fn with a transaction embedded in the derived context; every
// other method honors that transaction when present. Methods suffixed
// ForUpdate acquire a row lock and are only meaningful inside InTx — the
// proposal row is the serialization point for all lifecycle transitions.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Proposals
	InsertProposal(ctx context.Context, p *models.Proposal) error
	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
	GetProposalForUpdate(ctx context.Context, id string) (*models.Proposal, error)
	ListProposals(ctx context.Context, status string, limit int) ([]models.Proposal, error)
	// UpdateProposalStatus transitions id from exactly `from` to `to`,
	// reporting whether a row matched. A false return means the status
	// changed underneath the caller.
	UpdateProposalStatus(ctx context.Context, id, from, to string) (bool, error)

	// Reviews
	InsertReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, proposalID string) (*models.Review, error)

	// Admin users
	InsertAdminUser(ctx context.Context, a *models.AdminUser) error
	GetAdminUser(ctx context.Context, id string) (*models.AdminUser, error)
	ListAdminUsers(ctx context.Context) ([]models.AdminUser, error)
	SetAdminActive(ctx context.Context, id string, active bool) (bool, error)

	// Votes
	InsertVote(ctx context.Context, v *models.AdminVote) error
	ListVotes(ctx context.Context, proposalID string) ([]models.AdminVote, error)

	// Multisig transactions
	InsertMultisigTransaction(ctx context.Context, t *models.MultisigTransaction) error
	GetMultisigTransaction(ctx context.Context, id string) (*models.MultisigTransaction, error)
	// GetActiveMultisigByProposal returns the proposal's non-failed multisig
	// record, or a NotFoundError when none exists.
	GetActiveMultisigByProposal(ctx context.Context, proposalID string) (*models.MultisigTransaction, error)
	// UpdateMultisigStatus transitions id from any status in `from` to `to`,
	// setting the optional hash column named by hashField ("safe_tx_hash" or
	// "blockchain_tx_hash") and stamping executed_at when to == executed.
	UpdateMultisigStatus(ctx context.Context, id string, from []string, to string, hashField, hashValue string) (bool, error)

	// Proposal submission transactions
	InsertProposalTransaction(ctx context.Context, t *models.ProposalTransaction) error
	GetProposalTransaction(ctx context.Context, id string) (*models.ProposalTransaction, error)
	GetPendingTransactionByProposal(ctx context.Context, proposalID string) (*models.ProposalTransaction, error)
	ListPendingProposalTransactions(ctx context.Context) ([]models.ProposalTransaction, error)
	MarkTransactionConfirmed(ctx context.Context, id string, gasUsed uint64) (bool, error)
	MarkTransactionFailed(ctx context.Context, id, reason string) (bool, error)
}
