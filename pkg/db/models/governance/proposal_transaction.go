package governance

import (
	"time"
)

const ProposalTransactionsTableName = "proposal_transactions"

const (
	TransactionStatusPending   = "pending"
	TransactionStatusConfirmed = "confirmed"
	TransactionStatusFailed    = "failed"
)

// ProposalTransaction records the user-paid on-chain transaction that
// registers the proposal itself, distinct from the payout. The confirmation
// monitor polls receipts for pending rows and finalizes them.
type ProposalTransaction struct {
	ID                string     `json:"id"`
	ProposalID        string     `json:"proposal_id"`
	TransactionHash   string     `json:"transaction_hash"`
	TransactionStatus string     `json:"transaction_status"`
	GasUsed           uint64     `json:"gas_used,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
}
