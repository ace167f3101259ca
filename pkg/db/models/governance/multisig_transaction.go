package governance

import (
	"time"
)

const MultisigTransactionsTableName = "multisig_transactions"

const (
	MultisigStatusPending  = "pending"
	MultisigStatusProposed = "proposed"
	MultisigStatusExecuted = "executed"
	MultisigStatusFailed   = "failed"
)

// MultisigTransaction tracks the external payout execution once a proposal
// clears the approval threshold. This service only records state; the payout
// executor mutates it through the multisig lifecycle hooks.
type MultisigTransaction struct {
	ID                 string     `json:"id"`
	ProposalID         string     `json:"proposal_id"`
	SafeAddress        string     `json:"safe_address"`
	SafeTxHash         *string    `json:"safe_tx_hash,omitempty"`
	BlockchainTxHash   *string    `json:"blockchain_tx_hash,omitempty"`
	USDCAmount         uint64     `json:"usdc_amount"` // micro-USDC
	RecipientAddress   string     `json:"recipient_address"`
	Status             string     `json:"status"`
	ThresholdReachedAt *time.Time `json:"threshold_reached_at,omitempty"`
	ExecutedAt         *time.Time `json:"executed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
