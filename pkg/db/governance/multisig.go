package governance

import (
	"context"
	"fmt"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// initMultisigTransactions creates the multisig_transactions table. The
// partial unique index allows one non-failed record per proposal: retries
// are possible, but only after the previous attempt failed.
func (db *DB) initMultisigTransactions(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS multisig_transactions (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			safe_address TEXT NOT NULL,
			safe_tx_hash TEXT,
			blockchain_tx_hash TEXT,
			usdc_amount BIGINT NOT NULL DEFAULT 0,
			recipient_address TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending','proposed','executed','failed')),
			threshold_reached_at TIMESTAMPTZ,
			executed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if err := db.Exec(ctx, query); err != nil {
		return err
	}

	index := `
		CREATE UNIQUE INDEX IF NOT EXISTS multisig_one_active_per_proposal
		ON multisig_transactions (proposal_id) WHERE status <> 'failed'
	`
	return db.Exec(ctx, index)
}

const multisigColumns = `id, proposal_id, safe_address, safe_tx_hash, blockchain_tx_hash, usdc_amount, recipient_address, status, threshold_reached_at, executed_at, created_at`

// InsertMultisigTransaction persists a payout record.
func (db *DB) InsertMultisigTransaction(ctx context.Context, t *models.MultisigTransaction) error {
	query := `
		INSERT INTO multisig_transactions (` + multisigColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	err := db.Exec(ctx, query,
		t.ID, t.ProposalID, t.SafeAddress, t.SafeTxHash, t.BlockchainTxHash,
		int64(t.USDCAmount), t.RecipientAddress, t.Status, t.ThresholdReachedAt, t.ExecutedAt, t.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return &gov.ConflictError{Resource: "multisig_transactions", Detail: "proposal " + t.ProposalID + " already has an active payout record"}
		}
		return fmt.Errorf("insert multisig transaction for proposal %s: %w", t.ProposalID, err)
	}
	return nil
}

// GetMultisigTransaction returns a payout record by id.
func (db *DB) GetMultisigTransaction(ctx context.Context, id string) (*models.MultisigTransaction, error) {
	query := `SELECT ` + multisigColumns + ` FROM multisig_transactions WHERE id = $1`
	return db.scanMultisig(ctx, query, id, id)
}

// GetActiveMultisigByProposal returns the proposal's non-failed payout record.
func (db *DB) GetActiveMultisigByProposal(ctx context.Context, proposalID string) (*models.MultisigTransaction, error) {
	query := `SELECT ` + multisigColumns + ` FROM multisig_transactions WHERE proposal_id = $1 AND status <> 'failed'`
	return db.scanMultisig(ctx, query, proposalID, proposalID)
}

func (db *DB) scanMultisig(ctx context.Context, query, arg, ref string) (*models.MultisigTransaction, error) {
	var (
		t      models.MultisigTransaction
		amount int64
	)
	err := db.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.ProposalID, &t.SafeAddress, &t.SafeTxHash, &t.BlockchainTxHash,
		&amount, &t.RecipientAddress, &t.Status, &t.ThresholdReachedAt, &t.ExecutedAt, &t.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, &gov.NotFoundError{Resource: "multisig_transaction", ID: ref}
		}
		return nil, fmt.Errorf("query multisig transaction %s: %w", ref, err)
	}
	t.USDCAmount = uint64(amount)
	return &t, nil
}

// UpdateMultisigStatus transitions id from any status in `from` to `to`,
// optionally recording a hash and stamping executed_at on execution.
func (db *DB) UpdateMultisigStatus(ctx context.Context, id string, from []string, to string, hashField, hashValue string) (bool, error) {
	set := `status = $3`
	switch hashField {
	case "safe_tx_hash":
		set += `, safe_tx_hash = $4`
	case "blockchain_tx_hash":
		set += `, blockchain_tx_hash = $4`
	case "":
	default:
		return false, fmt.Errorf("unknown multisig hash field %q", hashField)
	}
	if to == models.MultisigStatusExecuted {
		set += `, executed_at = NOW()`
	}

	query := `UPDATE multisig_transactions SET ` + set + ` WHERE id = $1 AND status = ANY($2)`
	args := []interface{}{id, from, to}
	if hashField != "" {
		args = append(args, hashValue)
	}

	tag, err := db.GetExecutor(ctx).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update multisig transaction %s to %s: %w", id, to, err)
	}
	return tag.RowsAffected() == 1, nil
}
