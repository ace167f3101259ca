package governance

import (
	"context"
	"fmt"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// initProposalTransactions creates the proposal_transactions table. One
// pending submission per proposal at a time; settled rows accumulate as
// history across retries.
func (db *DB) initProposalTransactions(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS proposal_transactions (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			transaction_hash TEXT NOT NULL,
			transaction_status TEXT NOT NULL DEFAULT 'pending'
				CHECK (transaction_status IN ('pending','confirmed','failed')),
			gas_used BIGINT NOT NULL DEFAULT 0,
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			confirmed_at TIMESTAMPTZ
		)
	`
	if err := db.Exec(ctx, query); err != nil {
		return err
	}

	index := `
		CREATE UNIQUE INDEX IF NOT EXISTS proposal_tx_one_pending_per_proposal
		ON proposal_transactions (proposal_id) WHERE transaction_status = 'pending'
	`
	return db.Exec(ctx, index)
}

const proposalTxColumns = `id, proposal_id, transaction_hash, transaction_status, gas_used, failure_reason, created_at, confirmed_at`

// InsertProposalTransaction records a user-submitted on-chain registration tx.
func (db *DB) InsertProposalTransaction(ctx context.Context, t *models.ProposalTransaction) error {
	query := `
		INSERT INTO proposal_transactions (` + proposalTxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	err := db.Exec(ctx, query,
		t.ID, t.ProposalID, t.TransactionHash, t.TransactionStatus,
		int64(t.GasUsed), t.FailureReason, t.CreatedAt, t.ConfirmedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return &gov.ConflictError{Resource: "proposal_transactions", Detail: "proposal " + t.ProposalID + " already has a pending submission"}
		}
		return fmt.Errorf("insert proposal transaction for %s: %w", t.ProposalID, err)
	}
	return nil
}

// GetProposalTransaction returns a submission record by id.
func (db *DB) GetProposalTransaction(ctx context.Context, id string) (*models.ProposalTransaction, error) {
	query := `SELECT ` + proposalTxColumns + ` FROM proposal_transactions WHERE id = $1`
	return db.scanProposalTx(ctx, query, id, id)
}

// GetPendingTransactionByProposal returns the proposal's pending submission.
func (db *DB) GetPendingTransactionByProposal(ctx context.Context, proposalID string) (*models.ProposalTransaction, error) {
	query := `SELECT ` + proposalTxColumns + ` FROM proposal_transactions WHERE proposal_id = $1 AND transaction_status = 'pending'`
	return db.scanProposalTx(ctx, query, proposalID, proposalID)
}

func (db *DB) scanProposalTx(ctx context.Context, query, arg, ref string) (*models.ProposalTransaction, error) {
	var (
		t   models.ProposalTransaction
		gas int64
	)
	err := db.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.ProposalID, &t.TransactionHash, &t.TransactionStatus,
		&gas, &t.FailureReason, &t.CreatedAt, &t.ConfirmedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, &gov.NotFoundError{Resource: "proposal_transaction", ID: ref}
		}
		return nil, fmt.Errorf("query proposal transaction %s: %w", ref, err)
	}
	t.GasUsed = uint64(gas)
	return &t, nil
}

// ListPendingProposalTransactions returns every submission the confirmation
// monitor still has to settle, oldest first.
func (db *DB) ListPendingProposalTransactions(ctx context.Context) ([]models.ProposalTransaction, error) {
	query := `
		SELECT ` + proposalTxColumns + `
		FROM proposal_transactions
		WHERE transaction_status = 'pending'
		ORDER BY created_at
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending proposal transactions: %w", err)
	}
	defer rows.Close()

	var out []models.ProposalTransaction
	for rows.Next() {
		var (
			t   models.ProposalTransaction
			gas int64
		)
		if err := rows.Scan(&t.ID, &t.ProposalID, &t.TransactionHash, &t.TransactionStatus,
			&gas, &t.FailureReason, &t.CreatedAt, &t.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan proposal transaction: %w", err)
		}
		t.GasUsed = uint64(gas)
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkTransactionConfirmed finalizes a pending submission as confirmed.
func (db *DB) MarkTransactionConfirmed(ctx context.Context, id string, gasUsed uint64) (bool, error) {
	query := `
		UPDATE proposal_transactions
		SET transaction_status = 'confirmed', gas_used = $2, confirmed_at = NOW()
		WHERE id = $1 AND transaction_status = 'pending'
	`
	tag, err := db.GetExecutor(ctx).Exec(ctx, query, id, int64(gasUsed))
	if err != nil {
		return false, fmt.Errorf("confirm proposal transaction %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkTransactionFailed finalizes a pending submission as failed.
func (db *DB) MarkTransactionFailed(ctx context.Context, id, reason string) (bool, error) {
	query := `
		UPDATE proposal_transactions
		SET transaction_status = 'failed', failure_reason = $2
		WHERE id = $1 AND transaction_status = 'pending'
	`
	tag, err := db.GetExecutor(ctx).Exec(ctx, query, id, reason)
	if err != nil {
		return false, fmt.Errorf("fail proposal transaction %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
