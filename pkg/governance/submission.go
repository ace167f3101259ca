package governance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// SubmissionTimeout is how long a pending on-chain submission may wait for a
// receipt before the monitor treats silence as failure.
const SubmissionTimeout = 30 * time.Minute

// RecordSubmissionTx records the user-paid on-chain transaction that
// registers the proposal. Valid while the proposal is ready_for_multisig, or
// approved after a previous submission failed (the retry path). At most one
// pending submission may exist per proposal.
func (e *Engine) RecordSubmissionTx(ctx context.Context, proposalID, txHash string) (*models.ProposalTransaction, error) {
	if strings.TrimSpace(txHash) == "" {
		return nil, &ValidationError{Field: "transaction_hash", Reason: "required"}
	}

	tx := &models.ProposalTransaction{
		ID:                uuid.NewString(),
		ProposalID:        proposalID,
		TransactionHash:   txHash,
		TransactionStatus: models.TransactionStatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	err := e.store.InTx(ctx, func(ctx context.Context) error {
		p, err := e.store.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if p.Status != models.ProposalStatusReadyForMultisig && p.Status != models.ProposalStatusApproved {
			return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "record submission for"}
		}

		if existing, err := e.store.GetPendingTransactionByProposal(ctx, proposalID); err == nil {
			return &ConflictError{Resource: "proposal_transactions", Detail: "pending submission " + existing.ID + " already exists"}
		} else if !IsNotFound(err) {
			return err
		}

		return e.store.InsertProposalTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, Event{Type: EventTxRecorded, ProposalID: proposalID, Payload: tx})
	return tx, nil
}

// ConfirmSubmissionTx finalizes a pending submission after a success receipt:
// the transaction becomes confirmed and the owning proposal goes active.
func (e *Engine) ConfirmSubmissionTx(ctx context.Context, txID string, gasUsed uint64) error {
	var proposalID string
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		tx, err := e.store.GetProposalTransaction(ctx, txID)
		if err != nil {
			return err
		}
		proposalID = tx.ProposalID

		p, err := e.store.GetProposalForUpdate(ctx, tx.ProposalID)
		if err != nil {
			return err
		}

		ok, err := e.store.MarkTransactionConfirmed(ctx, txID, gasUsed)
		if err != nil {
			return err
		}
		if !ok {
			return &InvalidStateError{ProposalID: tx.ProposalID, Status: tx.TransactionStatus, Op: "confirm submission for"}
		}

		switch p.Status {
		case models.ProposalStatusReadyForMultisig, models.ProposalStatusApproved:
			return e.transition(ctx, p.ID, p.Status, models.ProposalStatusActive)
		}
		return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "activate"}
	})
	if err != nil {
		return err
	}

	e.emit(ctx, Event{Type: EventProposalActive, ProposalID: proposalID, Payload: map[string]uint64{"gas_used": gasUsed}})
	return nil
}

// FailSubmissionTx finalizes a pending submission after a revert receipt or
// the 30-minute timeout: the transaction becomes failed and the proposal
// rolls back to approved so the author can resubmit.
func (e *Engine) FailSubmissionTx(ctx context.Context, txID, reason string) error {
	var proposalID string
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		tx, err := e.store.GetProposalTransaction(ctx, txID)
		if err != nil {
			return err
		}
		proposalID = tx.ProposalID

		p, err := e.store.GetProposalForUpdate(ctx, tx.ProposalID)
		if err != nil {
			return err
		}

		ok, err := e.store.MarkTransactionFailed(ctx, txID, reason)
		if err != nil {
			return err
		}
		if !ok {
			return &InvalidStateError{ProposalID: tx.ProposalID, Status: tx.TransactionStatus, Op: "fail submission for"}
		}

		// Roll back to approved from either side of the activation edge, so a
		// late failure callback racing a confirm cannot strand the proposal.
		switch p.Status {
		case models.ProposalStatusReadyForMultisig, models.ProposalStatusActive:
			return e.transition(ctx, p.ID, p.Status, models.ProposalStatusApproved)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.emit(ctx, Event{Type: EventProposalReverted, ProposalID: proposalID, Payload: map[string]string{"reason": reason}})
	return nil
}

// ListPendingSubmissions returns submissions the monitor still has to settle.
func (e *Engine) ListPendingSubmissions(ctx context.Context) ([]models.ProposalTransaction, error) {
	return e.store.ListPendingProposalTransactions(ctx)
}
