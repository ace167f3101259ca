package governance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// CreatePendingPayout records the external payout for a proposal that
// cleared the threshold. Normally the engine creates this record itself at
// promotion time; the hook exists for executors that manage their own safe
// addresses. At most one non-failed record may exist per proposal.
func (e *Engine) CreatePendingPayout(ctx context.Context, proposalID, safeAddress, recipient string, usdcAmount uint64) (*models.MultisigTransaction, error) {
	if strings.TrimSpace(safeAddress) == "" {
		return nil, &ValidationError{Field: "safe_address", Reason: "required"}
	}

	now := time.Now().UTC()
	mst := &models.MultisigTransaction{
		ID:               uuid.NewString(),
		ProposalID:       proposalID,
		SafeAddress:      safeAddress,
		USDCAmount:       usdcAmount,
		RecipientAddress: recipient,
		Status:           models.MultisigStatusPending,
		CreatedAt:        now,
	}

	err := e.store.InTx(ctx, func(ctx context.Context) error {
		p, err := e.store.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		switch p.Status {
		case models.ProposalStatusReadyForMultisig, models.ProposalStatusApproved, models.ProposalStatusActive:
		default:
			return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "create payout for"}
		}
		return e.store.InsertMultisigTransaction(ctx, mst)
	})
	if err != nil {
		return nil, err
	}
	return mst, nil
}

// MarkPayoutProposed records the safe transaction hash once the executor has
// proposed the payout to the multisig.
func (e *Engine) MarkPayoutProposed(ctx context.Context, id, safeTxHash string) error {
	return e.markPayout(ctx, id,
		[]string{models.MultisigStatusPending},
		models.MultisigStatusProposed,
		"safe_tx_hash", safeTxHash,
		EventMultisigProposed)
}

// MarkPayoutExecuted records the on-chain payout execution.
func (e *Engine) MarkPayoutExecuted(ctx context.Context, id, blockchainTxHash string) error {
	return e.markPayout(ctx, id,
		[]string{models.MultisigStatusPending, models.MultisigStatusProposed},
		models.MultisigStatusExecuted,
		"blockchain_tx_hash", blockchainTxHash,
		EventMultisigExecuted)
}

// MarkPayoutFailed records a failed payout; a fresh record may be created
// afterwards for the retry.
func (e *Engine) MarkPayoutFailed(ctx context.Context, id string) error {
	return e.markPayout(ctx, id,
		[]string{models.MultisigStatusPending, models.MultisigStatusProposed},
		models.MultisigStatusFailed,
		"", "",
		EventMultisigFailed)
}

// GetPayoutByProposal returns the proposal's non-failed payout record.
func (e *Engine) GetPayoutByProposal(ctx context.Context, proposalID string) (*models.MultisigTransaction, error) {
	return e.store.GetActiveMultisigByProposal(ctx, proposalID)
}

// GetPayout returns a multisig transaction by id.
func (e *Engine) GetPayout(ctx context.Context, id string) (*models.MultisigTransaction, error) {
	return e.store.GetMultisigTransaction(ctx, id)
}

func (e *Engine) markPayout(ctx context.Context, id string, from []string, to, hashField, hashValue, event string) error {
	mst, err := e.store.GetMultisigTransaction(ctx, id)
	if err != nil {
		return err
	}

	ok, err := e.store.UpdateMultisigStatus(ctx, id, from, to, hashField, hashValue)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidStateError{ProposalID: mst.ProposalID, Status: mst.Status, Op: "mark payout " + to + " for"}
	}

	e.emit(ctx, Event{Type: event, ProposalID: mst.ProposalID, Payload: map[string]string{"multisig_id": id}})
	return nil
}
