package governance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// Engine owns the proposal lifecycle: it validates every transition, keeps
// the vote ledger append-only, and promotes proposals once the weighted
// approval threshold is met. All multi-step transitions run inside a single
// store transaction with the proposal row locked, so two admins voting
// concurrently cannot both observe "below threshold" and skip promotion.
type Engine struct {
	store  Store
	events EventSink
	logger *zap.Logger

	// safeAddress is the multisig safe that executes payouts; stamped on
	// records created at threshold promotion.
	safeAddress string
}

// NewEngine wires the lifecycle engine. A nil sink disables event emission.
func NewEngine(store Store, events EventSink, logger *zap.Logger, safeAddress string) *Engine {
	if events == nil {
		events = NopSink{}
	}
	return &Engine{
		store:       store,
		events:      events,
		logger:      logger,
		safeAddress: safeAddress,
	}
}

// SubmitProposalInput carries the author-facing fields of a new proposal.
type SubmitProposalInput struct {
	AuthorID         string `json:"author_id"`
	WalletAddress    string `json:"wallet_address"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	RecipientAddress string `json:"recipient_address"`
	RequestedAmount  uint64 `json:"requested_amount"`
}

// SubmitProposal creates a proposal in pending_review.
func (e *Engine) SubmitProposal(ctx context.Context, in SubmitProposalInput) (*models.Proposal, error) {
	for field, val := range map[string]string{
		"author_id":      in.AuthorID,
		"wallet_address": in.WalletAddress,
		"title":          in.Title,
		"body":           in.Body,
	} {
		if strings.TrimSpace(val) == "" {
			return nil, &ValidationError{Field: field, Reason: "required"}
		}
	}

	now := time.Now().UTC()
	p := &models.Proposal{
		ID:               uuid.NewString(),
		AuthorID:         in.AuthorID,
		WalletAddress:    in.WalletAddress,
		Title:            in.Title,
		Body:             in.Body,
		RecipientAddress: in.RecipientAddress,
		RequestedAmount:  in.RequestedAmount,
		Status:           models.ProposalStatusPendingReview,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.store.InsertProposal(ctx, p); err != nil {
		return nil, err
	}

	e.emit(ctx, Event{Type: EventProposalCreated, ProposalID: p.ID, Payload: p})
	return p, nil
}

// GetProposal returns a proposal by id.
func (e *Engine) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	return e.store.GetProposal(ctx, id)
}

// ListProposals returns proposals, optionally filtered by status.
func (e *Engine) ListProposals(ctx context.Context, status string, limit int) ([]models.Proposal, error) {
	return e.store.ListProposals(ctx, status, limit)
}

// GetReview returns the proposal's AI review.
func (e *Engine) GetReview(ctx context.Context, proposalID string) (*models.Review, error) {
	return e.store.GetReview(ctx, proposalID)
}

// AttachReviewInput carries the AI review decision for a proposal.
type AttachReviewInput struct {
	ProposalID      string             `json:"proposal_id"`
	Decision        string             `json:"decision"`
	Reasoning       string             `json:"reasoning"`
	TokenAllocation *int32             `json:"token_allocation_percentage"`
	Scores          map[string]float64 `json:"scores"`
}

// AttachReview attaches the one-and-only AI review to a proposal.
//
// An approved review on a pending_review proposal atomically moves it to
// pending_admin_vote and synthesizes the Azura ballot carrying the review's
// token allocation as vote weight. A rejected review moves the proposal to
// its terminal rejected status. Both sides of each pairing commit together
// or not at all.
func (e *Engine) AttachReview(ctx context.Context, in AttachReviewInput) (*models.Review, error) {
	switch in.Decision {
	case models.ReviewDecisionApproved:
		if in.TokenAllocation == nil {
			return nil, &ValidationError{Field: "token_allocation_percentage", Reason: "required when decision is approved"}
		}
		if *in.TokenAllocation < MinTokenAllocation || *in.TokenAllocation > MaxTokenAllocation {
			return nil, &OutOfRangeError{Field: "token_allocation_percentage", Value: *in.TokenAllocation, Min: MinTokenAllocation, Max: MaxTokenAllocation}
		}
	case models.ReviewDecisionRejected:
		if in.TokenAllocation != nil {
			return nil, &ValidationError{Field: "token_allocation_percentage", Reason: "must be null when decision is rejected"}
		}
	default:
		return nil, &ValidationError{Field: "decision", Reason: "must be approved or rejected"}
	}

	now := time.Now().UTC()
	review := &models.Review{
		ID:                        uuid.NewString(),
		ProposalID:                in.ProposalID,
		Decision:                  in.Decision,
		Reasoning:                 in.Reasoning,
		TokenAllocationPercentage: in.TokenAllocation,
		Scores:                    in.Scores,
		CreatedAt:                 now,
	}

	var pending []Event
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		p, err := e.store.GetProposalForUpdate(ctx, in.ProposalID)
		if err != nil {
			return err
		}
		if p.Status != models.ProposalStatusPendingReview {
			return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "review"}
		}

		if err := e.store.InsertReview(ctx, review); err != nil {
			return err
		}
		pending = append(pending, Event{Type: EventReviewAttached, ProposalID: p.ID, Payload: review})

		if in.Decision == models.ReviewDecisionRejected {
			if err := e.transition(ctx, p.ID, models.ProposalStatusPendingReview, models.ProposalStatusRejected); err != nil {
				return err
			}
			pending = append(pending, Event{Type: EventProposalRejected, ProposalID: p.ID})
			return nil
		}

		if err := e.transition(ctx, p.ID, models.ProposalStatusPendingReview, models.ProposalStatusPendingAdminVote); err != nil {
			return err
		}

		azura := &models.AdminVote{
			ID:          uuid.NewString(),
			ProposalID:  p.ID,
			Vote:        models.VoteApprove,
			VoteWeight:  *in.TokenAllocation,
			Reasoning:   models.AzuraVoteReasoning,
			IsAzuraVote: true,
			CreatedAt:   now,
		}
		if err := e.store.InsertVote(ctx, azura); err != nil {
			return err
		}
		pending = append(pending, Event{Type: EventVoteCast, ProposalID: p.ID, Payload: azura})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.flush(ctx, pending)
	return review, nil
}

// CastVoteInput carries one human admin ballot.
type CastVoteInput struct {
	ProposalID string `json:"proposal_id"`
	AdminID    string `json:"admin_id"`
	Vote       string `json:"vote"`
	Weight     int32  `json:"weight"`
	Reasoning  string `json:"reasoning"`
}

// CastVote appends one weighted ballot and re-evaluates the threshold.
//
// Promotion to ready_for_multisig happens exactly once: the proposal row is
// locked for the duration, the approve-weight sum is recomputed from the
// ledger, and the conditional status update only fires while the proposal is
// still pending_admin_vote. Ballots cast after the threshold is met are
// recorded but never re-fire promotion or duplicate multisig records.
func (e *Engine) CastVote(ctx context.Context, in CastVoteInput) (*models.AdminVote, error) {
	if in.Vote != models.VoteApprove && in.Vote != models.VoteReject {
		return nil, &ValidationError{Field: "vote", Reason: "must be approve or reject"}
	}
	if in.Weight < 0 || in.Weight > MaxVoteWeight {
		return nil, &OutOfRangeError{Field: "vote_weight", Value: in.Weight, Min: 0, Max: MaxVoteWeight}
	}
	if strings.TrimSpace(in.AdminID) == "" {
		return nil, &ValidationError{Field: "admin_id", Reason: "required"}
	}

	var (
		vote    *models.AdminVote
		pending []Event
	)
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		p, err := e.store.GetProposalForUpdate(ctx, in.ProposalID)
		if err != nil {
			return err
		}
		switch p.Status {
		case models.ProposalStatusPendingReview, models.ProposalStatusRejected:
			return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "vote on"}
		}

		admin, err := e.store.GetAdminUser(ctx, in.AdminID)
		if err != nil {
			return err
		}
		if !admin.IsActive {
			return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "vote with inactive admin on"}
		}

		vote = &models.AdminVote{
			ID:                 uuid.NewString(),
			ProposalID:         p.ID,
			AdminID:            &admin.ID,
			AdminWalletAddress: &admin.WalletAddress,
			Vote:               in.Vote,
			VoteWeight:         in.Weight,
			Reasoning:          in.Reasoning,
			IsAzuraVote:        false,
			CreatedAt:          time.Now().UTC(),
		}
		if err := e.store.InsertVote(ctx, vote); err != nil {
			return err
		}
		pending = append(pending, Event{Type: EventVoteCast, ProposalID: p.ID, Payload: vote})

		votes, err := e.store.ListVotes(ctx, p.ID)
		if err != nil {
			return err
		}
		tally := Tally(votes)
		if !tally.ThresholdReached || p.Status != models.ProposalStatusPendingAdminVote {
			return nil
		}

		if err := e.transition(ctx, p.ID, models.ProposalStatusPendingAdminVote, models.ProposalStatusReadyForMultisig); err != nil {
			return err
		}
		mst, err := e.ensureMultisigRecord(ctx, p)
		if err != nil {
			return err
		}
		pending = append(pending, Event{
			Type:       EventReadyForMultisig,
			ProposalID: p.ID,
			Payload: map[string]interface{}{
				"approve_weight": tally.ApproveWeight,
				"multisig":       mst,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.flush(ctx, pending)
	return vote, nil
}

// ensureMultisigRecord returns the proposal's non-failed multisig record,
// creating a pending one stamped with threshold_reached_at when absent.
// Called with the proposal row locked.
func (e *Engine) ensureMultisigRecord(ctx context.Context, p *models.Proposal) (*models.MultisigTransaction, error) {
	existing, err := e.store.GetActiveMultisigByProposal(ctx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	mst := &models.MultisigTransaction{
		ID:                 uuid.NewString(),
		ProposalID:         p.ID,
		SafeAddress:        e.safeAddress,
		USDCAmount:         p.RequestedAmount,
		RecipientAddress:   p.RecipientAddress,
		Status:             models.MultisigStatusPending,
		ThresholdReachedAt: &now,
		CreatedAt:          now,
	}
	if err := e.store.InsertMultisigTransaction(ctx, mst); err != nil {
		return nil, err
	}
	return mst, nil
}

// VoteSummary returns the aggregate plus the full ballot list as one
// consistent snapshot.
func (e *Engine) VoteSummary(ctx context.Context, proposalID string) (*models.VoteSummary, error) {
	var summary *models.VoteSummary
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetProposal(ctx, proposalID); err != nil {
			return err
		}
		votes, err := e.store.ListVotes(ctx, proposalID)
		if err != nil {
			return err
		}
		tally := Tally(votes)
		summary = &models.VoteSummary{
			ProposalID:       proposalID,
			ApproveWeight:    tally.ApproveWeight,
			RejectWeight:     tally.RejectWeight,
			ThresholdReached: tally.ThresholdReached,
			WeightNeeded:     tally.WeightNeeded,
			Votes:            votes,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// CompleteProposal marks an active proposal completed. This is the terminal
// happy-path transition, driven by an operator once the funded work is done.
func (e *Engine) CompleteProposal(ctx context.Context, proposalID string) error {
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		p, err := e.store.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if p.Status != models.ProposalStatusActive {
			return &InvalidStateError{ProposalID: p.ID, Status: p.Status, Op: "complete"}
		}
		return e.transition(ctx, p.ID, models.ProposalStatusActive, models.ProposalStatusCompleted)
	})
	if err != nil {
		return err
	}
	e.emit(ctx, Event{Type: EventProposalComplete, ProposalID: proposalID})
	return nil
}

// transition applies a conditional status update and converts a lost race
// into an InvalidStateError. Callers hold the proposal row lock, so a miss
// here means a bug rather than a concurrent writer.
func (e *Engine) transition(ctx context.Context, id, from, to string) error {
	ok, err := e.store.UpdateProposalStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidStateError{ProposalID: id, Status: from, Op: "transition to " + to}
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	e.events.Emit(ctx, ev)
}

// flush emits events buffered during a transaction, after it committed.
func (e *Engine) flush(ctx context.Context, pending []Event) {
	for _, ev := range pending {
		e.emit(ctx, ev)
	}
}
