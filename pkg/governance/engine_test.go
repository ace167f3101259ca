package governance

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// memStore is an in-memory Store that mirrors the constraints the postgres
// schema enforces: one review per proposal, one ballot per admin per
// proposal, one non-failed multisig and one pending submission per proposal.
type memStore struct {
	mu        sync.Mutex
	proposals map[string]models.Proposal
	reviews   map[string]models.Review // keyed by proposal id
	admins    map[string]models.AdminUser
	votes     []models.AdminVote
	multisigs map[string]models.MultisigTransaction
	txs       map[string]models.ProposalTransaction
}

func newMemStore() *memStore {
	return &memStore{
		proposals: map[string]models.Proposal{},
		reviews:   map[string]models.Review{},
		admins:    map[string]models.AdminUser{},
		multisigs: map[string]models.MultisigTransaction{},
		txs:       map[string]models.ProposalTransaction{},
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) InsertProposal(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ID] = *p
	return nil
}

func (s *memStore) GetProposal(_ context.Context, id string) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, &NotFoundError{Resource: "proposal", ID: id}
	}
	return &p, nil
}

func (s *memStore) GetProposalForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	return s.GetProposal(ctx, id)
}

func (s *memStore) ListProposals(_ context.Context, status string, limit int) ([]models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Proposal
	for _, p := range s.proposals {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) UpdateProposalStatus(_ context.Context, id, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	s.proposals[id] = p
	return true, nil
}

func (s *memStore) InsertReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviews[r.ProposalID]; exists {
		return &ConflictError{Resource: "proposal_reviews", Detail: "proposal " + r.ProposalID + " already reviewed"}
	}
	s.reviews[r.ProposalID] = *r
	return nil
}

func (s *memStore) GetReview(_ context.Context, proposalID string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[proposalID]
	if !ok {
		return nil, &NotFoundError{Resource: "review", ID: proposalID}
	}
	return &r, nil
}

func (s *memStore) InsertAdminUser(_ context.Context, a *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.WalletAddress == a.WalletAddress {
			return &ConflictError{Resource: "admin_users", Detail: "wallet already registered"}
		}
	}
	s.admins[a.ID] = *a
	return nil
}

func (s *memStore) GetAdminUser(_ context.Context, id string) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, &NotFoundError{Resource: "admin_user", ID: id}
	}
	return &a, nil
}

func (s *memStore) ListAdminUsers(_ context.Context) ([]models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdminUser
	for _, a := range s.admins {
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) SetAdminActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return false, nil
	}
	a.IsActive = active
	s.admins[id] = a
	return true, nil
}

func (s *memStore) InsertVote(_ context.Context, v *models.AdminVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.votes {
		if existing.ProposalID != v.ProposalID {
			continue
		}
		if v.IsAzuraVote && existing.IsAzuraVote {
			return &DuplicateVoteError{ProposalID: v.ProposalID, AdminID: "azura"}
		}
		if v.AdminID != nil && existing.AdminID != nil && *existing.AdminID == *v.AdminID {
			return &DuplicateVoteError{ProposalID: v.ProposalID, AdminID: *v.AdminID}
		}
	}
	s.votes = append(s.votes, *v)
	return nil
}

func (s *memStore) ListVotes(_ context.Context, proposalID string) ([]models.AdminVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdminVote
	for _, v := range s.votes {
		if v.ProposalID == proposalID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *memStore) InsertMultisigTransaction(_ context.Context, t *models.MultisigTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.multisigs {
		if existing.ProposalID == t.ProposalID && existing.Status != models.MultisigStatusFailed {
			return &ConflictError{Resource: "multisig_transactions", Detail: "active payout exists"}
		}
	}
	s.multisigs[t.ID] = *t
	return nil
}

func (s *memStore) GetMultisigTransaction(_ context.Context, id string) (*models.MultisigTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.multisigs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "multisig_transaction", ID: id}
	}
	return &t, nil
}

func (s *memStore) GetActiveMultisigByProposal(_ context.Context, proposalID string) (*models.MultisigTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.multisigs {
		if t.ProposalID == proposalID && t.Status != models.MultisigStatusFailed {
			out := t
			return &out, nil
		}
	}
	return nil, &NotFoundError{Resource: "multisig_transaction", ID: proposalID}
}

func (s *memStore) UpdateMultisigStatus(_ context.Context, id string, from []string, to string, hashField, hashValue string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.multisigs[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, f := range from {
		if t.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	t.Status = to
	switch hashField {
	case "safe_tx_hash":
		t.SafeTxHash = &hashValue
	case "blockchain_tx_hash":
		t.BlockchainTxHash = &hashValue
	}
	if to == models.MultisigStatusExecuted {
		now := time.Now().UTC()
		t.ExecutedAt = &now
	}
	s.multisigs[id] = t
	return true, nil
}

func (s *memStore) InsertProposalTransaction(_ context.Context, t *models.ProposalTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.txs {
		if existing.ProposalID == t.ProposalID && existing.TransactionStatus == models.TransactionStatusPending {
			return &ConflictError{Resource: "proposal_transactions", Detail: "pending submission exists"}
		}
	}
	s.txs[t.ID] = *t
	return nil
}

func (s *memStore) GetProposalTransaction(_ context.Context, id string) (*models.ProposalTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "proposal_transaction", ID: id}
	}
	return &t, nil
}

func (s *memStore) GetPendingTransactionByProposal(_ context.Context, proposalID string) (*models.ProposalTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ProposalID == proposalID && t.TransactionStatus == models.TransactionStatusPending {
			out := t
			return &out, nil
		}
	}
	return nil, &NotFoundError{Resource: "proposal_transaction", ID: proposalID}
}

func (s *memStore) ListPendingProposalTransactions(_ context.Context) ([]models.ProposalTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProposalTransaction
	for _, t := range s.txs {
		if t.TransactionStatus == models.TransactionStatusPending {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) MarkTransactionConfirmed(_ context.Context, id string, gasUsed uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.TransactionStatus != models.TransactionStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	t.TransactionStatus = models.TransactionStatusConfirmed
	t.GasUsed = gasUsed
	t.ConfirmedAt = &now
	s.txs[id] = t
	return true, nil
}

func (s *memStore) MarkTransactionFailed(_ context.Context, id, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.TransactionStatus != models.TransactionStatusPending {
		return false, nil
	}
	t.TransactionStatus = models.TransactionStatusFailed
	t.FailureReason = reason
	s.txs[id] = t
	return true, nil
}

var _ Store = (*memStore)(nil)

// recordSink captures emitted events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordSink) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordSink) ofType(eventType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

const testSafeAddress = "0xSafe000000000000000000000000000000000000"

func newTestEngine(t *testing.T) (*Engine, *memStore, *recordSink) {
	t.Helper()
	store := newMemStore()
	sink := &recordSink{}
	return NewEngine(store, sink, zaptest.NewLogger(t), testSafeAddress), store, sink
}

func submitTestProposal(t *testing.T, e *Engine) *models.Proposal {
	t.Helper()
	p, err := e.SubmitProposal(context.Background(), SubmitProposalInput{
		AuthorID:         "user-1",
		WalletAddress:    "0xAuthor",
		Title:            "Build the tutorial arena",
		Body:             "## Plan\nShip it.",
		RecipientAddress: "0xRecipient",
		RequestedAmount:  2_500_000_000,
	})
	require.NoError(t, err)
	return p
}

func registerTestAdmin(t *testing.T, e *Engine, wallet string) *models.AdminUser {
	t.Helper()
	admin, err := e.RegisterAdmin(context.Background(), "discord-"+wallet, wallet)
	require.NoError(t, err)
	return admin
}

func allocation(v int32) *int32 { return &v }

func approveProposal(t *testing.T, e *Engine, proposalID string, alloc int32) {
	t.Helper()
	_, err := e.AttachReview(context.Background(), AttachReviewInput{
		ProposalID:      proposalID,
		Decision:        models.ReviewDecisionApproved,
		Reasoning:       "solid plan",
		TokenAllocation: allocation(alloc),
	})
	require.NoError(t, err)
}

func TestSubmitProposal(t *testing.T) {
	e, _, sink := newTestEngine(t)

	p := submitTestProposal(t, e)
	assert.Equal(t, models.ProposalStatusPendingReview, p.Status)
	assert.NotEmpty(t, p.ID)
	assert.Len(t, sink.ofType(EventProposalCreated), 1)

	_, err := e.SubmitProposal(context.Background(), SubmitProposalInput{
		AuthorID:      "user-1",
		WalletAddress: "0xAuthor",
		Body:          "no title",
	})
	assert.True(t, IsValidation(err))
}

func TestAttachReviewApproved(t *testing.T) {
	e, store, sink := newTestEngine(t)
	p := submitTestProposal(t, e)

	review, err := e.AttachReview(context.Background(), AttachReviewInput{
		ProposalID:      p.ID,
		Decision:        models.ReviewDecisionApproved,
		Reasoning:       "well scoped",
		TokenAllocation: allocation(35),
		Scores:          map[string]float64{"feasibility": 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(35), *review.TokenAllocationPercentage)

	got, err := e.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPendingAdminVote, got.Status)

	// The Azura ballot must carry the allocation as weight.
	votes, err := store.ListVotes(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.True(t, votes[0].IsAzuraVote)
	assert.Nil(t, votes[0].AdminID)
	assert.Equal(t, int32(35), votes[0].VoteWeight)
	assert.Equal(t, models.VoteApprove, votes[0].Vote)
	assert.Equal(t, models.AzuraVoteReasoning, votes[0].Reasoning)

	assert.Len(t, sink.ofType(EventReviewAttached), 1)
	assert.Len(t, sink.ofType(EventVoteCast), 1)
}

func TestAttachReviewRejected(t *testing.T) {
	e, store, sink := newTestEngine(t)
	p := submitTestProposal(t, e)

	_, err := e.AttachReview(context.Background(), AttachReviewInput{
		ProposalID: p.ID,
		Decision:   models.ReviewDecisionRejected,
		Reasoning:  "out of scope",
	})
	require.NoError(t, err)

	got, err := e.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusRejected, got.Status)
	assert.True(t, got.IsTerminal())

	votes, err := store.ListVotes(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)
	assert.Len(t, sink.ofType(EventProposalRejected), 1)
}

func TestAttachReviewValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := submitTestProposal(t, e)
	ctx := context.Background()

	tests := []struct {
		name string
		in   AttachReviewInput
	}{
		{"approved without allocation", AttachReviewInput{ProposalID: p.ID, Decision: models.ReviewDecisionApproved}},
		{"allocation below minimum", AttachReviewInput{ProposalID: p.ID, Decision: models.ReviewDecisionApproved, TokenAllocation: allocation(0)}},
		{"allocation above maximum", AttachReviewInput{ProposalID: p.ID, Decision: models.ReviewDecisionApproved, TokenAllocation: allocation(41)}},
		{"rejected with allocation", AttachReviewInput{ProposalID: p.ID, Decision: models.ReviewDecisionRejected, TokenAllocation: allocation(10)}},
		{"unknown decision", AttachReviewInput{ProposalID: p.ID, Decision: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.AttachReview(ctx, tt.in)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}

	// Valid review succeeds, a second one conflicts.
	approveProposal(t, e, p.ID, 30)
	_, err := e.AttachReview(ctx, AttachReviewInput{
		ProposalID:      p.ID,
		Decision:        models.ReviewDecisionApproved,
		TokenAllocation: allocation(20),
	})
	assert.True(t, IsInvalidState(err), "second review must be rejected, got %v", err)
}

func TestCastVoteGuards(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	p := submitTestProposal(t, e)
	admin := registerTestAdmin(t, e, "0xAdmin1")

	// Voting before the review lands is illegal.
	_, err := e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteApprove, Weight: 10})
	assert.True(t, IsInvalidState(err))

	approveProposal(t, e, p.ID, 20)

	tests := []struct {
		name  string
		in    CastVoteInput
		check func(error) bool
	}{
		{"bad vote value", CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: "abstain", Weight: 5}, IsValidation},
		{"negative weight", CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteApprove, Weight: -1}, IsValidation},
		{"weight above cap", CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteApprove, Weight: 41}, IsValidation},
		{"missing admin", CastVoteInput{ProposalID: p.ID, Vote: models.VoteApprove, Weight: 5}, IsValidation},
		{"unknown admin", CastVoteInput{ProposalID: p.ID, AdminID: "ghost", Vote: models.VoteApprove, Weight: 5}, IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CastVote(ctx, tt.in)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	// Inactive admins cannot vote.
	require.NoError(t, e.SetAdminActive(ctx, admin.ID, false))
	_, err = e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteApprove, Weight: 5})
	assert.True(t, IsInvalidState(err))
	require.NoError(t, e.SetAdminActive(ctx, admin.ID, true))

	// First ballot lands, second from the same admin is a duplicate.
	_, err = e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteApprove, Weight: 10})
	require.NoError(t, err)
	_, err = e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteReject, Weight: 10})
	assert.True(t, IsConflict(err))
}

func TestThresholdPromotion(t *testing.T) {
	e, store, sink := newTestEngine(t)
	ctx := context.Background()
	p := submitTestProposal(t, e)
	a1 := registerTestAdmin(t, e, "0xAdmin1")
	a2 := registerTestAdmin(t, e, "0xAdmin2")

	// Azura contributes 40; one more approve of 10 crosses the 50 threshold.
	approveProposal(t, e, p.ID, 40)

	_, err := e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: a1.ID, Vote: models.VoteApprove, Weight: 10, Reasoning: "lgtm"})
	require.NoError(t, err)

	got, err := e.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusReadyForMultisig, got.Status)

	mst, err := store.GetActiveMultisigByProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MultisigStatusPending, mst.Status)
	assert.Equal(t, testSafeAddress, mst.SafeAddress)
	assert.Equal(t, p.RequestedAmount, mst.USDCAmount)
	assert.Equal(t, p.RecipientAddress, mst.RecipientAddress)
	assert.NotNil(t, mst.ThresholdReachedAt)

	require.Len(t, sink.ofType(EventReadyForMultisig), 1)

	// A late ballot is recorded but never re-fires promotion.
	_, err = e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: a2.ID, Vote: models.VoteApprove, Weight: 40})
	require.NoError(t, err)

	votes, err := store.ListVotes(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, votes, 3)
	assert.Len(t, sink.ofType(EventReadyForMultisig), 1)
	assert.Len(t, store.multisigs, 1)
}

func TestThresholdIgnoresRejectWeight(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	p := submitTestProposal(t, e)
	a1 := registerTestAdmin(t, e, "0xAdmin1")

	approveProposal(t, e, p.ID, 40)

	// A heavy reject keeps the proposal below the approve threshold but does
	// not block future approvals.
	_, err := e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: a1.ID, Vote: models.VoteReject, Weight: 40})
	require.NoError(t, err)

	got, err := e.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPendingAdminVote, got.Status)

	summary, err := e.VoteSummary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(40), summary.ApproveWeight)
	assert.Equal(t, int32(40), summary.RejectWeight)
	assert.False(t, summary.ThresholdReached)
	assert.Equal(t, int32(10), summary.WeightNeeded)
	assert.Len(t, summary.Votes, 2)
}

// promoteToReady drives a proposal through review and voting until it is
// ready_for_multisig.
func promoteToReady(t *testing.T, e *Engine) *models.Proposal {
	t.Helper()
	ctx := context.Background()
	p := submitTestProposal(t, e)
	admin := registerTestAdmin(t, e, "0xPromoter")
	approveProposal(t, e, p.ID, 40)
	_, err := e.CastVote(ctx, CastVoteInput{ProposalID: p.ID, AdminID: admin.ID, Vote: models.VoteApprove, Weight: 10})
	require.NoError(t, err)
	return p
}

func TestSubmissionConfirmFlow(t *testing.T) {
	e, _, sink := newTestEngine(t)
	ctx := context.Background()
	p := promoteToReady(t, e)

	tx, err := e.RecordSubmissionTx(ctx, p.ID, "0xabc123")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.TransactionStatus)

	// Only one pending submission at a time.
	_, err = e.RecordSubmissionTx(ctx, p.ID, "0xdef456")
	assert.True(t, IsConflict(err))

	require.NoError(t, e.ConfirmSubmissionTx(ctx, tx.ID, 21000))

	got, err := e.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusActive, got.Status)

	confirmed, err := e.store.GetProposalTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmed, confirmed.TransactionStatus)
	assert.Equal(t, uint64(21000), confirmed.GasUsed)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Len(t, sink.ofType(EventProposalActive), 1)

	// Confirming twice is an invalid state, not a silent no-op.
	err = e.ConfirmSubmissionTx(ctx, tx.ID, 21000)
	assert.True(t, IsInvalidState(err))

	// And the lifecycle finishes with an explicit completion.
	require.NoError(t, e.CompleteProposal(ctx, p.ID))
	got, err = e.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusCompleted, got.Status)
	assert.True(t, got.IsTerminal())

	err = e.CompleteProposal(ctx, p.ID)
	assert.True(t, IsInvalidState(err))
}

func TestSubmissionFailureRollsBackAndAllowsRetry(t *testing.T) {
	e, _, sink := newTestEngine(t)
	ctx := context.Background()
	p := promoteToReady(t, e)

	tx, err := e.RecordSubmissionTx(ctx, p.ID, "0xabc123")
	require.NoError(t, err)

	require.NoError(t, e.FailSubmissionTx(ctx, tx.ID, "transaction reverted"))

	got, err := e.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, got.Status)

	failed, err := e.store.GetProposalTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, failed.TransactionStatus)
	assert.Equal(t, "transaction reverted", failed.FailureReason)
	assert.Len(t, sink.ofType(EventProposalReverted), 1)

	// Retry path: a fresh submission from approved is legal.
	retry, err := e.RecordSubmissionTx(ctx, p.ID, "0xretry789")
	require.NoError(t, err)
	require.NoError(t, e.ConfirmSubmissionTx(ctx, retry.ID, 30000))

	got, err = e.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusActive, got.Status)
}

func TestRecordSubmissionGuards(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	p := submitTestProposal(t, e)

	_, err := e.RecordSubmissionTx(ctx, p.ID, "")
	assert.True(t, IsValidation(err))

	// pending_review proposals have nothing to register on-chain yet.
	_, err = e.RecordSubmissionTx(ctx, p.ID, "0xabc")
	assert.True(t, IsInvalidState(err))
}

func TestMultisigLifecycle(t *testing.T) {
	e, store, sink := newTestEngine(t)
	ctx := context.Background()
	p := promoteToReady(t, e)

	mst, err := store.GetActiveMultisigByProposal(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, e.MarkPayoutProposed(ctx, mst.ID, "0xsafehash"))
	got, err := e.GetPayout(ctx, mst.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MultisigStatusProposed, got.Status)
	require.NotNil(t, got.SafeTxHash)
	assert.Equal(t, "0xsafehash", *got.SafeTxHash)

	// Proposing twice is illegal.
	err = e.MarkPayoutProposed(ctx, mst.ID, "0xother")
	assert.True(t, IsInvalidState(err))

	require.NoError(t, e.MarkPayoutExecuted(ctx, mst.ID, "0xchainhash"))
	got, err = e.GetPayout(ctx, mst.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MultisigStatusExecuted, got.Status)
	require.NotNil(t, got.BlockchainTxHash)
	assert.Equal(t, "0xchainhash", *got.BlockchainTxHash)
	assert.NotNil(t, got.ExecutedAt)

	// Executed records cannot be failed.
	err = e.MarkPayoutFailed(ctx, mst.ID)
	assert.True(t, IsInvalidState(err))

	assert.Len(t, sink.ofType(EventMultisigProposed), 1)
	assert.Len(t, sink.ofType(EventMultisigExecuted), 1)
}

func TestMultisigFailureFreesProposalForRetry(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	p := promoteToReady(t, e)

	mst, err := store.GetActiveMultisigByProposal(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, e.MarkPayoutFailed(ctx, mst.ID))
	_, err = e.GetPayoutByProposal(ctx, p.ID)
	assert.True(t, IsNotFound(err))

	// A replacement payout record is now legal.
	retry, err := e.CreatePendingPayout(ctx, p.ID, testSafeAddress, p.RecipientAddress, p.RequestedAmount)
	require.NoError(t, err)
	assert.Equal(t, models.MultisigStatusPending, retry.Status)
}

func TestRegisterAdmin(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	admin := registerTestAdmin(t, e, "0xAdmin1")
	assert.True(t, admin.IsActive)

	_, err := e.RegisterAdmin(ctx, "someone-else", "0xAdmin1")
	assert.True(t, IsConflict(err))

	_, err = e.RegisterAdmin(ctx, "", "0xAdmin2")
	assert.True(t, IsValidation(err))

	err = e.SetAdminActive(ctx, "missing", false)
	assert.True(t, IsNotFound(err))
}

func TestVoteSummaryUnknownProposal(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.VoteSummary(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}
