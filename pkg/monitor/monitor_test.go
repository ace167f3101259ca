package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/azura-academy/governance/pkg/chain"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// fakeReceipts serves canned receipts or errors per transaction hash.
type fakeReceipts struct {
	receipts map[string]*chain.Receipt
	errs     map[string]error
}

func (f *fakeReceipts) TransactionReceipt(_ context.Context, txHash string) (*chain.Receipt, error) {
	if err, ok := f.errs[txHash]; ok {
		return nil, err
	}
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, chain.ErrNotMined
}

// recordFinalizer records settlement calls; checkOne runs on a worker pool
// so the maps are mutex-protected.
type recordFinalizer struct {
	mu        sync.Mutex
	pending   []models.ProposalTransaction
	confirmed map[string]uint64
	failed    map[string]string
}

func newRecordFinalizer(pending ...models.ProposalTransaction) *recordFinalizer {
	return &recordFinalizer{
		pending:   pending,
		confirmed: map[string]uint64{},
		failed:    map[string]string{},
	}
}

func (f *recordFinalizer) ListPendingSubmissions(context.Context) ([]models.ProposalTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *recordFinalizer) ConfirmSubmissionTx(_ context.Context, txID string, gasUsed uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed[txID] = gasUsed
	return nil
}

func (f *recordFinalizer) FailSubmissionTx(_ context.Context, txID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[txID] = reason
	return nil
}

func pendingTx(id, hash string, age time.Duration) models.ProposalTransaction {
	return models.ProposalTransaction{
		ID:                id,
		ProposalID:        "proposal-" + id,
		TransactionHash:   hash,
		TransactionStatus: models.TransactionStatusPending,
		CreatedAt:         time.Now().Add(-age),
	}
}

func newTestMonitor(t *testing.T, fin Finalizer, source ReceiptSource) *Monitor {
	t.Helper()
	m := New(fin, source, zaptest.NewLogger(t), 30*time.Minute)
	t.Cleanup(m.Stop)
	return m
}

func TestCheckConfirmsSuccessReceipt(t *testing.T) {
	fin := newRecordFinalizer(pendingTx("tx-1", "0xaaa", time.Minute))
	source := &fakeReceipts{receipts: map[string]*chain.Receipt{
		"0xaaa": {Success: true, GasUsed: 21000, BlockNumber: 17},
	}}
	m := newTestMonitor(t, fin, source)

	require.NoError(t, m.Check(context.Background()))

	assert.Equal(t, map[string]uint64{"tx-1": 21000}, fin.confirmed)
	assert.Empty(t, fin.failed)
}

func TestCheckFailsRevertedReceipt(t *testing.T) {
	fin := newRecordFinalizer(pendingTx("tx-1", "0xbbb", time.Minute))
	source := &fakeReceipts{receipts: map[string]*chain.Receipt{
		"0xbbb": {Success: false, GasUsed: 21000},
	}}
	m := newTestMonitor(t, fin, source)

	require.NoError(t, m.Check(context.Background()))

	assert.Empty(t, fin.confirmed)
	assert.Equal(t, "transaction reverted", fin.failed["tx-1"])
}

func TestCheckKeepsPollingYoungSubmission(t *testing.T) {
	fin := newRecordFinalizer(pendingTx("tx-1", "0xccc", 5*time.Minute))
	m := newTestMonitor(t, fin, &fakeReceipts{})

	require.NoError(t, m.Check(context.Background()))

	assert.Empty(t, fin.confirmed)
	assert.Empty(t, fin.failed)
}

func TestCheckTimesOutStaleSubmission(t *testing.T) {
	fin := newRecordFinalizer(pendingTx("tx-1", "0xddd", 31*time.Minute))
	m := newTestMonitor(t, fin, &fakeReceipts{})

	require.NoError(t, m.Check(context.Background()))

	assert.Empty(t, fin.confirmed)
	require.Contains(t, fin.failed, "tx-1")
	assert.Contains(t, fin.failed["tx-1"], "timeout")
}

func TestCheckIgnoresTransientRPCErrors(t *testing.T) {
	// A hard RPC failure must not be mistaken for a missing receipt: the
	// submission stays pending regardless of its age.
	fin := newRecordFinalizer(pendingTx("tx-1", "0xeee", 2*time.Hour))
	source := &fakeReceipts{errs: map[string]error{
		"0xeee": errors.New("connection refused"),
	}}
	m := newTestMonitor(t, fin, source)

	require.NoError(t, m.Check(context.Background()))

	assert.Empty(t, fin.confirmed)
	assert.Empty(t, fin.failed)
}

func TestCheckSettlesMixedBatch(t *testing.T) {
	fin := newRecordFinalizer(
		pendingTx("tx-ok", "0x111", time.Minute),
		pendingTx("tx-revert", "0x222", time.Minute),
		pendingTx("tx-young", "0x333", time.Minute),
		pendingTx("tx-stale", "0x444", time.Hour),
	)
	source := &fakeReceipts{
		receipts: map[string]*chain.Receipt{
			"0x111": {Success: true, GasUsed: 40000},
			"0x222": {Success: false},
		},
	}
	m := newTestMonitor(t, fin, source)

	require.NoError(t, m.Check(context.Background()))

	assert.Equal(t, map[string]uint64{"tx-ok": 40000}, fin.confirmed)
	assert.Contains(t, fin.failed, "tx-revert")
	assert.Contains(t, fin.failed, "tx-stale")
	assert.NotContains(t, fin.failed, "tx-young")
}

func TestCheckCustomTimeout(t *testing.T) {
	fin := newRecordFinalizer(pendingTx("tx-1", "0xfff", 10*time.Minute))
	m := New(fin, &fakeReceipts{}, zaptest.NewLogger(t), 5*time.Minute)
	t.Cleanup(m.Stop)

	require.NoError(t, m.Check(context.Background()))
	assert.Contains(t, fin.failed, "tx-1")
}
