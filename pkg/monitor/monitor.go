package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/azura-academy/governance/pkg/chain"
	"github.com/azura-academy/governance/pkg/governance"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// ReceiptSource fetches EVM receipts. chain.Client satisfies it; tests
// supply fakes.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash string) (*chain.Receipt, error)
}

// Finalizer is the slice of the governance engine the monitor drives.
type Finalizer interface {
	ListPendingSubmissions(ctx context.Context) ([]models.ProposalTransaction, error)
	ConfirmSubmissionTx(ctx context.Context, txID string, gasUsed uint64) error
	FailSubmissionTx(ctx context.Context, txID, reason string) error
}

// Monitor settles pending on-chain proposal submissions. Each tick it lists
// pending transactions and checks their receipts on a bounded worker group:
// a success receipt confirms and activates, a revert receipt fails and rolls
// back, and silence past the timeout converts into an explicit failure.
// Transient RPC errors mutate nothing.
type Monitor struct {
	engine  Finalizer
	chain   ReceiptSource
	logger  *zap.Logger
	pool    pond.Pool
	timeout time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// New builds a monitor with the given receipt source. A timeout of zero
// falls back to the 30-minute default.
func New(engine Finalizer, source ReceiptSource, logger *zap.Logger, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = governance.SubmissionTimeout
	}
	return &Monitor{
		engine:  engine,
		chain:   source,
		logger:  logger,
		pool:    pond.NewPool(4),
		timeout: timeout,
		now:     time.Now,
	}
}

// Check runs one monitoring pass. Errors settling individual transactions
// are logged and do not abort the pass.
func (m *Monitor) Check(ctx context.Context) error {
	pending, err := m.engine.ListPendingSubmissions(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	group := m.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i := range pending {
		tx := pending[i]
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			m.checkOne(groupCtx, tx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		m.logger.Warn("monitor pass encountered error", zap.Error(err))
	}
	return nil
}

func (m *Monitor) checkOne(ctx context.Context, tx models.ProposalTransaction) {
	receipt, err := m.chain.TransactionReceipt(ctx, tx.TransactionHash)
	switch {
	case errors.Is(err, chain.ErrNotMined):
		age := m.now().Sub(tx.CreatedAt)
		if age < m.timeout {
			return // keep polling
		}
		m.logger.Warn("submission timed out without receipt",
			zap.String("tx_id", tx.ID),
			zap.String("tx_hash", tx.TransactionHash),
			zap.Duration("age", age))
		if err := m.engine.FailSubmissionTx(ctx, tx.ID, "timeout: no receipt after "+m.timeout.String()); err != nil {
			m.logger.Error("failed to time out submission", zap.String("tx_id", tx.ID), zap.Error(err))
		}

	case err != nil:
		// Transient RPC failure: log only, state untouched, retried next tick.
		m.logger.Warn("receipt check failed",
			zap.String("tx_id", tx.ID),
			zap.String("tx_hash", tx.TransactionHash),
			zap.Error(err))

	case receipt.Success:
		m.logger.Info("submission confirmed",
			zap.String("tx_id", tx.ID),
			zap.String("tx_hash", tx.TransactionHash),
			zap.Uint64("gas_used", receipt.GasUsed),
			zap.Uint64("block", receipt.BlockNumber))
		if err := m.engine.ConfirmSubmissionTx(ctx, tx.ID, receipt.GasUsed); err != nil {
			m.logger.Error("failed to confirm submission", zap.String("tx_id", tx.ID), zap.Error(err))
		}

	default:
		m.logger.Warn("submission reverted on-chain",
			zap.String("tx_id", tx.ID),
			zap.String("tx_hash", tx.TransactionHash))
		if err := m.engine.FailSubmissionTx(ctx, tx.ID, "transaction reverted"); err != nil {
			m.logger.Error("failed to mark submission reverted", zap.String("tx_id", tx.ID), zap.Error(err))
		}
	}
}

// Stop releases the worker pool.
func (m *Monitor) Stop() {
	m.pool.StopAndWait()
}
