package governance

import (
	"context"

	"go.uber.org/zap"

	"github.com/azura-academy/governance/pkg/db/postgres"
	gov "github.com/azura-academy/governance/pkg/governance"
)

// DB is the PostgreSQL-backed store for the governance state machine. It
// implements gov.Store; every constraint the engine relies on (vote
// uniqueness, weight bounds, allocation coupling, single active multisig
// record) is also enforced at the schema level so no code path can bypass it.
type DB struct {
	postgres.Client
}

var _ gov.Store = (*DB)(nil)

// New connects to PostgreSQL and ensures the governance schema exists.
func New(ctx context.Context, logger *zap.Logger, poolConfig ...*postgres.PoolConfig) (*DB, error) {
	client, err := postgres.New(ctx, logger.With(zap.String("component", "governance_db")), poolConfig...)
	if err != nil {
		return nil, err
	}

	db := &DB{Client: client}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Close terminates the underlying PostgreSQL connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// InitializeDB ensures the required tables exist.
func (db *DB) InitializeDB(ctx context.Context) error {
	db.Logger.Info("Initializing governance database")

	inits := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"proposals", db.initProposals},
		{"proposal_reviews", db.initReviews},
		{"admin_users", db.initAdminUsers},
		{"admin_votes", db.initVotes},
		{"multisig_transactions", db.initMultisigTransactions},
		{"proposal_transactions", db.initProposalTransactions},
	}
	for _, init := range inits {
		db.Logger.Debug("Initialize table", zap.String("table", init.name))
		if err := init.fn(ctx); err != nil {
			return err
		}
	}
	return nil
}
