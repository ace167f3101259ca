package governance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// RegisterAdmin adds a human voter. Wallet addresses are unique across the
// registry.
func (e *Engine) RegisterAdmin(ctx context.Context, userID, walletAddress string) (*models.AdminUser, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "required"}
	}
	if strings.TrimSpace(walletAddress) == "" {
		return nil, &ValidationError{Field: "wallet_address", Reason: "required"}
	}

	admin := &models.AdminUser{
		ID:            uuid.NewString(),
		UserID:        userID,
		WalletAddress: walletAddress,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.store.InsertAdminUser(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// ListAdmins returns the voter registry.
func (e *Engine) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	return e.store.ListAdminUsers(ctx)
}

// SetAdminActive flips a voter's eligibility. Inactive admins cannot cast
// ballots; their already-cast ballots keep counting.
func (e *Engine) SetAdminActive(ctx context.Context, id string, active bool) error {
	ok, err := e.store.SetAdminActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "admin_user", ID: id}
	}
	return nil
}
