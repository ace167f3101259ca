package governance

import (
	"time"
)

const AdminUsersTableName = "admin_users"

// AdminUser is a registered human voter. IsActive gates vote eligibility.
type AdminUser struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
