package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a balance-holding account. A user wallet is bound 1:1 to a
// subscriber; a custom wallet is a shared named pool. A user wallet may link
// to a custom wallet, in which case the negative-balance policy falls back to
// the linked wallet's flag.
type Wallet struct {
	ID                   int64            `db:"id"`
	WalletType           WalletType       `db:"wallet_type"`
	UserID               *int64           `db:"user_id"`
	Name                 string           `db:"name"`
	LinkedWalletID       *int64           `db:"linked_wallet_id"`
	CurrentBalance       decimal.Decimal  `db:"current_balance"`
	MaxFillLimit         *decimal.Decimal `db:"max_fill_limit"`
	DailySpendingLimit   *decimal.Decimal `db:"daily_spending_limit"`
	Status               WalletStatus     `db:"status"`
	AllowNegativeBalance *bool            `db:"allow_negative_balance"`
	Version              int64            `db:"version"`
	IsDeleted            bool             `db:"is_deleted"`
	DeletedAt            *time.Time       `db:"deleted_at"`
	DeletedBy            *string          `db:"deleted_by"`
	CreatedAt            time.Time        `db:"created_at"`
	CreatedBy            string           `db:"created_by"`
	UpdatedAt            time.Time        `db:"updated_at"`
	UpdatedBy            string           `db:"updated_by"`
}

// ResolveAllowNegative resolves the effective negative-balance policy: the
// wallet's own flag wins, else the linked custom wallet's flag, else false.
// linked may be nil when the wallet has no linked custom wallet.
func (w *Wallet) ResolveAllowNegative(linked *Wallet) bool {
	if w.AllowNegativeBalance != nil {
		return *w.AllowNegativeBalance
	}
	if linked != nil && linked.AllowNegativeBalance != nil {
		return *linked.AllowNegativeBalance
	}
	return false
}

// CanDebit reports whether the wallet status permits debits.
func (w *Wallet) CanDebit() bool {
	return w.Status.IsActive() && !w.IsDeleted
}
