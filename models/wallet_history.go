package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletHistory is an append-only mirror of a transaction's before/after
// balance snapshot, kept separately for reporting. It is written in the same
// unit of work as its transaction; the two rows are siblings, not
// parent/child.
type WalletHistory struct {
	ID            int64           `db:"id"`
	WalletID      int64           `db:"wallet_id"`
	WalletType    WalletType      `db:"wallet_type"`
	UserID        *int64          `db:"user_id"`
	AmountType    AmountType      `db:"amount_type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
	CreatedBy     string          `db:"created_by"`
}

// HistoryFromTransaction builds the mirror row for a ledger entry.
func HistoryFromTransaction(t *Transaction) *WalletHistory {
	return &WalletHistory{
		WalletID:      t.WalletID,
		WalletType:    t.WalletType,
		UserID:        t.UserID,
		AmountType:    t.AmountType,
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Description:   t.Description,
		CreatedBy:     t.CreatedBy,
	}
}
