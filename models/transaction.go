package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry produced by every balance-affecting
// operation. Amount is always a positive magnitude; AmountType carries the
// sign. Rows are never updated after creation except for soft deletion and
// cashback status transitions.
type Transaction struct {
	ID              int64           `db:"id"`
	WalletID        int64           `db:"wallet_id"`
	WalletType      WalletType      `db:"wallet_type"`
	UserID          *int64          `db:"user_id"`
	TransactionType TransactionType `db:"transaction_type"`
	AmountType      AmountType      `db:"amount_type"`
	Amount          decimal.Decimal `db:"amount"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	Status          string          `db:"status"`
	CashbackStatus  *CashbackStatus `db:"cashback_status"`
	Description     string          `db:"description"`
	Reference       string          `db:"reference"`
	IsDeleted       bool            `db:"is_deleted"`
	DeletedAt       *time.Time      `db:"deleted_at"`
	DeletedBy       *string         `db:"deleted_by"`
	CreatedAt       time.Time       `db:"created_at"`
	CreatedBy       string          `db:"created_by"`
}

// SignedAmount returns the amount with the sign implied by the amount type.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.AmountType == AmountTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks the ledger-entry invariants: positive magnitude, closed
// enum values, and balance_after == balance_before ± amount.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return errors.New("transaction amount must be positive")
	}
	if !t.AmountType.Valid() {
		return errors.New("unrecognized amount type")
	}
	if !t.TransactionType.Valid() {
		return errors.New("unrecognized transaction type")
	}
	if !t.WalletType.Valid() {
		return errors.New("unrecognized wallet type")
	}
	if !t.BalanceAfter.Equal(t.BalanceBefore.Add(t.SignedAmount())) {
		return errors.New("balance calculation is inconsistent")
	}
	return nil
}
