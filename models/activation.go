package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RadiusActivation is an audit record of a subscription state change. The
// previous_* fields snapshot the subscriber before the change and the
// current/next fields the state after it, which makes the change exactly
// reversible while the new period has not started being consumed.
type RadiusActivation struct {
	ID                       int64            `db:"id"`
	SubscriberID             int64            `db:"subscriber_id"`
	ActivationType           ActivationType   `db:"activation_type"`
	Status                   ActivationStatus `db:"status"`
	PaymentMethod            PaymentMethod    `db:"payment_method"`
	TransactionID            *int64           `db:"transaction_id"`
	PreviousExpireDate       time.Time        `db:"previous_expire_date"`
	PreviousProfileID        int64            `db:"previous_profile_id"`
	PreviousBillingProfileID int64            `db:"previous_billing_profile_id"`
	PreviousBalance          decimal.Decimal  `db:"previous_balance"`
	NextExpireDate           time.Time        `db:"next_expire_date"`
	CurrentProfileID         int64            `db:"current_profile_id"`
	CurrentBillingProfileID  int64            `db:"current_billing_profile_id"`
	Amount                   decimal.Decimal  `db:"amount"`
	DurationDays             int              `db:"duration_days"`
	Description              string           `db:"description"`
	IsDeleted                bool             `db:"is_deleted"`
	DeletedAt                *time.Time       `db:"deleted_at"`
	DeletedBy                *string          `db:"deleted_by"`
	CreatedAt                time.Time        `db:"created_at"`
	CreatedBy                string           `db:"created_by"`
	UpdatedAt                time.Time        `db:"updated_at"`
	UpdatedBy                string           `db:"updated_by"`
}

// PeriodStarted reports whether the activation's new period has already begun
// being consumed. Once it has, rollback and restore are disallowed.
func (a *RadiusActivation) PeriodStarted(now time.Time) bool {
	return a.NextExpireDate.Before(now)
}

// WalletFunded reports whether the activation was paid from a wallet.
func (a *RadiusActivation) WalletFunded() bool {
	return a.PaymentMethod == PaymentMethodWallet && a.TransactionID != nil
}
