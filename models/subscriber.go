package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscriber is the RADIUS user whose plan and expiry the activation flow
// mutates. Only the fields the ledger core touches are modeled; the rest of
// subscriber management lives with the back-office collaborators.
type Subscriber struct {
	ID               int64     `db:"id"`
	Username         string    `db:"username"`
	ProfileID        int64     `db:"profile_id"`
	BillingProfileID int64     `db:"billing_profile_id"`
	ExpireDate       time.Time `db:"expire_date"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// BillingProfile is a priced service plan. Used for validation and response
// enrichment only; it carries no ledger invariants.
type BillingProfile struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
}
