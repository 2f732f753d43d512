package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserCashback is an explicit per-user cashback override for one billing
// profile. At most one non-deleted row exists per (user, billing profile)
// pair; an amount of zero is expressed by soft-deleting the row.
type UserCashback struct {
	ID               int64           `db:"id"`
	UserID           int64           `db:"user_id"`
	BillingProfileID int64           `db:"billing_profile_id"`
	Amount           decimal.Decimal `db:"amount"`
	IsDeleted        bool            `db:"is_deleted"`
	DeletedAt        *time.Time      `db:"deleted_at"`
	DeletedBy        *string         `db:"deleted_by"`
	CreatedAt        time.Time       `db:"created_at"`
	CreatedBy        string          `db:"created_by"`
	UpdatedAt        time.Time       `db:"updated_at"`
	UpdatedBy        string          `db:"updated_by"`
}

// CashbackGroup is a named bucket of users sharing cashback treatment.
// Disabled groups suppress resolution without losing membership.
type CashbackGroup struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Disabled  bool       `db:"disabled"`
	IsDeleted bool       `db:"is_deleted"`
	DeletedAt *time.Time `db:"deleted_at"`
	DeletedBy *string    `db:"deleted_by"`
	CreatedAt time.Time  `db:"created_at"`
	CreatedBy string     `db:"created_by"`
	UpdatedAt time.Time  `db:"updated_at"`
	UpdatedBy string     `db:"updated_by"`
}

// CashbackGroupUser is a membership join row.
type CashbackGroupUser struct {
	ID              int64      `db:"id"`
	CashbackGroupID int64      `db:"cashback_group_id"`
	UserID          int64      `db:"user_id"`
	IsDeleted       bool       `db:"is_deleted"`
	DeletedAt       *time.Time `db:"deleted_at"`
	DeletedBy       *string    `db:"deleted_by"`
	CreatedAt       time.Time  `db:"created_at"`
	CreatedBy       string     `db:"created_by"`
}

// CashbackProfileAmount is the group-level counterpart to UserCashback:
// the cashback amount members of a group earn on one billing profile.
type CashbackProfileAmount struct {
	ID               int64           `db:"id"`
	CashbackGroupID  int64           `db:"cashback_group_id"`
	BillingProfileID int64           `db:"billing_profile_id"`
	Amount           decimal.Decimal `db:"amount"`
	IsDeleted        bool            `db:"is_deleted"`
	DeletedAt        *time.Time      `db:"deleted_at"`
	DeletedBy        *string         `db:"deleted_by"`
	CreatedAt        time.Time       `db:"created_at"`
	CreatedBy        string          `db:"created_by"`
	UpdatedAt        time.Time       `db:"updated_at"`
	UpdatedBy        string          `db:"updated_by"`
}

// ResolvedCashback is the outcome of a cashback resolution: the effective
// amount and which rule produced it.
type ResolvedCashback struct {
	Amount decimal.Decimal
	Source CashbackSource
}

// NoCashback is the zero resolution.
func NoCashback() ResolvedCashback {
	return ResolvedCashback{Amount: decimal.Zero, Source: CashbackSourceNone}
}
