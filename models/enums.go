package models

import "strings"

// WalletType distinguishes subscriber-bound wallets from shared pools.
type WalletType string

const (
	WalletTypeUser   WalletType = "user"
	WalletTypeCustom WalletType = "custom"
)

// Valid reports whether the wallet type is one of the closed set.
func (wt WalletType) Valid() bool {
	return wt == WalletTypeUser || wt == WalletTypeCustom
}

func (wt WalletType) String() string {
	return string(wt)
}

// WalletStatus represents the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusClosed    WalletStatus = "closed"
)

// Valid reports whether the status is one of the closed set.
func (ws WalletStatus) Valid() bool {
	return ws == WalletStatusActive || ws == WalletStatusSuspended || ws == WalletStatusClosed
}

// IsActive reports whether the wallet may be debited. Legacy rows carry
// mixed-case statuses, so the comparison is case-insensitive.
func (ws WalletStatus) IsActive() bool {
	return strings.EqualFold(string(ws), string(WalletStatusActive))
}

func (ws WalletStatus) String() string {
	return string(ws)
}

// TransactionType represents the business reason for a balance change.
type TransactionType string

const (
	TransactionTypeTopUp      TransactionType = "top_up"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeCashback   TransactionType = "cashback"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeInitial    TransactionType = "initial"
)

// Valid reports whether the transaction type is one of the closed set.
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeTopUp, TransactionTypePayment, TransactionTypeCashback,
		TransactionTypeRefund, TransactionTypeAdjustment, TransactionTypeInitial:
		return true
	}
	return false
}

// IsCashback reports whether this transaction carries a cashback lifecycle.
func (tt TransactionType) IsCashback() bool {
	return tt == TransactionTypeCashback
}

// IsSystemGenerated returns true for transactions not initiated by a subscriber action.
func (tt TransactionType) IsSystemGenerated() bool {
	return tt == TransactionTypeInitial || tt == TransactionTypeAdjustment
}

func (tt TransactionType) String() string {
	return string(tt)
}

// AmountType conveys the sign of a ledger entry; Amount itself is always a
// positive magnitude.
type AmountType string

const (
	AmountTypeDebit  AmountType = "debit"
	AmountTypeCredit AmountType = "credit"
)

// Valid reports whether the amount type is one of the closed set.
func (at AmountType) Valid() bool {
	return at == AmountTypeDebit || at == AmountTypeCredit
}

func (at AmountType) String() string {
	return string(at)
}

// CashbackStatus tracks the lifecycle of cashback-type ledger entries.
type CashbackStatus string

const (
	CashbackStatusPending            CashbackStatus = "pending"
	CashbackStatusWaitingForApproval CashbackStatus = "waiting_for_approval"
	CashbackStatusCollected          CashbackStatus = "collected"
	CashbackStatusRejected           CashbackStatus = "rejected"
)

// Valid reports whether the cashback status is one of the closed set.
func (cs CashbackStatus) Valid() bool {
	switch cs {
	case CashbackStatusPending, CashbackStatusWaitingForApproval,
		CashbackStatusCollected, CashbackStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (cs CashbackStatus) IsTerminal() bool {
	return cs == CashbackStatusCollected || cs == CashbackStatusRejected
}

func (cs CashbackStatus) String() string {
	return string(cs)
}

// CashbackSource identifies which rule produced a resolved cashback amount.
type CashbackSource string

const (
	CashbackSourceIndividual CashbackSource = "individual"
	CashbackSourceGroup      CashbackSource = "group"
	CashbackSourceNone       CashbackSource = "none"
)

func (s CashbackSource) String() string {
	return string(s)
}

// ActivationType represents the kind of subscription state change recorded.
type ActivationType string

const (
	ActivationTypeRenewal       ActivationType = "renewal"
	ActivationTypeProfileChange ActivationType = "profile_change"
)

// Valid reports whether the activation type is one of the closed set.
func (at ActivationType) Valid() bool {
	return at == ActivationTypeRenewal || at == ActivationTypeProfileChange
}

// ActivationStatus represents the lifecycle state of an activation record.
type ActivationStatus string

const (
	ActivationStatusCompleted  ActivationStatus = "completed"
	ActivationStatusRolledBack ActivationStatus = "rolled_back"
)

// PaymentMethod identifies how an activation was funded.
type PaymentMethod string

const (
	PaymentMethodWallet   PaymentMethod = "wallet"
	PaymentMethodExternal PaymentMethod = "external"
	PaymentMethodNone     PaymentMethod = "none"
)

// Valid reports whether the payment method is one of the closed set.
func (pm PaymentMethod) Valid() bool {
	return pm == PaymentMethodWallet || pm == PaymentMethodExternal || pm == PaymentMethodNone
}
