package events

import (
	"time"

	"github.com/shopspring/decimal"

	"ispwallet/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWalletCreated         EventType = "wallet_created"
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypeActivationSettled     EventType = "activation_settled"
	EventTypeActivationRolledBack  EventType = "activation_rolled_back"
	EventTypeCashbackAwarded       EventType = "cashback_awarded"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WalletCreatedEvent represents a new wallet creation
type WalletCreatedEvent struct {
	WalletID       int64
	WalletType     models.WalletType
	UserID         *int64
	InitialBalance decimal.Decimal
	Actor          string
}

func (e WalletCreatedEvent) Type() EventType {
	return EventTypeWalletCreated
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	WalletID        int64
	WalletType      models.WalletType
	UserID          *int64
	TransactionID   int64
	TransactionType models.TransactionType
	AmountType      models.AmountType
	Amount          decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	Reference       string
	Actor           string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// ActivationSettledEvent represents a completed subscription state change
type ActivationSettledEvent struct {
	ActivationID   int64
	SubscriberID   int64
	PaymentMethod  models.PaymentMethod
	TransactionID  *int64
	NextExpireDate time.Time
	Actor          string
}

func (e ActivationSettledEvent) Type() EventType {
	return EventTypeActivationSettled
}

// ActivationRolledBackEvent represents an activation reversal. The wallet
// debit, when present, is NOT reversed automatically; subscribers carry the
// transaction id so downstream reconciliation can pick it up.
type ActivationRolledBackEvent struct {
	ActivationID          int64
	SubscriberID          int64
	WalletDebitUnreversed bool
	TransactionID         *int64
	Actor                 string
}

func (e ActivationRolledBackEvent) Type() EventType {
	return EventTypeActivationRolledBack
}

// CashbackAwardedEvent represents a cashback credit entering pending state
type CashbackAwardedEvent struct {
	UserID           int64
	BillingProfileID int64
	TransactionID    int64
	Amount           decimal.Decimal
	Source           models.CashbackSource
}

func (e CashbackAwardedEvent) Type() EventType {
	return EventTypeCashbackAwarded
}
