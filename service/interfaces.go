package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ispwallet/events"
	"ispwallet/models"
)

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// GetByID retrieves a wallet by id, including soft-deleted rows
	GetByID(ctx context.Context, id int64) (*models.Wallet, error)

	// GetActiveByUserID retrieves a user's non-deleted wallet, nil when absent
	GetActiveByUserID(ctx context.Context, userID int64) (*models.Wallet, error)

	// Create inserts a wallet and fills its id and timestamps
	Create(ctx context.Context, wallet *models.Wallet) error

	// UpdateBalance writes a new balance guarded by the optimistic version;
	// returns models.ErrVersionConflict when the version no longer matches
	UpdateBalance(ctx context.Context, walletID int64, newBalance decimal.Decimal, expectedVersion int64, actor string) error

	// SetDeleted flips the soft-delete markers
	SetDeleted(ctx context.Context, walletID int64, deleted bool, actor string) error
}

// TransactionRepository defines the interface for ledger entry access
type TransactionRepository interface {
	// Create appends a ledger entry and fills its id
	Create(ctx context.Context, tx *models.Transaction) error

	// GetByID retrieves a ledger entry
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// GetByReference returns the non-deleted entry carrying the external
	// correlation id, nil when absent
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)

	// GetByWallet returns recent entries for a wallet
	GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.Transaction, error)

	// UpdateCashbackStatus transitions the cashback lifecycle of one entry.
	// The only mutation allowed on ledger rows besides soft deletion.
	UpdateCashbackStatus(ctx context.Context, id int64, status models.CashbackStatus) error

	// SetDeleted flips the soft-delete markers, used to void erroneous rows
	// without breaking the append-only audit trail
	SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error
}

// WalletHistoryRepository defines the interface for the reporting mirror
type WalletHistoryRepository interface {
	// Record appends a history row
	Record(ctx context.Context, history *models.WalletHistory) error

	// GetByWallet returns history rows for a wallet
	GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.WalletHistory, error)

	// GetByDateRange returns history rows within a date range
	GetByDateRange(ctx context.Context, walletID int64, from, to time.Time) ([]*models.WalletHistory, error)
}

// SubscriberRepository defines the interface for subscriber data access
type SubscriberRepository interface {
	// GetByID retrieves a subscriber, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Subscriber, error)

	// Create inserts a subscriber and fills its id
	Create(ctx context.Context, sub *models.Subscriber) error

	// UpdateServiceState writes the live profile/billing-profile/expiry fields
	UpdateServiceState(ctx context.Context, id int64, profileID, billingProfileID int64, expireDate time.Time) error
}

// BillingProfileRepository defines the interface for plan lookups
type BillingProfileRepository interface {
	// GetByID retrieves a billing profile, nil when absent
	GetByID(ctx context.Context, id int64) (*models.BillingProfile, error)

	// Create inserts a billing profile and fills its id
	Create(ctx context.Context, profile *models.BillingProfile) error
}

// UserCashbackRepository defines the interface for per-user overrides
type UserCashbackRepository interface {
	// GetActive returns the non-deleted override for (user, profile), nil when absent
	GetActive(ctx context.Context, userID, billingProfileID int64) (*models.UserCashback, error)

	// GetActiveByUser returns all non-deleted overrides for a user
	GetActiveByUser(ctx context.Context, userID int64) ([]*models.UserCashback, error)

	// Create inserts an override
	Create(ctx context.Context, cashback *models.UserCashback) error

	// UpdateAmount updates an active override's amount in place
	UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal, actor string) error

	// SetDeleted flips the soft-delete markers
	SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error
}

// CashbackGroupRepository defines the interface for group and membership access
type CashbackGroupRepository interface {
	// GetByID retrieves a group, nil when absent
	GetByID(ctx context.Context, id int64) (*models.CashbackGroup, error)

	// Create inserts a group
	Create(ctx context.Context, group *models.CashbackGroup) error

	// SetDisabled flips the resolution-suppression flag
	SetDisabled(ctx context.Context, id int64, disabled bool, actor string) error

	// GetEnabledGroupsByUser returns the enabled, non-deleted groups a user
	// belongs to, ordered by group id ascending
	GetEnabledGroupsByUser(ctx context.Context, userID int64) ([]*models.CashbackGroup, error)

	// AddUser creates a membership row
	AddUser(ctx context.Context, groupID, userID int64, actor string) error

	// RemoveUser soft-deletes a membership row
	RemoveUser(ctx context.Context, groupID, userID int64, actor string) error
}

// CashbackProfileAmountRepository defines the interface for group-level amounts
type CashbackProfileAmountRepository interface {
	// GetActive returns the non-deleted amount for (group, profile), nil when absent
	GetActive(ctx context.Context, groupID, billingProfileID int64) (*models.CashbackProfileAmount, error)

	// GetActiveByGroup returns all non-deleted amounts for a group
	GetActiveByGroup(ctx context.Context, groupID int64) ([]*models.CashbackProfileAmount, error)

	// Create inserts an amount row
	Create(ctx context.Context, amount *models.CashbackProfileAmount) error

	// UpdateAmount updates an active row's amount in place
	UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal, actor string) error

	// SetDeleted flips the soft-delete markers
	SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error
}

// ActivationRepository defines the interface for activation audit records
type ActivationRepository interface {
	// Create inserts an activation record and fills its id
	Create(ctx context.Context, activation *models.RadiusActivation) error

	// GetByID retrieves an activation, nil when absent
	GetByID(ctx context.Context, id int64) (*models.RadiusActivation, error)

	// GetBySubscriber returns recent activations for a subscriber
	GetBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*models.RadiusActivation, error)

	// UpdateStatus writes the status and soft-delete markers together
	// (rolled_back activations are soft-deleted, restore clears both)
	UpdateStatus(ctx context.Context, id int64, status models.ActivationStatus, deleted bool, actor string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish publishes an event
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a database transaction
// and releases them only when the transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events after a successful commit
	Flush(ctx context.Context) error

	// Discard drops all pending events on rollback
	Discard()
}

// UnitOfWork defines the interface for transactional repository operations.
// All writes of one ledger operation go through a single UnitOfWork so the
// wallet update, the transaction row and the history row commit atomically.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	WalletRepository() WalletRepository
	TransactionRepository() TransactionRepository
	WalletHistoryRepository() WalletHistoryRepository
	SubscriberRepository() SubscriberRepository
	BillingProfileRepository() BillingProfileRepository
	UserCashbackRepository() UserCashbackRepository
	CashbackGroupRepository() CashbackGroupRepository
	CashbackProfileAmountRepository() CashbackProfileAmountRepository
	ActivationRepository() ActivationRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork
	Create() UnitOfWork
}
