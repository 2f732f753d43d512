package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ispwallet/database"
	"ispwallet/service"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher service.TransactionalEventPublisher
	walletRepo             service.WalletRepository
	transactionRepo        service.TransactionRepository
	historyRepo            service.WalletHistoryRepository
	subscriberRepo         service.SubscriberRepository
	billingProfileRepo     service.BillingProfileRepository
	userCashbackRepo       service.UserCashbackRepository
	cashbackGroupRepo      service.CashbackGroupRepository
	profileAmountRepo      service.CashbackProfileAmountRepository
	activationRepo         service.ActivationRepository
}

type unitOfWorkFactory struct {
	db               *database.DB
	publisherFactory func() service.TransactionalEventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. publisherFactory is
// invoked once per unit of work so each transaction buffers its own events.
func NewUnitOfWorkFactory(db *database.DB, publisherFactory func() service.TransactionalEventPublisher) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db:               db,
		publisherFactory: publisherFactory,
	}
}

// Create creates a new UnitOfWork
func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: f.publisherFactory(),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.walletRepo = newWalletRepository(tx)
	u.transactionRepo = newTransactionRepository(tx)
	u.historyRepo = newWalletHistoryRepository(tx)
	u.subscriberRepo = newSubscriberRepository(tx)
	u.billingProfileRepo = newBillingProfileRepository(tx)
	u.userCashbackRepo = newUserCashbackRepository(tx)
	u.cashbackGroupRepo = newCashbackGroupRepository(tx)
	u.profileAmountRepo = newCashbackProfileAmountRepository(tx)
	u.activationRepo = newActivationRepository(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() service.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// TransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// WalletHistoryRepository returns the history repository for this unit of work
func (u *unitOfWork) WalletHistoryRepository() service.WalletHistoryRepository {
	if u.historyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.historyRepo
}

// SubscriberRepository returns the subscriber repository for this unit of work
func (u *unitOfWork) SubscriberRepository() service.SubscriberRepository {
	if u.subscriberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.subscriberRepo
}

// BillingProfileRepository returns the billing profile repository for this unit of work
func (u *unitOfWork) BillingProfileRepository() service.BillingProfileRepository {
	if u.billingProfileRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.billingProfileRepo
}

// UserCashbackRepository returns the override repository for this unit of work
func (u *unitOfWork) UserCashbackRepository() service.UserCashbackRepository {
	if u.userCashbackRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userCashbackRepo
}

// CashbackGroupRepository returns the group repository for this unit of work
func (u *unitOfWork) CashbackGroupRepository() service.CashbackGroupRepository {
	if u.cashbackGroupRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.cashbackGroupRepo
}

// CashbackProfileAmountRepository returns the group amount repository for this unit of work
func (u *unitOfWork) CashbackProfileAmountRepository() service.CashbackProfileAmountRepository {
	if u.profileAmountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.profileAmountRepo
}

// ActivationRepository returns the activation repository for this unit of work
func (u *unitOfWork) ActivationRepository() service.ActivationRepository {
	if u.activationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.activationRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
