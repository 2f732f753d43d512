package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ispwallet/events"
	"ispwallet/models"
	"ispwallet/repository/testutil"
	"ispwallet/service"
)

// capturingPublisher buffers events the way the NATS transactional publisher
// does, so tests can observe flush vs discard.
type capturingPublisher struct {
	pending   []events.Event
	flushed   []events.Event
	discarded int
}

func (p *capturingPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

func (p *capturingPublisher) Flush(ctx context.Context) error {
	p.flushed = append(p.flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *capturingPublisher) Discard() {
	p.pending = nil
	p.discarded++
}

func TestUnitOfWork_CommitPersistsAllWrites(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := &capturingPublisher{}
	factory := NewUnitOfWorkFactory(testDB.DB, func() service.TransactionalEventPublisher {
		return publisher
	})

	sub := testutil.CreateTestSubscriber("uow_commit_user", 0)
	require.NoError(t, NewSubscriberRepository(testDB.DB).Create(ctx, sub))

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	wallet := testutil.CreateTestUserWalletWithBalance(sub.ID, "10.00")
	require.NoError(t, uow.WalletRepository().Create(ctx, wallet))

	tx := testutil.CreateTestTransaction(wallet, "25.00")
	require.NoError(t, uow.TransactionRepository().Create(ctx, tx))
	require.NoError(t, uow.WalletHistoryRepository().Record(ctx, models.HistoryFromTransaction(tx)))
	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{
		WalletID:      wallet.ID,
		TransactionID: tx.ID,
	}))

	require.NoError(t, uow.Commit())

	// Everything written in the transaction is visible afterwards
	saved, err := NewWalletRepository(testDB.DB).GetByID(ctx, wallet.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)

	savedTx, err := NewTransactionRepository(testDB.DB).GetByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, savedTx)
	assert.True(t, savedTx.Amount.Equal(decimal.RequireFromString("25.00")))

	history, err := NewWalletHistoryRepository(testDB.DB).GetByWallet(ctx, wallet.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// Events flush only after the commit succeeded
	require.Len(t, publisher.flushed, 1)
	assert.Zero(t, publisher.discarded)
}

func TestUnitOfWork_RollbackLeavesNoTrace(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := &capturingPublisher{}
	factory := NewUnitOfWorkFactory(testDB.DB, func() service.TransactionalEventPublisher {
		return publisher
	})

	sub := testutil.CreateTestSubscriber("uow_rollback_user", 0)
	require.NoError(t, NewSubscriberRepository(testDB.DB).Create(ctx, sub))

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	wallet := testutil.CreateTestUserWalletWithBalance(sub.ID, "10.00")
	require.NoError(t, uow.WalletRepository().Create(ctx, wallet))

	tx := testutil.CreateTestTransaction(wallet, "25.00")
	require.NoError(t, uow.TransactionRepository().Create(ctx, tx))
	require.NoError(t, uow.WalletHistoryRepository().Record(ctx, models.HistoryFromTransaction(tx)))
	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{
		WalletID:      wallet.ID,
		TransactionID: tx.ID,
	}))

	require.NoError(t, uow.Rollback())

	gone, err := NewWalletRepository(testDB.DB).GetByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	goneTx, err := NewTransactionRepository(testDB.DB).GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, goneTx)

	history, err := NewWalletHistoryRepository(testDB.DB).GetByWallet(ctx, wallet.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.Empty(t, publisher.flushed)
	assert.Equal(t, 1, publisher.discarded)
}

func TestUnitOfWork_Lifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	factory := NewUnitOfWorkFactory(testDB.DB, func() service.TransactionalEventPublisher {
		return &capturingPublisher{}
	})

	t.Run("double begin", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		err := uow.Begin(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already started")
	})

	t.Run("commit without begin", func(t *testing.T) {
		uow := factory.Create()
		err := uow.Commit()
		require.Error(t, err)
	})

	t.Run("rollback without begin is a no-op", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Rollback())
	})

	t.Run("repository access before begin panics", func(t *testing.T) {
		uow := factory.Create()
		assert.Panics(t, func() { uow.WalletRepository() })
	})
}
