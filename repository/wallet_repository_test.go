package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ispwallet/models"
	"ispwallet/repository/testutil"
)

func TestWalletRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWalletRepository(testDB.DB)
	subRepo := NewSubscriberRepository(testDB.DB)
	ctx := context.Background()

	t.Run("wallet not found", func(t *testing.T) {
		wallet, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, wallet)
	})

	t.Run("user wallet round trip", func(t *testing.T) {
		sub := testutil.CreateTestSubscriber("roundtrip_user", 0)
		require.NoError(t, subRepo.Create(ctx, sub))

		original := testutil.CreateTestUserWalletWithBalance(sub.ID, "125.50")
		require.NoError(t, repo.Create(ctx, original))
		assert.NotZero(t, original.ID)
		assert.Equal(t, int64(1), original.Version)
		assert.False(t, original.CreatedAt.IsZero())

		wallet, err := repo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		require.NotNil(t, wallet)
		assert.Equal(t, models.WalletTypeUser, wallet.WalletType)
		require.NotNil(t, wallet.UserID)
		assert.Equal(t, sub.ID, *wallet.UserID)
		assert.True(t, wallet.CurrentBalance.Equal(decimal.RequireFromString("125.50")))
		assert.Nil(t, wallet.AllowNegativeBalance)

		byUser, err := repo.GetActiveByUserID(ctx, sub.ID)
		require.NoError(t, err)
		require.NotNil(t, byUser)
		assert.Equal(t, original.ID, byUser.ID)
	})

	t.Run("custom wallet has no user", func(t *testing.T) {
		original := testutil.CreateTestCustomWallet("marketing pool")
		require.NoError(t, repo.Create(ctx, original))

		wallet, err := repo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		require.NotNil(t, wallet)
		assert.Equal(t, models.WalletTypeCustom, wallet.WalletType)
		assert.Nil(t, wallet.UserID)
		assert.Equal(t, "marketing pool", wallet.Name)
	})

	t.Run("second live wallet per user is rejected", func(t *testing.T) {
		sub := testutil.CreateTestSubscriber("double_wallet_user", 0)
		require.NoError(t, subRepo.Create(ctx, sub))

		first := testutil.CreateTestUserWallet(sub.ID)
		require.NoError(t, repo.Create(ctx, first))

		second := testutil.CreateTestUserWallet(sub.ID)
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idx_wallets_one_active_per_user")
	})

	t.Run("deleted wallet frees the slot for a new one", func(t *testing.T) {
		sub := testutil.CreateTestSubscriber("replaced_wallet_user", 0)
		require.NoError(t, subRepo.Create(ctx, sub))

		first := testutil.CreateTestUserWallet(sub.ID)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.SetDeleted(ctx, first.ID, true, "tester"))

		second := testutil.CreateTestUserWallet(sub.ID)
		require.NoError(t, repo.Create(ctx, second))

		active, err := repo.GetActiveByUserID(ctx, sub.ID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, second.ID, active.ID)
	})
}

func TestWalletRepository_UpdateBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWalletRepository(testDB.DB)
	subRepo := NewSubscriberRepository(testDB.DB)
	ctx := context.Background()

	setup := func(t *testing.T, username, balance string) *models.Wallet {
		sub := testutil.CreateTestSubscriber(username, 0)
		require.NoError(t, subRepo.Create(ctx, sub))
		wallet := testutil.CreateTestUserWalletWithBalance(sub.ID, balance)
		require.NoError(t, repo.Create(ctx, wallet))
		return wallet
	}

	t.Run("matching version writes and bumps the version", func(t *testing.T) {
		wallet := setup(t, "cas_winner", "100.00")

		err := repo.UpdateBalance(ctx, wallet.ID, decimal.RequireFromString("75.00"), wallet.Version, "tester")
		require.NoError(t, err)

		updated, err := repo.GetByID(ctx, wallet.ID)
		require.NoError(t, err)
		assert.True(t, updated.CurrentBalance.Equal(decimal.RequireFromString("75.00")))
		assert.Equal(t, wallet.Version+1, updated.Version)
		assert.Equal(t, "tester", updated.UpdatedBy)
	})

	t.Run("stale version loses the race and leaves the row untouched", func(t *testing.T) {
		wallet := setup(t, "cas_loser", "100.00")

		// Simulate a concurrent writer winning first
		require.NoError(t, repo.UpdateBalance(ctx, wallet.ID, decimal.RequireFromString("90.00"), wallet.Version, "other"))

		err := repo.UpdateBalance(ctx, wallet.ID, decimal.RequireFromString("40.00"), wallet.Version, "tester")
		assert.ErrorIs(t, err, models.ErrVersionConflict)

		current, err := repo.GetByID(ctx, wallet.ID)
		require.NoError(t, err)
		assert.True(t, current.CurrentBalance.Equal(decimal.RequireFromString("90.00")))
		assert.Equal(t, "other", current.UpdatedBy)
	})

	t.Run("missing wallet", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, 999999, decimal.RequireFromString("10.00"), 1, "tester")
		assert.ErrorIs(t, err, models.ErrWalletNotFound)
	})

	t.Run("deleted wallet rejects balance writes", func(t *testing.T) {
		wallet := setup(t, "deleted_cas_user", "100.00")
		require.NoError(t, repo.SetDeleted(ctx, wallet.ID, true, "tester"))

		err := repo.UpdateBalance(ctx, wallet.ID, decimal.RequireFromString("10.00"), wallet.Version, "tester")
		assert.ErrorIs(t, err, models.ErrWalletNotFound)
	})
}

func TestWalletRepository_SetDeleted(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWalletRepository(testDB.DB)
	subRepo := NewSubscriberRepository(testDB.DB)
	ctx := context.Background()

	sub := testutil.CreateTestSubscriber("lifecycle_user", 0)
	require.NoError(t, subRepo.Create(ctx, sub))
	wallet := testutil.CreateTestUserWalletWithBalance(sub.ID, "42.00")
	require.NoError(t, repo.Create(ctx, wallet))

	t.Run("delete keeps the row but hides it from active lookups", func(t *testing.T) {
		require.NoError(t, repo.SetDeleted(ctx, wallet.ID, true, "tester"))

		active, err := repo.GetActiveByUserID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Nil(t, active)

		deleted, err := repo.GetByID(ctx, wallet.ID)
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.True(t, deleted.IsDeleted)
		assert.NotNil(t, deleted.DeletedAt)
		// Deletion never zeroes the balance
		assert.True(t, deleted.CurrentBalance.Equal(decimal.RequireFromString("42.00")))
	})

	t.Run("double delete", func(t *testing.T) {
		err := repo.SetDeleted(ctx, wallet.ID, true, "tester")
		assert.ErrorIs(t, err, models.ErrWalletNotFound)
	})

	t.Run("restore clears the markers", func(t *testing.T) {
		require.NoError(t, repo.SetDeleted(ctx, wallet.ID, false, "tester"))

		restored, err := repo.GetActiveByUserID(ctx, sub.ID)
		require.NoError(t, err)
		require.NotNil(t, restored)
		assert.False(t, restored.IsDeleted)
		assert.Nil(t, restored.DeletedAt)
	})
}
