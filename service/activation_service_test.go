package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ispwallet/events"
	"ispwallet/models"
)

func newActivationService(mocks *TestMocks) *ActivationService {
	factory := newMockUowFactory(mocks)
	return NewActivationService(factory, NewLedgerService(factory, 3))
}

func testSubscriber(expireDate time.Time) *models.Subscriber {
	return &models.Subscriber{
		ID:               TestSubscriberID,
		Username:         "alice",
		ProfileID:        1,
		BillingProfileID: TestBillingProfileID,
		ExpireDate:       expireDate,
		Status:           "active",
	}
}

func renewalRequest() SettleRequest {
	return SettleRequest{
		SubscriberID:     TestSubscriberID,
		ActivationType:   models.ActivationTypeRenewal,
		PaymentMethod:    models.PaymentMethodWallet,
		ProfileID:        1,
		BillingProfileID: TestBillingProfileID,
		DurationDays:     30,
		Reference:        "renewal-1",
		Description:      "monthly renewal",
	}
}

func TestActivationService_Settle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	price := dec("50.00")
	profile := &models.BillingProfile{ID: TestBillingProfileID, Name: "100M", Price: price}

	t.Run("wallet-funded renewal extends from current expiry when not lapsed", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		currentExpiry := now.AddDate(0, 0, 5)
		sub := testSubscriber(currentExpiry)
		wantExpiry := currentExpiry.AddDate(0, 0, 30)

		mocks.SubscriberRepo.On("GetByID", ctx, int64(TestSubscriberID)).Return(sub, nil)
		mocks.BillingProfileRepo.On("GetByID", ctx, int64(TestBillingProfileID)).Return(profile, nil)
		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(testUserWallet("100.00"), nil)
		mocks.WalletRepo.On("UpdateBalance", ctx, int64(TestWalletID), dec("50.00"), int64(1), TestActor).Return(nil)
		mocks.TransactionRepo.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			tx.ID = TestTransactionID
			return tx.TransactionType == models.TransactionTypePayment && tx.Amount.Equal(price)
		})).Return(nil)
		mocks.HistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.ActivationRepo.On("Create", ctx, mock.MatchedBy(func(a *models.RadiusActivation) bool {
			return a.NextExpireDate.Equal(wantExpiry) &&
				a.PreviousExpireDate.Equal(currentExpiry) &&
				a.PreviousBalance.Equal(dec("100.00")) &&
				a.TransactionID != nil
		})).Return(nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, int64(TestSubscriberID), int64(1), int64(TestBillingProfileID), wantExpiry).Return(nil)

		activation, err := svc.Settle(ctx, renewalRequest(), TestActor)
		require.NoError(t, err)
		assert.Equal(t, models.ActivationStatusCompleted, activation.Status)
		assert.Equal(t, wantExpiry, activation.NextExpireDate)
		mocks.AssertAllExpectations(t)
	})

	t.Run("requested amount overrides the profile price", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		currentExpiry := now.AddDate(0, 0, 5)
		sub := testSubscriber(currentExpiry)

		req := renewalRequest()
		req.Amount = dec("80.00")

		mocks.SubscriberRepo.On("GetByID", ctx, int64(TestSubscriberID)).Return(sub, nil)
		mocks.BillingProfileRepo.On("GetByID", ctx, int64(TestBillingProfileID)).Return(profile, nil)
		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(testUserWallet("100.00"), nil)
		mocks.WalletRepo.On("UpdateBalance", ctx, int64(TestWalletID), dec("20.00"), int64(1), TestActor).Return(nil)
		mocks.TransactionRepo.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			tx.ID = TestTransactionID
			return tx.Amount.Equal(dec("80.00"))
		})).Return(nil)
		mocks.HistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.ActivationRepo.On("Create", ctx, mock.MatchedBy(func(a *models.RadiusActivation) bool {
			return a.Amount.Equal(dec("80.00"))
		})).Return(nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		activation, err := svc.Settle(ctx, req, TestActor)
		require.NoError(t, err)
		assert.True(t, activation.Amount.Equal(dec("80.00")))
		mocks.AssertAllExpectations(t)
	})

	t.Run("negative requested amount is rejected", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)

		req := renewalRequest()
		req.Amount = dec("-1.00")

		_, err := svc.Settle(ctx, req, TestActor)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		mocks.SubscriberRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("lapsed subscription extends from now", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		sub := testSubscriber(now.AddDate(0, 0, -10))
		wantExpiry := now.AddDate(0, 0, 30)

		req := renewalRequest()
		req.PaymentMethod = models.PaymentMethodExternal

		mocks.SubscriberRepo.On("GetByID", ctx, int64(TestSubscriberID)).Return(sub, nil)
		mocks.BillingProfileRepo.On("GetByID", ctx, int64(TestBillingProfileID)).Return(profile, nil)
		mocks.ActivationRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, int64(TestSubscriberID), int64(1), int64(TestBillingProfileID), wantExpiry).Return(nil)

		activation, err := svc.Settle(ctx, req, TestActor)
		require.NoError(t, err)
		assert.Equal(t, wantExpiry, activation.NextExpireDate)
		assert.Nil(t, activation.TransactionID)
		mocks.WalletRepo.AssertNotCalled(t, "GetActiveByUserID", mock.Anything, mock.Anything)
	})

	t.Run("explicit next expire date overrides the computed one", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		explicit := now.AddDate(0, 2, 0)
		sub := testSubscriber(now.AddDate(0, 0, 5))

		req := renewalRequest()
		req.PaymentMethod = models.PaymentMethodNone
		req.DurationDays = 0
		req.NextExpireDate = &explicit

		mocks.SubscriberRepo.On("GetByID", ctx, int64(TestSubscriberID)).Return(sub, nil)
		mocks.BillingProfileRepo.On("GetByID", ctx, int64(TestBillingProfileID)).Return(profile, nil)
		mocks.ActivationRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, int64(TestSubscriberID), int64(1), int64(TestBillingProfileID), explicit).Return(nil)

		activation, err := svc.Settle(ctx, req, TestActor)
		require.NoError(t, err)
		assert.Equal(t, explicit, activation.NextExpireDate)
	})

	t.Run("insufficient wallet balance aborts with nothing persisted", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		sub := testSubscriber(now.AddDate(0, 0, 5))

		mocks.SubscriberRepo.On("GetByID", ctx, int64(TestSubscriberID)).Return(sub, nil)
		mocks.BillingProfileRepo.On("GetByID", ctx, int64(TestBillingProfileID)).Return(profile, nil)
		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(testUserWallet("20.00"), nil)

		_, err := svc.Settle(ctx, renewalRequest(), TestActor)

		var insufficient *models.InsufficientBalanceError
		require.ErrorAs(t, err, &insufficient)
		assert.True(t, insufficient.Shortage.Equal(dec("30.00")))
		mocks.ActivationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.SubscriberRepo.AssertNotCalled(t, "UpdateServiceState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, mocks.Events.Published)
	})

	t.Run("settled activation publishes an event after commit", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		sub := testSubscriber(now.AddDate(0, 0, 5))
		req := renewalRequest()
		req.PaymentMethod = models.PaymentMethodNone

		mocks.SubscriberRepo.On("GetByID", ctx, int64(TestSubscriberID)).Return(sub, nil)
		mocks.BillingProfileRepo.On("GetByID", ctx, int64(TestBillingProfileID)).Return(profile, nil)
		mocks.ActivationRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Settle(ctx, req, TestActor)
		require.NoError(t, err)

		var settled bool
		for _, e := range mocks.Events.Published {
			if _, ok := e.(events.ActivationSettledEvent); ok {
				settled = true
			}
		}
		assert.True(t, settled)
	})

	t.Run("validation failures never reach the store", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)

		req := renewalRequest()
		req.SubscriberID = 0

		_, err := svc.Settle(ctx, req, TestActor)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		mocks.SubscriberRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("duration required when no explicit date", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)

		req := renewalRequest()
		req.DurationDays = 0

		_, err := svc.Settle(ctx, req, TestActor)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestActivationService_Rollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	txID := int64(TestTransactionID)

	completedActivation := func(nextExpire time.Time) *models.RadiusActivation {
		return &models.RadiusActivation{
			ID:                       TestActivationID,
			SubscriberID:             TestSubscriberID,
			ActivationType:           models.ActivationTypeRenewal,
			Status:                   models.ActivationStatusCompleted,
			PaymentMethod:            models.PaymentMethodWallet,
			TransactionID:            &txID,
			PreviousExpireDate:       now.AddDate(0, 0, -25),
			PreviousProfileID:        1,
			PreviousBillingProfileID: 9,
			NextExpireDate:           nextExpire,
			CurrentProfileID:         2,
			CurrentBillingProfileID:  TestBillingProfileID,
			Amount:                   dec("50.00"),
			DurationDays:             30,
		}
	}

	t.Run("restores previous subscriber state and flags the unreversed debit", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := completedActivation(now.AddDate(0, 0, 5))

		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, int64(TestSubscriberID), int64(1), int64(9), activation.PreviousExpireDate).Return(nil)
		mocks.ActivationRepo.On("UpdateStatus", ctx, int64(TestActivationID), models.ActivationStatusRolledBack, true, TestActor).Return(nil)

		result, err := svc.Rollback(ctx, TestActivationID, TestActor)
		require.NoError(t, err)
		assert.True(t, result.WalletDebitUnreversed)
		require.NotNil(t, result.TransactionID)
		assert.Equal(t, txID, *result.TransactionID)
		mocks.AssertAllExpectations(t)
	})

	t.Run("refuses once the period has started being consumed", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := completedActivation(now.AddDate(0, 0, -1))
		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)

		_, err := svc.Rollback(ctx, TestActivationID, TestActor)
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
		mocks.SubscriberRepo.AssertNotCalled(t, "UpdateServiceState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already rolled back", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := completedActivation(now.AddDate(0, 0, 5))
		activation.Status = models.ActivationStatusRolledBack
		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)

		_, err := svc.Rollback(ctx, TestActivationID, TestActor)
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	})

	t.Run("unknown activation", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)

		mocks.ActivationRepo.On("GetByID", ctx, int64(404)).Return(nil, nil)

		_, err := svc.Rollback(ctx, 404, TestActor)
		assert.ErrorIs(t, err, models.ErrActivationNotFound)
	})

	t.Run("external payment rollback reports no unreversed debit", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := completedActivation(now.AddDate(0, 0, 5))
		activation.PaymentMethod = models.PaymentMethodExternal
		activation.TransactionID = nil

		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		mocks.ActivationRepo.On("UpdateStatus", ctx, int64(TestActivationID), models.ActivationStatusRolledBack, true, TestActor).Return(nil)

		result, err := svc.Rollback(ctx, TestActivationID, TestActor)
		require.NoError(t, err)
		assert.False(t, result.WalletDebitUnreversed)
	})
}

func TestActivationService_Restore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rolledBack := func(nextExpire time.Time) *models.RadiusActivation {
		return &models.RadiusActivation{
			ID:                      TestActivationID,
			SubscriberID:            TestSubscriberID,
			Status:                  models.ActivationStatusRolledBack,
			NextExpireDate:          nextExpire,
			CurrentProfileID:        2,
			CurrentBillingProfileID: TestBillingProfileID,
			IsDeleted:               true,
		}
	}

	t.Run("re-applies the activation state", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := rolledBack(now.AddDate(0, 0, 5))
		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)
		mocks.SubscriberRepo.On("UpdateServiceState", ctx, int64(TestSubscriberID), int64(2), int64(TestBillingProfileID), activation.NextExpireDate).Return(nil)
		mocks.ActivationRepo.On("UpdateStatus", ctx, int64(TestActivationID), models.ActivationStatusCompleted, false, TestActor).Return(nil)

		require.NoError(t, svc.Restore(ctx, TestActivationID, TestActor))
		mocks.AssertAllExpectations(t)
	})

	t.Run("refuses when not rolled back", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := rolledBack(now.AddDate(0, 0, 5))
		activation.Status = models.ActivationStatusCompleted
		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)

		err := svc.Restore(ctx, TestActivationID, TestActor)
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	})

	t.Run("refuses when the period would already be consumed", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := newActivationService(mocks)
		svc.now = func() time.Time { return now }

		activation := rolledBack(now.AddDate(0, 0, -2))
		mocks.ActivationRepo.On("GetByID", ctx, int64(TestActivationID)).Return(activation, nil)

		err := svc.Restore(ctx, TestActivationID, TestActor)
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	})
}
