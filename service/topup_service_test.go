package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ispwallet/models"
)

func newTopUpService(mocks *TestMocks, gateway ChargeGateway) *TopUpService {
	factory := newMockUowFactory(mocks)
	return NewTopUpService(factory, NewLedgerService(factory, 3), gateway)
}

func topUpRequest(amount string) TopUpRequest {
	return TopUpRequest{
		UserID:      TestSubscriberID,
		Amount:      dec(amount),
		Currency:    "THB",
		CardToken:   "tokn_test_123",
		Description: "wallet top up",
	}
}

func TestTopUpService_TopUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("paid charge credits the wallet with the charge id as reference", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		wallet := testUserWallet("40.00")
		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(wallet, nil)
		gateway.On("CreateCharge", ctx, int64(25050), "THB", "tokn_test_123", "wallet top up").
			Return(&Charge{ID: "chrg_1", Paid: true, Amount: 25050, Currency: "THB"}, nil)

		mocks.WalletRepo.On("GetByID", ctx, int64(TestWalletID)).Return(wallet, nil)
		mocks.WalletRepo.On("UpdateBalance", ctx, int64(TestWalletID), dec("290.50"), int64(1), TestActor).Return(nil)
		mocks.TransactionRepo.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.TransactionType == models.TransactionTypeTopUp && tx.Reference == "chrg_1"
		})).Return(nil)
		mocks.HistoryRepo.On("Record", ctx, mock.Anything).Return(nil)

		result, err := svc.TopUp(ctx, topUpRequest("250.50"), TestActor)
		require.NoError(t, err)
		require.NotNil(t, result.Transaction)
		assert.Equal(t, "chrg_1", result.Charge.ID)
		gateway.AssertExpectations(t)
		mocks.AssertAllExpectations(t)
	})

	t.Run("pending charge does not touch the ledger", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(testUserWallet("40.00"), nil)
		gateway.On("CreateCharge", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&Charge{ID: "chrg_2", Paid: false, Amount: 10000, Currency: "THB"}, nil)

		result, err := svc.TopUp(ctx, topUpRequest("100.00"), TestActor)
		require.NoError(t, err)
		assert.Nil(t, result.Transaction)
		assert.Equal(t, "chrg_2", result.Charge.ID)
		mocks.TransactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.WalletRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing wallet fails before the gateway is charged", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(nil, nil)

		_, err := svc.TopUp(ctx, topUpRequest("100.00"), TestActor)
		assert.ErrorIs(t, err, models.ErrWalletNotFound)
		gateway.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gateway error surfaces without a ledger entry", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(testUserWallet("40.00"), nil)
		gateway.On("CreateCharge", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, assert.AnError)

		_, err := svc.TopUp(ctx, topUpRequest("100.00"), TestActor)
		require.Error(t, err)
		mocks.TransactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		req := topUpRequest("100.00")
		req.Amount = dec("-5.00")

		_, err := svc.TopUp(ctx, req, TestActor)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		gateway.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTopUpService_ConfirmCharge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("credits a paid charge once", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		gateway.On("RetrieveCharge", ctx, "chrg_3").
			Return(&Charge{ID: "chrg_3", Paid: true, Amount: 5000, Currency: "THB"}, nil)

		mocks.TransactionRepo.On("GetByReference", ctx, "chrg_3").Return(nil, nil)
		mocks.WalletRepo.On("GetActiveByUserID", ctx, int64(TestSubscriberID)).Return(testUserWallet("10.00"), nil)
		mocks.WalletRepo.On("UpdateBalance", ctx, int64(TestWalletID), mock.MatchedBy(func(b decimal.Decimal) bool {
			return b.Equal(dec("60.00"))
		}), int64(1), TestActor).Return(nil)
		mocks.TransactionRepo.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.Reference == "chrg_3" && tx.Amount.Equal(dec("50.00"))
		})).Return(nil)
		mocks.HistoryRepo.On("Record", ctx, mock.Anything).Return(nil)

		tx, err := svc.ConfirmCharge(ctx, TestSubscriberID, "chrg_3", TestActor)
		require.NoError(t, err)
		require.NotNil(t, tx)
		mocks.AssertAllExpectations(t)
	})

	t.Run("replayed confirmation returns the existing entry untouched", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		gateway.On("RetrieveCharge", ctx, "chrg_3").
			Return(&Charge{ID: "chrg_3", Paid: true, Amount: 5000, Currency: "THB"}, nil)

		existing := &models.Transaction{ID: TestTransactionID, Reference: "chrg_3"}
		mocks.TransactionRepo.On("GetByReference", ctx, "chrg_3").Return(existing, nil)

		tx, err := svc.ConfirmCharge(ctx, TestSubscriberID, "chrg_3", TestActor)
		require.NoError(t, err)
		assert.Equal(t, existing, tx)
		mocks.TransactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.WalletRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replay for a different user is rejected", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		gateway.On("RetrieveCharge", ctx, "chrg_3").
			Return(&Charge{ID: "chrg_3", Paid: true, Amount: 5000, Currency: "THB"}, nil)

		owner := int64(TestSubscriberID)
		existing := &models.Transaction{ID: TestTransactionID, Reference: "chrg_3", UserID: &owner}
		mocks.TransactionRepo.On("GetByReference", ctx, "chrg_3").Return(existing, nil)

		_, err := svc.ConfirmCharge(ctx, 222222, "chrg_3", TestActor)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		mocks.TransactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.WalletRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unpaid charge is a precondition failure", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		gateway.On("RetrieveCharge", ctx, "chrg_4").
			Return(&Charge{ID: "chrg_4", Paid: false, Amount: 5000, Currency: "THB"}, nil)

		_, err := svc.ConfirmCharge(ctx, TestSubscriberID, "chrg_4", TestActor)
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
		mocks.TransactionRepo.AssertNotCalled(t, "GetByReference", mock.Anything, mock.Anything)
	})

	t.Run("empty charge id is rejected", func(t *testing.T) {
		mocks := NewTestMocks()
		gateway := new(MockChargeGateway)
		svc := newTopUpService(mocks, gateway)

		_, err := svc.ConfirmCharge(ctx, TestSubscriberID, "", TestActor)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		gateway.AssertNotCalled(t, "RetrieveCharge", mock.Anything, mock.Anything)
	})
}
