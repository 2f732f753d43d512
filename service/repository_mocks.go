package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"ispwallet/events"
	"ispwallet/models"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetActiveByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, walletID int64, newBalance decimal.Decimal, expectedVersion int64, actor string) error {
	args := m.Called(ctx, walletID, newBalance, expectedVersion, actor)
	return args.Error(0)
}

func (m *MockWalletRepository) SetDeleted(ctx context.Context, walletID int64, deleted bool, actor string) error {
	args := m.Called(ctx, walletID, deleted, actor)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, walletID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateCashbackStatus(ctx context.Context, id int64, status models.CashbackStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	args := m.Called(ctx, id, deleted, actor)
	return args.Error(0)
}

// MockWalletHistoryRepository is a mock implementation of WalletHistoryRepository
type MockWalletHistoryRepository struct {
	mock.Mock
}

func (m *MockWalletHistoryRepository) Record(ctx context.Context, history *models.WalletHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockWalletHistoryRepository) GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.WalletHistory, error) {
	args := m.Called(ctx, walletID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletHistory), args.Error(1)
}

func (m *MockWalletHistoryRepository) GetByDateRange(ctx context.Context, walletID int64, from, to time.Time) ([]*models.WalletHistory, error) {
	args := m.Called(ctx, walletID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletHistory), args.Error(1)
}

// MockSubscriberRepository is a mock implementation of SubscriberRepository
type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) GetByID(ctx context.Context, id int64) (*models.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriberRepository) UpdateServiceState(ctx context.Context, id int64, profileID, billingProfileID int64, expireDate time.Time) error {
	args := m.Called(ctx, id, profileID, billingProfileID, expireDate)
	return args.Error(0)
}

// MockBillingProfileRepository is a mock implementation of BillingProfileRepository
type MockBillingProfileRepository struct {
	mock.Mock
}

func (m *MockBillingProfileRepository) GetByID(ctx context.Context, id int64) (*models.BillingProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BillingProfile), args.Error(1)
}

func (m *MockBillingProfileRepository) Create(ctx context.Context, profile *models.BillingProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockUserCashbackRepository is a mock implementation of UserCashbackRepository
type MockUserCashbackRepository struct {
	mock.Mock
}

func (m *MockUserCashbackRepository) GetActive(ctx context.Context, userID, billingProfileID int64) (*models.UserCashback, error) {
	args := m.Called(ctx, userID, billingProfileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserCashback), args.Error(1)
}

func (m *MockUserCashbackRepository) GetActiveByUser(ctx context.Context, userID int64) ([]*models.UserCashback, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserCashback), args.Error(1)
}

func (m *MockUserCashbackRepository) Create(ctx context.Context, cashback *models.UserCashback) error {
	args := m.Called(ctx, cashback)
	return args.Error(0)
}

func (m *MockUserCashbackRepository) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal, actor string) error {
	args := m.Called(ctx, id, amount, actor)
	return args.Error(0)
}

func (m *MockUserCashbackRepository) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	args := m.Called(ctx, id, deleted, actor)
	return args.Error(0)
}

// MockCashbackGroupRepository is a mock implementation of CashbackGroupRepository
type MockCashbackGroupRepository struct {
	mock.Mock
}

func (m *MockCashbackGroupRepository) GetByID(ctx context.Context, id int64) (*models.CashbackGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashbackGroup), args.Error(1)
}

func (m *MockCashbackGroupRepository) Create(ctx context.Context, group *models.CashbackGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockCashbackGroupRepository) SetDisabled(ctx context.Context, id int64, disabled bool, actor string) error {
	args := m.Called(ctx, id, disabled, actor)
	return args.Error(0)
}

func (m *MockCashbackGroupRepository) GetEnabledGroupsByUser(ctx context.Context, userID int64) ([]*models.CashbackGroup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashbackGroup), args.Error(1)
}

func (m *MockCashbackGroupRepository) AddUser(ctx context.Context, groupID, userID int64, actor string) error {
	args := m.Called(ctx, groupID, userID, actor)
	return args.Error(0)
}

func (m *MockCashbackGroupRepository) RemoveUser(ctx context.Context, groupID, userID int64, actor string) error {
	args := m.Called(ctx, groupID, userID, actor)
	return args.Error(0)
}

// MockCashbackProfileAmountRepository is a mock implementation of CashbackProfileAmountRepository
type MockCashbackProfileAmountRepository struct {
	mock.Mock
}

func (m *MockCashbackProfileAmountRepository) GetActive(ctx context.Context, groupID, billingProfileID int64) (*models.CashbackProfileAmount, error) {
	args := m.Called(ctx, groupID, billingProfileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashbackProfileAmount), args.Error(1)
}

func (m *MockCashbackProfileAmountRepository) GetActiveByGroup(ctx context.Context, groupID int64) ([]*models.CashbackProfileAmount, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashbackProfileAmount), args.Error(1)
}

func (m *MockCashbackProfileAmountRepository) Create(ctx context.Context, amount *models.CashbackProfileAmount) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

func (m *MockCashbackProfileAmountRepository) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal, actor string) error {
	args := m.Called(ctx, id, amount, actor)
	return args.Error(0)
}

func (m *MockCashbackProfileAmountRepository) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	args := m.Called(ctx, id, deleted, actor)
	return args.Error(0)
}

// MockActivationRepository is a mock implementation of ActivationRepository
type MockActivationRepository struct {
	mock.Mock
}

func (m *MockActivationRepository) Create(ctx context.Context, activation *models.RadiusActivation) error {
	args := m.Called(ctx, activation)
	return args.Error(0)
}

func (m *MockActivationRepository) GetByID(ctx context.Context, id int64) (*models.RadiusActivation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RadiusActivation), args.Error(1)
}

func (m *MockActivationRepository) GetBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*models.RadiusActivation, error) {
	args := m.Called(ctx, subscriberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RadiusActivation), args.Error(1)
}

func (m *MockActivationRepository) UpdateStatus(ctx context.Context, id int64, status models.ActivationStatus, deleted bool, actor string) error {
	args := m.Called(ctx, id, status, deleted, actor)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockChargeGateway is a mock implementation of ChargeGateway
type MockChargeGateway struct {
	mock.Mock
}

func (m *MockChargeGateway) CreateCharge(ctx context.Context, amount int64, currency, cardToken, description string) (*Charge, error) {
	args := m.Called(ctx, amount, currency, cardToken, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Charge), args.Error(1)
}

func (m *MockChargeGateway) RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Charge), args.Error(1)
}
