package service

import (
	"context"
	"testing"

	"ispwallet/events"
)

// Test IDs - meaningful constants instead of magic numbers
const (
	TestSubscriberID     = 111111
	TestWalletID         = 1
	TestCustomWalletID   = 2
	TestBillingProfileID = 10
	TestGroupID          = 5
	TestActivationID     = 77
	TestTransactionID    = 1001
	TestActor            = "tester"
)

// TestMocks holds all mock repositories for easy access
type TestMocks struct {
	WalletRepo         *MockWalletRepository
	TransactionRepo    *MockTransactionRepository
	HistoryRepo        *MockWalletHistoryRepository
	SubscriberRepo     *MockSubscriberRepository
	BillingProfileRepo *MockBillingProfileRepository
	UserCashbackRepo   *MockUserCashbackRepository
	CashbackGroupRepo  *MockCashbackGroupRepository
	ProfileAmountRepo  *MockCashbackProfileAmountRepository
	ActivationRepo     *MockActivationRepository
	Events             *RecordingPublisher
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		WalletRepo:         new(MockWalletRepository),
		TransactionRepo:    new(MockTransactionRepository),
		HistoryRepo:        new(MockWalletHistoryRepository),
		SubscriberRepo:     new(MockSubscriberRepository),
		BillingProfileRepo: new(MockBillingProfileRepository),
		UserCashbackRepo:   new(MockUserCashbackRepository),
		CashbackGroupRepo:  new(MockCashbackGroupRepository),
		ProfileAmountRepo:  new(MockCashbackProfileAmountRepository),
		ActivationRepo:     new(MockActivationRepository),
		Events:             new(RecordingPublisher),
	}
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.WalletRepo.AssertExpectations(t)
	m.TransactionRepo.AssertExpectations(t)
	m.HistoryRepo.AssertExpectations(t)
	m.SubscriberRepo.AssertExpectations(t)
	m.BillingProfileRepo.AssertExpectations(t)
	m.UserCashbackRepo.AssertExpectations(t)
	m.CashbackGroupRepo.AssertExpectations(t)
	m.ProfileAmountRepo.AssertExpectations(t)
	m.ActivationRepo.AssertExpectations(t)
}

// RecordingPublisher buffers events like the NATS transactional publisher and
// records what was flushed vs discarded, so tests can assert events only fire
// after commit.
type RecordingPublisher struct {
	pending   []events.Event
	Published []events.Event
	Discards  int
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

func (p *RecordingPublisher) Flush(ctx context.Context) error {
	p.Published = append(p.Published, p.pending...)
	p.pending = nil
	return nil
}

func (p *RecordingPublisher) Discard() {
	p.pending = nil
	p.Discards++
}

// mockUnitOfWork hands out the shared mocks; Begin/Commit/Rollback only drive
// the event buffer, there is no real transaction underneath.
type mockUnitOfWork struct {
	mocks      *TestMocks
	began      bool
	Committed  bool
	RolledBack bool
}

func (u *mockUnitOfWork) Begin(ctx context.Context) error {
	u.began = true
	return nil
}

func (u *mockUnitOfWork) Commit() error {
	u.Committed = true
	return u.mocks.Events.Flush(context.Background())
}

func (u *mockUnitOfWork) Rollback() error {
	u.RolledBack = true
	u.mocks.Events.Discard()
	return nil
}

func (u *mockUnitOfWork) WalletRepository() WalletRepository           { return u.mocks.WalletRepo }
func (u *mockUnitOfWork) TransactionRepository() TransactionRepository { return u.mocks.TransactionRepo }
func (u *mockUnitOfWork) WalletHistoryRepository() WalletHistoryRepository {
	return u.mocks.HistoryRepo
}
func (u *mockUnitOfWork) SubscriberRepository() SubscriberRepository { return u.mocks.SubscriberRepo }
func (u *mockUnitOfWork) BillingProfileRepository() BillingProfileRepository {
	return u.mocks.BillingProfileRepo
}
func (u *mockUnitOfWork) UserCashbackRepository() UserCashbackRepository {
	return u.mocks.UserCashbackRepo
}
func (u *mockUnitOfWork) CashbackGroupRepository() CashbackGroupRepository {
	return u.mocks.CashbackGroupRepo
}
func (u *mockUnitOfWork) CashbackProfileAmountRepository() CashbackProfileAmountRepository {
	return u.mocks.ProfileAmountRepo
}
func (u *mockUnitOfWork) ActivationRepository() ActivationRepository { return u.mocks.ActivationRepo }
func (u *mockUnitOfWork) EventBus() EventPublisher                   { return u.mocks.Events }

// mockUnitOfWorkFactory creates mock units of work over one shared mock set.
type mockUnitOfWorkFactory struct {
	mocks   *TestMocks
	Created int
}

func newMockUowFactory(mocks *TestMocks) *mockUnitOfWorkFactory {
	return &mockUnitOfWorkFactory{mocks: mocks}
}

func (f *mockUnitOfWorkFactory) Create() UnitOfWork {
	f.Created++
	return &mockUnitOfWork{mocks: f.mocks}
}
