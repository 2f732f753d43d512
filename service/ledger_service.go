package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"ispwallet/events"
	"ispwallet/metrics"
	"ispwallet/models"
)

// WalletOptions carries the optional attributes of a new wallet.
type WalletOptions struct {
	LinkedWalletID       *int64
	MaxFillLimit         *decimal.Decimal
	DailySpendingLimit   *decimal.Decimal
	AllowNegativeBalance *bool
}

// LedgerService owns every balance mutation. All writes of one operation go
// through a single unit of work; a version conflict on the wallet retries the
// whole operation against fresh state.
type LedgerService struct {
	uowFactory UnitOfWorkFactory
	maxRetries int
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, maxRetries int) *LedgerService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &LedgerService{
		uowFactory: uowFactory,
		maxRetries: maxRetries,
	}
}

// CreateUserWallet creates the single wallet bound to a subscriber. A positive
// initial balance is recorded as an initial credit so the ledger starts
// consistent with the stored balance.
func (s *LedgerService) CreateUserWallet(ctx context.Context, userID int64, initialBalance decimal.Decimal, opts WalletOptions, actor string) (*models.Wallet, error) {
	if initialBalance.IsNegative() {
		return nil, models.NewValidationError("initialBalance", "must not be negative")
	}

	var wallet *models.Wallet
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		sub, err := uow.SubscriberRepository().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if sub == nil {
			return models.ErrUserNotFound
		}

		existing, err := uow.WalletRepository().GetActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.ErrDuplicateWallet
		}

		wallet = &models.Wallet{
			WalletType:           models.WalletTypeUser,
			UserID:               &userID,
			Name:                 sub.Username,
			LinkedWalletID:       opts.LinkedWalletID,
			CurrentBalance:       initialBalance,
			MaxFillLimit:         opts.MaxFillLimit,
			DailySpendingLimit:   opts.DailySpendingLimit,
			Status:               models.WalletStatusActive,
			AllowNegativeBalance: opts.AllowNegativeBalance,
			CreatedBy:            actor,
			UpdatedBy:            actor,
		}
		if err := uow.WalletRepository().Create(ctx, wallet); err != nil {
			return err
		}

		if initialBalance.IsPositive() {
			tx := &models.Transaction{
				WalletID:        wallet.ID,
				WalletType:      wallet.WalletType,
				UserID:          wallet.UserID,
				TransactionType: models.TransactionTypeInitial,
				AmountType:      models.AmountTypeCredit,
				Amount:          initialBalance,
				BalanceBefore:   decimal.Zero,
				BalanceAfter:    initialBalance,
				Status:          "completed",
				Description:     "initial balance",
				Reference:       uuid.New().String(),
				CreatedBy:       actor,
			}
			if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
				return err
			}
			if err := uow.WalletHistoryRepository().Record(ctx, models.HistoryFromTransaction(tx)); err != nil {
				return err
			}
		}

		return uow.EventBus().Publish(events.WalletCreatedEvent{
			WalletID:       wallet.ID,
			WalletType:     wallet.WalletType,
			UserID:         wallet.UserID,
			InitialBalance: initialBalance,
			Actor:          actor,
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"walletId": wallet.ID,
		"userId":   userID,
	}).Info("Created user wallet")
	return wallet, nil
}

// CreateCustomWallet creates a named shared pool wallet.
func (s *LedgerService) CreateCustomWallet(ctx context.Context, name string, opts WalletOptions, actor string) (*models.Wallet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, models.NewValidationError("name", "must not be empty")
	}

	var wallet *models.Wallet
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		wallet = &models.Wallet{
			WalletType:           models.WalletTypeCustom,
			Name:                 name,
			CurrentBalance:       decimal.Zero,
			MaxFillLimit:         opts.MaxFillLimit,
			DailySpendingLimit:   opts.DailySpendingLimit,
			Status:               models.WalletStatusActive,
			AllowNegativeBalance: opts.AllowNegativeBalance,
			CreatedBy:            actor,
			UpdatedBy:            actor,
		}
		if err := uow.WalletRepository().Create(ctx, wallet); err != nil {
			return err
		}

		return uow.EventBus().Publish(events.WalletCreatedEvent{
			WalletID:       wallet.ID,
			WalletType:     wallet.WalletType,
			InitialBalance: decimal.Zero,
			Actor:          actor,
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"walletId": wallet.ID,
		"name":     name,
	}).Info("Created custom wallet")
	return wallet, nil
}

// Credit adds funds to a wallet. The wallet's max_fill_limit is stored but not
// enforced here: operators rely on it as advisory data and external top-up
// channels must never bounce a settled payment.
func (s *LedgerService) Credit(ctx context.Context, walletID int64, amount decimal.Decimal, txType models.TransactionType, description, reference, actor string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be positive")
	}
	if !txType.Valid() {
		return nil, models.NewValidationError("transactionType", "unrecognized transaction type")
	}

	var result *models.Transaction
	err := withRetry(ctx, s.uowFactory, s.maxRetries, func(uow UnitOfWork) error {
		wallet, err := uow.WalletRepository().GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet == nil || wallet.IsDeleted {
			return models.ErrWalletNotFound
		}

		tx, err := s.applyChange(ctx, uow, wallet, amount, models.AmountTypeCredit, txType, description, reference, actor)
		if err != nil {
			return err
		}
		result = tx
		return nil
	})
	if err != nil {
		metrics.LedgerOperationsTotal.WithLabelValues("credit", txType.String(), "error").Inc()
		return nil, err
	}

	metrics.LedgerOperationsTotal.WithLabelValues("credit", txType.String(), "ok").Inc()
	return result, nil
}

// Debit removes funds from a wallet. The wallet must be active and the
// resulting balance must satisfy the negative-balance policy; a violating
// debit fails before any row is written.
func (s *LedgerService) Debit(ctx context.Context, walletID int64, amount decimal.Decimal, txType models.TransactionType, description, reference, actor string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be positive")
	}
	if !txType.Valid() {
		return nil, models.NewValidationError("transactionType", "unrecognized transaction type")
	}

	var result *models.Transaction
	err := withRetry(ctx, s.uowFactory, s.maxRetries, func(uow UnitOfWork) error {
		wallet, err := uow.WalletRepository().GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet == nil || wallet.IsDeleted {
			return models.ErrWalletNotFound
		}
		if !wallet.CanDebit() {
			return &models.WalletNotActiveError{WalletID: wallet.ID, Status: wallet.Status}
		}

		allowNegative, err := s.resolveAllowNegative(ctx, uow, wallet)
		if err != nil {
			return err
		}
		newBalance := wallet.CurrentBalance.Sub(amount)
		if newBalance.IsNegative() && !allowNegative {
			metrics.InsufficientBalanceTotal.Inc()
			return models.NewInsufficientBalanceError(wallet.ID, wallet.CurrentBalance, amount)
		}

		tx, err := s.applyChange(ctx, uow, wallet, amount, models.AmountTypeDebit, txType, description, reference, actor)
		if err != nil {
			return err
		}
		result = tx
		return nil
	})
	if err != nil {
		metrics.LedgerOperationsTotal.WithLabelValues("debit", txType.String(), "error").Inc()
		return nil, err
	}

	metrics.LedgerOperationsTotal.WithLabelValues("debit", txType.String(), "ok").Inc()
	return result, nil
}

// DeleteWallet soft-deletes a wallet. The balance and full history stay
// readable for audit.
func (s *LedgerService) DeleteWallet(ctx context.Context, walletID int64, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		wallet, err := uow.WalletRepository().GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet == nil || wallet.IsDeleted {
			return models.ErrWalletNotFound
		}
		return uow.WalletRepository().SetDeleted(ctx, walletID, true, actor)
	})
}

// RestoreWallet clears a wallet's soft-delete markers.
func (s *LedgerService) RestoreWallet(ctx context.Context, walletID int64, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		wallet, err := uow.WalletRepository().GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return models.ErrWalletNotFound
		}
		if !wallet.IsDeleted {
			return models.ErrPreconditionFailed
		}
		return uow.WalletRepository().SetDeleted(ctx, walletID, false, actor)
	})
}

// GetWallet returns a wallet by id.
func (s *LedgerService) GetWallet(ctx context.Context, walletID int64) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		w, err := uow.WalletRepository().GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, models.ErrWalletNotFound
	}
	return wallet, nil
}

// applyChange performs the dual write for one balance mutation: the wallet
// balance (guarded by the optimistic version), the ledger row and the history
// mirror all land in the same transaction, and the balance-change event is
// buffered until commit.
func (s *LedgerService) applyChange(ctx context.Context, uow UnitOfWork, wallet *models.Wallet, amount decimal.Decimal, amountType models.AmountType, txType models.TransactionType, description, reference, actor string) (*models.Transaction, error) {
	defer metrics.ObserveLedgerOperation(amountType.String(), time.Now())

	if reference == "" {
		reference = uuid.New().String()
	}

	balanceBefore := wallet.CurrentBalance
	var balanceAfter decimal.Decimal
	if amountType == models.AmountTypeDebit {
		balanceAfter = balanceBefore.Sub(amount)
	} else {
		balanceAfter = balanceBefore.Add(amount)
	}

	if err := uow.WalletRepository().UpdateBalance(ctx, wallet.ID, balanceAfter, wallet.Version, actor); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		WalletID:        wallet.ID,
		WalletType:      wallet.WalletType,
		UserID:          wallet.UserID,
		TransactionType: txType,
		AmountType:      amountType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		Status:          "completed",
		Description:     description,
		Reference:       reference,
		CreatedBy:       actor,
	}
	if txType.IsCashback() {
		status := models.CashbackStatusPending
		tx.CashbackStatus = &status
	}
	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, err
	}

	if err := uow.WalletHistoryRepository().Record(ctx, models.HistoryFromTransaction(tx)); err != nil {
		return nil, err
	}

	if err := uow.EventBus().Publish(events.BalanceChangeEvent{
		WalletID:        wallet.ID,
		WalletType:      wallet.WalletType,
		UserID:          wallet.UserID,
		TransactionID:   tx.ID,
		TransactionType: txType,
		AmountType:      amountType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		Reference:       reference,
		Actor:           actor,
	}); err != nil {
		return nil, err
	}

	return tx, nil
}

// resolveAllowNegative applies the tri-state policy: the wallet's own flag
// wins, else the linked custom wallet's flag, else false.
func (s *LedgerService) resolveAllowNegative(ctx context.Context, uow UnitOfWork, wallet *models.Wallet) (bool, error) {
	if wallet.AllowNegativeBalance != nil {
		return *wallet.AllowNegativeBalance, nil
	}
	if wallet.LinkedWalletID == nil {
		return false, nil
	}

	linked, err := uow.WalletRepository().GetByID(ctx, *wallet.LinkedWalletID)
	if err != nil {
		return false, err
	}
	return wallet.ResolveAllowNegative(linked), nil
}
