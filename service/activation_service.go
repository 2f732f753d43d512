package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"ispwallet/events"
	"ispwallet/metrics"
	"ispwallet/models"
)

var validate = validator.New()

// SettleRequest carries one subscription state change to apply.
type SettleRequest struct {
	SubscriberID     int64                 `validate:"required,gt=0"`
	ActivationType   models.ActivationType `validate:"required,oneof=renewal profile_change"`
	PaymentMethod    models.PaymentMethod  `validate:"required,oneof=wallet external none"`
	ProfileID        int64                 `validate:"required,gt=0"`
	BillingProfileID int64                 `validate:"required,gt=0"`
	DurationDays     int                   `validate:"gte=0"`
	// Amount is what the settlement charges. Zero means the billing
	// profile's list price; discounts and promotions pass their own amount.
	Amount decimal.Decimal
	// NextExpireDate, when set, overrides the computed expiry.
	NextExpireDate *time.Time
	Reference      string
	Description    string
}

// RollbackResult reports what a rollback did and, crucially, what it did not:
// the funding wallet debit is never reversed automatically.
type RollbackResult struct {
	ActivationID          int64
	WalletDebitUnreversed bool
	TransactionID         *int64
}

// ActivationService settles subscription state changes against the wallet
// ledger and keeps an exactly-reversible audit record for each one.
type ActivationService struct {
	uowFactory UnitOfWorkFactory
	ledger     *LedgerService
	now        func() time.Time
}

// NewActivationService creates a new activation service
func NewActivationService(uowFactory UnitOfWorkFactory, ledger *LedgerService) *ActivationService {
	return &ActivationService{
		uowFactory: uowFactory,
		ledger:     ledger,
		now:        time.Now,
	}
}

// Settle applies a subscription state change. Wallet-funded settlements debit
// the subscriber's wallet in the same transaction; any ledger failure aborts
// the whole settlement with nothing persisted.
func (s *ActivationService) Settle(ctx context.Context, req SettleRequest, actor string) (*models.RadiusActivation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, models.NewValidationError("", err.Error())
	}
	if req.NextExpireDate == nil && req.DurationDays <= 0 {
		return nil, models.NewValidationError("durationDays", "must be positive when no explicit expire date is given")
	}
	if req.Amount.IsNegative() {
		return nil, models.NewValidationError("amount", "must not be negative")
	}

	var activation *models.RadiusActivation
	err := withRetry(ctx, s.uowFactory, s.ledger.maxRetries, func(uow UnitOfWork) error {
		sub, err := uow.SubscriberRepository().GetByID(ctx, req.SubscriberID)
		if err != nil {
			return err
		}
		if sub == nil {
			return models.ErrUserNotFound
		}

		profile, err := uow.BillingProfileRepository().GetByID(ctx, req.BillingProfileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return models.ErrBillingProfileNotFound
		}

		now := s.now()
		nextExpire := s.computeExpiry(req, sub.ExpireDate, now)

		chargeAmount := req.Amount
		if !chargeAmount.IsPositive() {
			chargeAmount = profile.Price
		}

		activation = &models.RadiusActivation{
			SubscriberID:             sub.ID,
			ActivationType:           req.ActivationType,
			Status:                   models.ActivationStatusCompleted,
			PaymentMethod:            req.PaymentMethod,
			PreviousExpireDate:       sub.ExpireDate,
			PreviousProfileID:        sub.ProfileID,
			PreviousBillingProfileID: sub.BillingProfileID,
			NextExpireDate:           nextExpire,
			CurrentProfileID:         req.ProfileID,
			CurrentBillingProfileID:  req.BillingProfileID,
			Amount:                   chargeAmount,
			DurationDays:             req.DurationDays,
			Description:              req.Description,
			CreatedBy:                actor,
			UpdatedBy:                actor,
		}

		if req.PaymentMethod == models.PaymentMethodWallet {
			wallet, err := uow.WalletRepository().GetActiveByUserID(ctx, sub.ID)
			if err != nil {
				return err
			}
			if wallet == nil {
				return models.ErrWalletNotFound
			}
			if !wallet.CanDebit() {
				return &models.WalletNotActiveError{WalletID: wallet.ID, Status: wallet.Status}
			}

			allowNegative, err := s.ledger.resolveAllowNegative(ctx, uow, wallet)
			if err != nil {
				return err
			}
			if wallet.CurrentBalance.Sub(chargeAmount).IsNegative() && !allowNegative {
				metrics.InsufficientBalanceTotal.Inc()
				return models.NewInsufficientBalanceError(wallet.ID, wallet.CurrentBalance, chargeAmount)
			}

			activation.PreviousBalance = wallet.CurrentBalance
			tx, err := s.ledger.applyChange(ctx, uow, wallet, chargeAmount, models.AmountTypeDebit, models.TransactionTypePayment, req.Description, req.Reference, actor)
			if err != nil {
				return err
			}
			activation.TransactionID = &tx.ID
		}

		if err := uow.ActivationRepository().Create(ctx, activation); err != nil {
			return err
		}

		if err := uow.SubscriberRepository().UpdateServiceState(ctx, sub.ID, req.ProfileID, req.BillingProfileID, nextExpire); err != nil {
			return err
		}

		return uow.EventBus().Publish(events.ActivationSettledEvent{
			ActivationID:   activation.ID,
			SubscriberID:   sub.ID,
			PaymentMethod:  req.PaymentMethod,
			TransactionID:  activation.TransactionID,
			NextExpireDate: nextExpire,
			Actor:          actor,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ActivationsTotal.WithLabelValues(string(req.ActivationType), string(req.PaymentMethod)).Inc()
	log.WithFields(log.Fields{
		"activationId": activation.ID,
		"subscriberId": req.SubscriberID,
		"nextExpire":   activation.NextExpireDate,
	}).Info("Settled activation")
	return activation, nil
}

// computeExpiry picks the new expire date: an explicit date wins; otherwise
// the duration extends from the current expiry, or from now when the
// subscription has already lapsed.
func (s *ActivationService) computeExpiry(req SettleRequest, currentExpiry, now time.Time) time.Time {
	if req.NextExpireDate != nil {
		return *req.NextExpireDate
	}
	base := currentExpiry
	if now.After(base) {
		base = now
	}
	return base.AddDate(0, 0, req.DurationDays)
}

// Rollback reverses an activation that has not started being consumed: the
// subscriber's previous profile, billing profile and expiry come back and the
// record is marked rolled back. The funding wallet debit stays on the ledger;
// the result flags it for manual reconciliation.
func (s *ActivationService) Rollback(ctx context.Context, activationID int64, actor string) (*RollbackResult, error) {
	var result *RollbackResult
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		activation, err := uow.ActivationRepository().GetByID(ctx, activationID)
		if err != nil {
			return err
		}
		if activation == nil {
			return models.ErrActivationNotFound
		}
		if activation.Status == models.ActivationStatusRolledBack {
			return models.ErrPreconditionFailed
		}
		if activation.PeriodStarted(s.now()) {
			return models.ErrPreconditionFailed
		}

		if err := uow.SubscriberRepository().UpdateServiceState(ctx,
			activation.SubscriberID,
			activation.PreviousProfileID,
			activation.PreviousBillingProfileID,
			activation.PreviousExpireDate,
		); err != nil {
			return err
		}

		if err := uow.ActivationRepository().UpdateStatus(ctx, activationID, models.ActivationStatusRolledBack, true, actor); err != nil {
			return err
		}

		result = &RollbackResult{
			ActivationID:          activationID,
			WalletDebitUnreversed: activation.WalletFunded(),
			TransactionID:         activation.TransactionID,
		}

		return uow.EventBus().Publish(events.ActivationRolledBackEvent{
			ActivationID:          activationID,
			SubscriberID:          activation.SubscriberID,
			WalletDebitUnreversed: result.WalletDebitUnreversed,
			TransactionID:         activation.TransactionID,
			Actor:                 actor,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ActivationRollbacksTotal.Inc()
	if result.WalletDebitUnreversed {
		log.WithFields(log.Fields{
			"activationId":  activationID,
			"transactionId": *result.TransactionID,
		}).Warn("Activation rolled back, wallet debit left unreversed")
	}
	return result, nil
}

// Restore re-applies a rolled-back activation: the subscriber gets the
// activation's profile and expiry back and the record returns to completed.
// The same consumption guard applies as for rollback.
func (s *ActivationService) Restore(ctx context.Context, activationID int64, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		activation, err := uow.ActivationRepository().GetByID(ctx, activationID)
		if err != nil {
			return err
		}
		if activation == nil {
			return models.ErrActivationNotFound
		}
		if activation.Status != models.ActivationStatusRolledBack {
			return models.ErrPreconditionFailed
		}
		if activation.PeriodStarted(s.now()) {
			return models.ErrPreconditionFailed
		}

		if err := uow.SubscriberRepository().UpdateServiceState(ctx,
			activation.SubscriberID,
			activation.CurrentProfileID,
			activation.CurrentBillingProfileID,
			activation.NextExpireDate,
		); err != nil {
			return err
		}

		return uow.ActivationRepository().UpdateStatus(ctx, activationID, models.ActivationStatusCompleted, false, actor)
	})
}
