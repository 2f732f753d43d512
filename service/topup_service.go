package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"ispwallet/metrics"
	"ispwallet/models"
)

// Charge is the gateway-neutral view of a payment charge.
type Charge struct {
	ID       string
	Paid     bool
	Amount   int64 // minor units (satang/cents)
	Currency string
}

// ChargeGateway abstracts the payment provider used for wallet top-ups.
type ChargeGateway interface {
	// CreateCharge charges the given card token for amount minor units
	CreateCharge(ctx context.Context, amount int64, currency, cardToken, description string) (*Charge, error)

	// RetrieveCharge fetches the current state of a charge
	RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error)
}

// TopUpRequest carries one wallet top-up attempt.
type TopUpRequest struct {
	UserID      int64           `validate:"required,gt=0"`
	Amount      decimal.Decimal `validate:"required"`
	Currency    string          `validate:"required,len=3"`
	CardToken   string          `validate:"required"`
	Description string
}

// TopUpResult pairs the gateway charge with the ledger entry it produced, if
// the charge settled immediately.
type TopUpResult struct {
	Charge      *Charge
	Transaction *models.Transaction
}

// TopUpService credits wallets from external payments. Charges the gateway
// first, then records the credit; deferred payment methods settle later
// through ConfirmCharge.
type TopUpService struct {
	uowFactory UnitOfWorkFactory
	ledger     *LedgerService
	gateway    ChargeGateway
}

// NewTopUpService creates a new top-up service
func NewTopUpService(uowFactory UnitOfWorkFactory, ledger *LedgerService, gateway ChargeGateway) *TopUpService {
	return &TopUpService{
		uowFactory: uowFactory,
		ledger:     ledger,
		gateway:    gateway,
	}
}

// TopUp charges the gateway and, when the charge settles immediately, credits
// the user's wallet with a top_up entry referenced by the charge id.
func (s *TopUpService) TopUp(ctx context.Context, req TopUpRequest, actor string) (*TopUpResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, models.NewValidationError("", err.Error())
	}
	if !req.Amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be positive")
	}

	// Resolve the wallet before charging so a missing wallet never costs money.
	var walletID int64
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		wallet, err := uow.WalletRepository().GetActiveByUserID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return models.ErrWalletNotFound
		}
		walletID = wallet.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.CreateCharge(ctx, toMinorUnits(req.Amount), req.Currency, req.CardToken, req.Description)
	if err != nil {
		metrics.TopUpsTotal.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}

	result := &TopUpResult{Charge: charge}
	if !charge.Paid {
		metrics.TopUpsTotal.WithLabelValues("pending").Inc()
		log.WithFields(log.Fields{
			"chargeId": charge.ID,
			"userId":   req.UserID,
		}).Info("Top-up charge pending, awaiting confirmation")
		return result, nil
	}

	tx, err := s.ledger.Credit(ctx, walletID, req.Amount, models.TransactionTypeTopUp, req.Description, charge.ID, actor)
	if err != nil {
		// The money moved but the ledger write failed; ConfirmCharge can
		// replay this charge id safely.
		metrics.TopUpsTotal.WithLabelValues("credit_error").Inc()
		return nil, fmt.Errorf("charge %s succeeded but wallet credit failed: %w", charge.ID, err)
	}

	metrics.TopUpsTotal.WithLabelValues("ok").Inc()
	result.Transaction = tx
	return result, nil
}

// ConfirmCharge settles a deferred or replayed charge. It credits the wallet
// only when the gateway reports the charge paid AND no ledger entry carries
// the charge id yet, so webhook retries credit at most once. Deferred charges
// leave no ledger row behind, so the wallet owner comes from the caller; a
// replay for a different user than the recorded one is rejected.
func (s *TopUpService) ConfirmCharge(ctx context.Context, userID int64, chargeID, actor string) (*models.Transaction, error) {
	if chargeID == "" {
		return nil, models.NewValidationError("chargeId", "must not be empty")
	}

	charge, err := s.gateway.RetrieveCharge(ctx, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve charge %s: %w", chargeID, err)
	}
	if !charge.Paid {
		return nil, models.ErrPreconditionFailed
	}

	amount := fromMinorUnits(charge.Amount)

	var result *models.Transaction
	err = withRetry(ctx, s.uowFactory, s.ledger.maxRetries, func(uow UnitOfWork) error {
		result = nil

		existing, err := uow.TransactionRepository().GetByReference(ctx, chargeID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.UserID != nil && *existing.UserID != userID {
				return models.NewValidationError("userId", "charge is credited to a different user")
			}
			log.WithFields(log.Fields{
				"chargeId":      chargeID,
				"transactionId": existing.ID,
			}).Info("Charge already credited, skipping")
			result = existing
			return nil
		}

		wallet, err := uow.WalletRepository().GetActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return models.ErrWalletNotFound
		}

		tx, err := s.ledger.applyChange(ctx, uow, wallet, amount, models.AmountTypeCredit, models.TransactionTypeTopUp, "top up confirmation", chargeID, actor)
		if err != nil {
			return err
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TopUpsTotal.WithLabelValues("confirmed").Inc()
	return result, nil
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}
