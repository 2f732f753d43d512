package service

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"ispwallet/events"
	"ispwallet/metrics"
	"ispwallet/models"
)

// ProfileAmount pairs a billing profile with a cashback amount for the
// set-reconciliation save operations.
type ProfileAmount struct {
	BillingProfileID int64
	Amount           decimal.Decimal
}

// CashbackService resolves and manages cashback configuration and composes
// awards on top of the ledger.
type CashbackService struct {
	uowFactory UnitOfWorkFactory
	ledger     *LedgerService
}

// NewCashbackService creates a new cashback service
func NewCashbackService(uowFactory UnitOfWorkFactory, ledger *LedgerService) *CashbackService {
	return &CashbackService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

// Resolve computes the effective cashback for a user on a billing profile.
// Priority: individual override, then enabled group membership, then nothing.
// Resolution is read-only and absence is not an error.
func (s *CashbackService) Resolve(ctx context.Context, userID, billingProfileID int64) (models.ResolvedCashback, error) {
	var resolved models.ResolvedCashback
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		r, err := s.resolve(ctx, uow, userID, billingProfileID)
		if err != nil {
			return err
		}
		resolved = r
		return nil
	})
	if err != nil {
		return models.NoCashback(), err
	}
	return resolved, nil
}

func (s *CashbackService) resolve(ctx context.Context, uow UnitOfWork, userID, billingProfileID int64) (models.ResolvedCashback, error) {
	override, err := uow.UserCashbackRepository().GetActive(ctx, userID, billingProfileID)
	if err != nil {
		return models.NoCashback(), err
	}
	if override != nil && override.Amount.IsPositive() {
		return models.ResolvedCashback{Amount: override.Amount, Source: models.CashbackSourceIndividual}, nil
	}

	groups, err := uow.CashbackGroupRepository().GetEnabledGroupsByUser(ctx, userID)
	if err != nil {
		return models.NoCashback(), err
	}
	if len(groups) > 1 {
		log.WithFields(log.Fields{
			"userId":     userID,
			"groupCount": len(groups),
			"chosen":     groups[0].ID,
		}).Warn("User belongs to multiple enabled cashback groups, using lowest id")
	}
	// Groups come back ordered by id; the first one carrying an amount for
	// this profile wins.
	for _, group := range groups {
		amount, err := uow.CashbackProfileAmountRepository().GetActive(ctx, group.ID, billingProfileID)
		if err != nil {
			return models.NoCashback(), err
		}
		if amount != nil && amount.Amount.IsPositive() {
			return models.ResolvedCashback{Amount: amount.Amount, Source: models.CashbackSourceGroup}, nil
		}
	}

	return models.NoCashback(), nil
}

// SaveUserAmounts reconciles a user's per-profile overrides: a positive amount
// upserts the active row, a zero or negative amount soft-deletes it, and
// profiles not mentioned are untouched. Safe to replay.
func (s *CashbackService) SaveUserAmounts(ctx context.Context, userID int64, amounts []ProfileAmount, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		repo := uow.UserCashbackRepository()
		for _, pa := range amounts {
			existing, err := repo.GetActive(ctx, userID, pa.BillingProfileID)
			if err != nil {
				return err
			}

			switch {
			case pa.Amount.IsPositive() && existing == nil:
				err = repo.Create(ctx, &models.UserCashback{
					UserID:           userID,
					BillingProfileID: pa.BillingProfileID,
					Amount:           pa.Amount,
					CreatedBy:        actor,
					UpdatedBy:        actor,
				})
			case pa.Amount.IsPositive():
				if !existing.Amount.Equal(pa.Amount) {
					err = repo.UpdateAmount(ctx, existing.ID, pa.Amount, actor)
				}
			case existing != nil:
				err = repo.SetDeleted(ctx, existing.ID, true, actor)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveGroupAmounts reconciles a group's per-profile amounts with the same
// semantics as SaveUserAmounts.
func (s *CashbackService) SaveGroupAmounts(ctx context.Context, groupID int64, amounts []ProfileAmount, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		group, err := uow.CashbackGroupRepository().GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil || group.IsDeleted {
			return models.ErrCashbackGroupNotFound
		}

		repo := uow.CashbackProfileAmountRepository()
		for _, pa := range amounts {
			existing, err := repo.GetActive(ctx, groupID, pa.BillingProfileID)
			if err != nil {
				return err
			}

			switch {
			case pa.Amount.IsPositive() && existing == nil:
				err = repo.Create(ctx, &models.CashbackProfileAmount{
					CashbackGroupID:  groupID,
					BillingProfileID: pa.BillingProfileID,
					Amount:           pa.Amount,
					CreatedBy:        actor,
					UpdatedBy:        actor,
				})
			case pa.Amount.IsPositive():
				if !existing.Amount.Equal(pa.Amount) {
					err = repo.UpdateAmount(ctx, existing.ID, pa.Amount, actor)
				}
			case existing != nil:
				err = repo.SetDeleted(ctx, existing.ID, true, actor)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateGroup creates an enabled cashback group.
func (s *CashbackService) CreateGroup(ctx context.Context, name string, actor string) (*models.CashbackGroup, error) {
	if name == "" {
		return nil, models.NewValidationError("name", "must not be empty")
	}

	var group *models.CashbackGroup
	err := withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		group = &models.CashbackGroup{
			Name:      name,
			CreatedBy: actor,
			UpdatedBy: actor,
		}
		return uow.CashbackGroupRepository().Create(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// SetGroupDisabled suppresses or re-enables a group in resolution without
// touching its memberships or amounts.
func (s *CashbackService) SetGroupDisabled(ctx context.Context, groupID int64, disabled bool, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		return uow.CashbackGroupRepository().SetDisabled(ctx, groupID, disabled, actor)
	})
}

// AddUserToGroup adds a user to a group. Membership in several enabled groups
// is allowed but ambiguous, so it draws a warning.
func (s *CashbackService) AddUserToGroup(ctx context.Context, groupID, userID int64, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		group, err := uow.CashbackGroupRepository().GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil || group.IsDeleted {
			return models.ErrCashbackGroupNotFound
		}

		existing, err := uow.CashbackGroupRepository().GetEnabledGroupsByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, g := range existing {
			if g.ID != groupID {
				log.WithFields(log.Fields{
					"userId":        userID,
					"existingGroup": g.ID,
					"newGroup":      groupID,
				}).Warn("User already belongs to another enabled cashback group")
				break
			}
		}

		return uow.CashbackGroupRepository().AddUser(ctx, groupID, userID, actor)
	})
}

// RemoveUserFromGroup soft-deletes a membership.
func (s *CashbackService) RemoveUserFromGroup(ctx context.Context, groupID, userID int64, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		return uow.CashbackGroupRepository().RemoveUser(ctx, groupID, userID, actor)
	})
}

// AwardCashback resolves the user's cashback for a billing profile and, when
// positive, credits the user's wallet with a pending cashback entry. A zero
// resolution is a no-op, not an error.
func (s *CashbackService) AwardCashback(ctx context.Context, userID, billingProfileID int64, reference, actor string) (*models.Transaction, error) {
	var result *models.Transaction
	err := withRetry(ctx, s.uowFactory, s.ledger.maxRetries, func(uow UnitOfWork) error {
		result = nil

		resolved, err := s.resolve(ctx, uow, userID, billingProfileID)
		if err != nil {
			return err
		}
		if !resolved.Amount.IsPositive() {
			return nil
		}

		wallet, err := uow.WalletRepository().GetActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return models.ErrWalletNotFound
		}

		tx, err := s.ledger.applyChange(ctx, uow, wallet, resolved.Amount, models.AmountTypeCredit, models.TransactionTypeCashback, "cashback award", reference, actor)
		if err != nil {
			return err
		}
		result = tx

		metrics.CashbackAwardedTotal.WithLabelValues(resolved.Source.String()).Inc()
		return uow.EventBus().Publish(events.CashbackAwardedEvent{
			UserID:           userID,
			BillingProfileID: billingProfileID,
			TransactionID:    tx.ID,
			Amount:           resolved.Amount,
			Source:           resolved.Source,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CollectCashback transitions a pending cashback entry to collected. Only
// pending entries transition; anything else, including entries parked in
// approval, refuses.
func (s *CashbackService) CollectCashback(ctx context.Context, transactionID int64, actor string) error {
	return withUnitOfWork(ctx, s.uowFactory, func(uow UnitOfWork) error {
		tx, err := uow.TransactionRepository().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx == nil || tx.IsDeleted {
			return models.ErrTransactionNotFound
		}
		if tx.CashbackStatus == nil {
			return models.NewValidationError("transactionId", "transaction carries no cashback lifecycle")
		}
		if *tx.CashbackStatus != models.CashbackStatusPending {
			return models.ErrPreconditionFailed
		}

		return uow.TransactionRepository().UpdateCashbackStatus(ctx, transactionID, models.CashbackStatusCollected)
	})
}
