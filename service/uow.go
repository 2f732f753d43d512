package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ispwallet/metrics"
	"ispwallet/models"
)

// withUnitOfWork runs fn inside a transaction: Begin, fn, Commit; any error
// rolls back and discards pending events.
func withUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}

	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("Failed to rollback unit of work")
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("Failed to rollback unit of work after commit failure")
		}
		return fmt.Errorf("failed to commit unit of work: %w", err)
	}

	return nil
}

// withRetry re-runs a whole unit of work when the optimistic wallet version
// check loses a race. Each attempt re-reads the wallet, so the retry operates
// on fresh state.
func withRetry(ctx context.Context, factory UnitOfWorkFactory, maxAttempts int, fn func(uow UnitOfWork) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = withUnitOfWork(ctx, factory, fn)
		if err == nil || !errors.Is(err, models.ErrVersionConflict) {
			return err
		}

		metrics.VersionConflictsTotal.Inc()
		log.WithFields(log.Fields{
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
		}).Warn("Wallet version conflict, retrying")
	}
	return err
}
