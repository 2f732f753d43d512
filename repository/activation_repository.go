package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ispwallet/database"
	"ispwallet/models"
)

// ActivationRepository implements the ActivationRepository interface
type ActivationRepository struct {
	q Queryable
}

// NewActivationRepository creates a new activation repository
func NewActivationRepository(db *database.DB) *ActivationRepository {
	return &ActivationRepository{q: db.Pool}
}

func newActivationRepository(tx Queryable) *ActivationRepository {
	return &ActivationRepository{q: tx}
}

const activationColumns = `
	id, subscriber_id, activation_type, status, payment_method, transaction_id,
	previous_expire_date, previous_profile_id, previous_billing_profile_id, previous_balance,
	next_expire_date, current_profile_id, current_billing_profile_id,
	amount, duration_days, description,
	is_deleted, deleted_at, deleted_by,
	created_at, created_by, updated_at, updated_by`

func scanActivation(row pgx.Row) (*models.RadiusActivation, error) {
	var a models.RadiusActivation
	err := row.Scan(
		&a.ID,
		&a.SubscriberID,
		&a.ActivationType,
		&a.Status,
		&a.PaymentMethod,
		&a.TransactionID,
		&a.PreviousExpireDate,
		&a.PreviousProfileID,
		&a.PreviousBillingProfileID,
		&a.PreviousBalance,
		&a.NextExpireDate,
		&a.CurrentProfileID,
		&a.CurrentBillingProfileID,
		&a.Amount,
		&a.DurationDays,
		&a.Description,
		&a.IsDeleted,
		&a.DeletedAt,
		&a.DeletedBy,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.UpdatedAt,
		&a.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an activation record
func (r *ActivationRepository) Create(ctx context.Context, activation *models.RadiusActivation) error {
	query := `
		INSERT INTO radius_activations (
			subscriber_id, activation_type, status, payment_method, transaction_id,
			previous_expire_date, previous_profile_id, previous_billing_profile_id, previous_balance,
			next_expire_date, current_profile_id, current_billing_profile_id,
			amount, duration_days, description, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		activation.SubscriberID,
		activation.ActivationType,
		activation.Status,
		activation.PaymentMethod,
		activation.TransactionID,
		activation.PreviousExpireDate,
		activation.PreviousProfileID,
		activation.PreviousBillingProfileID,
		activation.PreviousBalance,
		activation.NextExpireDate,
		activation.CurrentProfileID,
		activation.CurrentBillingProfileID,
		activation.Amount,
		activation.DurationDays,
		activation.Description,
		activation.CreatedBy,
	).Scan(&activation.ID, &activation.CreatedAt, &activation.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create activation for subscriber %d: %w", activation.SubscriberID, err)
	}
	activation.UpdatedBy = activation.CreatedBy
	return nil
}

// GetByID retrieves an activation, including soft-deleted ones
func (r *ActivationRepository) GetByID(ctx context.Context, id int64) (*models.RadiusActivation, error) {
	query := `SELECT` + activationColumns + ` FROM radius_activations WHERE id = $1`

	a, err := scanActivation(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activation %d: %w", id, err)
	}
	return a, nil
}

// GetBySubscriber returns recent activations for a subscriber, newest first
func (r *ActivationRepository) GetBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*models.RadiusActivation, error) {
	query := `SELECT` + activationColumns + `
		FROM radius_activations
		WHERE subscriber_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get activations for subscriber %d: %w", subscriberID, err)
	}
	defer rows.Close()

	var activations []*models.RadiusActivation
	for rows.Next() {
		a, err := scanActivation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activation: %w", err)
		}
		activations = append(activations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activations: %w", err)
	}

	return activations, nil
}

// UpdateStatus writes the lifecycle status and the soft-delete markers in one
// statement. Rollback marks the record rolled_back and soft-deletes it; restore
// reverses both.
func (r *ActivationRepository) UpdateStatus(ctx context.Context, id int64, status models.ActivationStatus, deleted bool, actor string) error {
	var query string
	if deleted {
		query = `
			UPDATE radius_activations
			SET status = $1, is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2,
			    updated_at = NOW(), updated_by = $2
			WHERE id = $3
		`
	} else {
		query = `
			UPDATE radius_activations
			SET status = $1, is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL,
			    updated_at = NOW(), updated_by = $2
			WHERE id = $3
		`
	}
	result, err := r.q.Exec(ctx, query, status, actor, id)
	if err != nil {
		return fmt.Errorf("failed to update status for activation %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrActivationNotFound
	}
	return nil
}
