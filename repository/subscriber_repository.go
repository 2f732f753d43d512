package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ispwallet/database"
	"ispwallet/models"
)

// SubscriberRepository implements the SubscriberRepository interface
type SubscriberRepository struct {
	q Queryable
}

// NewSubscriberRepository creates a new subscriber repository
func NewSubscriberRepository(db *database.DB) *SubscriberRepository {
	return &SubscriberRepository{q: db.Pool}
}

func newSubscriberRepository(tx Queryable) *SubscriberRepository {
	return &SubscriberRepository{q: tx}
}

// GetByID retrieves a subscriber by id
func (r *SubscriberRepository) GetByID(ctx context.Context, id int64) (*models.Subscriber, error) {
	query := `
		SELECT id, username, profile_id, billing_profile_id, expire_date,
		       status, created_at, updated_at
		FROM subscribers
		WHERE id = $1
	`

	var s models.Subscriber
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Username,
		&s.ProfileID,
		&s.BillingProfileID,
		&s.ExpireDate,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber %d: %w", id, err)
	}
	return &s, nil
}

// Create inserts a subscriber and fills its id and timestamps
func (r *SubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	query := `
		INSERT INTO subscribers (username, profile_id, billing_profile_id, expire_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		sub.Username,
		sub.ProfileID,
		sub.BillingProfileID,
		sub.ExpireDate,
		sub.Status,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subscriber %q: %w", sub.Username, err)
	}
	return nil
}

// UpdateServiceState writes the live profile/billing-profile/expiry fields.
// The activation record keeps the authoritative history; these columns are the
// denormalized current state.
func (r *SubscriberRepository) UpdateServiceState(ctx context.Context, id int64, profileID, billingProfileID int64, expireDate time.Time) error {
	query := `
		UPDATE subscribers
		SET profile_id = $1, billing_profile_id = $2, expire_date = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.q.Exec(ctx, query, profileID, billingProfileID, expireDate, id)
	if err != nil {
		return fmt.Errorf("failed to update service state for subscriber %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
