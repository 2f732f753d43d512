package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"ispwallet/database"
	"ispwallet/models"
)

// UserCashbackRepository implements the UserCashbackRepository interface
type UserCashbackRepository struct {
	q Queryable
}

// NewUserCashbackRepository creates a new user cashback repository
func NewUserCashbackRepository(db *database.DB) *UserCashbackRepository {
	return &UserCashbackRepository{q: db.Pool}
}

func newUserCashbackRepository(tx Queryable) *UserCashbackRepository {
	return &UserCashbackRepository{q: tx}
}

const userCashbackColumns = `
	id, user_id, billing_profile_id, amount, is_deleted, deleted_at, deleted_by,
	created_at, created_by, updated_at, updated_by`

func scanUserCashback(row pgx.Row) (*models.UserCashback, error) {
	var c models.UserCashback
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.BillingProfileID,
		&c.Amount,
		&c.IsDeleted,
		&c.DeletedAt,
		&c.DeletedBy,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.UpdatedAt,
		&c.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActive returns the non-deleted override for (user, profile)
func (r *UserCashbackRepository) GetActive(ctx context.Context, userID, billingProfileID int64) (*models.UserCashback, error) {
	query := `SELECT` + userCashbackColumns + `
		FROM user_cashbacks
		WHERE user_id = $1 AND billing_profile_id = $2 AND is_deleted = FALSE`

	c, err := scanUserCashback(r.q.QueryRow(ctx, query, userID, billingProfileID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cashback override for user %d profile %d: %w", userID, billingProfileID, err)
	}
	return c, nil
}

// GetActiveByUser returns all non-deleted overrides for a user
func (r *UserCashbackRepository) GetActiveByUser(ctx context.Context, userID int64) ([]*models.UserCashback, error) {
	query := `SELECT` + userCashbackColumns + `
		FROM user_cashbacks
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY billing_profile_id`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cashback overrides for user %d: %w", userID, err)
	}
	defer rows.Close()

	var overrides []*models.UserCashback
	for rows.Next() {
		c, err := scanUserCashback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cashback override: %w", err)
		}
		overrides = append(overrides, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cashback overrides: %w", err)
	}

	return overrides, nil
}

// Create inserts an override
func (r *UserCashbackRepository) Create(ctx context.Context, cashback *models.UserCashback) error {
	query := `
		INSERT INTO user_cashbacks (user_id, billing_profile_id, amount, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		cashback.UserID,
		cashback.BillingProfileID,
		cashback.Amount,
		cashback.CreatedBy,
	).Scan(&cashback.ID, &cashback.CreatedAt, &cashback.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create cashback override for user %d: %w", cashback.UserID, err)
	}
	cashback.UpdatedBy = cashback.CreatedBy
	return nil
}

// UpdateAmount updates an active override's amount in place
func (r *UserCashbackRepository) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal, actor string) error {
	query := `
		UPDATE user_cashbacks
		SET amount = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND is_deleted = FALSE
	`
	result, err := r.q.Exec(ctx, query, amount, actor, id)
	if err != nil {
		return fmt.Errorf("failed to update cashback override %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cashback override %d not found", id)
	}
	return nil
}

// SetDeleted flips the soft-delete markers
func (r *UserCashbackRepository) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	var result pgconn.CommandTag
	var err error
	if deleted {
		query := `
			UPDATE user_cashbacks
			SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1,
			    updated_at = NOW(), updated_by = $1
			WHERE id = $2 AND is_deleted = FALSE
		`
		result, err = r.q.Exec(ctx, query, actor, id)
	} else {
		query := `
			UPDATE user_cashbacks
			SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL,
			    updated_at = NOW(), updated_by = $1
			WHERE id = $2 AND is_deleted = TRUE
		`
		result, err = r.q.Exec(ctx, query, actor, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update deletion markers for cashback override %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cashback override %d not found", id)
	}
	return nil
}
