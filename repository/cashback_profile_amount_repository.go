package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ispwallet/database"
	"ispwallet/models"
)

// CashbackProfileAmountRepository implements the CashbackProfileAmountRepository interface
type CashbackProfileAmountRepository struct {
	q Queryable
}

// NewCashbackProfileAmountRepository creates a new profile amount repository
func NewCashbackProfileAmountRepository(db *database.DB) *CashbackProfileAmountRepository {
	return &CashbackProfileAmountRepository{q: db.Pool}
}

func newCashbackProfileAmountRepository(tx Queryable) *CashbackProfileAmountRepository {
	return &CashbackProfileAmountRepository{q: tx}
}

const profileAmountColumns = `
	id, cashback_group_id, billing_profile_id, amount, is_deleted, deleted_at, deleted_by,
	created_at, created_by, updated_at, updated_by`

func scanProfileAmount(row pgx.Row) (*models.CashbackProfileAmount, error) {
	var a models.CashbackProfileAmount
	err := row.Scan(
		&a.ID,
		&a.CashbackGroupID,
		&a.BillingProfileID,
		&a.Amount,
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

// GetActive returns the non-deleted amount for (group, profile)
func (r *CashbackProfileAmountRepository) GetActive(ctx context.Context, groupID, billingProfileID int64) (*models.CashbackProfileAmount, error) {
	query := `SELECT` + profileAmountColumns + `
		FROM cashback_profile_amounts
		WHERE cashback_group_id = $1 AND billing_profile_id = $2 AND is_deleted = FALSE`

	a, err := scanProfileAmount(r.q.QueryRow(ctx, query, groupID, billingProfileID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cashback amount for group %d profile %d: %w", groupID, billingProfileID, err)
	}
	return a, nil
}

// GetActiveByGroup returns all non-deleted amounts for a group
func (r *CashbackProfileAmountRepository) GetActiveByGroup(ctx context.Context, groupID int64) ([]*models.CashbackProfileAmount, error) {
	query := `SELECT` + profileAmountColumns + `
		FROM cashback_profile_amounts
		WHERE cashback_group_id = $1 AND is_deleted = FALSE
		ORDER BY billing_profile_id`

	rows, err := r.q.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cashback amounts for group %d: %w", groupID, err)
	}
	defer rows.Close()

	var amounts []*models.CashbackProfileAmount
	for rows.Next() {
		a, err := scanProfileAmount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cashback amount: %w", err)
		}
		amounts = append(amounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cashback amounts: %w", err)
	}

	return amounts, nil
}

// Create inserts a group profile amount
func (r *CashbackProfileAmountRepository) Create(ctx context.Context, amount *models.CashbackProfileAmount) error {
	query := `
		INSERT INTO cashback_profile_amounts (cashback_group_id, billing_profile_id, amount, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		amount.CashbackGroupID,
		amount.BillingProfileID,
		amount.Amount,
		amount.CreatedBy,
	).Scan(&amount.ID, &amount.CreatedAt, &amount.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create cashback amount for group %d: %w", amount.CashbackGroupID, err)
	}
	amount.UpdatedBy = amount.CreatedBy
	return nil
}

// UpdateAmount updates an active row's amount in place
func (r *CashbackProfileAmountRepository) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal, actor string) error {
	query := `
		UPDATE cashback_profile_amounts
		SET amount = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND is_deleted = FALSE
	`
	result, err := r.q.Exec(ctx, query, amount, actor, id)
	if err != nil {
		return fmt.Errorf("failed to update cashback amount %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cashback amount %d not found", id)
	}
	return nil
}

// SetDeleted flips the soft-delete markers
func (r *CashbackProfileAmountRepository) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	var query string
	if deleted {
		query = `
			UPDATE cashback_profile_amounts
			SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1,
			    updated_at = NOW(), updated_by = $1
			WHERE id = $2 AND is_deleted = FALSE
		`
	} else {
		query = `
			UPDATE cashback_profile_amounts
			SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL,
			    updated_at = NOW(), updated_by = $1
			WHERE id = $2 AND is_deleted = TRUE
		`
	}
	result, err := r.q.Exec(ctx, query, actor, id)
	if err != nil {
		return fmt.Errorf("failed to update deletion markers for cashback amount %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cashback amount %d not found", id)
	}
	return nil
}
