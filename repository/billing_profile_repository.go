package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ispwallet/database"
	"ispwallet/models"
)

// BillingProfileRepository implements the BillingProfileRepository interface
type BillingProfileRepository struct {
	q Queryable
}

// NewBillingProfileRepository creates a new billing profile repository
func NewBillingProfileRepository(db *database.DB) *BillingProfileRepository {
	return &BillingProfileRepository{q: db.Pool}
}

func newBillingProfileRepository(tx Queryable) *BillingProfileRepository {
	return &BillingProfileRepository{q: tx}
}

// GetByID retrieves a billing profile by id
func (r *BillingProfileRepository) GetByID(ctx context.Context, id int64) (*models.BillingProfile, error) {
	query := `SELECT id, name, price, created_at FROM billing_profiles WHERE id = $1`

	var p models.BillingProfile
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing profile %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a billing profile and fills its id
func (r *BillingProfileRepository) Create(ctx context.Context, profile *models.BillingProfile) error {
	query := `
		INSERT INTO billing_profiles (name, price)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, profile.Name, profile.Price).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create billing profile %q: %w", profile.Name, err)
	}
	return nil
}
