package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ispwallet/database"
	"ispwallet/models"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q Queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

func newWalletRepository(tx Queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

const walletColumns = `
	id, wallet_type, user_id, name, linked_wallet_id, current_balance,
	max_fill_limit, daily_spending_limit, status, allow_negative_balance,
	version, is_deleted, deleted_at, deleted_by,
	created_at, created_by, updated_at, updated_by`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(
		&w.ID,
		&w.WalletType,
		&w.UserID,
		&w.Name,
		&w.LinkedWalletID,
		&w.CurrentBalance,
		&w.MaxFillLimit,
		&w.DailySpendingLimit,
		&w.Status,
		&w.AllowNegativeBalance,
		&w.Version,
		&w.IsDeleted,
		&w.DeletedAt,
		&w.DeletedBy,
		&w.CreatedAt,
		&w.CreatedBy,
		&w.UpdatedAt,
		&w.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByID retrieves a wallet by its id. Soft-deleted wallets are returned too;
// callers decide whether deletion matters for the operation at hand.
func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	query := `SELECT` + walletColumns + ` FROM wallets WHERE id = $1`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet %d: %w", id, err)
	}
	return wallet, nil
}

// GetActiveByUserID retrieves a user's non-deleted wallet
func (r *WalletRepository) GetActiveByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	query := `SELECT` + walletColumns + `
		FROM wallets
		WHERE wallet_type = 'user' AND user_id = $1 AND is_deleted = FALSE`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}
	return wallet, nil
}

// Create inserts a wallet and fills its id, version and timestamps
func (r *WalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	query := `
		INSERT INTO wallets (
			wallet_type, user_id, name, linked_wallet_id, current_balance,
			max_fill_limit, daily_spending_limit, status, allow_negative_balance,
			created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id, version, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		wallet.WalletType,
		wallet.UserID,
		wallet.Name,
		wallet.LinkedWalletID,
		wallet.CurrentBalance,
		wallet.MaxFillLimit,
		wallet.DailySpendingLimit,
		wallet.Status,
		wallet.AllowNegativeBalance,
		wallet.CreatedBy,
	).Scan(&wallet.ID, &wallet.Version, &wallet.CreatedAt, &wallet.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	wallet.UpdatedBy = wallet.CreatedBy
	return nil
}

// UpdateBalance writes a new balance guarded by the optimistic version column.
// A stale version means a concurrent mutation won; the caller retries the
// whole unit of work.
func (r *WalletRepository) UpdateBalance(ctx context.Context, walletID int64, newBalance decimal.Decimal, expectedVersion int64, actor string) error {
	query := `
		UPDATE wallets
		SET current_balance = $1, version = version + 1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND version = $4 AND is_deleted = FALSE
	`
	result, err := r.q.Exec(ctx, query, newBalance, actor, walletID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update balance for wallet %d: %w", walletID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing wallet from a lost race
		existing, err := r.GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if existing == nil || existing.IsDeleted {
			return models.ErrWalletNotFound
		}
		return models.ErrVersionConflict
	}

	return nil
}

// SetDeleted flips the soft-delete markers. Deleting never zeroes the balance
// and never hides historical ledger rows.
func (r *WalletRepository) SetDeleted(ctx context.Context, walletID int64, deleted bool, actor string) error {
	var query string
	if deleted {
		query = `
			UPDATE wallets
			SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1,
			    updated_at = NOW(), updated_by = $1
			WHERE id = $2 AND is_deleted = FALSE
		`
	} else {
		query = `
			UPDATE wallets
			SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL,
			    updated_at = NOW(), updated_by = $1
			WHERE id = $2 AND is_deleted = TRUE
		`
	}

	result, err := r.q.Exec(ctx, query, actor, walletID)
	if err != nil {
		return fmt.Errorf("failed to update deletion markers for wallet %d: %w", walletID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrWalletNotFound
	}
	return nil
}
