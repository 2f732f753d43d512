package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ispwallet/database"
	"ispwallet/models"
)

// WalletHistoryRepository implements the WalletHistoryRepository interface
type WalletHistoryRepository struct {
	q Queryable
}

// NewWalletHistoryRepository creates a new wallet history repository
func NewWalletHistoryRepository(db *database.DB) *WalletHistoryRepository {
	return &WalletHistoryRepository{q: db.Pool}
}

func newWalletHistoryRepository(tx Queryable) *WalletHistoryRepository {
	return &WalletHistoryRepository{q: tx}
}

const historyColumns = `
	id, wallet_id, wallet_type, user_id, amount_type, amount,
	balance_before, balance_after, description, created_at, created_by`

func scanHistory(row pgx.Row) (*models.WalletHistory, error) {
	var h models.WalletHistory
	err := row.Scan(
		&h.ID,
		&h.WalletID,
		&h.WalletType,
		&h.UserID,
		&h.AmountType,
		&h.Amount,
		&h.BalanceBefore,
		&h.BalanceAfter,
		&h.Description,
		&h.CreatedAt,
		&h.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Record appends a history row
func (r *WalletHistoryRepository) Record(ctx context.Context, history *models.WalletHistory) error {
	query := `
		INSERT INTO wallet_histories (
			wallet_id, wallet_type, user_id, amount_type, amount,
			balance_before, balance_after, description, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		history.WalletID,
		history.WalletType,
		history.UserID,
		history.AmountType,
		history.Amount,
		history.BalanceBefore,
		history.BalanceAfter,
		history.Description,
		history.CreatedBy,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record wallet history for wallet %d: %w", history.WalletID, err)
	}
	return nil
}

// GetByWallet returns history rows for a wallet, newest first
func (r *WalletHistoryRepository) GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.WalletHistory, error) {
	query := `SELECT` + historyColumns + `
		FROM wallet_histories
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for wallet %d: %w", walletID, err)
	}
	defer rows.Close()

	return collectHistories(rows)
}

// GetByDateRange returns history rows within a date range
func (r *WalletHistoryRepository) GetByDateRange(ctx context.Context, walletID int64, from, to time.Time) ([]*models.WalletHistory, error) {
	query := `SELECT` + historyColumns + `
		FROM wallet_histories
		WHERE wallet_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, walletID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for wallet %d in range: %w", walletID, err)
	}
	defer rows.Close()

	return collectHistories(rows)
}

func collectHistories(rows pgx.Rows) ([]*models.WalletHistory, error) {
	var histories []*models.WalletHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet history: %w", err)
		}
		histories = append(histories, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet histories: %w", err)
	}

	return histories, nil
}
