package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ispwallet/database"
	"ispwallet/models"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepository(tx Queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `
	id, wallet_id, wallet_type, user_id, transaction_type, amount_type,
	amount, balance_before, balance_after, status, cashback_status,
	description, reference, is_deleted, deleted_at, deleted_by,
	created_at, created_by`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.WalletID,
		&t.WalletType,
		&t.UserID,
		&t.TransactionType,
		&t.AmountType,
		&t.Amount,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&t.Status,
		&t.CashbackStatus,
		&t.Description,
		&t.Reference,
		&t.IsDeleted,
		&t.DeletedAt,
		&t.DeletedBy,
		&t.CreatedAt,
		&t.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create appends a ledger entry. The entry's invariants are validated before
// the insert; a row that fails validation never reaches the database.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	query := `
		INSERT INTO wallet_transactions (
			wallet_id, wallet_type, user_id, transaction_type, amount_type,
			amount, balance_before, balance_after, status, cashback_status,
			description, reference, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		tx.WalletID,
		tx.WalletType,
		tx.UserID,
		tx.TransactionType,
		tx.AmountType,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.Status,
		tx.CashbackStatus,
		tx.Description,
		tx.Reference,
		tx.CreatedBy,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction for wallet %d: %w", tx.WalletID, err)
	}
	return nil
}

// GetByID retrieves a ledger entry
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return tx, nil
}

// GetByReference returns the non-deleted entry carrying the external
// correlation id. Used for idempotency checks on gateway callbacks.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM wallet_transactions
		WHERE reference = $1 AND is_deleted = FALSE
		ORDER BY id
		LIMIT 1`

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by reference %q: %w", reference, err)
	}
	return tx, nil
}

// GetByWallet returns recent entries for a wallet, newest first
func (r *TransactionRepository) GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for wallet %d: %w", walletID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// UpdateCashbackStatus transitions the cashback lifecycle of one entry. This
// is the only mutation permitted on ledger rows besides soft deletion.
func (r *TransactionRepository) UpdateCashbackStatus(ctx context.Context, id int64, status models.CashbackStatus) error {
	query := `
		UPDATE wallet_transactions
		SET cashback_status = $1
		WHERE id = $2 AND cashback_status IS NOT NULL AND is_deleted = FALSE
	`
	result, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update cashback status for transaction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrTransactionNotFound
	}
	return nil
}

// SetDeleted flips the soft-delete markers on a ledger row. Voided rows stay
// readable so the audit trail remains append-only.
func (r *TransactionRepository) SetDeleted(ctx context.Context, id int64, deleted bool, actor string) error {
	var result pgconn.CommandTag
	var err error
	if deleted {
		query := `
			UPDATE wallet_transactions
			SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1
			WHERE id = $2 AND is_deleted = FALSE
		`
		result, err = r.q.Exec(ctx, query, actor, id)
	} else {
		query := `
			UPDATE wallet_transactions
			SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
			WHERE id = $1 AND is_deleted = TRUE
		`
		result, err = r.q.Exec(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update deletion markers for transaction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrTransactionNotFound
	}
	return nil
}
