package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ispwallet/database"
	"ispwallet/models"
)

// CashbackGroupRepository implements the CashbackGroupRepository interface
type CashbackGroupRepository struct {
	q Queryable
}

// NewCashbackGroupRepository creates a new cashback group repository
func NewCashbackGroupRepository(db *database.DB) *CashbackGroupRepository {
	return &CashbackGroupRepository{q: db.Pool}
}

func newCashbackGroupRepository(tx Queryable) *CashbackGroupRepository {
	return &CashbackGroupRepository{q: tx}
}

const cashbackGroupColumns = `
	id, name, disabled, is_deleted, deleted_at, deleted_by,
	created_at, created_by, updated_at, updated_by`

func scanCashbackGroup(row pgx.Row) (*models.CashbackGroup, error) {
	var g models.CashbackGroup
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Disabled,
		&g.IsDeleted,
		&g.DeletedAt,
		&g.DeletedBy,
		&g.CreatedAt,
		&g.CreatedBy,
		&g.UpdatedAt,
		&g.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByID retrieves a group, including soft-deleted ones
func (r *CashbackGroupRepository) GetByID(ctx context.Context, id int64) (*models.CashbackGroup, error) {
	query := `SELECT` + cashbackGroupColumns + ` FROM cashback_groups WHERE id = $1`

	g, err := scanCashbackGroup(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cashback group %d: %w", id, err)
	}
	return g, nil
}

// Create inserts a group
func (r *CashbackGroupRepository) Create(ctx context.Context, group *models.CashbackGroup) error {
	query := `
		INSERT INTO cashback_groups (name, disabled, created_by, updated_by)
		VALUES ($1, $2, $3, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		group.Name,
		group.Disabled,
		group.CreatedBy,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create cashback group %q: %w", group.Name, err)
	}
	group.UpdatedBy = group.CreatedBy
	return nil
}

// SetDisabled toggles whether the group participates in resolution
func (r *CashbackGroupRepository) SetDisabled(ctx context.Context, id int64, disabled bool, actor string) error {
	query := `
		UPDATE cashback_groups
		SET disabled = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND is_deleted = FALSE
	`
	result, err := r.q.Exec(ctx, query, disabled, actor, id)
	if err != nil {
		return fmt.Errorf("failed to set disabled=%t on cashback group %d: %w", disabled, id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrCashbackGroupNotFound
	}
	return nil
}

// GetEnabledGroupsByUser returns the enabled, non-deleted groups a user belongs
// to through non-deleted memberships, ordered by group id so resolution ties
// break deterministically.
func (r *CashbackGroupRepository) GetEnabledGroupsByUser(ctx context.Context, userID int64) ([]*models.CashbackGroup, error) {
	query := `
		SELECT g.id, g.name, g.disabled, g.is_deleted, g.deleted_at, g.deleted_by,
		       g.created_at, g.created_by, g.updated_at, g.updated_by
		FROM cashback_groups g
		JOIN cashback_group_users gu ON gu.cashback_group_id = g.id
		WHERE gu.user_id = $1
		  AND gu.is_deleted = FALSE
		  AND g.is_deleted = FALSE
		  AND g.disabled = FALSE
		ORDER BY g.id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled cashback groups for user %d: %w", userID, err)
	}
	defer rows.Close()

	var groups []*models.CashbackGroup
	for rows.Next() {
		g, err := scanCashbackGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cashback group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cashback groups: %w", err)
	}

	return groups, nil
}

// AddUser creates or revives a group membership
func (r *CashbackGroupRepository) AddUser(ctx context.Context, groupID, userID int64, actor string) error {
	// Revive a soft-deleted membership if one exists; the partial unique index
	// forbids a second live row for the same pair.
	revive := `
		UPDATE cashback_group_users
		SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE cashback_group_id = $1 AND user_id = $2 AND is_deleted = TRUE
	`
	result, err := r.q.Exec(ctx, revive, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to revive membership of user %d in group %d: %w", userID, groupID, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	insert := `
		INSERT INTO cashback_group_users (cashback_group_id, user_id, created_by)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, groupID, userID, actor); err != nil {
		return fmt.Errorf("failed to add user %d to group %d: %w", userID, groupID, err)
	}
	return nil
}

// RemoveUser soft-deletes a group membership
func (r *CashbackGroupRepository) RemoveUser(ctx context.Context, groupID, userID int64, actor string) error {
	query := `
		UPDATE cashback_group_users
		SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1
		WHERE cashback_group_id = $2 AND user_id = $3 AND is_deleted = FALSE
	`
	result, err := r.q.Exec(ctx, query, actor, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove user %d from group %d: %w", userID, groupID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d is not a member of group %d", userID, groupID)
	}
	return nil
}
