package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cache "finrules-server/src/db"
	"finrules-server/src/models"
)

func CreateRuleGroup(ctx context.Context, pool *pgxpool.Pool, group *models.RuleGroup) (*models.RuleGroup, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	// New groups go to the end of the owner's dense sequence.
	var nextOrder int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX("order"), 0) + 1 FROM rule_groups WHERE owner_id = $1 AND deleted_at IS NULL`,
		group.OwnerID).Scan(&nextOrder)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO rule_groups (id, owner_id, title, description, "order", active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, title, description, "order", active, created_at, updated_at
	`
	var g models.RuleGroup
	err = tx.QueryRow(ctx, query, group.ID, group.OwnerID, group.Title, group.Description, nextOrder, group.Active).
		Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Order, &g.Active, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	cache.ClearRuleGraphCache(g.OwnerID)
	return &g, nil
}

func GetRuleGroupByID(ctx context.Context, pool *pgxpool.Pool, ownerID, groupID uuid.UUID) (*models.RuleGroup, error) {
	query := `
		SELECT id, owner_id, title, description, "order", active, created_at, updated_at
		FROM rule_groups
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	var g models.RuleGroup
	err := pool.QueryRow(ctx, query, groupID, ownerID).
		Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Order, &g.Active, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func GetAllRuleGroups(ctx context.Context, pool *pgxpool.Pool, ownerID uuid.UUID) ([]models.RuleGroup, error) {
	query := `
		SELECT id, owner_id, title, description, "order", active, created_at, updated_at
		FROM rule_groups
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY "order"
	`
	rows, err := pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.RuleGroup
	for rows.Next() {
		var g models.RuleGroup
		err := rows.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Order, &g.Active, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func UpdateRuleGroup(ctx context.Context, pool *pgxpool.Pool, group *models.RuleGroup) (*models.RuleGroup, error) {
	query := `
		UPDATE rule_groups
		SET title = $1, description = $2, active = $3, updated_at = NOW()
		WHERE id = $4 AND owner_id = $5 AND deleted_at IS NULL
		RETURNING id, owner_id, title, description, "order", active, created_at, updated_at
	`
	var g models.RuleGroup
	err := pool.QueryRow(ctx, query, group.Title, group.Description, group.Active, group.ID, group.OwnerID).
		Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Order, &g.Active, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	cache.ClearRuleGraphCache(g.OwnerID)
	return &g, nil
}

// DeleteRuleGroup soft-deletes the group and all of its rules, then closes
// the gap so the owner's remaining groups stay densely ordered from 1.
func DeleteRuleGroup(ctx context.Context, pool *pgxpool.Pool, ownerID, groupID uuid.UUID) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`UPDATE rule_groups SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		groupID, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("rule group not found")
	}
	_, err = tx.Exec(ctx,
		`UPDATE rules SET deleted_at = NOW(), updated_at = NOW() WHERE group_id = $1 AND deleted_at IS NULL`,
		groupID)
	if err != nil {
		return err
	}
	if err := reindexGroups(ctx, tx, ownerID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	cache.ClearRuleGraphCache(ownerID)
	return nil
}

// MoveRuleGroup assigns the group the given 1-based position within the
// owner's groups and reindexes the whole scope to a dense sequence.
func MoveRuleGroup(ctx context.Context, pool *pgxpool.Pool, ownerID, groupID uuid.UUID, position int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ids, err := orderedGroupIDs(ctx, tx, ownerID)
	if err != nil {
		return err
	}
	reordered, err := models.ReindexMove(ids, groupID, position)
	if err != nil {
		return err
	}
	for i, id := range reordered {
		_, err := tx.Exec(ctx,
			`UPDATE rule_groups SET "order" = $1, updated_at = NOW() WHERE id = $2`, i+1, id)
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	cache.ClearRuleGraphCache(ownerID)
	return nil
}

func orderedGroupIDs(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM rule_groups WHERE owner_id = $1 AND deleted_at IS NULL ORDER BY "order"`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func reindexGroups(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) error {
	ids, err := orderedGroupIDs(ctx, tx, ownerID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		_, err := tx.Exec(ctx,
			`UPDATE rule_groups SET "order" = $1, updated_at = NOW() WHERE id = $2`, i+1, id)
		if err != nil {
			return err
		}
	}
	return nil
}
