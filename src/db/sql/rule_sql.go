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

func CreateRule(ctx context.Context, pool *pgxpool.Pool, rule *models.Rule) (*models.Rule, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// The parent group must exist for this owner.
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rule_groups WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL)`,
		rule.GroupID, rule.OwnerID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("rule group not found")
	}

	var nextOrder int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX("order"), 0) + 1 FROM rules WHERE group_id = $1 AND deleted_at IS NULL`,
		rule.GroupID).Scan(&nextOrder)
	if err != nil {
		return nil, err
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO rules (id, group_id, owner_id, title, description, "order", active, stop_processing, trigger_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rule.ID, rule.GroupID, rule.OwnerID, rule.Title, rule.Description, nextOrder,
		rule.Active, rule.StopProcessing, rule.TriggerOn)
	if err != nil {
		return nil, err
	}
	if err := insertTriggersAndActions(ctx, tx, rule); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	cache.ClearRuleGraphCache(rule.OwnerID)
	return GetRuleByID(ctx, pool, rule.OwnerID, rule.ID)
}

func insertTriggersAndActions(ctx context.Context, tx pgx.Tx, rule *models.Rule) error {
	for i, t := range rule.Triggers {
		id := t.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO rule_triggers (id, rule_id, "order", active, trigger_kind, trigger_value, stop_processing)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, rule.ID, i+1, t.Active, t.Kind, t.Value, t.StopProcessing)
		if err != nil {
			return err
		}
	}
	for i, a := range rule.Actions {
		id := a.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO rule_actions (id, rule_id, "order", active, action_kind, action_value, stop_processing)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, rule.ID, i+1, a.Active, a.Kind, a.Value, a.StopProcessing)
		if err != nil {
			return err
		}
	}
	return nil
}

func GetRuleByID(ctx context.Context, pool *pgxpool.Pool, ownerID, ruleID uuid.UUID) (*models.Rule, error) {
	query := `
		SELECT id, group_id, owner_id, title, description, "order", active, stop_processing, trigger_on, created_at, updated_at
		FROM rules
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	var r models.Rule
	err := pool.QueryRow(ctx, query, ruleID, ownerID).
		Scan(&r.ID, &r.GroupID, &r.OwnerID, &r.Title, &r.Description, &r.Order, &r.Active,
			&r.StopProcessing, &r.TriggerOn, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	triggersByRule, err := loadTriggers(ctx, pool, []uuid.UUID{r.ID})
	if err != nil {
		return nil, err
	}
	actionsByRule, err := loadActions(ctx, pool, []uuid.UUID{r.ID})
	if err != nil {
		return nil, err
	}
	r.Triggers = triggersByRule[r.ID]
	r.Actions = actionsByRule[r.ID]
	return &r, nil
}

func GetAllRulesForGroup(ctx context.Context, pool *pgxpool.Pool, ownerID, groupID uuid.UUID) ([]models.Rule, error) {
	query := `
		SELECT id, group_id, owner_id, title, description, "order", active, stop_processing, trigger_on, created_at, updated_at
		FROM rules
		WHERE group_id = $1 AND owner_id = $2 AND deleted_at IS NULL
		ORDER BY "order"
	`
	rows, err := pool.Query(ctx, query, groupID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.Rule
	var ids []uuid.UUID
	for rows.Next() {
		var r models.Rule
		err := rows.Scan(&r.ID, &r.GroupID, &r.OwnerID, &r.Title, &r.Description, &r.Order, &r.Active,
			&r.StopProcessing, &r.TriggerOn, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachChildren(ctx, pool, rules, ids); err != nil {
		return nil, err
	}
	return rules, nil
}

// UpdateRule replaces the rule row and its full trigger/action lists in one
// transaction. Authoring always submits the complete lists, so replacement
// keeps orders dense without diffing.
func UpdateRule(ctx context.Context, pool *pgxpool.Pool, rule *models.Rule) (*models.Rule, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE rules
		SET title = $1, description = $2, active = $3, stop_processing = $4, trigger_on = $5, updated_at = NOW()
		WHERE id = $6 AND owner_id = $7 AND deleted_at IS NULL`,
		rule.Title, rule.Description, rule.Active, rule.StopProcessing, rule.TriggerOn,
		rule.ID, rule.OwnerID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, fmt.Errorf("rule not found")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM rule_triggers WHERE rule_id = $1`, rule.ID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rule_actions WHERE rule_id = $1`, rule.ID); err != nil {
		return nil, err
	}
	if err := insertTriggersAndActions(ctx, tx, rule); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	cache.ClearRuleGraphCache(rule.OwnerID)
	return GetRuleByID(ctx, pool, rule.OwnerID, rule.ID)
}

func DeleteRule(ctx context.Context, pool *pgxpool.Pool, ownerID, ruleID uuid.UUID) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var groupID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE rules SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		 RETURNING group_id`,
		ruleID, ownerID).Scan(&groupID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("rule not found")
		}
		return err
	}
	if err := reindexRules(ctx, tx, groupID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	cache.ClearRuleGraphCache(ownerID)
	return nil
}

// MoveRule assigns the rule the given 1-based position within its group and
// reindexes the group's rules to a dense sequence.
func MoveRule(ctx context.Context, pool *pgxpool.Pool, ownerID, ruleID uuid.UUID, position int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var groupID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT group_id FROM rules WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		ruleID, ownerID).Scan(&groupID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("rule not found")
		}
		return err
	}

	ids, err := orderedRuleIDs(ctx, tx, groupID)
	if err != nil {
		return err
	}
	reordered, err := models.ReindexMove(ids, ruleID, position)
	if err != nil {
		return err
	}
	for i, id := range reordered {
		_, err := tx.Exec(ctx, `UPDATE rules SET "order" = $1, updated_at = NOW() WHERE id = $2`, i+1, id)
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

func orderedRuleIDs(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM rules WHERE group_id = $1 AND deleted_at IS NULL ORDER BY "order"`, groupID)
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

func reindexRules(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) error {
	ids, err := orderedRuleIDs(ctx, tx, groupID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		_, err := tx.Exec(ctx, `UPDATE rules SET "order" = $1, updated_at = NOW() WHERE id = $2`, i+1, id)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadTriggers(ctx context.Context, pool *pgxpool.Pool, ruleIDs []uuid.UUID) (map[uuid.UUID][]models.RuleTrigger, error) {
	query := `
		SELECT id, rule_id, "order", active, trigger_kind, trigger_value, stop_processing, created_at, updated_at
		FROM rule_triggers
		WHERE rule_id = ANY($1)
		ORDER BY rule_id, "order"
	`
	rows, err := pool.Query(ctx, query, ruleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.RuleTrigger)
	for rows.Next() {
		var t models.RuleTrigger
		err := rows.Scan(&t.ID, &t.RuleID, &t.Order, &t.Active, &t.Kind, &t.Value, &t.StopProcessing, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out[t.RuleID] = append(out[t.RuleID], t)
	}
	return out, rows.Err()
}

func loadActions(ctx context.Context, pool *pgxpool.Pool, ruleIDs []uuid.UUID) (map[uuid.UUID][]models.RuleAction, error) {
	query := `
		SELECT id, rule_id, "order", active, action_kind, action_value, stop_processing, created_at, updated_at
		FROM rule_actions
		WHERE rule_id = ANY($1)
		ORDER BY rule_id, "order"
	`
	rows, err := pool.Query(ctx, query, ruleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.RuleAction)
	for rows.Next() {
		var a models.RuleAction
		err := rows.Scan(&a.ID, &a.RuleID, &a.Order, &a.Active, &a.Kind, &a.Value, &a.StopProcessing, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out[a.RuleID] = append(out[a.RuleID], a)
	}
	return out, rows.Err()
}

func attachChildren(ctx context.Context, pool *pgxpool.Pool, rules []models.Rule, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	triggers, err := loadTriggers(ctx, pool, ids)
	if err != nil {
		return err
	}
	actions, err := loadActions(ctx, pool, ids)
	if err != nil {
		return err
	}
	for i := range rules {
		rules[i].Triggers = triggers[rules[i].ID]
		rules[i].Actions = actions[rules[i].ID]
	}
	return nil
}

// GetRuleGraph builds the full snapshot of one owner's active groups with
// their active rules, triggers and actions, ordered for the engine.
func GetRuleGraph(ctx context.Context, pool *pgxpool.Pool, ownerID uuid.UUID) (*models.RuleGraph, error) {
	groups, err := GetAllRuleGroups(ctx, pool, ownerID)
	if err != nil {
		return nil, err
	}

	graph := &models.RuleGraph{OwnerID: ownerID}
	for _, g := range groups {
		if !g.Active {
			continue
		}
		rules, err := GetAllRulesForGroup(ctx, pool, ownerID, g.ID)
		if err != nil {
			return nil, err
		}
		kept := rules[:0]
		for _, r := range rules {
			if r.Active {
				kept = append(kept, r)
			}
		}
		g.Rules = kept
		graph.Groups = append(graph.Groups, g)
	}
	return graph, nil
}

// GetRuleGraphSnapshot returns the cached snapshot for the owner, loading
// and caching it on a miss. Rule/group writes invalidate the cache, so the
// engine sees each edit on the next run while repeated journal writes reuse
// one snapshot.
func GetRuleGraphSnapshot(ctx context.Context, pool *pgxpool.Pool, ownerID uuid.UUID) (*models.RuleGraph, error) {
	if graph, ok := cache.GetRuleGraphCache(ownerID); ok {
		return graph, nil
	}
	graph, err := GetRuleGraph(ctx, pool, ownerID)
	if err != nil {
		return nil, err
	}
	cache.SetRuleGraphCache(ownerID, graph)
	return graph, nil
}
