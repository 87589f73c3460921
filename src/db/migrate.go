package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist yet. Order columns are
// kept dense per scope by the store code, not by constraints.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS journals (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL DEFAULT 'EUR',
			currency_scale INT NOT NULL DEFAULT 2,
			source_account_id UUID,
			destination_account_id UUID,
			category_id UUID,
			budget_id UUID,
			tags TEXT[] NOT NULL DEFAULT '{}',
			notes TEXT NOT NULL DEFAULT '',
			bill_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_owner_date ON journals (owner_id, date DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS rule_groups (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			"order" INT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			id UUID PRIMARY KEY,
			group_id UUID NOT NULL REFERENCES rule_groups(id),
			owner_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			"order" INT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			stop_processing BOOLEAN NOT NULL DEFAULT FALSE,
			trigger_on TEXT NOT NULL DEFAULT 'on-create',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS rule_triggers (
			id UUID PRIMARY KEY,
			rule_id UUID NOT NULL REFERENCES rules(id),
			"order" INT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			trigger_kind TEXT NOT NULL,
			trigger_value TEXT NOT NULL DEFAULT '',
			stop_processing BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS rule_actions (
			id UUID PRIMARY KEY,
			rule_id UUID NOT NULL REFERENCES rules(id),
			"order" INT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			action_kind TEXT NOT NULL,
			action_value TEXT NOT NULL DEFAULT '',
			stop_processing BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
