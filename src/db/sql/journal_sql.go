package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finrules-server/src/engine"
	"finrules-server/src/models"
)

const journalColumns = `
	j.id, j.owner_id, j.type, j.description, j.date, j.amount, j.currency, j.currency_scale,
	j.source_account_id, COALESCE(sa.name, ''),
	j.destination_account_id, COALESCE(da.name, ''),
	j.category_id, COALESCE(c.name, ''),
	j.budget_id, COALESCE(b.name, ''),
	j.tags, j.notes, j.bill_id, j.created_at, j.updated_at`

const journalJoins = `
	FROM journals j
	LEFT JOIN accounts sa ON j.source_account_id = sa.id
	LEFT JOIN accounts da ON j.destination_account_id = da.id
	LEFT JOIN categories c ON j.category_id = c.id
	LEFT JOIN budgets b ON j.budget_id = b.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJournal(row rowScanner) (*models.Journal, error) {
	var (
		j        models.Journal
		sourceID *uuid.UUID
		destID   *uuid.UUID
	)
	err := row.Scan(
		&j.ID, &j.OwnerID, &j.Type, &j.Description, &j.Date, &j.Amount, &j.Currency, &j.CurrencyScale,
		&sourceID, &j.SourceAccount.Name,
		&destID, &j.DestinationAccount.Name,
		&j.CategoryID, &j.CategoryName,
		&j.BudgetID, &j.BudgetName,
		&j.Tags, &j.Notes, &j.BillID, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sourceID != nil {
		j.SourceAccount.ID = *sourceID
	}
	if destID != nil {
		j.DestinationAccount.ID = *destID
	}
	return &j, nil
}

func GetJournalByID(ctx context.Context, pool *pgxpool.Pool, ownerID, journalID uuid.UUID) (*models.Journal, error) {
	query := `SELECT` + journalColumns + journalJoins + ` WHERE j.id = $1 AND j.owner_id = $2`
	return scanJournal(pool.QueryRow(ctx, query, journalID, ownerID))
}

func CreateJournal(ctx context.Context, pool *pgxpool.Pool, j *models.Journal) (*models.Journal, error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	query := `
		INSERT INTO journals (id, owner_id, type, description, date, amount, currency, currency_scale,
			source_account_id, destination_account_id, category_id, budget_id, tags, notes, bill_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := pool.Exec(ctx, query,
		j.ID, j.OwnerID, j.Type, j.Description, j.Date, j.Amount, j.Currency, j.Scale(),
		nilIfZero(j.SourceAccount.ID), nilIfZero(j.DestinationAccount.ID),
		j.CategoryID, j.BudgetID, j.Tags, j.Notes, j.BillID)
	if err != nil {
		return nil, err
	}
	return GetJournalByID(ctx, pool, j.OwnerID, j.ID)
}

func UpdateJournal(ctx context.Context, pool *pgxpool.Pool, j *models.Journal) (*models.Journal, error) {
	query := `
		UPDATE journals
		SET type = $1, description = $2, date = $3, amount = $4, currency = $5, currency_scale = $6,
			source_account_id = $7, destination_account_id = $8, updated_at = NOW()
		WHERE id = $9 AND owner_id = $10
	`
	cmd, err := pool.Exec(ctx, query,
		j.Type, j.Description, j.Date, j.Amount, j.Currency, j.Scale(),
		nilIfZero(j.SourceAccount.ID), nilIfZero(j.DestinationAccount.ID),
		j.ID, j.OwnerID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, fmt.Errorf("journal not found")
	}
	return GetJournalByID(ctx, pool, j.OwnerID, j.ID)
}

func GetAllJournalsForOwner(ctx context.Context, pool *pgxpool.Pool, ownerID uuid.UUID) ([]*models.Journal, error) {
	query := `SELECT` + journalColumns + journalJoins + `
		WHERE j.owner_id = $1
		ORDER BY j.date DESC, j.id DESC`
	rows, err := pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journals []*models.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, j)
	}
	return journals, rows.Err()
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// JournalScanner streams one owner's journals most-recent-first for the
// preview matcher. The query is capped at the scan budget so the database
// never materializes more rows than the matcher may inspect.
type JournalScanner struct {
	rows pgx.Rows
}

func NewJournalScanner(ctx context.Context, pool *pgxpool.Pool, ownerID uuid.UUID, maxScanned int) (*JournalScanner, error) {
	query := `SELECT` + journalColumns + journalJoins + `
		WHERE j.owner_id = $1
		ORDER BY j.date DESC, j.id DESC
		LIMIT $2`
	rows, err := pool.Query(ctx, query, ownerID, maxScanned+1)
	if err != nil {
		return nil, err
	}
	return &JournalScanner{rows: rows}, nil
}

func (s *JournalScanner) Next(ctx context.Context) (*models.Journal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rows.Next() {
		return nil, s.rows.Err()
	}
	return scanJournal(s.rows)
}

func (s *JournalScanner) Close() {
	s.rows.Close()
}

// LedgerStore is the ledger write path handed to the engine. Every lookup
// is owner-scoped and every write carries updated_at.
type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

func (s *LedgerStore) resolve(ctx context.Context, table string, ownerID uuid.UUID, name string) (uuid.UUID, error) {
	query := `SELECT id FROM ` + table + ` WHERE owner_id = $1 AND LOWER(name) = LOWER($2) AND deleted_at IS NULL`
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, query, ownerID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, engine.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *LedgerStore) ResolveCategory(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error) {
	return s.resolve(ctx, "categories", ownerID, name)
}

func (s *LedgerStore) ResolveBudget(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error) {
	return s.resolve(ctx, "budgets", ownerID, name)
}

func (s *LedgerStore) ResolveBill(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error) {
	return s.resolve(ctx, "bills", ownerID, name)
}

func (s *LedgerStore) setField(ctx context.Context, journalID uuid.UUID, assignment string, args ...any) error {
	query := `UPDATE journals SET ` + assignment + `, updated_at = NOW() WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, append([]any{journalID}, args...)...)
	return err
}

func (s *LedgerStore) SetCategory(ctx context.Context, journalID, categoryID uuid.UUID) error {
	return s.setField(ctx, journalID, "category_id = $2", categoryID)
}

func (s *LedgerStore) ClearCategory(ctx context.Context, journalID uuid.UUID) error {
	return s.setField(ctx, journalID, "category_id = NULL")
}

func (s *LedgerStore) SetBudget(ctx context.Context, journalID, budgetID uuid.UUID) error {
	return s.setField(ctx, journalID, "budget_id = $2", budgetID)
}

func (s *LedgerStore) ClearBudget(ctx context.Context, journalID uuid.UUID) error {
	return s.setField(ctx, journalID, "budget_id = NULL")
}

func (s *LedgerStore) AddTag(ctx context.Context, journalID uuid.UUID, tag string) error {
	query := `
		UPDATE journals SET tags = array_append(tags, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(tags))
	`
	_, err := s.pool.Exec(ctx, query, journalID, tag)
	return err
}

func (s *LedgerStore) RemoveTag(ctx context.Context, journalID uuid.UUID, tag string) error {
	return s.setField(ctx, journalID, "tags = array_remove(tags, $2)", tag)
}

func (s *LedgerStore) ClearTags(ctx context.Context, journalID uuid.UUID) error {
	return s.setField(ctx, journalID, "tags = '{}'")
}

func (s *LedgerStore) SetDescription(ctx context.Context, journalID uuid.UUID, description string) error {
	return s.setField(ctx, journalID, "description = $2", description)
}

func (s *LedgerStore) SetNotes(ctx context.Context, journalID uuid.UUID, notes string) error {
	return s.setField(ctx, journalID, "notes = $2", notes)
}

func (s *LedgerStore) LinkToBill(ctx context.Context, journalID, billID uuid.UUID) error {
	return s.setField(ctx, journalID, "bill_id = $2", billID)
}
