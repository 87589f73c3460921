package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	cache "finrules-server/src/db"
	"finrules-server/src/engine"
	"finrules-server/src/models"
)

// testPool connects to TEST_DATABASE_URL and migrates the schema. Tests
// needing a database are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := cache.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestJournalRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ownerID := uuid.New()

	in := &models.Journal{
		OwnerID:       ownerID,
		Type:          models.TypeWithdrawal,
		Description:   "Grocery run",
		Date:          time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString("-42.17"),
		Currency:      "EUR",
		CurrencyScale: 2,
		Tags:          []string{"food"},
	}
	created, err := CreateJournal(ctx, pool, in)
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("created journal has nil id")
	}

	got, err := GetJournalByID(ctx, pool, ownerID, created.ID)
	if err != nil {
		t.Fatalf("GetJournalByID: %v", err)
	}
	if got.Description != "Grocery run" || !got.Amount.Equal(in.Amount) {
		t.Errorf("round trip lost data: %q %s", got.Description, got.Amount)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "food" {
		t.Errorf("tags = %v", got.Tags)
	}

	// Owner scoping: a different owner cannot see the journal.
	if _, err := GetJournalByID(ctx, pool, uuid.New(), created.ID); err == nil {
		t.Error("journal visible to foreign owner")
	}
}

func TestLedgerStore_TagWrites(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := CreateJournal(ctx, pool, &models.Journal{
		OwnerID:  ownerID,
		Type:     models.TypeWithdrawal,
		Date:     time.Now().UTC(),
		Amount:   decimal.RequireFromString("-5.00"),
		Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	store := NewLedgerStore(pool)
	if err := store.AddTag(ctx, created.ID, "coffee"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	// Duplicate add is a no-op, not a duplicate entry.
	if err := store.AddTag(ctx, created.ID, "coffee"); err != nil {
		t.Fatalf("AddTag twice: %v", err)
	}

	got, err := GetJournalByID(ctx, pool, ownerID, created.ID)
	if err != nil {
		t.Fatalf("GetJournalByID: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "coffee" {
		t.Fatalf("tags = %v, want [coffee]", got.Tags)
	}

	if err := store.RemoveTag(ctx, created.ID, "coffee"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	got, err = GetJournalByID(ctx, pool, ownerID, created.ID)
	if err != nil {
		t.Fatalf("GetJournalByID: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("tags = %v after remove", got.Tags)
	}
}

func TestLedgerStore_ResolveUnknownName(t *testing.T) {
	pool := testPool(t)
	store := NewLedgerStore(pool)

	_, err := store.ResolveCategory(context.Background(), uuid.New(), "does-not-exist")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("error = %v, want engine.ErrNotFound", err)
	}
}
