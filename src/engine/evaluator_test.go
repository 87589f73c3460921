package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finrules-server/src/models"
)

func testJournal() *models.Journal {
	categoryID := uuid.MustParse("6f1c9f5e-8c1c-4a2b-9d3e-111111111111")
	return &models.Journal{
		ID:            uuid.MustParse("b7d9a9a0-0000-4000-8000-222222222222"),
		OwnerID:       uuid.MustParse("c3e8b1d2-0000-4000-8000-333333333333"),
		Type:          models.TypeWithdrawal,
		Description:   "Rent September",
		Date:          time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString("-800.00"),
		Currency:      "EUR",
		CurrencyScale: 2,
		SourceAccount: models.AccountRef{
			ID:   uuid.MustParse("d4f1c2b3-0000-4000-8000-444444444444"),
			Name: "Checking Account",
		},
		DestinationAccount: models.AccountRef{
			ID:   uuid.MustParse("e5a2d3c4-0000-4000-8000-555555555555"),
			Name: "Landlord Properties",
		},
		CategoryID:   &categoryID,
		CategoryName: "Housing",
		Tags:         []string{"recurring"},
	}
}

func trigger(kind models.TriggerKind, value string) models.RuleTrigger {
	return models.RuleTrigger{ID: uuid.New(), Order: 1, Active: true, Kind: kind, Value: value}
}

func TestEvaluate_StringKinds(t *testing.T) {
	j := testJournal()
	tests := []struct {
		kind  models.TriggerKind
		value string
		want  bool
	}{
		{models.TriggerDescriptionIs, "rent september", true},
		{models.TriggerDescriptionIs, "rent", false},
		{models.TriggerDescriptionContains, "RENT", true},
		{models.TriggerDescriptionContains, "mortgage", false},
		{models.TriggerDescriptionStartsWith, "rent", true},
		{models.TriggerDescriptionStartsWith, "september", false},
		{models.TriggerDescriptionEndsWith, "September", true},
		{models.TriggerDescriptionEndsWith, "rent", false},
		{models.TriggerFromAccountIs, "checking account", true},
		{models.TriggerFromAccountContains, "check", true},
		{models.TriggerFromAccountStartsWith, "CHECK", true},
		{models.TriggerFromAccountEndsWith, "account", true},
		{models.TriggerToAccountIs, "Landlord Properties", true},
		{models.TriggerToAccountContains, "landlord", true},
		{models.TriggerToAccountStartsWith, "properties", false},
		{models.TriggerToAccountEndsWith, "properties", true},
		{models.TriggerTransactionType, "Withdrawal", true},
		{models.TriggerTransactionType, "deposit", false},
		{models.TriggerCategoryIs, "housing", true},
		{models.TriggerCategoryIs, "groceries", false},
		{models.TriggerHasTag, "Recurring", true},
		{models.TriggerHasTag, "reviewed", false},
		{models.TriggerHasNoCategory, "", false},
		{models.TriggerHasNoBudget, "", true},
		{models.TriggerBudgetIs, "monthly", false},
	}
	for _, tc := range tests {
		got, err := Evaluator{}.Evaluate(trigger(tc.kind, tc.value), j)
		if err != nil {
			t.Errorf("Evaluate(%s, %q) error = %v", tc.kind, tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Evaluate(%s, %q) = %v, want %v", tc.kind, tc.value, got, tc.want)
		}
	}
}

func TestEvaluate_AmountKinds(t *testing.T) {
	j := testJournal() // amount -800.00
	tests := []struct {
		kind  models.TriggerKind
		value string
		want  bool
	}{
		{models.TriggerAmountExactly, "-800", true},
		{models.TriggerAmountExactly, "-800.00", true},
		{models.TriggerAmountExactly, "-800.004", true}, // rounds to scale 2
		{models.TriggerAmountExactly, "800", false},
		{models.TriggerAmountLessThan, "0", true},
		{models.TriggerAmountLessThan, "-800", false},
		{models.TriggerAmountLessThan, "-799.99", true},
		{models.TriggerAmountMoreThan, "-1000", true},
		{models.TriggerAmountMoreThan, "0", false},
		// An unparseable bound can never match.
		{models.TriggerAmountMoreThan, "lots", false},
		{models.TriggerAmountExactly, "", false},
	}
	for _, tc := range tests {
		got, err := Evaluator{}.Evaluate(trigger(tc.kind, tc.value), j)
		if err != nil {
			t.Errorf("Evaluate(%s, %q) error = %v", tc.kind, tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Evaluate(%s, %q) = %v, want %v", tc.kind, tc.value, got, tc.want)
		}
	}
}

func TestEvaluate_UserAction(t *testing.T) {
	j := testJournal()
	got, err := Evaluator{}.Evaluate(trigger(models.TriggerUserAction, ""), j)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if got {
		t.Error("user_action matched outside the manual path")
	}

	got, err = Evaluator{Manual: true}.Evaluate(trigger(models.TriggerUserAction, ""), j)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if !got {
		t.Error("user_action did not match on the manual path")
	}
}

func TestEvaluate_UnsupportedKindFailsClosed(t *testing.T) {
	j := testJournal()
	got, err := Evaluator{}.Evaluate(trigger(models.TriggerKind("notes_contain"), "x"), j)
	if !errors.Is(err, ErrTriggerKindUnsupported) {
		t.Fatalf("error = %v, want ErrTriggerKindUnsupported", err)
	}
	if got {
		t.Error("unsupported kind evaluated true; must fail closed")
	}
}
