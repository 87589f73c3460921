package models

import (
	"testing"
)

func TestParseTriggerKind_Known(t *testing.T) {
	kinds := []string{
		"description_is", "description_contains", "description_starts_with", "description_ends_with",
		"from_account_is", "from_account_contains", "from_account_starts_with", "from_account_ends_with",
		"to_account_is", "to_account_contains", "to_account_starts_with", "to_account_ends_with",
		"amount_exactly", "amount_more_than", "amount_less_than",
		"transaction_type", "category_is", "budget_is", "has_tag",
		"has_no_category", "has_no_budget", "user_action",
	}
	for _, s := range kinds {
		kind, err := ParseTriggerKind(s)
		if err != nil {
			t.Errorf("ParseTriggerKind(%q) error = %v, want nil", s, err)
		}
		if string(kind) != s {
			t.Errorf("ParseTriggerKind(%q) = %q", s, kind)
		}
	}
}

func TestParseTriggerKind_Unknown(t *testing.T) {
	for _, s := range []string{"", "description", "amount_equals", "DESCRIPTION CONTAINS"} {
		if _, err := ParseTriggerKind(s); err == nil {
			t.Errorf("ParseTriggerKind(%q) error = nil, want error", s)
		}
	}
}

func TestParseTriggerKind_NormalizesCase(t *testing.T) {
	kind, err := ParseTriggerKind("  Description_Contains ")
	if err != nil {
		t.Fatalf("ParseTriggerKind error = %v", err)
	}
	if kind != TriggerDescriptionContains {
		t.Errorf("got %q, want %q", kind, TriggerDescriptionContains)
	}
}

func TestMatchesAnything(t *testing.T) {
	tests := []struct {
		kind  TriggerKind
		value string
		want  bool
	}{
		{TriggerDescriptionContains, "", true},
		{TriggerDescriptionContains, "  ", true},
		{TriggerDescriptionContains, "rent", false},
		{TriggerDescriptionStartsWith, "", true},
		{TriggerDescriptionEndsWith, "", true},
		{TriggerFromAccountStartsWith, "", true},
		{TriggerToAccountContains, "", true},
		// An exact match against the empty string only matches empty
		// fields, not everything.
		{TriggerDescriptionIs, "", false},
		{TriggerFromAccountIs, "", false},
		// Empty amount bound reads as "no bound".
		{TriggerAmountMoreThan, "", true},
		{TriggerAmountLessThan, "", true},
		{TriggerAmountMoreThan, "-100", false},
		{TriggerAmountExactly, "", false},
		{TriggerHasTag, "", false},
		{TriggerHasNoCategory, "", false},
		{TriggerUserAction, "", false},
	}
	for _, tc := range tests {
		trigger := RuleTrigger{Kind: tc.kind, Value: tc.value}
		if got := trigger.MatchesAnything(); got != tc.want {
			t.Errorf("MatchesAnything(%s, %q) = %v, want %v", tc.kind, tc.value, got, tc.want)
		}
	}
}
