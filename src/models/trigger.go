package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TriggerKind is the closed set of predicate kinds. Adding a kind means
// updating ParseTriggerKind, MatchesAnything and the engine evaluator.
type TriggerKind string

const (
	TriggerDescriptionIs         TriggerKind = "description_is"
	TriggerDescriptionContains   TriggerKind = "description_contains"
	TriggerDescriptionStartsWith TriggerKind = "description_starts_with"
	TriggerDescriptionEndsWith   TriggerKind = "description_ends_with"
	TriggerFromAccountIs         TriggerKind = "from_account_is"
	TriggerFromAccountContains   TriggerKind = "from_account_contains"
	TriggerFromAccountStartsWith TriggerKind = "from_account_starts_with"
	TriggerFromAccountEndsWith   TriggerKind = "from_account_ends_with"
	TriggerToAccountIs           TriggerKind = "to_account_is"
	TriggerToAccountContains     TriggerKind = "to_account_contains"
	TriggerToAccountStartsWith   TriggerKind = "to_account_starts_with"
	TriggerToAccountEndsWith     TriggerKind = "to_account_ends_with"
	TriggerAmountExactly         TriggerKind = "amount_exactly"
	TriggerAmountMoreThan        TriggerKind = "amount_more_than"
	TriggerAmountLessThan        TriggerKind = "amount_less_than"
	TriggerTransactionType       TriggerKind = "transaction_type"
	TriggerCategoryIs            TriggerKind = "category_is"
	TriggerBudgetIs              TriggerKind = "budget_is"
	TriggerHasTag                TriggerKind = "has_tag"
	TriggerHasNoCategory         TriggerKind = "has_no_category"
	TriggerHasNoBudget           TriggerKind = "has_no_budget"
	TriggerUserAction            TriggerKind = "user_action"
)

var triggerKinds = map[TriggerKind]struct{}{
	TriggerDescriptionIs:         {},
	TriggerDescriptionContains:   {},
	TriggerDescriptionStartsWith: {},
	TriggerDescriptionEndsWith:   {},
	TriggerFromAccountIs:         {},
	TriggerFromAccountContains:   {},
	TriggerFromAccountStartsWith: {},
	TriggerFromAccountEndsWith:   {},
	TriggerToAccountIs:           {},
	TriggerToAccountContains:     {},
	TriggerToAccountStartsWith:   {},
	TriggerToAccountEndsWith:     {},
	TriggerAmountExactly:         {},
	TriggerAmountMoreThan:        {},
	TriggerAmountLessThan:        {},
	TriggerTransactionType:       {},
	TriggerCategoryIs:            {},
	TriggerBudgetIs:              {},
	TriggerHasTag:                {},
	TriggerHasNoCategory:         {},
	TriggerHasNoBudget:           {},
	TriggerUserAction:            {},
}

func ParseTriggerKind(s string) (TriggerKind, error) {
	k := TriggerKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := triggerKinds[k]; !ok {
		return "", fmt.Errorf("unknown trigger kind %q", s)
	}
	return k, nil
}

// RuleTrigger is one predicate clause of a rule. StopProcessing is persisted
// authoring metadata and is ignored at matching time; a rule matches only
// when every active trigger evaluates true.
type RuleTrigger struct {
	ID             uuid.UUID   `json:"id"`
	RuleID         uuid.UUID   `json:"rule_id"`
	Order          int         `json:"order"`
	Active         bool        `json:"active"`
	Kind           TriggerKind `json:"trigger_kind"`
	Value          string      `json:"trigger_value"`
	StopProcessing bool        `json:"stop_processing"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// MatchesAnything reports whether the (kind, value) pair is satisfied by
// every possible journal. It is a static check on the pair, used by the
// authoring and preview paths to drop tautological triggers before any
// scanning happens. An empty amount bound is read as "no bound".
func (t RuleTrigger) MatchesAnything() bool {
	value := strings.TrimSpace(t.Value)
	switch t.Kind {
	case TriggerDescriptionContains,
		TriggerDescriptionStartsWith,
		TriggerDescriptionEndsWith,
		TriggerFromAccountContains,
		TriggerFromAccountStartsWith,
		TriggerFromAccountEndsWith,
		TriggerToAccountContains,
		TriggerToAccountStartsWith,
		TriggerToAccountEndsWith:
		return value == ""
	case TriggerAmountMoreThan, TriggerAmountLessThan:
		return value == ""
	default:
		// Exact matches, amount_exactly, tag/category/budget presence and
		// user_action are never satisfiable by every journal.
		return false
	}
}
