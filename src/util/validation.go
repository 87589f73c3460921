package util

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finrules-server/src/models"
)

// ValidateTriggerValue checks that a trigger value makes sense for its
// kind before the rule is saved. Tautology is reported separately via
// MatchesAnything; this only rejects values the evaluator could never use.
func ValidateTriggerValue(kind models.TriggerKind, value string) error {
	trimmed := strings.TrimSpace(value)
	switch kind {
	case models.TriggerAmountExactly, models.TriggerAmountMoreThan, models.TriggerAmountLessThan:
		if trimmed == "" {
			return fmt.Errorf("%s requires an amount", kind)
		}
		if _, err := decimal.NewFromString(trimmed); err != nil {
			return fmt.Errorf("%s: %q is not a valid amount", kind, value)
		}
	case models.TriggerTransactionType:
		switch strings.ToLower(trimmed) {
		case string(models.TypeWithdrawal), string(models.TypeDeposit), string(models.TypeTransfer):
		default:
			return fmt.Errorf("%s: %q is not a transaction type", kind, value)
		}
	case models.TriggerHasNoCategory, models.TriggerHasNoBudget, models.TriggerUserAction:
		if trimmed != "" {
			return fmt.Errorf("%s takes no value", kind)
		}
	}
	return nil
}

// ValidateActionValue checks that an action value makes sense for its kind.
func ValidateActionValue(kind models.ActionKind, value string) error {
	trimmed := strings.TrimSpace(value)
	switch kind {
	case models.ActionSetCategory, models.ActionSetBudget, models.ActionAddTag,
		models.ActionRemoveTag, models.ActionSetDescription, models.ActionLinkToBill:
		if trimmed == "" {
			return fmt.Errorf("%s requires a value", kind)
		}
	case models.ActionClearCategory, models.ActionClearBudget, models.ActionClearTags:
		if trimmed != "" {
			return fmt.Errorf("%s takes no value", kind)
		}
	}
	return nil
}
