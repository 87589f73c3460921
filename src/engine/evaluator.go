package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finrules-server/src/models"
)

// ErrTriggerKindUnsupported marks a trigger kind the evaluator does not
// recognize. The orchestrator treats it as "cannot match" (fail closed) and
// logs it; it is never a silent match or a silent skip.
var ErrTriggerKindUnsupported = errors.New("trigger kind unsupported")

// Evaluator decides whether one trigger matches one journal. It is a pure
// function of its inputs; Manual is set only on the explicit "apply rules
// now" path and is the sole thing user_action triggers look at.
type Evaluator struct {
	Manual bool
}

// Evaluate returns whether the trigger's predicate holds for the journal.
// String comparisons are case-insensitive; amounts compare as fixed-point
// decimals rounded to the journal's currency scale, never as floats. An
// unparseable amount bound cannot match.
func (e Evaluator) Evaluate(t models.RuleTrigger, j *models.Journal) (bool, error) {
	switch t.Kind {
	case models.TriggerDescriptionIs:
		return strings.EqualFold(j.Description, t.Value), nil
	case models.TriggerDescriptionContains:
		return containsFold(j.Description, t.Value), nil
	case models.TriggerDescriptionStartsWith:
		return hasPrefixFold(j.Description, t.Value), nil
	case models.TriggerDescriptionEndsWith:
		return hasSuffixFold(j.Description, t.Value), nil

	case models.TriggerFromAccountIs:
		return strings.EqualFold(j.SourceAccount.Name, t.Value), nil
	case models.TriggerFromAccountContains:
		return containsFold(j.SourceAccount.Name, t.Value), nil
	case models.TriggerFromAccountStartsWith:
		return hasPrefixFold(j.SourceAccount.Name, t.Value), nil
	case models.TriggerFromAccountEndsWith:
		return hasSuffixFold(j.SourceAccount.Name, t.Value), nil

	case models.TriggerToAccountIs:
		return strings.EqualFold(j.DestinationAccount.Name, t.Value), nil
	case models.TriggerToAccountContains:
		return containsFold(j.DestinationAccount.Name, t.Value), nil
	case models.TriggerToAccountStartsWith:
		return hasPrefixFold(j.DestinationAccount.Name, t.Value), nil
	case models.TriggerToAccountEndsWith:
		return hasSuffixFold(j.DestinationAccount.Name, t.Value), nil

	case models.TriggerAmountExactly:
		return compareAmount(j, t.Value, func(cmp int) bool { return cmp == 0 }), nil
	case models.TriggerAmountMoreThan:
		return compareAmount(j, t.Value, func(cmp int) bool { return cmp > 0 }), nil
	case models.TriggerAmountLessThan:
		return compareAmount(j, t.Value, func(cmp int) bool { return cmp < 0 }), nil

	case models.TriggerTransactionType:
		return strings.EqualFold(string(j.Type), t.Value), nil
	case models.TriggerCategoryIs:
		return j.CategoryID != nil && strings.EqualFold(j.CategoryName, t.Value), nil
	case models.TriggerBudgetIs:
		return j.BudgetID != nil && strings.EqualFold(j.BudgetName, t.Value), nil
	case models.TriggerHasTag:
		return j.HasTag(t.Value), nil
	case models.TriggerHasNoCategory:
		return j.CategoryID == nil, nil
	case models.TriggerHasNoBudget:
		return j.BudgetID == nil, nil

	case models.TriggerUserAction:
		return e.Manual, nil
	}
	return false, fmt.Errorf("%w: %q", ErrTriggerKindUnsupported, t.Kind)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
}

func compareAmount(j *models.Journal, bound string, ok func(cmp int) bool) bool {
	b, err := decimal.NewFromString(strings.TrimSpace(bound))
	if err != nil {
		return false
	}
	scale := j.Scale()
	return ok(j.Amount.Round(scale).Cmp(b.Round(scale)))
}
