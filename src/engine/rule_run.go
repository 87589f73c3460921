package engine

import (
	"context"
	"errors"
	"log/slog"

	"finrules-server/src/models"
)

// RuleState tracks one rule's progress against one journal. Terminal states
// are RuleNotMatched and RuleCompleted.
type RuleState string

const (
	RulePending    RuleState = "pending"
	RuleEvaluating RuleState = "evaluating"
	RuleMatched    RuleState = "matched"
	RuleNotMatched RuleState = "not_matched"
	RuleExecuting  RuleState = "executing"
	RuleCompleted  RuleState = "completed"
)

// ruleRun is the state machine for one (rule, journal) pair.
type ruleRun struct {
	rule   models.Rule
	state  RuleState
	logger *slog.Logger
}

func newRuleRun(rule models.Rule, logger *slog.Logger) *ruleRun {
	return &ruleRun{rule: rule, state: RulePending, logger: logger}
}

// evaluate applies the active triggers in ascending order as a logical AND.
// Zero active triggers means the rule is inert and never matches. An
// unsupported trigger kind fails closed: the rule cannot match.
func (r *ruleRun) evaluate(eval Evaluator, j *models.Journal) bool {
	r.state = RuleEvaluating
	triggers := r.rule.ActiveTriggers()
	if len(triggers) == 0 {
		r.state = RuleNotMatched
		return false
	}
	for _, t := range triggers {
		ok, err := eval.Evaluate(t, j)
		if err != nil {
			if errors.Is(err, ErrTriggerKindUnsupported) {
				r.logger.Warn("trigger kind unsupported, treating as no match",
					"rule_id", r.rule.ID, "trigger_id", t.ID, "kind", t.Kind)
			} else {
				r.logger.Error("trigger evaluation failed",
					"rule_id", r.rule.ID, "trigger_id", t.ID, "error", err)
			}
			r.state = RuleNotMatched
			return false
		}
		if !ok {
			r.state = RuleNotMatched
			return false
		}
	}
	r.state = RuleMatched
	return true
}

// execute applies the active actions in ascending order. An action with
// stop_processing set stops the rest of this rule's actions once it
// succeeds; a fault never does, and never reverts earlier actions.
func (r *ruleRun) execute(ctx context.Context, exec *Executor, j *models.Journal) []models.ActionOutcome {
	r.state = RuleExecuting
	var outcomes []models.ActionOutcome
	for _, a := range r.rule.ActiveActions() {
		mutation, fault := exec.Apply(ctx, a, j)
		outcomes = append(outcomes, models.ActionOutcome{Mutation: mutation, Fault: fault})
		if a.StopProcessing && fault == nil {
			break
		}
	}
	r.state = RuleCompleted
	return outcomes
}
