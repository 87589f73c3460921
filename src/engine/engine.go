package engine

import (
	"context"
	"fmt"
	"log/slog"

	"finrules-server/src/models"
)

// Engine walks an owner's rule graph for one journal: active groups in
// ascending order, their active rules in ascending order, each rule's
// triggers then actions. It holds no state of its own between runs.
type Engine struct {
	ledger Ledger
	logger *slog.Logger
}

func New(ledger Ledger, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{ledger: ledger, logger: logger}
}

// Run executes one orchestration pass for the journal in the given phase.
// The snapshot is treated as immutable for the duration of the run. A rule
// is eligible when its trigger_on matches the phase; a manual run makes
// every active rule eligible. A matched rule with stop_processing halts the
// whole run. Only a malformed snapshot is fatal; everything else is
// contained in the report.
func (e *Engine) Run(ctx context.Context, graph *models.RuleGraph, j *models.Journal, phase models.Phase) (*models.ExecutionReport, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("rule graph snapshot for owner %s: %w", graph.OwnerID, err)
	}

	eval := Evaluator{Manual: phase == models.PhaseManual}
	exec := NewExecutor(e.ledger, e.logger)
	report := &models.ExecutionReport{JournalID: j.ID, Phase: phase}

	for _, group := range graph.OrderedGroups() {
		if !group.Active {
			continue
		}
		for _, rule := range group.OrderedRules() {
			if !rule.Active {
				continue
			}
			if phase != models.PhaseManual && rule.TriggerOn != phase {
				continue
			}

			run := newRuleRun(rule, e.logger)
			rr := models.RuleReport{RuleID: rule.ID, GroupID: group.ID}
			if rr.Matched = run.evaluate(eval, j); rr.Matched {
				rr.Actions = run.execute(ctx, exec, j)
				if rule.StopProcessing {
					rr.HaltedRun = true
					report.Rules = append(report.Rules, rr)
					report.Halted = true
					e.logger.Info("rule halted engine run",
						"rule_id", rule.ID, "journal_id", j.ID, "phase", phase)
					return report, nil
				}
			}
			report.Rules = append(report.Rules, rr)
		}
	}
	return report, nil
}
