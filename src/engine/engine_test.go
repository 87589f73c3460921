package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"finrules-server/src/models"
)

func makeRule(ownerID, groupID uuid.UUID, order int, triggers []models.RuleTrigger, actions []models.RuleAction) models.Rule {
	rule := models.Rule{
		ID:        uuid.New(),
		GroupID:   groupID,
		OwnerID:   ownerID,
		Title:     "rule",
		Order:     order,
		Active:    true,
		TriggerOn: models.PhaseCreate,
	}
	for i := range triggers {
		triggers[i].RuleID = rule.ID
		triggers[i].Order = i + 1
	}
	for i := range actions {
		actions[i].RuleID = rule.ID
		actions[i].Order = i + 1
	}
	rule.Triggers = triggers
	rule.Actions = actions
	return rule
}

func makeGraph(ownerID uuid.UUID, rules ...models.Rule) *models.RuleGraph {
	group := models.RuleGroup{ID: uuid.New(), OwnerID: ownerID, Title: "group", Order: 1, Active: true}
	for i := range rules {
		rules[i].GroupID = group.ID
	}
	group.Rules = rules
	return &models.RuleGraph{OwnerID: ownerID, Groups: []models.RuleGroup{group}}
}

func TestRun_TriggersAreANDed(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	// Both triggers hold.
	rule := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{
			trigger(models.TriggerDescriptionContains, "rent"),
			trigger(models.TriggerAmountLessThan, "0"),
		},
		[]models.RuleAction{action(models.ActionAddTag, "housing")},
	)
	report, err := engine.Run(context.Background(), makeGraph(j.OwnerID, rule), j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(report.Rules) != 1 || !report.Rules[0].Matched {
		t.Fatalf("report = %+v, want one matched rule", report.Rules)
	}
	if len(report.Rules[0].Actions) != 1 || report.Rules[0].Actions[0].Mutation == nil {
		t.Errorf("actions = %+v, want one mutation", report.Rules[0].Actions)
	}

	// One trigger fails: the whole rule fails, no actions run.
	j2 := testJournal()
	rule2 := makeRule(j2.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{
			trigger(models.TriggerDescriptionContains, "rent"),
			trigger(models.TriggerAmountMoreThan, "0"),
		},
		[]models.RuleAction{action(models.ActionAddTag, "housing")},
	)
	report, err = engine.Run(context.Background(), makeGraph(j2.OwnerID, rule2), j2, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if report.Rules[0].Matched {
		t.Error("rule matched with one failing trigger")
	}
	if len(report.Rules[0].Actions) != 0 {
		t.Errorf("actions ran on unmatched rule: %+v", report.Rules[0].Actions)
	}
	if j2.HasTag("housing") {
		t.Error("journal mutated by unmatched rule")
	}
}

func TestRun_EmptyTriggerListIsInert(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	inactive := trigger(models.TriggerDescriptionContains, "rent")
	inactive.Active = false
	rule := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{inactive},
		[]models.RuleAction{action(models.ActionAddTag, "housing")},
	)

	report, err := engine.Run(context.Background(), makeGraph(j.OwnerID, rule), j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if report.Rules[0].Matched {
		t.Error("rule with no active triggers matched; it must be inert")
	}
	if j.HasTag("housing") {
		t.Error("inert rule mutated the journal")
	}
}

func TestRun_DeterministicReport(t *testing.T) {
	run := func() []byte {
		j := testJournal()
		engine := New(newFakeLedger(), nil)
		rules := []models.Rule{
			makeRule(j.OwnerID, uuid.Nil, 2,
				[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
				[]models.RuleAction{action(models.ActionAddTag, "expense")}),
			makeRule(j.OwnerID, uuid.Nil, 1,
				[]models.RuleTrigger{trigger(models.TriggerDescriptionContains, "rent")},
				[]models.RuleAction{
					action(models.ActionSetCategory, "Housing"),
					action(models.ActionAppendNotes, "matched"),
				}),
		}
		// Fix the generated ids so both runs see the same snapshot.
		for i := range rules {
			rules[i].ID = uuid.UUID{byte(i + 1)}
			for k := range rules[i].Triggers {
				rules[i].Triggers[k].ID = uuid.UUID{byte(i + 1), 1, byte(k)}
				rules[i].Triggers[k].RuleID = rules[i].ID
			}
			for k := range rules[i].Actions {
				rules[i].Actions[k].ID = uuid.UUID{byte(i + 1), 2, byte(k)}
				rules[i].Actions[k].RuleID = rules[i].ID
			}
		}
		graph := makeGraph(j.OwnerID, rules...)
		graph.Groups[0].ID = uuid.UUID{9}
		for i := range graph.Groups[0].Rules {
			graph.Groups[0].Rules[i].GroupID = graph.Groups[0].ID
		}

		report, err := engine.Run(context.Background(), graph, j, models.PhaseCreate)
		if err != nil {
			t.Fatalf("Run error = %v", err)
		}
		raw, err := json.Marshal(report)
		if err != nil {
			t.Fatalf("marshal error = %v", err)
		}
		return raw
	}

	first, second := run(), run()
	if string(first) != string(second) {
		t.Errorf("reports differ across identical runs:\n%s\n%s", first, second)
	}
}

func TestRun_StopProcessingHaltsAcrossGroups(t *testing.T) {
	j := testJournal()
	ownerID := j.OwnerID
	engine := New(newFakeLedger(), nil)

	stopper := makeRule(ownerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerDescriptionContains, "rent")},
		[]models.RuleAction{action(models.ActionAddTag, "housing")},
	)
	stopper.StopProcessing = true
	skipped := makeRule(ownerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
		[]models.RuleAction{action(models.ActionAddTag, "expense")},
	)

	group1 := models.RuleGroup{ID: uuid.New(), OwnerID: ownerID, Title: "first", Order: 1, Active: true}
	stopper.GroupID = group1.ID
	group1.Rules = []models.Rule{stopper}
	group2 := models.RuleGroup{ID: uuid.New(), OwnerID: ownerID, Title: "second", Order: 2, Active: true}
	skipped.GroupID = group2.ID
	group2.Rules = []models.Rule{skipped}
	graph := &models.RuleGraph{OwnerID: ownerID, Groups: []models.RuleGroup{group1, group2}}

	report, err := engine.Run(context.Background(), graph, j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !report.Halted {
		t.Error("report.Halted = false, want true")
	}
	if len(report.Rules) != 1 {
		t.Fatalf("got %d rule reports, want 1 (later groups skipped)", len(report.Rules))
	}
	if !report.Rules[0].HaltedRun {
		t.Error("halting rule not flagged in its report")
	}
	if j.HasTag("expense") {
		t.Error("rule after the halt still ran")
	}
}

func TestRun_ActionStopProcessingIsLocalToRule(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	stopAction := action(models.ActionAddTag, "housing")
	stopAction.StopProcessing = true
	rule1 := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerDescriptionContains, "rent")},
		[]models.RuleAction{stopAction, action(models.ActionAddTag, "skipped")},
	)
	rule2 := makeRule(j.OwnerID, uuid.Nil, 2,
		[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
		[]models.RuleAction{action(models.ActionAddTag, "expense")},
	)

	report, err := engine.Run(context.Background(), makeGraph(j.OwnerID, rule1, rule2), j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if report.Halted {
		t.Error("action-level stop_processing halted the run")
	}
	if len(report.Rules[0].Actions) != 1 {
		t.Errorf("first rule ran %d actions, want 1", len(report.Rules[0].Actions))
	}
	if j.HasTag("skipped") {
		t.Error("action after stop_processing still ran")
	}
	if !j.HasTag("expense") {
		t.Error("next rule did not run after action-level stop")
	}
}

func TestRun_FaultDoesNotStopRemainingActions(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	rule := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerDescriptionContains, "rent")},
		[]models.RuleAction{
			action(models.ActionSetCategory, "Housing"),
			action(models.ActionSetBudget, "Nonexistent"),
			action(models.ActionAddTag, "housing"),
		},
	)

	report, err := engine.Run(context.Background(), makeGraph(j.OwnerID, rule), j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	outcomes := report.Rules[0].Actions
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Mutation == nil {
		t.Error("first action should have applied")
	}
	if outcomes[1].Fault == nil || outcomes[1].Fault.Code != models.FaultUnknownBudget {
		t.Errorf("second outcome = %+v, want unknown_budget fault", outcomes[1])
	}
	if outcomes[2].Mutation == nil {
		t.Error("third action should have applied despite the earlier fault")
	}
	if j.CategoryName != "Housing" {
		t.Error("fault reverted an earlier mutation")
	}
}

func TestRun_PhaseEligibility(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	onCreate := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
		[]models.RuleAction{action(models.ActionAddTag, "from-create")},
	)
	onUpdate := makeRule(j.OwnerID, uuid.Nil, 2,
		[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
		[]models.RuleAction{action(models.ActionAddTag, "from-update")},
	)
	onUpdate.TriggerOn = models.PhaseUpdate

	report, err := engine.Run(context.Background(), makeGraph(j.OwnerID, onCreate, onUpdate), j, models.PhaseUpdate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(report.Rules) != 1 {
		t.Fatalf("got %d rule reports on update phase, want 1", len(report.Rules))
	}
	if j.HasTag("from-create") || !j.HasTag("from-update") {
		t.Errorf("tags = %v after update phase", j.Tags)
	}

	// A manual run makes every active rule eligible regardless of phase.
	j2 := testJournal()
	report, err = engine.Run(context.Background(), makeGraph(j2.OwnerID, onCreate, onUpdate), j2, models.PhaseManual)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(report.Rules) != 2 {
		t.Fatalf("got %d rule reports on manual phase, want 2", len(report.Rules))
	}
	if !j2.HasTag("from-create") || !j2.HasTag("from-update") {
		t.Errorf("tags = %v after manual phase", j2.Tags)
	}
}

func TestRun_SkipsInactiveGroupsAndRules(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	rule := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
		[]models.RuleAction{action(models.ActionAddTag, "seen")},
	)
	rule.Active = false
	report, err := engine.Run(context.Background(), makeGraph(j.OwnerID, rule), j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(report.Rules) != 0 {
		t.Errorf("inactive rule appeared in report: %+v", report.Rules)
	}

	rule.Active = true
	graph := makeGraph(j.OwnerID, rule)
	graph.Groups[0].Active = false
	report, err = engine.Run(context.Background(), graph, j, models.PhaseCreate)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(report.Rules) != 0 {
		t.Errorf("rule in inactive group appeared in report: %+v", report.Rules)
	}
}

func TestRun_MalformedGraphIsFatal(t *testing.T) {
	j := testJournal()
	engine := New(newFakeLedger(), nil)

	rule := makeRule(j.OwnerID, uuid.Nil, 1,
		[]models.RuleTrigger{trigger(models.TriggerAmountLessThan, "0")},
		[]models.RuleAction{action(models.ActionAddTag, "seen")},
	)
	graph := makeGraph(j.OwnerID, rule)
	graph.Groups[0].Rules[0].GroupID = uuid.New() // broken parent link

	report, err := engine.Run(context.Background(), graph, j, models.PhaseCreate)
	if !errors.Is(err, models.ErrMalformedGraph) {
		t.Fatalf("error = %v, want ErrMalformedGraph", err)
	}
	if report != nil {
		t.Error("report returned alongside fatal graph error")
	}
	if j.HasTag("seen") {
		t.Error("journal mutated by run with malformed graph")
	}
}
