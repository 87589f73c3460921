package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestDraftRule_Build(t *testing.T) {
	ownerID := uuid.New()
	groupID := uuid.New()

	draft := NewDraftRule(ownerID, groupID)
	draft.Title = "Rent payments"
	draft.AddTrigger(TriggerDescriptionContains, "rent", false)
	draft.AddTrigger(TriggerAmountLessThan, "0", false)
	draft.AddAction(ActionSetCategory, "Housing", false)

	rule, err := draft.Build()
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	if rule.ID == uuid.Nil {
		t.Error("built rule has nil id")
	}
	if rule.OwnerID != ownerID || rule.GroupID != groupID {
		t.Error("built rule lost owner/group scope")
	}
	if !rule.Active {
		t.Error("draft defaults to active")
	}
	if rule.TriggerOn != PhaseCreate {
		t.Errorf("trigger_on = %q, want %q", rule.TriggerOn, PhaseCreate)
	}
	if len(rule.Triggers) != 2 || len(rule.Actions) != 1 {
		t.Fatalf("got %d triggers, %d actions", len(rule.Triggers), len(rule.Actions))
	}
	for i, trigger := range rule.Triggers {
		if trigger.Order != i+1 {
			t.Errorf("trigger %d order = %d, want %d", i, trigger.Order, i+1)
		}
		if trigger.ID == uuid.Nil || trigger.RuleID != rule.ID {
			t.Errorf("trigger %d not linked to rule", i)
		}
	}
}

func TestDraftRule_BuildRequiresTitle(t *testing.T) {
	draft := NewDraftRule(uuid.New(), uuid.New())
	draft.AddTrigger(TriggerDescriptionContains, "rent", false)
	draft.AddAction(ActionAddTag, "housing", false)
	if _, err := draft.Build(); err == nil {
		t.Error("Build without title: error = nil, want error")
	}
}

func TestDraftRule_BuildRequiresTriggersAndActions(t *testing.T) {
	draft := NewDraftRule(uuid.New(), uuid.New())
	draft.Title = "Empty"
	if _, err := draft.Build(); err == nil {
		t.Error("Build without triggers: error = nil, want error")
	}

	draft.AddTrigger(TriggerDescriptionContains, "rent", false)
	if _, err := draft.Build(); err == nil {
		t.Error("Build without actions: error = nil, want error")
	}
}

func TestDraftRule_BuildRejectsManualPhase(t *testing.T) {
	draft := NewDraftRule(uuid.New(), uuid.New())
	draft.Title = "Bad phase"
	draft.TriggerOn = PhaseManual
	draft.AddTrigger(TriggerDescriptionContains, "rent", false)
	draft.AddAction(ActionAddTag, "housing", false)
	if _, err := draft.Build(); err == nil {
		t.Error("Build with manual trigger_on: error = nil, want error")
	}
}
