package models

import (
	"fmt"

	"github.com/google/uuid"
)

// DraftRule accumulates trigger and action entries while a rule is being
// authored. It is a plain value owned by the caller: nothing is persisted
// until Build succeeds and the result is explicitly saved.
type DraftRule struct {
	GroupID        uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	Description    string
	Active         bool
	StopProcessing bool
	TriggerOn      Phase

	triggers []RuleTrigger
	actions  []RuleAction
}

func NewDraftRule(ownerID, groupID uuid.UUID) *DraftRule {
	return &DraftRule{
		OwnerID:   ownerID,
		GroupID:   groupID,
		Active:    true,
		TriggerOn: PhaseCreate,
	}
}

// AddTrigger appends a trigger clause; order follows insertion order.
func (d *DraftRule) AddTrigger(kind TriggerKind, value string, stopProcessing bool) {
	d.triggers = append(d.triggers, RuleTrigger{
		Order:          len(d.triggers) + 1,
		Active:         true,
		Kind:           kind,
		Value:          value,
		StopProcessing: stopProcessing,
	})
}

// AddAction appends a mutation instruction; order follows insertion order.
func (d *DraftRule) AddAction(kind ActionKind, value string, stopProcessing bool) {
	d.actions = append(d.actions, RuleAction{
		Order:          len(d.actions) + 1,
		Active:         true,
		Kind:           kind,
		Value:          value,
		StopProcessing: stopProcessing,
	})
}

func (d *DraftRule) TriggerCount() int { return len(d.triggers) }
func (d *DraftRule) ActionCount() int  { return len(d.actions) }

// Build turns the draft into a Rule ready to persist. A rule needs a title,
// at least one trigger and at least one action; trigger_on must be a stored
// phase (manual runs are engine-side only).
func (d *DraftRule) Build() (*Rule, error) {
	if d.Title == "" {
		return nil, fmt.Errorf("rule title is required")
	}
	if len(d.triggers) == 0 {
		return nil, fmt.Errorf("rule needs at least one trigger")
	}
	if len(d.actions) == 0 {
		return nil, fmt.Errorf("rule needs at least one action")
	}
	if d.TriggerOn != PhaseCreate && d.TriggerOn != PhaseUpdate {
		return nil, fmt.Errorf("invalid trigger_on %q", d.TriggerOn)
	}

	rule := &Rule{
		ID:             uuid.New(),
		GroupID:        d.GroupID,
		OwnerID:        d.OwnerID,
		Title:          d.Title,
		Description:    d.Description,
		Active:         d.Active,
		StopProcessing: d.StopProcessing,
		TriggerOn:      d.TriggerOn,
	}
	for _, t := range d.triggers {
		t.ID = uuid.New()
		t.RuleID = rule.ID
		rule.Triggers = append(rule.Triggers, t)
	}
	for _, a := range d.actions {
		a.ID = uuid.New()
		a.RuleID = rule.ID
		rule.Actions = append(rule.Actions, a)
	}
	return rule, nil
}
