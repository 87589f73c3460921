package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionKind is the closed set of mutation kinds. Adding a kind means
// updating ParseActionKind and the engine executor.
type ActionKind string

const (
	ActionSetCategory        ActionKind = "set_category"
	ActionClearCategory      ActionKind = "clear_category"
	ActionSetBudget          ActionKind = "set_budget"
	ActionClearBudget        ActionKind = "clear_budget"
	ActionAddTag             ActionKind = "add_tag"
	ActionRemoveTag          ActionKind = "remove_tag"
	ActionClearTags          ActionKind = "clear_tags"
	ActionSetDescription     ActionKind = "set_description"
	ActionPrependDescription ActionKind = "prepend_description"
	ActionAppendDescription  ActionKind = "append_description"
	ActionSetNotes           ActionKind = "set_notes"
	ActionAppendNotes        ActionKind = "append_notes"
	ActionLinkToBill         ActionKind = "link_to_bill"
)

var actionKinds = map[ActionKind]struct{}{
	ActionSetCategory:        {},
	ActionClearCategory:      {},
	ActionSetBudget:          {},
	ActionClearBudget:        {},
	ActionAddTag:             {},
	ActionRemoveTag:          {},
	ActionClearTags:          {},
	ActionSetDescription:     {},
	ActionPrependDescription: {},
	ActionAppendDescription:  {},
	ActionSetNotes:           {},
	ActionAppendNotes:        {},
	ActionLinkToBill:         {},
}

func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actionKinds[k]; !ok {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// RuleAction is one mutation instruction of a rule. StopProcessing stops the
// remaining actions of the same rule once this one succeeds.
type RuleAction struct {
	ID             uuid.UUID  `json:"id"`
	RuleID         uuid.UUID  `json:"rule_id"`
	Order          int        `json:"order"`
	Active         bool       `json:"active"`
	Kind           ActionKind `json:"action_kind"`
	Value          string     `json:"action_value"`
	StopProcessing bool       `json:"stop_processing"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
