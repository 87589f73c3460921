package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Rule is an AND-predicate over its active triggers paired with an ordered
// list of actions. A rule with zero active triggers is inert: it never
// matches, it does not match everything.
type Rule struct {
	ID             uuid.UUID     `json:"id"`
	GroupID        uuid.UUID     `json:"group_id"`
	OwnerID        uuid.UUID     `json:"owner_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Order          int           `json:"order"`
	Active         bool          `json:"active"`
	StopProcessing bool          `json:"stop_processing"`
	TriggerOn      Phase         `json:"trigger_on"`
	Triggers       []RuleTrigger `json:"triggers"`
	Actions        []RuleAction  `json:"actions"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ActiveTriggers returns the active triggers in ascending order.
func (r *Rule) ActiveTriggers() []RuleTrigger {
	out := make([]RuleTrigger, 0, len(r.Triggers))
	for _, t := range r.Triggers {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ActiveActions returns the active actions in ascending order.
func (r *Rule) ActiveActions() []RuleAction {
	out := make([]RuleAction, 0, len(r.Actions))
	for _, a := range r.Actions {
		if a.Active {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
