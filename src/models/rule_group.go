package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedGraph marks a rule-graph snapshot that fails integrity checks.
// It is fatal to the one orchestration run that received the snapshot.
var ErrMalformedGraph = errors.New("malformed rule graph")

// RuleGroup is an ordered, owner-scoped collection of rules. Deleting a
// group soft-deletes its rules; the store keeps order values dense from 1
// within one owner.
type RuleGroup struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	Active      bool      `json:"active"`
	Rules       []Rule    `json:"rules"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RuleGraph is the immutable per-run snapshot of one owner's groups, rules,
// triggers and actions. It is read once at the start of a run and never
// re-fetched mid-run.
type RuleGraph struct {
	OwnerID uuid.UUID   `json:"owner_id"`
	Groups  []RuleGroup `json:"groups"`
}

// Validate checks snapshot integrity: every group belongs to the graph's
// owner and every rule points at its parent group.
func (g *RuleGraph) Validate() error {
	for i := range g.Groups {
		grp := &g.Groups[i]
		if grp.OwnerID != g.OwnerID {
			return fmt.Errorf("%w: group %s owned by %s, snapshot owner %s",
				ErrMalformedGraph, grp.ID, grp.OwnerID, g.OwnerID)
		}
		for j := range grp.Rules {
			r := &grp.Rules[j]
			if r.GroupID != grp.ID {
				return fmt.Errorf("%w: rule %s references group %s inside group %s",
					ErrMalformedGraph, r.ID, r.GroupID, grp.ID)
			}
			if r.OwnerID != g.OwnerID {
				return fmt.Errorf("%w: rule %s owned by %s, snapshot owner %s",
					ErrMalformedGraph, r.ID, r.OwnerID, g.OwnerID)
			}
		}
	}
	return nil
}

// OrderedGroups returns the groups in ascending order without mutating the
// snapshot.
func (g *RuleGraph) OrderedGroups() []RuleGroup {
	out := make([]RuleGroup, len(g.Groups))
	copy(out, g.Groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// OrderedRules returns the group's rules in ascending order without
// mutating the snapshot.
func (g *RuleGroup) OrderedRules() []Rule {
	out := make([]Rule, len(g.Rules))
	copy(out, g.Rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
