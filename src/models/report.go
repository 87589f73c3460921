package models

import "github.com/google/uuid"

// Fault codes recorded in ActionFault.Code.
const (
	FaultKindUnsupported = "kind_unsupported"
	FaultUnknownCategory = "unknown_category"
	FaultUnknownBudget   = "unknown_budget"
	FaultUnknownBill     = "unknown_bill"
	FaultLookupFailed    = "lookup_failed"
	FaultWriteFailed     = "write_failed"
)

// MutationRecord describes one field change applied through the ledger's
// write path.
type MutationRecord struct {
	ActionID uuid.UUID  `json:"action_id"`
	Kind     ActionKind `json:"action_kind"`
	Field    string     `json:"field"`
	OldValue string     `json:"old_value"`
	NewValue string     `json:"new_value"`
}

// ActionFault describes one action that could not apply. It is local to
// that action: the rest of the rule and the rest of the run continue.
type ActionFault struct {
	ActionID uuid.UUID  `json:"action_id"`
	Kind     ActionKind `json:"action_kind"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
}

// ActionOutcome is one entry of a rule's ordered action result list.
// Exactly one of Mutation and Fault is set.
type ActionOutcome struct {
	Mutation *MutationRecord `json:"mutation,omitempty"`
	Fault    *ActionFault    `json:"fault,omitempty"`
}

// RuleReport is the per-rule slice of an execution report.
type RuleReport struct {
	RuleID    uuid.UUID       `json:"rule_id"`
	GroupID   uuid.UUID       `json:"group_id"`
	Matched   bool            `json:"matched"`
	Actions   []ActionOutcome `json:"actions"`
	HaltedRun bool            `json:"halted_run"`
}

// ExecutionReport is the deterministic outcome of one engine run over one
// journal: identical (snapshot, journal) input always yields an identical
// report.
type ExecutionReport struct {
	JournalID uuid.UUID    `json:"journal_id"`
	Phase     Phase        `json:"phase"`
	Rules     []RuleReport `json:"rules"`
	Halted    bool         `json:"halted"`
}
