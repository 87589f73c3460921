package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"finrules-server/src/models"
)

// ErrNotFound is returned by Ledger lookups when the named entity does not
// exist for the owner.
var ErrNotFound = errors.New("not found")

// Ledger is the store's write path as seen by the engine. Every mutation
// goes through it so the store's own invariants stay in force; the engine
// never touches storage directly.
type Ledger interface {
	ResolveCategory(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error)
	ResolveBudget(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error)
	ResolveBill(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error)

	SetCategory(ctx context.Context, journalID, categoryID uuid.UUID) error
	ClearCategory(ctx context.Context, journalID uuid.UUID) error
	SetBudget(ctx context.Context, journalID, budgetID uuid.UUID) error
	ClearBudget(ctx context.Context, journalID uuid.UUID) error
	AddTag(ctx context.Context, journalID uuid.UUID, tag string) error
	RemoveTag(ctx context.Context, journalID uuid.UUID, tag string) error
	ClearTags(ctx context.Context, journalID uuid.UUID) error
	SetDescription(ctx context.Context, journalID uuid.UUID, description string) error
	SetNotes(ctx context.Context, journalID uuid.UUID, notes string) error
	LinkToBill(ctx context.Context, journalID, billID uuid.UUID) error
}

// Executor applies one action to one journal. Faults stay local to the
// action: the caller keeps going with the next action, and nothing applied
// earlier is rolled back.
type Executor struct {
	ledger Ledger
	logger *slog.Logger
}

func NewExecutor(ledger Ledger, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{ledger: ledger, logger: logger}
}

// Apply performs the action's mutation through the ledger write path and
// mirrors it onto the in-memory journal. Exactly one of the returned record
// and fault is non-nil.
func (x *Executor) Apply(ctx context.Context, a models.RuleAction, j *models.Journal) (*models.MutationRecord, *models.ActionFault) {
	switch a.Kind {
	case models.ActionSetCategory:
		id, err := x.ledger.ResolveCategory(ctx, j.OwnerID, a.Value)
		if err != nil {
			return nil, x.lookupFault(a, j, "category", models.FaultUnknownCategory, err)
		}
		if err := x.ledger.SetCategory(ctx, j.ID, id); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		old := j.CategoryName
		j.CategoryID = &id
		j.CategoryName = a.Value
		return record(a, "category", old, a.Value), nil

	case models.ActionClearCategory:
		if err := x.ledger.ClearCategory(ctx, j.ID); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		old := j.CategoryName
		j.CategoryID = nil
		j.CategoryName = ""
		return record(a, "category", old, ""), nil

	case models.ActionSetBudget:
		id, err := x.ledger.ResolveBudget(ctx, j.OwnerID, a.Value)
		if err != nil {
			return nil, x.lookupFault(a, j, "budget", models.FaultUnknownBudget, err)
		}
		if err := x.ledger.SetBudget(ctx, j.ID, id); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		old := j.BudgetName
		j.BudgetID = &id
		j.BudgetName = a.Value
		return record(a, "budget", old, a.Value), nil

	case models.ActionClearBudget:
		if err := x.ledger.ClearBudget(ctx, j.ID); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		old := j.BudgetName
		j.BudgetID = nil
		j.BudgetName = ""
		return record(a, "budget", old, ""), nil

	case models.ActionAddTag:
		old := strings.Join(j.Tags, ",")
		if err := x.ledger.AddTag(ctx, j.ID, a.Value); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		if !j.HasTag(a.Value) {
			j.Tags = append(j.Tags, a.Value)
		}
		return record(a, "tags", old, strings.Join(j.Tags, ",")), nil

	case models.ActionRemoveTag:
		old := strings.Join(j.Tags, ",")
		if err := x.ledger.RemoveTag(ctx, j.ID, a.Value); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		kept := j.Tags[:0]
		for _, tag := range j.Tags {
			if !strings.EqualFold(tag, a.Value) {
				kept = append(kept, tag)
			}
		}
		j.Tags = kept
		return record(a, "tags", old, strings.Join(j.Tags, ",")), nil

	case models.ActionClearTags:
		old := strings.Join(j.Tags, ",")
		if err := x.ledger.ClearTags(ctx, j.ID); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		j.Tags = nil
		return record(a, "tags", old, ""), nil

	case models.ActionSetDescription:
		return x.applyDescription(ctx, a, j, a.Value)
	case models.ActionPrependDescription:
		return x.applyDescription(ctx, a, j, a.Value+j.Description)
	case models.ActionAppendDescription:
		return x.applyDescription(ctx, a, j, j.Description+a.Value)

	case models.ActionSetNotes:
		return x.applyNotes(ctx, a, j, a.Value)
	case models.ActionAppendNotes:
		notes := j.Notes
		if notes != "" {
			notes += "\n"
		}
		return x.applyNotes(ctx, a, j, notes+a.Value)

	case models.ActionLinkToBill:
		id, err := x.ledger.ResolveBill(ctx, j.OwnerID, a.Value)
		if err != nil {
			return nil, x.lookupFault(a, j, "bill", models.FaultUnknownBill, err)
		}
		if err := x.ledger.LinkToBill(ctx, j.ID, id); err != nil {
			return nil, x.writeFault(a, j, err)
		}
		old := ""
		if j.BillID != nil {
			old = j.BillID.String()
		}
		j.BillID = &id
		return record(a, "bill", old, id.String()), nil
	}

	x.logger.Warn("unsupported action kind", "action_id", a.ID, "kind", a.Kind, "journal_id", j.ID)
	return nil, &models.ActionFault{
		ActionID: a.ID,
		Kind:     a.Kind,
		Code:     models.FaultKindUnsupported,
		Message:  fmt.Sprintf("action kind %q is not supported", a.Kind),
	}
}

func (x *Executor) applyDescription(ctx context.Context, a models.RuleAction, j *models.Journal, next string) (*models.MutationRecord, *models.ActionFault) {
	if err := x.ledger.SetDescription(ctx, j.ID, next); err != nil {
		return nil, x.writeFault(a, j, err)
	}
	old := j.Description
	j.Description = next
	return record(a, "description", old, next), nil
}

func (x *Executor) applyNotes(ctx context.Context, a models.RuleAction, j *models.Journal, next string) (*models.MutationRecord, *models.ActionFault) {
	if err := x.ledger.SetNotes(ctx, j.ID, next); err != nil {
		return nil, x.writeFault(a, j, err)
	}
	old := j.Notes
	j.Notes = next
	return record(a, "notes", old, next), nil
}

func (x *Executor) lookupFault(a models.RuleAction, j *models.Journal, field, notFoundCode string, err error) *models.ActionFault {
	code := models.FaultLookupFailed
	if errors.Is(err, ErrNotFound) {
		code = notFoundCode
	}
	x.logger.Warn("action lookup failed",
		"action_id", a.ID, "kind", a.Kind, "field", field, "journal_id", j.ID, "error", err)
	return &models.ActionFault{
		ActionID: a.ID,
		Kind:     a.Kind,
		Code:     code,
		Message:  fmt.Sprintf("%s %q: %v", field, a.Value, err),
	}
}

func (x *Executor) writeFault(a models.RuleAction, j *models.Journal, err error) *models.ActionFault {
	x.logger.Error("action write failed",
		"action_id", a.ID, "kind", a.Kind, "journal_id", j.ID, "error", err)
	return &models.ActionFault{
		ActionID: a.ID,
		Kind:     a.Kind,
		Code:     models.FaultWriteFailed,
		Message:  err.Error(),
	}
}

func record(a models.RuleAction, field, old, next string) *models.MutationRecord {
	return &models.MutationRecord{
		ActionID: a.ID,
		Kind:     a.Kind,
		Field:    field,
		OldValue: old,
		NewValue: next,
	}
}
