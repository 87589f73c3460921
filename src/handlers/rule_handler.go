package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	db "finrules-server/src/db/sql"
	"finrules-server/src/engine"
	"finrules-server/src/models"
	"finrules-server/src/util"
)

type triggerPayload struct {
	Kind           string `json:"trigger_kind"`
	Value          string `json:"trigger_value"`
	StopProcessing bool   `json:"stop_processing"`
}

type actionPayload struct {
	Kind           string `json:"action_kind"`
	Value          string `json:"action_value"`
	StopProcessing bool   `json:"stop_processing"`
}

type rulePayload struct {
	GroupID        uuid.UUID        `json:"group_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Active         *bool            `json:"active"`
	StopProcessing bool             `json:"stop_processing"`
	TriggerOn      string           `json:"trigger_on"`
	Triggers       []triggerPayload `json:"triggers"`
	Actions        []actionPayload  `json:"actions"`
}

// buildDraft turns the request payload into a draft rule, validating every
// kind and value. Tautological triggers are allowed but reported back as
// warnings so the author knows they contribute nothing.
func buildDraft(ownerID uuid.UUID, req rulePayload) (*models.DraftRule, []string, error) {
	draft := models.NewDraftRule(ownerID, req.GroupID)
	draft.Title = req.Title
	draft.Description = req.Description
	draft.StopProcessing = req.StopProcessing
	if req.Active != nil {
		draft.Active = *req.Active
	}
	if req.TriggerOn != "" {
		draft.TriggerOn = models.Phase(req.TriggerOn)
	}

	var warnings []string
	for _, t := range req.Triggers {
		kind, err := models.ParseTriggerKind(t.Kind)
		if err != nil {
			return nil, nil, err
		}
		if err := util.ValidateTriggerValue(kind, t.Value); err != nil {
			return nil, nil, err
		}
		draft.AddTrigger(kind, t.Value, t.StopProcessing)
		if (models.RuleTrigger{Kind: kind, Value: t.Value}).MatchesAnything() {
			warnings = append(warnings, fmt.Sprintf("trigger %s %q matches every journal", kind, t.Value))
		}
	}
	for _, a := range req.Actions {
		kind, err := models.ParseActionKind(a.Kind)
		if err != nil {
			return nil, nil, err
		}
		if err := util.ValidateActionValue(kind, a.Value); err != nil {
			return nil, nil, err
		}
		draft.AddAction(kind, a.Value, a.StopProcessing)
	}
	return draft, warnings, nil
}

func CreateRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		var req rulePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode create rule request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		draft, warnings, err := buildDraft(ownerID, req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rule, err := draft.Build()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, err := db.CreateRule(r.Context(), pool, rule)
		if err != nil {
			slog.Error("failed to create rule", "owner_id", ownerID, "group_id", req.GroupID, "error", err)
			http.Error(w, "failed to create rule", http.StatusInternalServerError)
			return
		}
		slog.Info("created rule", "rule_id", created.ID, "owner_id", ownerID, "title", created.Title)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"rule": created, "warnings": warnings})
	}
}

func GetRuleByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		ruleID, err := uuid.Parse(chi.URLParam(r, "rule_id"))
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}
		rule, err := db.GetRuleByID(r.Context(), pool, ownerID, ruleID)
		if err != nil {
			slog.Error("rule not found", "rule_id", ruleID, "owner_id", ownerID, "error", err)
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rule)
	}
}

func UpdateRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		ruleID, err := uuid.Parse(chi.URLParam(r, "rule_id"))
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}
		var req rulePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode update rule request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		draft, warnings, err := buildDraft(ownerID, req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rule, err := draft.Build()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rule.ID = ruleID
		for i := range rule.Triggers {
			rule.Triggers[i].RuleID = ruleID
		}
		for i := range rule.Actions {
			rule.Actions[i].RuleID = ruleID
		}
		updated, err := db.UpdateRule(r.Context(), pool, rule)
		if err != nil {
			slog.Error("failed to update rule", "rule_id", ruleID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to update rule", http.StatusInternalServerError)
			return
		}
		slog.Info("updated rule", "rule_id", ruleID, "owner_id", ownerID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"rule": updated, "warnings": warnings})
	}
}

func DeleteRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		ruleID, err := uuid.Parse(chi.URLParam(r, "rule_id"))
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}
		if err := db.DeleteRule(r.Context(), pool, ownerID, ruleID); err != nil {
			slog.Error("failed to delete rule", "rule_id", ruleID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to delete rule", http.StatusInternalServerError)
			return
		}
		slog.Info("deleted rule", "rule_id", ruleID, "owner_id", ownerID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "rule deleted"})
	}
}

func MoveRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		ruleID, err := uuid.Parse(chi.URLParam(r, "rule_id"))
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}
		var req struct {
			Position int `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := db.MoveRule(r.Context(), pool, ownerID, ruleID, req.Position); err != nil {
			slog.Error("failed to move rule", "rule_id", ruleID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to move rule", http.StatusInternalServerError)
			return
		}
		slog.Info("moved rule", "rule_id", ruleID, "owner_id", ownerID, "position", req.Position)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "rule moved"})
	}
}

// ApplyRules runs every active rule against all of the owner's journals in
// the manual phase. Runs are independent per journal and parallelized; the
// response is a summary rather than the full per-journal reports.
func ApplyRules(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)

		graph, err := db.GetRuleGraphSnapshot(r.Context(), pool, ownerID)
		if err != nil {
			slog.Error("failed to load rule graph", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to load rules", http.StatusInternalServerError)
			return
		}
		journals, err := db.GetAllJournalsForOwner(r.Context(), pool, ownerID)
		if err != nil {
			slog.Error("failed to load journals", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to load journals", http.StatusInternalServerError)
			return
		}

		eng := engine.New(db.NewLedgerStore(pool), slog.Default())
		reports, err := eng.RunBatch(r.Context(), graph, journals, models.PhaseManual, 4)
		if err != nil {
			slog.Error("manual rule run failed", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to apply rules", http.StatusInternalServerError)
			return
		}

		var matched, mutations, faults int
		for _, report := range reports {
			for _, rr := range report.Rules {
				if rr.Matched {
					matched++
				}
				for _, outcome := range rr.Actions {
					if outcome.Fault != nil {
						faults++
					} else {
						mutations++
					}
				}
			}
		}
		slog.Info("applied rules manually",
			"owner_id", ownerID, "journals", len(journals), "matched_rules", matched,
			"mutations", mutations, "faults", faults)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"journals_processed": len(journals),
			"matched_rules":      matched,
			"mutations":          mutations,
			"faults":             faults,
		})
	}
}
