package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	db "finrules-server/src/db/sql"
	"finrules-server/src/models"
)

func CreateRuleGroup(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Active      *bool  `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode create rule group request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		group := &models.RuleGroup{
			OwnerID:     ownerID,
			Title:       req.Title,
			Description: req.Description,
			Active:      req.Active == nil || *req.Active,
		}
		created, err := db.CreateRuleGroup(r.Context(), pool, group)
		if err != nil {
			slog.Error("failed to create rule group", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to create rule group", http.StatusInternalServerError)
			return
		}
		slog.Info("created rule group", "group_id", created.ID, "owner_id", ownerID, "order", created.Order)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func GetRuleGroupByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		groupID, err := uuid.Parse(chi.URLParam(r, "group_id"))
		if err != nil {
			http.Error(w, "invalid group id", http.StatusBadRequest)
			return
		}
		group, err := db.GetRuleGroupByID(r.Context(), pool, ownerID, groupID)
		if err != nil {
			slog.Error("rule group not found", "group_id", groupID, "owner_id", ownerID, "error", err)
			http.Error(w, "rule group not found", http.StatusNotFound)
			return
		}
		rules, err := db.GetAllRulesForGroup(r.Context(), pool, ownerID, groupID)
		if err != nil {
			slog.Error("failed to load rules for group", "group_id", groupID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to load rules", http.StatusInternalServerError)
			return
		}
		group.Rules = rules
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(group)
	}
}

func GetAllRuleGroups(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		groups, err := db.GetAllRuleGroups(r.Context(), pool, ownerID)
		if err != nil {
			slog.Error("failed to get rule groups", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to get rule groups", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groups)
	}
}

func UpdateRuleGroup(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		groupID, err := uuid.Parse(chi.URLParam(r, "group_id"))
		if err != nil {
			http.Error(w, "invalid group id", http.StatusBadRequest)
			return
		}
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Active      bool   `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode update rule group request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		group := &models.RuleGroup{
			ID:          groupID,
			OwnerID:     ownerID,
			Title:       req.Title,
			Description: req.Description,
			Active:      req.Active,
		}
		updated, err := db.UpdateRuleGroup(r.Context(), pool, group)
		if err != nil {
			slog.Error("failed to update rule group", "group_id", groupID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to update rule group", http.StatusInternalServerError)
			return
		}
		slog.Info("updated rule group", "group_id", groupID, "owner_id", ownerID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteRuleGroup(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		groupID, err := uuid.Parse(chi.URLParam(r, "group_id"))
		if err != nil {
			http.Error(w, "invalid group id", http.StatusBadRequest)
			return
		}
		if err := db.DeleteRuleGroup(r.Context(), pool, ownerID, groupID); err != nil {
			slog.Error("failed to delete rule group", "group_id", groupID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to delete rule group", http.StatusInternalServerError)
			return
		}
		slog.Info("deleted rule group", "group_id", groupID, "owner_id", ownerID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "rule group deleted"})
	}
}

func MoveRuleGroup(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		groupID, err := uuid.Parse(chi.URLParam(r, "group_id"))
		if err != nil {
			http.Error(w, "invalid group id", http.StatusBadRequest)
			return
		}
		var req struct {
			Position int `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := db.MoveRuleGroup(r.Context(), pool, ownerID, groupID, req.Position); err != nil {
			slog.Error("failed to move rule group", "group_id", groupID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to move rule group", http.StatusInternalServerError)
			return
		}
		slog.Info("moved rule group", "group_id", groupID, "owner_id", ownerID, "position", req.Position)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "rule group moved"})
	}
}
