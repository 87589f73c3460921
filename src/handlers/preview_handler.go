package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	db "finrules-server/src/db/sql"
	"finrules-server/src/engine"
	"finrules-server/src/models"
)

// PreviewRuleTriggers tests an unsaved trigger list against the owner's
// existing journals without touching anything. The scan is bound to the
// request context, so a disconnecting caller stops it.
func PreviewRuleTriggers(pool *pgxpool.Pool, maxResults, maxScanned int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		var req struct {
			Triggers []triggerPayload `json:"triggers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode preview request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		triggers := make([]models.RuleTrigger, 0, len(req.Triggers))
		for i, t := range req.Triggers {
			kind, err := models.ParseTriggerKind(t.Kind)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			triggers = append(triggers, models.RuleTrigger{
				Order:  i + 1,
				Active: true,
				Kind:   kind,
				Value:  t.Value,
			})
		}

		scanner, err := db.NewJournalScanner(r.Context(), pool, ownerID, maxScanned)
		if err != nil {
			slog.Error("failed to open journal scan", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to scan journals", http.StatusInternalServerError)
			return
		}
		defer scanner.Close()

		matcher := engine.NewMatcher(maxResults, maxScanned, slog.Default())
		result, err := matcher.FindMatches(r.Context(), scanner, triggers)
		if err != nil {
			slog.Error("preview scan failed", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to scan journals", http.StatusInternalServerError)
			return
		}
		slog.Info("preview scan finished",
			"owner_id", ownerID, "scanned", result.Scanned, "matches", len(result.Matches),
			"exhausted", result.Exhausted, "warning", string(result.Warning))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
