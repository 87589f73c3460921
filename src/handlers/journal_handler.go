package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	db "finrules-server/src/db/sql"
	"finrules-server/src/engine"
	"finrules-server/src/models"
)

type journalPayload struct {
	Type                 string          `json:"type"`
	Description          string          `json:"description"`
	Date                 time.Time       `json:"date"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	CurrencyScale        int32           `json:"currency_scale"`
	SourceAccountID      uuid.UUID       `json:"source_account_id"`
	DestinationAccountID uuid.UUID       `json:"destination_account_id"`
	Tags                 []string        `json:"tags"`
	Notes                string          `json:"notes"`
}

func journalFromPayload(ownerID uuid.UUID, req journalPayload) *models.Journal {
	return &models.Journal{
		OwnerID:            ownerID,
		Type:               models.TransactionType(req.Type),
		Description:        req.Description,
		Date:               req.Date,
		Amount:             req.Amount,
		Currency:           req.Currency,
		CurrencyScale:      req.CurrencyScale,
		SourceAccount:      models.AccountRef{ID: req.SourceAccountID},
		DestinationAccount: models.AccountRef{ID: req.DestinationAccountID},
		Tags:               req.Tags,
		Notes:              req.Notes,
	}
}

// runEngine executes one engine pass for the stored journal and returns the
// report. The snapshot is read once here and never re-fetched mid-run.
func runEngine(r *http.Request, pool *pgxpool.Pool, j *models.Journal, phase models.Phase) (*models.ExecutionReport, error) {
	graph, err := db.GetRuleGraphSnapshot(r.Context(), pool, j.OwnerID)
	if err != nil {
		return nil, err
	}
	eng := engine.New(db.NewLedgerStore(pool), slog.Default())
	return eng.Run(r.Context(), graph, j, phase)
}

// CreateJournal stores a journal and synchronously runs the on-create
// engine pass before responding; the caller sees the post-rules journal
// together with the execution report.
func CreateJournal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		var req journalPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode create journal request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		created, err := db.CreateJournal(r.Context(), pool, journalFromPayload(ownerID, req))
		if err != nil {
			slog.Error("failed to create journal", "owner_id", ownerID, "error", err)
			http.Error(w, "failed to create journal", http.StatusInternalServerError)
			return
		}

		report, err := runEngine(r, pool, created, models.PhaseCreate)
		if err != nil {
			slog.Error("engine run failed", "journal_id", created.ID, "owner_id", ownerID, "error", err)
			http.Error(w, "rule engine failed", http.StatusInternalServerError)
			return
		}
		slog.Info("created journal", "journal_id", created.ID, "owner_id", ownerID,
			"rules_evaluated", len(report.Rules), "halted", report.Halted)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"journal": created, "report": report})
	}
}

// UpdateJournal edits a journal and synchronously runs the on-update pass.
func UpdateJournal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		journalID, err := uuid.Parse(chi.URLParam(r, "journal_id"))
		if err != nil {
			http.Error(w, "invalid journal id", http.StatusBadRequest)
			return
		}
		var req journalPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("failed to decode update journal request", "owner_id", ownerID, "error", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		j := journalFromPayload(ownerID, req)
		j.ID = journalID
		updated, err := db.UpdateJournal(r.Context(), pool, j)
		if err != nil {
			slog.Error("failed to update journal", "journal_id", journalID, "owner_id", ownerID, "error", err)
			http.Error(w, "failed to update journal", http.StatusInternalServerError)
			return
		}

		report, err := runEngine(r, pool, updated, models.PhaseUpdate)
		if err != nil {
			slog.Error("engine run failed", "journal_id", journalID, "owner_id", ownerID, "error", err)
			http.Error(w, "rule engine failed", http.StatusInternalServerError)
			return
		}
		slog.Info("updated journal", "journal_id", journalID, "owner_id", ownerID,
			"rules_evaluated", len(report.Rules), "halted", report.Halted)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"journal": updated, "report": report})
	}
}

func GetJournalByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value("owner_id").(uuid.UUID)
		journalID, err := uuid.Parse(chi.URLParam(r, "journal_id"))
		if err != nil {
			http.Error(w, "invalid journal id", http.StatusBadRequest)
			return
		}
		journal, err := db.GetJournalByID(r.Context(), pool, ownerID, journalID)
		if err != nil {
			slog.Error("journal not found", "journal_id", journalID, "owner_id", ownerID, "error", err)
			http.Error(w, "journal not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(journal)
	}
}
