package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finrules-server/src/config"
	"finrules-server/src/handlers"
	"finrules-server/src/middleware"
)

func NewRouter(pool *pgxpool.Pool, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ReadOnlyMiddleware(cfg.ReadOnly))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.OwnerMiddleware)

		// Rule groups
		r.Post("/rule-groups", handlers.CreateRuleGroup(pool))
		r.Get("/rule-groups", handlers.GetAllRuleGroups(pool))
		r.Get("/rule-groups/{group_id}", handlers.GetRuleGroupByID(pool))
		r.Put("/rule-groups/{group_id}", handlers.UpdateRuleGroup(pool))
		r.Delete("/rule-groups/{group_id}", handlers.DeleteRuleGroup(pool))
		r.Post("/rule-groups/{group_id}/move", handlers.MoveRuleGroup(pool))

		// Rules
		r.Post("/rules", handlers.CreateRule(pool))
		r.Get("/rules/{rule_id}", handlers.GetRuleByID(pool))
		r.Put("/rules/{rule_id}", handlers.UpdateRule(pool))
		r.Delete("/rules/{rule_id}", handlers.DeleteRule(pool))
		r.Post("/rules/{rule_id}/move", handlers.MoveRule(pool))
		r.Post("/rules/apply", handlers.ApplyRules(pool))
		r.Post("/rules/preview", handlers.PreviewRuleTriggers(pool, cfg.PreviewMaxResults, cfg.PreviewMaxScanned))

		// Journals
		r.Post("/journals", handlers.CreateJournal(pool))
		r.Get("/journals/{journal_id}", handlers.GetJournalByID(pool))
		r.Put("/journals/{journal_id}", handlers.UpdateJournal(pool))
	})

	return r
}
