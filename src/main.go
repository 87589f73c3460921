package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"finrules-server/src/api"
	"finrules-server/src/config"
	"finrules-server/src/db"
	"finrules-server/src/logging"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)

	// Connect to database
	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}

	db.InitCache()

	// Router
	router := api.NewRouter(pool, cfg)

	slog.Info("API server running", "port", cfg.Port, "read_only", cfg.ReadOnly)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
