package db

import (
	"log/slog"
	"os"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"finrules-server/src/models"
)

// Rule-graph snapshots are cached per owner so the live engine does not
// rebuild the graph on every journal write.
var Cache *ristretto.Cache

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
}

func ruleGraphKey(ownerID uuid.UUID) string {
	return "rulegraph:" + ownerID.String()
}

func GetRuleGraphCache(ownerID uuid.UUID) (*models.RuleGraph, bool) {
	value, found := Cache.Get(ruleGraphKey(ownerID))
	if !found {
		return nil, false
	}
	graph, ok := value.(*models.RuleGraph)
	return graph, ok
}

func SetRuleGraphCache(ownerID uuid.UUID, graph *models.RuleGraph) {
	Cache.Set(ruleGraphKey(ownerID), graph, 1)
}

// ClearRuleGraphCache drops one owner's snapshot. Call after any write to
// that owner's groups, rules, triggers or actions.
func ClearRuleGraphCache(ownerID uuid.UUID) {
	Cache.Del(ruleGraphKey(ownerID))
}
