package engine

import (
	"context"
	"log/slog"

	"finrules-server/src/models"
)

// JournalScanner yields an owner's journals most-recent-first. Next returns
// (nil, nil) once the set is exhausted. Implementations must honor the
// context so a disconnected caller stops the scan promptly.
type JournalScanner interface {
	Next(ctx context.Context) (*models.Journal, error)
	Close()
}

// Warning codes surfaced by preview scans.
type Warning string

const (
	WarningNone            Warning = ""
	WarningNoValidTriggers Warning = "no_valid_triggers"
	WarningResultSubset    Warning = "result_subset_returned"
)

// MatchResult is the outcome of one preview scan. Exhausted is true only
// when the journal set ended before either cap was hit; hitting max_scanned
// or max_results with journals remaining reports Exhausted=false.
type MatchResult struct {
	Matches   []models.JournalRef `json:"matches"`
	Scanned   int                 `json:"scanned"`
	Exhausted bool                `json:"exhausted"`
	Warning   Warning             `json:"warning,omitempty"`
}

// Matcher tests an unsaved, ad-hoc trigger list against existing journals
// under two independent caps. A ledger can hold many years of journals, so
// both the result cap and the scan budget are hard limits: whichever is hit
// first ends the scan.
type Matcher struct {
	MaxResults int
	MaxScanned int
	logger     *slog.Logger
}

func NewMatcher(maxResults, maxScanned int, logger *slog.Logger) *Matcher {
	if maxResults < 1 {
		maxResults = 1
	}
	if maxScanned < 1 {
		maxScanned = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{MaxResults: maxResults, MaxScanned: maxScanned, logger: logger}
}

// FindMatches scans journals from the scanner and returns those matching
// every usable trigger. Tautological triggers (MatchesAnything) and
// inactive ones are dropped before the scan; if that leaves nothing the
// scan is skipped entirely and no_valid_triggers is reported rather than
// matching everything.
func (m *Matcher) FindMatches(ctx context.Context, scanner JournalScanner, triggers []models.RuleTrigger) (*MatchResult, error) {
	usable := make([]models.RuleTrigger, 0, len(triggers))
	for _, t := range triggers {
		if !t.Active {
			continue
		}
		if t.MatchesAnything() {
			m.logger.Info("dropping tautological trigger from preview scan",
				"kind", t.Kind, "value", t.Value)
			continue
		}
		usable = append(usable, t)
	}

	result := &MatchResult{Matches: []models.JournalRef{}}
	if len(usable) == 0 {
		result.Warning = WarningNoValidTriggers
		return result, nil
	}

	for result.Scanned < m.MaxScanned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		j, err := scanner.Next(ctx)
		if err != nil {
			return nil, err
		}
		if j == nil {
			result.Exhausted = true
			return result, nil
		}
		result.Scanned++

		if m.matchesAll(usable, j) {
			result.Matches = append(result.Matches, j.Ref())
			if len(result.Matches) >= m.MaxResults {
				result.Warning = WarningResultSubset
				return result, nil
			}
		}
	}
	// Scan budget spent with journals possibly remaining.
	return result, nil
}

func (m *Matcher) matchesAll(triggers []models.RuleTrigger, j *models.Journal) bool {
	eval := Evaluator{}
	for _, t := range triggers {
		ok, err := eval.Evaluate(t, j)
		if err != nil {
			m.logger.Warn("trigger kind unsupported in preview scan, treating as no match",
				"kind", t.Kind, "journal_id", j.ID)
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}
