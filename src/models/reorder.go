package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ReindexMove returns the ids of one ordering scope (an owner's groups, or
// a group's rules) with target moved to the 1-based position, every other
// id shifted accordingly. The result index i corresponds to order i+1, so
// persisting it always yields a dense, gap-free sequence starting at 1.
// Positions outside the scope are clamped to its ends.
func ReindexMove(ids []uuid.UUID, target uuid.UUID, position int) ([]uuid.UUID, error) {
	from := -1
	for i, id := range ids {
		if id == target {
			from = i
			break
		}
	}
	if from == -1 {
		return nil, fmt.Errorf("id %s not in ordering scope", target)
	}

	if position < 1 {
		position = 1
	}
	if position > len(ids) {
		position = len(ids)
	}
	to := position - 1

	out := make([]uuid.UUID, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]uuid.UUID{target}, out[to:]...)...)
	return out, nil
}
