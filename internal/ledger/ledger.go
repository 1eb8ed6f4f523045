package ledger

import (
	"context"
	"fmt"

	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// Ledger holds per-user karma. It is the only writer of karma values; every
// other component reads through it.
//
// ApplyDelta is a plain read-then-write with no optimistic concurrency
// check: the replicated substrate offers last-write-wins per field and no
// compare-and-swap, so concurrent settlements from different peers can lose
// an update to the same user. That weakness is accepted and documented, not
// papered over with locking the substrate cannot honor.
type Ledger struct {
	logger log.Logger
	store  store.Store
	floor  float64
}

// NewLedger creates a ledger clamping every karma value to floor.
func NewLedger(logger log.Logger, st store.Store, floor float64) *Ledger {
	if floor <= 0 {
		floor = types.KarmaFloor
	}
	return &Ledger{logger: logger, store: st, floor: floor}
}

// Karma returns the user's live karma. A missing record, malformed record
// or timed-out read yields the initial karma rather than an error.
func (l *Ledger) Karma(ctx context.Context, domain, userID string) float64 {
	user, err := l.store.GetUser(ctx, domain, userID)
	if err != nil || user == nil {
		return types.InitialKarma
	}
	return user.Karma
}

// ApplyDelta adjusts the user's karma by delta, clamped to the floor, and
// returns the written value.
func (l *Ledger) ApplyDelta(ctx context.Context, domain, userID string, delta float64) (float64, error) {
	if userID == "" {
		return 0, fmt.Errorf("cannot apply karma delta: empty user id")
	}

	current := l.Karma(ctx, domain, userID)
	updated := current + delta
	if updated < l.floor {
		updated = l.floor
	}

	if err := l.store.MergeUser(ctx, domain, userID, store.Fields{"id": userID, "karma": updated}); err != nil {
		return 0, fmt.Errorf("failed to write karma for %s: %w", userID, err)
	}

	l.logger.Debug("applied karma delta",
		"domain", domain,
		"user", userID,
		"delta", delta,
		"karma", updated,
	)
	return updated, nil
}
