package resolve

import (
	"context"
	"math"
	"time"

	"github.com/exeNyx7/ethereal-sub001/internal/ledger"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// WeightedVote is one vote with the voter's live weight attached.
type WeightedVote struct {
	VoterID   string
	Direction types.VoteDirection
	Weight    float64
	Timestamp time.Time
}

// Aggregator reads the vote pool of a claim or opposition and weighs each
// vote by the voter's current karma. It is a pure read: weights come from
// the ledger at aggregation time, not from the snapshot captured when the
// vote was cast, so the same vote set can legitimately tally differently on
// every pass.
type Aggregator struct {
	logger log.Logger
	store  store.Store
	ledger *ledger.Ledger
}

// NewAggregator creates an aggregator over the store and ledger.
func NewAggregator(logger log.Logger, st store.Store, ld *ledger.Ledger) *Aggregator {
	return &Aggregator{logger: logger, store: st, ledger: ld}
}

// Aggregate returns the weighted vote list for targetID. Missing or
// malformed vote records are skipped, not errored.
func (a *Aggregator) Aggregate(ctx context.Context, domain, targetID string) []WeightedVote {
	votes, err := a.store.ListVotes(ctx, domain, targetID)
	if err != nil {
		a.logger.Error("failed to list votes", "domain", domain, "target", targetID, "err", err)
		return nil
	}

	weighted := make([]WeightedVote, 0, len(votes))
	for _, vote := range votes {
		if err := vote.ValidateBasic(); err != nil {
			a.logger.Debug("skipping invalid vote", "target", targetID, "err", err)
			continue
		}
		karma := a.ledger.Karma(ctx, domain, vote.VoterID)
		weighted = append(weighted, WeightedVote{
			VoterID:   vote.VoterID,
			Direction: vote.Direction,
			Weight:    math.Sqrt(math.Max(karma, 0)),
			Timestamp: vote.Timestamp,
		})
	}
	return weighted
}
