package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/exeNyx7/ethereal-sub001/internal/ledger"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// Settler applies karma deltas once a verdict is finalized, and reverses
// them when a settled claim is ghosted.
//
// Per-user updates are independent read-then-write operations: commutative
// across users, applied sequentially here but safe to apply in any order.
// Two peers settling the same claim concurrently can double-apply; the only
// mitigation is that the terminal status is written last, so a later pass
// that observes a non-active claim skips settlement. That check-then-act is
// racy and accepted.
type Settler struct {
	logger  log.Logger
	store   store.Store
	ledger  *ledger.Ledger
	agg     *Aggregator
	params  types.ResolutionParams
	metrics *Metrics
}

// NewSettler creates a settler with the given policy constants.
func NewSettler(logger log.Logger, st store.Store, ld *ledger.Ledger, agg *Aggregator, params types.ResolutionParams, metrics *Metrics) *Settler {
	return &Settler{logger: logger, store: st, ledger: ld, agg: agg, params: params, metrics: metrics}
}

// SettleClaim applies the asymmetric karma deltas for a finalized verdict
// and then writes the claim's terminal state. Pending and inconclusive
// verdicts are no-ops.
func (s *Settler) SettleClaim(ctx context.Context, claim *types.Claim, res Result) error {
	if claim == nil {
		return fmt.Errorf("cannot settle nil claim")
	}
	if res.Verdict != types.VerdictFact && res.Verdict != types.VerdictFalse {
		return nil
	}

	votes := s.agg.Aggregate(ctx, claim.Domain, claim.ID)
	s.settleVoters(ctx, claim.Domain, votes, res.Verdict, false)

	posterDelta := s.params.PosterFactDelta
	if res.Verdict == types.VerdictFalse {
		posterDelta = s.params.PosterFalseDelta
	}
	if _, err := s.ledger.ApplyDelta(ctx, claim.Domain, claim.PosterID, posterDelta); err != nil {
		s.logger.Error("failed to settle poster karma", "claim", claim.ID, "poster", claim.PosterID, "err", err)
	}

	// Terminal status goes in last so a concurrent resolver observing the
	// claim mid-settlement still sees it active rather than half-settled.
	status := types.StatusFact
	if res.Verdict == types.VerdictFalse {
		status = types.StatusFalse
	}
	err := s.store.MergeClaim(ctx, claim.Domain, claim.ID, store.Fields{
		"status":        status,
		"trustScore":    res.Ratio,
		"weightedTrue":  res.WeightedTrue,
		"weightedFalse": res.WeightedFalse,
		"voterCount":    res.VoterCount,
	})
	if err != nil {
		return fmt.Errorf("failed to finalize claim %s: %w", claim.ID, err)
	}

	s.metrics.SettledClaims.With("verdict", string(res.Verdict)).Add(1)
	s.logger.Info("settled claim",
		"domain", claim.Domain,
		"claim", claim.ID,
		"verdict", res.Verdict,
		"ratio", res.Ratio,
		"voters", res.VoterCount,
	)
	return nil
}

// ReverseClaim undoes the settlement of a resolved claim during ghosting.
// Winners and losers are re-derived from the stored votes and the stored
// verdict, not from a fresh trust-score computation.
//
// The reversal deltas mirror the original engine exactly: a winner's +1.0
// reverses as -1.0 while a loser's -1.5 reverses as +1.5 and the poster's
// +/-2.0 flips sign. The winner magnitude is intentionally not the loser
// magnitude; do not "fix" the asymmetry.
func (s *Settler) ReverseClaim(ctx context.Context, claim *types.Claim) error {
	if claim == nil || !claim.Status.IsResolved() {
		return nil
	}

	verdict := types.VerdictFact
	if claim.Status == types.StatusFalse {
		verdict = types.VerdictFalse
	}

	votes := s.agg.Aggregate(ctx, claim.Domain, claim.ID)
	s.settleVoters(ctx, claim.Domain, votes, verdict, true)

	posterDelta := -s.params.PosterFactDelta
	if verdict == types.VerdictFalse {
		posterDelta = -s.params.PosterFalseDelta
	}
	if _, err := s.ledger.ApplyDelta(ctx, claim.Domain, claim.PosterID, posterDelta); err != nil {
		s.logger.Error("failed to reverse poster karma", "claim", claim.ID, "poster", claim.PosterID, "err", err)
	}

	s.logger.Info("reversed claim settlement",
		"domain", claim.Domain,
		"claim", claim.ID,
		"verdict", verdict,
		"voters", len(votes),
	)
	return nil
}

// SettleOpposition settles a challenge window: voters and the challenger
// are settled with the same asymmetric deltas, the outcome is recorded on
// the opposition, and the challenged claim leaves the opposed state.
func (s *Settler) SettleOpposition(ctx context.Context, opp *types.Opposition, res Result) error {
	if opp == nil {
		return fmt.Errorf("cannot settle nil opposition")
	}
	if res.Verdict != types.VerdictFact && res.Verdict != types.VerdictFalse {
		return nil
	}

	votes := s.agg.Aggregate(ctx, opp.Domain, opp.ID)
	s.settleVoters(ctx, opp.Domain, votes, res.Verdict, false)

	challengerDelta := s.params.PosterFactDelta
	if res.Verdict == types.VerdictFalse {
		challengerDelta = s.params.PosterFalseDelta
	}
	if _, err := s.ledger.ApplyDelta(ctx, opp.Domain, opp.ChallengerID, challengerDelta); err != nil {
		s.logger.Error("failed to settle challenger karma", "opposition", opp.ID, "err", err)
	}

	now := time.Now().UTC()
	err := s.store.MergeOpposition(ctx, opp.Domain, opp.ID, store.Fields{
		"outcome":    res.Verdict,
		"resolvedAt": now,
	})
	if err != nil {
		return fmt.Errorf("failed to finalize opposition %s: %w", opp.ID, err)
	}

	// An upheld challenge marks the claim false; a rejected or unclear one
	// returns the claim to the scan population for ordinary resolution.
	claimStatus := types.StatusActive
	if res.Verdict == types.VerdictFact {
		claimStatus = types.StatusFalse
	}
	err = s.store.MergeClaim(ctx, opp.Domain, opp.ClaimID, store.Fields{
		"status": claimStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to update challenged claim %s: %w", opp.ClaimID, err)
	}

	s.metrics.SettledOppositions.With("verdict", string(res.Verdict)).Add(1)
	s.logger.Info("settled opposition",
		"domain", opp.Domain,
		"opposition", opp.ID,
		"claim", opp.ClaimID,
		"verdict", res.Verdict,
	)
	return nil
}

// settleVoters applies (or reverses) the voter deltas for a finalized
// verdict. Errors on individual users are logged and skipped; updates are
// commutative across users.
func (s *Settler) settleVoters(ctx context.Context, domain string, votes []WeightedVote, verdict types.Verdict, reverse bool) {
	for _, v := range votes {
		matches := (v.Direction == types.VoteSupport) == (verdict == types.VerdictFact)

		var delta float64
		switch {
		case matches && !reverse:
			delta = s.params.WinnerDelta
		case !matches && !reverse:
			delta = s.params.LoserDelta
		case matches && reverse:
			// mirrored from the original settlement: winners give back
			// exactly -1.0 on reversal
			delta = -s.params.WinnerDelta
		default:
			delta = -s.params.LoserDelta
		}

		if _, err := s.ledger.ApplyDelta(ctx, domain, v.VoterID, delta); err != nil {
			s.logger.Error("failed to settle voter karma", "voter", v.VoterID, "err", err)
			continue
		}
		s.metrics.KarmaUpdates.Add(1)
	}
}
