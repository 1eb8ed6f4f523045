package resolve

import (
	"context"

	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// Result is the outcome of one trust-score computation. Partial weighted
// sums are reported even when the verdict stays pending.
type Result struct {
	Verdict       types.Verdict
	WeightedTrue  float64
	WeightedFalse float64
	TotalWeight   float64
	Ratio         float64
	VoterCount    int

	// RequiresExtendedWindow is set on an inconclusive verdict; the caller
	// may grant at most one window extension per claim.
	RequiresExtendedWindow bool
}

// Tally applies the quorum/threshold policy to a weighted vote list. It is
// a pure function: idempotent and order-independent over the same votes and
// karma snapshot.
func Tally(votes []WeightedVote, params types.ResolutionParams) Result {
	res := Result{Verdict: types.VerdictPending, VoterCount: len(votes)}
	for _, v := range votes {
		if v.Direction == types.VoteSupport {
			res.WeightedTrue += v.Weight
		} else {
			res.WeightedFalse += v.Weight
		}
	}
	res.TotalWeight = res.WeightedTrue + res.WeightedFalse
	if res.TotalWeight > 0 {
		res.Ratio = res.WeightedTrue / res.TotalWeight
	}

	switch {
	case res.VoterCount < params.MinVoters:
		// quorum not met; partial sums still reported
	case res.TotalWeight < params.MinTotalWeight:
		// enough voters but the signal is too weak
	case res.Ratio >= params.FactThreshold:
		res.Verdict = types.VerdictFact
	case res.Ratio <= params.FalseThreshold:
		res.Verdict = types.VerdictFalse
	default:
		res.Verdict = types.VerdictInconclusive
		res.RequiresExtendedWindow = true
	}
	return res
}

// Resolver computes verdicts for claims and oppositions. It performs no
// writes; settlement is a separate step.
type Resolver struct {
	logger log.Logger
	agg    *Aggregator
	params types.ResolutionParams
}

// NewResolver creates a resolver with the given policy constants.
func NewResolver(logger log.Logger, agg *Aggregator, params types.ResolutionParams) *Resolver {
	return &Resolver{logger: logger, agg: agg, params: params}
}

// Params returns the policy constants the resolver applies.
func (r *Resolver) Params() types.ResolutionParams { return r.params }

// ResolveClaim aggregates the claim's votes against live karma and tallies
// them. A ghosted claim is never aggregated: the guard returns pending
// immediately.
func (r *Resolver) ResolveClaim(ctx context.Context, claim *types.Claim) Result {
	if claim == nil || claim.Status == types.StatusGhost {
		return Result{Verdict: types.VerdictPending}
	}
	votes := r.agg.Aggregate(ctx, claim.Domain, claim.ID)
	return Tally(votes, r.params)
}

// ResolveOpposition runs the identical policy over a challenge's own vote
// pool.
func (r *Resolver) ResolveOpposition(ctx context.Context, opp *types.Opposition) Result {
	if opp == nil {
		return Result{Verdict: types.VerdictPending}
	}
	votes := r.agg.Aggregate(ctx, opp.Domain, opp.ID)
	return Tally(votes, r.params)
}
