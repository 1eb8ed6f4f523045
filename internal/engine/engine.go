package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/exeNyx7/ethereal-sub001/internal/ghost"
	"github.com/exeNyx7/ethereal-sub001/internal/ledger"
	"github.com/exeNyx7/ethereal-sub001/internal/resolve"
	"github.com/exeNyx7/ethereal-sub001/internal/scheduler"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// Metrics bundles the per-package metrics of the engine's components.
type Metrics struct {
	Resolve   *resolve.Metrics
	Ghost     *ghost.Metrics
	Scheduler *scheduler.Metrics
}

// NopMetrics returns no-op metrics for every component.
func NopMetrics() *Metrics {
	return &Metrics{
		Resolve:   resolve.NopMetrics(),
		Ghost:     ghost.NopMetrics(),
		Scheduler: scheduler.NopMetrics(),
	}
}

// Engine wires the ledger, aggregator, resolver, settler, ghost manager and
// scheduler together and exposes the operations callable by the outer
// API/UI layer.
//
// At most one scheduler runs per engine (one per node): starting for the
// community already being scanned is a no-op, starting for a different
// community stops the old interval first.
type Engine struct {
	logger   log.Logger
	store    store.Store
	ledger   *ledger.Ledger
	resolver *resolve.Resolver
	settler  *resolve.Settler
	ghosts   *ghost.Manager
	params   types.ResolutionParams
	metrics  *Metrics

	scanInterval time.Duration

	mtx   sync.Mutex
	sched *scheduler.Scheduler
}

// New creates an engine over the given store.
func New(logger log.Logger, st store.Store, params types.ResolutionParams, scanInterval time.Duration, metrics *Metrics) (*Engine, error) {
	if err := params.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid resolution params: %w", err)
	}
	if metrics == nil {
		metrics = NopMetrics()
	}

	ld := ledger.NewLedger(logger.With("module", "ledger"), st, params.KarmaFloor)
	agg := resolve.NewAggregator(logger.With("module", "resolve"), st, ld)
	resolver := resolve.NewResolver(logger.With("module", "resolve"), agg, params)
	settler := resolve.NewSettler(logger.With("module", "resolve"), st, ld, agg, params, metrics.Resolve)
	ghosts := ghost.NewManager(logger.With("module", "ghost"), st, resolver, settler, metrics.Ghost)

	return &Engine{
		logger:       logger,
		store:        st,
		ledger:       ld,
		resolver:     resolver,
		settler:      settler,
		ghosts:       ghosts,
		params:       params,
		metrics:      metrics,
		scanInterval: scanInterval,
	}, nil
}

// Store exposes the underlying store for the feed transport.
func (e *Engine) Store() store.Store { return e.store }

// PostClaim creates an active claim with a voting window.
func (e *Engine) PostClaim(ctx context.Context, domain, posterID, body string, window time.Duration, parentClaimID, signature string) (*types.Claim, error) {
	if window <= 0 {
		return nil, fmt.Errorf("claim window must be positive, got %v", window)
	}
	claim := types.NewClaim(domain, posterID, body, window)
	claim.ParentClaimID = parentClaimID
	claim.Signature = signature
	if err := e.store.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}
	e.logger.Info("posted claim", "domain", domain, "claim", claim.ID, "poster", posterID)
	return claim, nil
}

// CastVote records a vote on a claim or opposition. The vote's identity is
// derived from voter and target, so a repeat cast overwrites rather than
// duplicates. The stored weight is a cast-time snapshot; resolution always
// recomputes from live karma.
func (e *Engine) CastVote(ctx context.Context, domain, targetID, voterID string, direction types.VoteDirection, signature string) (*types.Vote, error) {
	karma := e.ledger.Karma(ctx, domain, voterID)
	vote := types.NewVote(domain, targetID, voterID, direction, math.Sqrt(math.Max(karma, 0)))
	vote.Signature = signature
	if err := e.store.SaveVote(ctx, vote); err != nil {
		return nil, err
	}
	e.logger.Debug("cast vote", "domain", domain, "target", targetID, "voter", voterID, "direction", direction)
	return vote, nil
}

// OpposeClaim opens a challenge window against an active claim and moves
// the claim to the opposed state, parking it until the challenge resolves.
func (e *Engine) OpposeClaim(ctx context.Context, domain, claimID, challengerID, reason string, window time.Duration) (*types.Opposition, error) {
	claim, err := e.store.GetClaim(ctx, domain, claimID)
	if err != nil || claim == nil {
		return nil, fmt.Errorf("cannot oppose claim %s: not found", claimID)
	}
	if claim.Status != types.StatusActive {
		return nil, fmt.Errorf("cannot oppose claim %s in status %s", claimID, claim.Status)
	}

	opp := types.NewOpposition(domain, claimID, challengerID, reason, window)
	if err := e.store.CreateOpposition(ctx, opp); err != nil {
		return nil, err
	}
	err = e.store.MergeClaim(ctx, domain, claimID, store.Fields{
		"status":       types.StatusOpposed,
		"oppositionId": opp.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark claim opposed: %w", err)
	}

	e.logger.Info("opened opposition", "domain", domain, "claim", claimID, "opposition", opp.ID)
	return opp, nil
}

// ResolveClaim computes the claim's current verdict without settling. An
// absent claim resolves pending; only missing input is an error.
func (e *Engine) ResolveClaim(ctx context.Context, domain, claimID string) (resolve.Result, error) {
	if domain == "" || claimID == "" {
		return resolve.Result{}, fmt.Errorf("resolve requires domain and claim id")
	}
	claim, err := e.store.GetClaim(ctx, domain, claimID)
	if err != nil || claim == nil {
		e.logger.Info("resolve skipped; claim not found", "domain", domain, "claim", claimID)
		return resolve.Result{Verdict: types.VerdictPending}, nil
	}
	return e.resolver.ResolveClaim(ctx, claim), nil
}

// SettleKarma applies settlement for an externally finalized verdict. A
// claim that already left the active state is a logged no-op.
func (e *Engine) SettleKarma(ctx context.Context, domain, claimID string, verdict types.Verdict) error {
	if domain == "" || claimID == "" {
		return fmt.Errorf("settle requires domain and claim id")
	}
	if verdict != types.VerdictFact && verdict != types.VerdictFalse {
		return nil
	}

	claim, err := e.store.GetClaim(ctx, domain, claimID)
	if err != nil || claim == nil {
		e.logger.Info("settle skipped; claim not found", "domain", domain, "claim", claimID)
		return nil
	}
	if claim.Status != types.StatusActive {
		e.logger.Info("settle skipped; claim no longer active", "claim", claimID, "status", claim.Status)
		return nil
	}

	res := e.resolver.ResolveClaim(ctx, claim)
	res.Verdict = verdict
	return e.settler.SettleClaim(ctx, claim, res)
}

// GhostClaim soft-deletes a claim, reversing settled karma and cascading a
// recompute over dependents.
func (e *Engine) GhostClaim(ctx context.Context, domain, claimID string) error {
	return e.ghosts.Ghost(ctx, domain, claimID)
}

// CheckGhostStatus reports whether the claim or its parent is ghosted.
func (e *Engine) CheckGhostStatus(ctx context.Context, domain string, claim *types.Claim) ghost.Status {
	return e.ghosts.CheckGhostStatus(ctx, domain, claim)
}

// StartScheduler runs the periodic resolution loop for a community.
// Starting again for the same community is a no-op; a different community
// replaces the running loop.
func (e *Engine) StartScheduler(ctx context.Context, domain string) error {
	if domain == "" {
		return fmt.Errorf("scheduler requires a community domain")
	}

	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.sched != nil && e.sched.IsRunning() {
		if e.sched.Domain() == domain {
			e.logger.Debug("scheduler already running", "domain", domain)
			return nil
		}
		if err := e.sched.Stop(); err != nil {
			e.logger.Error("failed to stop previous scheduler", "domain", e.sched.Domain(), "err", err)
		}
	}

	e.sched = scheduler.NewScheduler(
		e.logger.With("module", "scheduler", "domain", domain),
		e.store, e.resolver, e.settler, e.metrics.Scheduler,
		domain, e.scanInterval,
	)
	return e.sched.Start(ctx)
}

// StopScheduler stops the running resolution loop, if any. A scan already
// in flight completes to its natural end.
func (e *Engine) StopScheduler() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.sched == nil || !e.sched.IsRunning() {
		return nil
	}
	return e.sched.Stop()
}
