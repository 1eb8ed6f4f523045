package scheduler

import (
	"context"
	"time"

	"github.com/exeNyx7/ethereal-sub001/internal/resolve"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/libs/service"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// DefaultScanInterval is the production polling interval.
const DefaultScanInterval = 30 * time.Second

// Scheduler is the periodic resolution loop for one community. Every
// participating node runs its own instance against the same shared store;
// there is no leader election, so the same claim may be scanned by several
// peers in the same interval. Within one scan claims are processed
// sequentially.
//
// Stopping cancels only the timer: a scan already in flight completes to
// its natural end.
type Scheduler struct {
	service.BaseService

	store    store.Store
	resolver *resolve.Resolver
	settler  *resolve.Settler
	metrics  *Metrics
	logger   log.Logger

	domain   string
	interval time.Duration
	stopCh   chan struct{}
}

// NewScheduler creates a scheduler for one community domain.
func NewScheduler(logger log.Logger, st store.Store, resolver *resolve.Resolver, settler *resolve.Settler, metrics *Metrics, domain string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	s := &Scheduler{
		store:    st,
		resolver: resolver,
		settler:  settler,
		metrics:  metrics,
		logger:   logger,
		domain:   domain,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	s.BaseService = *service.NewBaseService(logger, "Scheduler", s)
	return s
}

// Domain returns the community this scheduler scans.
func (s *Scheduler) Domain() string { return s.domain }

// OnStart implements service.Implementation by launching the polling loop.
func (s *Scheduler) OnStart(ctx context.Context) error {
	go s.loop(ctx)
	return nil
}

// OnStop implements service.Implementation by cancelling the timer.
func (s *Scheduler) OnStop() {
	close(s.stopCh)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scanOnce(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scanOnce resolves every expired active claim and every expired open
// opposition in the domain. Each store operation is timeout-bounded, so a
// scan always completes in bounded time.
func (s *Scheduler) scanOnce(ctx context.Context) {
	start := time.Now()
	now := start.UTC()

	claims, err := s.store.ListClaims(ctx, s.domain)
	if err != nil {
		s.logger.Error("scan failed to list claims", "domain", s.domain, "err", err)
		return
	}

	for _, claim := range claims {
		// Opposed claims wait for their challenge; everything non-active
		// is past resolution already.
		if claim.Status != types.StatusActive || !claim.Expired(now) {
			continue
		}
		s.resolveExpiredClaim(ctx, claim, now)
	}

	opps, err := s.store.ListOppositions(ctx, s.domain)
	if err != nil {
		s.logger.Error("scan failed to list oppositions", "domain", s.domain, "err", err)
		return
	}

	for _, opp := range opps {
		if opp.Resolved() || !opp.Expired(now) {
			continue
		}
		s.resolveExpiredOpposition(ctx, opp)
	}

	s.metrics.Scans.Add(1)
	s.metrics.ScanDurationSeconds.Set(time.Since(start).Seconds())
}

func (s *Scheduler) resolveExpiredClaim(ctx context.Context, claim *types.Claim, now time.Time) {
	res := s.resolver.ResolveClaim(ctx, claim)

	switch res.Verdict {
	case types.VerdictPending:
		// quorum or weight not met; the claim stays active until a later
		// scan succeeds
		s.logger.Debug("claim stays pending", "claim", claim.ID, "voters", res.VoterCount, "weight", res.TotalWeight)

	case types.VerdictInconclusive:
		if res.RequiresExtendedWindow && !claim.ExtendedOnce {
			closes := now.Add(claim.WindowDuration)
			err := s.store.MergeClaim(ctx, s.domain, claim.ID, store.Fields{
				"windowClosesAt": closes,
				"extendedOnce":   true,
			})
			if err != nil {
				s.logger.Error("failed to extend claim window", "claim", claim.ID, "err", err)
				return
			}
			s.logger.Info("extended claim window", "claim", claim.ID, "closesAt", closes)
			return
		}
		// the one extension is spent; record the inconclusive terminal
		// state, settling nothing
		err := s.store.MergeClaim(ctx, s.domain, claim.ID, store.Fields{
			"status":     types.StatusInconclusive,
			"trustScore": res.Ratio,
		})
		if err != nil {
			s.logger.Error("failed to mark claim inconclusive", "claim", claim.ID, "err", err)
		}

	default:
		if err := s.settler.SettleClaim(ctx, claim, res); err != nil {
			s.logger.Error("failed to settle claim", "claim", claim.ID, "err", err)
		}
	}
}

func (s *Scheduler) resolveExpiredOpposition(ctx context.Context, opp *types.Opposition) {
	res := s.resolver.ResolveOpposition(ctx, opp)

	switch res.Verdict {
	case types.VerdictPending:
		s.logger.Debug("opposition stays pending", "opposition", opp.ID, "voters", res.VoterCount)

	case types.VerdictInconclusive:
		// challenges get no window extension; an unclear challenge resolves
		// inconclusive and frees the claim for ordinary resolution
		now := time.Now().UTC()
		err := s.store.MergeOpposition(ctx, s.domain, opp.ID, store.Fields{
			"outcome":    types.VerdictInconclusive,
			"resolvedAt": now,
		})
		if err != nil {
			s.logger.Error("failed to mark opposition inconclusive", "opposition", opp.ID, "err", err)
			return
		}
		err = s.store.MergeClaim(ctx, s.domain, opp.ClaimID, store.Fields{
			"status": types.StatusActive,
		})
		if err != nil {
			s.logger.Error("failed to reactivate challenged claim", "claim", opp.ClaimID, "err", err)
		}

	default:
		if err := s.settler.SettleOpposition(ctx, opp, res); err != nil {
			s.logger.Error("failed to settle opposition", "opposition", opp.ID, "err", err)
		}
	}
}
