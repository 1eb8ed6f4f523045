package ghost

import (
	"context"
	"fmt"
	"time"

	"github.com/exeNyx7/ethereal-sub001/internal/resolve"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// Manager soft-deletes claims. Ghosting reverses any karma the claim's
// resolution settled and cascades a recompute over every claim that
// referenced the ghosted one.
//
// Every step is best-effort: a failure on one cascade target never stops
// the rest, and a partially completed ghost converges when retried because
// re-ghosting an already-ghosted claim is a no-op.
type Manager struct {
	logger   log.Logger
	store    store.Store
	resolver *resolve.Resolver
	settler  *resolve.Settler
	metrics  *Metrics
}

// Status is the ghost view of a claim: whether the claim itself is ghosted
// and whether its parent (if any) is.
type Status struct {
	IsGhost     bool `json:"isGhost"`
	ParentGhost bool `json:"parentGhost"`
}

// NewManager creates a ghost manager.
func NewManager(logger log.Logger, st store.Store, resolver *resolve.Resolver, settler *resolve.Settler, metrics *Metrics) *Manager {
	return &Manager{logger: logger, store: st, resolver: resolver, settler: settler, metrics: metrics}
}

// Ghost soft-deletes the claim: reverses settled karma when the claim was
// resolved, writes the ghost terminal state, and recomputes dependents.
// An absent or already-ghosted claim is a logged no-op.
func (m *Manager) Ghost(ctx context.Context, domain, claimID string) error {
	if domain == "" || claimID == "" {
		return fmt.Errorf("ghost requires domain and claim id")
	}

	claim, err := m.store.GetClaim(ctx, domain, claimID)
	if err != nil || claim == nil {
		m.logger.Info("ghost skipped; claim not found", "domain", domain, "claim", claimID)
		return nil
	}
	if claim.Status == types.StatusGhost {
		m.logger.Info("ghost skipped; claim already ghosted", "domain", domain, "claim", claimID)
		return nil
	}

	// Reverse karma before the status flips: reversal derives winners and
	// losers from the stored verdict, which the ghost write erases.
	if claim.Status.IsResolved() {
		if err := m.settler.ReverseClaim(ctx, claim); err != nil {
			m.logger.Error("failed to reverse settlement", "claim", claimID, "err", err)
		}
	}

	now := time.Now().UTC()
	err = m.store.MergeClaim(ctx, domain, claimID, store.Fields{
		"status":     types.StatusGhost,
		"trustScore": 0.0,
		"nullified":  true,
		"ghostedAt":  now,
	})
	if err != nil {
		return fmt.Errorf("failed to ghost claim %s: %w", claimID, err)
	}

	m.metrics.GhostedClaims.Add(1)
	m.logger.Info("ghosted claim", "domain", domain, "claim", claimID, "was", claim.Status)

	m.cascade(ctx, domain, claimID)
	return nil
}

// CheckGhostStatus reports whether the claim or its parent is ghosted.
func (m *Manager) CheckGhostStatus(ctx context.Context, domain string, claim *types.Claim) Status {
	if claim == nil {
		return Status{}
	}
	st := Status{IsGhost: claim.Status == types.StatusGhost}
	if claim.ParentClaimID != "" {
		parent, err := m.store.GetClaim(ctx, domain, claim.ParentClaimID)
		if err == nil && parent != nil && parent.Status == types.StatusGhost {
			st.ParentGhost = true
		}
	}
	return st
}

// cascade recomputes every terminally-resolved claim that references the
// ghosted one, either as its parent or as its opposition. That includes
// inconclusive claims, whose verdict may now land differently. Claims that
// are still active, opposed or themselves ghosted are left alone. One
// failed target is logged and skipped.
func (m *Manager) cascade(ctx context.Context, domain, ghostedID string) {
	claims, err := m.store.ListClaims(ctx, domain)
	if err != nil {
		m.logger.Error("cascade aborted; failed to list claims", "domain", domain, "err", err)
		return
	}

	for _, claim := range claims {
		if claim.ParentClaimID != ghostedID && claim.OppositionID != ghostedID {
			continue
		}
		switch claim.Status {
		case types.StatusActive, types.StatusOpposed, types.StatusGhost:
			continue
		}

		res := m.resolver.ResolveClaim(ctx, claim)
		if res.Verdict == types.VerdictPending {
			m.logger.Debug("cascade recompute stayed pending", "claim", claim.ID)
			continue
		}
		if err := m.settler.SettleClaim(ctx, claim, res); err != nil {
			m.logger.Error("cascade recompute failed; continuing", "claim", claim.ID, "err", err)
			continue
		}
		m.metrics.CascadeRecomputes.Add(1)
		m.logger.Info("cascade recomputed dependent claim",
			"domain", domain,
			"claim", claim.ID,
			"verdict", res.Verdict,
		)
	}
}
