package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/exeNyx7/ethereal-sub001/internal/ledger"
	"github.com/exeNyx7/ethereal-sub001/internal/resolve"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

type schedFixture struct {
	store  store.Store
	ledger *ledger.Ledger
	sched  *Scheduler
}

func newSchedFixture(t *testing.T, domain string) *schedFixture {
	logger := log.NewTestingLogger(t)
	st := store.NewStore(logger, dbm.NewMemDB(), 0)
	ld := ledger.NewLedger(logger, st, types.KarmaFloor)
	agg := resolve.NewAggregator(logger, st, ld)
	params := types.DefaultResolutionParams()
	resolver := resolve.NewResolver(logger, agg, params)
	settler := resolve.NewSettler(logger, st, ld, agg, params, resolve.NopMetrics())
	return &schedFixture{
		store:  st,
		ledger: ld,
		sched:  NewScheduler(logger, st, resolver, settler, NopMetrics(), domain, 10*time.Millisecond),
	}
}

func (f *schedFixture) seedVoters(t *testing.T, domain, target string, supporters, refuters []string) {
	ctx := context.Background()
	for _, v := range supporters {
		require.NoError(t, f.store.MergeUser(ctx, domain, v, store.Fields{"id": v, "karma": 4.0}))
		require.NoError(t, f.store.SaveVote(ctx, types.NewVote(domain, target, v, types.VoteSupport, 0)))
	}
	for _, v := range refuters {
		require.NoError(t, f.store.MergeUser(ctx, domain, v, store.Fields{"id": v, "karma": 4.0}))
		require.NoError(t, f.store.SaveVote(ctx, types.NewVote(domain, target, v, types.VoteRefute, 0)))
	}
}

func TestSchedulerSettlesExpiredClaim(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	ctx := context.Background()
	f := newSchedFixture(t, "general")

	// a one-millisecond window is already closed by the first scan
	claim := types.NewClaim("general", "poster", "body", time.Millisecond)
	require.NoError(t, f.store.CreateClaim(ctx, claim))
	// six weight-2 supporters: quorum 6, weight 12, ratio 1.0
	f.seedVoters(t, "general", claim.ID, []string{"a", "b", "c", "d", "e", "g"}, nil)

	require.NoError(t, f.sched.Start(ctx))
	defer func() {
		require.NoError(t, f.sched.Stop())
		f.sched.Wait()
	}()

	require.Eventually(t, func() bool {
		stored, err := f.store.GetClaim(ctx, "general", claim.ID)
		return err == nil && stored != nil && stored.Status == types.StatusFact
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 5.0, f.ledger.Karma(ctx, "general", "a"))
	assert.Equal(t, types.InitialKarma+2.0, f.ledger.Karma(ctx, "general", "poster"))
}

func TestSchedulerExtendsWindowOnce(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	ctx := context.Background()
	f := newSchedFixture(t, "general")

	// the first window is already closed, but the extension re-adds the
	// full hour so the extended window stays open for the rest of the test
	claim := types.NewClaim("general", "poster", "body", time.Hour)
	require.NoError(t, f.store.CreateClaim(ctx, claim))
	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.store.MergeClaim(ctx, "general", claim.ID, store.Fields{"windowClosesAt": expired}))
	// a 3-3 split at weight 2 lands between the thresholds
	f.seedVoters(t, "general", claim.ID, []string{"a", "b", "c"}, []string{"x", "y", "z"})

	require.NoError(t, f.sched.Start(ctx))
	defer func() {
		require.NoError(t, f.sched.Stop())
		f.sched.Wait()
	}()

	require.Eventually(t, func() bool {
		stored, err := f.store.GetClaim(ctx, "general", claim.ID)
		return err == nil && stored != nil && stored.ExtendedOnce
	}, time.Second, 5*time.Millisecond)

	stored, err := f.store.GetClaim(ctx, "general", claim.ID)
	require.NoError(t, err)
	// the first pass extends; the claim stays active for the new window
	assert.Equal(t, types.StatusActive, stored.Status)
	assert.True(t, stored.WindowClosesAt.After(claim.WindowClosesAt))
}

func TestSchedulerMarksSpentExtensionInconclusive(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	ctx := context.Background()
	f := newSchedFixture(t, "general")

	claim := types.NewClaim("general", "poster", "body", time.Millisecond)
	require.NoError(t, f.store.CreateClaim(ctx, claim))
	require.NoError(t, f.store.MergeClaim(ctx, "general", claim.ID, store.Fields{"extendedOnce": true}))
	f.seedVoters(t, "general", claim.ID, []string{"a", "b", "c"}, []string{"x", "y", "z"})

	require.NoError(t, f.sched.Start(ctx))
	defer func() {
		require.NoError(t, f.sched.Stop())
		f.sched.Wait()
	}()

	require.Eventually(t, func() bool {
		stored, err := f.store.GetClaim(ctx, "general", claim.ID)
		return err == nil && stored != nil && stored.Status == types.StatusInconclusive
	}, time.Second, 5*time.Millisecond)

	// inconclusive settles nobody
	assert.Equal(t, 4.0, f.ledger.Karma(ctx, "general", "a"))
}

func TestSchedulerSettlesExpiredOpposition(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	ctx := context.Background()
	f := newSchedFixture(t, "general")

	claim := types.NewClaim("general", "poster", "body", time.Hour)
	require.NoError(t, f.store.CreateClaim(ctx, claim))

	opp := types.NewOpposition("general", claim.ID, "challenger", "sources say otherwise", time.Millisecond)
	require.NoError(t, f.store.CreateOpposition(ctx, opp))
	require.NoError(t, f.store.MergeClaim(ctx, "general", claim.ID, store.Fields{
		"status":       types.StatusOpposed,
		"oppositionId": opp.ID,
	}))
	require.NoError(t, f.store.MergeUser(ctx, "general", "challenger", store.Fields{"id": "challenger", "karma": 4.0}))
	// the challenge vote pool upholds the opposition
	f.seedVoters(t, "general", opp.ID, []string{"a", "b", "c", "d", "e", "g"}, nil)

	require.NoError(t, f.sched.Start(ctx))
	defer func() {
		require.NoError(t, f.sched.Stop())
		f.sched.Wait()
	}()

	require.Eventually(t, func() bool {
		stored, err := f.store.GetOpposition(ctx, "general", opp.ID)
		return err == nil && stored != nil && stored.Resolved()
	}, time.Second, 5*time.Millisecond)

	storedOpp, err := f.store.GetOpposition(ctx, "general", opp.ID)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictFact, storedOpp.Outcome)

	// an upheld challenge marks the claim false
	storedClaim, err := f.store.GetClaim(ctx, "general", claim.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFalse, storedClaim.Status)
	assert.Equal(t, 6.0, f.ledger.Karma(ctx, "general", "challenger"))
}

func TestSchedulerStops(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	f := newSchedFixture(t, "general")
	require.NoError(t, f.sched.Start(context.Background()))
	require.True(t, f.sched.IsRunning())

	require.NoError(t, f.sched.Stop())
	f.sched.Wait()
	require.False(t, f.sched.IsRunning())
}
