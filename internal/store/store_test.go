package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

func newTestStore(t *testing.T) Store {
	return NewStore(log.NewTestingLogger(t), dbm.NewMemDB(), 0)
}

func TestClaimRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	claim := types.NewClaim("general", "poster", "body", time.Hour)
	require.NoError(t, st.CreateClaim(ctx, claim))

	stored, err := st.GetClaim(ctx, "general", claim.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, claim.ID, stored.ID)
	assert.Equal(t, claim.Body, stored.Body)
	assert.Equal(t, types.StatusActive, stored.Status)
}

func TestGetClaimAbsent(t *testing.T) {
	st := newTestStore(t)
	stored, err := st.GetClaim(context.Background(), "general", "no-such-claim")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMergeClaimPreservesUnnamedFields(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	claim := types.NewClaim("general", "poster", "the original body", time.Hour)
	require.NoError(t, st.CreateClaim(ctx, claim))

	// patch only the status; every other field keeps its last written value
	require.NoError(t, st.MergeClaim(ctx, "general", claim.ID, Fields{
		"status":     types.StatusFact,
		"trustScore": 0.75,
	}))

	stored, err := st.GetClaim(ctx, "general", claim.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFact, stored.Status)
	assert.Equal(t, 0.75, stored.TrustScore)
	assert.Equal(t, "the original body", stored.Body)
	assert.Equal(t, claim.PosterID, stored.PosterID)
}

func TestMergeClaimLastWriteWinsPerField(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	claim := types.NewClaim("general", "poster", "body", time.Hour)
	require.NoError(t, st.CreateClaim(ctx, claim))

	// two writers patch disjoint fields; both patches survive
	require.NoError(t, st.MergeClaim(ctx, "general", claim.ID, Fields{"trustScore": 0.2}))
	require.NoError(t, st.MergeClaim(ctx, "general", claim.ID, Fields{"voterCount": 7}))
	// a later write to the same field replaces the earlier one
	require.NoError(t, st.MergeClaim(ctx, "general", claim.ID, Fields{"trustScore": 0.9}))

	stored, err := st.GetClaim(ctx, "general", claim.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.9, stored.TrustScore)
	assert.Equal(t, 7, stored.VoterCount)
}

func TestMergeCreatesMissingDocument(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.MergeUser(ctx, "general", "alice", Fields{"id": "alice", "karma": 3.5}))

	user, err := st.GetUser(ctx, "general", "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 3.5, user.Karma)
}

func TestSaveVoteDeduplicates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// same voter, same target: the second cast overwrites the first
	require.NoError(t, st.SaveVote(ctx, types.NewVote("general", "claim-1", "alice", types.VoteSupport, 1)))
	require.NoError(t, st.SaveVote(ctx, types.NewVote("general", "claim-1", "alice", types.VoteRefute, 1)))

	votes, err := st.ListVotes(ctx, "general", "claim-1")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, types.VoteRefute, votes[0].Direction)
}

func TestListVotesScopedToTarget(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveVote(ctx, types.NewVote("general", "claim-1", "alice", types.VoteSupport, 1)))
	require.NoError(t, st.SaveVote(ctx, types.NewVote("general", "claim-1", "bob", types.VoteRefute, 1)))
	require.NoError(t, st.SaveVote(ctx, types.NewVote("general", "claim-2", "carol", types.VoteSupport, 1)))
	require.NoError(t, st.SaveVote(ctx, types.NewVote("dorm", "claim-1", "dave", types.VoteSupport, 1)))

	votes, err := st.ListVotes(ctx, "general", "claim-1")
	require.NoError(t, err)
	assert.Len(t, votes, 2)
}

func TestListClaimsScopedToDomain(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, st.CreateClaim(ctx, types.NewClaim("campus", "poster", "body", time.Hour)))
	}
	require.NoError(t, st.CreateClaim(ctx, types.NewClaim("dorm", "poster", "body", time.Hour)))

	claims, err := st.ListClaims(ctx, "campus")
	require.NoError(t, err)
	assert.Len(t, claims, 3)

	claims, err = st.ListClaims(ctx, "dorm")
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestOppositionRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	opp := types.NewOpposition("general", "claim-1", "challenger", "reason", time.Hour)
	require.NoError(t, st.CreateOpposition(ctx, opp))

	stored, err := st.GetOpposition(ctx, "general", opp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, opp.ChallengerID, stored.ChallengerID)
	assert.False(t, stored.Resolved())

	now := time.Now().UTC()
	require.NoError(t, st.MergeOpposition(ctx, "general", opp.ID, Fields{
		"outcome":    types.VerdictFact,
		"resolvedAt": now,
	}))

	stored, err = st.GetOpposition(ctx, "general", opp.ID)
	require.NoError(t, err)
	assert.True(t, stored.Resolved())
	assert.Equal(t, types.VerdictFact, stored.Outcome)
}

func TestWatchClaimsObservesMergedDocument(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	events, cancel := st.WatchClaims("general")
	defer cancel()

	claim := types.NewClaim("general", "poster", "body", time.Hour)
	require.NoError(t, st.CreateClaim(ctx, claim))

	select {
	case ev := <-events:
		assert.Equal(t, claim.ID, ev.ClaimID)
		assert.Equal(t, types.StatusActive, ev.Claim.Status)
	case <-time.After(time.Second):
		t.Fatal("no event for claim creation")
	}

	require.NoError(t, st.MergeClaim(ctx, "general", claim.ID, Fields{"status": types.StatusGhost}))

	select {
	case ev := <-events:
		// watchers see the whole merged document, not the patch
		assert.Equal(t, types.StatusGhost, ev.Claim.Status)
		assert.Equal(t, "body", ev.Claim.Body)
	case <-time.After(time.Second):
		t.Fatal("no event for claim merge")
	}
}

func TestWatchClaimsDomainScoped(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	events, cancel := st.WatchClaims("campus")
	defer cancel()

	require.NoError(t, st.CreateClaim(ctx, types.NewClaim("dorm", "poster", "body", time.Hour)))

	select {
	case ev := <-events:
		t.Fatalf("unexpected event from another domain: %v", ev.ClaimID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchCancelClosesChannel(t *testing.T) {
	st := newTestStore(t)

	events, cancel := st.WatchClaims("general")
	cancel()

	_, ok := <-events
	assert.False(t, ok)
}
