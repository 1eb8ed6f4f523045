package store

import (
	"context"
	"time"

	"github.com/exeNyx7/ethereal-sub001/types"
)

// Fields is a partial-document update. Only the named fields are written;
// everything else at the path keeps its last written value. This mirrors the
// replicated substrate's merge semantics: last write wins per field, no
// multi-path transactions.
type Fields map[string]interface{}

// DefaultReadTimeout bounds every point read and scan. A read that does not
// complete in time degrades to an absent/empty result instead of hanging the
// caller.
const DefaultReadTimeout = 3 * time.Second

// Store is the engine's view of the community partition. Absent records and
// timed-out reads surface as nil/empty results, never as errors; only
// serialization failures on writes propagate.
type Store interface {
	CreateClaim(ctx context.Context, claim *types.Claim) error
	GetClaim(ctx context.Context, domain, claimID string) (*types.Claim, error)
	MergeClaim(ctx context.Context, domain, claimID string, fields Fields) error
	ListClaims(ctx context.Context, domain string) ([]*types.Claim, error)

	SaveVote(ctx context.Context, vote *types.Vote) error
	ListVotes(ctx context.Context, domain, targetID string) ([]*types.Vote, error)

	GetUser(ctx context.Context, domain, userID string) (*types.User, error)
	MergeUser(ctx context.Context, domain, userID string, fields Fields) error

	CreateOpposition(ctx context.Context, opp *types.Opposition) error
	GetOpposition(ctx context.Context, domain, oppID string) (*types.Opposition, error)
	MergeOpposition(ctx context.Context, domain, oppID string, fields Fields) error
	ListOppositions(ctx context.Context, domain string) ([]*types.Opposition, error)

	// WatchClaims subscribes to claim writes in a domain. It is consumed by
	// the feed transport only; the resolution core uses point reads and
	// scans exclusively.
	WatchClaims(domain string) (<-chan ClaimEvent, func())

	Close() error
}

// ClaimEvent is a single claim write observed by a watcher.
type ClaimEvent struct {
	Domain  string
	ClaimID string
	Claim   *types.Claim
}
