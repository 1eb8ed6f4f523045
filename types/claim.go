package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the lifecycle state of a claim. Transitions are
// one-directional except for ghosting, which may be applied from any
// non-ghost state.
type ClaimStatus string

const (
	StatusActive       ClaimStatus = "active"
	StatusFact         ClaimStatus = "fact"
	StatusFalse        ClaimStatus = "false"
	StatusInconclusive ClaimStatus = "inconclusive"
	StatusOpposed      ClaimStatus = "opposed"
	StatusGhost        ClaimStatus = "ghost"
)

var (
	ErrClaimMissingDomain = errors.New("claim has no community domain")
	ErrClaimMissingPoster = errors.New("claim has no poster")
	ErrClaimMissingBody   = errors.New("claim has no body")
)

// IsResolved reports whether the claim reached a fact/false verdict.
// Resolved claims carry settled karma, so ghosting them must reverse it.
func (s ClaimStatus) IsResolved() bool {
	return s == StatusFact || s == StatusFalse
}

// IsTerminal reports whether the status accepts no further resolution.
// Ghosting is still permitted from any terminal state except ghost itself.
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case StatusFact, StatusFalse, StatusInconclusive, StatusGhost:
		return true
	}
	return false
}

// Claim is a posted statement ("rumor") subject to community voting.
//
// WeightedTrue, WeightedFalse, VoterCount and TrustScore are the totals
// recorded by the most recent resolution pass. They are advisory: every
// resolution re-aggregates the stored votes against live karma rather than
// trusting these fields.
type Claim struct {
	ID             string        `json:"id"`
	Domain         string        `json:"domain"`
	PosterID       string        `json:"posterId"`
	Body           string        `json:"body"`
	CreatedAt      time.Time     `json:"createdAt"`
	WindowDuration time.Duration `json:"windowDuration"`
	WindowClosesAt time.Time     `json:"windowClosesAt"`
	Status         ClaimStatus   `json:"status"`

	WeightedTrue  float64 `json:"weightedTrue"`
	WeightedFalse float64 `json:"weightedFalse"`
	VoterCount    int     `json:"voterCount"`
	TrustScore    float64 `json:"trustScore"`

	// ParentClaimID is set when this claim extends another one. A ghost of
	// the parent cascades a recompute of this claim.
	ParentClaimID string `json:"parentClaimId,omitempty"`
	// OppositionID references the challenge currently opposing this claim.
	OppositionID string `json:"oppositionId,omitempty"`

	ExtendedOnce bool       `json:"extendedOnce"`
	Nullified    bool       `json:"nullified"`
	GhostedAt    *time.Time `json:"ghostedAt,omitempty"`

	// Signature is an opaque authenticity marker. Verification happens
	// outside this engine; here it is only present or absent.
	Signature string `json:"signature,omitempty"`
}

// NewClaim creates an active claim whose voting window closes at
// createdAt + window.
func NewClaim(domain, posterID, body string, window time.Duration) *Claim {
	now := time.Now().UTC()
	return &Claim{
		ID:             uuid.NewString(),
		Domain:         domain,
		PosterID:       posterID,
		Body:           body,
		CreatedAt:      now,
		WindowDuration: window,
		WindowClosesAt: now.Add(window),
		Status:         StatusActive,
	}
}

// ValidateBasic performs stateless checks on the claim record.
func (c *Claim) ValidateBasic() error {
	if c.Domain == "" {
		return ErrClaimMissingDomain
	}
	if c.PosterID == "" {
		return ErrClaimMissingPoster
	}
	if c.Body == "" {
		return ErrClaimMissingBody
	}
	if c.WindowClosesAt.Before(c.CreatedAt) {
		return fmt.Errorf("claim window closes at %v, before creation at %v", c.WindowClosesAt, c.CreatedAt)
	}
	return nil
}

// Expired reports whether the voting window has closed as of now.
func (c *Claim) Expired(now time.Time) bool {
	return now.After(c.WindowClosesAt)
}

func (c *Claim) String() string {
	return fmt.Sprintf("Claim{%s %s status=%s voters=%d}", c.Domain, c.ID, c.Status, c.VoterCount)
}
