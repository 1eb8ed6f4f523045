package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOppositionMissingClaim      = errors.New("opposition has no target claim")
	ErrOppositionMissingChallenger = errors.New("opposition has no challenger")
)

// Opposition is a challenge window opened against a claim. It carries its
// own vote pool and is resolved by the same quorum/threshold policy as the
// claim it challenges.
type Opposition struct {
	ID             string        `json:"id"`
	Domain         string        `json:"domain"`
	ClaimID        string        `json:"claimId"`
	ChallengerID   string        `json:"challengerId"`
	Reason         string        `json:"reason"`
	CreatedAt      time.Time     `json:"createdAt"`
	WindowDuration time.Duration `json:"windowDuration"`
	WindowClosesAt time.Time     `json:"windowClosesAt"`

	// Outcome is empty until the challenge window resolves.
	Outcome    Verdict    `json:"outcome,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// NewOpposition opens a challenge against claimID with its own voting window.
func NewOpposition(domain, claimID, challengerID, reason string, window time.Duration) *Opposition {
	now := time.Now().UTC()
	return &Opposition{
		ID:             uuid.NewString(),
		Domain:         domain,
		ClaimID:        claimID,
		ChallengerID:   challengerID,
		Reason:         reason,
		CreatedAt:      now,
		WindowDuration: window,
		WindowClosesAt: now.Add(window),
	}
}

// ValidateBasic performs stateless checks on the opposition record.
func (o *Opposition) ValidateBasic() error {
	if o.Domain == "" {
		return ErrClaimMissingDomain
	}
	if o.ClaimID == "" {
		return ErrOppositionMissingClaim
	}
	if o.ChallengerID == "" {
		return ErrOppositionMissingChallenger
	}
	return nil
}

// Resolved reports whether the challenge already carries an outcome.
func (o *Opposition) Resolved() bool {
	return o.Outcome != "" && o.Outcome != VerdictPending
}

// Expired reports whether the challenge window has closed as of now.
func (o *Opposition) Expired(now time.Time) bool {
	return now.After(o.WindowClosesAt)
}

func (o *Opposition) String() string {
	return fmt.Sprintf("Opposition{%s challenging %s outcome=%s}", o.ID, o.ClaimID, o.Outcome)
}
