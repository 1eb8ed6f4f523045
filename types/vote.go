package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VoteDirection encodes support (+1) or refutation (-1) of a claim.
type VoteDirection int8

const (
	VoteSupport VoteDirection = 1
	VoteRefute  VoteDirection = -1
)

var (
	ErrVoteMissingVoter     = errors.New("vote has no voter")
	ErrVoteMissingTarget    = errors.New("vote has no target")
	ErrVoteInvalidDirection = errors.New("vote direction must be +1 or -1")
)

// voteNamespace seeds deterministic vote identities. Changing it would
// orphan every stored vote record.
var voteNamespace = uuid.MustParse("8d9e43f2-4fa2-4bd5-9c77-1f2a0b6d7e55")

// VoteID derives the identity of a vote from its voter and target. The same
// voter casting on the same target always produces the same ID, so a second
// cast overwrites the first instead of storing a duplicate.
func VoteID(domain, targetID, voterID string) string {
	return uuid.NewSHA1(voteNamespace, []byte(domain+"/"+targetID+"/"+voterID)).String()
}

// Vote is a single cast on a claim or opposition. Weight is the voter's
// sqrt-karma captured at cast time; resolution recomputes weights from live
// karma and ignores this snapshot.
type Vote struct {
	ID        string        `json:"id"`
	Domain    string        `json:"domain"`
	TargetID  string        `json:"targetId"`
	VoterID   string        `json:"voterId"`
	Direction VoteDirection `json:"direction"`
	Weight    float64       `json:"weight"`
	Timestamp time.Time     `json:"timestamp"`
	Signature string        `json:"signature,omitempty"`
}

// NewVote creates a vote with its deterministic identity.
func NewVote(domain, targetID, voterID string, direction VoteDirection, weight float64) *Vote {
	return &Vote{
		ID:        VoteID(domain, targetID, voterID),
		Domain:    domain,
		TargetID:  targetID,
		VoterID:   voterID,
		Direction: direction,
		Weight:    weight,
		Timestamp: time.Now().UTC(),
	}
}

// ValidateBasic performs stateless checks on the vote record. Aggregation
// skips, rather than fails on, votes that do not pass.
func (v *Vote) ValidateBasic() error {
	if v.VoterID == "" {
		return ErrVoteMissingVoter
	}
	if v.TargetID == "" {
		return ErrVoteMissingTarget
	}
	if v.Direction != VoteSupport && v.Direction != VoteRefute {
		return ErrVoteInvalidDirection
	}
	return nil
}

func (v *Vote) String() string {
	return fmt.Sprintf("Vote{%s on %s dir=%+d w=%.2f}", v.VoterID, v.TargetID, v.Direction, v.Weight)
}
