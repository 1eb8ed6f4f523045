package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClaimWindow(t *testing.T) {
	claim := NewClaim("general", "poster", "the cafeteria coffee is decaf", 24*time.Hour)

	require.NoError(t, claim.ValidateBasic())
	assert.Equal(t, StatusActive, claim.Status)
	assert.Equal(t, claim.CreatedAt.Add(claim.WindowDuration), claim.WindowClosesAt)
	assert.False(t, claim.Expired(claim.CreatedAt))
	assert.True(t, claim.Expired(claim.WindowClosesAt.Add(time.Second)))
}

func TestClaimValidateBasic(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*Claim)
		expected error
	}{
		{"valid", func(c *Claim) {}, nil},
		{"missing domain", func(c *Claim) { c.Domain = "" }, ErrClaimMissingDomain},
		{"missing poster", func(c *Claim) { c.PosterID = "" }, ErrClaimMissingPoster},
		{"missing body", func(c *Claim) { c.Body = "" }, ErrClaimMissingBody},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			claim := NewClaim("general", "poster", "body", time.Hour)
			tc.mutate(claim)
			err := claim.ValidateBasic()
			if tc.expected == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.expected)
			}
		})
	}
}

func TestClaimStatusTransitions(t *testing.T) {
	assert.True(t, StatusFact.IsResolved())
	assert.True(t, StatusFalse.IsResolved())
	assert.False(t, StatusInconclusive.IsResolved())
	assert.False(t, StatusActive.IsResolved())
	assert.False(t, StatusGhost.IsResolved())

	assert.True(t, StatusFact.IsTerminal())
	assert.True(t, StatusFalse.IsTerminal())
	assert.True(t, StatusInconclusive.IsTerminal())
	assert.True(t, StatusGhost.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusOpposed.IsTerminal())
}
