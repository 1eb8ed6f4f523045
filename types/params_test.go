package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultResolutionParams(t *testing.T) {
	params := DefaultResolutionParams()
	require.NoError(t, params.ValidateBasic())
}

func TestResolutionParamsValidateBasic(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*ResolutionParams)
	}{
		{"zero voters", func(p *ResolutionParams) { p.MinVoters = 0 }},
		{"zero weight", func(p *ResolutionParams) { p.MinTotalWeight = 0 }},
		{"inverted thresholds", func(p *ResolutionParams) { p.FactThreshold, p.FalseThreshold = 0.4, 0.6 }},
		{"threshold above one", func(p *ResolutionParams) { p.FactThreshold = 1.1 }},
		{"zero floor", func(p *ResolutionParams) { p.KarmaFloor = 0 }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultResolutionParams()
			tc.mutate(&params)
			require.Error(t, params.ValidateBasic())
		})
	}
}
