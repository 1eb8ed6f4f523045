package types

import "fmt"

// Verdict is the outcome of a trust-score resolution.
type Verdict string

const (
	VerdictPending      Verdict = "pending"
	VerdictFact         Verdict = "fact"
	VerdictFalse        Verdict = "false"
	VerdictInconclusive Verdict = "inconclusive"
)

// ResolutionParams are the tunable constants of the resolution engine.
// The defaults are the production values; tests inject tighter ones.
type ResolutionParams struct {
	// Quorum: both must be met before any verdict other than pending.
	MinVoters      int     `json:"minVoters"`
	MinTotalWeight float64 `json:"minTotalWeight"`

	// Verdict thresholds on weightedTrue/totalWeight.
	FactThreshold  float64 `json:"factThreshold"`
	FalseThreshold float64 `json:"falseThreshold"`

	// Settlement deltas. Reversal on ghosting negates PosterFactDelta /
	// PosterFalseDelta and LoserDelta exactly, but reverses WinnerDelta as
	// -1.0 regardless; see the settlement code for the mirrored asymmetry.
	WinnerDelta      float64 `json:"winnerDelta"`
	LoserDelta       float64 `json:"loserDelta"`
	PosterFactDelta  float64 `json:"posterFactDelta"`
	PosterFalseDelta float64 `json:"posterFalseDelta"`

	KarmaFloor float64 `json:"karmaFloor"`
}

// DefaultResolutionParams returns the production constants.
func DefaultResolutionParams() ResolutionParams {
	return ResolutionParams{
		MinVoters:        5,
		MinTotalWeight:   10,
		FactThreshold:    0.60,
		FalseThreshold:   0.40,
		WinnerDelta:      1.0,
		LoserDelta:       -1.5,
		PosterFactDelta:  2.0,
		PosterFalseDelta: -2.0,
		KarmaFloor:       KarmaFloor,
	}
}

// ValidateBasic checks the parameters are internally consistent.
func (p ResolutionParams) ValidateBasic() error {
	if p.MinVoters <= 0 {
		return fmt.Errorf("MinVoters must be greater than 0, got %d", p.MinVoters)
	}
	if p.MinTotalWeight <= 0 {
		return fmt.Errorf("MinTotalWeight must be greater than 0, got %v", p.MinTotalWeight)
	}
	if p.FactThreshold <= p.FalseThreshold {
		return fmt.Errorf("FactThreshold %v must exceed FalseThreshold %v", p.FactThreshold, p.FalseThreshold)
	}
	if p.FactThreshold > 1 || p.FalseThreshold < 0 {
		return fmt.Errorf("thresholds must lie in [0,1], got %v/%v", p.FactThreshold, p.FalseThreshold)
	}
	if p.KarmaFloor <= 0 {
		return fmt.Errorf("KarmaFloor must be greater than 0, got %v", p.KarmaFloor)
	}
	return nil
}
