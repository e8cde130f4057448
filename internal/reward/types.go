package reward

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/track-reward/internal/observation"
)

// #region errors
var (
	// ErrUnknownStrategy is returned for a strategy name outside the closed set.
	ErrUnknownStrategy = errors.New("unknown reward strategy")
	// ErrDegenerateEfficiency is returned when steps and expected progress are both zero.
	ErrDegenerateEfficiency = errors.New("efficiency undefined: steps and expected meters are both zero")
	// ErrNonFiniteReward is returned when in-range inputs still overflow the reward.
	ErrNonFiniteReward = errors.New("reward is not finite")
)

// #endregion errors

// #region strategy
// Strategy names a reward-shaping policy.
type Strategy string

const (
	// StrategyProgressAdditive sums waypoint, efficiency, centering, heading and
	// speed terms and subtracts penalties on top.
	StrategyProgressAdditive Strategy = "progress_additive"
	// StrategyIndexMultiplicative weights waypoint proximity by index, scales by
	// centering and direction, and resets to a fixed value on crash or off-track.
	StrategyIndexMultiplicative Strategy = "index_multiplicative"
)

// Strategies lists every supported strategy.
func Strategies() []Strategy {
	return []Strategy{StrategyProgressAdditive, StrategyIndexMultiplicative}
}

// ParseStrategy maps a name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(name)
	switch s {
	case StrategyProgressAdditive, StrategyIndexMultiplicative:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// RequiredFields returns the params keys the strategy reads.
func (s Strategy) RequiredFields() []string {
	common := []string{
		observation.KeyAllWheelsOnTrack,
		observation.KeyX,
		observation.KeyY,
		observation.KeyClosestWaypoints,
		observation.KeyDistanceFromCenter,
		observation.KeyHeading,
		observation.KeyIsCrashed,
		observation.KeyIsOfftrack,
		observation.KeyProgress,
		observation.KeySpeed,
		observation.KeySteps,
		observation.KeyTrackLength,
		observation.KeyTrackWidth,
		observation.KeyWaypoints,
	}
	if s == StrategyProgressAdditive {
		return append(common, observation.KeySteeringAngle)
	}
	return common
}

// #endregion strategy

// #region terms
// TermKind says how a term combines with the running reward.
type TermKind string

const (
	TermAdd      TermKind = "add"      // reward += value
	TermScale    TermKind = "scale"    // reward *= value
	TermOverride TermKind = "override" // reward = value
)

// Term is one step of the reward computation, kept for logging and inspection.
type Term struct {
	Name  string   `json:"name"`
	Kind  TermKind `json:"kind"`
	Value float64  `json:"value"`
}

// Result is the reward for one observation plus how it was composed.
type Result struct {
	Strategy Strategy `json:"strategy"`
	Reward   float64  `json:"reward"`
	Terms    []Term   `json:"terms"`
	Terminal bool     `json:"terminal"` // crashed or off-track
}

// Recompose replays terms in order. For a Result built by Compute it equals Reward.
func Recompose(terms []Term) float64 {
	var r float64
	for _, t := range terms {
		switch t.Kind {
		case TermAdd:
			r += t.Value
		case TermScale:
			r *= t.Value
		case TermOverride:
			r = t.Value
		}
	}
	return r
}

// #endregion terms
