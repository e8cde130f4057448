package reward

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/track-reward/internal/geometry"
	"github.com/danielpatrickdp/track-reward/internal/observation"
)

// #region constants
const (
	crashPenalty     = 1000.0
	wheelsOffPenalty = 5.0
	speedCap         = 4.0

	// progress_additive weights
	currentWaypointWeight = 0.75
	nextWaypointWeight    = 1.5

	// index_multiplicative weights
	indexCurrentWeight  = 0.5
	indexNextWeight     = 1.5
	indexSpeedWeight    = 2.0
	directionThreshold  = 10.0
	directionMisaligned = 0.5
	terminalReward      = -1000.0
	stepsPerPenalty     = 100.0
)

// #endregion constants

// #region compute
// Compute evaluates the observation under the given strategy.
// The observation is validated first; a contract violation is returned as an error,
// and so is a reward that overflows to a non-finite value.
func Compute(strategy Strategy, obs observation.Observation) (Result, error) {
	if err := obs.Validate(); err != nil {
		return Result{}, err
	}
	var res Result
	switch strategy {
	case StrategyProgressAdditive:
		var err error
		if res, err = progressAdditive(obs); err != nil {
			return Result{}, err
		}
	case StrategyIndexMultiplicative:
		res = indexMultiplicative(obs)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
	}
	if math.IsNaN(res.Reward) || math.IsInf(res.Reward, 0) {
		return Result{}, fmt.Errorf("%w: %s gave %v", ErrNonFiniteReward, strategy, res.Reward)
	}
	return res, nil
}

// Reward is Compute without the breakdown.
func Reward(strategy Strategy, obs observation.Observation) (float64, error) {
	res, err := Compute(strategy, obs)
	if err != nil {
		return 0, err
	}
	return res.Reward, nil
}

// #endregion compute

// #region progress-additive
func progressAdditive(obs observation.Observation) (Result, error) {
	pos := obs.Position()
	current := obs.Waypoints[obs.ClosestWaypoints[0]]
	next := obs.Waypoints[obs.ClosestWaypoints[1]]

	var reward float64
	terms := make([]Term, 0, 9)
	add := func(name string, v float64) {
		reward += v
		terms = append(terms, Term{Name: name, Kind: TermAdd, Value: v})
	}

	add("current_waypoint", currentWaypointWeight/(1+geometry.Distance(pos, current)))
	add("next_waypoint", nextWaypointWeight/(1+geometry.Distance(pos, next)))

	// Progress per step against the ideal pace.
	metersPerPercent := obs.TrackLength / 100
	expected := obs.Progress * metersPerPercent
	denom := max(float64(obs.Steps), expected)
	if denom == 0 {
		return Result{}, ErrDegenerateEfficiency
	}
	efficiency := expected / denom
	if efficiency > 1 {
		add("efficiency", efficiency*efficiency)
	} else {
		add("efficiency", -efficiency)
	}

	add("centering", 1-obs.DistanceFromCenter/(obs.TrackWidth/2))

	direction := geometry.TrackDirection(current, next)
	headingDiff := geometry.NormalizeAngularDifference(direction - obs.Heading)
	add("heading", 1-headingDiff/180)

	add("speed", 2/(5-min(speedCap, obs.Speed)))

	var wheels, crash, offtrack float64
	if !obs.AllWheelsOnTrack {
		wheels = -wheelsOffPenalty
	}
	if obs.IsCrashed {
		crash = -crashPenalty
	}
	if obs.IsOfftrack {
		offtrack = -crashPenalty
	}
	add("wheels_off_track", wheels)
	add("crashed", crash)
	add("offtrack", offtrack)

	return Result{
		Strategy: StrategyProgressAdditive,
		Reward:   reward,
		Terms:    terms,
		Terminal: obs.IsCrashed || obs.IsOfftrack,
	}, nil
}

// #endregion progress-additive

// #region index-multiplicative
func indexMultiplicative(obs observation.Observation) Result {
	pos := obs.Position()
	currentIdx := min(obs.ClosestWaypoints[0], obs.ClosestWaypoints[1])
	nextIdx := max(obs.ClosestWaypoints[0], obs.ClosestWaypoints[1])
	current := obs.Waypoints[currentIdx]
	next := obs.Waypoints[nextIdx]

	terms := make([]Term, 0, 7)

	currentTerm := indexCurrentWeight * float64(1+currentIdx) / (1 + geometry.Distance(pos, current))
	nextTerm := indexNextWeight * float64(1+nextIdx) / (1 + geometry.Distance(pos, next))
	speedTerm := min(speedCap, obs.Speed) * indexSpeedWeight
	reward := currentTerm + nextTerm + speedTerm
	terms = append(terms,
		Term{Name: "current_waypoint", Kind: TermAdd, Value: currentTerm},
		Term{Name: "next_waypoint", Kind: TermAdd, Value: nextTerm},
		Term{Name: "speed", Kind: TermAdd, Value: speedTerm},
	)

	half := obs.TrackWidth / 2
	centering := (half - obs.DistanceFromCenter) / half
	reward *= centering
	terms = append(terms, Term{Name: "centering", Kind: TermScale, Value: centering})

	// Assumes heading and bearing are both in [-180, 180].
	direction := geometry.TrackDirection(current, next)
	diff := geometry.FoldDirectionDifference(math.Abs(direction - obs.Heading))
	directionFactor := 1.0
	if diff > directionThreshold {
		directionFactor = directionMisaligned
	}
	reward *= directionFactor
	terms = append(terms, Term{Name: "direction", Kind: TermScale, Value: directionFactor})

	terminal := obs.IsCrashed || obs.IsOfftrack
	if terminal {
		reward = terminalReward
		terms = append(terms, Term{Name: "terminal", Kind: TermOverride, Value: terminalReward})
	}

	stepPenalty := -float64(obs.Steps) / stepsPerPenalty
	reward += stepPenalty
	terms = append(terms, Term{Name: "step_penalty", Kind: TermAdd, Value: stepPenalty})

	return Result{
		Strategy: StrategyIndexMultiplicative,
		Reward:   reward,
		Terms:    terms,
		Terminal: terminal,
	}
}

// #endregion index-multiplicative
