package eval

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/track-reward/internal/geometry"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResult(t *testing.T, s reward.Strategy, crashed bool) reward.Result {
	t.Helper()
	obs := observation.Observation{
		AllWheelsOnTrack: true,
		ClosestWaypoints: [2]int{0, 1},
		Progress:         1,
		Speed:            2,
		Steps:            3,
		TrackLength:      50,
		TrackWidth:       1,
		IsCrashed:        crashed,
		Waypoints:        []geometry.Point{{0, 0}, {1, 1}},
	}
	res, err := reward.Compute(s, obs)
	require.NoError(t, err)
	return res
}

func metric(result EvalResult, name string) (EvalMetric, bool) {
	for _, m := range result.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

func TestEvalPassesOnComputedResults(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	for _, s := range reward.Strategies() {
		for _, crashed := range []bool{false, true} {
			result := h.Run(makeResult(t, s, crashed))
			assert.Truef(t, result.Passed, "%s crashed=%v: %s", s, crashed, result.Reason)
		}
	}
}

func TestEvalMetricCount(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	result := h.Run(makeResult(t, reward.StrategyProgressAdditive, false))

	// finite + terms_finite + drift + magnitude
	assert.Len(t, result.Metrics, 4)
}

func TestEvalFailsOnNaNReward(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	res := reward.Result{Reward: math.NaN()}

	result := h.Run(res)

	assert.False(t, result.Passed)
	m, ok := metric(result, "reward_finite")
	require.True(t, ok)
	assert.False(t, m.Pass)
}

func TestEvalFailsOnNonFiniteTerm(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	res := reward.Result{
		Reward: 1,
		Terms: []reward.Term{
			{Name: "speed", Kind: reward.TermAdd, Value: math.Inf(1)},
		},
	}

	result := h.Run(res)

	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "checks")
}

func TestEvalFailsOnDrift(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	res := makeResult(t, reward.StrategyIndexMultiplicative, false)
	res.Reward += 0.5

	result := h.Run(res)

	assert.False(t, result.Passed)
	m, ok := metric(result, "terms_recompose_drift")
	require.True(t, ok)
	assert.InDelta(t, 0.5, m.Value, 1e-9)
}

func TestEvalMagnitudeInformationalOnly(t *testing.T) {
	config := DefaultEvalConfig()
	config.MaxAbsReward = 10
	h := NewEvalHarness(config)

	// crash penalty takes the reward far past 10 but the result is still valid
	result := h.Run(makeResult(t, reward.StrategyProgressAdditive, true))

	require.True(t, result.Passed, result.Reason)
	m, ok := metric(result, "reward_magnitude")
	require.True(t, ok)
	assert.False(t, m.Pass)
}
