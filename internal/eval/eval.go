package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// #region eval-harness
// EvalHarness runs lightweight checks on a computed reward before it is
// handed back to the trainer.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates a reward result. A failed run means the reward must not be used.
func (h *EvalHarness) Run(res reward.Result) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	// 1. Reward must be finite
	finite := isFinite(res.Reward)
	metrics = append(metrics, EvalMetric{
		Name:  "reward_finite",
		Value: res.Reward,
		Pass:  finite,
	})
	if !finite {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("reward is %v", res.Reward))
	}

	// 2. Every term must be finite
	badTerms := 0
	for _, t := range res.Terms {
		if !isFinite(t.Value) {
			badTerms++
			failReasons = append(failReasons, fmt.Sprintf("term %s is %v", t.Name, t.Value))
		}
	}
	metrics = append(metrics, EvalMetric{
		Name:  "terms_finite",
		Value: float64(badTerms),
		Pass:  badTerms == 0,
	})
	if badTerms > 0 {
		passed = false
	}

	// 3. Breakdown must replay to the same reward
	drift := math.Abs(reward.Recompose(res.Terms) - res.Reward)
	driftPass := finite && drift <= h.config.RecomposeEpsilon
	metrics = append(metrics, EvalMetric{
		Name:  "terms_recompose_drift",
		Value: drift,
		Pass:  driftPass,
	})
	if finite && !driftPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("term drift %.3g exceeds %.3g", drift, h.config.RecomposeEpsilon))
	}

	// 4. Magnitude: informational only, the reward is unbounded
	magnitude := math.Abs(res.Reward)
	metrics = append(metrics, EvalMetric{
		Name:  "reward_magnitude",
		Value: magnitude,
		Pass:  magnitude <= h.config.MaxAbsReward,
	})

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
