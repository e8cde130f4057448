package replay

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/danielpatrickdp/track-reward/internal/eval"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// #region types
// Case is one observation to rescore, with the reward (or error) it should produce.
type Case struct {
	Name        string
	Strategy    string
	Params      map[string]any
	Expected    float64
	ExpectError string // non-empty: the case must fail with this error kind
}

// ReplayConfig controls how strictly replayed rewards are compared.
type ReplayConfig struct {
	Tolerance  float64
	EvalConfig eval.EvalConfig
}

// DefaultReplayConfig returns a tight tolerance and the default eval thresholds.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Tolerance:  1e-6,
		EvalConfig: eval.DefaultEvalConfig(),
	}
}

// ReplayResult captures the outcome of rescoring one case.
type ReplayResult struct {
	Name     string
	Strategy string
	Action   string // "match" | "mismatch" | "error" | "eval_reject"
	Reason   string

	Expected float64
	Got      float64
	Delta    float64

	// nil when decoding or computing failed
	Result     *reward.Result
	EvalResult *eval.EvalResult
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total       int
	Matches     int
	Mismatches  int
	Errors      int
	EvalRejects int
	MaxDelta    float64
}

// #endregion types

// #region error-kinds
var errorKinds = map[string]error{
	"missing_field":         observation.ErrMissingField,
	"invalid_value":         observation.ErrInvalidValue,
	"waypoint_index":        observation.ErrWaypointIndex,
	"track_geometry":        observation.ErrTrackGeometry,
	"unknown_strategy":      reward.ErrUnknownStrategy,
	"degenerate_efficiency": reward.ErrDegenerateEfficiency,
	"non_finite_reward":     reward.ErrNonFiniteReward,
}

// ErrorKind names the contract violation behind err, or "" if it is none of them.
func ErrorKind(err error) string {
	kind, _ := lo.FindKeyBy(errorKinds, func(_ string, target error) bool {
		return errors.Is(err, target)
	})
	return kind
}

// #endregion error-kinds

// #region replay
// Replay rescores every case: decode → compute → eval → compare. Cases are independent.
func Replay(cases []Case, config ReplayConfig) []ReplayResult {
	harness := eval.NewEvalHarness(config.EvalConfig)
	results := make([]ReplayResult, 0, len(cases))

	for _, c := range cases {
		r := ReplayResult{Name: c.Name, Strategy: c.Strategy, Expected: c.Expected}

		res, err := compute(c)
		if err != nil {
			kind := ErrorKind(err)
			switch {
			case c.ExpectError != "" && kind == c.ExpectError:
				r.Action = "match"
				r.Reason = "failed as expected: " + kind
			case c.ExpectError != "":
				r.Action = "mismatch"
				r.Reason = fmt.Sprintf("expected %s, got: %v", c.ExpectError, err)
			default:
				r.Action = "error"
				r.Reason = err.Error()
			}
			results = append(results, r)
			continue
		}
		r.Result = &res
		r.Got = res.Reward

		if c.ExpectError != "" {
			r.Action = "mismatch"
			r.Reason = fmt.Sprintf("expected %s, got reward %v", c.ExpectError, res.Reward)
			results = append(results, r)
			continue
		}

		evalResult := harness.Run(res)
		r.EvalResult = &evalResult
		if !evalResult.Passed {
			r.Action = "eval_reject"
			r.Reason = evalResult.Reason
			results = append(results, r)
			continue
		}

		r.Delta = math.Abs(res.Reward - c.Expected)
		if r.Delta <= config.Tolerance {
			r.Action = "match"
		} else {
			r.Action = "mismatch"
			r.Reason = fmt.Sprintf("expected %v, got %v (delta %.6g)", c.Expected, res.Reward, r.Delta)
		}
		results = append(results, r)
	}

	return results
}

func compute(c Case) (reward.Result, error) {
	strategy, err := reward.ParseStrategy(c.Strategy)
	if err != nil {
		return reward.Result{}, err
	}
	obs, err := observation.FromParams(c.Params, strategy.RequiredFields())
	if err != nil {
		return reward.Result{}, err
	}
	return reward.Compute(strategy, obs)
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch r.Action {
		case "match":
			s.Matches++
		case "mismatch":
			s.Mismatches++
		case "error":
			s.Errors++
		case "eval_reject":
			s.EvalRejects++
		}
	}
	s.MaxDelta = lo.Reduce(results, func(acc float64, r ReplayResult, _ int) float64 {
		return math.Max(acc, r.Delta)
	}, 0)
	return s
}

// Failed returns the results that did not match.
func Failed(results []ReplayResult) []ReplayResult {
	return lo.Reject(results, func(r ReplayResult, _ int) bool { return r.Action == "match" })
}

// #endregion replay
