package eval

// #region eval-config
// EvalConfig holds thresholds for post-compute validation of a reward.
type EvalConfig struct {
	MaxAbsReward     float64 // warn if |reward| exceeds this
	RecomposeEpsilon float64 // reject if the term breakdown drifts from the reward by more than this
}

// DefaultEvalConfig returns defaults that admit every stacked penalty of both strategies.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxAbsReward:     2500.0,
		RecomposeEpsilon: 1e-9,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-compute validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
