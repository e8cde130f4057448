package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/eval"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Tolerance   float64           `json:"tolerance,omitempty"`
	EvalConfig  FixtureEvalConfig `json:"eval_config"`
	Cases       []FixtureCase     `json:"cases"`
}

// FixtureCase mirrors Case with JSON tags.
type FixtureCase struct {
	Name           string         `json:"name"`
	Strategy       string         `json:"strategy"`
	Params         map[string]any `json:"params"`
	ExpectedReward float64        `json:"expected_reward"`
	ExpectedError  string         `json:"expected_error,omitempty"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with JSON tags. Zero fields take the default.
type FixtureEvalConfig struct {
	MaxAbsReward     float64 `json:"max_abs_reward,omitempty"`
	RecomposeEpsilon float64 `json:"recompose_epsilon,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{
		Name:        fc.Name,
		Strategy:    fc.Strategy,
		Params:      fc.Params,
		Expected:    fc.ExpectedReward,
		ExpectError: fc.ExpectedError,
	}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	return lo.Map(f.Cases, func(fc FixtureCase, _ int) Case { return fc.ToCase() })
}

// ToReplayConfig converts fixture settings to a ReplayConfig over the defaults.
func (f *Fixture) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if f.Tolerance > 0 {
		cfg.Tolerance = f.Tolerance
	}
	if f.EvalConfig.MaxAbsReward > 0 {
		cfg.EvalConfig.MaxAbsReward = f.EvalConfig.MaxAbsReward
	}
	if f.EvalConfig.RecomposeEpsilon > 0 {
		cfg.EvalConfig.RecomposeEpsilon = f.EvalConfig.RecomposeEpsilon
	}
	return cfg
}

// FromCases builds a fixture, the inverse of ToCases.
func FromCases(description string, cases []Case, config ReplayConfig) *Fixture {
	return &Fixture{
		Description: description,
		Tolerance:   config.Tolerance,
		EvalConfig:  fixtureEvalConfig(config.EvalConfig),
		Cases: lo.Map(cases, func(c Case, _ int) FixtureCase {
			return FixtureCase{
				Name:           c.Name,
				Strategy:       c.Strategy,
				Params:         c.Params,
				ExpectedReward: c.Expected,
				ExpectedError:  c.ExpectError,
			}
		}),
	}
}

func fixtureEvalConfig(c eval.EvalConfig) FixtureEvalConfig {
	return FixtureEvalConfig{MaxAbsReward: c.MaxAbsReward, RecomposeEpsilon: c.RecomposeEpsilon}
}

// #endregion fixture-loader

// #region recorded-steps

// CasesFromSteps turns recorded steps into cases expecting the recorded reward.
// Steps logged without an observation are skipped. A non-empty strategy rescores
// every step under that strategy instead of the one it was recorded with.
func CasesFromSteps(steps []episode.StepRecord, strategy string) ([]Case, error) {
	recorded := lo.Filter(steps, func(s episode.StepRecord, _ int) bool { return s.ObservationJSON != "" })

	cases := make([]Case, 0, len(recorded))
	for _, s := range recorded {
		var params map[string]any
		if err := json.Unmarshal([]byte(s.ObservationJSON), &params); err != nil {
			return nil, fmt.Errorf("step %s#%d observation: %w", s.EpisodeID, s.Step, err)
		}
		name := s.Strategy
		if strategy != "" {
			name = strategy
		}
		cases = append(cases, Case{
			Name:     fmt.Sprintf("%s#%d", s.EpisodeID, s.Step),
			Strategy: name,
			Params:   params,
			Expected: s.Reward,
		})
	}
	return cases, nil
}

// #endregion recorded-steps
