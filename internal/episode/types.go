package episode

import (
	"errors"
	"time"
)

// ErrEpisodeNotFound is returned when an episode id is unknown.
var ErrEpisodeNotFound = errors.New("episode not found")

// #region episode-record
// EpisodeRecord is one training episode: a run of steps scored under one strategy.
type EpisodeRecord struct {
	EpisodeID string
	Strategy  string
	CreatedAt time.Time
	EndedAt   time.Time // zero while the episode is open
}

// Open reports whether the episode has not been ended.
func (e EpisodeRecord) Open() bool {
	return e.EndedAt.IsZero()
}

// #endregion episode-record

// #region step-record
// StepRecord is one row of reward_log read back from the store.
type StepRecord struct {
	EpisodeID       string
	Step            int
	Strategy        string
	Reward          float64
	Terminal        bool
	Crashed         bool
	Offtrack        bool
	TermsJSON       string
	ObservationJSON string
	CreatedAt       time.Time
}

// #endregion step-record

// #region summary
// EpisodeSummary aggregates the steps of one episode.
type EpisodeSummary struct {
	EpisodeID   string  `json:"episode_id"`
	Strategy    string  `json:"strategy"`
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
	MeanReward  float64 `json:"mean_reward"`
	StdReward   float64 `json:"std_reward"`
	MinReward   float64 `json:"min_reward"`
	MaxReward   float64 `json:"max_reward"`
	Crashes     int     `json:"crashes"`
	Offtracks   int     `json:"offtracks"`
}

// #endregion summary
