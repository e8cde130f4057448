package logging

import "time"

// #region step-entry
// StepEntry is a single row in the reward_log table.
type StepEntry struct {
	EpisodeID       string
	Step            int
	Strategy        string
	Reward          float64
	Terminal        bool
	Crashed         bool
	Offtrack        bool
	TermsJSON       string
	ObservationJSON string // empty when observation recording is off
	CreatedAt       time.Time
}

// #endregion step-entry
