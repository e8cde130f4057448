package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-step
// LogStep writes one computed reward to the reward_log table.
func LogStep(db *sql.DB, entry StepEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO reward_log (episode_id, step, strategy, reward, terminal, crashed, offtrack, terms_json, observation_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EpisodeID,
		entry.Step,
		entry.Strategy,
		entry.Reward,
		entry.Terminal,
		entry.Crashed,
		entry.Offtrack,
		nullIfEmpty(entry.TermsJSON),
		nullIfEmpty(entry.ObservationJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log step: %w", err)
	}
	return nil
}

// #endregion log-step

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
