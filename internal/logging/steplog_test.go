package logging

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE reward_log (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		episode_id       TEXT NOT NULL,
		step             INTEGER NOT NULL,
		strategy         TEXT NOT NULL,
		reward           REAL NOT NULL,
		terminal         INTEGER NOT NULL DEFAULT 0,
		crashed          INTEGER NOT NULL DEFAULT 0,
		offtrack         INTEGER NOT NULL DEFAULT 0,
		terms_json       TEXT,
		observation_json TEXT,
		created_at       TEXT NOT NULL
	)`)
	require.NoError(t, err)
	return db
}

// #endregion helpers

// #region log-step-tests
func TestLogStep_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := StepEntry{
		EpisodeID:       "ep1",
		Step:            3,
		Strategy:        "progress_additive",
		Reward:          -995.5,
		Terminal:        true,
		Crashed:         true,
		TermsJSON:       `[{"name":"crashed","kind":"add","value":-1000}]`,
		ObservationJSON: `{"x":0}`,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, LogStep(db, entry))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM reward_log").Scan(&count))
	assert.Equal(t, 1, count)

	var episodeID string
	var step int
	var rwd float64
	var crashed, offtrack bool
	require.NoError(t, db.QueryRow("SELECT episode_id, step, reward, crashed, offtrack FROM reward_log").
		Scan(&episodeID, &step, &rwd, &crashed, &offtrack))
	assert.Equal(t, "ep1", episodeID)
	assert.Equal(t, 3, step)
	assert.Equal(t, -995.5, rwd)
	assert.True(t, crashed)
	assert.False(t, offtrack)
}

func TestLogStep_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	require.NoError(t, LogStep(db, StepEntry{EpisodeID: "ep2", Strategy: "index_multiplicative"}))

	var createdAtStr string
	require.NoError(t, db.QueryRow("SELECT created_at FROM reward_log").Scan(&createdAtStr))
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	require.NoError(t, err)
	assert.False(t, createdAt.Before(before), "expected auto-filled created_at to be >= test start time")
}

func TestLogStep_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	require.NoError(t, LogStep(db, StepEntry{EpisodeID: "ep3", Strategy: "progress_additive"}))

	var termsJSON, obsJSON sql.NullString
	require.NoError(t, db.QueryRow("SELECT terms_json, observation_json FROM reward_log").Scan(&termsJSON, &obsJSON))
	assert.False(t, termsJSON.Valid, "expected NULL terms_json for empty string")
	assert.False(t, obsJSON.Valid, "expected NULL observation_json for empty string")
}

func TestLogStep_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := LogStep(db, StepEntry{EpisodeID: "ep4", Strategy: "progress_additive"})
	assert.Error(t, err)
}

// #endregion log-step-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "hello", nullIfEmpty("hello"))
}

// #endregion null-if-empty-tests

// #region logger-tests
func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", "json")
	require.NoError(t, err)

	logger.WithField("episode_id", "ep1").Debug("step")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ep1", line["episode_id"])
	assert.Equal(t, "step", line["msg"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "text")
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestNewLogger_BadInput(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

// #endregion logger-tests
