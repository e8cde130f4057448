package episode

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id  TEXT PRIMARY KEY,
	strategy    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	ended_at    TEXT
);

CREATE TABLE IF NOT EXISTS reward_log (
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
	created_at       TEXT NOT NULL,
	FOREIGN KEY (episode_id) REFERENCES episodes(episode_id)
);

CREATE INDEX IF NOT EXISTS reward_log_episode ON reward_log(episode_id, id);

CREATE TABLE IF NOT EXISTS active_episode (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	episode_id  TEXT NOT NULL,
	FOREIGN KEY (episode_id) REFERENCES episodes(episode_id)
);
`

// #endregion schema

// #region store-struct
// Store manages episodes and their reward log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if err := setup(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenStore opens an existing database. Read-only tools use it so a mistyped
// path is an error rather than a fresh empty database.
func OpenStore(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return NewStore(dbPath)
}

func setup(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region start-episode
// StartEpisode creates a new episode and makes it the active one.
func (s *Store) StartEpisode(strategy string) (EpisodeRecord, error) {
	rec := EpisodeRecord{
		EpisodeID: uuid.New().String(),
		Strategy:  strategy,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO episodes (episode_id, strategy, created_at) VALUES (?, ?, ?)`,
		rec.EpisodeID, rec.Strategy, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("insert episode: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_episode (id, episode_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET episode_id = excluded.episode_id`,
		rec.EpisodeID,
	)
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return EpisodeRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion start-episode

// #region end-episode
// EndEpisode stamps the episode as finished. Ending twice keeps the first timestamp.
func (s *Store) EndEpisode(id string) error {
	res, err := s.db.Exec(
		`UPDATE episodes SET ended_at = COALESCE(ended_at, ?) WHERE episode_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("end episode: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end episode: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEpisodeNotFound, id)
	}
	return nil
}

// #endregion end-episode

// #region get-current
// GetCurrent reads the active episode.
func (s *Store) GetCurrent() (EpisodeRecord, error) {
	var id string
	err := s.db.QueryRow(`SELECT episode_id FROM active_episode WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return EpisodeRecord{}, fmt.Errorf("%w: no active episode", ErrEpisodeNotFound)
	}
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetEpisode(id)
}

// #endregion get-current

// #region get-episode
// GetEpisode retrieves an episode by id.
func (s *Store) GetEpisode(id string) (EpisodeRecord, error) {
	rec, err := scanEpisode(s.db.QueryRow(
		`SELECT episode_id, strategy, created_at, ended_at FROM episodes WHERE episode_id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return EpisodeRecord{}, fmt.Errorf("%w: %s", ErrEpisodeNotFound, id)
	}
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("get episode %s: %w", id, err)
	}
	return rec, nil
}

// ListEpisodes returns the most recent episodes, newest first.
func (s *Store) ListEpisodes(limit int) ([]EpisodeRecord, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, strategy, created_at, ended_at
		 FROM episodes ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		rec, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row scanner) (EpisodeRecord, error) {
	var rec EpisodeRecord
	var createdStr string
	var endedStr sql.NullString
	if err := row.Scan(&rec.EpisodeID, &rec.Strategy, &createdStr, &endedStr); err != nil {
		return EpisodeRecord{}, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if endedStr.Valid {
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedStr.String)
	}
	return rec, nil
}

// #endregion get-episode

// #region list-steps
// ListSteps returns the reward log of an episode in insertion order.
func (s *Store) ListSteps(episodeID string) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, step, strategy, reward, terminal, crashed, offtrack,
		        terms_json, observation_json, created_at
		 FROM reward_log WHERE episode_id = ? ORDER BY id ASC`, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var r StepRecord
		var termsJSON, obsJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&r.EpisodeID, &r.Step, &r.Strategy, &r.Reward, &r.Terminal,
			&r.Crashed, &r.Offtrack, &termsJSON, &obsJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.TermsJSON = termsJSON.String
		r.ObservationJSON = obsJSON.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		steps = append(steps, r)
	}
	return steps, rows.Err()
}

// #endregion list-steps

// #region summarize
// Summarize aggregates the reward log of an episode.
func (s *Store) Summarize(episodeID string) (EpisodeSummary, error) {
	ep, err := s.GetEpisode(episodeID)
	if err != nil {
		return EpisodeSummary{}, err
	}
	steps, err := s.ListSteps(episodeID)
	if err != nil {
		return EpisodeSummary{}, err
	}
	return Summarize(ep, steps), nil
}

// Summarize computes aggregate stats over already-loaded steps.
func Summarize(ep EpisodeRecord, steps []StepRecord) EpisodeSummary {
	sum := EpisodeSummary{
		EpisodeID: ep.EpisodeID,
		Strategy:  ep.Strategy,
		Steps:     len(steps),
	}
	if len(steps) == 0 {
		return sum
	}
	rewards := make([]float64, len(steps))
	for i, st := range steps {
		rewards[i] = st.Reward
		if st.Crashed {
			sum.Crashes++
		}
		if st.Offtrack {
			sum.Offtracks++
		}
	}
	sum.TotalReward = floats.Sum(rewards)
	sum.MinReward = floats.Min(rewards)
	sum.MaxReward = floats.Max(rewards)
	if len(rewards) > 1 {
		sum.MeanReward, sum.StdReward = stat.MeanStdDev(rewards, nil)
	} else {
		sum.MeanReward = rewards[0]
	}
	return sum
}

// #endregion summarize
