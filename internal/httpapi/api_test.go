package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/eval"
	"github.com/danielpatrickdp/track-reward/internal/geometry"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/rewardrpc"
	"github.com/danielpatrickdp/track-reward/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// #region helpers
func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupAPI(t *testing.T) *API {
	t.Helper()
	store, err := episode.NewStore(filepath.Join(t.TempDir(), "reward.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := quietLogger()
	srv := server.New(store, eval.NewEvalHarness(eval.DefaultEvalConfig()), logger, server.Options{})
	return NewAPI(srv, logger)
}

func do(t *testing.T, a *API, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func straightParams() map[string]any {
	return observation.Observation{
		AllWheelsOnTrack: true,
		ClosestWaypoints: [2]int{0, 1},
		Progress:         1,
		Speed:            4,
		Steps:            1,
		TrackLength:      100,
		TrackWidth:       2,
		Waypoints:        []geometry.Point{{0, 0}, {1, 0}},
	}.Params()
}

// #endregion helpers

func TestHealthz(t *testing.T) {
	w := do(t, setupAPI(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestEvaluate(t *testing.T) {
	a := setupAPI(t)

	w := do(t, a, http.MethodPost, "/v1/reward", map[string]any{"params": straightParams()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp rewardrpc.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 4.5, resp.Reward, 1e-9)
	assert.Equal(t, "progress_additive", resp.Strategy)
	assert.NotEmpty(t, resp.Terms)
}

func TestEvaluate_StrategyMismatchConflict(t *testing.T) {
	a := setupAPI(t)

	w := do(t, a, http.MethodPost, "/v1/reward", map[string]any{"params": straightParams()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, a, http.MethodPost, "/v1/reward", map[string]any{
		"params":   straightParams(),
		"strategy": "index_multiplicative",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEvaluate_NullRequiredField(t *testing.T) {
	p := straightParams()
	p["is_crashed"] = nil
	w := do(t, setupAPI(t), http.MethodPost, "/v1/reward", map[string]any{"params": p})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluate_BadRequests(t *testing.T) {
	a := setupAPI(t)

	missing := straightParams()
	delete(missing, observation.KeyTrackWidth)

	cases := []struct {
		name string
		body any
		want int
	}{
		{"not an object", []int{1, 2}, http.StatusBadRequest},
		{"no params", map[string]any{"strategy": "progress_additive"}, http.StatusBadRequest},
		{"missing field", map[string]any{"params": missing}, http.StatusBadRequest},
		{"unknown strategy", map[string]any{"params": straightParams(), "strategy": "greedy"}, http.StatusBadRequest},
		{"unknown episode", map[string]any{"params": straightParams(), "episode_id": "nope"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, a, http.MethodPost, "/v1/reward", tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestEpisodeLifecycle(t *testing.T) {
	a := setupAPI(t)

	w := do(t, a, http.MethodPost, "/v1/episodes", map[string]string{"strategy": "index_multiplicative"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var started rewardrpc.StartEpisodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.Equal(t, "index_multiplicative", started.Strategy)

	w = do(t, a, http.MethodPost, "/v1/reward", map[string]any{"params": straightParams()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, a, http.MethodGet, "/v1/episodes/"+started.EpisodeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sum episode.EpisodeSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.Steps)
	assert.InDelta(t, 9.99, sum.TotalReward, 1e-9)

	w = do(t, a, http.MethodPost, "/v1/episodes/"+started.EpisodeID+"/end", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, a, http.MethodPost, "/v1/reward", map[string]any{"params": straightParams()})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartEpisode_EmptyBody(t *testing.T) {
	w := do(t, setupAPI(t), http.MethodPost, "/v1/episodes", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "progress_additive")
}

func TestEpisodeSummary_NotFound(t *testing.T) {
	a := setupAPI(t)
	assert.Equal(t, http.StatusNotFound, do(t, a, http.MethodGet, "/v1/episodes/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, a, http.MethodPost, "/v1/episodes/nope/end", nil).Code)
}

// #region stub
type brokenService struct{}

func (brokenService) Score(context.Context, rewardrpc.EvaluateRequest) (rewardrpc.EvaluateResponse, error) {
	return rewardrpc.EvaluateResponse{}, errors.New("disk full")
}

func (brokenService) Open(context.Context, rewardrpc.StartEpisodeRequest) (rewardrpc.StartEpisodeResponse, error) {
	return rewardrpc.StartEpisodeResponse{}, errors.New("disk full")
}

func (brokenService) End(context.Context, string) error { return errors.New("disk full") }

func (brokenService) Summary(context.Context, string) (episode.EpisodeSummary, error) {
	return episode.EpisodeSummary{}, errors.New("disk full")
}

// #endregion stub

func TestStorageFailureIs500(t *testing.T) {
	a := NewAPI(brokenService{}, quietLogger())
	assert.Equal(t, http.StatusInternalServerError,
		do(t, a, http.MethodPost, "/v1/reward", map[string]any{"params": straightParams()}).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, a, http.MethodPost, "/v1/episodes", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, a, http.MethodGet, "/v1/episodes/x", nil).Code)
}
