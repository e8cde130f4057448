// Package server scores observations for the trainer and records every step.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/eval"
	"github.com/danielpatrickdp/track-reward/internal/logging"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/reward"
	"github.com/danielpatrickdp/track-reward/internal/rewardrpc"
)

// #region errors
var (
	// ErrRejected is returned when a computed reward fails the eval harness.
	ErrRejected = errors.New("reward rejected")
	// ErrEpisodeEnded is returned when scoring into an episode that was ended.
	ErrEpisodeEnded = errors.New("episode already ended")
	// ErrStrategyMismatch is returned when a request names a strategy other
	// than the one its episode was opened with.
	ErrStrategyMismatch = errors.New("strategy differs from episode strategy")
)

// #endregion errors

// #region server-struct
// Options tunes a Server.
type Options struct {
	DefaultStrategy    reward.Strategy
	RecordObservations bool
}

// Server implements RewardService on top of an episode store.
type Server struct {
	rewardrpc.UnimplementedRewardServiceServer

	store   *episode.Store
	harness *eval.EvalHarness
	log     *logrus.Logger
	opts    Options

	// serializes the implicit open when no episode is active
	openMu sync.Mutex
}

// New builds a Server. An empty DefaultStrategy falls back to progress_additive.
func New(store *episode.Store, harness *eval.EvalHarness, logger *logrus.Logger, opts Options) *Server {
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = reward.StrategyProgressAdditive
	}
	return &Server{store: store, harness: harness, log: logger, opts: opts}
}

// NewGRPCServer registers srv on a new grpc.Server with request logging.
func NewGRPCServer(srv *Server, logger *logrus.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(logger)))
	rewardrpc.RegisterRewardServiceServer(gs, srv)
	return gs
}

// #endregion server-struct

// #region score
// Score computes the reward for one observation and appends it to the episode log.
func (s *Server) Score(ctx context.Context, req rewardrpc.EvaluateRequest) (rewardrpc.EvaluateResponse, error) {
	ep, err := s.resolveEpisode(req)
	if err != nil {
		return rewardrpc.EvaluateResponse{}, err
	}
	if !ep.Open() {
		return rewardrpc.EvaluateResponse{}, fmt.Errorf("%w: %s", ErrEpisodeEnded, ep.EpisodeID)
	}

	strategy, err := s.resolveStrategy(req.Strategy, ep)
	if err != nil {
		return rewardrpc.EvaluateResponse{}, err
	}

	obs, err := observation.FromStruct(req.Params, strategy.RequiredFields())
	if err != nil {
		return rewardrpc.EvaluateResponse{}, fmt.Errorf("decode observation: %w", err)
	}
	res, err := reward.Compute(strategy, obs)
	if err != nil {
		return rewardrpc.EvaluateResponse{}, fmt.Errorf("compute reward: %w", err)
	}

	fields := logrus.Fields{
		"episode_id": ep.EpisodeID,
		"strategy":   strategy,
		"step":       obs.Steps,
		"reward":     res.Reward,
	}
	if ev := s.harness.Run(res); !ev.Passed {
		s.log.WithFields(fields).Warnf("eval rejected reward: %s", ev.Reason)
		return rewardrpc.EvaluateResponse{}, fmt.Errorf("%w: %s", ErrRejected, ev.Reason)
	}

	if err := s.record(ep.EpisodeID, obs, res); err != nil {
		return rewardrpc.EvaluateResponse{}, err
	}
	s.log.WithFields(fields).Debug("step scored")

	return rewardrpc.EvaluateResponse{
		EpisodeID: ep.EpisodeID,
		Step:      obs.Steps,
		Strategy:  string(strategy),
		Reward:    res.Reward,
		Terminal:  res.Terminal,
		Terms:     res.Terms,
	}, nil
}

func (s *Server) resolveEpisode(req rewardrpc.EvaluateRequest) (episode.EpisodeRecord, error) {
	if req.EpisodeID != "" {
		return s.store.GetEpisode(req.EpisodeID)
	}
	s.openMu.Lock()
	defer s.openMu.Unlock()
	ep, err := s.store.GetCurrent()
	if errors.Is(err, episode.ErrEpisodeNotFound) {
		opened, err := s.Open(context.Background(), rewardrpc.StartEpisodeRequest{Strategy: req.Strategy})
		if err != nil {
			return episode.EpisodeRecord{}, err
		}
		return s.store.GetEpisode(opened.EpisodeID)
	}
	return ep, err
}

// resolveStrategy returns the episode's strategy. A named strategy must parse
// and match it; an episode's steps are all scored one way.
func (s *Server) resolveStrategy(name string, ep episode.EpisodeRecord) (reward.Strategy, error) {
	if name != "" {
		strategy, err := reward.ParseStrategy(name)
		if err != nil {
			return "", err
		}
		if string(strategy) != ep.Strategy {
			return "", fmt.Errorf("%w: episode %s is %s, request is %s", ErrStrategyMismatch, ep.EpisodeID, ep.Strategy, strategy)
		}
		return strategy, nil
	}
	return reward.ParseStrategy(ep.Strategy)
}

func (s *Server) record(episodeID string, obs observation.Observation, res reward.Result) error {
	termsJSON, err := json.Marshal(res.Terms)
	if err != nil {
		return fmt.Errorf("marshal terms: %w", err)
	}
	var obsJSON []byte
	if s.opts.RecordObservations {
		if obsJSON, err = json.Marshal(obs); err != nil {
			return fmt.Errorf("marshal observation: %w", err)
		}
	}
	return logging.LogStep(s.store.DB(), logging.StepEntry{
		EpisodeID:       episodeID,
		Step:            obs.Steps,
		Strategy:        string(res.Strategy),
		Reward:          res.Reward,
		Terminal:        res.Terminal,
		Crashed:         obs.IsCrashed,
		Offtrack:        obs.IsOfftrack,
		TermsJSON:       string(termsJSON),
		ObservationJSON: string(obsJSON),
	})
}

// #endregion score

// #region episodes
// Open starts a new episode and makes it active.
func (s *Server) Open(ctx context.Context, req rewardrpc.StartEpisodeRequest) (rewardrpc.StartEpisodeResponse, error) {
	strategy := s.opts.DefaultStrategy
	if req.Strategy != "" {
		var err error
		if strategy, err = reward.ParseStrategy(req.Strategy); err != nil {
			return rewardrpc.StartEpisodeResponse{}, err
		}
	}
	rec, err := s.store.StartEpisode(string(strategy))
	if err != nil {
		return rewardrpc.StartEpisodeResponse{}, err
	}
	s.log.WithFields(logrus.Fields{"episode_id": rec.EpisodeID, "strategy": strategy}).Info("episode started")
	return rewardrpc.StartEpisodeResponse{EpisodeID: rec.EpisodeID, Strategy: rec.Strategy}, nil
}

// End marks an episode finished.
func (s *Server) End(ctx context.Context, episodeID string) error {
	if err := s.store.EndEpisode(episodeID); err != nil {
		return err
	}
	s.log.WithField("episode_id", episodeID).Info("episode ended")
	return nil
}

// Summary aggregates the recorded steps of an episode.
func (s *Server) Summary(ctx context.Context, episodeID string) (episode.EpisodeSummary, error) {
	return s.store.Summarize(episodeID)
}

// #endregion episodes

// #region rpc
// Evaluate implements RewardService.Evaluate.
func (s *Server) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := rewardrpc.ParseEvaluateRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.Score(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp.Struct(), nil
}

// StartEpisode implements RewardService.StartEpisode.
func (s *Server) StartEpisode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := rewardrpc.ParseStartEpisodeRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.Open(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp.Struct(), nil
}

// EpisodeSummary implements RewardService.EpisodeSummary.
func (s *Server) EpisodeSummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := rewardrpc.ParseSummaryRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	sum, err := s.Summary(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return rewardrpc.SummaryStruct(sum), nil
}

// #endregion rpc
