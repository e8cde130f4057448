package codec

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/reward"
	"github.com/danielpatrickdp/track-reward/internal/rewardrpc"
)

// #region client-struct
// RewardClient wraps the gRPC connection to a reward server.
type RewardClient struct {
	conn   *grpc.ClientConn
	client rewardrpc.RewardServiceClient
}

// #endregion client-struct

// #region constructor
// NewRewardClient connects to the reward gRPC server.
func NewRewardClient(addr string) (*RewardClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &RewardClient{
		conn:   conn,
		client: rewardrpc.NewRewardServiceClient(conn),
	}, nil
}

// NewRewardClientWithService creates a RewardClient with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewRewardClientWithService(svc rewardrpc.RewardServiceClient) *RewardClient {
	return &RewardClient{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *RewardClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region evaluate
// Evaluate scores one observation. Empty strategy and episodeID defer to the server.
func (c *RewardClient) Evaluate(ctx context.Context, obs observation.Observation, strategy reward.Strategy, episodeID string) (rewardrpc.EvaluateResponse, error) {
	params, err := obs.Struct()
	if err != nil {
		return rewardrpc.EvaluateResponse{}, err
	}
	resp, err := c.client.Evaluate(ctx, rewardrpc.EvaluateRequest{
		Params:    params,
		Strategy:  string(strategy),
		EpisodeID: episodeID,
	}.Struct())
	if err != nil {
		return rewardrpc.EvaluateResponse{}, fmt.Errorf("evaluate rpc: %w", err)
	}
	return rewardrpc.ParseEvaluateResponse(resp)
}

// #endregion evaluate

// #region episodes
// StartEpisode opens a new episode on the server and returns its id.
func (c *RewardClient) StartEpisode(ctx context.Context, strategy reward.Strategy) (rewardrpc.StartEpisodeResponse, error) {
	resp, err := c.client.StartEpisode(ctx, rewardrpc.StartEpisodeRequest{Strategy: string(strategy)}.Struct())
	if err != nil {
		return rewardrpc.StartEpisodeResponse{}, fmt.Errorf("start episode rpc: %w", err)
	}
	return rewardrpc.ParseStartEpisodeResponse(resp)
}

// EpisodeSummary fetches the aggregate of an episode's recorded steps.
func (c *RewardClient) EpisodeSummary(ctx context.Context, episodeID string) (episode.EpisodeSummary, error) {
	resp, err := c.client.EpisodeSummary(ctx, rewardrpc.SummaryRequest(episodeID))
	if err != nil {
		return episode.EpisodeSummary{}, fmt.Errorf("episode summary rpc: %w", err)
	}
	return rewardrpc.ParseSummary(resp)
}

// #endregion episodes
